package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/joeycumines/go-baton/alternator"
	"github.com/joeycumines/go-baton/emission"
	"github.com/joeycumines/go-baton/internal/config"
	"github.com/joeycumines/go-baton/internal/logging"
	"github.com/joeycumines/go-baton/ring"
	"github.com/joeycumines/logiface"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// app holds the state shared by the subcommands, populated prior to running
// any of them.
type app struct {
	stdout   io.Writer
	stderr   io.Writer
	getenv   func(string) string
	cfg      *config.Config
	logger   *logiface.Logger[logiface.Event]
	cfgPath  string
	logLevel string
	noTime   bool
}

// run executes the command line, with args excluding the program name.
func run(ctx context.Context, stdout, stderr io.Writer, getenv func(string) string, args []string) error {
	rootCmd := newRootCmd(stdout, stderr, getenv)
	rootCmd.SetArgs(allowNegativeArgs(args))
	return rootCmd.ExecuteContext(ctx)
}

// allowNegativeArgs inserts the "--" terminator before the first argument
// that is a negative integer, which would otherwise be parsed as a shorthand
// flag. No flag of this command is a digit, and flags must precede values.
func allowNegativeArgs(args []string) []string {
	for i, arg := range args {
		if arg == "--" {
			break
		}
		if len(arg) > 1 && arg[0] == '-' && strings.TrimLeft(arg[1:], "0123456789") == "" {
			out := make([]string, 0, len(args)+1)
			out = append(out, args[:i]...)
			out = append(out, "--")
			return append(out, args[i:]...)
		}
	}
	return args
}

func newRootCmd(stdout, stderr io.Writer, getenv func(string) string) *cobra.Command {
	x := app{
		stdout: stdout,
		stderr: stderr,
		getenv: getenv,
	}

	rootCmd := &cobra.Command{
		Use:           "baton",
		Short:         "Count over a range, passing a baton between concurrent participants",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return x.init()
		},
	}

	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVar(&x.cfgPath, "config", "", "path to a TOML config file")
	rootCmd.PersistentFlags().StringVar(&x.logLevel, "log-level", "", "log level (overrides config), e.g. debug, info, warning, err")
	rootCmd.PersistentFlags().BoolVar(&x.noTime, "log-no-time", false, "omit the time field from log lines")

	rootCmd.AddCommand(
		x.ringCmd(),
		x.alternateCmd(),
	)

	return rootCmd
}

func (x *app) init() error {
	cfg, err := config.Load(x.cfgPath, x.getenv)
	if err != nil {
		return x.fail(err)
	}
	if x.logLevel != "" {
		cfg.LogLevel = x.logLevel
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return x.fail(err)
	}
	x.cfg = cfg
	x.logger = logging.New(x.stderr, level, x.noTime)
	return nil
}

// fail reports err on stderr, as errors are silenced so they may be logged
// prior to the logger being configured.
func (x *app) fail(err error) error {
	_, _ = fmt.Fprintf(x.stderr, "baton: %v\n", err)
	return err
}

func (x *app) ringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ring N START END",
		Short: "Count START through END with N participants taking turns in ring order",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			participants, err := strconv.Atoi(args[0])
			if err != nil {
				return x.fail(fmt.Errorf("invalid N: %w", err))
			}
			start, end, err := parseRange(args[1], args[2])
			if err != nil {
				return x.fail(err)
			}
			prefix := x.cfg.Ring.NamePrefix
			return x.pipe(cmd.Context(), func(ctx context.Context, sink emission.Sink[int64]) (int, []int, error) {
				result, err := ring.Count(ctx, participants, start, end, sink,
					ring.WithLogger(x.logger),
					ring.WithWaitTimeout(x.cfg.Ring.WaitTimeout),
					ring.WithNamer(func(participant int) string { return prefix + strconv.Itoa(participant) }),
				)
				if result == nil {
					return 0, nil, err
				}
				return result.Emitted, result.Stranded, err
			})
		},
	}
}

func (x *app) alternateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "alternate START END",
		Short: "Count START through END with two participants alternating",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := parseRange(args[0], args[1])
			if err != nil {
				return x.fail(err)
			}
			return x.pipe(cmd.Context(), func(ctx context.Context, sink emission.Sink[int64]) (int, []int, error) {
				result, err := alternator.Count(ctx, start, end, sink,
					alternator.WithLogger(x.logger),
					alternator.WithNames(x.cfg.Alt.EvenName, x.cfg.Alt.OddName),
				)
				if result == nil {
					return 0, nil, err
				}
				return result.Emitted, result.Stranded, err
			})
		},
	}
}

func parseRange(startArg, endArg string) (start, end int64, err error) {
	if start, err = strconv.ParseInt(startArg, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("invalid START: %w", err)
	}
	if end, err = strconv.ParseInt(endArg, 10, 64); err != nil {
		return 0, 0, fmt.Errorf("invalid END: %w", err)
	}
	return start, end, nil
}

// pipe runs count with a sink that forwards to a buffered writer on stdout,
// via a channel, so output never holds up the participants. A run is
// considered to have failed if any participant was stranded.
func (x *app) pipe(ctx context.Context, count func(ctx context.Context, sink emission.Sink[int64]) (emitted int, stranded []int, err error)) error {
	group, groupCtx := errgroup.WithContext(ctx)
	ch := emission.NewChannel[int64](groupCtx, x.cfg.Buffer)

	var (
		emitted  int
		stranded []int
	)

	group.Go(func() (err error) {
		defer ch.Close()
		emitted, stranded, err = count(ctx, ch)
		return err
	})

	group.Go(func() error {
		out := bufio.NewWriter(x.stdout)
		writer := emission.NewWriter[int64](out)
		// the channel is always closed, and everything received must be written
		return emission.Drain(context.WithoutCancel(ctx), &emission.DrainConfig{
			MaxSize:        x.cfg.Drain.MaxSize,
			PartialTimeout: x.cfg.Drain.PartialTimeout,
		}, ch.C(), func(batch []emission.Emission[int64]) error {
			if err := writer.WriteBatch(batch); err != nil {
				return err
			}
			return out.Flush()
		})
	})

	if err := group.Wait(); err != nil {
		x.logger.Err().
			Err(err).
			Int(`emitted`, emitted).
			Log(`run failed`)
		return x.fail(err)
	}

	x.logger.Info().
		Int(`emitted`, emitted).
		Int(`stranded`, len(stranded)).
		Log(`run finished`)

	if len(stranded) != 0 {
		return x.fail(fmt.Errorf("stranded participants: %v", stranded))
	}

	return nil
}
