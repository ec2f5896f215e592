package alternator

import (
	"context"
	"errors"
	"fmt"

	"github.com/joeycumines/go-baton/emission"
	"github.com/joeycumines/go-baton/gate"
	"github.com/joeycumines/logiface"
	"golang.org/x/exp/constraints"
	"golang.org/x/sync/errgroup"
)

// Participant identifiers, as set on each emission.
const (
	Even = 0
	Odd  = 1
)

type (
	// Option configures a call to Count.
	Option func(c *config) error

	// Result summarizes a completed run.
	Result struct {
		// Stranded lists the participants (ascending) that stopped waiting
		// for their turn, due to cancellation.
		Stranded []int

		// Emitted is the total number of emissions made.
		Emitted int
	}

	config struct {
		logger *logiface.Logger[logiface.Event]
		names  [2]string
	}

	// turn models one participant's half of the exchange
	turn struct {
		wait   *gate.Gate
		signal *gate.Gate
		name   string
		id     int
	}
)

// WithLogger configures the logger used for diagnostics, which is disabled
// by default.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return func(c *config) error {
		c.logger = logger
		return nil
	}
}

// WithNames overrides the display names of the participants, which default
// to "even" and "odd".
func WithNames(even, odd string) Option {
	return func(c *config) error {
		if even == `` || odd == `` {
			return errors.New(`alternator: invalid names: must not be empty`)
		}
		c.names = [2]string{even, odd}
		return nil
	}
}

// Count runs two participants, concurrently, which alternate emitting the
// values start through end (inclusive) to sink, beginning with the even
// participant. It blocks until both participants have finished.
//
// If end < start, there will be no emissions. If ctx is canceled, any
// participant waiting for its turn will log a diagnostic and exit, and is
// reported via Result.Stranded, rather than as an error. An error will be
// returned if an option is invalid, or if sink fails, in which case the run
// is aborted.
//
// A panic will occur if ctx or sink are nil.
func Count[T constraints.Integer](ctx context.Context, start, end T, sink emission.Sink[T], options ...Option) (*Result, error) {
	if ctx == nil {
		panic(`alternator: nil context`)
	}
	if sink == nil {
		panic(`alternator: nil sink`)
	}

	c := config{names: [2]string{`even`, `odd`}}
	for _, o := range options {
		if o == nil {
			continue
		}
		if err := o(&c); err != nil {
			return nil, err
		}
	}

	var (
		evenTurn = gate.New(true)
		oddTurn  = gate.New(false)
		counts   [2]int
		stranded [2]bool
	)

	turns := [2]turn{
		{wait: evenTurn, signal: oddTurn, name: c.names[Even], id: Even},
		{wait: oddTurn, signal: evenTurn, name: c.names[Odd], id: Odd},
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for i := range turns {
		group.Go(func() (err error) {
			counts[i], stranded[i], err = participate(ctx, groupCtx, c.logger, turns[i], start, end, sink)
			return err
		})
	}
	err := group.Wait()

	result := Result{Emitted: counts[Even] + counts[Odd]}
	for i, v := range stranded {
		if v {
			result.Stranded = append(result.Stranded, i)
		}
	}

	return &result, err
}

// participate emits every second value of the range, starting at start+id.
func participate[T constraints.Integer](parent, ctx context.Context, logger *logiface.Logger[logiface.Event], t turn, start, end T, sink emission.Sink[T]) (count int, stranded bool, err error) {
	if end < start || (t.id == Odd && end == start) {
		return 0, false, nil
	}

	for i := start + T(t.id); ; {
		if err := t.wait.Acquire(ctx); err != nil {
			if parent.Err() == nil {
				// the other participant failed, and will report it
				return count, false, nil
			}
			logger.Warning().
				Err(err).
				Int(`participant`, t.id).
				Str(`name`, t.name).
				Log(`participant stranded`)
			return count, true, nil
		}

		if err := sink.Emit(emission.Emission[T]{Name: t.name, Participant: t.id, Value: i}); err != nil {
			logger.Err().
				Err(err).
				Int(`participant`, t.id).
				Str(`name`, t.name).
				Log(`emit failed`)
			return count, false, fmt.Errorf(`alternator: %s: emit: %w`, t.name, err)
		}
		count++

		// the final release may never be consumed, which is expected
		t.signal.Release()

		next := i + 2
		if next < i || next > end {
			return count, false, nil
		}
		i = next
	}
}
