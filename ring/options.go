package ring

import (
	"errors"
	"strconv"
	"time"

	"github.com/joeycumines/logiface"
)

// DefaultWaitTimeout is the maximum time a participant will wait for its
// turn, if not configured via WithWaitTimeout.
const DefaultWaitTimeout = time.Second

type (
	// Option configures a call to Count.
	Option interface {
		applyRun(*runOptions) error
	}

	// runOptions holds configuration options for a single run.
	runOptions struct {
		logger      *logiface.Logger[logiface.Event]
		namer       func(participant int) string
		waitTimeout time.Duration
	}

	optionImpl struct {
		applyRunFunc func(*runOptions) error
	}
)

func (x *optionImpl) applyRun(opts *runOptions) error {
	return x.applyRunFunc(opts)
}

// WithWaitTimeout sets the maximum time each participant will wait for its
// gate, before giving up, logging a diagnostic, and exiting. A timeout
// indicates that the baton was never handed to the participant, e.g. due to
// a stalled peer or sink. Zero uses DefaultWaitTimeout, and a negative value
// disables the timeout.
func WithWaitTimeout(timeout time.Duration) Option {
	return &optionImpl{func(opts *runOptions) error {
		if timeout == 0 {
			timeout = DefaultWaitTimeout
		}
		opts.waitTimeout = timeout
		return nil
	}}
}

// WithLogger configures the logger used for diagnostics, which is disabled
// by default. Use logiface.Logger.Logger to convert from a specific
// implementation.
func WithLogger(logger *logiface.Logger[logiface.Event]) Option {
	return &optionImpl{func(opts *runOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithNamer sets the function used to derive the display name of each
// participant, included in each emission. Defaults to "p<participant>".
func WithNamer(namer func(participant int) string) Option {
	return &optionImpl{func(opts *runOptions) error {
		if namer == nil {
			return errors.New(`ring: invalid namer: nil`)
		}
		opts.namer = namer
		return nil
	}}
}

// DefaultNamer names participants "p0", "p1", etc.
func DefaultNamer(participant int) string {
	return `p` + strconv.Itoa(participant)
}

// resolveOptions applies Option instances to runOptions.
func resolveOptions(options []Option) (*runOptions, error) {
	cfg := &runOptions{
		namer:       DefaultNamer,
		waitTimeout: DefaultWaitTimeout,
	}
	for _, opt := range options {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applyRun(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
