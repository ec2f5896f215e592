package ring

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joeycumines/go-baton/emission"
	"github.com/joeycumines/go-baton/gate"
	"github.com/joeycumines/logiface"
	"golang.org/x/exp/constraints"
	"golang.org/x/sync/errgroup"
)

// ErrInvalidParticipants is returned by Count if the participant count is
// not positive.
var ErrInvalidParticipants = errors.New(`ring: participant count must be positive`)

type (
	// Result summarizes a completed run.
	Result struct {
		// Stranded lists the participants (ascending) that gave up waiting
		// for their turn, due to timeout or cancellation.
		Stranded []int

		// Emitted is the total number of emissions made.
		Emitted int
	}

	// run models the state of a single call to Count.
	run[T constraints.Integer] struct {
		// betteralign:ignore

		parent   context.Context
		sink     emission.Sink[T]
		opts     *runOptions
		gates    *gate.Ring
		done     chan struct{} // closed by the participant that observes exhaustion
		stranded []bool        // indexed by participant, each only written by its owner
		end      T

		// only accessed by the baton holder

		counter   T
		emitted   int
		exhausted bool // set once end has been emitted, guards against overflow
	}
)

// Count runs the given number of participants, concurrently, which take
// turns to emit the values start through end (inclusive), in strict ring
// order, to sink. It blocks until every participant has exited.
//
// If end < start, there will be no emissions. Participants that time out
// waiting for their turn, or observe ctx being canceled, log a diagnostic and
// exit, and are reported via Result.Stranded, rather than as an error. An
// error will be returned if the configuration is invalid, or if sink fails,
// in which case the run is aborted.
//
// A panic will occur if ctx or sink are nil.
func Count[T constraints.Integer](ctx context.Context, participants int, start, end T, sink emission.Sink[T], options ...Option) (*Result, error) {
	if ctx == nil {
		panic(`ring: nil context`)
	}
	if sink == nil {
		panic(`ring: nil sink`)
	}
	if participants < 1 {
		return nil, fmt.Errorf(`%w: %d`, ErrInvalidParticipants, participants)
	}

	opts, err := resolveOptions(options)
	if err != nil {
		return nil, err
	}

	gates, err := gate.NewRing(participants)
	if err != nil {
		return nil, err
	}

	x := run[T]{
		parent:   ctx,
		sink:     sink,
		opts:     opts,
		gates:    gates,
		done:     make(chan struct{}),
		stranded: make([]bool, participants),
		end:      end,
		counter:  start,
	}

	b := opts.logger.Debug().Int(`participants`, participants)
	b = integerField(b, `start`, start)
	b = integerField(b, `end`, end)
	b.Log(`ring run starting`)

	group, groupCtx := errgroup.WithContext(ctx)
	for i := range participants {
		group.Go(func() error {
			return x.participate(groupCtx, i)
		})
	}
	err = group.Wait()

	result := Result{Emitted: x.emitted}
	for i, v := range x.stranded {
		if v {
			result.Stranded = append(result.Stranded, i)
		}
	}

	opts.logger.Debug().
		Int(`emitted`, result.Emitted).
		Int(`stranded`, len(result.Stranded)).
		Log(`ring run finished`)

	return &result, err
}

// participate is the loop run by each participant, until the range is
// exhausted, it gives up waiting, or the run is aborted.
func (x *run[T]) participate(ctx context.Context, participant int) error {
	name := x.opts.namer(participant)
	turn := x.gates.Gate(participant)

	var timer *time.Timer
	if x.opts.waitTimeout > 0 {
		timer = time.NewTimer(x.opts.waitTimeout)
		defer timer.Stop()
	}

	for {
		var timeout <-chan time.Time
		if timer != nil {
			timer.Reset(x.opts.waitTimeout)
			timeout = timer.C
		}

		select {
		case <-turn.Ready():
		case <-x.done:
			return nil
		case <-ctx.Done():
			if err := x.parent.Err(); err != nil {
				x.strand(participant, name, `canceled`, err)
			}
			// otherwise another participant failed, and will report it
			return nil
		case <-timeout:
			x.strand(participant, name, `timeout`, nil)
			return nil
		}

		// holding the baton

		if x.exhausted || x.counter > x.end {
			// note: the baton is deliberately not passed on
			close(x.done)
			return nil
		}

		if err := x.sink.Emit(emission.Emission[T]{Name: name, Participant: participant, Value: x.counter}); err != nil {
			x.opts.logger.Err().
				Err(err).
				Int(`participant`, participant).
				Str(`name`, name).
				Log(`emit failed`)
			return fmt.Errorf(`ring: participant %d: emit: %w`, participant, err)
		}

		x.exhausted = x.counter == x.end
		x.counter++
		x.emitted++

		x.gates.HandOff(participant)
	}
}

func (x *run[T]) strand(participant int, name string, reason string, err error) {
	x.stranded[participant] = true
	b := x.opts.logger.Warning()
	if err != nil {
		b = b.Err(err)
	}
	b.Int(`participant`, participant).
		Str(`name`, name).
		Str(`reason`, reason).
		Log(`participant stranded`)
}

// integerField adds v as a signed field if negative, otherwise unsigned, so
// that values of any integer type are logged exactly.
func integerField[T constraints.Integer](b *logiface.Builder[logiface.Event], key string, v T) *logiface.Builder[logiface.Event] {
	if v < 0 {
		return b.Int64(key, int64(v))
	}
	return b.Uint64(key, uint64(v))
}
