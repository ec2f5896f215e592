package emission

import (
	"context"
	"sync"
	"time"

	"golang.org/x/exp/constraints"
)

type (
	// Channel is a Sink that forwards emissions to a channel, decoupling the
	// participants from a (potentially slow) consumer. Instances must be
	// initialized using the NewChannel factory.
	//
	// The consumer should receive from C, typically via Drain, until it is
	// closed. The producer must call Close once the run has finished.
	Channel[T constraints.Integer] struct {
		ctx       context.Context
		ch        chan Emission[T]
		closeOnce sync.Once
	}

	// DrainConfig models optional configuration, for Drain.
	DrainConfig struct {
		// MaxSize is the maximum number of emissions passed to the handler,
		// per call. Setting this to a value < 0 will disable the maximum size
		// constraint.
		//
		// Defaults to 16, if 0.
		MaxSize int

		// PartialTimeout is the maximum time to wait for further emissions,
		// after receiving the first emission of a batch, before passing the
		// (partial) batch to the handler. Setting this to a value < 0 will
		// pass whatever is immediately available.
		//
		// Defaults to 50ms, if 0.
		PartialTimeout time.Duration
	}
)

// NewChannel initializes a Channel with the given buffer size. Emit will
// block while the buffer is full, unless ctx is canceled, in which case it
// will return ctx.Err(). A panic will occur if ctx is nil.
func NewChannel[T constraints.Integer](ctx context.Context, size int) *Channel[T] {
	if ctx == nil {
		panic(`emission: nil context`)
	}
	if size < 0 {
		size = 0
	}
	return &Channel[T]{
		ctx: ctx,
		ch:  make(chan Emission[T], size),
	}
}

// C returns the receive side of the channel.
func (x *Channel[T]) C() <-chan Emission[T] {
	return x.ch
}

// Emit implements Sink.
//
// This method must not be called after Close.
func (x *Channel[T]) Emit(e Emission[T]) error {
	if err := x.ctx.Err(); err != nil {
		return err
	}
	select {
	case <-x.ctx.Done():
		return x.ctx.Err()
	case x.ch <- e:
		return nil
	}
}

// Close closes the channel, signaling to the consumer that there will be no
// more emissions. It is safe to call more than once.
func (x *Channel[T]) Close() {
	x.closeOnce.Do(func() {
		close(x.ch)
	})
}

// Drain receives emissions from ch in batches, passing each batch to
// handler, until ch is closed and empty, in which case nil is returned. If
// ctx is canceled, or handler returns an error, that error is returned. The
// cfg parameter is optional, and may be nil, in which case the documented
// defaults will be used.
//
// The batch slice is reused between calls to handler, and must not be
// retained.
//
// Providing a nil ctx, ch, or handler will cause a panic.
func Drain[T constraints.Integer](ctx context.Context, cfg *DrainConfig, ch <-chan Emission[T], handler func(batch []Emission[T]) error) error {
	if ctx == nil {
		panic(`emission: nil context`)
	}
	if ch == nil {
		panic(`emission: nil channel`)
	}
	if handler == nil {
		panic(`emission: nil handler`)
	}

	maxSize := 16
	partialTimeout := 50 * time.Millisecond
	if cfg != nil {
		if cfg.MaxSize != 0 {
			maxSize = cfg.MaxSize
		}
		if cfg.PartialTimeout != 0 {
			partialTimeout = cfg.PartialTimeout
		}
	}

	var batch []Emission[T]
	if maxSize > 0 {
		batch = make([]Emission[T], 0, maxSize)
	}

	for {
		batch = batch[:0]
		eof, err := drainBatch(ctx, maxSize, partialTimeout, ch, &batch)
		if len(batch) != 0 {
			if err := handler(batch); err != nil {
				return err
			}
		}
		if err != nil {
			return err
		}
		if eof {
			return nil
		}
	}
}

// drainBatch receives a single batch, blocking for the first value.
func drainBatch[T constraints.Integer](ctx context.Context, maxSize int, partialTimeout time.Duration, ch <-chan Emission[T], batch *[]Emission[T]) (eof bool, err error) {
	// nothing is received once ctx is done, even if values are buffered
	if err := ctx.Err(); err != nil {
		return false, err
	}

	// the first value is always waited for
	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case value, ok := <-ch:
		if !ok {
			return true, nil
		}
		*batch = append(*batch, value)
	}

	var partialTimeoutCh <-chan time.Time
	if partialTimeout > 0 {
		timer := time.NewTimer(partialTimeout)
		defer timer.Stop()
		partialTimeoutCh = timer.C
	}

	for maxSize < 0 || len(*batch) < maxSize {
		if partialTimeoutCh == nil {
			// no partial timeout, take what is immediately available
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case value, ok := <-ch:
				if !ok {
					return true, nil
				}
				*batch = append(*batch, value)
				continue
			default:
				return false, nil
			}
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-partialTimeoutCh:
			return false, nil
		case value, ok := <-ch:
			if !ok {
				return true, nil
			}
			*batch = append(*batch, value)
		}
	}

	return false, nil
}
