package gate

import (
	"context"
)

// Gate models a single binary permission, implemented as a one-slot channel.
// Instances must be initialized using the New factory.
type Gate struct {
	permit chan struct{}
}

// New initializes a Gate, which will start open (i.e. may be acquired
// without waiting) if open is true.
func New(open bool) *Gate {
	g := Gate{permit: make(chan struct{}, 1)}
	if open {
		g.permit <- struct{}{}
	}
	return &g
}

// Acquire blocks until the gate is open, then consumes the permission,
// closing the gate. If ctx is canceled prior to that, ctx.Err() will be
// returned, and the gate will not be modified.
func (x *Gate) Acquire(ctx context.Context) error {
	// a canceled ctx never consumes the permission, even if the gate is open
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-x.permit:
		return nil
	}
}

// Ready exposes the underlying permission channel, for callers that need to
// select on other events (e.g. a done signal) while waiting. Receiving from
// the channel is equivalent to a successful acquire.
func (x *Gate) Ready() <-chan struct{} {
	return x.permit
}

// Release opens the gate, allowing exactly one acquire to proceed.
//
// Releasing a gate that is already open is a violation of the hand-off
// protocol, and will panic.
func (x *Gate) Release() {
	select {
	case x.permit <- struct{}{}:
	default:
		panic(`gate: release of open gate`)
	}
}

// Open reports whether the gate is currently open. The result is only a
// snapshot, and is intended for diagnostics and tests.
func (x *Gate) Open() bool {
	return len(x.permit) != 0
}
