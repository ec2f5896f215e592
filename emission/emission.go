// Package emission models the observable output of a counting run: an
// ordered stream of (participant, value) events, delivered to a Sink.
package emission

import (
	"strconv"

	"golang.org/x/exp/constraints"
)

type (
	// Emission is a single observable event, produced by the participant
	// holding the baton, during its turn.
	Emission[T constraints.Integer] struct {
		// Name is the display identity of the participant, e.g. "p0" or "even".
		Name string
		// Participant is the position of the participant within the run.
		Participant int
		// Value is the counter value emitted.
		Value T
	}

	// Sink receives emissions, in the order they were produced.
	//
	// Emit is called by whichever participant currently holds the baton, and
	// calls are never concurrent, within a single run. Any returned error
	// will abort the run.
	Sink[T constraints.Integer] interface {
		Emit(e Emission[T]) error
	}

	// SinkFunc implements Sink using a function.
	SinkFunc[T constraints.Integer] func(e Emission[T]) error
)

var (
	// compile time assertions

	_ Sink[int] = SinkFunc[int](nil)
)

// Emit implements Sink.
func (x SinkFunc[T]) Emit(e Emission[T]) error {
	return x(e)
}

// String renders the emission as "<name>: <value>".
func (x Emission[T]) String() string {
	return string(x.AppendText(nil))
}

// AppendText appends the "<name>: <value>" form of the emission to b.
func (x Emission[T]) AppendText(b []byte) []byte {
	b = append(b, x.Name...)
	b = append(b, `: `...)
	if x.Value < 0 {
		return strconv.AppendInt(b, int64(x.Value), 10)
	}
	return strconv.AppendUint(b, uint64(x.Value), 10)
}
