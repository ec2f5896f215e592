package emission

import (
	"sync"

	"golang.org/x/exp/constraints"
)

// Recorder is a Sink that captures emissions in memory, e.g. for use by test
// harnesses. The zero value is ready to use. Unlike the other sinks, it is
// safe to read from while a run is in progress.
type Recorder[T constraints.Integer] struct {
	mu        sync.Mutex
	emissions []Emission[T]
}

// Emit implements Sink.
func (x *Recorder[T]) Emit(e Emission[T]) error {
	x.mu.Lock()
	x.emissions = append(x.emissions, e)
	x.mu.Unlock()
	return nil
}

// Emissions returns a copy of all emissions recorded so far, in order.
func (x *Recorder[T]) Emissions() []Emission[T] {
	x.mu.Lock()
	defer x.mu.Unlock()
	if len(x.emissions) == 0 {
		return nil
	}
	return append([]Emission[T](nil), x.emissions...)
}

// Values returns the recorded values, in order.
func (x *Recorder[T]) Values() (values []T) {
	for _, e := range x.Emissions() {
		values = append(values, e.Value)
	}
	return values
}

// Lines returns the recorded emissions in their "<name>: <value>" form.
func (x *Recorder[T]) Lines() (lines []string) {
	for _, e := range x.Emissions() {
		lines = append(lines, e.String())
	}
	return lines
}

// Len returns the number of recorded emissions.
func (x *Recorder[T]) Len() int {
	x.mu.Lock()
	defer x.mu.Unlock()
	return len(x.emissions)
}
