package emission

import (
	"io"

	"golang.org/x/exp/constraints"
)

// Writer is a Sink that writes one "<name>: <value>" line per emission.
//
// It performs no locking of its own, relying on the guarantee that Emit is
// never called concurrently, within a run.
type Writer[T constraints.Integer] struct {
	w   io.Writer
	buf []byte
}

// NewWriter initializes a Writer that will write to w. A panic will occur if
// w is nil.
func NewWriter[T constraints.Integer](w io.Writer) *Writer[T] {
	if w == nil {
		panic(`emission: nil writer`)
	}
	return &Writer[T]{w: w}
}

// Emit implements Sink, performing a single Write call per emission.
func (x *Writer[T]) Emit(e Emission[T]) error {
	x.buf = e.AppendText(x.buf[:0])
	x.buf = append(x.buf, '\n')
	_, err := x.w.Write(x.buf)
	return err
}

// WriteBatch writes all the given emissions, using a single Write call.
// It is intended for use with Drain.
func (x *Writer[T]) WriteBatch(batch []Emission[T]) error {
	if len(batch) == 0 {
		return nil
	}
	x.buf = x.buf[:0]
	for _, e := range batch {
		x.buf = e.AppendText(x.buf)
		x.buf = append(x.buf, '\n')
	}
	_, err := x.w.Write(x.buf)
	return err
}
