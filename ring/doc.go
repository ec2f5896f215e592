// Package ring implements strict round-robin counting, among a fixed number
// of participants, sharing a single counter.
//
// Each participant runs in its own goroutine, and waits on its own gate. The
// participant holding the baton checks whether the counter has passed the end
// of the range, and if not, emits the current value, increments the counter,
// and opens the gate of the next participant in the ring. The counter is
// therefore only ever accessed by the baton holder, and requires no further
// synchronization.
//
// The resulting emissions are the contiguous sequence start..end, where the
// k-th emission (counting from 0) is made by participant k mod N.
//
// See also [github.com/joeycumines/go-baton/alternator], a simpler design,
// for exactly two participants.
package ring
