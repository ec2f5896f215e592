// Package alternator implements counting by exactly two participants, which
// take turns, "even" emitting start, start+2, ..., and "odd" emitting
// start+1, start+3, ..., over an inclusive range.
//
// Unlike [github.com/joeycumines/go-baton/ring], there is no shared counter.
// Each participant strides over its own values, and the two gates are only
// used to hand over the turn. Since the loop bounds are local, there is no
// need for a wait timeout.
package alternator
