// Package gate implements a binary permission token (Gate), and a fixed
// cyclic arrangement of them (Ring), used to pass a single logical baton
// between goroutines.
//
// A Gate is either open (its permission may be consumed) or closed (anyone
// acquiring must wait). Acquiring an open gate closes it, and only the
// holder of the baton is expected to open the next gate, meaning that, for a
// correctly used Ring, at most one gate is ever open.
//
// See also [github.com/joeycumines/go-baton/ring], which builds the
// round-robin counting protocol on top of this package.
package gate
