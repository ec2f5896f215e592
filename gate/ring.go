package gate

import (
	"errors"
	"fmt"
)

// ErrInvalidSize is returned by NewRing if the number of gates is not
// positive.
var ErrInvalidSize = errors.New(`gate: ring size must be positive`)

// Ring is a fixed cyclic sequence of gates, where only the first gate starts
// open. The gate at index i is owned by participant i, and is opened by its
// predecessor, participant (i-1) mod n.
type Ring struct {
	gates []*Gate
}

// NewRing initializes a Ring of n gates, with gate 0 open, and all others
// closed.
func NewRing(n int) (*Ring, error) {
	if n < 1 {
		return nil, fmt.Errorf(`%w: %d`, ErrInvalidSize, n)
	}
	gates := make([]*Gate, n)
	for i := range gates {
		gates[i] = New(i == 0)
	}
	return &Ring{gates: gates}, nil
}

// Gate returns the gate owned by participant i.
func (x *Ring) Gate(i int) *Gate {
	return x.gates[i]
}

// Next returns the index of the participant after i, wrapping around.
func (x *Ring) Next(i int) int {
	return (i + 1) % len(x.gates)
}

// HandOff opens the gate of the successor of participant i. It must only be
// called by participant i, while holding the baton.
func (x *Ring) HandOff(i int) {
	x.gates[x.Next(i)].Release()
}
