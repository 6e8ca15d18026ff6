package arbitration

import "github.com/bits-and-blooms/bitset"

// Priority grants the pending port with the smallest index, or the largest
// index if it is rightmost-first. Lower-priority ports can starve.
type Priority struct {
	numPorts       int
	rightmostFirst bool
}

// NewPriority creates a Priority arbiter.
func NewPriority(numPorts int, rightmostFirst bool) *Priority {
	return &Priority{
		numPorts:       numPorts,
		rightmostFirst: rightmostFirst,
	}
}

// Select grants the highest-priority pending port.
func (a *Priority) Select(pending *bitset.BitSet) (int, bool) {
	if a.rightmostFirst {
		return highestPending(pending, a.numPorts)
	}

	return lowestPending(pending, a.numPorts)
}

// Reset does nothing as Priority keeps no state.
func (a *Priority) Reset() {}
