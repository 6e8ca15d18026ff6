package arbitration

import "github.com/bits-and-blooms/bitset"

// RoundRobin grants each pending port at most once per round. A round ends
// when no pending port remains that has not been served in it.
type RoundRobin struct {
	numPorts int
	served   *bitset.BitSet
}

// NewRoundRobin creates a RoundRobin arbiter.
func NewRoundRobin(numPorts int) *RoundRobin {
	return &RoundRobin{
		numPorts: numPorts,
		served:   bitset.New(uint(numPorts)),
	}
}

// Select grants the lowest pending port not yet served in this round.
func (a *RoundRobin) Select(pending *bitset.BitSet) (int, bool) {
	candidates := pending.Difference(a.served)

	port, ok := lowestPending(candidates, a.numPorts)
	if !ok {
		a.served.ClearAll()

		port, ok = lowestPending(pending, a.numPorts)
		if !ok {
			return 0, false
		}
	}

	a.served.Set(uint(port))

	return port, true
}

// Served reports whether the port has been granted in the current round.
func (a *RoundRobin) Served(port int) bool {
	return a.served.Test(uint(port))
}

// Reset starts a new round.
func (a *RoundRobin) Reset() {
	a.served.ClearAll()
}
