package arbitration

import "github.com/bits-and-blooms/bitset"

// FCFS grants the port that has waited the longest. Every Select call is one
// arbitration tick.
//
// Each port carries an age in [0, numPorts-1]. Ports that are not pending
// have age 0. After a grant, every other pending port ages by one. The granted
// port restarts at 0, or at 1 if its request is re-armed on the same tick it
// was granted; that is observed on the next call as the port still being
// pending. Ties go to the lowest index.
type FCFS struct {
	numPorts  int
	ages      []int
	lastGrant int
	hasGrant  bool
}

// NewFCFS creates an FCFS arbiter.
func NewFCFS(numPorts int) *FCFS {
	return &FCFS{
		numPorts: numPorts,
		ages:     make([]int, numPorts),
	}
}

// Select grants the oldest pending port.
func (a *FCFS) Select(pending *bitset.BitSet) (int, bool) {
	a.settleLastGrant(pending)
	a.clearIdle(pending)

	port, ok := a.oldest(pending)
	if !ok {
		return 0, false
	}

	a.age(pending, port)

	a.ages[port] = 0
	a.lastGrant = port
	a.hasGrant = true

	return port, true
}

func (a *FCFS) settleLastGrant(pending *bitset.BitSet) {
	if !a.hasGrant {
		return
	}

	a.hasGrant = false

	// A new request pulse on the granting tick leaves the port at 1, not 0.
	if pending.Test(uint(a.lastGrant)) {
		a.ages[a.lastGrant] = 1
	}
}

func (a *FCFS) clearIdle(pending *bitset.BitSet) {
	for p := 0; p < a.numPorts; p++ {
		if !pending.Test(uint(p)) {
			a.ages[p] = 0
		}
	}
}

func (a *FCFS) oldest(pending *bitset.BitSet) (int, bool) {
	best := -1

	for p := 0; p < a.numPorts; p++ {
		if !pending.Test(uint(p)) {
			continue
		}

		if best < 0 || a.ages[p] > a.ages[best] {
			best = p
		}
	}

	return best, best >= 0
}

func (a *FCFS) age(pending *bitset.BitSet, granted int) {
	for p := 0; p < a.numPorts; p++ {
		if p == granted || !pending.Test(uint(p)) {
			continue
		}

		if a.ages[p] < a.numPorts-1 {
			a.ages[p]++
		}
	}
}

// Age returns the current age of a port.
func (a *FCFS) Age(port int) int {
	return a.ages[port]
}

// Reset sets every age back to 0.
func (a *FCFS) Reset() {
	for i := range a.ages {
		a.ages[i] = 0
	}

	a.hasGrant = false
}
