// Package arbitration selects one port among the ports that currently have a
// pending request.
//
// Three disciplines are available. Priority always favours one end of the
// port index range and may starve the other. RoundRobin grants every
// continuously pending port once per round. FCFS ages ports that keep
// waiting and grants the oldest.
package arbitration

import (
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// An Arbiter selects one port from a set of pending ports.
type Arbiter interface {
	// Select returns the granted port. valid is false if no port is pending.
	Select(pending *bitset.BitSet) (port int, valid bool)

	// Reset discards the internal fairness state.
	Reset()
}

// Strategy names an arbitration discipline.
type Strategy int

// The supported strategies.
const (
	StrategyPriority Strategy = iota
	StrategyPriorityRightmost
	StrategyRoundRobin
	StrategyFCFS
)

var strategyNames = map[Strategy]string{
	StrategyPriority:          "priority",
	StrategyPriorityRightmost: "priority-rightmost",
	StrategyRoundRobin:        "round-robin",
	StrategyFCFS:              "fcfs",
}

func (s Strategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}

	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy converts a strategy name into a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))

	for s, n := range strategyNames {
		if n == normalized {
			return s, nil
		}
	}

	return 0, fmt.Errorf("unknown arbitration strategy %q", name)
}

// Set implements pflag.Value so that a Strategy can be used as a flag.
func (s *Strategy) Set(name string) error {
	parsed, err := ParseStrategy(name)
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}

// Type implements pflag.Value.
func (s *Strategy) Type() string {
	return "strategy"
}

// New creates an arbiter that follows the strategy for numPorts ports.
func New(strategy Strategy, numPorts int) Arbiter {
	if numPorts < 1 {
		panic("arbitration: numPorts must be at least 1")
	}

	switch strategy {
	case StrategyPriority:
		return NewPriority(numPorts, false)
	case StrategyPriorityRightmost:
		return NewPriority(numPorts, true)
	case StrategyRoundRobin:
		return NewRoundRobin(numPorts)
	case StrategyFCFS:
		return NewFCFS(numPorts)
	default:
		panic(fmt.Sprintf("arbitration: unsupported strategy %s", strategy))
	}
}

// lowestPending returns the smallest index set in pending below numPorts.
func lowestPending(pending *bitset.BitSet, numPorts int) (int, bool) {
	i, ok := pending.NextSet(0)
	if !ok || int(i) >= numPorts {
		return 0, false
	}

	return int(i), true
}

// highestPending returns the largest index set in pending below numPorts.
func highestPending(pending *bitset.BitSet, numPorts int) (int, bool) {
	for i := numPorts - 1; i >= 0; i-- {
		if pending.Test(uint(i)) {
			return i, true
		}
	}

	return 0, false
}
