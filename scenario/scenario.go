// Package scenario drives a burst.Scheduler in front of an ideal memory with
// scripted client traffic and reports what happened.
package scenario

import (
	"fmt"

	"github.com/sarchlab/portsched/burst"
)

// PortTraffic scripts one client.
type PortTraffic struct {
	// First and Last bound the address range the port writes to.
	First, Last uint64

	// SingleShot stops the port after Last. With Rearm set the client opens
	// the range again when it sees the end-of-frame completion.
	SingleShot bool
	Rearm      bool

	// Items are offered one per tick, starting at StartTick. An item is held
	// back while the port queue is full.
	Items     []uint64
	StartTick uint64

	// The client closes the port once every item is offered and the tick
	// has reached CloseTick. Zero closes right after the last item.
	CloseTick uint64

	// Idle ports are never opened.
	Idle bool
}

// A Scenario is the scheduler configuration plus the traffic of every port.
type Scenario struct {
	Name   string
	Config burst.Config

	// Latency is the round trip of the memory in ticks.
	Latency int

	// AcceptEvery makes the memory accept a request only every n ticks.
	AcceptEvery int

	Ports []PortTraffic
}

// Validate checks the scenario against its configuration.
func (s Scenario) Validate() error {
	if err := s.Config.Validate(); err != nil {
		return err
	}

	if s.Latency < 1 || s.Latency > s.Config.MaxCompletionDelay {
		return fmt.Errorf("latency must be within [1, %d], got %d",
			s.Config.MaxCompletionDelay, s.Latency)
	}

	if s.AcceptEvery < 0 {
		return fmt.Errorf("accept interval must not be negative, got %d",
			s.AcceptEvery)
	}

	if len(s.Ports) != s.Config.NumPorts {
		return fmt.Errorf("scenario scripts %d ports, configuration has %d",
			len(s.Ports), s.Config.NumPorts)
	}

	for i, p := range s.Ports {
		if p.First > p.Last {
			return fmt.Errorf("port %d: first address %#x > last %#x",
				i, p.First, p.Last)
		}
	}

	return nil
}

// Uniform scripts every port of cfg with the same number of sequential items.
// Port i writes to its own 4096-word window and its items start at i<<32.
func Uniform(cfg burst.Config, latency, items int) Scenario {
	s := Scenario{
		Name:    "Uniform",
		Config:  cfg,
		Latency: latency,
		Ports:   make([]PortTraffic, cfg.NumPorts),
	}

	for i := range s.Ports {
		base := uint64(i) << 12
		s.Ports[i] = PortTraffic{
			First: base,
			Last:  base + 0xfff,
			Items: Sequential(uint64(i)<<32, items),
		}
	}

	return s
}

// Sequential returns n consecutive items starting at from.
func Sequential(from uint64, n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = from + uint64(i)
	}

	return out
}
