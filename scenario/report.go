package scenario

import (
	"fmt"
	"log/slog"

	"github.com/sarchlab/portsched/burst"
	"github.com/sarchlab/portsched/sequencing"
)

// FlagCounts counts the ticks on which each error flag was raised, summed
// over ports.
type FlagCounts struct {
	RequestOverflow   int
	FifoOverflow      int
	RouterOverflow    int
	SequenceUnderflow int
}

// Total returns the sum of all counts.
func (c FlagCounts) Total() int {
	return c.RequestOverflow + c.FifoOverflow + c.RouterOverflow +
		c.SequenceUnderflow
}

// Report is the outcome of one run.
type Report struct {
	Name     string
	RunID    string
	Ticks    uint64
	Finished bool

	// Bursts in the order they were granted.
	Bursts []burst.Burst

	// Sent holds the items the scheduler accepted, per port.
	Sent [][]uint64

	// Completions holds what every port polled, in order.
	Completions [][]sequencing.Completion

	Flags FlagCounts
}

// NumCompletions returns the completions polled over all ports.
func (r Report) NumCompletions() int {
	n := 0
	for _, c := range r.Completions {
		n += len(c)
	}

	return n
}

// NumFlushes returns how many of the bursts were flushes.
func (r Report) NumFlushes() int {
	n := 0
	for _, b := range r.Bursts {
		if b.IsFlush {
			n++
		}
	}

	return n
}

// VerifyFIFO checks that every port received its completions in the order
// its items were accepted, none lost and none duplicated.
func (r Report) VerifyFIFO() error {
	for port, sent := range r.Sent {
		got := r.Completions[port]

		if len(got) != len(sent) {
			return fmt.Errorf("port %d: %d items sent, %d completed",
				port, len(sent), len(got))
		}

		for i, c := range got {
			if c.PortID != port {
				return fmt.Errorf("port %d: completion %d attributed to "+
					"port %d", port, i, c.PortID)
			}

			if c.Payload != sent[i] {
				return fmt.Errorf("port %d: completion %d carries %#x, "+
					"want %#x", port, i, c.Payload, sent[i])
			}
		}
	}

	return nil
}

// LogValue implements slog.LogValuer.
func (r Report) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", r.Name),
		slog.String("run", r.RunID),
		slog.Uint64("ticks", r.Ticks),
		slog.Bool("finished", r.Finished),
		slog.Int("bursts", len(r.Bursts)),
		slog.Int("flushes", r.NumFlushes()),
		slog.Int("completions", r.NumCompletions()),
		slog.Int("flags", r.Flags.Total()),
	)
}
