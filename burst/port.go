package burst

import (
	"github.com/sarchlab/portsched/addressing"
	"github.com/sarchlab/portsched/sequencing"
	"github.com/sarchlab/portsched/sim/queueing"
)

// PortState is the frame state of a port.
type PortState int

// The port states. A port is Closed until the client opens it, Open while the
// client is submitting, and Flushing from the client's close until every
// buffered item has been issued.
const (
	PortClosed PortState = iota
	PortOpen
	PortFlushing
)

func (s PortState) String() string {
	switch s {
	case PortClosed:
		return "Closed"
	case PortOpen:
		return "Open"
	case PortFlushing:
		return "Flushing"
	default:
		return "Unknown"
	}
}

// Flags are the per-port error indicators. Each flag is raised for exactly
// one tick.
type Flags struct {
	RequestOverflow bool
	FifoOverflow    bool
	RouterOverflow  bool
}

// Any reports whether any flag is raised.
func (f Flags) Any() bool {
	return f.RequestOverflow || f.FifoOverflow || f.RouterOverflow
}

func (f Flags) merge(o Flags) Flags {
	return Flags{
		RequestOverflow: f.RequestOverflow || o.RequestOverflow,
		FifoOverflow:    f.FifoOverflow || o.FifoOverflow,
		RouterOverflow:  f.RouterOverflow || o.RouterOverflow,
	}
}

// GlobalFlags are the scheduler-wide error indicators, raised for exactly one
// tick.
type GlobalFlags struct {
	SequenceUnderflow bool
}

type port struct {
	id    int
	name  string
	state PortState

	queue       queueing.Buffer[uint64]
	completions queueing.Buffer[sequencing.Completion]
	addr        addressing.Channel

	flushTriggered  bool
	hasEnqueued     bool
	lastEnqueueTick uint64
	outstanding     int
	faulted         bool

	flags       Flags
	stagedFlags Flags
}

// accepting reports whether the client may enqueue.
func (p *port) accepting() bool {
	return p.state == PortOpen && !p.faulted
}

// idleSince reports whether at least one full tick without an enqueue has
// passed before tick now.
func (p *port) idleSince(now uint64) bool {
	return !p.hasEnqueued || now > p.lastEnqueueTick+1
}

// burstLength clamps n to the addresses a single-shot channel has left.
func (p *port) burstLength(n int) int {
	remaining := p.addr.Remaining()
	if remaining >= 0 && remaining < n {
		return remaining
	}

	return n
}

// hasCredit reports whether the completion queue can take every outstanding
// completion plus n more.
func (p *port) hasCredit(n int) bool {
	return p.completions.Size()+p.outstanding+n <= p.completions.Capacity()
}
