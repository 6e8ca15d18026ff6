package burst

import (
	"github.com/sarchlab/portsched/resource"
	"github.com/sarchlab/portsched/sim/hooking"
)

// Hook positions of the Scheduler.
var (
	// HookPosBurstStart marks the tick a port is granted a burst. The item
	// is a Burst.
	HookPosBurstStart = &hooking.HookPos{Name: "Burst Start"}

	// HookPosBurstEnd marks the tick the last item of a burst is issued. The
	// item is a Burst.
	HookPosBurstEnd = &hooking.HookPos{Name: "Burst End"}

	// HookPosIssue marks every request accepted by the resource. The item is
	// an Issue.
	HookPosIssue = &hooking.HookPos{Name: "Issue"}

	// HookPosStall marks a burst tick on which the resource or the sequence
	// tracker could not take the next request. The item is a Burst.
	HookPosStall = &hooking.HookPos{Name: "Stall"}

	// HookPosCompletion marks every completion delivered to a port. The item
	// is a sequencing.Completion.
	HookPosCompletion = &hooking.HookPos{Name: "Completion"}

	// HookPosOverflow marks every raised error flag. The item is an
	// Overflow.
	HookPosOverflow = &hooking.HookPos{Name: "Overflow"}

	// HookPosPortState marks port state transitions. The item is a
	// StateChange.
	HookPosPortState = &hooking.HookPos{Name: "Port State"}
)

// A Burst is a run of consecutive requests of one port.
type Burst struct {
	PortID  int
	Length  int
	IsFlush bool
}

// Issue describes one request accepted by the resource.
type Issue struct {
	PortID     int
	Request    resource.Request
	EndOfBurst bool
	EndOfFrame bool
	Wrapped    bool
}

// OverflowKind classifies error flags.
type OverflowKind int

// The overflow kinds.
const (
	OverflowRequest OverflowKind = iota
	OverflowFifo
	OverflowRouter
	OverflowSequence
)

func (k OverflowKind) String() string {
	switch k {
	case OverflowRequest:
		return "RequestOverflow"
	case OverflowFifo:
		return "FifoOverflow"
	case OverflowRouter:
		return "RouterOverflow"
	case OverflowSequence:
		return "SequenceUnderflow"
	default:
		return "Unknown"
	}
}

// Overflow describes a raised error flag. PortID is -1 for scheduler-wide
// flags.
type Overflow struct {
	PortID int
	Kind   OverflowKind
}

// StateChange describes a port state transition.
type StateChange struct {
	PortID int
	From   PortState
	To     PortState
}

func (s *Scheduler) invoke(pos *hooking.HookPos, item any) {
	if s.NumHooks() == 0 {
		return
	}

	s.InvokeHook(hooking.HookCtx{
		Domain: s,
		Pos:    pos,
		Tick:   s.tick,
		Item:   item,
	})
}
