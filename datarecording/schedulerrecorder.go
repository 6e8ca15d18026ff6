package datarecording

import (
	"github.com/rs/xid"

	"github.com/sarchlab/portsched/burst"
	"github.com/sarchlab/portsched/sequencing"
	"github.com/sarchlab/portsched/sim/hooking"
)

// Table names written by a SchedulerRecorder.
const (
	BurstTable      = "burst"
	CompletionTable = "completion"
	FaultTable      = "fault"
)

// BurstEntry is one granted burst.
type BurstEntry struct {
	RunID   string
	Tick    uint64
	Port    int
	Length  int
	IsFlush bool
}

// CompletionEntry is one completion delivered to a port.
type CompletionEntry struct {
	RunID      string
	Tick       uint64
	Port       int
	Address    uint64
	Payload    uint64
	EndOfFrame bool
}

// FaultEntry is one raised error flag. Port is -1 for scheduler-wide flags.
type FaultEntry struct {
	RunID string
	Tick  uint64
	Port  int
	Kind  string
}

// SchedulerRecorder is a hook that records burst.Scheduler events.
type SchedulerRecorder struct {
	recorder DataRecorder
	runID    string
}

// NewSchedulerRecorder creates the burst, completion and fault tables and
// returns a hook filling them. All rows carry a fresh run ID.
func NewSchedulerRecorder(recorder DataRecorder) *SchedulerRecorder {
	recorder.CreateTable(BurstTable, BurstEntry{})
	recorder.CreateTable(CompletionTable, CompletionEntry{})
	recorder.CreateTable(FaultTable, FaultEntry{})

	return &SchedulerRecorder{
		recorder: recorder,
		runID:    xid.New().String(),
	}
}

// RunID returns the ID written into every row.
func (r *SchedulerRecorder) RunID() string {
	return r.runID
}

// Func records the event if it is one of the recorded kinds.
func (r *SchedulerRecorder) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case burst.HookPosBurstStart:
		b := ctx.Item.(burst.Burst)
		r.recorder.InsertData(BurstTable, BurstEntry{
			RunID:   r.runID,
			Tick:    ctx.Tick,
			Port:    b.PortID,
			Length:  b.Length,
			IsFlush: b.IsFlush,
		})
	case burst.HookPosCompletion:
		c := ctx.Item.(sequencing.Completion)
		r.recorder.InsertData(CompletionTable, CompletionEntry{
			RunID:      r.runID,
			Tick:       ctx.Tick,
			Port:       c.PortID,
			Address:    c.Address,
			Payload:    c.Payload,
			EndOfFrame: c.EndOfFrame,
		})
	case burst.HookPosOverflow:
		o := ctx.Item.(burst.Overflow)
		r.recorder.InsertData(FaultTable, FaultEntry{
			RunID: r.runID,
			Tick:  ctx.Tick,
			Port:  o.PortID,
			Kind:  o.Kind.String(),
		})
	}
}

// MapSchedulerTables maps the tables written by a SchedulerRecorder so that
// reader can query them.
func MapSchedulerTables(reader DataReader) {
	reader.MapTable(BurstTable, BurstEntry{})
	reader.MapTable(CompletionTable, CompletionEntry{})
	reader.MapTable(FaultTable, FaultEntry{})
}
