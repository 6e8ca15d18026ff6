package scenario

import (
	"github.com/rs/xid"

	"github.com/sarchlab/portsched/burst"
	"github.com/sarchlab/portsched/datarecording"
	"github.com/sarchlab/portsched/mem/idealmem"
	"github.com/sarchlab/portsched/sim/hooking"
)

// Builder can be used to build a Runner.
type Builder struct {
	scenario Scenario
	recorder datarecording.DataRecorder
	hooks    []hooking.Hook
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithScenario sets the scenario to run.
func (b Builder) WithScenario(s Scenario) Builder {
	b.scenario = s
	return b
}

// WithRecorder records bursts, completions and faults into the recorder.
func (b Builder) WithRecorder(r datarecording.DataRecorder) Builder {
	b.recorder = r
	return b
}

// WithHook attaches an extra hook to the scheduler.
func (b Builder) WithHook(h hooking.Hook) Builder {
	b.hooks = append(append([]hooking.Hook(nil), b.hooks...), h)
	return b
}

// Build validates the scenario and wires the memory, the scheduler and the
// hooks.
func (b Builder) Build(name string) (*Runner, error) {
	s := b.scenario
	if err := s.Validate(); err != nil {
		return nil, err
	}

	acceptEvery := s.AcceptEvery
	if acceptEvery == 0 {
		acceptEvery = 1
	}

	mem := idealmem.MakeBuilder().
		WithLatency(s.Latency).
		WithAcceptEvery(acceptEvery).
		Build(name + ".Mem")

	sched := burst.MakeBuilder().
		WithConfig(s.Config).
		WithResource(mem).
		Build(name + ".Scheduler")

	r := &Runner{
		scenario: s,
		sched:    sched,
		mem:      mem,
		runID:    xid.New().String(),
		clients:  make([]client, len(s.Ports)),
	}

	sched.AcceptHook(hooking.HookFunc(r.observe))

	if b.recorder != nil {
		rec := datarecording.NewSchedulerRecorder(b.recorder)
		r.runID = rec.RunID()
		sched.AcceptHook(rec)
	}

	for _, h := range b.hooks {
		sched.AcceptHook(h)
	}

	return r, nil
}
