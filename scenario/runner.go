package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/sarchlab/portsched/burst"
	"github.com/sarchlab/portsched/mem/idealmem"
	"github.com/sarchlab/portsched/sequencing"
	"github.com/sarchlab/portsched/sim/hooking"
)

// ErrMaxTicks is returned when a run does not drain within its tick limit.
var ErrMaxTicks = errors.New("scenario did not finish within the tick limit")

type client struct {
	opened bool
	closed bool
	next   int
	sent   []uint64
	polled []sequencing.Completion
}

// A Runner plays a Scenario against a scheduler. A Runner runs once.
type Runner struct {
	scenario Scenario
	sched    *burst.Scheduler
	mem      *idealmem.Comp
	runID    string

	clients []client
	bursts  []burst.Burst
	flags   FlagCounts
}

// Scheduler returns the scheduler under test.
func (r *Runner) Scheduler() *burst.Scheduler {
	return r.sched
}

// Memory returns the memory behind the scheduler.
func (r *Runner) Memory() *idealmem.Comp {
	return r.mem
}

func (r *Runner) observe(ctx hooking.HookCtx) {
	if ctx.Pos == burst.HookPosBurstStart {
		r.bursts = append(r.bursts, ctx.Item.(burst.Burst))
	}
}

// Run plays the scenario until every client has closed and the scheduler is
// idle, or until maxTicks ticks have passed. The context is checked between
// ticks.
func (r *Runner) Run(ctx context.Context, maxTicks uint64) (Report, error) {
	for r.sched.Tick() < maxTicks {
		if err := ctx.Err(); err != nil {
			return r.report(false), err
		}

		if err := r.driveClients(); err != nil {
			return r.report(false), err
		}

		r.sched.Step()
		r.pollAndCount()

		if r.done() {
			return r.report(true), nil
		}
	}

	return r.report(false), fmt.Errorf("%w: %d ticks", ErrMaxTicks, maxTicks)
}

func (r *Runner) driveClients() error {
	now := r.sched.Tick()

	for i := range r.clients {
		c := &r.clients[i]
		t := r.scenario.Ports[i]

		if t.Idle || c.closed || now < t.StartTick {
			continue
		}

		if !c.opened {
			if err := r.sched.Open(i, t.First, t.Last, t.SingleShot); err != nil {
				return fmt.Errorf("port %d: %w", i, err)
			}

			c.opened = true
		}

		r.offer(i, c, t)

		if c.next == len(t.Items) && now >= t.CloseTick {
			if err := r.sched.Close(i); err != nil {
				return fmt.Errorf("port %d: %w", i, err)
			}

			c.closed = true
		}
	}

	return nil
}

func (r *Runner) offer(port int, c *client, t PortTraffic) {
	if c.next >= len(t.Items) ||
		r.sched.QueueLen(port) >= r.scenario.Config.FIFODepth {
		return
	}

	item := t.Items[c.next]
	c.next++

	if err := r.sched.Enqueue(port, item); err == nil {
		c.sent = append(c.sent, item)
	}
}

func (r *Runner) pollAndCount() {
	for i := range r.clients {
		c := &r.clients[i]

		for {
			comp, ok := r.sched.Poll(i)
			if !ok {
				break
			}

			c.polled = append(c.polled, comp)
			r.rearmOnEndOfFrame(i, comp)
		}

		f := r.sched.Flags(i)
		if f.RequestOverflow {
			r.flags.RequestOverflow++
		}

		if f.FifoOverflow {
			r.flags.FifoOverflow++
		}

		if f.RouterOverflow {
			r.flags.RouterOverflow++
		}
	}

	if r.sched.GlobalFlags().SequenceUnderflow {
		r.flags.SequenceUnderflow++
	}
}

func (r *Runner) rearmOnEndOfFrame(port int, comp sequencing.Completion) {
	t := r.scenario.Ports[port]
	if !comp.EndOfFrame || !t.SingleShot || !t.Rearm {
		return
	}

	if r.sched.PortState(port) == burst.PortClosed {
		return
	}

	// Open fails unless the channel is stopped; then there is nothing to
	// re-arm.
	_ = r.sched.Open(port, t.First, t.Last, true)
}

func (r *Runner) done() bool {
	for i, c := range r.clients {
		if r.scenario.Ports[i].Idle {
			continue
		}

		if !c.closed || r.sched.PortState(i) != burst.PortClosed {
			return false
		}
	}

	return r.sched.Idle()
}

func (r *Runner) report(finished bool) Report {
	rep := Report{
		Name:        r.scenario.Name,
		RunID:       r.runID,
		Ticks:       r.sched.Tick(),
		Finished:    finished,
		Bursts:      append([]burst.Burst(nil), r.bursts...),
		Sent:        make([][]uint64, len(r.clients)),
		Completions: make([][]sequencing.Completion, len(r.clients)),
		Flags:       r.flags,
	}

	for i, c := range r.clients {
		rep.Sent[i] = append([]uint64{}, c.sent...)
		rep.Completions[i] = append([]sequencing.Completion{}, c.polled...)
	}

	return rep
}
