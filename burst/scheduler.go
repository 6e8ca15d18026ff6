// Package burst shares one single-ported resource among many ports.
//
// Clients submit single items to their port. The Scheduler groups them into
// bursts of BurstSize items, grants one port at a time through an arbiter,
// issues at most one request per tick, and routes the untagged completions
// back to the issuing port in order. A port that closes with fewer than
// BurstSize items left is drained by a shorter flush burst.
//
// The Scheduler is driven by Step, one call per tick. Decisions within a tick
// only look at the state committed by the previous tick. Client calls made
// between two Steps are seen by the next Step, and error flags they raise
// become visible after it for exactly one tick.
package burst

import (
	"errors"
	"fmt"
	"log"

	"github.com/bits-and-blooms/bitset"

	"github.com/sarchlab/portsched/arbitration"
	"github.com/sarchlab/portsched/resource"
	"github.com/sarchlab/portsched/sequencing"
	"github.com/sarchlab/portsched/sim/hooking"
	"github.com/sarchlab/portsched/sim/naming"
)

type phase int

const (
	phaseWaiting phase = iota
	phaseBurst
	phaseGap
)

type activeBurst struct {
	Burst
	remaining int
}

// readiness is the per-tick view the grant decision is made from.
type readiness struct {
	burstReady *bitset.BitSet
	flushReady *bitset.BitSet
	lengths    []int
}

// Scheduler is the burst scheduler. It is not safe for concurrent use.
type Scheduler struct {
	naming.NamedBase
	hooking.HookableBase

	cfg          Config
	resource     resource.SharedResource
	burstArbiter arbitration.Arbiter
	flushArbiter arbitration.Arbiter
	ports        []*port
	tracker      *sequencing.Tracker
	router       *sequencing.Router

	tick    uint64
	phase   phase
	active  activeBurst
	gapLeft int

	globalFlags   GlobalFlags
	numUnderflows uint64
}

// Config returns the configuration the scheduler was built with.
func (s *Scheduler) Config() Config {
	return s.cfg
}

// Tick returns the number of Steps taken.
func (s *Scheduler) Tick() uint64 {
	return s.tick
}

// NumPorts returns the number of ports.
func (s *Scheduler) NumPorts() int {
	return len(s.ports)
}

func (s *Scheduler) port(id int) (*port, error) {
	if id < 0 || id >= len(s.ports) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPort, id)
	}

	return s.ports[id], nil
}

// Open starts a frame on the port, writing to addresses [first, last]. A
// single-shot port stops after last; it can then be opened again to re-arm
// its address range while it still holds items.
func (s *Scheduler) Open(portID int, first, last uint64, singleShot bool) error {
	p, err := s.port(portID)
	if err != nil {
		return err
	}

	rearm := false

	switch {
	case p.faulted:
		if p.outstanding > 0 || s.burstActiveOn(p.id) {
			return fmt.Errorf("%w: port %d still has requests in flight",
				ErrPortActive, portID)
		}
	case p.state == PortClosed:
	case p.addr.Stopped():
		rearm = true
	default:
		return fmt.Errorf("%w: port %d is %s", ErrPortActive, portID, p.state)
	}

	if err := p.addr.Open(first, last, singleShot); err != nil {
		return err
	}

	if rearm {
		return nil
	}

	if p.faulted {
		p.faulted = false
		p.queue.Clear()
		p.completions.Clear()
		s.router.Unmute(p.id)
	}

	p.flushTriggered = false
	p.hasEnqueued = false
	s.setState(p, PortOpen)

	return nil
}

// Enqueue submits one item on the port. The item is dropped and an error
// flag raised if the port is not open or its queue is full.
func (s *Scheduler) Enqueue(portID int, item uint64) error {
	p, err := s.port(portID)
	if err != nil {
		return err
	}

	if !p.accepting() {
		p.stagedFlags.RequestOverflow = true
		s.invoke(HookPosOverflow, Overflow{PortID: p.id, Kind: OverflowRequest})

		return fmt.Errorf("%w: port %d is %s", ErrRequestOverflow,
			portID, p.state)
	}

	if !p.queue.CanPush() {
		p.stagedFlags.FifoOverflow = true
		s.invoke(HookPosOverflow, Overflow{PortID: p.id, Kind: OverflowFifo})

		return fmt.Errorf("%w: port %d holds %d items", ErrFifoOverflow,
			portID, p.queue.Size())
	}

	p.queue.Push(item)
	p.hasEnqueued = true
	p.lastEnqueueTick = s.tick

	return nil
}

// Close ends the frame of the port. Items still queued are flushed before
// the port becomes Closed. Closing a port that is not open does nothing.
func (s *Scheduler) Close(portID int) error {
	p, err := s.port(portID)
	if err != nil {
		return err
	}

	if p.state != PortOpen {
		return nil
	}

	p.flushTriggered = true
	s.setState(p, PortFlushing)

	return nil
}

// Poll returns the oldest undelivered completion of the port.
func (s *Scheduler) Poll(portID int) (sequencing.Completion, bool) {
	p, err := s.port(portID)
	if err != nil {
		return sequencing.Completion{}, false
	}

	return p.completions.Pop()
}

// PortState returns the frame state of the port.
func (s *Scheduler) PortState(portID int) PortState {
	p, err := s.port(portID)
	if err != nil {
		return PortClosed
	}

	return p.state
}

// QueueLen returns the number of items waiting in the port queue.
func (s *Scheduler) QueueLen(portID int) int {
	p, err := s.port(portID)
	if err != nil {
		return 0
	}

	return p.queue.Size()
}

// Faulted reports whether the port stopped after a completion it could not
// receive.
func (s *Scheduler) Faulted(portID int) bool {
	p, err := s.port(portID)
	if err != nil {
		return false
	}

	return p.faulted
}

// Flags returns the error flags of the port raised on the last tick.
func (s *Scheduler) Flags(portID int) Flags {
	p, err := s.port(portID)
	if err != nil {
		return Flags{}
	}

	return p.flags
}

// GlobalFlags returns the scheduler-wide error flags raised on the last tick.
func (s *Scheduler) GlobalFlags() GlobalFlags {
	return s.globalFlags
}

// NumSequenceUnderflows returns how many completions arrived without an
// outstanding request.
func (s *Scheduler) NumSequenceUnderflows() uint64 {
	return s.numUnderflows
}

// Outstanding returns the number of requests issued to the resource that have
// not completed.
func (s *Scheduler) Outstanding() int {
	return s.tracker.Len()
}

// Idle reports whether nothing is queued, in a burst, or in flight.
func (s *Scheduler) Idle() bool {
	if s.phase != phaseWaiting || s.tracker.Len() > 0 {
		return false
	}

	for _, p := range s.ports {
		if p.queue.Size() > 0 && !p.faulted {
			return false
		}
	}

	return true
}

// Step advances the scheduler by one tick.
func (s *Scheduler) Step() {
	s.tick++

	raised := make([]Flags, len(s.ports))
	var global GlobalFlags

	ready := s.snapshot()

	s.routeCompletions(raised, &global)

	switch s.phase {
	case phaseWaiting:
		s.grant(ready)
	case phaseBurst:
		s.issue()
	case phaseGap:
		s.gapLeft--
		if s.gapLeft <= 0 {
			s.phase = phaseWaiting
		}
	default:
		log.Panicf("burst: unknown phase %d", s.phase)
	}

	s.closeDrainedPorts()
	s.commitFlags(raised, global)
}

func (s *Scheduler) snapshot() readiness {
	n := uint(len(s.ports))
	r := readiness{
		burstReady: bitset.New(n),
		flushReady: bitset.New(n),
		lengths:    make([]int, len(s.ports)),
	}

	if s.phase != phaseWaiting {
		return r
	}

	for _, p := range s.ports {
		if p.state == PortClosed || p.faulted || p.addr.Stopped() {
			continue
		}

		size := p.queue.Size()

		if size >= s.cfg.BurstSize {
			length := p.burstLength(s.cfg.BurstSize)
			if length > 0 && s.creditAvailable(p, length) {
				r.burstReady.Set(uint(p.id))
				r.lengths[p.id] = length
			}

			continue
		}

		if p.state == PortFlushing && p.flushTriggered && size > 0 &&
			p.idleSince(s.tick) {
			length := p.burstLength(size)
			if length > 0 && s.creditAvailable(p, length) {
				r.flushReady.Set(uint(p.id))
				r.lengths[p.id] = length
			}
		}
	}

	return r
}

func (s *Scheduler) creditAvailable(p *port, n int) bool {
	return s.cfg.SkipCompletionCredit || p.hasCredit(n)
}

func (s *Scheduler) grant(r readiness) {
	if id, ok := s.burstArbiter.Select(r.burstReady); ok {
		s.startBurst(Burst{PortID: id, Length: r.lengths[id]})
		return
	}

	if id, ok := s.flushArbiter.Select(r.flushReady); ok {
		s.startBurst(Burst{PortID: id, Length: r.lengths[id], IsFlush: true})
	}
}

func (s *Scheduler) startBurst(b Burst) {
	if b.Length < 1 {
		log.Panicf("burst: port %d granted an empty burst", b.PortID)
	}

	s.active = activeBurst{Burst: b, remaining: b.Length}
	s.phase = phaseBurst

	s.invoke(HookPosBurstStart, b)
}

func (s *Scheduler) burstActiveOn(portID int) bool {
	return s.phase == phaseBurst && s.active.PortID == portID
}

func (s *Scheduler) issue() {
	p := s.ports[s.active.PortID]

	item, ok := p.queue.Peek()
	if !ok {
		log.Panicf("burst: port %d ran dry in a granted burst", p.id)
	}

	if !s.tracker.CanPush() {
		s.invoke(HookPosStall, s.active.Burst)
		return
	}

	req := resource.Request{Address: p.addr.Current(), Payload: item}
	if !s.resource.TrySubmit(req) {
		s.invoke(HookPosStall, s.active.Burst)
		return
	}

	p.queue.Pop()

	step, err := p.addr.Advance()
	if err != nil {
		log.Panicf("burst: port %d: %v", p.id, err)
	}

	s.active.remaining--
	last := s.active.remaining == 0
	eof := step.Stopped ||
		(p.state == PortFlushing && p.queue.Size() == 0)

	if err := s.tracker.Push(p.id, eof); err != nil {
		log.Panicf("burst: %v", err)
	}

	p.outstanding++

	s.invoke(HookPosIssue, Issue{
		PortID:     p.id,
		Request:    req,
		EndOfBurst: last,
		EndOfFrame: eof,
		Wrapped:    step.Wrapped,
	})

	if last {
		s.endBurst()
	}
}

func (s *Scheduler) endBurst() {
	s.invoke(HookPosBurstEnd, s.active.Burst)

	s.active = activeBurst{}

	if s.cfg.PostBurstGap > 0 {
		s.phase = phaseGap
		s.gapLeft = s.cfg.PostBurstGap

		return
	}

	s.phase = phaseWaiting
}

func (s *Scheduler) routeCompletions(raised []Flags, global *GlobalFlags) {
	for _, rsp := range s.resource.Tick() {
		c, err := s.router.Route(rsp.Address, rsp.Payload)

		var overflow *sequencing.RouterOverflowError

		switch {
		case err == nil:
			s.ports[c.PortID].outstanding--
			s.invoke(HookPosCompletion, c)
		case errors.Is(err, sequencing.ErrDiscarded):
			s.ports[c.PortID].outstanding--
		case errors.Is(err, sequencing.ErrSequenceUnderflow):
			global.SequenceUnderflow = true
			s.numUnderflows++
			s.invoke(HookPosOverflow,
				Overflow{PortID: -1, Kind: OverflowSequence})
		case errors.As(err, &overflow):
			p := s.ports[overflow.PortID]
			p.outstanding--
			raised[p.id].RouterOverflow = true
			s.fault(p)
			s.invoke(HookPosOverflow,
				Overflow{PortID: p.id, Kind: OverflowRouter})
		default:
			log.Panicf("burst: unexpected routing error: %v", err)
		}
	}
}

// fault stops the port. Later completions of the port are dropped and its
// queue is discarded once no burst of it is in flight.
func (s *Scheduler) fault(p *port) {
	p.faulted = true
	s.router.Mute(p.id)
}

func (s *Scheduler) closeDrainedPorts() {
	for _, p := range s.ports {
		if p.state == PortClosed || s.burstActiveOn(p.id) {
			continue
		}

		if p.faulted {
			p.queue.Clear()
			p.flushTriggered = false
			s.setState(p, PortClosed)

			continue
		}

		if p.state == PortFlushing && p.queue.Size() == 0 {
			p.flushTriggered = false
			s.setState(p, PortClosed)
		}
	}
}

func (s *Scheduler) setState(p *port, to PortState) {
	if p.state == to {
		return
	}

	from := p.state
	p.state = to

	s.invoke(HookPosPortState, StateChange{PortID: p.id, From: from, To: to})
}

func (s *Scheduler) commitFlags(raised []Flags, global GlobalFlags) {
	for i, p := range s.ports {
		p.flags = p.stagedFlags.merge(raised[i])
		p.stagedFlags = Flags{}
	}

	s.globalFlags = global
}
