// Package idealmem provides a single-ported memory with a fixed latency. It
// is the reference implementation of resource.SharedResource.
package idealmem

import (
	"github.com/sarchlab/portsched/resource"
	"github.com/sarchlab/portsched/sim/hooking"
	"github.com/sarchlab/portsched/sim/naming"
	"github.com/sarchlab/portsched/sim/queueing"
)

// HookPosAccept marks when the memory accepts a request.
var HookPosAccept = &hooking.HookPos{Name: "Mem Accept"}

// HookPosRespond marks when the memory returns a response.
var HookPosRespond = &hooking.HookPos{Name: "Mem Respond"}

type inflight struct {
	req resource.Request
}

// Comp commits every accepted request to its storage Latency ticks after
// accepting it and responds with the committed word.
type Comp struct {
	naming.NamedBase
	hooking.HookableBase

	Storage *Storage
	Latency int

	acceptEvery  int
	tick         uint64
	acceptedTick uint64
	hasAccepted  bool
	line         queueing.DelayLine[inflight]
	done         queueing.Buffer[inflight]

	numAccepted  uint64
	numResponded uint64
}

var _ resource.SharedResource = (*Comp)(nil)

// TrySubmit accepts the request if no request has been accepted on this
// tick and the accept interval allows it.
func (c *Comp) TrySubmit(req resource.Request) bool {
	if c.hasAccepted && c.acceptedTick == c.tick {
		return false
	}

	if c.tick%uint64(c.acceptEvery) != 0 {
		return false
	}

	if !c.line.CanAccept() {
		return false
	}

	c.line.Accept(inflight{req: req})

	c.hasAccepted = true
	c.acceptedTick = c.tick
	c.numAccepted++

	c.invoke(HookPosAccept, req)

	return true
}

// Tick advances the memory and returns the responses completing now.
func (c *Comp) Tick() []resource.Response {
	c.tick++
	c.line.Tick()

	if c.done.Size() == 0 {
		return nil
	}

	rsps := make([]resource.Response, 0, c.done.Size())

	for {
		item, ok := c.done.Pop()
		if !ok {
			break
		}

		c.Storage.Write(item.req.Address, item.req.Payload)

		rsp := resource.Response{
			Address: item.req.Address,
			Payload: item.req.Payload,
		}
		rsps = append(rsps, rsp)
		c.numResponded++

		c.invoke(HookPosRespond, rsp)
	}

	return rsps
}

// InFlight returns the number of accepted requests not yet responded to.
func (c *Comp) InFlight() int {
	return int(c.numAccepted - c.numResponded)
}

// NumAccepted returns the number of requests accepted so far.
func (c *Comp) NumAccepted() uint64 {
	return c.numAccepted
}

func (c *Comp) invoke(pos *hooking.HookPos, item any) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(hooking.HookCtx{
		Domain: c,
		Pos:    pos,
		Tick:   c.tick,
		Item:   item,
	})
}
