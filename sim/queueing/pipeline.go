package queueing

import (
	"log"

	"github.com/sarchlab/portsched/sim/hooking"
	"github.com/sarchlab/portsched/sim/naming"
)

// DelayLine holds every accepted element for a fixed number of ticks before
// releasing it into a post-line buffer. Elements leave in the order they were
// accepted.
type DelayLine[T any] interface {
	naming.Named
	hooking.Hookable

	// Tick moves elements in the line forward by one stage.
	Tick() (madeProgress bool)

	// CanAccept checks if the first stage is free.
	CanAccept() bool

	// Accept adds an element to the first stage. It panics if the first stage
	// is occupied.
	Accept(elem T)

	// Len returns the number of elements still travelling in the line.
	Len() int

	// Clear discards all the elements in the line.
	Clear()
}

type delayStage[T any] struct {
	elem     T
	occupied bool
}

type delayLineImpl[T any] struct {
	hooking.HookableBase

	name    string
	stages  []delayStage[T]
	postBuf Buffer[T]
}

func (p *delayLineImpl[T]) Name() string {
	return p.name
}

func (p *delayLineImpl[T]) Clear() {
	p.stages = make([]delayStage[T], len(p.stages))
}

func (p *delayLineImpl[T]) Len() int {
	n := 0

	for _, s := range p.stages {
		if s.occupied {
			n++
		}
	}

	return n
}

func (p *delayLineImpl[T]) Tick() (madeProgress bool) {
	for i := len(p.stages) - 1; i >= 0; i-- {
		stage := &p.stages[i]

		if !stage.occupied {
			continue
		}

		if i == len(p.stages)-1 {
			madeProgress = p.tryMoveToPostBuffer(stage) || madeProgress
		} else {
			madeProgress = p.tryMoveToNextStage(i) || madeProgress
		}
	}

	return madeProgress
}

func (p *delayLineImpl[T]) tryMoveToPostBuffer(stage *delayStage[T]) bool {
	if !p.postBuf.CanPush() {
		return false
	}

	p.postBuf.Push(stage.elem)
	*stage = delayStage[T]{}

	return true
}

func (p *delayLineImpl[T]) tryMoveToNextStage(stageNum int) bool {
	stage := &p.stages[stageNum]
	next := &p.stages[stageNum+1]

	if next.occupied {
		return false
	}

	*next = *stage
	*stage = delayStage[T]{}

	return true
}

func (p *delayLineImpl[T]) CanAccept() bool {
	return !p.stages[0].occupied
}

func (p *delayLineImpl[T]) Accept(elem T) {
	if p.stages[0].occupied {
		log.Panicf("delay line %s is not free, use CanAccept first", p.name)
	}

	p.stages[0] = delayStage[T]{elem: elem, occupied: true}
}

// A DelayLineBuilder can build delay lines.
type DelayLineBuilder[T any] struct {
	latency int
	postBuf Buffer[T]
}

// MakeDelayLineBuilder creates a builder with a latency of one tick.
func MakeDelayLineBuilder[T any]() DelayLineBuilder[T] {
	return DelayLineBuilder[T]{
		latency: 1,
	}
}

// WithLatency sets the number of ticks an element spends in the line.
func (b DelayLineBuilder[T]) WithLatency(n int) DelayLineBuilder[T] {
	b.latency = n
	return b
}

// WithPostBuffer sets the buffer that elements are pushed to after passing
// through the line.
func (b DelayLineBuilder[T]) WithPostBuffer(buf Buffer[T]) DelayLineBuilder[T] {
	b.postBuf = buf
	return b
}

// Build builds a delay line.
func (b DelayLineBuilder[T]) Build(name string) DelayLine[T] {
	naming.MustBeValid(name)

	if b.latency < 1 {
		log.Panicf("delay line %s: latency must be at least 1", name)
	}

	if b.postBuf == nil {
		log.Panicf("delay line %s: post buffer is required", name)
	}

	return &delayLineImpl[T]{
		name:    name,
		stages:  make([]delayStage[T], b.latency),
		postBuf: b.postBuf,
	}
}
