// Package queueing provides the bounded queues and delay lines that the
// scheduler and the reference resource are built from.
package queueing

import (
	"log"

	"github.com/sarchlab/portsched/sim/hooking"
	"github.com/sarchlab/portsched/sim/naming"
)

// HookPosBufPush marks when an element is pushed into the buffer.
var HookPosBufPush = &hooking.HookPos{Name: "Buffer Push"}

// HookPosBufPop marks when an element is popped from the buffer.
var HookPosBufPop = &hooking.HookPos{Name: "Buffer Pop"}

// A Buffer is a bounded fifo queue.
type Buffer[T any] interface {
	naming.Named
	hooking.Hookable

	CanPush() bool
	Push(e T)
	Pop() (T, bool)
	Peek() (T, bool)
	Capacity() int
	Size() int
	Clear()
}

// NewBuffer creates a Buffer with the given capacity.
func NewBuffer[T any](name string, capacity int) Buffer[T] {
	naming.MustBeValid(name)

	if capacity <= 0 {
		log.Panicf("buffer %s: capacity must be positive, got %d",
			name, capacity)
	}

	return &bufferImpl[T]{
		name:     name,
		elements: make([]T, capacity),
	}
}

// bufferImpl keeps its elements in a ring so that Pop never reallocates.
type bufferImpl[T any] struct {
	hooking.HookableBase

	name     string
	elements []T
	head     int
	size     int
}

// Name returns the name of the buffer.
func (b *bufferImpl[T]) Name() string {
	return b.name
}

func (b *bufferImpl[T]) CanPush() bool {
	return b.size < len(b.elements)
}

func (b *bufferImpl[T]) Push(e T) {
	if b.size >= len(b.elements) {
		log.Panicf("buffer %s overflow", b.name)
	}

	b.elements[(b.head+b.size)%len(b.elements)] = e
	b.size++

	if b.NumHooks() > 0 {
		b.InvokeHook(hooking.HookCtx{
			Domain: b,
			Pos:    HookPosBufPush,
			Item:   e,
		})
	}
}

func (b *bufferImpl[T]) Pop() (T, bool) {
	var zero T

	if b.size == 0 {
		return zero, false
	}

	e := b.elements[b.head]
	b.elements[b.head] = zero
	b.head = (b.head + 1) % len(b.elements)
	b.size--

	if b.NumHooks() > 0 {
		b.InvokeHook(hooking.HookCtx{
			Domain: b,
			Pos:    HookPosBufPop,
			Item:   e,
		})
	}

	return e, true
}

func (b *bufferImpl[T]) Peek() (T, bool) {
	if b.size == 0 {
		var zero T
		return zero, false
	}

	return b.elements[b.head], true
}

func (b *bufferImpl[T]) Capacity() int {
	return len(b.elements)
}

func (b *bufferImpl[T]) Size() int {
	return b.size
}

func (b *bufferImpl[T]) Clear() {
	var zero T

	for i := range b.elements {
		b.elements[i] = zero
	}

	b.head = 0
	b.size = 0
}
