package idealmem

import (
	"log"

	"github.com/sarchlab/portsched/sim/naming"
	"github.com/sarchlab/portsched/sim/queueing"
)

// Builder creates Comp components.
type Builder struct {
	latency     int
	capacity    uint64
	acceptEvery int
	storage     *Storage
}

// MakeBuilder returns a Builder with sensible defaults.
func MakeBuilder() Builder {
	return Builder{
		latency:     4,
		capacity:    1 << 20,
		acceptEvery: 1,
	}
}

// WithLatency sets the number of ticks between accepting a request and
// returning its response.
func (b Builder) WithLatency(latency int) Builder {
	b.latency = latency
	return b
}

// WithNewStorage creates a fresh storage with the given number of words.
func (b Builder) WithNewStorage(capacity uint64) Builder {
	b.capacity = capacity
	b.storage = nil

	return b
}

// WithStorage injects an existing backing storage.
func (b Builder) WithStorage(storage *Storage) Builder {
	b.storage = storage
	return b
}

// WithAcceptEvery makes the memory accept a request only on every n-th tick,
// which lets callers exercise back-pressure.
func (b Builder) WithAcceptEvery(n int) Builder {
	b.acceptEvery = n
	return b
}

// Build constructs the memory.
func (b Builder) Build(name string) *Comp {
	naming.MustBeValid(name)

	if b.latency < 1 {
		log.Panicf("idealmem: latency must be at least 1, got %d", b.latency)
	}

	if b.acceptEvery < 1 {
		log.Panicf("idealmem: accept interval must be at least 1, got %d",
			b.acceptEvery)
	}

	c := &Comp{
		NamedBase:   naming.MakeNamedBase(name),
		Latency:     b.latency,
		acceptEvery: b.acceptEvery,
		Storage:     b.storage,
	}

	if c.Storage == nil {
		c.Storage = NewStorage(b.capacity)
	}

	c.done = queueing.NewBuffer[inflight](naming.Child(name, "Done"),
		b.latency+1)
	c.line = queueing.MakeDelayLineBuilder[inflight]().
		WithLatency(b.latency).
		WithPostBuffer(c.done).
		Build(naming.Child(name, "Line"))

	return c
}
