package hooking

import "sync"

// PosCounter counts how many times each hook position is triggered.
type PosCounter struct {
	lock   sync.Mutex
	names  []string
	counts map[string]uint64
}

// NewPosCounter creates a new PosCounter.
func NewPosCounter() *PosCounter {
	return &PosCounter{
		counts: make(map[string]uint64),
	}
}

// Func counts the hook position of the context.
func (c *PosCounter) Func(ctx HookCtx) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if _, ok := c.counts[ctx.Pos.Name]; !ok {
		c.names = append(c.names, ctx.Pos.Name)
	}

	c.counts[ctx.Pos.Name]++
}

// Count returns the number of times the position was triggered.
func (c *PosCounter) Count(pos *HookPos) uint64 {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.counts[pos.Name]
}

// Names returns the names of all the positions seen, in first-seen order.
func (c *PosCounter) Names() []string {
	c.lock.Lock()
	defer c.lock.Unlock()

	return append([]string(nil), c.names...)
}
