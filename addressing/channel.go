// Package addressing generates the addresses a port writes to.
package addressing

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrChannelClosed is returned when advancing a channel that was never
	// opened.
	ErrChannelClosed = errors.New("address channel is not open")

	// ErrChannelStopped is returned when advancing a single-shot channel
	// that has already used its last address.
	ErrChannelStopped = errors.New("address channel is stopped")

	// ErrInvalidRange is returned when opening a channel with first > last.
	ErrInvalidRange = errors.New("invalid address range")
)

// A Channel hands out consecutive addresses in [first, last]. In continuous
// mode it wraps back to first. In single-shot mode it stops after last and
// refuses to advance until it is opened again.
type Channel struct {
	first, last uint64
	current     uint64
	singleShot  bool
	wrapped     bool
	stopped     bool
	open        bool
}

// Step is the result of one Advance.
type Step struct {
	// Addr is the address to use for the request.
	Addr uint64

	// Wrapped is set when the advance moved a continuous channel back to
	// its first address.
	Wrapped bool

	// Stopped is set when the advance used the last address of a single-shot
	// channel. The request carrying Addr ends the frame.
	Stopped bool
}

// Open (re)arms the channel at first.
func (c *Channel) Open(first, last uint64, singleShot bool) error {
	if first > last {
		return fmt.Errorf("%w: first %#x > last %#x", ErrInvalidRange,
			first, last)
	}

	*c = Channel{
		first:      first,
		last:       last,
		current:    first,
		singleShot: singleShot,
		open:       true,
	}

	return nil
}

// Advance returns the current address and moves to the next one.
func (c *Channel) Advance() (Step, error) {
	if !c.open {
		return Step{}, ErrChannelClosed
	}

	if c.stopped {
		return Step{}, ErrChannelStopped
	}

	step := Step{Addr: c.current}

	if c.current < c.last {
		c.current++
		return step, nil
	}

	if c.singleShot {
		c.stopped = true
		step.Stopped = true

		return step, nil
	}

	c.current = c.first
	c.wrapped = true
	step.Wrapped = true

	return step, nil
}

// Remaining returns how many more advances a single-shot channel accepts.
// Continuous channels never run out; for them it returns -1. Ranges wider
// than math.MaxInt report math.MaxInt.
func (c *Channel) Remaining() int {
	switch {
	case !c.open || c.stopped:
		return 0
	case !c.singleShot:
		return -1
	default:
		n := c.last - c.current
		if n >= math.MaxInt {
			return math.MaxInt
		}

		return int(n) + 1
	}
}

// Current returns the address the next Advance hands out.
func (c *Channel) Current() uint64 {
	return c.current
}

// IsOpen reports whether the channel has been opened.
func (c *Channel) IsOpen() bool {
	return c.open
}

// Stopped reports whether a single-shot channel has used its last address.
func (c *Channel) Stopped() bool {
	return c.stopped
}

// Wrapped reports whether a continuous channel has wrapped since it was
// opened.
func (c *Channel) Wrapped() bool {
	return c.wrapped
}

// SingleShot reports the mode the channel was opened in.
func (c *Channel) SingleShot() bool {
	return c.singleShot
}

// Close disarms the channel.
func (c *Channel) Close() {
	c.open = false
}
