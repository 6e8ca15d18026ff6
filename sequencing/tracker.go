// Package sequencing re-attributes untagged completions to the ports that
// issued them.
//
// The shared resource returns completions in exactly the order it accepted
// requests, so a FIFO of port IDs written at issue time is enough to tell
// which port each completion belongs to.
package sequencing

import (
	"errors"
	"fmt"

	"github.com/sarchlab/portsched/sim/queueing"
)

var (
	// ErrSequenceUnderflow is returned when a completion arrives and no
	// request is recorded as outstanding.
	ErrSequenceUnderflow = errors.New("sequence underflow")

	// ErrTrackerFull is returned when more requests are outstanding than the
	// tracker was sized for.
	ErrTrackerFull = errors.New("sequence tracker full")
)

// Entry records the owner of one issued request.
type Entry struct {
	PortID     int
	EndOfFrame bool
}

// A Tracker is the issue-order ledger.
type Tracker struct {
	entries queueing.Buffer[Entry]
}

// NewTracker creates a Tracker that can hold depth outstanding requests.
// depth must cover the worst-case round trip of the resource.
func NewTracker(name string, depth int) *Tracker {
	return &Tracker{
		entries: queueing.NewBuffer[Entry](name, depth),
	}
}

// Name returns the name of the tracker.
func (t *Tracker) Name() string {
	return t.entries.Name()
}

// Push records that a request from the port has been accepted.
func (t *Tracker) Push(portID int, eof bool) error {
	if !t.entries.CanPush() {
		return fmt.Errorf("%w: %d outstanding", ErrTrackerFull,
			t.entries.Size())
	}

	t.entries.Push(Entry{PortID: portID, EndOfFrame: eof})

	return nil
}

// Pop returns the owner of the oldest outstanding request.
func (t *Tracker) Pop() (Entry, error) {
	e, ok := t.entries.Pop()
	if !ok {
		return Entry{}, ErrSequenceUnderflow
	}

	return e, nil
}

// CanPush reports whether another request can be recorded.
func (t *Tracker) CanPush() bool {
	return t.entries.CanPush()
}

// Len returns the number of outstanding requests.
func (t *Tracker) Len() int {
	return t.entries.Size()
}

// Capacity returns the number of requests the tracker can hold.
func (t *Tracker) Capacity() int {
	return t.entries.Capacity()
}
