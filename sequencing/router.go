package sequencing

import (
	"errors"
	"fmt"

	"github.com/sarchlab/portsched/sim/queueing"
)

// A Completion is a resource response attributed to its port.
type Completion struct {
	PortID     int
	Address    uint64
	Payload    uint64
	EndOfFrame bool
}

// RouterOverflowError reports that a completion could not be delivered
// because the port's completion queue was full.
type RouterOverflowError struct {
	PortID     int
	Completion Completion
}

func (e *RouterOverflowError) Error() string {
	return fmt.Sprintf("completion queue of port %d is full", e.PortID)
}

// ErrDiscarded is returned when a completion belongs to a muted port. The
// completion is attributed but dropped.
var ErrDiscarded = errors.New("completion discarded")

// A Router delivers completions into per-port completion queues.
type Router struct {
	tracker *Tracker
	queues  []queueing.Buffer[Completion]
	muted   []bool
}

// NewRouter creates a Router. queues[i] receives the completions of port i.
func NewRouter(
	tracker *Tracker,
	queues []queueing.Buffer[Completion],
) *Router {
	return &Router{
		tracker: tracker,
		queues:  queues,
		muted:   make([]bool, len(queues)),
	}
}

// Mute makes the router drop every later completion of the port.
func (r *Router) Mute(portID int) {
	r.muted[portID] = true
}

// Unmute resumes delivery to the port.
func (r *Router) Unmute(portID int) {
	r.muted[portID] = false
}

// Route attributes the next completion to its port and enqueues it there.
// On RouterOverflowError the completion has been attributed (the ledger is
// popped) but not delivered.
func (r *Router) Route(addr, payload uint64) (Completion, error) {
	entry, err := r.tracker.Pop()
	if err != nil {
		return Completion{}, err
	}

	c := Completion{
		PortID:     entry.PortID,
		Address:    addr,
		Payload:    payload,
		EndOfFrame: entry.EndOfFrame,
	}

	if entry.PortID < 0 || entry.PortID >= len(r.queues) {
		panic(fmt.Sprintf("sequencing: ledger names unknown port %d",
			entry.PortID))
	}

	if r.muted[entry.PortID] {
		return c, ErrDiscarded
	}

	q := r.queues[entry.PortID]
	if !q.CanPush() {
		return c, &RouterOverflowError{PortID: entry.PortID, Completion: c}
	}

	q.Push(c)

	return c, nil
}

// Queue returns the completion queue of a port.
func (r *Router) Queue(portID int) queueing.Buffer[Completion] {
	return r.queues[portID]
}
