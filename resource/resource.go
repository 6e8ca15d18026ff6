// Package resource defines the contract of the single-ported backend that the
// burst scheduler shares among its ports.
package resource

// Request is one item submitted to the resource. It does not name the port
// it comes from.
type Request struct {
	Address uint64
	Payload uint64
}

// Response is the completion of one accepted Request.
type Response struct {
	Address uint64
	Payload uint64
}

// A SharedResource accepts at most one request per tick and returns exactly
// one response per accepted request, in acceptance order, between 1 and a
// fixed maximum number of ticks later.
type SharedResource interface {
	// TrySubmit offers a request for the current tick. It returns false if
	// the resource cannot take it; the caller may retry on a later tick.
	TrySubmit(req Request) bool

	// Tick advances the resource by one tick and returns the responses that
	// complete on this tick, oldest first.
	Tick() []Response
}
