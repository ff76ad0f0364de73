package serverstate

import "errors"

var (
	// ErrClientNotFound is returned for an out-of-range index or an id
	// with no matching registry entry.
	ErrClientNotFound = errors.New("serverstate: client not found")

	// ErrClientDisconnected is returned when an operation targets a
	// client whose Connected flag is already false.
	ErrClientDisconnected = errors.New("serverstate: client disconnected")

	// ErrOutboundQueueFull is returned when a client's outbound queue
	// cannot accept another message without blocking.
	ErrOutboundQueueFull = errors.New("serverstate: client outbound queue full")
)
