// Package serverstate implements the server's single source of truth
// about connected clients and which one is currently the input target.
//
// It holds a registry of clients (index-stable for the process lifetime,
// appended to and never pruned), the current target index, and the
// target-change and cycle-target state machine that decides when a grab
// or ungrab signal crosses the boundary between "server is target" and
// "some client is target".
//
// Registry is safe for concurrent use; callers that drive it from a
// single event-processing goroutine get effectively-single-writer
// behavior without requiring it.
package serverstate
