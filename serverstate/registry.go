package serverstate

import (
	"sync"

	"github.com/google/uuid"
)

// Registry holds every client the server has ever handshaked with and
// tracks which one, if any, is the current input target.
type Registry struct {
	mu        sync.Mutex
	clients   []*Client
	targetIdx *int

	// clipboardContent retains the last clipboard value seen from any
	// client. Clipboard synchronization itself is unimplemented (see
	// wire.ClipboardChanged); the value is kept for a future fan-out
	// implementation to build on.
	clipboardContent *string
}

// NewRegistry returns an empty registry with the server itself as the
// initial (untargeted) target.
func NewRegistry() *Registry {
	return &Registry{}
}

// AddClient appends client and returns its stable index.
func (r *Registry) AddClient(client *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients = append(r.clients, client)
	return len(r.clients) - 1
}

// NumClients returns how many clients have ever been registered.
func (r *Registry) NumClients() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// ClientAt returns the client at idx.
func (r *Registry) ClientAt(idx int) (*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clientAtLocked(idx)
}

func (r *Registry) clientAtLocked(idx int) (*Client, error) {
	if idx < 0 || idx >= len(r.clients) {
		return nil, ErrClientNotFound
	}
	return r.clients[idx], nil
}

// ClientByID performs an index-stable linear scan by id, returning the
// client and its index.
func (r *Registry) ClientByID(id uuid.UUID) (*Client, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.clients {
		if c.ID == id {
			return c, i, nil
		}
	}
	return nil, -1, ErrClientNotFound
}

// TargetIdx returns the current target index, or nil when the server
// itself is the target.
func (r *Registry) TargetIdx() *int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.targetIdx
}

// Target returns the current target client, or nil when the server is
// the target.
func (r *Registry) Target() *Client {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.targetIdx == nil {
		return nil
	}
	return r.clients[*r.targetIdx]
}

// RecordClipboard retains the most recent clipboard value reported by any
// client.
func (r *Registry) RecordClipboard(content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clipboardContent = &content
}

// ClipboardContent returns the last recorded clipboard value, or nil if
// none has been seen.
func (r *Registry) ClipboardContent() *string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clipboardContent
}

// MarkDisconnected clears idx's liveness flag without removing it from
// the registry.
func (r *Registry) MarkDisconnected(idx int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	client, err := r.clientAtLocked(idx)
	if err != nil {
		return err
	}
	client.Connected = false
	return nil
}

// setTarget installs idx as the new target index, validating bounds.
// Callers must hold r.mu.
func (r *Registry) setTarget(idx *int) error {
	if idx != nil {
		if *idx < 0 || *idx >= len(r.clients) {
			return ErrClientNotFound
		}
	}
	r.targetIdx = idx
	return nil
}
