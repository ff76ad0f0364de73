package devio

import (
	"context"
	"sync"

	"github.com/opd-ai/virtualkvm/keys"
)

// DefaultInputBuffer is a reasonable event-channel capacity for a NullInput
// driven by a real (if absent) capture source rather than a test pushing
// events one at a time.
const DefaultInputBuffer = 256

// NullInput is an [Input] backed by a channel the test (or a future OS
// backend wrapper) feeds directly, with Grab/Ungrab state tracked for
// assertions rather than acted on.
type NullInput struct {
	events chan keys.InputEvent

	mu      sync.Mutex
	grabbed bool
	closed  bool
}

// NewNullInput returns a NullInput whose event channel has the given
// buffer capacity.
func NewNullInput(buffer int) *NullInput {
	return &NullInput{events: make(chan keys.InputEvent, buffer)}
}

// Push makes event available to the next NextEvent call. It panics if
// called after Close, the same way sending on a closed channel would.
func (n *NullInput) Push(event keys.InputEvent) {
	n.events <- event
}

func (n *NullInput) NextEvent(ctx context.Context) (keys.InputEvent, error) {
	select {
	case event, ok := <-n.events:
		if !ok {
			return keys.InputEvent{}, ErrDeviceClosed
		}
		return event, nil
	case <-ctx.Done():
		return keys.InputEvent{}, ctx.Err()
	}
}

func (n *NullInput) Grab() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.grabbed = true
	return nil
}

func (n *NullInput) Ungrab() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.grabbed = false
	return nil
}

// Grabbed reports whether Grab was called more recently than Ungrab.
func (n *NullInput) Grabbed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.grabbed
}

func (n *NullInput) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil
	}
	n.closed = true
	close(n.events)
	return nil
}

// NullOutput is an [Output] that records emitted events and tracks which
// keys/buttons it believes are held, so tests can assert ReleaseAll
// behavior.
type NullOutput struct {
	mu      sync.Mutex
	emitted []keys.InputEvent
	held    map[keys.Key]bool
}

// NewNullOutput returns an empty NullOutput.
func NewNullOutput() *NullOutput {
	return &NullOutput{held: make(map[keys.Key]bool)}
}

func (n *NullOutput) Emit(event keys.InputEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emitted = append(n.emitted, event)
	switch event.Kind {
	case keys.KindKeyboard:
		n.held[event.Key] = event.KeyboardEventType != keys.Released
	case keys.KindMouseButton:
		n.held[event.Button] = event.ButtonEventType != keys.Released
	}
	return nil
}

func (n *NullOutput) ReleaseAll() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for key, isHeld := range n.held {
		if isHeld {
			n.held[key] = false
		}
	}
	return nil
}

func (n *NullOutput) Close() error {
	return nil
}

// Emitted returns a copy of every event passed to Emit, in order.
func (n *NullOutput) Emitted() []keys.InputEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]keys.InputEvent, len(n.emitted))
	copy(out, n.emitted)
	return out
}

// HeldKeys reports which keys/buttons are currently believed held.
func (n *NullOutput) HeldKeys() []keys.Key {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []keys.Key
	for key, isHeld := range n.held {
		if isHeld {
			out = append(out, key)
		}
	}
	return out
}
