package devio

import "github.com/opd-ai/virtualkvm/keys"

// Output synthesizes input events on a virtual device, standing in for
// whatever a client received from the server and must replay locally.
type Output interface {
	// Emit synthesizes a single input event.
	Emit(event keys.InputEvent) error

	// ReleaseAll releases every key and button this device believes is
	// currently held, so a lost connection or a target switch never
	// leaves a key stuck down on the client.
	ReleaseAll() error

	// Close releases any OS resources held by the virtual device.
	Close() error
}
