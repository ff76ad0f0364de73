package devio

import (
	"context"

	"github.com/opd-ai/virtualkvm/keys"
)

// Input captures raw input events from one physical device (keyboard,
// mouse, or a combined device node) and can grab or release exclusive
// access to it.
//
// Grabbing a device stops the OS from delivering its events to any other
// process or window manager, which is what makes forwarding input to a
// remote client possible without it also leaking to the local desktop.
type Input interface {
	// NextEvent blocks until the next input event is available or ctx is
	// cancelled.
	NextEvent(ctx context.Context) (keys.InputEvent, error)

	// Grab takes exclusive ownership of the device's events.
	Grab() error

	// Ungrab releases exclusive ownership, letting events flow to the
	// local desktop again.
	Ungrab() error

	// Close releases any OS resources held by the device.
	Close() error
}
