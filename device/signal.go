package device

import "github.com/opd-ai/virtualkvm/keys"

// Signal is a message the capture loop emits for the server state machine
// to act on: either an input event to broadcast, or a local intent that
// never reaches the network.
type Signal interface{ isSignal() }

// InputCaptured carries a single captured input event, destined for
// broadcast to the connected client per the usual routing rules.
type InputCaptured struct {
	Event keys.InputEvent
}

func (InputCaptured) isSignal() {}

// CycleRequested is emitted once per press of the cycle-target hotkey
// combination. It never reaches the network; the state machine handles it
// locally by advancing the active target.
type CycleRequested struct{}

func (CycleRequested) isSignal() {}
