// Package device runs the capture-side actor: it reads events from a
// physical input device, tracks which keys are currently held so it can
// recognize the cycle-target hotkey, forwards every captured event for
// broadcast to the network, and grabs or releases the device on request
// from the server state machine.
package device
