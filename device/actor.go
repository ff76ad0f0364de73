package device

import (
	"context"
	"errors"

	"github.com/opd-ai/virtualkvm/devio"
	"github.com/opd-ai/virtualkvm/keys"
	"github.com/sirupsen/logrus"
)

// Actor owns one physical input device and its paired virtual output
// device, and runs the capture loop that turns raw input into [Signal]
// values while honoring grab/ungrab requests from the server state
// machine.
type Actor struct {
	input  devio.Input
	output devio.Output
	state  *KeyboardState
}

// New returns an Actor driving input and output.
func New(input devio.Input, output devio.Output) *Actor {
	return &Actor{input: input, output: output, state: NewKeyboardState()}
}

type captureResult struct {
	event keys.InputEvent
	err   error
}

// Run reads from the device until ctx is cancelled (including while a send
// on signals is blocked), input.NextEvent returns a non-context error, or
// a grab/ungrab request fails. Every cancellation path releases every key
// the output device believes is held and returns the result of that
// release; a device or grab error is returned without releasing.
//
// grabRequest carries true to request exclusive capture (pressing the
// device's keys no longer reaches the local desktop) and false to release
// it; signals receives one value per captured input event plus one
// CycleRequested per press of the cycle-target hotkey.
func (a *Actor) Run(ctx context.Context, signals chan<- Signal, grabRequest <-chan bool) error {
	logger := logrus.WithFields(logrus.Fields{"function": "Actor.Run", "package": "device"})

	results := make(chan captureResult)
	go func() {
		for {
			event, err := a.input.NextEvent(ctx)
			select {
			case results <- captureResult{event: event, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for {
		select {
		case res := <-results:
			if res.err != nil {
				if errors.Is(res.err, context.Canceled) || errors.Is(res.err, context.DeadlineExceeded) {
					return a.output.ReleaseAll()
				}
				return res.err
			}
			if err := a.handleCaptured(ctx, res.event, signals); err != nil {
				if ctx.Err() != nil {
					return a.output.ReleaseAll()
				}
				return err
			}

		case grab, ok := <-grabRequest:
			if !ok {
				grabRequest = nil
				continue
			}
			if err := a.handleGrabRequest(grab); err != nil {
				logger.WithError(err).Warn("grab/ungrab request failed")
				return err
			}

		case <-ctx.Done():
			return a.output.ReleaseAll()
		}
	}
}

func (a *Actor) handleCaptured(ctx context.Context, event keys.InputEvent, signals chan<- Signal) error {
	if event.Kind == keys.KindKeyboard {
		switch event.KeyboardEventType {
		case keys.Pressed:
			a.state.Press(event.Key)
			if a.state.IsCombinationPressed(CycleTargetCombo) {
				if !sendSignal(ctx, signals, CycleRequested{}) {
					return ctx.Err()
				}
			}
		case keys.Released:
			a.state.Release(event.Key)
		}
	}

	if !sendSignal(ctx, signals, InputCaptured{Event: event}) {
		return ctx.Err()
	}
	return nil
}

func (a *Actor) handleGrabRequest(grab bool) error {
	if grab {
		if err := a.output.ReleaseAll(); err != nil {
			return err
		}
		return a.input.Grab()
	}
	return a.input.Ungrab()
}

func sendSignal(ctx context.Context, signals chan<- Signal, signal Signal) bool {
	select {
	case signals <- signal:
		return true
	case <-ctx.Done():
		return false
	}
}
