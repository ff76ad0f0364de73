package device

import "github.com/opd-ai/virtualkvm/keys"

// CycleTargetCombo is the chord that requests a target cycle: both
// left-hand modifier keys plus H, held simultaneously.
var CycleTargetCombo = []keys.Key{keys.KeyLeftCtrl, keys.KeyLeftShift, keys.KeyH}

// KeyboardState tracks which keys are currently held, so the capture loop
// can recognize multi-key chords without depending on event ordering.
type KeyboardState struct {
	pressed [keys.Count]bool
}

// NewKeyboardState returns a KeyboardState with nothing held.
func NewKeyboardState() *KeyboardState {
	return &KeyboardState{}
}

// Press marks key as held.
func (s *KeyboardState) Press(key keys.Key) {
	if key.Valid() {
		s.pressed[key] = true
	}
}

// Release marks key as not held.
func (s *KeyboardState) Release(key keys.Key) {
	if key.Valid() {
		s.pressed[key] = false
	}
}

// IsPressed reports whether key is currently held.
func (s *KeyboardState) IsPressed(key keys.Key) bool {
	return key.Valid() && s.pressed[key]
}

// IsCombinationPressed reports whether every key in combo is currently
// held.
func (s *KeyboardState) IsCombinationPressed(combo []keys.Key) bool {
	for _, key := range combo {
		if !s.IsPressed(key) {
			return false
		}
	}
	return true
}
