package keys

// EventType distinguishes the three ways a key or button can be observed:
// a fresh press, a release, or (for keyboards only) an auto-repeat while
// held down.
type EventType uint8

const (
	Pressed EventType = iota
	Released
	Held
)

// Axis distinguishes the horizontal and vertical components of mouse motion
// and scroll events.
type Axis uint8

const (
	AxisHorizontal Axis = iota
	AxisVertical
)

// InputEventKind tags which variant of InputEvent is populated. Declaration
// order here has no wire significance of its own (InputEvent is nested
// inside wire.Message, whose own variant tag carries the significant
// ordering), but keeping one order used consistently keeps switch statements
// exhaustive and easy to audit.
type InputEventKind uint8

const (
	KindKeyboard InputEventKind = iota
	KindMouseMotion
	KindMouseButton
	KindMouseScroll
)

// InputEvent is a tagged union of everything the device actor can capture
// and the client can synthesize: a keyboard key transition, relative mouse
// motion along one axis, a mouse button transition, or a scroll tick along
// one axis.
//
// Only the fields relevant to Kind are meaningful. Flattening the variants
// into one struct keeps InputEvent a plain comparable value usable directly
// as a channel payload.
type InputEvent struct {
	Kind InputEventKind

	// Keyboard
	KeyboardEventType EventType
	Key               Key

	// Mouse motion / scroll
	Axis Axis
	Diff int32

	// Mouse button
	ButtonEventType EventType
	Button          Key
}

// Keyboard builds a keyboard key-transition event.
func Keyboard(eventType EventType, key Key) InputEvent {
	return InputEvent{Kind: KindKeyboard, KeyboardEventType: eventType, Key: key}
}

// MouseMotion builds a relative mouse motion event along one axis.
func MouseMotion(axis Axis, diff int32) InputEvent {
	return InputEvent{Kind: KindMouseMotion, Axis: axis, Diff: diff}
}

// MouseButton builds a mouse button transition event.
func MouseButton(eventType EventType, button Key) InputEvent {
	return InputEvent{Kind: KindMouseButton, ButtonEventType: eventType, Button: button}
}

// MouseScroll builds a scroll-tick event along one axis.
func MouseScroll(axis Axis, diff int32) InputEvent {
	return InputEvent{Kind: KindMouseScroll, Axis: axis, Diff: diff}
}
