// Package devio defines the small capability interfaces the device actor
// needs to capture raw input and replay it: [Input] for reading captured
// events plus grabbing/ungrabbing the physical device, and [Output] for
// synthesizing input on a virtual device.
//
// Concrete OS backends (X11/evdev, Windows, macOS) are deliberately out of
// scope; this package provides the interfaces plus [NullInput] and
// [NullOutput] implementations usable in tests and as a documented
// extension point.
package devio
