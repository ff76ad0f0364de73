package transport

import "errors"

var (
	// ErrConnectionClosed is returned by Receive when the peer has closed
	// its end of the stream (EOF during frame-length or frame-body read).
	ErrConnectionClosed = errors.New("transport: connection closed")

	// ErrMalformedLength is returned when a reliable-channel frame's
	// 4-byte length prefix is zero or implausibly large.
	ErrMalformedLength = errors.New("transport: malformed frame length prefix")

	// errNoRemote is returned by Datagram.Send when no remote endpoint
	// has been bound yet via NewDatagram or SetRemote.
	errNoRemote = errors.New("no remote endpoint bound")
)

// maxFrameLength bounds the length prefix accepted on the reliable
// channel. Input events and control messages are small; this exists only
// to keep a corrupted or adversarial length prefix from causing an
// unbounded allocation.
const maxFrameLength = 1 << 20

// maxDatagramSize bounds a single read on the datagram channel. The wire
// format caps useful payload at ~256 bytes; this leaves headroom for the
// MessageWithNonce envelope overhead.
const maxDatagramSize = 1024
