package handshake

import "errors"

// ErrUnexpectedMessage is returned when a handshake step receives a
// Message of a different variant than the protocol step requires.
var ErrUnexpectedMessage = errors.New("handshake: unexpected message type")
