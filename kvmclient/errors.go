package kvmclient

import "errors"

// ErrUnexpectedMessage is returned when a message arrives on the reliable
// channel that this client has no handler for.
var ErrUnexpectedMessage = errors.New("kvmclient: unexpected message")
