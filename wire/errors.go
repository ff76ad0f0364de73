package wire

import "errors"

// ErrUnknownTag is returned by Decode when an envelope's tag does not
// correspond to any of the nine defined Message variants.
var ErrUnknownTag = errors.New("unrecognized message tag")
