package devio

import "errors"

// ErrDeviceClosed is returned by NextEvent once the underlying device has
// been closed and will never produce another event.
var ErrDeviceClosed = errors.New("devio: device closed")
