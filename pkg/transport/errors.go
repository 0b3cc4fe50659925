package transport

import "errors"

// ErrNotConnected is returned by Send when the transport has no live
// connection.
var ErrNotConnected = errors.New("transport not connected")
