package storage

import "errors"

// ErrClosed is returned when writing to a closed writer.
var ErrClosed = errors.New("storage: writer closed")
