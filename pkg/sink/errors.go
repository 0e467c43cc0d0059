package sink

import "errors"

// Sink errors
var (
	ErrClosed = errors.New("sink closed")
)
