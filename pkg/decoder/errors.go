package decoder

import "errors"

// Decoder errors
var (
	// ErrInvalidRatio indicates a tolerance ratio that can never match
	ErrInvalidRatio = errors.New("invalid decoder ratio")

	// ErrNoSink indicates the decoder was created without a frame callback
	ErrNoSink = errors.New("decoder needs a frame callback")
)
