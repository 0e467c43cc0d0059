package source

import "errors"

// Source errors
var (
	ErrUnsupported = errors.New("source not supported on this platform")
	ErrBadCapture  = errors.New("not a capture file")
	ErrNoRadio     = errors.New("no radio")

	ErrAmplifierState = errors.New("amplifier did not take the requested mode")
)
