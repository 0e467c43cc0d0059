package pipeline

import "errors"

// Pipeline errors
var (
	// ErrInvalidConfig indicates invalid pipeline configuration
	ErrInvalidConfig = errors.New("invalid pipeline configuration")
)
