package confirm

import "errors"

// Filter errors
var (
	// ErrAlreadyRegistered indicates a callback was already registered; the
	// first registration stays in effect
	ErrAlreadyRegistered = errors.New("callback already registered")

	// ErrNilCallback indicates a nil callback was passed to Register
	ErrNilCallback = errors.New("callback must not be nil")
)
