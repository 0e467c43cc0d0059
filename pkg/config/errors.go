package config

import "errors"

// Configuration errors
var (
	// ErrInvalidConfig indicates an invalid configuration value
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConfigVersion indicates unsupported config file version
	ErrConfigVersion = errors.New("unsupported configuration version")

	// ErrUnknownSource indicates a source type this build cannot open
	ErrUnknownSource = errors.New("unknown source type")

	// ErrDuplicateDevice indicates two device entries share an address
	ErrDuplicateDevice = errors.New("duplicate device address")

	// ErrInvalidDevice indicates a malformed device entry
	ErrInvalidDevice = errors.New("invalid device entry")
)
