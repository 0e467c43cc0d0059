package yardstick

import "errors"

// Device errors
var (
	// ErrNoDevice indicates no YardStick One matched
	ErrNoDevice = errors.New("no YardStick One devices found")

	// ErrTimeout indicates the device did not answer in time
	ErrTimeout = errors.New("timeout waiting for response")

	// ErrInvalidSelector indicates a malformed -d device selector
	ErrInvalidSelector = errors.New("invalid device selector")

	// ErrShortWrite indicates EP5 accepted fewer bytes than sent
	ErrShortWrite = errors.New("short write")

	// ErrBadResponse indicates a response that does not match its request
	ErrBadResponse = errors.New("unexpected response")
)

// frame parsing outcomes; never returned to callers
var (
	errNoMarker   = errors.New("no response marker found")
	errIncomplete = errors.New("incomplete response")
	errMismatch   = errors.New("response for another command")
)
