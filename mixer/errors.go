package mixer

import "errors"

var (
	// ErrAlreadyStarted indicates Run was called more than once.
	ErrAlreadyStarted = errors.New("mixer already started")
)
