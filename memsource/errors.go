package memsource

import "errors"

var (
	// ErrNoResultCache is returned when saving or loading without a
	// configured result cache.
	ErrNoResultCache = errors.New("no result cache configured")

	// ErrEmptyIdentifier is returned when creating a source without an
	// identifier.
	ErrEmptyIdentifier = errors.New("source identifier cannot be empty")

	// ErrNilResult is returned when indexing a nil result.
	ErrNilResult = errors.New("nil result")
)
