package storage

import (
	"context"
	"time"
)

// ResultCacheRepository persists the indexed results of memory sources.
// Implementations must be thread-safe and support concurrent access.
type ResultCacheRepository interface {
	// SaveResults replaces the cached results of sourceID. The write is
	// skipped when the encoded results hash the same as the stored copy;
	// written reports whether anything changed.
	SaveResults(ctx context.Context, sourceID string, results []CachedResult) (written bool, err error)

	// LoadResults returns the cached results of sourceID in the order they
	// were saved. Returns ErrNotFound if nothing was saved.
	LoadResults(ctx context.Context, sourceID string) ([]CachedResult, error)

	// DeleteResults removes the cached results of sourceID. Deleting a
	// missing cache is not an error.
	DeleteResults(ctx context.Context, sourceID string) error

	// Close releases resources held by the repository.
	Close() error
}

// UsageRepository records when results were last used.
// Implementations must be thread-safe and support concurrent access.
type UsageRepository interface {
	// RecordUsage stores at as the last-used date of identifier. An older
	// date never replaces a newer one.
	RecordUsage(ctx context.Context, identifier string, at time.Time) error

	// LastUsed returns the last-used date of identifier.
	// Returns ErrNotFound if it was never used.
	LastUsed(ctx context.Context, identifier string) (time.Time, error)

	// LastUsedMany returns the last-used dates of the identifiers that have
	// one. Missing identifiers are left out of the map.
	LastUsedMany(ctx context.Context, identifiers ...string) (map[string]time.Time, error)

	// ForgetUsage removes the last-used date of identifier.
	ForgetUsage(ctx context.Context, identifier string) error

	// Close releases resources held by the repository.
	Close() error
}
