package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/omnisearch/storage"
)

// UsageRepository implements storage.UsageRepository for BadgerDB.
type UsageRepository struct {
	backend *Backend
}

var _ storage.UsageRepository = (*UsageRepository)(nil)

// NewUsageRepository creates a new UsageRepository.
func NewUsageRepository(backend *Backend) *UsageRepository {
	return &UsageRepository{backend: backend}
}

// Close is a no-op; the backend is closed by its owner.
func (r *UsageRepository) Close() error { return nil }

// RecordUsage stores at as the last-used date of identifier unless a later
// date is already stored.
func (r *UsageRepository) RecordUsage(ctx context.Context, identifier string, at time.Time) error {
	if identifier == "" {
		return storage.ErrEmptyKey
	}
	key := makeUsageKey(identifier)
	return r.backend.Update(ctx, func(tx *badger.Txn) error {
		current, err := readTime(tx, key)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		if err == nil && !at.After(current) {
			return nil
		}
		return tx.Set(key, storage.MarshalTime(at))
	})
}

// LastUsed returns the last-used date of identifier.
func (r *UsageRepository) LastUsed(ctx context.Context, identifier string) (time.Time, error) {
	var at time.Time
	err := r.backend.View(ctx, func(tx *badger.Txn) error {
		var err error
		at, err = readTime(tx, makeUsageKey(identifier))
		return err
	})
	return at, err
}

// LastUsedMany returns the last-used dates of the identifiers that have one.
func (r *UsageRepository) LastUsedMany(ctx context.Context, identifiers ...string) (map[string]time.Time, error) {
	out := make(map[string]time.Time, len(identifiers))
	err := r.backend.View(ctx, func(tx *badger.Txn) error {
		for _, id := range identifiers {
			at, err := readTime(tx, makeUsageKey(id))
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			out[id] = at
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ForgetUsage removes the last-used date of identifier.
func (r *UsageRepository) ForgetUsage(ctx context.Context, identifier string) error {
	return r.backend.Update(ctx, func(tx *badger.Txn) error {
		return tx.Delete(makeUsageKey(identifier))
	})
}

func readTime(tx *badger.Txn, key []byte) (time.Time, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return time.Time{}, storage.ErrNotFound
		}
		return time.Time{}, err
	}
	var at time.Time
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		at, unmarshalErr = storage.UnmarshalTime(val)
		return unmarshalErr
	})
	return at, err
}
