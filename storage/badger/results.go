// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/omnisearch/storage"
)

// ResultCacheRepository implements storage.ResultCacheRepository for BadgerDB.
type ResultCacheRepository struct {
	backend *Backend
}

var _ storage.ResultCacheRepository = (*ResultCacheRepository)(nil)

// NewResultCacheRepository creates a new ResultCacheRepository.
func NewResultCacheRepository(backend *Backend) *ResultCacheRepository {
	return &ResultCacheRepository{backend: backend}
}

// Close is a no-op; the backend is closed by its owner.
func (r *ResultCacheRepository) Close() error { return nil }

// SaveResults replaces the cached results of sourceID unless they are
// unchanged.
func (r *ResultCacheRepository) SaveResults(ctx context.Context, sourceID string, results []storage.CachedResult) (bool, error) {
	if sourceID == "" {
		return false, storage.ErrEmptyKey
	}
	data := storage.MarshalCachedResults(results)
	hash := storage.ContentHash(data)

	written := false
	err := r.backend.Update(ctx, func(tx *badger.Txn) error {
		written = false
		item, err := tx.Get(makeResultHashKey(sourceID))
		switch {
		case err == nil:
			stored, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if old, ok := unmarshalHash(stored); ok && old == hash {
				return nil
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		if err := tx.Set(makeResultCacheKey(sourceID), data); err != nil {
			return err
		}
		if err := tx.Set(makeResultHashKey(sourceID), marshalHash(hash)); err != nil {
			return err
		}
		written = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("saving results of %s: %w", sourceID, err)
	}
	if written {
		r.backend.logger.Debug("saved result cache", "source", sourceID, "results", len(results), "bytes", len(data))
	}
	return written, nil
}

// LoadResults returns the cached results of sourceID.
func (r *ResultCacheRepository) LoadResults(ctx context.Context, sourceID string) ([]storage.CachedResult, error) {
	var results []storage.CachedResult
	err := r.backend.View(ctx, func(tx *badger.Txn) error {
		item, err := tx.Get(makeResultCacheKey(sourceID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var unmarshalErr error
			results, unmarshalErr = storage.UnmarshalCachedResults(val)
			return unmarshalErr
		})
	})
	return results, err
}

// DeleteResults removes the cached results of sourceID.
func (r *ResultCacheRepository) DeleteResults(ctx context.Context, sourceID string) error {
	return r.backend.Update(ctx, func(tx *badger.Txn) error {
		if err := tx.Delete(makeResultCacheKey(sourceID)); err != nil {
			return err
		}
		return tx.Delete(makeResultHashKey(sourceID))
	})
}
