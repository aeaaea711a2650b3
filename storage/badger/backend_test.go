package badger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/omnisearch/core"
	"github.com/poiesic/omnisearch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "db")
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))

	_, err := OpenBackend(file, false)
	assert.Error(t, err)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())
	require.NoError(t, backend.Close())

	err = backend.WithTx(func(*badger.Txn) error { return nil }, false)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestRetryOnConflict(t *testing.T) {
	logger := newTestLogger()
	ctx := context.Background()

	t.Run("retries conflicts", func(t *testing.T) {
		calls := 0
		err := retryOnConflict(ctx, logger, 3, time.Microsecond, func() error {
			calls++
			if calls < 3 {
				return badger.ErrConflict
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := retryOnConflict(ctx, logger, 2, time.Microsecond, func() error {
			calls++
			return badger.ErrConflict
		})
		assert.ErrorIs(t, err, badger.ErrConflict)
		assert.Equal(t, 2, calls)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		calls := 0
		boom := errors.New("boom")
		err := retryOnConflict(ctx, logger, 5, time.Microsecond, func() error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := retryOnConflict(cctx, logger, 5, time.Microsecond, func() error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestResultCacheRepository(t *testing.T) {
	cache, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	_, err = cache.LoadResults(ctx, "apps")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	results := []storage.CachedResult{
		{URI: "app:iphoto", Name: "iPhoto", Type: core.TypeFileApplication, Rank: 0.9},
		{URI: "app:sim", Name: "iPhone Simulator", Type: core.TypeFileApplication, Rank: 0.4},
	}

	written, err := cache.SaveResults(ctx, "apps", results)
	require.NoError(t, err)
	assert.True(t, written)

	written, err = cache.SaveResults(ctx, "apps", results)
	require.NoError(t, err)
	assert.False(t, written, "unchanged results are not rewritten")

	loaded, err := cache.LoadResults(ctx, "apps")
	require.NoError(t, err)
	assert.Equal(t, results, loaded)

	results = results[:1]
	written, err = cache.SaveResults(ctx, "apps", results)
	require.NoError(t, err)
	assert.True(t, written)
	loaded, err = cache.LoadResults(ctx, "apps")
	require.NoError(t, err)
	assert.Len(t, loaded, 1)

	_, err = cache.SaveResults(ctx, "", results)
	assert.ErrorIs(t, err, storage.ErrEmptyKey)

	require.NoError(t, cache.DeleteResults(ctx, "apps"))
	require.NoError(t, cache.DeleteResults(ctx, "apps"))
	_, err = cache.LoadResults(ctx, "apps")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	written, err = cache.SaveResults(ctx, "apps", results)
	require.NoError(t, err)
	assert.True(t, written, "a deleted cache is written again")
}

func TestUsageRepository(t *testing.T) {
	_, usage, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	first := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	later := first.Add(time.Hour)

	_, err = usage.LastUsed(ctx, "app:iphoto")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, usage.RecordUsage(ctx, "app:iphoto", later))
	require.NoError(t, usage.RecordUsage(ctx, "app:iphoto", first))

	at, err := usage.LastUsed(ctx, "app:iphoto")
	require.NoError(t, err)
	assert.True(t, later.Equal(at), "an older date never replaces a newer one")

	require.NoError(t, usage.RecordUsage(ctx, "contact:1", first))
	many, err := usage.LastUsedMany(ctx, "app:iphoto", "contact:1", "missing")
	require.NoError(t, err)
	assert.Len(t, many, 2)
	assert.True(t, first.Equal(many["contact:1"]))

	require.NoError(t, usage.ForgetUsage(ctx, "app:iphoto"))
	_, err = usage.LastUsed(ctx, "app:iphoto")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, usage.RecordUsage(ctx, "", first), storage.ErrEmptyKey)
}

func TestUsageRepository_ConcurrentWriters(t *testing.T) {
	_, usage, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()

	base := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, usage.RecordUsage(ctx, "shared", base.Add(time.Duration(i)*time.Minute)))
		}()
	}
	wg.Wait()

	at, err := usage.LastUsed(ctx, "shared")
	require.NoError(t, err)
	assert.True(t, base.Add(7*time.Minute).Equal(at))
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
