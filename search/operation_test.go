package search

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/omnisearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu       sync.Mutex
	updates  int
	finished int
}

func (o *recordingObserver) OperationUpdated(_ *SearchOperation) {
	o.mu.Lock()
	o.updates++
	o.mu.Unlock()
}

func (o *recordingObserver) OperationFinished(_ *SearchOperation) {
	o.mu.Lock()
	o.finished++
	o.mu.Unlock()
}

func (o *recordingObserver) counts() (int, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.updates, o.finished
}

func TestSearchOperation_Publish(t *testing.T) {
	q := core.NewQuery("ipho")
	op := NewSearchOperation(q, newTestSource("apps"), nil)
	obs := &recordingObserver{}
	op.AddObserver(obs)

	require.NoError(t, op.SetResults(core.Results{
		result(t, "app:sim", "iPhone Simulator", core.TypeFileApplication, 0.4),
		nil,
		result(t, "app:iphoto", "iPhoto", core.TypeFileApplication, 0.9),
	}))
	assert.Equal(t, []string{"iPhoto", "iPhone Simulator"}, names(op.Results()))

	require.NoError(t, op.AddResults(core.Results{
		result(t, "app:photos", "Photos", core.TypeFileApplication, 0.6),
	}))
	assert.Equal(t, []string{"iPhoto", "Photos", "iPhone Simulator"}, names(op.Results()))

	require.NoError(t, op.SetResults(nil))
	assert.Empty(t, op.Results())

	updates, finished := obs.counts()
	assert.Equal(t, 3, updates)
	assert.Equal(t, 0, finished)
	assert.Equal(t, "apps", op.Name())
	assert.Same(t, q, op.Query())
}

func TestSearchOperation_FinishQuery(t *testing.T) {
	op := NewSearchOperation(core.NewQuery("x"), newTestSource("apps"), nil)
	obs := &recordingObserver{}
	op.AddObserver(obs)

	require.NoError(t, op.SetResults(core.Results{result(t, "a:1", "One", core.TypeText, 0.5)}))
	require.NoError(t, op.FinishQuery())
	assert.True(t, op.IsFinished())
	assert.True(t, op.IsDone())
	assert.Error(t, op.Context().Err())

	t.Run("publish after finish is rejected", func(t *testing.T) {
		err := op.AddResults(core.Results{result(t, "a:2", "Two", core.TypeText, 0.5)})
		assert.ErrorIs(t, err, ErrOperationFinished)
		assert.Len(t, op.Results(), 1)
	})

	t.Run("second finish is rejected", func(t *testing.T) {
		assert.ErrorIs(t, op.FinishQuery(), ErrOperationFinished)
	})

	t.Run("cancel after finish does nothing", func(t *testing.T) {
		op.Cancel()
		assert.True(t, op.IsFinished())
	})

	t.Run("late observer is told immediately", func(t *testing.T) {
		late := &recordingObserver{}
		op.AddObserver(late)
		_, finished := late.counts()
		assert.Equal(t, 1, finished)
	})

	_, finished := obs.counts()
	assert.Equal(t, 1, finished)
}

func TestSearchOperation_Cancel(t *testing.T) {
	op := NewSearchOperation(core.NewQuery("x"), newTestSource("apps"), nil)
	obs := &recordingObserver{}
	op.AddObserver(obs)

	op.Cancel()
	op.Cancel()

	assert.True(t, op.IsCancelled())
	assert.Error(t, op.Context().Err())
	assert.ErrorIs(t, op.SetResults(core.Results{result(t, "a:1", "One", core.TypeText, 0.5)}), ErrOperationCancelled)
	assert.NoError(t, op.FinishQuery())
	assert.True(t, op.IsCancelled())

	_, finished := obs.counts()
	assert.Equal(t, 1, finished)
}

func TestSearchOperation_Execute(t *testing.T) {
	t.Run("finishes when run returns", func(t *testing.T) {
		src := newTestSource("apps", result(t, "a:1", "One", core.TypeText, 0.5))
		op := src.SearchOperationForQuery(core.NewQuery("one"))
		op.execute()
		assert.True(t, op.IsFinished())
		assert.Len(t, op.Results(), 1)
		assert.NoError(t, op.Err())
	})

	t.Run("runs once", func(t *testing.T) {
		var calls atomic.Int32
		op := NewSearchOperation(core.NewQuery("x"), newTestSource("apps"), func(context.Context, *SearchOperation) error {
			calls.Add(1)
			return nil
		})
		op.execute()
		op.execute()
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("panic finishes with published results", func(t *testing.T) {
		op := NewSearchOperation(core.NewQuery("x"), newTestSource("apps"), func(_ context.Context, op *SearchOperation) error {
			_ = op.SetResults(core.Results{result(t, "a:1", "One", core.TypeText, 0.5)})
			panic("boom")
		})
		op.execute()
		assert.True(t, op.IsFinished())
		assert.ErrorIs(t, op.Err(), ErrSourcePanicked)
		assert.Len(t, op.Results(), 1)
	})

	t.Run("error finishes a concurrent operation", func(t *testing.T) {
		failure := errors.New("unreachable")
		op := NewSearchOperation(core.NewQuery("x"), newTestSource("web"), func(context.Context, *SearchOperation) error {
			return failure
		}, WithConcurrent(true))
		op.execute()
		assert.True(t, op.IsFinished())
		assert.ErrorIs(t, op.Err(), failure)
	})

	t.Run("concurrent operation stays running", func(t *testing.T) {
		op := NewSearchOperation(core.NewQuery("x"), newTestSource("web"), func(context.Context, *SearchOperation) error {
			return nil
		}, WithConcurrent(true))
		op.execute()
		assert.Equal(t, OperationRunning, op.State())
		require.NoError(t, op.FinishQuery())
	})

	t.Run("error after cancel is not recorded", func(t *testing.T) {
		op := NewSearchOperation(core.NewQuery("x"), newTestSource("web"), func(ctx context.Context, op *SearchOperation) error {
			op.Cancel()
			return ctx.Err()
		})
		op.execute()
		assert.True(t, op.IsCancelled())
		assert.NoError(t, op.Err())
	})
}

func TestBlockingObserver(t *testing.T) {
	op := NewSearchOperation(core.NewQuery("x"), newTestSource("web"), nil, WithConcurrent(true))
	obs := NewBlockingObserver(op)

	go func() {
		_ = op.AddResults(core.Results{result(t, "a:1", "One", core.TypeText, 0.5)})
		_ = op.FinishQuery()
	}()

	require.NoError(t, obs.WaitUpdate(waitCtx(t)))
	require.NoError(t, obs.WaitFinished(waitCtx(t)))
	assert.True(t, op.IsFinished())

	t.Run("context expires", func(t *testing.T) {
		pending := NewBlockingObserver(NewSearchOperation(core.NewQuery("x"), newTestSource("web"), nil))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, pending.WaitFinished(ctx), context.DeadlineExceeded)
	})
}

func TestClass_String(t *testing.T) {
	assert.Equal(t, "disk", ClassDisk.String())
	assert.Equal(t, "memory", ClassMemory.String())
	assert.Equal(t, "class(9)", Class(9).String())
	assert.Equal(t, "cancelled", OperationCancelled.String())
}
