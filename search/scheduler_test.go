package search

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/omnisearch/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T, opts ...SchedulerOption) *Scheduler {
	t.Helper()
	s, err := NewScheduler(opts...)
	require.NoError(t, err)
	t.Cleanup(s.Release)
	return s
}

func TestScheduler_DiskRunsSerially(t *testing.T) {
	s := newTestScheduler(t, WithPoolSize(4))

	var running, peak atomic.Int32
	run := func(context.Context, *SearchOperation) error {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		running.Add(-1)
		return nil
	}

	var wg sync.WaitGroup
	for range 4 {
		op := NewSearchOperation(core.NewQuery("x"), newTestSource("disk"), run, WithClass(ClassDisk))
		obs := NewBlockingObserver(op)
		require.NoError(t, s.Schedule(op))
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, obs.WaitFinished(waitCtx(t)))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), peak.Load())
}

func TestScheduler_Classes(t *testing.T) {
	s := newTestScheduler(t)
	for _, class := range []Class{ClassNormal, ClassDisk, ClassNetwork, ClassMemory} {
		t.Run(class.String(), func(t *testing.T) {
			src := newTestSource("src", result(t, "a:1", "One", core.TypeText, 0.5))
			src.class = class
			op := src.SearchOperationForQuery(core.NewQuery("one"))
			obs := NewBlockingObserver(op)
			require.NoError(t, s.Schedule(op))
			require.NoError(t, obs.WaitFinished(waitCtx(t)))
			assert.Len(t, op.Results(), 1)
		})
	}
}

func TestScheduler_Released(t *testing.T) {
	s, err := NewScheduler()
	require.NoError(t, err)
	s.Release()
	s.Release()

	op := NewSearchOperation(core.NewQuery("x"), newTestSource("src"), nil)
	assert.ErrorIs(t, s.Schedule(op), ErrSchedulerReleased)
	assert.Equal(t, 0, s.Running(ClassNormal))
}

func TestScheduler_MemoryRunsUnbounded(t *testing.T) {
	s := newTestScheduler(t, WithPoolSize(1))

	// Occupy the normal pool until the memory operations are done.
	release := make(chan struct{})
	blocker := NewSearchOperation(core.NewQuery("x"), newTestSource("normal"), func(context.Context, *SearchOperation) error {
		<-release
		return nil
	})
	blockerObs := NewBlockingObserver(blocker)
	require.NoError(t, s.Schedule(blocker))

	const n = 8
	var started sync.WaitGroup
	started.Add(n)
	observers := make([]*BlockingObserver, 0, n)
	for range n {
		op := NewSearchOperation(core.NewQuery("x"), newTestSource("memory"), func(context.Context, *SearchOperation) error {
			started.Done()
			started.Wait()
			return nil
		}, WithClass(ClassMemory))
		observers = append(observers, NewBlockingObserver(op))
		require.NoError(t, s.Schedule(op))
	}
	for _, obs := range observers {
		require.NoError(t, obs.WaitFinished(waitCtx(t)))
	}

	close(release)
	require.NoError(t, blockerObs.WaitFinished(waitCtx(t)))
}
