package search

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
)

// antsLoggerAdapter adapts slog.Logger to ants.Logger
type antsLoggerAdapter struct {
	logger *slog.Logger
}

func (a *antsLoggerAdapter) Printf(format string, args ...any) {
	a.logger.Debug(fmt.Sprintf(format, args...))
}

// Scheduler runs operations that are not concurrent on pools of goroutines,
// one pool per Class. Disk operations run one at a time. Memory operations
// are never held back by the other pools; they only yield once before
// running.
type Scheduler struct {
	pools    map[Class]*ants.Pool
	poolSize int
	logger   *slog.Logger
	released atomic.Bool
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler) error

// WithPoolSize sets the size of the pool for ClassNormal operations.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) SchedulerOption {
	return func(s *Scheduler) error {
		if size < 1 {
			size = 1
		}
		s.poolSize = size
		return nil
	}
}

// WithSchedulerLogger sets a custom logger.
// Default is slog.Default().
func WithSchedulerLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewScheduler creates a Scheduler.
func NewScheduler(opts ...SchedulerOption) (*Scheduler, error) {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	s := &Scheduler{
		pools:    make(map[Class]*ants.Pool),
		poolSize: poolSize,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	sizes := map[Class]int{
		ClassNormal:  s.poolSize,
		ClassDisk:    1,
		ClassNetwork: 0, // unlimited
		ClassMemory:  0,
	}
	for _, class := range []Class{ClassNormal, ClassDisk, ClassNetwork, ClassMemory} {
		pool, err := ants.NewPool(sizes[class],
			ants.WithLogger(&antsLoggerAdapter{logger: s.logger}),
			ants.WithPanicHandler(func(p any) {
				s.logger.Error("panic in scheduled operation", "class", class.String(), "panic", p)
			}),
		)
		if err != nil {
			s.Release()
			return nil, err
		}
		s.pools[class] = pool
	}
	return s, nil
}

var (
	defaultScheduler     *Scheduler
	defaultSchedulerOnce sync.Once
	defaultSchedulerErr  error
)

// DefaultScheduler returns a process wide scheduler, creating it on first
// use.
func DefaultScheduler() (*Scheduler, error) {
	defaultSchedulerOnce.Do(func() {
		defaultScheduler, defaultSchedulerErr = NewScheduler()
	})
	return defaultScheduler, defaultSchedulerErr
}

// Schedule queues op on the pool for its class. It never blocks; an
// operation that cannot be queued is finished with the error.
func (s *Scheduler) Schedule(op *SearchOperation) error {
	if s.released.Load() {
		return ErrSchedulerReleased
	}
	pool, ok := s.pools[op.Class()]
	if !ok {
		pool = s.pools[ClassNormal]
	}

	go func() {
		task := op.execute
		if op.Class() == ClassMemory {
			task = func() {
				runtime.Gosched()
				op.execute()
			}
		}
		if err := pool.Submit(task); err != nil {
			op.fail(fmt.Errorf("schedule %s operation: %w", op.Class(), err))
		}
	}()
	return nil
}

// Running returns the number of operations currently executing in class.
func (s *Scheduler) Running(class Class) int {
	if pool, ok := s.pools[class]; ok {
		return pool.Running()
	}
	return 0
}

// Release stops the pools. Operations already running finish; queued ones
// are finished with an error.
func (s *Scheduler) Release() {
	if !s.released.CompareAndSwap(false, true) {
		return
	}
	for _, pool := range s.pools {
		pool.Release()
	}
}
