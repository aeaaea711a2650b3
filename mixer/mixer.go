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


package mixer

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/poiesic/omnisearch/clock"
	"github.com/poiesic/omnisearch/core"
)

// DefaultBudget is how long Run mixes on the calling goroutine.
const DefaultBudget = 5 * time.Millisecond

// Steps between budget and cancellation checks.
const checkInterval = 32

// Stream is one source's results, sorted by descending effective rank.
type Stream struct {
	Source   string
	Priority int
	Results  core.Results
}

// Output is the result of a finished mix.
type Output struct {
	// Ranked holds the deduplicated results within the ceiling.
	Ranked core.Results
	// ByCategory groups Ranked by top-level type.
	ByCategory map[string]core.Results
	// More holds the results past the ceiling, not deduplicated.
	More core.Results
	// Total is len(Ranked) + len(More).
	Total int
	// Merged counts duplicates folded into Ranked.
	Merged int
}

// State is the lifecycle state of a Mixer.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateFinished
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFinished:
		return "finished"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Mixer merges a fixed set of streams once.
type Mixer struct {
	streams  []Stream
	ceiling  int
	clock    clock.Clock
	budget   time.Duration
	logger   *slog.Logger
	onFinish func(*Output)

	state     atomic.Int32
	cancelled atomic.Bool
	done      chan struct{}
	doneOnce  sync.Once
	output    atomic.Pointer[Output]
}

// Option configures a Mixer.
type Option func(*Mixer)

// WithClock sets the clock used to measure the inline budget.
func WithClock(c clock.Clock) Option {
	return func(m *Mixer) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithBudget sets how long Run mixes before moving to a background
// goroutine. A negative budget mixes entirely inline; zero mixes entirely in
// the background.
func WithBudget(d time.Duration) Option {
	return func(m *Mixer) {
		m.budget = d
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Mixer) {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
	}
}

// WithOnFinish registers a callback invoked with the output once the mix
// completes. It is not called when the mix is cancelled.
func WithOnFinish(f func(*Output)) Option {
	return func(m *Mixer) {
		m.onFinish = f
	}
}

// New creates a Mixer over streams. A negative ceiling deduplicates every
// result.
func New(streams []Stream, ceiling int, opts ...Option) *Mixer {
	if ceiling < 0 {
		ceiling = core.UnboundedResults
	}
	m := &Mixer{
		streams: streams,
		ceiling: ceiling,
		clock:   clock.Real(),
		budget:  DefaultBudget,
		logger:  slog.Default(),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mix merges streams synchronously.
func Mix(streams []Stream, ceiling int) *Output {
	m := New(streams, ceiling, WithBudget(-1))
	_ = m.Run()
	return m.Output()
}

// Run starts mixing. It returns once the mix has finished or the inline
// budget is spent, in which case the mix continues in the background.
// Running a cancelled Mixer does nothing.
func (m *Mixer) Run() error {
	if !m.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		if m.IsCancelled() {
			return nil
		}
		return ErrAlreadyStarted
	}

	mg := newMerger(m.streams, m.ceiling)
	start := m.clock.Now()
	if m.budget == 0 {
		go m.finish(mg, start)
		return nil
	}

	for steps := 0; !mg.done(); steps++ {
		if steps%checkInterval == 0 && steps > 0 {
			if m.cancelled.Load() {
				m.close(StateCancelled)
				return nil
			}
			if m.budget > 0 && clock.Since(m.clock, start) >= m.budget {
				m.logger.Debug("mix budget spent, continuing in background",
					"streams", len(m.streams), "emitted", len(mg.ranked)+len(mg.more))
				go m.finish(mg, start)
				return nil
			}
		}
		mg.step()
	}
	m.complete(mg, start)
	return nil
}

func (m *Mixer) finish(mg *merger, start time.Time) {
	for steps := 0; !mg.done(); steps++ {
		if steps%checkInterval == 0 && m.cancelled.Load() {
			m.close(StateCancelled)
			return
		}
		mg.step()
	}
	m.complete(mg, start)
}

func (m *Mixer) complete(mg *merger, start time.Time) {
	if m.cancelled.Load() {
		m.close(StateCancelled)
		return
	}
	out := mg.output()
	m.output.Store(out)
	m.logger.Debug("mix finished",
		"ranked", len(out.Ranked),
		"total", out.Total,
		"merged", out.Merged,
		"elapsed", clock.Since(m.clock, start))
	if m.close(StateFinished) && m.onFinish != nil {
		m.onFinish(out)
	}
}

// close moves to a terminal state once. It reports whether this call did.
func (m *Mixer) close(state State) bool {
	closed := false
	m.doneOnce.Do(func() {
		m.state.Store(int32(state))
		close(m.done)
		closed = true
	})
	return closed
}

// Cancel stops the mix promptly. The Mixer ends cancelled without output.
// Cancelling a finished Mixer has no effect.
func (m *Mixer) Cancel() {
	m.cancelled.Store(true)
	if m.state.CompareAndSwap(int32(StateIdle), int32(StateCancelled)) {
		m.close(StateCancelled)
	}
}

// Done is closed once the Mixer is finished or cancelled.
func (m *Mixer) Done() <-chan struct{} { return m.done }

// Output returns the mix result, or nil until the Mixer has finished.
func (m *Mixer) Output() *Output { return m.output.Load() }

// State returns the current state.
func (m *Mixer) State() State { return State(m.state.Load()) }

// IsFinished reports whether the mix completed.
func (m *Mixer) IsFinished() bool { return m.State() == StateFinished }

// IsCancelled reports whether the mix was cancelled.
func (m *Mixer) IsCancelled() bool { return m.State() == StateCancelled }
