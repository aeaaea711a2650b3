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


package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/omnisearch/clock"
	"github.com/poiesic/omnisearch/core"
	"github.com/poiesic/omnisearch/mixer"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// DefaultSlowSourceTimeout is how long a controller waits for every
	// source before publishing partial results.
	DefaultSlowSourceTimeout = 250 * time.Millisecond

	// DefaultMinMixInterval is the shortest gap between two mixes started
	// by source updates.
	DefaultMinMixInterval = 100 * time.Millisecond

	// DefaultAnnotationLimit is how many top results are annotated.
	DefaultAnnotationLimit = 10

	defaultAnnotationWorkers = 4
)

// State is the lifecycle state of a Controller.
type State int

const (
	StateIdle State = iota
	StateQuerying
	StateMixing
	StateFinished
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateQuerying:
		return "querying"
	case StateMixing:
		return "mixing"
	case StateFinished:
		return "finished"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Controller runs one query against a set of sources.
type Controller struct {
	id                string
	query             *core.Query
	sources           []Source
	scheduler         *Scheduler
	clock             clock.Clock
	logger            *slog.Logger
	monitor           Monitor
	slowSourceTimeout time.Duration
	mixBudget         time.Duration
	minMixInterval    time.Duration
	annotationLimit   int
	annotationWorkers int

	ctx       context.Context
	cancelCtx context.CancelFunc

	mu           sync.Mutex
	state        State
	started      bool
	cancelled    bool
	ops          []*SearchOperation
	pending      map[*SearchOperation]struct{}
	mixer        *mixer.Mixer
	remixNeeded  bool
	slowFired    bool
	slowTimer    clock.Timer
	trailing     clock.Timer
	limiter      *rate.Limiter
	generation   uint64
	stopParent   func() bool
	done         chan struct{}
	doneOnce     sync.Once
	snapshot     atomic.Pointer[Snapshot]
	annotationMu sync.Mutex
	annotations  map[string]core.Attributes
}

// Option configures a Controller.
type Option func(*Controller) error

// WithScheduler sets the scheduler for operations that are not concurrent.
// Default is DefaultScheduler().
func WithScheduler(s *Scheduler) Option {
	return func(c *Controller) error {
		c.scheduler = s
		return nil
	}
}

// WithClock sets the clock driving the slow source and rate limit timers.
func WithClock(clk clock.Clock) Option {
	return func(c *Controller) error {
		if clk != nil {
			c.clock = clk
		}
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithMonitor sets a monitor receiving progress callbacks.
func WithMonitor(m Monitor) Option {
	return func(c *Controller) error {
		if m == nil {
			m = &noopMonitor{}
		}
		c.monitor = m
		return nil
	}
}

// WithSlowSourceTimeout sets how long to wait for every source before
// publishing partial results.
func WithSlowSourceTimeout(d time.Duration) Option {
	return func(c *Controller) error {
		c.slowSourceTimeout = d
		return nil
	}
}

// WithMixBudget sets how long each mix runs inline before continuing in the
// background.
func WithMixBudget(d time.Duration) Option {
	return func(c *Controller) error {
		c.mixBudget = d
		return nil
	}
}

// WithMinMixInterval sets the shortest gap between mixes triggered by
// updates after the slow source timeout. Zero disables rate limiting.
func WithMinMixInterval(d time.Duration) Option {
	return func(c *Controller) error {
		c.minMixInterval = d
		return nil
	}
}

// WithAnnotationLimit sets how many top results are passed to the sources'
// Annotate hooks. Zero disables annotation.
func WithAnnotationLimit(n int) Option {
	return func(c *Controller) error {
		c.annotationLimit = max(n, 0)
		return nil
	}
}

// WithAnnotationWorkers bounds how many results are annotated at once.
func WithAnnotationWorkers(n int) Option {
	return func(c *Controller) error {
		if n < 1 {
			return fmt.Errorf("annotation workers must be positive, got %d", n)
		}
		c.annotationWorkers = n
		return nil
	}
}

// NewController creates a controller for q over sources.
func NewController(q *core.Query, sources []Source, opts ...Option) (*Controller, error) {
	if q == nil {
		return nil, ErrNilQuery
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		id:                uuid.NewString(),
		query:             q,
		sources:           slices.DeleteFunc(slices.Clone(sources), func(s Source) bool { return s == nil }),
		clock:             clock.Real(),
		logger:            slog.Default(),
		monitor:           &noopMonitor{},
		slowSourceTimeout: DefaultSlowSourceTimeout,
		mixBudget:         mixer.DefaultBudget,
		minMixInterval:    DefaultMinMixInterval,
		annotationLimit:   DefaultAnnotationLimit,
		annotationWorkers: defaultAnnotationWorkers,
		ctx:               ctx,
		cancelCtx:         cancel,
		pending:           make(map[*SearchOperation]struct{}),
		done:              make(chan struct{}),
		annotations:       make(map[string]core.Attributes),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			cancel()
			return nil, err
		}
	}
	if c.scheduler == nil {
		s, err := DefaultScheduler()
		if err != nil {
			cancel()
			return nil, err
		}
		c.scheduler = s
	}
	if c.minMixInterval > 0 {
		c.limiter = rate.NewLimiter(rate.Every(c.minMixInterval), 1)
	}
	c.logger = c.logger.With("controller", c.id)
	c.snapshot.Store(emptySnapshot)
	return c, nil
}

// ID identifies the controller in logs.
func (c *Controller) ID() string { return c.id }

// Query returns the query being run.
func (c *Controller) Query() *core.Query { return c.query }

// StartQuery creates an operation for every eligible source and starts
// them. Cancelling ctx cancels the controller. Calling it twice returns
// ErrAlreadyStarted.
func (c *Controller) StartQuery(ctx context.Context) error {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		c.logger.Error("query started twice")
		return ErrAlreadyStarted
	}
	c.started = true
	if c.cancelled {
		c.mu.Unlock()
		return nil
	}
	c.state = StateQuerying

	for _, src := range c.sources {
		if !IsEligible(src, c.query) {
			continue
		}
		op := src.SearchOperationForQuery(c.query)
		if op == nil {
			continue
		}
		op.bind(c.logger, c.monitor)
		c.ops = append(c.ops, op)
		c.pending[op] = struct{}{}
	}
	ops := slices.Clone(c.ops)

	if len(ops) == 0 {
		c.generation++
		snap := &Snapshot{ByCategory: map[string]core.Results{}, Generation: c.generation, Final: true}
		c.snapshot.Store(snap)
		c.state = StateFinished
		c.mu.Unlock()
		c.logger.Debug("no eligible sources", "query", c.query.Raw())
		c.monitor.QueryStarted(c.id, c.query, 0)
		c.closeDone()
		c.monitor.QueryFinished(c.id, snap)
		return nil
	}

	c.slowTimer = c.clock.AfterFunc(c.slowSourceTimeout, c.slowSourceTimedOut)
	if ctx != nil {
		c.stopParent = context.AfterFunc(ctx, c.Cancel)
	}
	c.mu.Unlock()

	c.logger.Debug("starting query", "query", c.query.Raw(), "operations", len(ops))
	c.monitor.QueryStarted(c.id, c.query, len(ops))

	for _, op := range ops {
		op.AddObserver(c)
	}
	for _, op := range ops {
		if op.IsConcurrent() {
			go op.execute()
			continue
		}
		if err := c.scheduler.Schedule(op); err != nil {
			op.fail(err)
		}
	}
	return nil
}

// OperationUpdated implements Observer.
func (c *Controller) OperationUpdated(_ *SearchOperation) {
	c.requestMix(false)
}

// OperationFinished implements Observer.
func (c *Controller) OperationFinished(op *SearchOperation) {
	c.mu.Lock()
	delete(c.pending, op)
	c.mu.Unlock()
	c.requestMix(false)
}

func (c *Controller) slowSourceTimedOut() {
	c.mu.Lock()
	c.slowFired = true
	pending := len(c.pending)
	c.mu.Unlock()
	if pending > 0 {
		c.logger.Debug("slow source timeout, publishing partial results", "pending", pending)
	}
	c.requestMix(true)
}

func (c *Controller) trailingMix() {
	c.mu.Lock()
	c.trailing = nil
	c.mu.Unlock()
	c.requestMix(true)
}

// requestMix starts a mix if one is due. force skips the rate limit.
func (c *Controller) requestMix(force bool) {
	c.mu.Lock()
	if c.cancelled || c.state == StateFinished || !c.started {
		c.mu.Unlock()
		return
	}
	allDone := len(c.pending) == 0
	if !allDone && !c.slowFired {
		c.mu.Unlock()
		return
	}
	if c.mixer != nil {
		c.remixNeeded = true
		c.mu.Unlock()
		return
	}
	if !allDone && c.limiter != nil {
		allowed := c.limiter.AllowN(c.clock.Now(), 1)
		if !allowed && !force {
			if c.trailing == nil {
				c.trailing = c.clock.AfterFunc(c.minMixInterval, c.trailingMix)
			}
			c.mu.Unlock()
			return
		}
	}

	streams := make([]mixer.Stream, 0, len(c.ops))
	for _, op := range c.ops {
		streams = append(streams, mixer.Stream{
			Source:   op.Name(),
			Priority: priorityOf(op.Source()),
			Results:  op.Results(),
		})
	}
	final := allDone
	var m *mixer.Mixer
	m = mixer.New(streams, c.query.MaxDesiredResults(),
		mixer.WithClock(c.clock),
		mixer.WithBudget(c.mixBudget),
		mixer.WithLogger(c.logger),
		mixer.WithOnFinish(func(out *mixer.Output) { c.mixFinished(m, out, final) }),
	)
	c.mixer = m
	c.remixNeeded = false
	c.state = StateMixing
	c.mu.Unlock()

	if err := m.Run(); err != nil {
		c.logger.Error("mixer failed to start", "err", err)
	}
}

func (c *Controller) mixFinished(m *mixer.Mixer, out *mixer.Output, final bool) {
	ranked := c.annotate(out.Ranked)

	c.mu.Lock()
	if c.cancelled || c.mixer != m {
		c.mu.Unlock()
		return
	}
	c.mixer = nil
	c.generation++
	snap := &Snapshot{
		Ranked:     ranked,
		ByCategory: ranked.ByCategory(),
		More:       len(out.More),
		Total:      out.Total,
		Generation: c.generation,
		Final:      final,
	}
	c.snapshot.Store(snap)
	remix := c.remixNeeded
	c.remixNeeded = false
	if final {
		c.state = StateFinished
		c.stopTimersLocked()
	} else {
		c.state = StateQuerying
	}
	c.mu.Unlock()

	c.monitor.MixFinished(c.id, snap)
	if final {
		c.logger.Debug("query finished", "results", len(snap.Ranked), "total", snap.Total)
		c.closeDone()
		c.monitor.QueryFinished(c.id, snap)
		return
	}
	if remix {
		c.requestMix(false)
	}
}

// annotate passes the top results through every source's Annotate hook.
// Each source annotates a given item once per controller.
func (c *Controller) annotate(ranked core.Results) core.Results {
	n := min(len(ranked), c.annotationLimit)
	if n == 0 {
		return ranked
	}
	out := slices.Clone(ranked)

	g, ctx := errgroup.WithContext(c.ctx)
	g.SetLimit(c.annotationWorkers)
	for i := range n {
		g.Go(func() error {
			r := out[i]
			for _, src := range c.sources {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				key := src.Identifier() + "\x00" + r.NormalizedIdentifier()
				c.annotationMu.Lock()
				attrs, seen := c.annotations[key]
				c.annotationMu.Unlock()
				if !seen {
					attrs = src.Annotate(ctx, r, c.query)
					c.annotationMu.Lock()
					c.annotations[key] = attrs
					c.annotationMu.Unlock()
				}
				r = r.WithAttributes(attrs)
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		c.logger.Debug("annotation interrupted", "err", err)
	}
	return out
}

func (c *Controller) stopTimersLocked() {
	if c.slowTimer != nil {
		c.slowTimer.Stop()
	}
	if c.trailing != nil {
		c.trailing.Stop()
		c.trailing = nil
	}
	if c.stopParent != nil {
		c.stopParent()
	}
}

func (c *Controller) closeDone() {
	c.doneOnce.Do(func() { close(c.done) })
}

// Cancel stops the query. Every pending operation and the active mix are
// cancelled and no further snapshot is published. It is idempotent.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if c.cancelled {
		c.mu.Unlock()
		return
	}
	c.cancelled = true
	c.state = StateCancelled
	c.stopTimersLocked()
	ops := slices.Clone(c.ops)
	m := c.mixer
	c.mixer = nil
	c.mu.Unlock()

	for _, op := range ops {
		op.Cancel()
	}
	if m != nil {
		m.Cancel()
	}
	c.cancelCtx()
	c.closeDone()
	c.logger.Debug("query cancelled")
	c.monitor.QueryCancelled(c.id)
}

// IsCancelled reports whether Cancel was called.
func (c *Controller) IsCancelled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancelled
}

// State returns the lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// QueriesFinished reports whether every operation has finished.
func (c *Controller) QueriesFinished() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started && len(c.pending) == 0
}

// PendingQueryNames returns the names of the sources still running, sorted.
func (c *Controller) PendingQueryNames() []string {
	c.mu.Lock()
	names := make([]string, 0, len(c.pending))
	for op := range c.pending {
		names = append(names, op.Name())
	}
	c.mu.Unlock()
	slices.Sort(names)
	return names
}

// Operations returns the operations created by StartQuery.
func (c *Controller) Operations() []*SearchOperation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.ops)
}

// Snapshot returns the most recently published mix.
func (c *Controller) Snapshot() *Snapshot { return c.snapshot.Load() }

// RankedResults returns the ranked results of the latest mix.
func (c *Controller) RankedResults() core.Results {
	return c.Snapshot().RankedResults()
}

// RankedResultsByCategory returns the latest mix grouped by top-level type.
func (c *Controller) RankedResultsByCategory() map[string]core.Results {
	return c.Snapshot().RankedResultsByCategory()
}

// Results returns the unmixed results of every operation.
func (c *Controller) Results() core.Results {
	var out core.Results
	for _, op := range c.Operations() {
		out = append(out, op.Results()...)
	}
	return out
}

// HasAnyRealResults reports whether any operation has produced a result
// other than a suggestion.
func (c *Controller) HasAnyRealResults() bool {
	for _, r := range c.Results() {
		if !r.ConformsToType(core.TypeSuggest) {
			return true
		}
	}
	return false
}

// Done is closed when the final snapshot is published or the controller is
// cancelled.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Wait blocks until Done is closed or ctx is done.
func (c *Controller) Wait(ctx context.Context) error {
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
