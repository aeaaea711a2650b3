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

	"github.com/poiesic/omnisearch/core"
)

// Class groups operations by the resource they mostly wait on.
type Class int

const (
	// ClassNormal operations share a bounded pool.
	ClassNormal Class = iota
	// ClassDisk operations run one at a time.
	ClassDisk
	// ClassNetwork operations run without limit.
	ClassNetwork
	// ClassMemory operations run without limit on their own pool. Each
	// yields the processor once before starting; goroutines have no
	// stronger priority than that.
	ClassMemory
)

func (c Class) String() string {
	switch c {
	case ClassNormal:
		return "normal"
	case ClassDisk:
		return "disk"
	case ClassNetwork:
		return "network"
	case ClassMemory:
		return "memory"
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// OperationState is the lifecycle state of a SearchOperation.
type OperationState int

const (
	OperationCreated OperationState = iota
	OperationRunning
	OperationFinished
	OperationCancelled
)

func (s OperationState) String() string {
	switch s {
	case OperationCreated:
		return "created"
	case OperationRunning:
		return "running"
	case OperationFinished:
		return "finished"
	case OperationCancelled:
		return "cancelled"
	}
	return "unknown"
}

// RunFunc performs a source's matching for one query. It reports results
// through op.SetResults or op.AddResults and should return promptly once
// ctx is done.
//
// For an operation that is not concurrent the operation finishes when
// RunFunc returns. A concurrent operation keeps running after RunFunc
// returns nil and must eventually call op.FinishQuery.
type RunFunc func(ctx context.Context, op *SearchOperation) error

// Observer is notified about operation progress. Callbacks run on the
// goroutine that changed the operation.
type Observer interface {
	OperationUpdated(op *SearchOperation)
	OperationFinished(op *SearchOperation)
}

// OperationOption configures a SearchOperation.
type OperationOption func(*SearchOperation)

// WithConcurrent marks the operation as managing its own goroutines.
func WithConcurrent(concurrent bool) OperationOption {
	return func(op *SearchOperation) {
		op.concurrent = concurrent
	}
}

// WithClass sets the scheduling class.
func WithClass(class Class) OperationOption {
	return func(op *SearchOperation) {
		op.class = class
	}
}

// SearchOperation is one source's execution of one query.
type SearchOperation struct {
	query      *core.Query
	source     Source
	run        RunFunc
	concurrent bool
	class      Class

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	state     OperationState
	results   core.Results
	err       error
	observers []Observer
	logger    *slog.Logger
	monitor   Monitor
}

// NewSearchOperation creates an operation running run for q on behalf of src.
func NewSearchOperation(q *core.Query, src Source, run RunFunc, opts ...OperationOption) *SearchOperation {
	ctx, cancel := context.WithCancel(context.Background())
	op := &SearchOperation{
		query:   q,
		source:  src,
		run:     run,
		ctx:     ctx,
		cancel:  cancel,
		logger:  slog.Default(),
		monitor: &noopMonitor{},
	}
	for _, opt := range opts {
		opt(op)
	}
	return op
}

// Query returns the query being run.
func (op *SearchOperation) Query() *core.Query { return op.query }

// Source returns the source running the query.
func (op *SearchOperation) Source() Source { return op.source }

// Name returns the source's display name.
func (op *SearchOperation) Name() string {
	if op.source == nil {
		return ""
	}
	return op.source.DisplayName()
}

// IsConcurrent reports whether the operation manages its own goroutines.
func (op *SearchOperation) IsConcurrent() bool { return op.concurrent }

// Class returns the scheduling class.
func (op *SearchOperation) Class() Class { return op.class }

// Context is done once the operation is cancelled.
func (op *SearchOperation) Context() context.Context { return op.ctx }

// State returns the lifecycle state.
func (op *SearchOperation) State() OperationState {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.state
}

// IsFinished reports whether the operation finished normally.
func (op *SearchOperation) IsFinished() bool { return op.State() == OperationFinished }

// IsCancelled reports whether the operation was cancelled.
func (op *SearchOperation) IsCancelled() bool { return op.State() == OperationCancelled }

// IsDone reports whether the operation finished or was cancelled.
func (op *SearchOperation) IsDone() bool {
	s := op.State()
	return s == OperationFinished || s == OperationCancelled
}

// Err returns the error the run function failed with, if any.
func (op *SearchOperation) Err() error {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.err
}

// Results returns the results published so far, sorted by descending
// effective rank.
func (op *SearchOperation) Results() core.Results {
	op.mu.Lock()
	defer op.mu.Unlock()
	return slices.Clone(op.results)
}

// AddObserver registers o. An observer added after the operation is done
// is told so immediately.
func (op *SearchOperation) AddObserver(o Observer) {
	op.mu.Lock()
	done := op.state == OperationFinished || op.state == OperationCancelled
	if !done {
		op.observers = append(op.observers, o)
	}
	op.mu.Unlock()
	if done {
		o.OperationFinished(op)
	}
}

// bind attaches the controller's logging and monitoring.
func (op *SearchOperation) bind(logger *slog.Logger, monitor Monitor) {
	op.mu.Lock()
	defer op.mu.Unlock()
	op.logger = logger
	op.monitor = monitor
}

// SetResults replaces the published results.
func (op *SearchOperation) SetResults(results core.Results) error {
	return op.publish(results, false)
}

// AddResults appends to the published results.
func (op *SearchOperation) AddResults(results core.Results) error {
	return op.publish(results, true)
}

func (op *SearchOperation) publish(results core.Results, appendResults bool) error {
	op.mu.Lock()
	switch op.state {
	case OperationFinished:
		op.mu.Unlock()
		op.logger.Error("results published after finish", "source", op.Name())
		return ErrOperationFinished
	case OperationCancelled:
		op.mu.Unlock()
		return ErrOperationCancelled
	}

	var next core.Results
	if appendResults {
		next = make(core.Results, 0, len(op.results)+len(results))
		next = append(next, op.results...)
	}
	for _, r := range results {
		if r != nil {
			next = append(next, r)
		}
	}
	next.SortByRank()
	op.results = next
	count := len(next)
	monitor := op.monitor
	observers := slices.Clone(op.observers)
	op.mu.Unlock()

	monitor.OperationUpdated(op, count)
	for _, o := range observers {
		o.OperationUpdated(op)
	}
	return nil
}

// FinishQuery marks the operation finished. It must be called exactly once
// by concurrent operations; a second call returns ErrOperationFinished.
// Finishing a cancelled operation does nothing.
func (op *SearchOperation) FinishQuery() error {
	op.mu.Lock()
	switch op.state {
	case OperationFinished:
		op.mu.Unlock()
		op.logger.Warn("search operation finished twice", "source", op.Name())
		return ErrOperationFinished
	case OperationCancelled:
		op.mu.Unlock()
		return nil
	}
	op.state = OperationFinished
	monitor := op.monitor
	observers := op.observers
	op.observers = nil
	op.mu.Unlock()

	op.cancel()
	monitor.OperationFinished(op)
	for _, o := range observers {
		o.OperationFinished(op)
	}
	return nil
}

// Cancel stops the operation. It is safe to call repeatedly and after the
// operation has finished.
func (op *SearchOperation) Cancel() {
	op.mu.Lock()
	if op.state == OperationFinished || op.state == OperationCancelled {
		op.mu.Unlock()
		return
	}
	op.state = OperationCancelled
	monitor := op.monitor
	observers := op.observers
	op.observers = nil
	op.mu.Unlock()

	op.cancel()
	monitor.OperationCancelled(op)
	for _, o := range observers {
		o.OperationFinished(op)
	}
}

func (op *SearchOperation) markRunning() bool {
	op.mu.Lock()
	defer op.mu.Unlock()
	if op.state != OperationCreated {
		return false
	}
	op.state = OperationRunning
	return true
}

// execute runs the operation on the current goroutine. A failing or
// panicking run function finishes the operation with whatever it had
// published.
func (op *SearchOperation) execute() {
	if !op.markRunning() {
		return
	}
	op.mu.Lock()
	monitor, logger := op.monitor, op.logger
	op.mu.Unlock()

	monitor.OperationStarted(op)
	err := op.invoke()
	if err != nil && op.ctx.Err() == nil {
		op.mu.Lock()
		op.err = err
		op.mu.Unlock()
		logger.Warn("search operation failed", "source", op.Name(), "err", err)
		monitor.OperationFailed(op, err)
	}
	if !op.concurrent || err != nil {
		if op.State() == OperationRunning {
			_ = op.FinishQuery()
		}
	}
}

// fail finishes an operation that could not be started.
func (op *SearchOperation) fail(err error) {
	op.mu.Lock()
	if op.state != OperationCreated {
		op.mu.Unlock()
		return
	}
	op.state = OperationRunning
	op.err = err
	monitor, logger := op.monitor, op.logger
	op.mu.Unlock()

	logger.Error("search operation could not be started", "source", op.Name(), "err", err)
	monitor.OperationFailed(op, err)
	_ = op.FinishQuery()
}

func (op *SearchOperation) invoke() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSourcePanicked, r)
		}
	}()
	if op.run == nil {
		return nil
	}
	return op.run(op.ctx, op)
}
