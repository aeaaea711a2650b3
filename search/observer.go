package search

import (
	"context"
	"sync"
)

// BlockingObserver lets a caller wait on a single operation.
type BlockingObserver struct {
	updates  chan struct{}
	finished chan struct{}
	once     sync.Once
}

// NewBlockingObserver creates an observer and registers it with op.
func NewBlockingObserver(op *SearchOperation) *BlockingObserver {
	o := &BlockingObserver{
		updates:  make(chan struct{}, 1),
		finished: make(chan struct{}),
	}
	op.AddObserver(o)
	return o
}

// OperationUpdated implements Observer.
func (o *BlockingObserver) OperationUpdated(_ *SearchOperation) {
	select {
	case o.updates <- struct{}{}:
	default:
	}
}

// OperationFinished implements Observer.
func (o *BlockingObserver) OperationFinished(_ *SearchOperation) {
	o.once.Do(func() { close(o.finished) })
}

// WaitUpdate blocks until the operation publishes results or finishes.
func (o *BlockingObserver) WaitUpdate(ctx context.Context) error {
	select {
	case <-o.updates:
		return nil
	case <-o.finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitFinished blocks until the operation finishes or is cancelled.
func (o *BlockingObserver) WaitFinished(ctx context.Context) error {
	select {
	case <-o.finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
