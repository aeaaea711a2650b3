package search

import "github.com/poiesic/omnisearch/core"

// Monitor provides hooks to observe query execution.
// Implement this interface to log or measure the pipeline.
type Monitor interface {
	QueryStarted(controllerID string, query *core.Query, operations int)
	OperationStarted(op *SearchOperation)
	OperationUpdated(op *SearchOperation, count int)
	OperationFinished(op *SearchOperation)
	OperationCancelled(op *SearchOperation)
	OperationFailed(op *SearchOperation, err error)
	MixFinished(controllerID string, snapshot *Snapshot)
	QueryFinished(controllerID string, snapshot *Snapshot)
	QueryCancelled(controllerID string)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) QueryStarted(_ string, _ *core.Query, _ int) {}
func (n *noopMonitor) OperationStarted(_ *SearchOperation)         {}
func (n *noopMonitor) OperationUpdated(_ *SearchOperation, _ int)  {}
func (n *noopMonitor) OperationFinished(_ *SearchOperation)        {}
func (n *noopMonitor) OperationCancelled(_ *SearchOperation)       {}
func (n *noopMonitor) OperationFailed(_ *SearchOperation, _ error) {}
func (n *noopMonitor) MixFinished(_ string, _ *Snapshot)           {}
func (n *noopMonitor) QueryFinished(_ string, _ *Snapshot)         {}
func (n *noopMonitor) QueryCancelled(_ string)                     {}
