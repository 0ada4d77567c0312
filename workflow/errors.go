package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrWorkflowTimeout indicates the run's deadline was exceeded.
	ErrWorkflowTimeout = errors.New("workflow: timeout exceeded")

	// ErrWorkflowCancelled indicates the run was cancelled.
	ErrWorkflowCancelled = errors.New("workflow: cancelled")

	// ErrUnknownVariant indicates a variant name outside the closed set.
	ErrUnknownVariant = errors.New("workflow: unknown variant")

	// ErrInvalidState indicates the initial state failed validation.
	ErrInvalidState = errors.New("workflow: invalid state")
)

// NodeFailure reports the node that sent a run down the error path.
type NodeFailure struct {
	Node    NodeID
	Message string
}

func (e *NodeFailure) Error() string {
	if e.Node == "" {
		return fmt.Sprintf("workflow: %s", e.Message)
	}
	return fmt.Sprintf("workflow: step %q failed: %s", e.Node, e.Message)
}
