package workflow

import (
	"time"
)

// EventType identifies the kind of workflow event.
type EventType string

const (
	// EventRunStart fires once before the first node runs.
	EventRunStart EventType = "run_start"

	// EventNodeStart fires before a node executes.
	EventNodeStart EventType = "node_start"

	// EventNodeComplete fires after a node's update has been merged.
	EventNodeComplete EventType = "node_complete"

	// EventRunEnd fires once with the terminal state.
	EventRunEnd EventType = "run_end"
)

// Event represents an observable occurrence during a streamed run.
type Event struct {
	// Type identifies the kind of event.
	Type EventType `json:"type"`

	// RunID correlates the events of one run.
	RunID string `json:"runId"`

	// Variant is the workflow being run.
	Variant Variant `json:"variant"`

	// Node is set for node events.
	Node NodeID `json:"node,omitempty"`

	// Update is the partial update produced by the node (EventNodeComplete).
	Update *Update `json:"update,omitempty"`

	// State is the merged state after the node (EventNodeComplete) or the
	// terminal state (EventRunEnd).
	State *State `json:"state,omitempty"`

	// Duration is the node's execution time (EventNodeComplete).
	Duration time.Duration `json:"durationNs,omitempty"`

	// Termination is set on EventRunEnd.
	Termination TerminationReason `json:"termination,omitempty"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`
}

// NodeEvent describes one completed node execution. It is passed to
// hooks registered with WithOnNodeComplete.
type NodeEvent struct {
	RunID    string
	Variant  Variant
	Node     NodeID
	Duration time.Duration
	Update   Update
	Failed   bool
}
