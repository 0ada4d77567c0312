package agui

import (
	"context"
	"errors"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	"github.com/spetersoncode/almond/workflow"
)

// Mapper converts workflow events to AG-UI events.
//
// Create a new Mapper for each run using NewMapper. The Mapper is not
// safe for concurrent use - each goroutine should have its own Mapper.
type Mapper struct {
	threadID string
	runID    string
}

// NewMapper creates a new Mapper for a single run.
// The threadID and runID are used in lifecycle events (RUN_STARTED, RUN_FINISHED).
func NewMapper(threadID, runID string) *Mapper {
	if threadID == "" {
		threadID = events.GenerateThreadID()
	}
	if runID == "" {
		runID = events.GenerateRunID()
	}
	return &Mapper{
		threadID: threadID,
		runID:    runID,
	}
}

// ThreadID returns the thread ID for this mapper.
func (m *Mapper) ThreadID() string {
	return m.threadID
}

// RunID returns the run ID for this mapper.
func (m *Mapper) RunID() string {
	return m.runID
}

// RunStarted returns a RUN_STARTED event.
func (m *Mapper) RunStarted() events.Event {
	return events.NewRunStartedEvent(m.threadID, m.runID)
}

// RunFinished returns a RUN_FINISHED event.
func (m *Mapper) RunFinished() events.Event {
	return events.NewRunFinishedEvent(m.threadID, m.runID)
}

// RunError returns a RUN_ERROR event.
func (m *Mapper) RunError(err error) events.Event {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return events.NewRunErrorEvent(msg)
}

// MapEvent converts a workflow event to AG-UI events.
//
//   - run_start: RUN_STARTED
//   - node_start: STEP_STARTED
//   - node_complete: STEP_FINISHED, STATE_SNAPSHOT
//   - run_end: MESSAGES_SNAPSHOT, then RUN_FINISHED or RUN_ERROR
func (m *Mapper) MapEvent(e workflow.Event) []events.Event {
	switch e.Type {
	case workflow.EventRunStart:
		return []events.Event{m.RunStarted()}

	case workflow.EventNodeStart:
		return []events.Event{events.NewStepStartedEvent(string(e.Node))}

	case workflow.EventNodeComplete:
		out := []events.Event{events.NewStepFinishedEvent(string(e.Node))}
		if e.State != nil {
			out = append(out, events.NewStateSnapshotEvent(*e.State))
		}
		return out

	case workflow.EventRunEnd:
		var out []events.Event
		if e.State != nil && len(e.State.Messages) > 0 {
			out = append(out, events.NewMessagesSnapshotEvent(FromLog(e.State.Messages)))
		}
		if err := runError(e); err != nil {
			return append(out, m.RunError(err))
		}
		return append(out, m.RunFinished())
	}
	return nil
}

// runError reports why a run did not complete normally. A run that ended on
// the error path is a protocol-level error even though its state is valid.
func runError(e workflow.Event) error {
	switch e.Termination {
	case workflow.TerminationComplete:
		return nil
	case workflow.TerminationCancelled:
		return workflow.ErrWorkflowCancelled
	case workflow.TerminationTimeout:
		return workflow.ErrWorkflowTimeout
	}
	if e.State != nil && e.State.ErrorMessage != nil {
		return errors.New(*e.State.ErrorMessage)
	}
	return errors.New("workflow failed")
}

// MapStream converts a workflow event stream. The returned channel closes
// after the input closes or ctx is cancelled. A ctx deadline does not stop
// the mapping: the workflow still reports how the run ended.
func (m *Mapper) MapStream(ctx context.Context, in <-chan workflow.Event) <-chan events.Event {
	out := make(chan events.Event)
	go func() {
		defer close(out)
		for e := range in {
			for _, ev := range m.MapEvent(e) {
				select {
				case out <- ev:
					continue
				case <-ctx.Done():
					if errors.Is(ctx.Err(), context.Canceled) {
						return
					}
				}
				out <- ev
			}
		}
	}()
	return out
}
