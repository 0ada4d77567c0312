package agui

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spetersoncode/almond/workflow"
)

// RunWorkflowInput is the AG-UI request for running a workflow. State
// carries the workflow request body.
type RunWorkflowInput struct {
	ThreadID       string          `json:"thread_id"`
	RunID          string          `json:"run_id"`
	State          json.RawMessage `json:"state"`
	ForwardedProps any             `json:"forwarded_props,omitempty"`
}

// PreparedWorkflowInput contains validated workflow input ready for execution.
type PreparedWorkflowInput struct {
	ThreadID string
	RunID    string
	Variant  workflow.Variant
	State    json.RawMessage
}

// ErrNoState is returned when the input carries no request state.
var ErrNoState = errors.New("no state provided")

// Prepare validates the input for the named workflow variant.
func (r *RunWorkflowInput) Prepare(variant string) (*PreparedWorkflowInput, error) {
	v, err := workflow.ParseVariant(variant)
	if err != nil {
		return nil, err
	}
	if len(r.State) == 0 || string(r.State) == "null" {
		return nil, ErrNoState
	}
	return &PreparedWorkflowInput{
		ThreadID: r.ThreadID,
		RunID:    r.RunID,
		Variant:  v,
		State:    r.State,
	}, nil
}

// DecodeState unmarshals the request state into v.
func (p *PreparedWorkflowInput) DecodeState(v any) error {
	if err := json.Unmarshal(p.State, v); err != nil {
		return fmt.Errorf("agui: decode state: %w", err)
	}
	return nil
}
