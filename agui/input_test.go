package agui

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/spetersoncode/almond/workflow"
)

func TestRunWorkflowInput_Prepare(t *testing.T) {
	t.Run("valid input", func(t *testing.T) {
		var in RunWorkflowInput
		body := `{"thread_id":"t-1","run_id":"r-1","state":{"title":"Buy milk"}}`
		if err := json.Unmarshal([]byte(body), &in); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		p, err := in.Prepare("Evolution")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Variant != workflow.VariantEvolution {
			t.Errorf("expected evolution, got %q", p.Variant)
		}
		if p.ThreadID != "t-1" || p.RunID != "r-1" {
			t.Errorf("ids not carried over: %q %q", p.ThreadID, p.RunID)
		}

		var dst struct {
			Title string `json:"title"`
		}
		if err := p.DecodeState(&dst); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if dst.Title != "Buy milk" {
			t.Errorf("expected title 'Buy milk', got %q", dst.Title)
		}
	})

	t.Run("unknown variant", func(t *testing.T) {
		in := RunWorkflowInput{State: json.RawMessage(`{}`)}
		_, err := in.Prepare("lifecycle")
		if !errors.Is(err, workflow.ErrUnknownVariant) {
			t.Errorf("expected ErrUnknownVariant, got %v", err)
		}
	})

	t.Run("missing state", func(t *testing.T) {
		for _, raw := range []json.RawMessage{nil, json.RawMessage("null")} {
			in := RunWorkflowInput{State: raw}
			if _, err := in.Prepare("retrospect"); !errors.Is(err, ErrNoState) {
				t.Errorf("expected ErrNoState for %q, got %v", raw, err)
			}
		}
	})

	t.Run("state of the wrong shape", func(t *testing.T) {
		in := RunWorkflowInput{State: json.RawMessage(`[1,2]`)}
		p, err := in.Prepare("classification")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var dst struct{ Title string }
		if err := p.DecodeState(&dst); err == nil {
			t.Error("expected decode error")
		}
	})
}

func TestFromLog(t *testing.T) {
	msgs := FromLog([]workflow.LogEntry{
		{Role: workflow.LogHuman, Text: "understand: Buy milk"},
		{Role: workflow.LogAI, Text: "initial judgment: action"},
	})
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[1].Role != RoleAssistant {
		t.Errorf("unexpected roles %q, %q", msgs[0].Role, msgs[1].Role)
	}
	if msgs[1].Content == nil || *msgs[1].Content != "initial judgment: action" {
		t.Errorf("content not carried over: %v", msgs[1].Content)
	}
	if msgs[0].ID == "" || msgs[0].ID == msgs[1].ID {
		t.Errorf("expected distinct message IDs, got %q and %q", msgs[0].ID, msgs[1].ID)
	}
}
