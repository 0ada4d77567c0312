package agui

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ag-ui-protocol/ag-ui/sdks/community/go/pkg/core/events"

	ai "github.com/spetersoncode/almond"
	"github.com/spetersoncode/almond/client"
	"github.com/spetersoncode/almond/internal/provider/mock"
	"github.com/spetersoncode/almond/workflow"
)

func types(evs []events.Event) []events.EventType {
	out := make([]events.EventType, len(evs))
	for i, ev := range evs {
		out[i] = ev.Type()
	}
	return out
}

func equalTypes(t *testing.T, got []events.Event, want ...events.EventType) {
	t.Helper()
	g := types(got)
	if len(g) != len(want) {
		t.Fatalf("expected %v, got %v", want, g)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, g)
		}
	}
}

func TestNewMapper(t *testing.T) {
	t.Run("with provided IDs", func(t *testing.T) {
		m := NewMapper("thread-123", "run-456")
		if m.ThreadID() != "thread-123" {
			t.Errorf("expected thread ID 'thread-123', got %q", m.ThreadID())
		}
		if m.RunID() != "run-456" {
			t.Errorf("expected run ID 'run-456', got %q", m.RunID())
		}
	})

	t.Run("generates IDs when empty", func(t *testing.T) {
		m := NewMapper("", "")
		if m.ThreadID() == "" {
			t.Error("expected generated thread ID, got empty")
		}
		if m.RunID() == "" {
			t.Error("expected generated run ID, got empty")
		}
	})
}

func TestMapper_LifecycleEvents(t *testing.T) {
	m := NewMapper("thread-1", "run-1")

	if ev := m.RunStarted(); ev.Type() != events.EventTypeRunStarted {
		t.Errorf("expected RUN_STARTED, got %s", ev.Type())
	}
	if ev := m.RunFinished(); ev.Type() != events.EventTypeRunFinished {
		t.Errorf("expected RUN_FINISHED, got %s", ev.Type())
	}
	if ev := m.RunError(errors.New("boom")); ev.Type() != events.EventTypeRunError {
		t.Errorf("expected RUN_ERROR, got %s", ev.Type())
	}
	if ev := m.RunError(nil); ev.Type() != events.EventTypeRunError {
		t.Errorf("expected RUN_ERROR, got %s", ev.Type())
	}
}

func TestMapper_MapEvent(t *testing.T) {
	m := NewMapper("thread-1", "run-1")
	state := workflow.NewState("Buy milk", "Two litres")

	t.Run("run start", func(t *testing.T) {
		equalTypes(t, m.MapEvent(workflow.Event{Type: workflow.EventRunStart}), events.EventTypeRunStarted)
	})

	t.Run("node start", func(t *testing.T) {
		got := m.MapEvent(workflow.Event{Type: workflow.EventNodeStart, Node: workflow.NodeUnderstand})
		equalTypes(t, got, events.EventTypeStepStarted)
		step, ok := got[0].(*events.StepStartedEvent)
		if !ok {
			t.Fatalf("expected *StepStartedEvent, got %T", got[0])
		}
		if step.StepName != "understand" {
			t.Errorf("expected step name 'understand', got %q", step.StepName)
		}
	})

	t.Run("node complete carries a snapshot", func(t *testing.T) {
		got := m.MapEvent(workflow.Event{Type: workflow.EventNodeComplete, Node: workflow.NodeClassify, State: &state})
		equalTypes(t, got, events.EventTypeStepFinished, events.EventTypeStateSnapshot)
	})

	t.Run("node complete without state", func(t *testing.T) {
		got := m.MapEvent(workflow.Event{Type: workflow.EventNodeComplete, Node: workflow.NodeClassify})
		equalTypes(t, got, events.EventTypeStepFinished)
	})

	t.Run("run end complete", func(t *testing.T) {
		got := m.MapEvent(workflow.Event{Type: workflow.EventRunEnd, Termination: workflow.TerminationComplete, State: &state})
		equalTypes(t, got, events.EventTypeRunFinished)
	})

	t.Run("run end with log", func(t *testing.T) {
		s := state
		s.Messages = []workflow.LogEntry{{Role: workflow.LogHuman, Text: "understand: Buy milk"}}
		got := m.MapEvent(workflow.Event{Type: workflow.EventRunEnd, Termination: workflow.TerminationComplete, State: &s})
		equalTypes(t, got, events.EventTypeMessagesSnapshot, events.EventTypeRunFinished)
	})

	t.Run("run end on error path", func(t *testing.T) {
		s := state
		msg := "invalid structured response"
		s.ErrorMessage = &msg
		got := m.MapEvent(workflow.Event{Type: workflow.EventRunEnd, Termination: workflow.TerminationError, State: &s})
		equalTypes(t, got, events.EventTypeRunError)
		runErr, ok := got[0].(*events.RunErrorEvent)
		if !ok {
			t.Fatalf("expected *RunErrorEvent, got %T", got[0])
		}
		if runErr.Message != msg {
			t.Errorf("expected message %q, got %q", msg, runErr.Message)
		}
	})

	t.Run("run end cancelled", func(t *testing.T) {
		got := m.MapEvent(workflow.Event{Type: workflow.EventRunEnd, Termination: workflow.TerminationCancelled})
		equalTypes(t, got, events.EventTypeRunError)
	})

	t.Run("unknown event type", func(t *testing.T) {
		if got := m.MapEvent(workflow.Event{Type: "other"}); got != nil {
			t.Errorf("expected nil, got %v", types(got))
		}
	})
}

func TestMapper_MapStream(t *testing.T) {
	backend := mock.New(mock.WithReplies(
		mock.Reply{Content: `{"classification":"goal","confidence":0.9}`},
		mock.Reply{Content: `{"classification":"goal","confidence":0.85,"reasoning":"long horizon"}`},
	))
	c := client.New(ai.ProviderMock, backend, "")
	resolver := workflow.ResolverFunc(func(context.Context, string, string) (ai.TextGenerator, error) {
		return c, nil
	})
	engine := workflow.NewEngine(workflow.NewSteps(resolver, workflow.Settings{Provider: ai.ProviderMock}))

	ctx := context.Background()
	m := NewMapper("thread-1", "")
	var got []events.Event
	for ev := range m.MapStream(ctx, engine.RunStream(ctx, workflow.VariantClassification, workflow.NewState("Learn Spanish", "Reach B2 by next year"))) {
		got = append(got, ev)
	}

	equalTypes(t, got,
		events.EventTypeRunStarted,
		events.EventTypeStepStarted, events.EventTypeStepFinished, events.EventTypeStateSnapshot,
		events.EventTypeStepStarted, events.EventTypeStepFinished, events.EventTypeStateSnapshot,
		events.EventTypeMessagesSnapshot,
		events.EventTypeRunFinished,
	)
}

func TestMapper_MapStreamCancelled(t *testing.T) {
	in := make(chan workflow.Event, 1)
	in <- workflow.Event{Type: workflow.EventRunStart}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := NewMapper("", "").MapStream(ctx, in)
	close(in)

	for range out {
		// drain; the mapper may or may not deliver before seeing ctx
	}
}

func TestMapper_MapStreamPastDeadline(t *testing.T) {
	msg := "context deadline exceeded"
	in := make(chan workflow.Event, 2)
	in <- workflow.Event{Type: workflow.EventRunStart}
	in <- workflow.Event{
		Type:        workflow.EventRunEnd,
		Termination: workflow.TerminationTimeout,
		State:       &workflow.State{ErrorMessage: &msg},
	}
	close(in)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	var got []events.Event
	for ev := range NewMapper("thread-1", "run-1").MapStream(ctx, in) {
		got = append(got, ev)
	}

	equalTypes(t, got, events.EventTypeRunStarted, events.EventTypeRunError)
}
