package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	ai "github.com/spetersoncode/almond"
	"github.com/spetersoncode/almond/internal/provider/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnderstand(t *testing.T) {
	tests := []struct {
		name     string
		reply    string
		wantType string
		wantConf float64
		wantNext string
	}{
		{
			name:     "confident",
			reply:    `{"classification":"Action","confidence":0.88,"reasoning":"errand"}`,
			wantType: "action",
			wantConf: 0.88,
			wantNext: StepClassify,
		},
		{
			name:     "confidence above one is clamped",
			reply:    `{"classification":"goal","confidence":1.7}`,
			wantType: "goal",
			wantConf: 1,
			wantNext: StepClassify,
		},
		{
			name:     "negative confidence is clamped",
			reply:    `{"classification":"goal","confidence":-2}`,
			wantType: "goal",
			wantConf: 0,
			wantNext: StepNeedsMoreInfo,
		},
		{
			name:     "confidence as string",
			reply:    `{"classification":"goal","confidence":"0.9"}`,
			wantType: "goal",
			wantConf: 0.9,
			wantNext: StepClassify,
		},
		{
			name:     "fenced reply",
			reply:    "```json\n{\"classification\":\"action\",\"confidence\":0.75}\n```",
			wantType: "action",
			wantConf: 0.75,
			wantNext: StepClassify,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps, _ := newTestSteps(t, mock.Reply{Content: tt.reply})

			u := steps.Understand(context.Background(), groceries())

			require.Nil(t, u.ErrorMessage)
			assert.Equal(t, tt.wantType, *u.CurrentType)
			assert.InDelta(t, tt.wantConf, *u.Confidence, 1e-9)
			assert.Equal(t, tt.wantNext, *u.NextStep)
			assert.Nil(t, u.WorkflowComplete)
			assert.Equal(t, "mock-model", *u.Model)
			require.Len(t, u.Messages, 2)
			assert.Equal(t, "initial judgment: "+tt.wantType, u.Messages[1].Text)
		})
	}
}

func TestUnderstandAddsElapsedCost(t *testing.T) {
	steps, _ := newTestSteps(t, mock.Reply{Content: `{"classification":"memory","confidence":0.9}`})
	s := groceries()
	s.CostTimeMs = 1000

	u := steps.Understand(context.Background(), s)

	require.NotNil(t, u.CostTimeMs)
	assert.GreaterOrEqual(t, *u.CostTimeMs, int64(1000))
}

func TestUnderstandUsesCustomThreshold(t *testing.T) {
	backend := mock.New(mock.WithReplies(mock.Reply{Content: `{"classification":"memory","confidence":0.6}`}))
	steps := NewSteps(ResolverFunc(func(context.Context, string, string) (ai.TextGenerator, error) {
		return newMockGenerator(backend), nil
	}), Settings{Threshold: 0.5})

	u := steps.Understand(context.Background(), groceries())

	assert.Equal(t, StepClassify, *u.NextStep)
	assert.InDelta(t, 0.5, steps.Threshold(), 1e-9)
}

func TestUnderstandUsesEngineThreshold(t *testing.T) {
	steps, _ := newTestSteps(t, mock.Reply{Content: `{"classification":"memory","confidence":0.6}`})

	u := steps.Understand(withThreshold(context.Background(), 0.5), groceries())

	assert.Equal(t, StepClassify, *u.NextStep)
}

func TestStepErrorsBecomeFailureUpdates(t *testing.T) {
	tests := []struct {
		name    string
		reply   mock.Reply
		wantMsg string
	}{
		{"unknown label", mock.Reply{Content: `{"classification":"task","confidence":0.9}`}, "unknown classification"},
		{"missing label", mock.Reply{Content: `{"confidence":0.9}`}, "missing classification"},
		{"missing confidence", mock.Reply{Content: `{"classification":"action"}`}, "missing confidence"},
		{"null confidence", mock.Reply{Content: `{"classification":"action","confidence":null}`}, "missing confidence"},
		{"completed label", mock.Reply{Content: `{"classification":"completed","confidence":0.9}`}, "reserved for retrospection"},
		{"not json", mock.Reply{Content: "sure!"}, "invalid structured response"},
		{"wrong shape", mock.Reply{Content: `{"classification":["action"]}`}, "cannot unmarshal"},
		{"permanent error", mock.Reply{Err: ai.NewPermanentError(ai.ProviderMock, "bad key", 401, nil)}, "bad key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps, _ := newTestSteps(t, tt.reply)

			u := steps.Classify(context.Background(), groceries())

			require.NotNil(t, u.ErrorMessage)
			assert.Contains(t, strings.ToLower(*u.ErrorMessage), tt.wantMsg)
			assert.Equal(t, StepError, *u.NextStep)
			assert.True(t, *u.WorkflowComplete)
			assert.NotNil(t, u.CostTimeMs)
			assert.Nil(t, u.Classification)
		})
	}
}

func TestIncompleteRepliesAreInvalid(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		run   func(*Steps) NodeFunc
	}{
		{"understand without confidence", `{"classification":"memory"}`, func(st *Steps) NodeFunc { return st.Understand }},
		{"understand with completed", `{"classification":"completed","confidence":0.9}`, func(st *Steps) NodeFunc { return st.Understand }},
		{"evolution without confidence", `{"classification":"goal","shouldEvolve":true}`, func(st *Steps) NodeFunc { return st.EvolutionAnalyze }},
		{"evolution with completed", `{"classification":"completed","confidence":0.9}`, func(st *Steps) NodeFunc { return st.EvolutionAnalyze }},
		{"retrospect without confidence", `{"reasoning":"done","achievements":["shipped"]}`, func(st *Steps) NodeFunc { return st.Retrospect }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps, _ := newTestSteps(t, mock.Reply{Content: tt.reply})
			s := groceries()
			s.CreatedAt = "2026-01-02"
			s.CompletedAt = "2026-01-09"

			u := tt.run(steps)(context.Background(), s)

			require.NotNil(t, u.ErrorMessage)
			assert.Contains(t, *u.ErrorMessage, "invalid structured response")
			assert.Equal(t, StepError, *u.NextStep)
			assert.Nil(t, u.Confidence)
		})
	}
}

func TestStepResolverFailure(t *testing.T) {
	steps := NewSteps(ResolverFunc(func(context.Context, string, string) (ai.TextGenerator, error) {
		return nil, &ai.ConfigurationError{Provider: ai.ProviderQwen, Setting: "DASHSCOPE_API_KEY"}
	}), Settings{})

	u := steps.Retrospect(context.Background(), groceries())

	require.NotNil(t, u.ErrorMessage)
	assert.Contains(t, *u.ErrorMessage, "DASHSCOPE_API_KEY")
}

func TestStepsResolveConfiguredProvider(t *testing.T) {
	var gotProvider, gotModel string
	steps := NewSteps(ResolverFunc(func(_ context.Context, provider, model string) (ai.TextGenerator, error) {
		gotProvider, gotModel = provider, model
		return nil, errors.New("stop")
	}), Settings{Provider: ai.ProviderAnthropic, Model: "claude-x"})

	_ = steps.Understand(context.Background(), groceries())

	assert.Equal(t, "anthropic", gotProvider)
	assert.Equal(t, "claude-x", gotModel)
}

func TestClassify(t *testing.T) {
	t.Run("recommended status defaults to classification", func(t *testing.T) {
		steps, backend := newTestSteps(t, mock.Reply{Content: `{"classification":"goal","confidence":0.8,"reasoning":"long term"}`})
		s := groceries()
		s.Context = "user is training for a marathon"

		u := steps.Classify(context.Background(), s)

		require.Nil(t, u.ErrorMessage)
		assert.Equal(t, ai.ClassificationGoal, *u.Classification)
		assert.Equal(t, "goal", *u.RecommendedStatus)
		assert.Equal(t, StepComplete, *u.NextStep)
		assert.True(t, *u.WorkflowComplete)

		reqs := backend.Requests()
		require.Len(t, reqs, 1)
		assert.Contains(t, reqs[0][1].Content, "marathon")
	})

	t.Run("explicit recommended status", func(t *testing.T) {
		steps, _ := newTestSteps(t, mock.Reply{Content: `{"classification":"action","confidence":0.8,"recommendedStatus":"acting"}`})

		u := steps.Classify(context.Background(), groceries())

		assert.Equal(t, "acting", *u.RecommendedStatus)
		assert.Equal(t, "classification: action, confidence: 0.80", u.Messages[1].Text)
	})
}

func TestNeedsMoreInfo(t *testing.T) {
	s := groceries()
	s.Confidence = 0.42

	u := needsMoreInfo(context.Background(), s)

	assert.Equal(t, ai.ClassificationUnclear, *u.Classification)
	assert.InDelta(t, 0.42, *u.Confidence, 1e-9)
	assert.Equal(t, "new", *u.RecommendedStatus)
	assert.Len(t, *u.Suggestions, 3)
	assert.Len(t, u.Messages, 1)
	assert.Equal(t, LogAI, u.Messages[0].Role)
	assert.True(t, *u.WorkflowComplete)

	// The canned suggestions are never shared between updates.
	(*u.Suggestions)[0] = "changed"
	assert.NotEqual(t, "changed", needsMoreInfoSuggestions[0])
}

func TestEvolutionAnalyze(t *testing.T) {
	t.Run("defaults from and to types", func(t *testing.T) {
		steps, backend := newTestSteps(t, mock.Reply{Content: `{
			"shouldEvolve": true,
			"classification": "goal",
			"confidence": 0.8,
			"reasoning": "deferred repeatedly",
			"evolutionReason": "keeps getting deferred",
			"splitSuggestions": [{"title": "Plan", "content": "Write a plan", "type": "action"}]
		}`})
		s := groceries()
		s.CurrentType = "action"
		s.UserBehavior = ai.BehaviorDefer
		s.BehaviorCount = 4

		u := steps.EvolutionAnalyze(context.Background(), s)

		require.Nil(t, u.ErrorMessage)
		assert.True(t, *u.ShouldEvolve)
		assert.Equal(t, "action", *u.FromType)
		assert.Equal(t, "goal", *u.ToType)
		assert.Equal(t, ai.ClassificationGoal, *u.Classification)
		assert.Equal(t, []ai.SpawnItem{{Title: "Plan", Content: "Write a plan", Type: "action"}}, *u.SplitSuggestions)
		assert.Nil(t, u.RecommendedStatus)
		assert.Equal(t, "evolution analysis: evolve from action to goal", u.Messages[1].Text)
		assert.True(t, *u.WorkflowComplete)

		prompt := backend.Requests()[0][1].Content
		assert.Contains(t, prompt, "defer")
		assert.Contains(t, prompt, "4")
	})

	t.Run("should evolve defaults to false", func(t *testing.T) {
		steps, _ := newTestSteps(t, mock.Reply{Content: `{"classification":"memory","confidence":0.6,"fromType":"memory","toType":"memory","recommendedStatus":"memory"}`})

		u := steps.EvolutionAnalyze(context.Background(), groceries())

		assert.False(t, *u.ShouldEvolve)
		assert.Equal(t, "memory", *u.RecommendedStatus)
		assert.Equal(t, "evolution analysis: keep current type", u.Messages[1].Text)
	})
}

func TestRetrospect(t *testing.T) {
	steps, backend := newTestSteps(t, mock.Reply{Content: `{
		"confidence": 0.9,
		"reasoning": "done on time",
		"achievements": ["shipped"],
		"learnings": ["start earlier"],
		"patterns": {"timeOfDay": "morning"},
		"spawnAlmonds": [{"title": "Next step", "content": "Follow up", "type": "action"}]
	}`})
	s := groceries()
	s.CreatedAt = "2026-01-02"
	s.CompletedAt = "2026-01-09"

	u := steps.Retrospect(context.Background(), s)

	require.Nil(t, u.ErrorMessage)
	assert.Equal(t, ai.ClassificationCompleted, *u.Classification)
	assert.Equal(t, "archived", *u.RecommendedStatus)
	assert.Equal(t, []string{"shipped"}, *u.Achievements)
	assert.Equal(t, []string{}, *u.Improvements)
	assert.Equal(t, map[string]any{"timeOfDay": "morning"}, *u.Patterns)
	assert.Len(t, *u.SpawnItems, 1)
	assert.Equal(t, "retrospective done: 1 achievements, 1 learnings", u.Messages[1].Text)

	prompt := backend.Requests()[0][1].Content
	assert.Contains(t, prompt, "2026-01-02")
	assert.Contains(t, prompt, "2026-01-09")
}

func TestErrorNode(t *testing.T) {
	t.Run("keeps existing error message", func(t *testing.T) {
		s := groceries().Apply(Update{ErrorMessage: ptr("backend down"), Confidence: ptr(0.9)})

		got := s.Apply(errorNode(context.Background(), s))

		assert.Equal(t, "backend down", *got.ErrorMessage)
		assert.Equal(t, ai.ClassificationUnclear, *got.Classification)
		assert.Zero(t, got.Confidence)
		assert.Equal(t, "analysis failed", got.Reasoning)
		assert.Equal(t, "new", got.RecommendedStatus)
		assert.True(t, got.WorkflowComplete)
	})

	t.Run("sets a message when none exists", func(t *testing.T) {
		got := groceries().Apply(errorNode(context.Background(), groceries()))
		require.NotNil(t, got.ErrorMessage)
		assert.Equal(t, "analysis failed", *got.ErrorMessage)
	})
}

func TestGuardRecoversPanic(t *testing.T) {
	u := guard(groceries(), func() (Update, error) {
		var m map[string]int
		m["x"] = 1
		return Update{}, nil
	})

	require.NotNil(t, u.ErrorMessage)
	assert.Contains(t, *u.ErrorMessage, "panic")
	assert.Equal(t, StepError, *u.NextStep)
}

func TestStepsNodeSet(t *testing.T) {
	steps, _ := newTestSteps(t)
	for _, id := range Nodes() {
		fn, ok := steps.Node(id)
		assert.True(t, ok, id)
		assert.NotNil(t, fn, id)
	}
	_, ok := steps.Node(End)
	assert.False(t, ok)
}
