package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spetersoncode/almond"
	"github.com/spetersoncode/almond/client"
	"github.com/spetersoncode/almond/prompt"
)

// Resolver hands out a text generator for a provider and optional model.
type Resolver interface {
	Resolve(ctx context.Context, provider, model string) (almond.TextGenerator, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, provider, model string) (almond.TextGenerator, error)

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(ctx context.Context, provider, model string) (almond.TextGenerator, error) {
	return f(ctx, provider, model)
}

// RegistryResolver resolves generators from a client registry.
func RegistryResolver(reg *client.Registry) Resolver {
	return ResolverFunc(func(ctx context.Context, provider, model string) (almond.TextGenerator, error) {
		c, err := reg.Resolve(ctx, provider, model)
		if err != nil {
			return nil, err
		}
		return c, nil
	})
}

// Settings selects the backend and generation options used by the steps.
type Settings struct {
	Provider  almond.Provider
	Model     string
	Threshold float64
	Options   []almond.Option

	// EvolutionTrigger is the defer count at which evolution analysis is
	// told the almond may be a long-term goal.
	EvolutionTrigger int
}

// Steps is the node library. It implements NodeSet.
type Steps struct {
	resolver Resolver
	settings Settings
}

// NewSteps creates the node library. A zero threshold selects DefaultThreshold.
func NewSteps(resolver Resolver, settings Settings) *Steps {
	if settings.Threshold <= 0 {
		settings.Threshold = DefaultThreshold
	}
	if settings.Provider == "" {
		settings.Provider = almond.ProviderQwen
	}
	return &Steps{resolver: resolver, settings: settings}
}

// Threshold returns the confidence threshold the understand node uses when
// it runs outside an engine. An engine over Steps adopts it as its default.
func (st *Steps) Threshold() float64 { return st.settings.Threshold }

// Node implements NodeSet.
func (st *Steps) Node(id NodeID) (NodeFunc, bool) {
	switch id {
	case NodeUnderstand:
		return st.Understand, true
	case NodeClassify:
		return st.Classify, true
	case NodeNeedsMoreInfo:
		return needsMoreInfo, true
	case NodeEvolutionAnalyze:
		return st.EvolutionAnalyze, true
	case NodeRetrospect:
		return st.Retrospect, true
	case NodeError:
		return errorNode, true
	}
	return nil, false
}

// generate resolves the configured backend and decodes a structured reply into T.
func generate[T any](ctx context.Context, st *Steps, userPrompt, systemPrompt string) (T, *almond.Response, error) {
	var zero T
	gen, err := st.resolver.Resolve(ctx, string(st.settings.Provider), st.settings.Model)
	if err != nil {
		return zero, nil, err
	}
	resp, err := gen.GenerateStructured(ctx, userPrompt, systemPrompt, st.settings.Options...)
	if err != nil {
		return zero, nil, err
	}
	out, err := client.Decode[T](resp)
	if err != nil {
		return zero, nil, err
	}
	return out, resp, nil
}

// failure converts err into the error-path update.
func failure(s State, err error, elapsed time.Duration) Update {
	return Update{
		ErrorMessage:     ptr(err.Error()),
		NextStep:         ptr(StepError),
		WorkflowComplete: ptr(true),
		CostTimeMs:       ptr(s.CostTimeMs + elapsed.Milliseconds()),
	}
}

// guard runs body and converts a returned error or a panic into the
// error-path update.
func guard(s State, body func() (Update, error)) (u Update) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			u = failure(s, fmt.Errorf("panic: %v", r), time.Since(start))
		}
	}()
	u, err := body()
	if err != nil {
		return failure(s, err, time.Since(start))
	}
	return u
}

// confidence is a backend-reported confidence. A reply without one is
// rejected.
type confidence struct {
	v *float64
}

func (c *confidence) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		var s string
		if json.Unmarshal(data, &s) != nil {
			return fmt.Errorf("confidence: %w", err)
		}
		if _, err := fmt.Sscan(s, &f); err != nil {
			return fmt.Errorf("confidence: %q is not a number", s)
		}
	}
	c.v = &f
	return nil
}

func (c confidence) value() (float64, error) {
	if c.v == nil {
		return 0, errors.New("response is missing confidence")
	}
	return almond.ClampConfidence(*c.v), nil
}

// parseLabel accepts the categories a backend may assign. Completed is
// reserved for retrospection.
func parseLabel(s string) (almond.Classification, error) {
	if s == "" {
		return "", errors.New("response is missing classification")
	}
	c, err := almond.ParseClassification(s)
	if err != nil {
		return "", err
	}
	if c == almond.ClassificationCompleted {
		return "", fmt.Errorf("classification %q is reserved for retrospection", s)
	}
	return c, nil
}

// invalidReply reports a decoded reply that lacks a required field or
// carries an unusable value.
func invalidReply(resp *almond.Response, err error) error {
	return &almond.InvalidStructuredResponseError{Raw: resp.Content, Cause: err}
}

type quickResult struct {
	Classification string     `json:"classification"`
	Confidence     confidence `json:"confidence"`
	Reasoning      string     `json:"reasoning"`
}

// Understand makes the first-pass judgment and picks the branch.
func (st *Steps) Understand(ctx context.Context, s State) Update {
	return guard(s, func() (Update, error) {
		start := time.Now()
		out, resp, err := generate[quickResult](ctx, st,
			prompt.QuickClassification(s.Title, s.Content), prompt.QuickClassificationSystem)
		if err != nil {
			return Update{}, err
		}
		label, err := parseLabel(out.Classification)
		if err != nil {
			return Update{}, invalidReply(resp, err)
		}
		conf, err := out.Confidence.value()
		if err != nil {
			return Update{}, invalidReply(resp, err)
		}

		next := StepClassify
		if conf < thresholdFrom(ctx, st.settings.Threshold) {
			next = StepNeedsMoreInfo
		}
		return Update{
			CurrentType: ptr(string(label)),
			Confidence:  ptr(conf),
			Reasoning:   ptr(out.Reasoning),
			Model:       ptr(resp.Model),
			Messages: []LogEntry{
				{Role: LogHuman, Text: "understand: " + s.Title},
				{Role: LogAI, Text: "initial judgment: " + string(label)},
			},
			CostTimeMs: ptr(s.CostTimeMs + time.Since(start).Milliseconds()),
			NextStep:   ptr(next),
		}, nil
	})
}

type classifyResult struct {
	Classification    string     `json:"classification"`
	Confidence        confidence `json:"confidence"`
	Reasoning         string     `json:"reasoning"`
	RecommendedStatus string     `json:"recommendedStatus"`
	Suggestions       []string   `json:"suggestions"`
}

// Classify runs the full classification and completes the run.
func (st *Steps) Classify(ctx context.Context, s State) Update {
	return guard(s, func() (Update, error) {
		start := time.Now()
		out, resp, err := generate[classifyResult](ctx, st,
			prompt.Classification(s.Title, s.Content, s.Context), prompt.ClassificationSystem)
		if err != nil {
			return Update{}, err
		}
		label, err := parseLabel(out.Classification)
		if err != nil {
			return Update{}, invalidReply(resp, err)
		}
		conf, err := out.Confidence.value()
		if err != nil {
			return Update{}, invalidReply(resp, err)
		}

		status := out.RecommendedStatus
		if status == "" {
			status = string(label)
		}
		return Update{
			Classification:    ptr(label),
			Confidence:        ptr(conf),
			Reasoning:         ptr(out.Reasoning),
			RecommendedStatus: ptr(status),
			Suggestions:       ptr(out.Suggestions),
			Model:             ptr(resp.Model),
			Messages: []LogEntry{
				{Role: LogHuman, Text: "classify in detail"},
				{Role: LogAI, Text: fmt.Sprintf("classification: %s, confidence: %.2f", label, conf)},
			},
			CostTimeMs:       ptr(s.CostTimeMs + time.Since(start).Milliseconds()),
			NextStep:         ptr(StepComplete),
			WorkflowComplete: ptr(true),
		}, nil
	})
}

// needsMoreInfoSuggestions are offered when the first-pass confidence is low.
var needsMoreInfoSuggestions = []string{
	"Add more detail",
	"Observe later behavior",
	"Keep it as a new almond for now",
}

// needsMoreInfo defers classification without calling a backend.
func needsMoreInfo(_ context.Context, s State) Update {
	return Update{
		Classification:    ptr(almond.ClassificationUnclear),
		Confidence:        ptr(almond.ClampConfidence(s.Confidence)),
		Reasoning:         ptr("not enough information to classify"),
		RecommendedStatus: ptr(string(almond.StatusNew)),
		Suggestions:       ptr(append([]string(nil), needsMoreInfoSuggestions...)),
		Messages: []LogEntry{
			{Role: LogAI, Text: "I don't understand this almond well enough yet; keep observing or add more information"},
		},
		NextStep:         ptr(StepComplete),
		WorkflowComplete: ptr(true),
	}
}

type evolutionResult struct {
	ShouldEvolve      *bool              `json:"shouldEvolve"`
	Classification    string             `json:"classification"`
	Confidence        confidence         `json:"confidence"`
	Reasoning         string             `json:"reasoning"`
	EvolutionReason   string             `json:"evolutionReason"`
	FromType          string             `json:"fromType"`
	ToType            string             `json:"toType"`
	RecommendedStatus string             `json:"recommendedStatus"`
	SplitSuggestions  []almond.SpawnItem `json:"splitSuggestions"`
	Suggestions       []string           `json:"suggestions"`
}

// EvolutionAnalyze decides whether an almond should change type.
func (st *Steps) EvolutionAnalyze(ctx context.Context, s State) Update {
	return guard(s, func() (Update, error) {
		start := time.Now()
		out, resp, err := generate[evolutionResult](ctx, st, prompt.Evolution(prompt.EvolutionInput{
			Title:           s.Title,
			Content:         s.Content,
			CurrentType:     s.CurrentType,
			CurrentState:    s.CurrentState,
			UserBehavior:    string(s.UserBehavior),
			BehaviorCount:   s.BehaviorCount,
			CreatedAt:       s.CreatedAt,
			CompletionTimes: s.CompletionTimes,
			DeferHintAt:     st.settings.EvolutionTrigger,
		}), prompt.EvolutionSystem)
		if err != nil {
			return Update{}, err
		}
		label, err := parseLabel(out.Classification)
		if err != nil {
			return Update{}, invalidReply(resp, err)
		}
		conf, err := out.Confidence.value()
		if err != nil {
			return Update{}, invalidReply(resp, err)
		}

		shouldEvolve := out.ShouldEvolve != nil && *out.ShouldEvolve
		from := out.FromType
		if from == "" {
			from = s.CurrentType
		}
		to := out.ToType
		if to == "" {
			to = string(label)
		}
		verdict := "keep current type"
		if shouldEvolve {
			verdict = fmt.Sprintf("evolve from %s to %s", from, to)
		}

		u := Update{
			ShouldEvolve:     ptr(shouldEvolve),
			Classification:   ptr(label),
			Confidence:       ptr(conf),
			Reasoning:        ptr(out.Reasoning),
			EvolutionReason:  ptr(out.EvolutionReason),
			FromType:         ptr(from),
			ToType:           ptr(to),
			SplitSuggestions: ptr(out.SplitSuggestions),
			Suggestions:      ptr(out.Suggestions),
			Model:            ptr(resp.Model),
			Messages: []LogEntry{
				{Role: LogHuman, Text: fmt.Sprintf("analyze evolution, user behavior: %s", s.UserBehavior)},
				{Role: LogAI, Text: "evolution analysis: " + verdict},
			},
			CostTimeMs:       ptr(s.CostTimeMs + time.Since(start).Milliseconds()),
			NextStep:         ptr(StepComplete),
			WorkflowComplete: ptr(true),
		}
		if out.RecommendedStatus != "" {
			u.RecommendedStatus = ptr(out.RecommendedStatus)
		}
		return u, nil
	})
}

type retrospectResult struct {
	Confidence   confidence         `json:"confidence"`
	Reasoning    string             `json:"reasoning"`
	Achievements []string           `json:"achievements"`
	Learnings    []string           `json:"learnings"`
	Improvements []string           `json:"improvements"`
	Patterns     map[string]any     `json:"patterns"`
	SpawnAlmonds []almond.SpawnItem `json:"spawnAlmonds"`
	Suggestions  []string           `json:"suggestions"`
}

// Retrospect reviews a completed almond and archives it.
func (st *Steps) Retrospect(ctx context.Context, s State) Update {
	return guard(s, func() (Update, error) {
		start := time.Now()
		out, resp, err := generate[retrospectResult](ctx, st, prompt.Retrospect(prompt.RetrospectInput{
			Title:          s.Title,
			Content:        s.Content,
			CreatedAt:      s.CreatedAt,
			CompletedAt:    s.CompletedAt,
			CompletionData: s.Context,
		}), prompt.RetrospectSystem)
		if err != nil {
			return Update{}, err
		}
		conf, err := out.Confidence.value()
		if err != nil {
			return Update{}, invalidReply(resp, err)
		}

		return Update{
			Classification:    ptr(almond.ClassificationCompleted),
			Confidence:        ptr(conf),
			Reasoning:         ptr(out.Reasoning),
			RecommendedStatus: ptr(string(almond.StatusArchived)),
			Achievements:      ptr(nonNil(out.Achievements)),
			Learnings:         ptr(nonNil(out.Learnings)),
			Improvements:      ptr(nonNil(out.Improvements)),
			Patterns:          ptr(out.Patterns),
			SpawnItems:        ptr(out.SpawnAlmonds),
			Suggestions:       ptr(out.Suggestions),
			Model:             ptr(resp.Model),
			Messages: []LogEntry{
				{Role: LogHuman, Text: "review this almond"},
				{Role: LogAI, Text: fmt.Sprintf("retrospective done: %d achievements, %d learnings",
					len(out.Achievements), len(out.Learnings))},
			},
			CostTimeMs:       ptr(s.CostTimeMs + time.Since(start).Milliseconds()),
			NextStep:         ptr(StepComplete),
			WorkflowComplete: ptr(true),
		}, nil
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// errorNode produces the safe terminal state. It keeps errorMessage.
func errorNode(_ context.Context, s State) Update {
	u := Update{
		Classification:    ptr(almond.ClassificationUnclear),
		Confidence:        ptr(0.0),
		Reasoning:         ptr("analysis failed"),
		RecommendedStatus: ptr(string(almond.StatusNew)),
		WorkflowComplete:  ptr(true),
	}
	if s.ErrorMessage == nil {
		u.ErrorMessage = ptr("analysis failed")
	}
	return u
}
