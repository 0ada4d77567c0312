package workflow

import (
	"errors"
	"slices"
	"strings"

	"github.com/spetersoncode/almond"
)

// Routing signals written to State.NextStep.
const (
	StepClassify      = "classify"
	StepNeedsMoreInfo = "needs_more_info"
	StepComplete      = "complete"
	StepError         = "error"
)

// LogRole tags a message log entry.
type LogRole string

const (
	LogHuman LogRole = "human"
	LogAI    LogRole = "ai"
)

// LogEntry is one line of the audit log kept in State.Messages.
// The log is never consulted for routing.
type LogEntry struct {
	Role LogRole `json:"role"`
	Text string  `json:"text"`
}

// State is the analysis record threaded through a workflow run.
// Evolution and retrospect fields are only meaningful for their variants.
type State struct {
	TaskID *int64 `json:"taskId"`
	UserID *int64 `json:"userId"`

	Title   string `json:"title"`
	Content string `json:"content"`
	Text    string `json:"text"`
	Context string `json:"context"`

	Classification    *almond.Classification `json:"classification"`
	Confidence        float64                `json:"confidence"`
	Reasoning         string                 `json:"reasoning"`
	RecommendedStatus string                 `json:"recommendedStatus"`
	Suggestions       []string               `json:"suggestions"`

	CurrentType      string              `json:"currentType"`
	CurrentState     string              `json:"currentState"`
	UserBehavior     almond.UserBehavior `json:"userBehavior"`
	BehaviorCount    int                 `json:"behaviorCount"`
	CompletionTimes  int                 `json:"completionTimes"`
	CreatedAt        string              `json:"createdAt"`
	CompletedAt      string              `json:"completedAt"`
	ShouldEvolve     bool                `json:"shouldEvolve"`
	EvolutionReason  string              `json:"evolutionReason"`
	FromType         string              `json:"fromType"`
	ToType           string              `json:"toType"`
	SplitSuggestions []almond.SpawnItem  `json:"splitSuggestions"`

	Achievements []string           `json:"achievements"`
	Learnings    []string           `json:"learnings"`
	Improvements []string           `json:"improvements"`
	Patterns     map[string]any     `json:"patterns"`
	SpawnItems   []almond.SpawnItem `json:"spawnItems"`

	Messages         []LogEntry `json:"messages"`
	NextStep         *string    `json:"nextStep"`
	WorkflowComplete bool       `json:"workflowComplete"`
	CostTimeMs       int64      `json:"costTimeMs"`
	ErrorMessage     *string    `json:"errorMessage"`
	Model            string     `json:"model"`
}

// NewState returns a state for the given subject with every optional
// field at its null or zero value.
func NewState(title, content string) State {
	return State{Title: title, Content: content}
}

// Validate reports whether the state can enter a classification step.
func (s State) Validate() error {
	var errs []error
	if strings.TrimSpace(s.Title) == "" {
		errs = append(errs, errors.New("title is required"))
	}
	if strings.TrimSpace(s.Content) == "" {
		errs = append(errs, errors.New("content is required"))
	}
	if s.BehaviorCount < 0 {
		errs = append(errs, errors.New("behaviorCount must not be negative"))
	}
	if s.CompletionTimes < 0 {
		errs = append(errs, errors.New("completionTimes must not be negative"))
	}
	return errors.Join(errs...)
}

// Failed reports whether the run ended on the error path.
func (s State) Failed() bool { return s.ErrorMessage != nil }

// Update is a partial state change returned by a node. Nil fields are
// left untouched by Apply; Messages are appended to the log.
type Update struct {
	Classification    *almond.Classification `json:"classification,omitempty"`
	Confidence        *float64               `json:"confidence,omitempty"`
	Reasoning         *string                `json:"reasoning,omitempty"`
	RecommendedStatus *string                `json:"recommendedStatus,omitempty"`
	Suggestions       *[]string              `json:"suggestions,omitempty"`

	CurrentType      *string             `json:"currentType,omitempty"`
	ShouldEvolve     *bool               `json:"shouldEvolve,omitempty"`
	EvolutionReason  *string             `json:"evolutionReason,omitempty"`
	FromType         *string             `json:"fromType,omitempty"`
	ToType           *string             `json:"toType,omitempty"`
	SplitSuggestions *[]almond.SpawnItem `json:"splitSuggestions,omitempty"`

	Achievements *[]string           `json:"achievements,omitempty"`
	Learnings    *[]string           `json:"learnings,omitempty"`
	Improvements *[]string           `json:"improvements,omitempty"`
	Patterns     *map[string]any     `json:"patterns,omitempty"`
	SpawnItems   *[]almond.SpawnItem `json:"spawnItems,omitempty"`

	Messages         []LogEntry `json:"messages,omitempty"`
	NextStep         *string    `json:"nextStep,omitempty"`
	WorkflowComplete *bool      `json:"workflowComplete,omitempty"`
	CostTimeMs       *int64     `json:"costTimeMs,omitempty"`
	ErrorMessage     *string    `json:"errorMessage,omitempty"`
	Model            *string    `json:"model,omitempty"`
}

// Apply returns a copy of s with u merged in. Present fields replace,
// absent fields are kept and messages are appended onto a fresh backing
// array so the receiver's log is never shared with the result.
func (s State) Apply(u Update) State {
	set(&s.Classification, u.Classification)
	setValue(&s.Confidence, u.Confidence)
	setValue(&s.Reasoning, u.Reasoning)
	setValue(&s.RecommendedStatus, u.RecommendedStatus)
	setValue(&s.Suggestions, u.Suggestions)

	setValue(&s.CurrentType, u.CurrentType)
	setValue(&s.ShouldEvolve, u.ShouldEvolve)
	setValue(&s.EvolutionReason, u.EvolutionReason)
	setValue(&s.FromType, u.FromType)
	setValue(&s.ToType, u.ToType)
	setValue(&s.SplitSuggestions, u.SplitSuggestions)

	setValue(&s.Achievements, u.Achievements)
	setValue(&s.Learnings, u.Learnings)
	setValue(&s.Improvements, u.Improvements)
	setValue(&s.Patterns, u.Patterns)
	setValue(&s.SpawnItems, u.SpawnItems)

	if len(u.Messages) > 0 {
		s.Messages = append(slices.Clip(s.Messages), u.Messages...)
	}
	set(&s.NextStep, u.NextStep)
	setValue(&s.WorkflowComplete, u.WorkflowComplete)
	setValue(&s.CostTimeMs, u.CostTimeMs)
	set(&s.ErrorMessage, u.ErrorMessage)
	setValue(&s.Model, u.Model)
	return s
}

// set replaces a nullable field when the update carries a value.
func set[T any](dst **T, v *T) {
	if v != nil {
		c := *v
		*dst = &c
	}
}

func setValue[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func ptr[T any](v T) *T { return &v }
