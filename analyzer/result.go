package analyzer

import (
	"github.com/spetersoncode/almond"
	"github.com/spetersoncode/almond/workflow"
)

// AnalysisResult holds the fields shared by every analysis outcome.
type AnalysisResult struct {
	Success           bool     `json:"success"`
	Classification    string   `json:"classification"`
	Confidence        float64  `json:"confidence"`
	Reasoning         string   `json:"reasoning"`
	RecommendedStatus string   `json:"recommendedStatus"`
	Title             string   `json:"title,omitempty"`
	Content           string   `json:"content,omitempty"`
	Model             string   `json:"model"`
	CostTimeMs        int64    `json:"costTimeMs"`
	ErrorMessage      *string  `json:"errorMessage"`
	Suggestions       []string `json:"suggestions,omitempty"`

	// RunID identifies the workflow run that produced the result.
	RunID string `json:"runId,omitempty"`
}

// ClassificationResult is the outcome of the classification workflow.
type ClassificationResult struct {
	AnalysisResult
}

// EvolutionResult is the outcome of the evolution workflow.
type EvolutionResult struct {
	AnalysisResult
	ShouldEvolve     bool               `json:"shouldEvolve"`
	EvolutionReason  string             `json:"evolutionReason"`
	FromType         string             `json:"fromType"`
	ToType           string             `json:"toType"`
	SplitSuggestions []almond.SpawnItem `json:"splitSuggestions,omitempty"`
}

// RetrospectResult is the outcome of the retrospect workflow.
type RetrospectResult struct {
	AnalysisResult
	Achievements []string           `json:"achievements"`
	Learnings    []string           `json:"learnings"`
	Improvements []string           `json:"improvements"`
	Patterns     map[string]any     `json:"patterns,omitempty"`
	SpawnAlmonds []almond.SpawnItem `json:"spawnAlmonds,omitempty"`
}

// UnderstandingCore is the entity, action and context extracted from input.
type UnderstandingCore struct {
	Entity  string `json:"entity"`
	Action  string `json:"action"`
	Context string `json:"context"`
}

// UnderstandingResult is the outcome of a clarify-and-tag analysis.
type UnderstandingResult struct {
	Success           bool               `json:"success"`
	Confidence        float64            `json:"confidence"`
	Reasoning         string             `json:"reasoning"`
	RecommendedStatus string             `json:"recommendedStatus"`
	Title             string             `json:"title,omitempty"`
	ClarifiedText     string             `json:"clarifiedText,omitempty"`
	Tags              []string           `json:"tags,omitempty"`
	Core              *UnderstandingCore `json:"core,omitempty"`
	Model             string             `json:"model"`
	CostTimeMs        int64              `json:"costTimeMs"`
	ErrorMessage      *string            `json:"errorMessage"`
}

// HealthResult reports backend availability.
type HealthResult struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Provider  string `json:"provider"`
	Available bool   `json:"available"`
}

// baseResult maps the shared fields of a terminal state. fallbackModel is
// reported when no backend answered.
func baseResult(res *workflow.Result, fallbackModel string) AnalysisResult {
	s := res.State
	out := AnalysisResult{
		Success:           s.ErrorMessage == nil,
		Classification:    string(almond.ClassificationUnclear),
		Confidence:        almond.ClampConfidence(s.Confidence),
		Reasoning:         s.Reasoning,
		RecommendedStatus: s.RecommendedStatus,
		Title:             s.Title,
		Content:           s.Content,
		Model:             s.Model,
		CostTimeMs:        s.CostTimeMs,
		ErrorMessage:      s.ErrorMessage,
		Suggestions:       s.Suggestions,
		RunID:             res.RunID,
	}
	if s.Classification != nil {
		out.Classification = string(*s.Classification)
	}
	if out.RecommendedStatus == "" {
		out.RecommendedStatus = string(almond.StatusNew)
	}
	if out.Model == "" {
		out.Model = fallbackModel
	}
	return out
}

func classificationResult(res *workflow.Result, fallbackModel string) *ClassificationResult {
	return &ClassificationResult{AnalysisResult: baseResult(res, fallbackModel)}
}

func evolutionResult(res *workflow.Result, fallbackModel string) *EvolutionResult {
	s := res.State
	return &EvolutionResult{
		AnalysisResult:   baseResult(res, fallbackModel),
		ShouldEvolve:     s.ShouldEvolve,
		EvolutionReason:  s.EvolutionReason,
		FromType:         s.FromType,
		ToType:           s.ToType,
		SplitSuggestions: s.SplitSuggestions,
	}
}

func retrospectResult(res *workflow.Result, fallbackModel string) *RetrospectResult {
	s := res.State
	out := &RetrospectResult{
		AnalysisResult: baseResult(res, fallbackModel),
		Achievements:   orEmpty(s.Achievements),
		Learnings:      orEmpty(s.Learnings),
		Improvements:   orEmpty(s.Improvements),
		Patterns:       s.Patterns,
		SpawnAlmonds:   s.SpawnItems,
	}
	// A retrospective always closes the almond, even when analysis failed.
	out.Classification = string(almond.ClassificationCompleted)
	out.RecommendedStatus = string(almond.StatusArchived)
	return out
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
