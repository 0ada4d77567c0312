package analyzer

import (
	"context"
	"strings"
	"time"

	"github.com/spetersoncode/almond"
	"github.com/spetersoncode/almond/prompt"
)

const (
	understandTemperature = 0.2
	understandMaxTokens   = 400
)

type understanding struct {
	Title         string   `json:"title"`
	ClarifiedText string   `json:"clarified_text"`
	Tags          []string `json:"tags"`
	Confidence    *float64 `json:"confidence"`
	Reasoning     string   `json:"reasoning"`
	Core          *struct {
		Entity  string `json:"entity"`
		Action  string `json:"action"`
		Context string `json:"context"`
	} `json:"core"`
}

// Understand clarifies raw input without running a workflow: one sentence
// restating the intent, a short title, tags and the core entity, action and
// context. The error is non-nil only for an invalid request.
func (a *Analyzer) Understand(ctx context.Context, req *UnderstandRequest) (*UnderstandingResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	source := firstNonEmpty(req.Text, req.Content, req.Title)
	title, _, _ := a.enrich(ctx, req.Title, req.Content, req.Text, req.Generation)

	out, resp, err := structured[understanding](ctx, a, req.Generation, prompt.Understanding(source), prompt.UnderstandingSystem,
		almond.WithTemperature(understandTemperature), almond.WithMaxTokens(understandMaxTokens))
	if err != nil {
		msg := err.Error()
		a.logger.WarnContext(ctx, "understanding failed", "error", err)
		return &UnderstandingResult{
			Confidence:        0,
			Reasoning:         "analysis failed",
			RecommendedStatus: string(almond.StatusNew),
			Title:             firstNonEmpty(req.Title, truncate(strings.TrimSpace(req.Text), fallbackTitleRunes)),
			Model:             a.model(req.Generation),
			CostTimeMs:        time.Since(start).Milliseconds(),
			ErrorMessage:      &msg,
		}, nil
	}

	conf := 0.5
	if out.Confidence != nil {
		conf = almond.ClampConfidence(*out.Confidence)
	}
	result := &UnderstandingResult{
		Success:           true,
		Confidence:        conf,
		Reasoning:         out.Reasoning,
		RecommendedStatus: string(almond.StatusUnderstood),
		Title:             firstNonEmpty(out.Title, title),
		ClarifiedText:     strings.TrimSpace(out.ClarifiedText),
		Tags:              out.Tags,
		Model:             resp.Model,
		CostTimeMs:        time.Since(start).Milliseconds(),
	}
	if out.Core != nil {
		result.Core = &UnderstandingCore{
			Entity:  out.Core.Entity,
			Action:  out.Core.Action,
			Context: out.Core.Context,
		}
	}
	return result, nil
}
