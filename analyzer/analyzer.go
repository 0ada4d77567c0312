package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spetersoncode/almond"
	"github.com/spetersoncode/almond/workflow"
)

const (
	// DefaultMaxConcurrent bounds ClassifyBatch fan-out.
	DefaultMaxConcurrent = 100

	// MaxBatchSize is the largest batch ClassifyBatch accepts.
	MaxBatchSize = 100

	// DefaultVersion is reported by Health when none is configured.
	DefaultVersion = "0.1.0"
)

// Config configures an Analyzer.
type Config struct {
	// Provider and Model select the default backend.
	Provider almond.Provider
	Model    string

	// Options are generation defaults applied to every workflow call.
	Options []almond.Option

	// Threshold is the classification confidence threshold.
	Threshold float64

	// EvolutionTrigger is the repeated-defer count that prompts goal
	// evolution. Zero uses the prompt default.
	EvolutionTrigger int

	// MaxConcurrent bounds ClassifyBatch fan-out.
	MaxConcurrent int

	Version string
	Logger  *slog.Logger

	// EngineOptions are appended to every engine the analyzer builds.
	EngineOptions []workflow.EngineOption
}

// Analyzer is the request-level entry point. It validates requests, builds
// initial states, runs workflows and maps terminal states to results.
// It is safe for concurrent use.
type Analyzer struct {
	resolver   workflow.Resolver
	cfg        Config
	engineOpts []workflow.EngineOption
	engine     *workflow.Engine
	logger     *slog.Logger
}

// New creates an Analyzer that resolves backends through resolver.
func New(resolver workflow.Resolver, cfg Config) *Analyzer {
	if cfg.Provider == "" {
		cfg.Provider = almond.ProviderQwen
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = workflow.DefaultThreshold
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	a := &Analyzer{resolver: resolver, cfg: cfg, logger: cfg.Logger}
	a.engineOpts = append([]workflow.EngineOption{
		workflow.WithThreshold(cfg.Threshold),
		workflow.WithLogger(cfg.Logger),
	}, cfg.EngineOptions...)
	a.engine = workflow.NewEngine(workflow.NewSteps(resolver, a.settings(Generation{})), a.engineOpts...)
	return a
}

func (a *Analyzer) settings(g Generation) workflow.Settings {
	model := a.cfg.Model
	if g.Model != "" {
		model = g.Model
	}
	return workflow.Settings{
		Provider:  a.cfg.Provider,
		Model:     model,
		Threshold: a.cfg.Threshold,
		Options:   append(append([]almond.Option(nil), a.cfg.Options...), g.options()...),

		EvolutionTrigger: a.cfg.EvolutionTrigger,
	}
}

// engineFor returns the shared engine unless the request overrides generation.
func (a *Analyzer) engineFor(g Generation) *workflow.Engine {
	if g == (Generation{}) {
		return a.engine
	}
	return workflow.NewEngine(workflow.NewSteps(a.resolver, a.settings(g)), a.engineOpts...)
}

// model names the model a request would use, for results where no
// backend answered.
func (a *Analyzer) model(g Generation) string {
	switch {
	case g.Model != "":
		return g.Model
	case a.cfg.Model != "":
		return a.cfg.Model
	}
	return a.cfg.Provider.DefaultModel()
}

// Request is implemented by the workflow request types.
type Request interface {
	Validate() error
	variant() workflow.Variant
	generation() Generation
}

func (g Generation) generation() Generation { return g }

func (r *ClassifyRequest) variant() workflow.Variant   { return workflow.VariantClassification }
func (r *EvolutionRequest) variant() workflow.Variant  { return workflow.VariantEvolution }
func (r *RetrospectRequest) variant() workflow.Variant { return workflow.VariantRetrospect }

// NewRequest returns an empty request for variant, ready to be decoded into.
func NewRequest(variant workflow.Variant) (Request, error) {
	switch variant {
	case workflow.VariantClassification:
		return &ClassifyRequest{}, nil
	case workflow.VariantEvolution:
		return &EvolutionRequest{}, nil
	case workflow.VariantRetrospect:
		return &RetrospectRequest{}, nil
	}
	return nil, fmt.Errorf("%w: %q", workflow.ErrUnknownVariant, variant)
}

// initialState builds the fully populated state a workflow starts from.
func (a *Analyzer) initialState(ctx context.Context, req Request) workflow.State {
	switch r := req.(type) {
	case *ClassifyRequest:
		title, content, elapsed := a.enrich(ctx, r.Title, r.Content, r.Text, r.Generation)
		s := workflow.NewState(title, content)
		s.CostTimeMs = elapsed.Milliseconds()
		s.TaskID, s.UserID = r.TaskID, r.UserID
		s.Text = r.Text
		s.Context = r.Context
		return s
	case *EvolutionRequest:
		s := workflow.NewState(r.Title, r.Content)
		s.TaskID, s.UserID = r.TaskID, r.UserID
		s.CurrentState = r.CurrentState
		s.CurrentType = r.CurrentType
		s.UserBehavior, _ = almond.ParseUserBehavior(r.UserBehavior)
		s.BehaviorCount = r.BehaviorCount
		if s.BehaviorCount == 0 {
			s.BehaviorCount = 1
		}
		s.CreatedAt = r.CreatedAt
		s.CompletionTimes = r.CompletionTimes
		return s
	case *RetrospectRequest:
		s := workflow.NewState(r.Title, r.Content)
		s.TaskID, s.UserID = r.TaskID, r.UserID
		s.CreatedAt = r.CreatedAt
		s.CompletedAt = r.CompletedAt
		s.Context = r.CompletionData
		return s
	}
	panic(fmt.Sprintf("analyzer: unsupported request %T", req))
}

func (a *Analyzer) run(ctx context.Context, req Request) (*workflow.Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	variant := req.variant()
	g := req.generation()
	start := time.Now()

	res := a.engineFor(g).Run(ctx, variant, a.initialState(ctx, req))

	log := a.logger.With("run_id", res.RunID, "variant", variant)
	if res.State.Failed() {
		log.WarnContext(ctx, "analysis failed",
			"termination", res.Termination,
			"failed_node", res.FailedNode,
			"error", *res.State.ErrorMessage,
			"duration_ms", time.Since(start).Milliseconds())
	} else {
		log.InfoContext(ctx, "analysis complete",
			"path", res.Path,
			"confidence", res.State.Confidence,
			"duration_ms", time.Since(start).Milliseconds())
	}
	return res, nil
}

// Classify runs the classification workflow. The error is non-nil only for
// an invalid request; analysis failures are reported in the result.
func (a *Analyzer) Classify(ctx context.Context, req *ClassifyRequest) (*ClassificationResult, error) {
	res, err := a.run(ctx, req)
	if err != nil {
		return nil, err
	}
	return classificationResult(res, a.model(req.Generation)), nil
}

// Evolve runs the evolution workflow.
func (a *Analyzer) Evolve(ctx context.Context, req *EvolutionRequest) (*EvolutionResult, error) {
	res, err := a.run(ctx, req)
	if err != nil {
		return nil, err
	}
	out := evolutionResult(res, a.model(req.Generation))
	if out.FromType == "" {
		out.FromType = req.CurrentType
	}
	if out.ToType == "" {
		out.ToType = req.CurrentType
	}
	return out, nil
}

// Retrospect runs the retrospect workflow.
func (a *Analyzer) Retrospect(ctx context.Context, req *RetrospectRequest) (*RetrospectResult, error) {
	res, err := a.run(ctx, req)
	if err != nil {
		return nil, err
	}
	return retrospectResult(res, a.model(req.Generation)), nil
}

// Stream validates req and streams its workflow run.
func (a *Analyzer) Stream(ctx context.Context, req Request) (<-chan workflow.Event, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	state := a.initialState(ctx, req)
	return a.engineFor(req.generation()).RunStream(ctx, req.variant(), state), nil
}

// Health checks the default backend.
func (a *Analyzer) Health(ctx context.Context) HealthResult {
	out := HealthResult{
		Status:   "degraded",
		Version:  a.cfg.Version,
		Provider: string(a.cfg.Provider),
	}
	gen, err := a.resolver.Resolve(ctx, string(a.cfg.Provider), a.cfg.Model)
	if err != nil {
		a.logger.WarnContext(ctx, "health check could not resolve backend", "error", err)
		return out
	}
	if gen.HealthCheck(ctx) {
		out.Status = "healthy"
		out.Available = true
	}
	return out
}

// truncate returns the first n runes of s.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
