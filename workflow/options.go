package workflow

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// DefaultThreshold is the confidence below which classification defers
// to needs_more_info.
const DefaultThreshold = 0.7

// maxSteps bounds a run; no graph is deeper than three nodes.
const maxSteps = 8

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithThreshold sets the confidence threshold used at the classification
// branch. Without it the engine takes the node set's threshold if the node
// set reports one, and DefaultThreshold otherwise.
func WithThreshold(t float64) EngineOption {
	return func(e *Engine) {
		e.threshold = t
	}
}

type thresholdKey struct{}

// withThreshold makes the running engine's threshold visible to its nodes.
func withThreshold(ctx context.Context, t float64) context.Context {
	return context.WithValue(ctx, thresholdKey{}, t)
}

// thresholdFrom returns the threshold of the engine running the node, or
// fallback when the node is called directly.
func thresholdFrom(ctx context.Context, fallback float64) float64 {
	if t, ok := ctx.Value(thresholdKey{}).(float64); ok {
		return t
	}
	return fallback
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithOnNodeComplete registers a hook invoked synchronously after every node.
func WithOnNodeComplete(fn func(NodeEvent)) EngineOption {
	return func(e *Engine) {
		e.onNode = append(e.onNode, fn)
	}
}

// WithOnRunComplete registers a hook invoked synchronously after every run.
func WithOnRunComplete(fn func(*Result)) EngineOption {
	return func(e *Engine) {
		e.onRun = append(e.onRun, fn)
	}
}

// WithTracer sets the tracer used for run and node spans.
// Defaults to the global OpenTelemetry tracer provider.
func WithTracer(t trace.Tracer) EngineOption {
	return func(e *Engine) {
		e.tracer = t
	}
}

func defaultTracer() trace.Tracer {
	return otel.Tracer("github.com/spetersoncode/almond/workflow")
}
