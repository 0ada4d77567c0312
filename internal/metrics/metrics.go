// Package metrics exposes Prometheus metrics for generation calls and
// workflow runs.
package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spetersoncode/almond/client"
	"github.com/spetersoncode/almond/internal/retry"
	"github.com/spetersoncode/almond/workflow"
)

const namespace = "almond"

// Metrics holds the service collectors on a private registry.
// It is safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	generationRequests *prometheus.CounterVec
	generationLatency  *prometheus.HistogramVec
	generationTokens   *prometheus.CounterVec
	retries            *prometheus.CounterVec
	cacheHits          *prometheus.CounterVec

	nodeLatency  *prometheus.HistogramVec
	nodeFailures *prometheus.CounterVec
	workflowRuns *prometheus.CounterVec
}

// New registers all collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		generationRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_requests_total",
			Help:      "Generation requests by provider, operation and outcome.",
		}, []string{"provider", "operation", "outcome"}),
		generationLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Latency of successful generation requests.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
		}, []string{"provider", "operation"}),
		generationTokens: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_tokens_total",
			Help:      "Tokens consumed by provider and kind.",
		}, []string{"provider", "kind"}),
		retries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_retries_total",
			Help:      "Retries scheduled after transient failures.",
		}, []string{"provider"}),
		cacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_cache_hits_total",
			Help:      "Structured requests served from the response cache.",
		}, []string{"provider"}),
		nodeLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_node_duration_seconds",
			Help:      "Duration of workflow node executions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"variant", "node"}),
		nodeFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_node_failures_total",
			Help:      "Node executions that routed to the error path.",
		}, []string{"variant", "node"}),
		workflowRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_runs_total",
			Help:      "Workflow runs by variant and termination.",
		}, []string{"variant", "termination"}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveClient records a single client event.
func (m *Metrics) ObserveClient(e client.Event) {
	provider := string(e.Provider)
	switch e.Type {
	case client.EventRequestComplete:
		m.generationRequests.WithLabelValues(provider, e.Operation, "success").Inc()
		m.generationLatency.WithLabelValues(provider, e.Operation).Observe(e.Duration.Seconds())
		if e.Usage != nil {
			m.generationTokens.WithLabelValues(provider, "prompt").Add(float64(e.Usage.PromptTokens))
			m.generationTokens.WithLabelValues(provider, "completion").Add(float64(e.Usage.CompletionTokens))
		}
	case client.EventRequestError:
		m.generationRequests.WithLabelValues(provider, e.Operation, "error").Inc()
	case client.EventCacheHit:
		m.cacheHits.WithLabelValues(provider).Inc()
	case client.EventRetry:
		if e.RetryEvent != nil && e.RetryEvent.Type == retry.EventRetrying {
			m.retries.WithLabelValues(provider).Inc()
		}
	}
}

// Consume records events until the channel closes or ctx is done.
func (m *Metrics) Consume(ctx context.Context, events <-chan client.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			m.ObserveClient(e)
		}
	}
}

// ObserveNode records a completed node.
func (m *Metrics) ObserveNode(e workflow.NodeEvent) {
	m.nodeLatency.WithLabelValues(string(e.Variant), string(e.Node)).Observe(e.Duration.Seconds())
	if e.Failed {
		m.nodeFailures.WithLabelValues(string(e.Variant), string(e.Node)).Inc()
	}
}

// ObserveRun records a finished run.
func (m *Metrics) ObserveRun(r *workflow.Result) {
	m.workflowRuns.WithLabelValues(string(r.Variant), string(r.Termination)).Inc()
}

// EngineOptions returns the hooks that feed node and run metrics.
func (m *Metrics) EngineOptions() []workflow.EngineOption {
	return []workflow.EngineOption{
		workflow.WithOnNodeComplete(m.ObserveNode),
		workflow.WithOnRunComplete(m.ObserveRun),
	}
}
