package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// NodeFunc executes one node. It must not panic or block past ctx, and
// reports every failure through the returned update.
type NodeFunc func(ctx context.Context, s State) Update

// NodeSet supplies node implementations to an Engine.
type NodeSet interface {
	Node(id NodeID) (NodeFunc, bool)
}

// NodeMap is a NodeSet backed by a map.
type NodeMap map[NodeID]NodeFunc

// Node implements NodeSet.
func (m NodeMap) Node(id NodeID) (NodeFunc, bool) {
	fn, ok := m[id]
	return fn, ok
}

// TerminationReason indicates why the run stopped.
type TerminationReason string

const (
	// TerminationComplete indicates normal completion.
	TerminationComplete TerminationReason = "complete"

	// TerminationError indicates the run ended on the error path.
	TerminationError TerminationReason = "error"

	// TerminationCancelled indicates context cancellation.
	TerminationCancelled TerminationReason = "cancelled"

	// TerminationTimeout indicates the deadline was exceeded.
	TerminationTimeout TerminationReason = "timeout"
)

// Result is the outcome of a run. State is always a well-formed terminal
// state, including on the error path.
type Result struct {
	RunID       string            `json:"runId"`
	Variant     Variant           `json:"variant"`
	State       State             `json:"state"`
	Path        []NodeID          `json:"path"`
	Termination TerminationReason `json:"termination"`

	// FailedNode is the node whose update first set errorMessage.
	FailedNode NodeID `json:"failedNode,omitempty"`
}

// Err converts a non-complete termination into an error.
func (r *Result) Err() error {
	switch r.Termination {
	case TerminationComplete:
		return nil
	case TerminationCancelled:
		return ErrWorkflowCancelled
	case TerminationTimeout:
		return ErrWorkflowTimeout
	}
	msg := "analysis failed"
	if r.State.ErrorMessage != nil {
		msg = *r.State.ErrorMessage
	}
	return &NodeFailure{Node: r.FailedNode, Message: msg}
}

// Engine runs workflow variants over a set of nodes. It is safe for
// concurrent use; runs share nothing but the node set.
type Engine struct {
	nodes     NodeSet
	threshold float64
	logger    *slog.Logger
	tracer    trace.Tracer
	onNode    []func(NodeEvent)
	onRun     []func(*Result)
}

// NewEngine creates an engine over nodes.
func NewEngine(nodes NodeSet, opts ...EngineOption) *Engine {
	e := &Engine{
		nodes:     nodes,
		threshold: DefaultThreshold,
		logger:    slog.Default(),
		tracer:    defaultTracer(),
	}
	if ts, ok := nodes.(interface{ Threshold() float64 }); ok {
		e.threshold = ts.Threshold()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes variant starting from state and returns the terminal result.
// Run never panics; failures are reported through the result's state.
func (e *Engine) Run(ctx context.Context, variant Variant, state State) *Result {
	return e.run(ctx, variant, state, nil)
}

// RunStream executes variant and streams its events. The channel is closed
// after EventRunEnd. Sends block until the consumer receives; a consumer
// stops early by cancelling ctx. When ctx reaches its deadline the run still
// ends through the error node and those events, EventRunEnd included, are
// delivered, so consumers read until the channel closes.
func (e *Engine) RunStream(ctx context.Context, variant Variant, state State) <-chan Event {
	ch := make(chan Event)
	go func() {
		defer close(ch)
		e.run(ctx, variant, state, func(ev Event) bool {
			ev.Timestamp = time.Now()
			if consumerStopped(ctx) {
				return false
			}
			select {
			case ch <- ev:
				return true
			case <-ctx.Done():
				if consumerStopped(ctx) {
					return false
				}
			}
			ch <- ev
			return true
		})
	}()
	return ch
}

// consumerStopped reports whether ctx was cancelled, as opposed to timing out.
func consumerStopped(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.Canceled)
}

// emitter delivers an event and reports whether the consumer is still listening.
type emitter func(Event) bool

func (e *Engine) run(ctx context.Context, variant Variant, state State, send emitter) *Result {
	res := &Result{RunID: uuid.NewString(), Variant: variant}
	listening := send != nil
	emit := func(ev Event) {
		if listening {
			ev.RunID, ev.Variant = res.RunID, variant
			listening = send(ev)
		}
	}

	ctx = withThreshold(ctx, e.threshold)
	ctx, span := e.tracer.Start(ctx, "workflow.run", trace.WithAttributes(
		attribute.String("almond.run_id", res.RunID),
		attribute.String("almond.variant", string(variant)),
	))
	defer span.End()

	log := e.logger.With("run_id", res.RunID, "variant", variant)
	log.DebugContext(ctx, "workflow run started")
	emit(Event{Type: EventRunStart})

	var ctxErr error
	g, ok := graphs[variant]
	node := g.entry
	switch {
	case !ok:
		state = state.Apply(failure(state, fmt.Errorf("%w: %q", ErrUnknownVariant, variant), 0))
		node = NodeError
	default:
		if err := state.Validate(); err != nil {
			state = state.Apply(failure(state, fmt.Errorf("%w: %w", ErrInvalidState, err), 0))
			node = NodeError
		}
	}

	for step := 0; node != End; step++ {
		if node != NodeError {
			if err := ctx.Err(); err != nil {
				ctxErr = err
				state = state.Apply(failure(state, err, 0))
				node = NodeError
			} else if step >= maxSteps {
				state = state.Apply(failure(state, errors.New("workflow: step limit exceeded"), 0))
				node = NodeError
			} else if _, ok := g.edges[node]; !ok {
				state = state.Apply(failure(state, fmt.Errorf("workflow: node %q is not part of %s", node, variant), 0))
				node = NodeError
			}
		}

		emit(Event{Type: EventNodeStart, Node: node})
		update, elapsed := e.execNode(ctx, variant, node, state)
		failedBefore := state.Failed()
		state = state.Apply(update)
		res.Path = append(res.Path, node)

		if state.Failed() && !failedBefore {
			res.FailedNode = node
			if ctxErr == nil && ctx.Err() != nil {
				ctxErr = ctx.Err()
			}
		}

		ne := NodeEvent{
			RunID:    res.RunID,
			Variant:  variant,
			Node:     node,
			Duration: elapsed,
			Update:   update,
			Failed:   update.ErrorMessage != nil,
		}
		for _, fn := range e.onNode {
			fn(ne)
		}
		u, s := update, state
		emit(Event{Type: EventNodeComplete, Node: node, Update: &u, State: &s, Duration: elapsed})
		log.DebugContext(ctx, "workflow node complete", "node", node, "duration", elapsed)

		node = g.next(node, state, e.threshold)
	}

	res.State = state
	res.Termination = termination(state, ctxErr)
	if res.Termination != TerminationComplete {
		span.SetStatus(codes.Error, string(res.Termination))
		log.InfoContext(ctx, "workflow run ended abnormally",
			"termination", res.Termination, "failed_node", res.FailedNode, "error", res.Err())
	}
	span.SetAttributes(attribute.String("almond.termination", string(res.Termination)))

	for _, fn := range e.onRun {
		fn(res)
	}
	final := state
	emit(Event{Type: EventRunEnd, State: &final, Termination: res.Termination})
	return res
}

func termination(s State, ctxErr error) TerminationReason {
	switch {
	case errors.Is(ctxErr, context.DeadlineExceeded):
		return TerminationTimeout
	case ctxErr != nil:
		return TerminationCancelled
	case s.Failed():
		return TerminationError
	default:
		return TerminationComplete
	}
}

// execNode runs one node inside its own span, converting a missing node or
// a panic into an error update.
func (e *Engine) execNode(ctx context.Context, variant Variant, id NodeID, s State) (u Update, elapsed time.Duration) {
	ctx, span := e.tracer.Start(ctx, "workflow.node", trace.WithAttributes(
		attribute.String("almond.variant", string(variant)),
		attribute.String("almond.node", string(id)),
	))
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			u = failure(s, fmt.Errorf("node %s panicked: %v", id, r), time.Since(start))
		}
		elapsed = time.Since(start)
		if u.ErrorMessage != nil {
			span.SetStatus(codes.Error, *u.ErrorMessage)
		}
		span.End()
	}()

	fn, ok := e.nodes.Node(id)
	if !ok {
		if id == NodeError {
			return errorNode(ctx, s), 0
		}
		return failure(s, fmt.Errorf("workflow: no implementation for node %q", id), 0), 0
	}
	return fn(ctx, s), 0
}
