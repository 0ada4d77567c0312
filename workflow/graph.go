package workflow

import (
	"fmt"
	"strings"
)

// NodeID identifies a node of the workflow graph.
type NodeID string

const (
	NodeUnderstand       NodeID = "understand"
	NodeClassify         NodeID = "classify"
	NodeNeedsMoreInfo    NodeID = "needs_more_info"
	NodeEvolutionAnalyze NodeID = "evolution_analyze"
	NodeRetrospect       NodeID = "retrospect"
	NodeError            NodeID = "error"

	// End is the terminal marker; it is never executed.
	End NodeID = "__end__"
)

// Nodes lists every executable node.
func Nodes() []NodeID {
	return []NodeID{
		NodeUnderstand,
		NodeClassify,
		NodeNeedsMoreInfo,
		NodeEvolutionAnalyze,
		NodeRetrospect,
		NodeError,
	}
}

// Variant selects one of the fixed workflow graphs.
type Variant string

const (
	VariantClassification Variant = "classification"
	VariantEvolution      Variant = "evolution"
	VariantRetrospect     Variant = "retrospect"
)

// Variants lists every workflow variant.
func Variants() []Variant {
	return []Variant{VariantClassification, VariantEvolution, VariantRetrospect}
}

// ParseVariant validates a variant name.
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := graphs[v]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownVariant, s)
	}
	return v, nil
}

// transition picks the node after from, given the merged state.
type transition func(s State, threshold float64) NodeID

type graph struct {
	entry NodeID
	edges map[NodeID]transition
}

func toEnd(State, float64) NodeID { return End }

// afterUnderstand is the classification branch point.
func afterUnderstand(s State, threshold float64) NodeID {
	if s.NextStep != nil {
		switch *s.NextStep {
		case StepError:
			return NodeError
		case StepNeedsMoreInfo:
			return NodeNeedsMoreInfo
		case StepClassify:
			return NodeClassify
		}
	}
	if s.Confidence < threshold {
		return NodeNeedsMoreInfo
	}
	return NodeClassify
}

var graphs = map[Variant]graph{
	VariantClassification: {
		entry: NodeUnderstand,
		edges: map[NodeID]transition{
			NodeUnderstand:    afterUnderstand,
			NodeClassify:      toEnd,
			NodeNeedsMoreInfo: toEnd,
			NodeError:         toEnd,
		},
	},
	VariantEvolution: {
		entry: NodeEvolutionAnalyze,
		edges: map[NodeID]transition{
			NodeEvolutionAnalyze: toEnd,
			NodeError:            toEnd,
		},
	},
	VariantRetrospect: {
		entry: NodeRetrospect,
		edges: map[NodeID]transition{
			NodeRetrospect: toEnd,
			NodeError:      toEnd,
		},
	},
}

// next returns the node to run after from. A node that reports
// nextStep "error" always routes to the error node; otherwise a completed
// state ends the run.
func (g graph) next(from NodeID, s State, threshold float64) NodeID {
	if from == NodeError {
		return End
	}
	if s.NextStep != nil && *s.NextStep == StepError {
		return NodeError
	}
	edge, ok := g.edges[from]
	if !ok {
		return NodeError
	}
	to := edge(s, threshold)
	if s.WorkflowComplete && to != NodeError {
		return End
	}
	return to
}
