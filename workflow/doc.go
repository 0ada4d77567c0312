// Package workflow runs the almond analysis state machines.
//
// A run threads a [State] through a fixed graph of named nodes. Each node
// returns a partial [Update] that is merged into the state before the
// transition table picks the next node. Three graphs exist:
//
//   - classification: understand, then classify or needs_more_info
//   - evolution: evolution_analyze
//   - retrospect: retrospect
//
// Every node can divert the run to the error node, which always produces a
// well-formed terminal state. A run never panics and never returns an
// error; inspect [Result.Err] or the state's ErrorMessage instead.
//
// # Basic Usage
//
//	steps := workflow.NewSteps(workflow.RegistryResolver(reg), workflow.Settings{
//	    Provider: almond.ProviderQwen,
//	})
//	engine := workflow.NewEngine(steps)
//
//	result := engine.Run(ctx, workflow.VariantClassification,
//	    workflow.NewState("Buy groceries", "Eggs and bread tomorrow"))
//	if err := result.Err(); err != nil {
//	    log.Printf("analysis failed: %v", err)
//	}
//
// # Streaming
//
// [Engine.RunStream] emits one event per node in execution order, followed
// by a run_end event carrying the terminal state:
//
//	for ev := range engine.RunStream(ctx, workflow.VariantEvolution, state) {
//	    if ev.Type == workflow.EventNodeComplete {
//	        fmt.Println(ev.Node, ev.State.Confidence)
//	    }
//	}
//
// Sends block until the consumer receives. Cancel the context to stop early;
// a deadline instead ends the run through the error node and the stream
// still carries it to [EventRunEnd].
//
// # Custom Nodes
//
// Tests and embedders can replace any node with a [NodeMap]:
//
//	engine := workflow.NewEngine(workflow.NodeMap{
//	    workflow.NodeRetrospect: func(ctx context.Context, s workflow.State) workflow.Update {
//	        return workflow.Update{WorkflowComplete: ptr(true)}
//	    },
//	})
//
// A missing error node falls back to the built-in one.
package workflow
