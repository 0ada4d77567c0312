// Package agui adapts almond workflow runs to the AG-UI protocol.
//
// AG-UI (Agent-User Interface) is an event-based protocol that standardizes
// how agents connect to user-facing applications. This package converts
// [workflow.Event] streams into AG-UI events. It does not provide a
// transport; the HTTP layer writes the events as server-sent events.
//
// # Usage
//
//	var input agui.RunWorkflowInput
//	// decode request body into input
//	prepared, err := input.Prepare("classification")
//	req, _ := analyzer.NewRequest(prepared.Variant)
//	err = prepared.DecodeState(req)
//
//	mapper := agui.NewMapper(prepared.ThreadID, prepared.RunID)
//	wfEvents, err := a.Stream(ctx, req)
//	for ev := range mapper.MapStream(ctx, wfEvents) {
//	    writeEvent(ev)
//	}
//
// # Event Mapping
//
//   - run_start: RUN_STARTED
//   - node_start: STEP_STARTED named after the node
//   - node_complete: STEP_FINISHED, then STATE_SNAPSHOT with the merged state
//   - run_end: MESSAGES_SNAPSHOT of the audit log, then RUN_FINISHED, or
//     RUN_ERROR when the run ended on the error path, was cancelled or
//     timed out
//
// # Thread Safety
//
// The Mapper is NOT safe for concurrent use. Each run should have its own
// Mapper instance.
package agui
