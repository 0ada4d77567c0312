// Package mcp exposes almond analyses as MCP (Model Context Protocol)
// tools so assistants can classify and evolve notes directly.
//
// Tools:
//
//   - classify_almond: run the classification workflow
//   - evolve_almond: run the evolution workflow
//   - retrospect_almond: run the retrospect workflow
//   - understand_almond: clarify raw input without a workflow
//
// Each tool returns the analyzer result as JSON text. A failed analysis is
// still a successful tool call with "success": false in the payload; only
// invalid arguments produce tool errors.
//
//	if err := mcp.ServeStdio(a); err != nil {
//	    log.Fatal(err)
//	}
package mcp
