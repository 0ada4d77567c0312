package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/spetersoncode/almond/analyzer"
)

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	name    string
	version string
}

// WithName sets the server name reported to MCP clients.
func WithName(name string) ServerOption {
	return func(c *serverConfig) {
		c.name = name
	}
}

// WithVersion sets the server version reported to MCP clients.
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) {
		c.version = version
	}
}

// NewServer creates an MCP server exposing the analyzer's workflows as
// tools: classify_almond, evolve_almond, retrospect_almond and
// understand_almond.
//
// Example:
//
//	s := mcp.NewServer(a, mcp.WithVersion("0.1.0"))
//	server.ServeStdio(s)
func NewServer(a *analyzer.Analyzer, opts ...ServerOption) *server.MCPServer {
	cfg := &serverConfig{
		name:    "almond-mcp-server",
		version: analyzer.DefaultVersion,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := server.NewMCPServer(
		cfg.name,
		cfg.version,
		server.WithToolCapabilities(false),
	)

	s.AddTool(classifyTool(), handle(a.Classify))
	s.AddTool(evolveTool(), handle(a.Evolve))
	s.AddTool(retrospectTool(), handle(a.Retrospect))
	s.AddTool(understandTool(), handle(a.Understand))

	return s
}

// handle binds tool arguments into a request, runs it and returns the
// result as JSON text. Invalid requests become tool errors; analysis
// failures are reported inside the result.
func handle[Req, Res any](run func(context.Context, *Req) (Res, error)) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		in := new(Req)
		if err := req.BindArguments(in); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		res, err := run(ctx, in)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		data, err := json.Marshal(res)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// ServeStdio starts an MCP server that communicates over stdin/stdout.
// This is the standard transport for MCP servers invoked as subprocesses.
func ServeStdio(a *analyzer.Analyzer, opts ...ServerOption) error {
	s := NewServer(a, opts...)
	return server.ServeStdio(s)
}
