package main

import (
	"context"
	"net"

	"github.com/spf13/cobra"

	"github.com/spetersoncode/almond/internal/config"
	"github.com/spetersoncode/almond/internal/httpapi"
	"github.com/spetersoncode/almond/internal/logging"
	"github.com/spetersoncode/almond/mcp"
)

func newServeCmd(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workflow API over HTTP",
		Long: `Starts the HTTP API. Workflow routes live under /v1/workflow and stream
AG-UI events at /v1/workflow/stream/:variant. Prometheus metrics are served
at /metrics. The server shuts down gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *configPath, func(ctx context.Context, a *app) error {
				if addr == "" {
					addr = net.JoinHostPort("", a.cfg.Port)
				}
				srv := httpapi.New(a.analyzer,
					httpapi.WithMetrics(a.metrics.Handler()),
					httpapi.WithToken(a.cfg.APIToken),
					httpapi.WithLogger(logging.New("http")),
				)
				return srv.ListenAndServe(ctx, addr)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default :$ALMOND_PORT)")
	return cmd
}

func newMCPCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the workflows as MCP tools over stdio",
		Long: `Starts an MCP server over stdin/stdout exposing classify_almond,
evolve_almond, retrospect_almond and understand_almond. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *configPath, func(_ context.Context, a *app) error {
				a.logger.Info("starting MCP server over stdio")
				return mcp.ServeStdio(a.analyzer, mcp.WithVersion(config.Version))
			})
		},
	}
}
