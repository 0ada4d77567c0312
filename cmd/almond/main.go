// Command almond classifies, evolves and reviews almonds from the command
// line, over HTTP or as an MCP tool server.
//
// Usage:
//
//	almond serve                     # HTTP API on $ALMOND_PORT
//	almond classify --text "buy milk"
//	almond evolve --title t --content c --type action --state action --behavior defer
//	almond retrospect --title t --content c --created 2025-01-01 --completed 2025-02-01
//	almond mcp                       # MCP server over stdio
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spetersoncode/almond/internal/config"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "almond",
		Short: "AI classification for almonds",
		Long: "Almond runs the classification, evolution and retrospect workflows\n" +
			"against a configured text-generation backend.",
		Version:       config.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file (default $ALMOND_CONFIG)")

	root.AddCommand(
		newServeCmd(&configPath),
		newClassifyCmd(&configPath),
		newEvolveCmd(&configPath),
		newRetrospectCmd(&configPath),
		newUnderstandCmd(&configPath),
		newHealthCmd(&configPath),
		newMCPCmd(&configPath),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
