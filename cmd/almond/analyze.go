package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/spetersoncode/almond/analyzer"
)

// genFlags are the per-request generation overrides shared by the
// analysis commands.
type genFlags struct {
	model       string
	temperature float64
	maxTokens   int
}

func (f *genFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.model, "model", "", "override the configured model")
	cmd.Flags().Float64Var(&f.temperature, "temperature", 0, "override the sampling temperature")
	cmd.Flags().IntVar(&f.maxTokens, "max-tokens", 0, "override the completion token limit")
}

func (f *genFlags) apply(cmd *cobra.Command, g *analyzer.Generation) {
	if f.model != "" {
		g.Model = f.model
	}
	if cmd.Flags().Changed("temperature") {
		g.Temperature = &f.temperature
	}
	if cmd.Flags().Changed("max-tokens") {
		g.MaxTokens = &f.maxTokens
	}
}

// analysisCmd builds a command that runs one analyzer operation and prints
// the result as indented JSON. bind registers the request flags; --input
// reads a JSON request from a file, or stdin for "-", and its fields take
// precedence over flags.
func analysisCmd[Req, Res any](
	configPath *string,
	cmd *cobra.Command,
	bind func(cmd *cobra.Command, req *Req) *analyzer.Generation,
	op func(a *analyzer.Analyzer) func(context.Context, *Req) (Res, error),
) *cobra.Command {
	var (
		req   Req
		gen   genFlags
		input string
	)
	g := bind(cmd, &req)
	gen.register(cmd)
	cmd.Flags().StringVarP(&input, "input", "i", "", `read the request as JSON from a file ("-" for stdin)`)
	cmd.Args = cobra.NoArgs

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		gen.apply(cmd, g)
		if input != "" {
			if err := readRequest(cmd.InOrStdin(), input, &req); err != nil {
				return err
			}
		}
		return withApp(cmd.Context(), *configPath, func(ctx context.Context, a *app) error {
			res, err := op(a.analyzer)(ctx, &req)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		})
	}
	return cmd
}

func newClassifyCmd(configPath *string) *cobra.Command {
	return analysisCmd(configPath,
		&cobra.Command{
			Use:   "classify",
			Short: "Classify an almond",
			Long:  "Runs the classification workflow. Missing title or content is derived from --text.",
		},
		func(cmd *cobra.Command, req *analyzer.ClassifyRequest) *analyzer.Generation {
			cmd.Flags().StringVar(&req.Title, "title", "", "almond title")
			cmd.Flags().StringVar(&req.Content, "content", "", "almond content")
			cmd.Flags().StringVar(&req.Text, "text", "", "freeform input")
			cmd.Flags().StringVar(&req.Context, "context", "", "additional context")
			return &req.Generation
		},
		func(a *analyzer.Analyzer) func(context.Context, *analyzer.ClassifyRequest) (*analyzer.ClassificationResult, error) {
			return a.Classify
		},
	)
}

func newUnderstandCmd(configPath *string) *cobra.Command {
	return analysisCmd(configPath,
		&cobra.Command{
			Use:   "understand",
			Short: "Clarify freeform input into a title, tags and intent",
		},
		func(cmd *cobra.Command, req *analyzer.UnderstandRequest) *analyzer.Generation {
			cmd.Flags().StringVar(&req.Title, "title", "", "almond title")
			cmd.Flags().StringVar(&req.Content, "content", "", "almond content")
			cmd.Flags().StringVar(&req.Text, "text", "", "freeform input")
			return &req.Generation
		},
		func(a *analyzer.Analyzer) func(context.Context, *analyzer.UnderstandRequest) (*analyzer.UnderstandingResult, error) {
			return a.Understand
		},
	)
}

func newEvolveCmd(configPath *string) *cobra.Command {
	return analysisCmd(configPath,
		&cobra.Command{
			Use:   "evolve",
			Short: "Decide whether an almond should change type after a user interaction",
		},
		func(cmd *cobra.Command, req *analyzer.EvolutionRequest) *analyzer.Generation {
			cmd.Flags().StringVar(&req.Title, "title", "", "almond title")
			cmd.Flags().StringVar(&req.Content, "content", "", "almond content")
			cmd.Flags().StringVar(&req.CurrentType, "type", "", "current almond type")
			cmd.Flags().StringVar(&req.CurrentState, "state", "", "current almond state")
			cmd.Flags().StringVar(&req.UserBehavior, "behavior", "", "user behavior (view, edit, complete, defer, split, merge, link, review, comment)")
			cmd.Flags().IntVar(&req.BehaviorCount, "count", 0, "how many times the behavior occurred")
			cmd.Flags().StringVar(&req.CreatedAt, "created", "", "creation date")
			cmd.Flags().IntVar(&req.CompletionTimes, "completions", 0, "number of past completions")
			return &req.Generation
		},
		func(a *analyzer.Analyzer) func(context.Context, *analyzer.EvolutionRequest) (*analyzer.EvolutionResult, error) {
			return a.Evolve
		},
	)
}

func newRetrospectCmd(configPath *string) *cobra.Command {
	return analysisCmd(configPath,
		&cobra.Command{
			Use:   "retrospect",
			Short: "Review a completed almond",
		},
		func(cmd *cobra.Command, req *analyzer.RetrospectRequest) *analyzer.Generation {
			cmd.Flags().StringVar(&req.Title, "title", "", "almond title")
			cmd.Flags().StringVar(&req.Content, "content", "", "almond content")
			cmd.Flags().StringVar(&req.CreatedAt, "created", "", "creation date")
			cmd.Flags().StringVar(&req.CompletedAt, "completed", "", "completion date")
			cmd.Flags().StringVar(&req.CompletionData, "data", "", "completion notes")
			return &req.Generation
		},
		func(a *analyzer.Analyzer) func(context.Context, *analyzer.RetrospectRequest) (*analyzer.RetrospectResult, error) {
			return a.Retrospect
		},
	)
}

// errUnavailable is returned by the health command when the backend does
// not answer.
var errUnavailable = errors.New("backend unavailable")

func newHealthCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the configured backend answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), *configPath, func(ctx context.Context, a *app) error {
				h := a.analyzer.Health(ctx)
				if err := printJSON(cmd.OutOrStdout(), h); err != nil {
					return err
				}
				if !h.Available {
					return errUnavailable
				}
				return nil
			})
		},
	}
}

func readRequest(stdin io.Reader, path string, v any) error {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decode input: %w", err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
