// Package analyzer is the request-level glue between callers and the
// workflow engine.
//
// It validates requests, synthesizes a missing title or content from
// freeform text, builds the initial [workflow.State], runs the matching
// variant and maps the terminal state to a flat result:
//
//	a := analyzer.New(workflow.RegistryResolver(reg), analyzer.Config{
//	    Provider: almond.ProviderQwen,
//	})
//	res, err := a.Classify(ctx, &analyzer.ClassifyRequest{Text: "call mom on sunday"})
//	if err != nil {
//	    return err // invalid request
//	}
//	if !res.Success {
//	    log.Printf("analysis failed: %s", *res.ErrorMessage)
//	}
//
// Analysis failures never surface as errors. They are reported through
// Success and ErrorMessage, with the rest of the result holding safe
// defaults.
package analyzer
