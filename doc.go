// Package almond classifies short free-text notes ("almonds") with the help of
// an external text-generation backend.
//
// The root package holds the shared vocabulary: messages and responses,
// generation options, the provider set, the domain enums and the error
// taxonomy. The moving parts live in sub-packages:
//
//   - [github.com/spetersoncode/almond/client]: the Text-Generation Client and
//     the Provider Registry that caches one client per provider and model.
//   - [github.com/spetersoncode/almond/workflow]: the analysis state, the step
//     library and the state-machine engine that runs the classification,
//     evolution and retrospect variants.
//   - [github.com/spetersoncode/almond/analyzer]: request-level glue that
//     enriches input, runs a variant and maps the terminal state to a result.
//
// # Basic Usage
//
//	reg := client.NewRegistry(client.Config{
//	    APIKeys: client.APIKeys{Qwen: os.Getenv("DASHSCOPE_API_KEY")},
//	})
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
//	fmt.Println(*result.State.Classification)
//
// # Errors
//
// Backend failures surface as [*ProviderError] values categorized as
// transient, permanent or user input. Only transient ones are retried.
// Replies that are not valid JSON surface as [*InvalidStructuredResponseError]
// and are never retried. Resolution failures are [*ConfigurationError] and
// [*UnsupportedProviderError].
package almond
