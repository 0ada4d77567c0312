// Package client provides the text-generation client and the provider
// registry that hands out cached clients by provider name.
//
// A Client wraps one backend and provides:
//
//   - Uniform generation: Generate, GenerateStructured and HealthCheck
//   - Automatic retries: exponential backoff for transient provider errors
//   - Per-attempt timeouts derived from the caller's context
//   - Event emission: observable operations via channel
//
// # Basic Usage
//
// Resolve a client from a registry configured with API keys:
//
//	reg := client.NewRegistry(client.Config{
//	    APIKeys: client.APIKeys{
//	        Qwen:      os.Getenv("DASHSCOPE_API_KEY"),
//	        Anthropic: os.Getenv("ANTHROPIC_API_KEY"),
//	    },
//	})
//
//	c, err := reg.Resolve(ctx, "qwen", "")
//	resp, err := c.GenerateStructured(ctx, prompt, systemPrompt)
//
// Resolved clients are cached per provider and model, so repeated calls
// share one client. Per-call options override the client's defaults without
// mutating it:
//
//	resp, err := c.Generate(ctx, prompt, "", almond.WithTemperature(0.2))
//
// # Structured Output
//
// GenerateStructured appends a JSON-only instruction to the system prompt,
// enables the backend's JSON mode where one exists and strips code fences
// from the reply. A reply that still fails to parse is reported as an
// [almond.InvalidStructuredResponseError] and is never retried.
//
// Use Decode to unmarshal the result:
//
//	out, err := client.Decode[Result](resp)
//
// # Retry Configuration
//
// Transient errors (rate limits, timeouts, 5xx errors) are retried three
// times in total with 2s, 4s backoff capped at 10s. Customize:
//
//	reg := client.NewRegistry(client.Config{
//	    APIKeys:     client.APIKeys{OpenAI: os.Getenv("OPENAI_API_KEY")},
//	    RetryConfig: &retry.Config{MaxAttempts: 5, InitialDelay: 500 * time.Millisecond},
//	})
//
// # Events
//
// Observe operations via an event channel:
//
//	events := make(chan client.Event, 100)
//	reg := client.NewRegistry(client.Config{APIKeys: keys, Events: events})
//
//	go func() {
//	    for e := range events {
//	        fmt.Printf("[%s] %s took %v\n", e.Type, e.Operation, e.Duration)
//	    }
//	}()
package client
