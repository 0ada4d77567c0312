package almond

import "context"

// ChatProvider is implemented by every text-generation backend.
// Each Chat invocation performs exactly one outbound request.
type ChatProvider interface {
	Chat(ctx context.Context, messages []Message, opts ...Option) (*Response, error)
}

// TextGenerator is the uniform client contract used by workflow steps.
type TextGenerator interface {
	// Generate sends one chat-style request built from the prompt and the
	// optional system prompt. Transient failures are retried.
	Generate(ctx context.Context, prompt, systemPrompt string, opts ...Option) (*Response, error)

	// GenerateStructured is like Generate but instructs the backend to reply
	// with a single JSON object and validates the reply.
	GenerateStructured(ctx context.Context, prompt, systemPrompt string, opts ...Option) (*Response, error)

	// HealthCheck reports whether the backend answers a trivial prompt.
	HealthCheck(ctx context.Context) bool
}
