// Package anthropic provides an Anthropic Claude chat backend implementing
// [almond.ChatProvider].
//
// System messages are sent through the Messages API system field. Anthropic
// has no JSON response mode, so structured output relies on the instruction
// the almond client appends to the system prompt.
//
//	c := anthropic.New(os.Getenv("ANTHROPIC_API_KEY"))
//	resp, err := c.Chat(ctx, []almond.Message{almond.NewUserMessage("Hello")})
package anthropic
