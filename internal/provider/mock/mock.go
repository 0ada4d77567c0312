// Package mock provides a deterministic, offline [almond.ChatProvider].
//
// Without a script it echoes the conversation, which makes it usable for
// local runs without credentials. With a script it replays canned replies
// and errors in order, which is how tests drive the client and the workflow.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	ai "github.com/spetersoncode/almond"
)

// Reply is one scripted backend answer.
type Reply struct {
	Content string
	Err     error
}

// Client is a scripted chat backend.
type Client struct {
	model string

	mu       sync.Mutex
	script   []Reply
	calls    int
	requests [][]ai.Message
}

// Option configures the mock client.
type Option func(*Client)

// WithModel sets the model name reported in responses.
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// WithReplies scripts the replies returned by successive calls.
// Once the script is exhausted the client falls back to echoing.
func WithReplies(replies ...Reply) Option {
	return func(c *Client) {
		c.script = append(c.script, replies...)
	}
}

// New creates a mock client.
func New(opts ...Option) *Client {
	c := &Client{model: ai.ProviderMock.DefaultModel()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ ai.ChatProvider = (*Client)(nil)

// Chat returns the next scripted reply, or an echo of the conversation.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, ai.NewTransientError(ai.ProviderMock, "request cancelled", 0, err)
	}
	options := ai.ApplyOptions(opts...)
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	c.mu.Lock()
	idx := c.calls
	c.calls++
	c.requests = append(c.requests, append([]ai.Message(nil), messages...))
	var reply *Reply
	if idx < len(c.script) {
		reply = &c.script[idx]
	}
	c.mu.Unlock()

	if reply != nil {
		if reply.Err != nil {
			return nil, reply.Err
		}
		return c.response(model, messages, reply.Content), nil
	}

	return c.response(model, messages, echo(model, messages, options.JSONMode)), nil
}

// Calls returns the number of Chat invocations.
func (c *Client) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Requests returns a copy of the conversations received so far.
func (c *Client) Requests() [][]ai.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]ai.Message, len(c.requests))
	copy(out, c.requests)
	return out
}

func (c *Client) response(model string, messages []ai.Message, content string) *ai.Response {
	prompt := 0
	for _, m := range messages {
		prompt += len(strings.Fields(m.Content))
	}
	completion := len(strings.Fields(content))
	return &ai.Response{
		Content: content,
		Model:   model,
		Usage:   ai.NewUsage(prompt, completion, 0),
		Raw:     map[string]any{"provider": "mock"},
	}
}

// echo mirrors the conversation. In JSON mode the echo is wrapped in an
// object that every workflow step accepts as a low-confidence answer.
func echo(model string, messages []ai.Message, jsonMode bool) string {
	parts := make([]string, 0, len(messages))
	for _, m := range messages {
		parts = append(parts, m.Content)
	}
	text := fmt.Sprintf("[mock:%s] %s", model, strings.Join(parts, "\n"))
	if !jsonMode {
		return text
	}
	data, _ := json.Marshal(map[string]any{
		"classification": string(ai.ClassificationUnclear),
		"confidence":     0.0,
		"reasoning":      text,
		"title":          "",
		"content":        "",
	})
	return string(data)
}
