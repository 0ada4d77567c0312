package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	ai "github.com/spetersoncode/almond"
)

// jsonInstruction is appended to the caller's system prompt for structured calls.
const jsonInstruction = "Respond with a single valid JSON object and nothing else. " +
	"Do not wrap the JSON in markdown code fences and do not add commentary."

// defaultStructuredSystem is used when a structured call has no system prompt.
const defaultStructuredSystem = "You are a structured JSON assistant."

// Cache stores structured responses keyed by request fingerprint.
// Implementations must be safe for concurrent use; a failed lookup or store
// is treated as a miss.
type Cache interface {
	Get(ctx context.Context, key string) (*ai.Response, bool)
	Set(ctx context.Context, key string, resp *ai.Response)
}

// GenerateStructured asks the backend for a single JSON object. The returned
// response's Content is the JSON body with any code fences removed.
func (c *Client) GenerateStructured(ctx context.Context, prompt, systemPrompt string, opts ...ai.Option) (*ai.Response, error) {
	system := structuredSystemPrompt(systemPrompt)
	opts = append(opts[:len(opts):len(opts)], ai.WithJSONMode())

	var key string
	if c.cache != nil {
		key = c.cacheKey(system, prompt, opts)
		if cached, ok := c.cache.Get(ctx, key); ok {
			emit(c.events, Event{Type: EventCacheHit, Operation: "generate_structured", Provider: c.provider, Model: cached.Model})
			return cached, nil
		}
	}

	resp, err := c.generate(ctx, "generate_structured", buildMessages(prompt, system), opts)
	if err != nil {
		return nil, err
	}

	body := StripFences(resp.Content)
	var probe any
	if err := json.Unmarshal([]byte(body), &probe); err != nil {
		return nil, &ai.InvalidStructuredResponseError{Raw: resp.Content, Cause: err}
	}
	resp.Content = body

	if c.cache != nil {
		c.cache.Set(ctx, key, resp)
	}
	return resp, nil
}

func structuredSystemPrompt(systemPrompt string) string {
	if strings.TrimSpace(systemPrompt) == "" {
		return defaultStructuredSystem + "\n\n" + jsonInstruction
	}
	return systemPrompt + "\n\n" + jsonInstruction
}

// StripFences removes an optional ```json or ``` opening fence and a
// trailing ``` fence, then trims surrounding whitespace.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Decode unmarshals a structured response's content into T.
func Decode[T any](resp *ai.Response) (T, error) {
	var out T
	if resp == nil {
		return out, &ai.InvalidStructuredResponseError{Cause: fmt.Errorf("nil response")}
	}
	if err := json.Unmarshal([]byte(resp.Content), &out); err != nil {
		return out, &ai.InvalidStructuredResponseError{Raw: resp.Content, Cause: err}
	}
	return out, nil
}

// cacheKey fingerprints everything that shapes the backend's answer.
func (c *Client) cacheKey(system, prompt string, opts []ai.Option) string {
	o := ai.ApplyOptions(c.callOptions(opts)...)
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d\x00", c.provider, o.Model, o.MaxTokens)
	if o.Temperature != nil {
		fmt.Fprintf(h, "t=%g", *o.Temperature)
	}
	h.Write([]byte{0})
	if o.TopP != nil {
		fmt.Fprintf(h, "p=%g", *o.TopP)
	}
	h.Write([]byte{0})
	h.Write([]byte(system))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}
