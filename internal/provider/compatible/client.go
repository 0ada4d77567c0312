// Package compatible provides a chat backend for OpenAI-compatible endpoints
// such as DashScope (Qwen), DeepSeek, Moonshot (Kimi) and self-hosted gateways.
package compatible

import (
	"context"
	"errors"
	"net/http"

	"github.com/sashabaranov/go-openai"
	ai "github.com/spetersoncode/almond"
	"github.com/spetersoncode/almond/internal/retry"
)

// Client implements ai.ChatProvider over an OpenAI-compatible API.
type Client struct {
	client   *openai.Client
	model    string
	provider ai.Provider
}

// ClientOption configures the compatible client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	model      string
	baseURL    string
	httpClient *http.Client
}

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *clientConfig) {
		c.model = model
	}
}

// WithBaseURL overrides the provider's default endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *clientConfig) {
		c.httpClient = hc
	}
}

// New creates a client for provider p. The base URL defaults to the
// provider's well-known endpoint; ProviderCompatible requires WithBaseURL
// and WithModel.
func New(p ai.Provider, apiKey string, opts ...ClientOption) (*Client, error) {
	cfg := &clientConfig{
		model:   p.DefaultModel(),
		baseURL: p.DefaultBaseURL(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.baseURL == "" {
		return nil, &ai.ConfigurationError{Provider: p, Msg: "base URL is required"}
	}
	if cfg.model == "" {
		return nil, &ai.ConfigurationError{Provider: p, Msg: "model is required"}
	}

	oc := openai.DefaultConfig(apiKey)
	oc.BaseURL = cfg.baseURL
	if cfg.httpClient != nil {
		oc.HTTPClient = cfg.httpClient
	}

	return &Client{
		client:   openai.NewClientWithConfig(oc),
		model:    cfg.model,
		provider: p,
	}, nil
}

var _ ai.ChatProvider = (*Client)(nil)

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	options := ai.ApplyOptions(opts...)
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: convertMessages(messages),
	}
	if options.MaxTokens > 0 {
		req.MaxTokens = options.MaxTokens
	}
	if options.Temperature != nil {
		req.Temperature = float32(*options.Temperature)
	}
	if options.TopP != nil {
		req.TopP = float32(*options.TopP)
	}
	if options.JSONMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, c.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, ai.NewTransientError(c.provider, "response contained no choices", 0, nil)
	}

	respModel := resp.Model
	if respModel == "" {
		respModel = model
	}

	return &ai.Response{
		Content: resp.Choices[0].Message.Content,
		Model:   respModel,
		Usage:   ai.NewUsage(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens),
		Raw:     resp,
	}, nil
}

func convertMessages(messages []ai.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case ai.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case ai.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		result = append(result, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	return result
}

func (c *Client) wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ai.ProviderError{
			Provider: c.provider,
			Msg:      apiErr.Message,
			Cat:      retry.CategorizeStatusCode(apiErr.HTTPStatusCode),
			Code:     apiErr.HTTPStatusCode,
			Cause:    err,
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ai.ProviderError{
			Provider: c.provider,
			Msg:      "request failed",
			Cat:      retry.CategorizeStatusCode(reqErr.HTTPStatusCode),
			Code:     reqErr.HTTPStatusCode,
			Cause:    err,
		}
	}
	return &ai.ProviderError{
		Provider: c.provider,
		Msg:      "request failed",
		Cat:      retry.Categorize(err),
		Cause:    err,
	}
}
