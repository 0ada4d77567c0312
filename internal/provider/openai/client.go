// Package openai provides an OpenAI chat backend implementing [almond.ChatProvider].
package openai

import (
	"context"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	ai "github.com/spetersoncode/almond"
)

// DefaultModel is used when neither the client nor the request names a model.
var DefaultModel = ai.ProviderOpenAI.DefaultModel()

// Client wraps the OpenAI SDK to implement ai.ChatProvider.
type Client struct {
	client *openai.Client
	model  string
}

// New creates a new OpenAI client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		// Retries belong to the almond client, one SDK call is one attempt.
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}

	client := openai.NewClient(reqOpts...)
	c := &Client{
		client: &client,
		model:  DefaultModel,
	}
	if cfg.model != "" {
		c.model = cfg.model
	}
	return c
}

type clientConfig struct {
	model   string
	baseURL string
}

// ClientOption configures the OpenAI client.
type ClientOption func(*clientConfig)

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *clientConfig) {
		c.model = model
	}
}

// WithBaseURL points the client at a different OpenAI API endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

var _ ai.ChatProvider = (*Client)(nil)

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	options := ai.ApplyOptions(opts...)
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	params := openai.ChatCompletionNewParams{
		Model:    model,
		Messages: convertMessages(messages),
	}
	if options.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(options.MaxTokens))
	}
	if options.Temperature != nil {
		params.Temperature = openai.Float(*options.Temperature)
	}
	if options.TopP != nil {
		params.TopP = openai.Float(*options.TopP)
	}
	if options.JSONMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &openai.ResponseFormatJSONObjectParam{
				Type: "json_object",
			},
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, ai.NewTransientError(ai.ProviderOpenAI, "response contained no choices", 0, nil)
	}

	respModel := resp.Model
	if respModel == "" {
		respModel = model
	}

	return &ai.Response{
		Content: resp.Choices[0].Message.Content,
		Model:   respModel,
		Usage: ai.NewUsage(
			int(resp.Usage.PromptTokens),
			int(resp.Usage.CompletionTokens),
			int(resp.Usage.TotalTokens),
		),
		Raw: resp,
	}, nil
}
