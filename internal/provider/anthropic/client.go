package anthropic

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	ai "github.com/spetersoncode/almond"
	"github.com/spetersoncode/almond/internal/retry"
)

// DefaultModel is used when neither the client nor the request names a model.
var DefaultModel = ai.ProviderAnthropic.DefaultModel()

// defaultMaxTokens is required by the Messages API when the caller sets none.
const defaultMaxTokens = 1024

// Client wraps the Anthropic SDK to implement ai.ChatProvider.
type Client struct {
	client *anthropic.Client
	model  string
}

// ClientOption configures the Anthropic client.
type ClientOption func(*clientConfig)

type clientConfig struct {
	model   string
	baseURL string
}

// WithModel sets the default model for requests.
func WithModel(model string) ClientOption {
	return func(c *clientConfig) {
		c.model = model
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// New creates a new Anthropic client with the given API key.
func New(apiKey string, opts ...ClientOption) *Client {
	cfg := &clientConfig{model: DefaultModel}
	for _, opt := range opts {
		opt(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}

	client := anthropic.NewClient(reqOpts...)
	return &Client{client: &client, model: cfg.model}
}

var _ ai.ChatProvider = (*Client)(nil)

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	options := ai.ApplyOptions(opts...)
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	maxTokens := int64(defaultMaxTokens)
	if options.MaxTokens > 0 {
		maxTokens = int64(options.MaxTokens)
	}

	msgs, system := convertMessages(messages)
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  msgs,
	}
	if len(system) > 0 {
		params.System = system
	}
	if options.Temperature != nil {
		params.Temperature = anthropic.Float(*options.Temperature)
	}
	if options.TopP != nil {
		params.TopP = anthropic.Float(*options.TopP)
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, wrapError(err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}

	respModel := string(resp.Model)
	if respModel == "" {
		respModel = model
	}

	return &ai.Response{
		Content: content.String(),
		Model:   respModel,
		Usage:   ai.NewUsage(int(resp.Usage.InputTokens), int(resp.Usage.OutputTokens), 0),
		Raw:     resp,
	}, nil
}

// wrapError wraps an Anthropic SDK error as an almond.ProviderError.
func wrapError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return &ai.ProviderError{
			Provider: ai.ProviderAnthropic,
			Msg:      "request failed",
			Cat:      retry.Categorize(err),
			Cause:    err,
		}
	}
	return &ai.ProviderError{
		Provider: ai.ProviderAnthropic,
		Msg:      err.Error(),
		Cat:      retry.CategorizeStatusCode(apiErr.StatusCode),
		Code:     apiErr.StatusCode,
		Cause:    err,
	}
}
