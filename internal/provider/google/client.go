// Package google provides Gemini chat backends implementing
// [almond.ChatProvider], for both the Gemini API and Vertex AI.
package google

import (
	"context"
	"strings"

	ai "github.com/spetersoncode/almond"
	"google.golang.org/genai"
)

// DefaultModel is used when neither the client nor the request names a model.
var DefaultModel = ai.ProviderGemini.DefaultModel()

// Client wraps the Google GenAI SDK to implement ai.ChatProvider.
type Client struct {
	client   *genai.Client
	model    string
	provider ai.Provider
}

// ClientOption configures the Google client.
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

// New creates a Gemini API client with the given API key.
func New(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	return newClient(ctx, ai.ProviderGemini, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, opts)
}

// NewVertex creates a Vertex AI client. Credentials come from the
// environment's application default credentials.
func NewVertex(ctx context.Context, project, location string, opts ...ClientOption) (*Client, error) {
	if project == "" {
		return nil, &ai.ConfigurationError{Provider: ai.ProviderVertex, Setting: "VERTEX_PROJECT"}
	}
	if location == "" {
		location = "us-central1"
	}
	return newClient(ctx, ai.ProviderVertex, &genai.ClientConfig{
		Project:  project,
		Location: location,
		Backend:  genai.BackendVertexAI,
	}, opts)
}

func newClient(ctx context.Context, p ai.Provider, gc *genai.ClientConfig, opts []ClientOption) (*Client, error) {
	cfg := &clientConfig{model: DefaultModel}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.baseURL != "" {
		gc.HTTPOptions.BaseURL = cfg.baseURL
	}
	client, err := genai.NewClient(ctx, gc)
	if err != nil {
		return nil, &ai.ConfigurationError{Provider: p, Msg: err.Error()}
	}
	return &Client{client: client, model: cfg.model, provider: p}, nil
}

var _ ai.ChatProvider = (*Client)(nil)

// Chat sends a conversation and returns a complete response.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	options := ai.ApplyOptions(opts...)
	model := c.model
	if options.Model != "" {
		model = options.Model
	}

	contents, system := convertMessages(messages)
	config := buildConfig(options, system)

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, wrapError(c.provider, err)
	}

	var content strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part != nil && part.Text != "" && !part.Thought {
				content.WriteString(part.Text)
			}
		}
	}

	var usage ai.Usage
	if resp.UsageMetadata != nil {
		usage = ai.NewUsage(
			int(resp.UsageMetadata.PromptTokenCount),
			int(resp.UsageMetadata.CandidatesTokenCount),
			int(resp.UsageMetadata.TotalTokenCount),
		)
	}

	respModel := resp.ModelVersion
	if respModel == "" {
		respModel = model
	}

	return &ai.Response{
		Content: content.String(),
		Model:   respModel,
		Usage:   usage,
		Raw:     resp,
	}, nil
}

func buildConfig(options *ai.Options, system *genai.Content) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{SystemInstruction: system}
	if options.MaxTokens > 0 {
		config.MaxOutputTokens = int32(options.MaxTokens)
	}
	if options.Temperature != nil {
		temp := float32(*options.Temperature)
		config.Temperature = &temp
	}
	if options.TopP != nil {
		topP := float32(*options.TopP)
		config.TopP = &topP
	}
	if options.JSONMode {
		config.ResponseMIMEType = "application/json"
	}
	return config
}
