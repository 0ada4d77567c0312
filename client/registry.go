package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	ai "github.com/spetersoncode/almond"
	"github.com/spetersoncode/almond/internal/provider/anthropic"
	"github.com/spetersoncode/almond/internal/provider/compatible"
	"github.com/spetersoncode/almond/internal/provider/google"
	"github.com/spetersoncode/almond/internal/provider/mock"
	"github.com/spetersoncode/almond/internal/provider/openai"
	"github.com/spetersoncode/almond/internal/retry"
)

// APIKeys holds API keys for different providers.
// Only configure keys for providers you intend to use.
type APIKeys struct {
	Qwen       string
	OpenAI     string
	Anthropic  string
	Gemini     string
	DeepSeek   string
	Kimi       string
	Compatible string
}

// Vertex identifies the Google Cloud project used by the vertex provider.
// Credentials come from application default credentials.
type Vertex struct {
	Project  string
	Location string
}

// Config holds configuration for a Registry.
type Config struct {
	// APIKeys contains authentication keys for each provider.
	APIKeys APIKeys

	// Vertex configures the vertex provider.
	Vertex Vertex

	// CompatibleBaseURL is the endpoint of the generic OpenAI-compatible provider.
	CompatibleBaseURL string

	// Defaults are generation options applied to every resolved client.
	Defaults []ai.Option

	// RetryConfig configures retry behavior for transient errors.
	// If nil, uses the default retry configuration.
	RetryConfig *retry.Config

	// Events is an optional channel for receiving client operation events.
	// Events are sent non-blocking; if the channel is full, events are dropped.
	Events chan<- Event

	// Cache optionally caches structured responses.
	Cache Cache

	// Logger receives client diagnostics. Defaults to slog.Default().
	Logger *slog.Logger

	// MockReplies scripts the mock provider; used by tests and offline runs.
	MockReplies []mock.Reply
}

// Registry resolves provider names to cached clients.
// It is safe for concurrent use.
type Registry struct {
	cfg Config

	mu      sync.RWMutex
	clients map[string]*Client
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg Config) *Registry {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Registry{cfg: cfg, clients: make(map[string]*Client)}
}

func cacheKey(p ai.Provider, model string) string {
	if model == "" {
		model = "default"
	}
	return fmt.Sprintf("%s:%s", p, model)
}

// Resolve returns the client for providerName and an optional model
// override, constructing it on first use.
func (r *Registry) Resolve(ctx context.Context, providerName, model string) (*Client, error) {
	p, err := ai.ParseProvider(providerName)
	if err != nil {
		return nil, err
	}
	key := cacheKey(p, model)

	r.mu.RLock()
	if c, ok := r.clients[key]; ok {
		r.mu.RUnlock()
		return c, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if c, ok := r.clients[key]; ok {
		return c, nil
	}

	backend, err := r.newBackend(ctx, p, model)
	if err != nil {
		return nil, err
	}

	c := New(p, backend, model, r.clientOptions()...)
	r.clients[key] = c
	r.cfg.Logger.Debug("provider client created", "provider", p, "model", c.Model())
	return c, nil
}

// Providers lists the providers that have credentials configured.
func (r *Registry) Providers() []ai.Provider {
	var out []ai.Provider
	for _, p := range ai.Providers() {
		if r.credentialError(p) == nil {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of cached clients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Registry) clientOptions() []ClientOption {
	retryConfig := retry.DefaultConfig()
	if r.cfg.RetryConfig != nil {
		retryConfig = *r.cfg.RetryConfig
	}
	opts := []ClientOption{
		WithRetryConfig(retryConfig),
		WithDefaultOptions(r.cfg.Defaults...),
		WithLogger(r.cfg.Logger),
	}
	if r.cfg.Events != nil {
		opts = append(opts, WithEvents(r.cfg.Events))
	}
	if r.cfg.Cache != nil {
		opts = append(opts, WithCache(r.cfg.Cache))
	}
	return opts
}

// credentialError reports the missing setting for p, if any.
func (r *Registry) credentialError(p ai.Provider) error {
	missing := func(setting string) error {
		return &ai.ConfigurationError{Provider: p, Setting: setting}
	}
	keys := r.cfg.APIKeys
	switch p {
	case ai.ProviderQwen:
		if keys.Qwen == "" {
			return missing("DASHSCOPE_API_KEY")
		}
	case ai.ProviderOpenAI:
		if keys.OpenAI == "" {
			return missing("OPENAI_API_KEY")
		}
	case ai.ProviderAnthropic:
		if keys.Anthropic == "" {
			return missing("ANTHROPIC_API_KEY")
		}
	case ai.ProviderGemini:
		if keys.Gemini == "" {
			return missing("GOOGLE_API_KEY")
		}
	case ai.ProviderVertex:
		if r.cfg.Vertex.Project == "" {
			return missing("VERTEX_PROJECT")
		}
	case ai.ProviderDeepSeek:
		if keys.DeepSeek == "" {
			return missing("DEEPSEEK_API_KEY")
		}
	case ai.ProviderKimi:
		if keys.Kimi == "" {
			return missing("MOONSHOT_API_KEY")
		}
	case ai.ProviderCompatible:
		if keys.Compatible == "" {
			return missing("COMPATIBLE_API_KEY")
		}
		if r.cfg.CompatibleBaseURL == "" {
			return missing("COMPATIBLE_BASE_URL")
		}
	case ai.ProviderMock:
	default:
		return &ai.UnsupportedProviderError{Name: string(p)}
	}
	return nil
}

func (r *Registry) newBackend(ctx context.Context, p ai.Provider, model string) (ai.ChatProvider, error) {
	if err := r.credentialError(p); err != nil {
		return nil, err
	}
	if model == "" {
		model = p.DefaultModel()
	}
	keys := r.cfg.APIKeys

	switch p {
	case ai.ProviderOpenAI:
		return openai.New(keys.OpenAI, openai.WithModel(model)), nil
	case ai.ProviderAnthropic:
		return anthropic.New(keys.Anthropic, anthropic.WithModel(model)), nil
	case ai.ProviderGemini:
		return google.New(ctx, keys.Gemini, google.WithModel(model))
	case ai.ProviderVertex:
		return google.NewVertex(ctx, r.cfg.Vertex.Project, r.cfg.Vertex.Location, google.WithModel(model))
	case ai.ProviderQwen:
		return compatible.New(p, keys.Qwen, compatible.WithModel(model))
	case ai.ProviderDeepSeek:
		return compatible.New(p, keys.DeepSeek, compatible.WithModel(model))
	case ai.ProviderKimi:
		return compatible.New(p, keys.Kimi, compatible.WithModel(model))
	case ai.ProviderCompatible:
		return compatible.New(p, keys.Compatible,
			compatible.WithModel(model), compatible.WithBaseURL(r.cfg.CompatibleBaseURL))
	case ai.ProviderMock:
		return mock.New(mock.WithModel(model), mock.WithReplies(r.cfg.MockReplies...)), nil
	}
	return nil, &ai.UnsupportedProviderError{Name: string(p)}
}
