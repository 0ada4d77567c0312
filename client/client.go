package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ai "github.com/spetersoncode/almond"
	"github.com/spetersoncode/almond/internal/retry"
)

// DefaultTimeout bounds a single backend attempt when no timeout option is set.
const DefaultTimeout = 30 * time.Second

const (
	healthPrompt = "Hello"
	healthSystem = "You are a helpful assistant. Reply with 'OK'."
)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithDefaultOptions sets default generation options for every call.
// Per-call options override these defaults.
func WithDefaultOptions(opts ...ai.Option) ClientOption {
	return func(c *Client) {
		c.defaults = append(c.defaults, opts...)
	}
}

// WithRetryConfig replaces the default retry policy.
func WithRetryConfig(cfg retry.Config) ClientOption {
	return func(c *Client) {
		c.retry = cfg
	}
}

// WithEvents sets the channel that receives client events.
// Events are sent non-blocking; if the channel is full, events are dropped.
func WithEvents(ch chan<- Event) ClientOption {
	return func(c *Client) {
		c.events = ch
	}
}

// WithCache enables response caching for structured calls.
func WithCache(cache Cache) ClientOption {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// Client is the text-generation client for one backend and model.
// A Client is immutable after construction and safe for concurrent use.
type Client struct {
	provider ai.Provider
	model    string
	backend  ai.ChatProvider
	defaults []ai.Option
	retry    retry.Config
	events   chan<- Event
	cache    Cache
	logger   *slog.Logger
}

var _ ai.TextGenerator = (*Client)(nil)

// New creates a client over backend. An empty model selects the provider's
// default model.
func New(p ai.Provider, backend ai.ChatProvider, model string, opts ...ClientOption) *Client {
	if model == "" {
		model = p.DefaultModel()
	}
	c := &Client{
		provider: p,
		model:    model,
		backend:  backend,
		retry:    retry.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Provider returns the backend's provider.
func (c *Client) Provider() ai.Provider { return c.provider }

// Model returns the model used when a call does not override it.
func (c *Client) Model() string { return c.model }

// Generate sends prompt, preceded by systemPrompt when non-empty, and
// returns the backend's reply.
func (c *Client) Generate(ctx context.Context, prompt, systemPrompt string, opts ...ai.Option) (*ai.Response, error) {
	return c.generate(ctx, "generate", buildMessages(prompt, systemPrompt), opts)
}

// HealthCheck reports whether the backend answers a trivial prompt coherently.
// It never returns an error.
func (c *Client) HealthCheck(ctx context.Context) bool {
	resp, err := c.generate(ctx, "health_check", buildMessages(healthPrompt, healthSystem), nil)
	if err != nil {
		c.logger.WarnContext(ctx, "health check failed", "provider", c.provider, "error", err)
		return false
	}
	reply := strings.ToLower(resp.Content)
	return strings.Contains(reply, "ok") || len(resp.Content) < 100
}

func buildMessages(prompt, systemPrompt string) []ai.Message {
	messages := make([]ai.Message, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, ai.NewSystemMessage(systemPrompt))
	}
	return append(messages, ai.NewUserMessage(prompt))
}

// callOptions merges the client's model and defaults with per-call options.
// Later options win, so per-call values override without mutating the client.
func (c *Client) callOptions(opts []ai.Option) []ai.Option {
	all := make([]ai.Option, 0, len(c.defaults)+len(opts)+1)
	all = append(all, ai.WithModel(c.model))
	all = append(all, c.defaults...)
	return append(all, opts...)
}

func (c *Client) generate(ctx context.Context, op string, messages []ai.Message, opts []ai.Option) (*ai.Response, error) {
	all := c.callOptions(opts)
	options := ai.ApplyOptions(all...)
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	start := time.Now()
	emit(c.events, Event{Type: EventRequestStart, Operation: op, Provider: c.provider, Model: options.Model})

	var retryEvents chan retry.Event
	if c.events != nil {
		retryEvents = make(chan retry.Event, 4*c.retry.MaxAttempts+4)
	}

	resp, err := retry.DoWithEvents(ctx, c.retry, retryEvents, func(ctx context.Context) (*ai.Response, error) {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		resp, err := c.backend.Chat(attemptCtx, messages, all...)
		if err != nil {
			if ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
				return nil, ai.NewTransientError(c.provider, fmt.Sprintf("request timed out after %s", timeout), 0, err)
			}
			return nil, err
		}
		return resp, nil
	})
	c.forwardRetryEvents(retryEvents, op, options.Model)

	elapsed := time.Since(start)
	if err != nil {
		c.logger.DebugContext(ctx, "generation failed",
			"provider", c.provider, "model", options.Model, "operation", op, "error", err)
		emit(c.events, Event{
			Type:      EventRequestError,
			Operation: op,
			Provider:  c.provider,
			Model:     options.Model,
			Duration:  elapsed,
			Error:     err,
		})
		return nil, err
	}

	resp.CostTimeMs = elapsed.Milliseconds()
	if resp.Model == "" {
		resp.Model = options.Model
	}

	usage := resp.Usage
	emit(c.events, Event{
		Type:      EventRequestComplete,
		Operation: op,
		Provider:  c.provider,
		Model:     resp.Model,
		Duration:  elapsed,
		Usage:     &usage,
	})
	return resp, nil
}

// forwardRetryEvents relays buffered retry events once the call finished.
func (c *Client) forwardRetryEvents(ch chan retry.Event, op, model string) {
	if ch == nil {
		return
	}
	close(ch)
	for re := range ch {
		emit(c.events, Event{
			Type:       EventRetry,
			Operation:  op,
			Provider:   c.provider,
			Model:      model,
			RetryEvent: &re,
		})
	}
}
