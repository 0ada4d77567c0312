// Package cache stores structured generation responses, in Redis or in
// process memory.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spetersoncode/almond"
)

// KeyPrefix namespaces every key written by the cache.
const KeyPrefix = "almond:gen:"

// DefaultTTL is used when no TTL is configured.
const DefaultTTL = time.Hour

// Redis caches responses as JSON with a fixed TTL. Lookup and store
// failures are logged and reported as misses.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// Option configures a Redis cache.
type Option func(*Redis)

// WithTTL sets the entry lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(r *Redis) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithLogger sets the logger used for cache failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Redis) {
		r.logger = l
	}
}

// New wraps an existing Redis client.
func New(client redis.Cmdable, opts ...Option) *Redis {
	r := &Redis{client: client, ttl: DefaultTTL, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Connect creates a client from a redis:// URL.
func Connect(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// Ping checks that the server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Get implements client.Cache.
func (r *Redis) Get(ctx context.Context, key string) (*almond.Response, bool) {
	data, err := r.client.Get(ctx, KeyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.WarnContext(ctx, "cache lookup failed", "error", err)
		}
		return nil, false
	}
	resp, err := decode(data)
	if err != nil {
		r.logger.WarnContext(ctx, "cache entry unreadable", "key", key, "error", err)
		return nil, false
	}
	return resp, true
}

// Set implements client.Cache.
func (r *Redis) Set(ctx context.Context, key string, resp *almond.Response) {
	data, err := encode(resp)
	if err != nil {
		r.logger.WarnContext(ctx, "cache entry not encodable", "error", err)
		return
	}
	if err := r.client.Set(ctx, KeyPrefix+key, data, r.ttl).Err(); err != nil {
		r.logger.WarnContext(ctx, "cache store failed", "error", err)
	}
}

// entry is the stored form. Raw backend payloads are not kept.
type entry struct {
	Content    string       `json:"content"`
	Model      string       `json:"model"`
	Usage      almond.Usage `json:"usage"`
	CostTimeMs int64        `json:"costTimeMs"`
}

func encode(resp *almond.Response) ([]byte, error) {
	if resp == nil {
		return nil, errors.New("nil response")
	}
	return json.Marshal(entry{
		Content:    resp.Content,
		Model:      resp.Model,
		Usage:      resp.Usage,
		CostTimeMs: resp.CostTimeMs,
	})
}

func decode(data []byte) (*almond.Response, error) {
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &almond.Response{
		Content:    e.Content,
		Model:      e.Model,
		Usage:      e.Usage,
		CostTimeMs: e.CostTimeMs,
	}, nil
}
