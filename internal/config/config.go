// Package config loads almond settings from an optional YAML file, a .env
// file and the environment, in increasing order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spetersoncode/almond"
	"github.com/spetersoncode/almond/client"
)

// Version is the service version reported by health checks.
const Version = "0.1.0"

// Config holds the service configuration.
type Config struct {
	// Provider selection
	Provider string `yaml:"provider" validate:"required"`
	Model    string `yaml:"model"`

	// Generation defaults
	Temperature    float64       `yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens      int           `yaml:"max_tokens" validate:"gt=0"`
	TopP           float64       `yaml:"top_p" validate:"gt=0,lte=1"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gt=0"`

	// Workflow
	ConfidenceThreshold       float64 `yaml:"confidence_threshold" validate:"gt=0,lte=1"`
	EvolutionTriggerThreshold int     `yaml:"evolution_trigger_threshold" validate:"gte=1"`
	MaxConcurrentRequests     int     `yaml:"max_concurrent_requests" validate:"gte=1,lte=1000"`

	// Server
	Port      string `yaml:"port" validate:"required,numeric"`
	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" validate:"oneof=json text"`

	// TraceExporter selects where workflow spans go: "none" or "stdout".
	TraceExporter string `yaml:"trace_exporter" validate:"oneof=none stdout"`

	// APIToken, when set, is required as a bearer token on workflow routes.
	APIToken string `yaml:"api_token"`

	Redis Redis `yaml:"redis"`

	// MemoryCache caches responses in process when Redis is disabled.
	// Redis.TTL applies to both.
	MemoryCache bool `yaml:"memory_cache"`

	// Credentials
	Keys              Keys   `yaml:"api_keys"`
	CompatibleBaseURL string `yaml:"compatible_base_url" validate:"omitempty,url"`
	VertexProject     string `yaml:"vertex_project"`
	VertexLocation    string `yaml:"vertex_location"`
}

// Redis configures the optional response cache.
type Redis struct {
	Enabled bool          `yaml:"enabled"`
	URL     string        `yaml:"url" validate:"required_if=Enabled true"`
	TTL     time.Duration `yaml:"ttl" validate:"gte=0"`
}

// Keys holds provider API keys.
type Keys struct {
	Qwen       string `yaml:"qwen"`
	OpenAI     string `yaml:"openai"`
	Anthropic  string `yaml:"anthropic"`
	Gemini     string `yaml:"gemini"`
	DeepSeek   string `yaml:"deepseek"`
	Kimi       string `yaml:"kimi"`
	Compatible string `yaml:"compatible"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Provider:                  string(almond.ProviderQwen),
		Model:                     "qwen-plus",
		Temperature:               0.1,
		MaxTokens:                 1000,
		TopP:                      0.9,
		RequestTimeout:            30 * time.Second,
		ConfidenceThreshold:       0.7,
		EvolutionTriggerThreshold: 3,
		MaxConcurrentRequests:     100,
		Port:                      "8000",
		LogLevel:                  "info",
		LogFormat:                 "json",
		TraceExporter:             "none",
		Redis: Redis{
			URL: "redis://localhost:6379/0",
			TTL: time.Hour,
		},
		VertexLocation: "us-central1",
	}
}

// Load builds the configuration. path names an optional YAML file; when
// empty, ALMOND_CONFIG is consulted. A .env file is loaded if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // Load .env file if present

	cfg := Default()
	if path == "" {
		path = os.Getenv("ALMOND_CONFIG")
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Provider = getEnvOrDefault("ALMOND_PROVIDER", c.Provider)
	c.Model = getEnvOrDefault("ALMOND_MODEL", c.Model)
	c.Temperature = getEnvFloatOrDefault("ALMOND_TEMPERATURE", c.Temperature)
	c.MaxTokens = getEnvIntOrDefault("ALMOND_MAX_TOKENS", c.MaxTokens)
	c.TopP = getEnvFloatOrDefault("ALMOND_TOP_P", c.TopP)
	c.RequestTimeout = getEnvDurationOrDefault("ALMOND_REQUEST_TIMEOUT", c.RequestTimeout)
	c.ConfidenceThreshold = getEnvFloatOrDefault("ALMOND_CONFIDENCE_THRESHOLD", c.ConfidenceThreshold)
	c.EvolutionTriggerThreshold = getEnvIntOrDefault("ALMOND_EVOLUTION_TRIGGER_THRESHOLD", c.EvolutionTriggerThreshold)
	c.MaxConcurrentRequests = getEnvIntOrDefault("ALMOND_MAX_CONCURRENT_REQUESTS", c.MaxConcurrentRequests)
	c.Port = getEnvOrDefault("ALMOND_PORT", c.Port)
	c.LogLevel = getEnvOrDefault("ALMOND_LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnvOrDefault("ALMOND_LOG_FORMAT", c.LogFormat)
	c.TraceExporter = getEnvOrDefault("ALMOND_TRACE_EXPORTER", c.TraceExporter)
	c.APIToken = getEnvOrDefault("ALMOND_API_TOKEN", c.APIToken)

	c.Redis.Enabled = getEnvBoolOrDefault("ALMOND_REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.URL = getEnvOrDefault("ALMOND_REDIS_URL", c.Redis.URL)
	c.Redis.TTL = getEnvDurationOrDefault("ALMOND_CACHE_TTL", c.Redis.TTL)
	c.MemoryCache = getEnvBoolOrDefault("ALMOND_MEMORY_CACHE", c.MemoryCache)

	c.Keys.Qwen = getEnvOrDefault("DASHSCOPE_API_KEY", c.Keys.Qwen)
	c.Keys.OpenAI = getEnvOrDefault("OPENAI_API_KEY", c.Keys.OpenAI)
	c.Keys.Anthropic = getEnvOrDefault("ANTHROPIC_API_KEY", c.Keys.Anthropic)
	c.Keys.Gemini = getEnvOrDefault("GOOGLE_API_KEY", c.Keys.Gemini)
	c.Keys.DeepSeek = getEnvOrDefault("DEEPSEEK_API_KEY", c.Keys.DeepSeek)
	c.Keys.Kimi = getEnvOrDefault("MOONSHOT_API_KEY", c.Keys.Kimi)
	c.Keys.Compatible = getEnvOrDefault("COMPATIBLE_API_KEY", c.Keys.Compatible)
	c.CompatibleBaseURL = getEnvOrDefault("COMPATIBLE_BASE_URL", c.CompatibleBaseURL)
	c.VertexProject = getEnvOrDefault("VERTEX_PROJECT", c.VertexProject)
	c.VertexLocation = getEnvOrDefault("VERTEX_LOCATION", c.VertexLocation)
}

var validate = validator.New()

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	p, err := almond.ParseProvider(c.Provider)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	switch p {
	case almond.ProviderQwen:
		if c.Keys.Qwen == "" {
			return fmt.Errorf("DASHSCOPE_API_KEY is required for qwen provider")
		}
	case almond.ProviderOpenAI:
		if c.Keys.OpenAI == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for openai provider")
		}
	case almond.ProviderAnthropic:
		if c.Keys.Anthropic == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for anthropic provider")
		}
	case almond.ProviderGemini:
		if c.Keys.Gemini == "" {
			return fmt.Errorf("GOOGLE_API_KEY is required for gemini provider")
		}
	case almond.ProviderVertex:
		if c.VertexProject == "" || c.VertexLocation == "" {
			return fmt.Errorf("VERTEX_PROJECT and VERTEX_LOCATION are required for vertex provider")
		}
	case almond.ProviderDeepSeek:
		if c.Keys.DeepSeek == "" {
			return fmt.Errorf("DEEPSEEK_API_KEY is required for deepseek provider")
		}
	case almond.ProviderKimi:
		if c.Keys.Kimi == "" {
			return fmt.Errorf("MOONSHOT_API_KEY is required for kimi provider")
		}
	case almond.ProviderCompatible:
		if c.Keys.Compatible == "" || c.CompatibleBaseURL == "" {
			return fmt.Errorf("COMPATIBLE_API_KEY and COMPATIBLE_BASE_URL are required for compatible provider")
		}
	}
	return nil
}

// ProviderID returns the parsed default provider. Call after Validate.
func (c *Config) ProviderID() almond.Provider {
	p, _ := almond.ParseProvider(c.Provider)
	return p
}

// GenerationOptions returns the configured generation defaults.
func (c *Config) GenerationOptions() []almond.Option {
	return []almond.Option{
		almond.WithTemperature(c.Temperature),
		almond.WithMaxTokens(c.MaxTokens),
		almond.WithTopP(c.TopP),
		almond.WithTimeout(c.RequestTimeout),
	}
}

// ClientConfig returns the registry configuration for these settings.
// Cache and events are left for the caller to wire.
func (c *Config) ClientConfig() client.Config {
	return client.Config{
		APIKeys: client.APIKeys{
			Qwen:       c.Keys.Qwen,
			OpenAI:     c.Keys.OpenAI,
			Anthropic:  c.Keys.Anthropic,
			Gemini:     c.Keys.Gemini,
			DeepSeek:   c.Keys.DeepSeek,
			Kimi:       c.Keys.Kimi,
			Compatible: c.Keys.Compatible,
		},
		Vertex: client.Vertex{
			Project:  c.VertexProject,
			Location: c.VertexLocation,
		},
		CompatibleBaseURL: c.CompatibleBaseURL,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
