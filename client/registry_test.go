package client

import (
	"context"
	"sync"
	"testing"

	ai "github.com/spetersoncode/almond"
	"github.com/spetersoncode/almond/internal/provider/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryResolveCachesByProviderAndModel(t *testing.T) {
	reg := NewRegistry(Config{})
	ctx := context.Background()

	a, err := reg.Resolve(ctx, "mock", "")
	require.NoError(t, err)
	b, err := reg.Resolve(ctx, "MOCK", "")
	require.NoError(t, err)
	assert.Same(t, a, b)
	assert.Equal(t, "mock-model", a.Model())

	other, err := reg.Resolve(ctx, "mock", "mock-large")
	require.NoError(t, err)
	assert.NotSame(t, a, other)
	assert.Equal(t, "mock-large", other.Model())
	assert.Equal(t, 2, reg.Len())
}

func TestRegistryResolveErrors(t *testing.T) {
	reg := NewRegistry(Config{})
	ctx := context.Background()

	t.Run("unsupported provider", func(t *testing.T) {
		_, err := reg.Resolve(ctx, "llama", "")
		var upe *ai.UnsupportedProviderError
		require.ErrorAs(t, err, &upe)
		assert.Equal(t, "llama", upe.Name)
	})

	tests := []struct {
		provider string
		setting  string
	}{
		{"qwen", "DASHSCOPE_API_KEY"},
		{"openai", "OPENAI_API_KEY"},
		{"claude", "ANTHROPIC_API_KEY"},
		{"gemini", "GOOGLE_API_KEY"},
		{"vertex", "VERTEX_PROJECT"},
		{"deepseek", "DEEPSEEK_API_KEY"},
		{"kimi", "MOONSHOT_API_KEY"},
		{"compatible", "COMPATIBLE_API_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			_, err := reg.Resolve(ctx, tt.provider, "")
			var ce *ai.ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.setting, ce.Setting)
		})
	}
	assert.Zero(t, reg.Len(), "failed resolutions are not cached")
}

func TestRegistryCompatibleNeedsBaseURL(t *testing.T) {
	reg := NewRegistry(Config{APIKeys: APIKeys{Compatible: "k"}})
	_, err := reg.Resolve(context.Background(), "compatible", "m")
	var ce *ai.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "COMPATIBLE_BASE_URL", ce.Setting)

	reg = NewRegistry(Config{APIKeys: APIKeys{Compatible: "k"}, CompatibleBaseURL: "http://localhost:9/v1"})
	c, err := reg.Resolve(context.Background(), "compatible", "local-model")
	require.NoError(t, err)
	assert.Equal(t, ai.ProviderCompatible, c.Provider())
}

func TestRegistryResolvesConfiguredBackends(t *testing.T) {
	reg := NewRegistry(Config{APIKeys: APIKeys{
		Qwen:      "q",
		OpenAI:    "o",
		Anthropic: "a",
		DeepSeek:  "d",
		Kimi:      "k",
	}})
	for _, name := range []string{"qwen", "openai", "anthropic", "deepseek", "kimi"} {
		t.Run(name, func(t *testing.T) {
			c, err := reg.Resolve(context.Background(), name, "")
			require.NoError(t, err)
			p, _ := ai.ParseProvider(name)
			assert.Equal(t, p.DefaultModel(), c.Model())
		})
	}
}

func TestRegistryConcurrentResolve(t *testing.T) {
	reg := NewRegistry(Config{})
	const n = 64

	clients := make([]*Client, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := reg.Resolve(context.Background(), "mock", "")
			assert.NoError(t, err)
			clients[i] = c
		}()
	}
	wg.Wait()

	for _, c := range clients {
		assert.Same(t, clients[0], c)
	}
	assert.Equal(t, 1, reg.Len())
}

func TestRegistryProviders(t *testing.T) {
	reg := NewRegistry(Config{
		APIKeys: APIKeys{Qwen: "q", Anthropic: "a"},
		Vertex:  Vertex{Project: "p"},
	})
	assert.ElementsMatch(t,
		[]ai.Provider{ai.ProviderQwen, ai.ProviderAnthropic, ai.ProviderVertex, ai.ProviderMock},
		reg.Providers())
}

func TestRegistryPassesConfigToClients(t *testing.T) {
	events := make(chan Event, 16)
	reg := NewRegistry(Config{
		Defaults:    []ai.Option{ai.WithMaxTokens(42)},
		Events:      events,
		MockReplies: []mock.Reply{{Content: "scripted"}},
	})

	c, err := reg.Resolve(context.Background(), "mock", "")
	require.NoError(t, err)

	resp, err := c.Generate(context.Background(), "p", "")
	require.NoError(t, err)
	assert.Equal(t, "scripted", resp.Content)
	assert.NotEmpty(t, events)
}
