package almond

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProvider(t *testing.T) {
	tests := []struct {
		in   string
		want Provider
	}{
		{"qwen", ProviderQwen},
		{"DashScope", ProviderQwen},
		{"claude", ProviderAnthropic},
		{" Anthropic ", ProviderAnthropic},
		{"google", ProviderGemini},
		{"moonshot", ProviderKimi},
		{"mock", ProviderMock},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseProvider(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := ParseProvider("llama")
		var upe *UnsupportedProviderError
		require.True(t, errors.As(err, &upe))
		assert.Equal(t, "llama", upe.Name)
	})
}

func TestProviderDefaults(t *testing.T) {
	for _, p := range Providers() {
		t.Run(p.String(), func(t *testing.T) {
			if p == ProviderCompatible {
				assert.Empty(t, p.DefaultModel())
			} else {
				assert.NotEmpty(t, p.DefaultModel())
			}
			if p.OpenAICompatible() && p != ProviderCompatible {
				assert.NotEmpty(t, p.DefaultBaseURL())
			}
		})
	}
	assert.Equal(t, "qwen-plus", ProviderQwen.DefaultModel())
	assert.Empty(t, ProviderOpenAI.DefaultBaseURL())
}

func TestParseClassification(t *testing.T) {
	c, err := ParseClassification(" Action ")
	require.NoError(t, err)
	assert.Equal(t, ClassificationAction, c)

	_, err = ParseClassification("task")
	assert.Error(t, err)
}

func TestParseUserBehavior(t *testing.T) {
	b, err := ParseUserBehavior("DEFER")
	require.NoError(t, err)
	assert.Equal(t, BehaviorDefer, b)

	_, err = ParseUserBehavior("delete")
	assert.Error(t, err)
}

func TestClampConfidence(t *testing.T) {
	nan := 0.0
	nan = nan / nan
	assert.Equal(t, 0.0, ClampConfidence(-0.2))
	assert.Equal(t, 1.0, ClampConfidence(1.7))
	assert.Equal(t, 0.42, ClampConfidence(0.42))
	assert.Equal(t, 0.0, ClampConfidence(nan))
}
