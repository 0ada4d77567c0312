package google

import (
	"context"
	"errors"
	"fmt"
	"testing"

	ai "github.com/spetersoncode/almond"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestConvertMessages(t *testing.T) {
	contents, system := convertMessages([]ai.Message{
		ai.NewSystemMessage("one"),
		ai.NewSystemMessage("two"),
		ai.NewUserMessage("hi"),
		{Role: ai.RoleAssistant, Content: "hello"},
	})

	require.NotNil(t, system)
	require.Len(t, system.Parts, 1)
	assert.Equal(t, "one\n\ntwo", system.Parts[0].Text)

	require.Len(t, contents, 2)
	assert.Equal(t, string(genai.RoleUser), contents[0].Role)
	assert.Equal(t, string(genai.RoleModel), contents[1].Role)
}

func TestConvertMessagesWithoutSystem(t *testing.T) {
	_, system := convertMessages([]ai.Message{ai.NewUserMessage("hi")})
	assert.Nil(t, system)
}

func TestBuildConfig(t *testing.T) {
	opts := ai.ApplyOptions(ai.WithMaxTokens(300), ai.WithTemperature(0.2), ai.WithTopP(0.9), ai.WithJSONMode())
	cfg := buildConfig(opts, nil)

	assert.Equal(t, int32(300), cfg.MaxOutputTokens)
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.2, float64(*cfg.Temperature), 1e-6)
	require.NotNil(t, cfg.TopP)
	assert.InDelta(t, 0.9, float64(*cfg.TopP), 1e-6)
	assert.Equal(t, "application/json", cfg.ResponseMIMEType)

	plain := buildConfig(ai.ApplyOptions(), nil)
	assert.Nil(t, plain.Temperature)
	assert.Empty(t, plain.ResponseMIMEType)
}

func TestWrapError(t *testing.T) {
	tests := []struct {
		code      int
		retryable bool
	}{
		{429, true},
		{500, true},
		{403, false},
		{400, false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			err := wrapError(ai.ProviderGemini, genai.APIError{Code: tt.code, Message: "x"})
			var pe *ai.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.retryable, pe.Retryable())
			assert.Equal(t, tt.code, pe.StatusCode())
			assert.Equal(t, ai.ProviderGemini, pe.Provider)
		})
	}

	t.Run("deadline is transient", func(t *testing.T) {
		err := wrapError(ai.ProviderVertex, fmt.Errorf("call: %w", context.DeadlineExceeded))
		var pe *ai.ProviderError
		require.ErrorAs(t, err, &pe)
		assert.True(t, pe.Retryable())
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})
}

func TestNewVertexRequiresProject(t *testing.T) {
	_, err := NewVertex(context.Background(), "", "")
	var ce *ai.ConfigurationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ai.ProviderVertex, ce.Provider)
}
