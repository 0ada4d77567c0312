package compatible

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	ai "github.com/spetersoncode/almond"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresBaseURLForGenericProvider(t *testing.T) {
	_, err := New(ai.ProviderCompatible, "k", WithModel("m"))
	var ce *ai.ConfigurationError
	require.ErrorAs(t, err, &ce)

	_, err = New(ai.ProviderCompatible, "k", WithBaseURL("http://localhost:1/v1"))
	require.ErrorAs(t, err, &ce)

	c, err := New(ai.ProviderQwen, "k")
	require.NoError(t, err)
	assert.Equal(t, "qwen-plus", c.model)
}

func TestChatAgainstFakeServer(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "c1",
			"object": "chat.completion",
			"model": "deepseek-chat",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"classification\":\"goal\"}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 4, "total_tokens": 16}
		}`))
	}))
	defer srv.Close()

	c, err := New(ai.ProviderDeepSeek, "secret", WithBaseURL(srv.URL+"/v1"))
	require.NoError(t, err)

	resp, err := c.Chat(context.Background(),
		[]ai.Message{ai.NewSystemMessage("sys"), ai.NewUserMessage("hello")},
		ai.WithTemperature(0.5), ai.WithMaxTokens(50), ai.WithJSONMode())
	require.NoError(t, err)

	assert.Equal(t, `{"classification":"goal"}`, resp.Content)
	assert.Equal(t, "deepseek-chat", resp.Model)
	assert.Equal(t, ai.Usage{PromptTokens: 12, CompletionTokens: 4, TotalTokens: 16}, resp.Usage)

	assert.Equal(t, "deepseek-chat", body["model"])
	assert.EqualValues(t, 50, body["max_tokens"])
	assert.InDelta(t, 0.5, body["temperature"], 1e-6)
	format, ok := body["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", format["type"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestChatErrorMapping(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, true},
		{"server error", http.StatusBadGateway, true},
		{"unauthorized", http.StatusUnauthorized, false},
		{"bad request", http.StatusBadRequest, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"error"}}`))
			}))
			defer srv.Close()

			c, err := New(ai.ProviderKimi, "k", WithBaseURL(srv.URL))
			require.NoError(t, err)
			_, err = c.Chat(context.Background(), []ai.Message{ai.NewUserMessage("x")})

			var pe *ai.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, ai.ProviderKimi, pe.Provider)
			assert.Equal(t, tt.retryable, pe.Retryable())
			assert.Equal(t, tt.status, pe.StatusCode())
		})
	}
}

func TestChatEmptyChoicesIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c","choices":[],"usage":{}}`))
	}))
	defer srv.Close()

	c, err := New(ai.ProviderQwen, "k", WithBaseURL(srv.URL))
	require.NoError(t, err)
	_, err = c.Chat(context.Background(), []ai.Message{ai.NewUserMessage("x")})
	assert.True(t, ai.IsTransient(err))
}
