package anthropic

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	ai "github.com/spetersoncode/almond"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertMessages(t *testing.T) {
	msgs, system := convertMessages([]ai.Message{
		ai.NewSystemMessage("rules"),
		ai.NewUserMessage("question"),
		{Role: ai.RoleUser, Content: ""},
	})
	require.Len(t, system, 1)
	assert.Equal(t, "rules", system[0].Text)
	require.Len(t, msgs, 1)
	assert.Equal(t, anthropic.MessageParamRoleUser, msgs[0].Role)
}

func TestChatAgainstFakeServer(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1",
			"type": "message",
			"role": "assistant",
			"model": "claude-3-5-haiku-20241022",
			"content": [{"type": "text", "text": "OK"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 9, "output_tokens": 1}
		}`))
	}))
	defer srv.Close()

	c := New("test-key", WithBaseURL(srv.URL))
	resp, err := c.Chat(context.Background(), []ai.Message{
		ai.NewSystemMessage("Reply with OK"),
		ai.NewUserMessage("Hello"),
	})
	require.NoError(t, err)

	assert.Equal(t, "OK", resp.Content)
	assert.Equal(t, "claude-3-5-haiku-20241022", resp.Model)
	assert.Equal(t, ai.Usage{PromptTokens: 9, CompletionTokens: 1, TotalTokens: 10}, resp.Usage)
	assert.EqualValues(t, defaultMaxTokens, captured["max_tokens"])
	assert.NotNil(t, captured["system"])
}

func TestChatMapsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"busy"}}`))
	}))
	defer srv.Close()

	_, err := New("k", WithBaseURL(srv.URL)).Chat(context.Background(), []ai.Message{ai.NewUserMessage("x")})
	var pe *ai.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.True(t, pe.Retryable())
	assert.Equal(t, http.StatusServiceUnavailable, pe.StatusCode())
}
