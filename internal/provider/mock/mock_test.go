package mock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	ai "github.com/spetersoncode/almond"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatEcho(t *testing.T) {
	c := New()
	resp, err := c.Chat(context.Background(), []ai.Message{
		ai.NewSystemMessage("be brief"),
		ai.NewUserMessage("Hello"),
	})
	require.NoError(t, err)
	assert.Equal(t, "[mock:mock-model] be brief\nHello", resp.Content)
	assert.Equal(t, "mock-model", resp.Model)
	assert.Equal(t, 1, c.Calls())
}

func TestChatEchoJSONMode(t *testing.T) {
	c := New(WithModel("m1"))
	resp, err := c.Chat(context.Background(), []ai.Message{ai.NewUserMessage("note")}, ai.WithJSONMode())
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Content), &body))
	assert.Equal(t, "unclear", body["classification"])
	assert.Equal(t, "m1", resp.Model)
}

func TestChatScript(t *testing.T) {
	failure := errors.New("boom")
	c := New(WithReplies(
		Reply{Err: failure},
		Reply{Content: `{"a":1}`},
	))

	_, err := c.Chat(context.Background(), []ai.Message{ai.NewUserMessage("x")})
	assert.Equal(t, failure, err)

	resp, err := c.Chat(context.Background(), []ai.Message{ai.NewUserMessage("y")}, ai.WithModel("override"))
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, resp.Content)
	assert.Equal(t, "override", resp.Model)

	reqs := c.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "y", reqs[1][0].Content)
}

func TestChatCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New().Chat(ctx, []ai.Message{ai.NewUserMessage("x")})
	assert.True(t, errors.Is(err, context.Canceled))
}
