package workflow

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	ai "github.com/spetersoncode/almond"
	"github.com/spetersoncode/almond/client"
	"github.com/spetersoncode/almond/internal/provider/mock"
	"github.com/spetersoncode/almond/internal/retry"
	"github.com/stretchr/testify/require"
)

func fastRetry() retry.Config {
	return retry.Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
		Multiplier:   2,
	}
}

// jsonReply scripts a backend reply carrying v as JSON.
func jsonReply(t *testing.T, v any) mock.Reply {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return mock.Reply{Content: string(data)}
}

// newTestSteps wires the step library to a scripted mock backend.
func newTestSteps(t *testing.T, replies ...mock.Reply) (*Steps, *mock.Client) {
	t.Helper()
	backend := mock.New(mock.WithReplies(replies...))
	c := newMockGenerator(backend)
	resolver := ResolverFunc(func(context.Context, string, string) (ai.TextGenerator, error) {
		return c, nil
	})
	return NewSteps(resolver, Settings{Provider: ai.ProviderMock}), backend
}

func newMockGenerator(backend *mock.Client) *client.Client {
	return client.New(ai.ProviderMock, backend, "", client.WithRetryConfig(fastRetry()))
}

func groceries() State {
	return NewState("Buy groceries", "Eggs, milk and bread before the weekend")
}
