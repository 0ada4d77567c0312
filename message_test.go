package almond

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageConstructors(t *testing.T) {
	assert.Equal(t, Message{Role: RoleSystem, Content: "s"}, NewSystemMessage("s"))
	assert.Equal(t, Message{Role: RoleUser, Content: "u"}, NewUserMessage("u"))
}

func TestNewUsage(t *testing.T) {
	tests := []struct {
		name                      string
		prompt, completion, total int
		want                      Usage
	}{
		{"reported total", 10, 20, 30, Usage{10, 20, 30}},
		{"missing total", 10, 20, 0, Usage{10, 20, 30}},
		{"negative counts", -1, 5, 0, Usage{0, 5, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewUsage(tt.prompt, tt.completion, tt.total))
		})
	}
}

func TestResponseJSONOmitsRaw(t *testing.T) {
	resp := Response{Content: "{}", Model: "m", Raw: map[string]any{"secret": true}}
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")
	assert.Contains(t, string(data), `"model":"m"`)
}
