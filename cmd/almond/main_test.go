package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/almond/analyzer"
)

// useMock points configuration at the offline mock backend.
func useMock(t *testing.T) {
	t.Helper()
	t.Setenv("ALMOND_CONFIG", "")
	t.Setenv("ALMOND_PROVIDER", "mock")
	t.Setenv("ALMOND_LOG_LEVEL", "error")
	t.Setenv("ALMOND_REDIS_ENABLED", "false")
	t.Setenv("ALMOND_TRACE_EXPORTER", "none")
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestClassifyCommand(t *testing.T) {
	useMock(t)

	out, err := execute(t, "", "classify", "--text", "buy milk on the way home")
	require.NoError(t, err)

	var res analyzer.ClassificationResult
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.True(t, res.Success)
	assert.Equal(t, "unclear", res.Classification)
	assert.NotEmpty(t, res.Title)
	assert.Contains(t, out, "\n  \"success\"", "output is indented")
}

func TestClassifyCommandReadsStdin(t *testing.T) {
	useMock(t)

	out, err := execute(t, `{"title":"Dentist","content":"Book a cleaning"}`, "classify", "--input", "-")
	require.NoError(t, err)

	var res analyzer.ClassificationResult
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.Equal(t, "Dentist", res.Title)
}

func TestRetrospectCommandReadsFile(t *testing.T) {
	useMock(t)
	path := filepath.Join(t.TempDir(), "req.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"title": "Ship v1",
		"content": "Released on time",
		"createdAt": "2025-01-01",
		"completedAt": "2025-03-01"
	}`), 0o600))

	out, err := execute(t, "", "retrospect", "-i", path)
	require.NoError(t, err)

	var res analyzer.RetrospectResult
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.Equal(t, "completed", res.Classification)
	assert.Equal(t, "archived", res.RecommendedStatus)
}

func TestEvolveCommandRejectsUnknownBehavior(t *testing.T) {
	useMock(t)

	_, err := execute(t, "", "evolve",
		"--title", "Learn piano", "--content", "Practice scales",
		"--type", "action", "--state", "action", "--behavior", "shout")
	require.Error(t, err)
	assert.ErrorIs(t, err, analyzer.ErrInvalidRequest)
}

func TestHealthCommand(t *testing.T) {
	useMock(t)

	out, err := execute(t, "", "health")
	require.NoError(t, err)

	var h analyzer.HealthResult
	require.NoError(t, json.Unmarshal([]byte(out), &h), out)
	assert.Equal(t, "healthy", h.Status)
	assert.Equal(t, "mock", h.Provider)
}

func TestInvalidConfiguration(t *testing.T) {
	useMock(t)
	t.Setenv("ALMOND_PROVIDER", "nope")

	_, err := execute(t, "", "health")
	assert.ErrorContains(t, err, "nope")
}

func TestRejectsPositionalArguments(t *testing.T) {
	useMock(t)

	_, err := execute(t, "", "classify", "extra")
	assert.Error(t, err)
}
