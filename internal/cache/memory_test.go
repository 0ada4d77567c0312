package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spetersoncode/almond"
	"github.com/spetersoncode/almond/client"
)

var _ client.Cache = (*Memory)(nil)
var _ client.Cache = (*Redis)(nil)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	_, ok := m.Get(ctx, "missing")
	assert.False(t, ok)

	m.Set(ctx, "k", &almond.Response{
		Content: `{"classification":"memory"}`,
		Model:   "qwen-plus",
		Usage:   almond.NewUsage(3, 4, 0),
		Raw:     "dropped",
	})
	resp, ok := m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, `{"classification":"memory"}`, resp.Content)
	assert.Equal(t, 7, resp.Usage.TotalTokens)
	assert.Nil(t, resp.Raw)

	m.Set(ctx, "nil", nil)
	assert.Equal(t, 1, m.Len())
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	m.Set(ctx, "k", &almond.Response{Content: "{}"})
	now = now.Add(59 * time.Second)
	_, ok := m.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Second)
	_, ok = m.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMemoryDefaultsAndClear(t *testing.T) {
	m := NewMemory(0)
	assert.Equal(t, DefaultTTL, m.ttl)

	m.Set(context.Background(), "k", &almond.Response{Content: "{}"})
	m.Clear()
	assert.Equal(t, 0, m.Len())
}

func TestMemoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Set(ctx, "shared", &almond.Response{Content: "{}"})
			m.Get(ctx, "shared")
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, m.Len())
}
