package cache

import (
	"context"
	"sync"
	"time"

	"github.com/spetersoncode/almond"
)

// Memory is an in-process cache for single-instance deployments. Entries
// are stored in the same encoding as Redis and expire lazily on lookup.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu   sync.RWMutex
	data map[string]memoryEntry
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// NewMemory creates an empty in-memory cache. A ttl of zero or less uses
// DefaultTTL.
func NewMemory(ttl time.Duration) *Memory {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Memory{ttl: ttl, now: time.Now, data: make(map[string]memoryEntry)}
}

// Get implements client.Cache.
func (m *Memory) Get(_ context.Context, key string) (*almond.Response, bool) {
	m.mu.RLock()
	e, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !m.now().Before(e.expires) {
		m.mu.Lock()
		if cur, ok := m.data[key]; ok && !m.now().Before(cur.expires) {
			delete(m.data, key)
		}
		m.mu.Unlock()
		return nil, false
	}
	resp, err := decode(e.data)
	if err != nil {
		return nil, false
	}
	return resp, true
}

// Set implements client.Cache.
func (m *Memory) Set(_ context.Context, key string, resp *almond.Response) {
	data, err := encode(resp)
	if err != nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = memoryEntry{data: data, expires: m.now().Add(m.ttl)}
}

// Len returns the number of stored entries, expired ones included.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

// Clear removes every entry.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]memoryEntry)
}
