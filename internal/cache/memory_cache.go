package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// MemorySnapshotCache локальный кеш снимков для одного узла
type MemorySnapshotCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
	stats   counters
}

// NewMemorySnapshotCache создаёт пустой кеш в памяти
func NewMemorySnapshotCache() *MemorySnapshotCache {
	return &MemorySnapshotCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (m *MemorySnapshotCache) Get(_ context.Context, world string) ([]byte, error) {
	atomic.AddInt64(&m.stats.requests, 1)

	m.mu.RLock()
	e, ok := m.entries[world]
	m.mu.RUnlock()

	if !ok || (!e.expires.IsZero() && m.now().After(e.expires)) {
		atomic.AddInt64(&m.stats.misses, 1)
		return nil, ErrCacheMiss
	}

	atomic.AddInt64(&m.stats.hits, 1)
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, nil
}

func (m *MemorySnapshotCache) Set(_ context.Context, world string, data []byte, ttl time.Duration) error {
	e := memoryEntry{data: append([]byte(nil), data...)}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[world] = e
	m.mu.Unlock()
	return nil
}

func (m *MemorySnapshotCache) Delete(_ context.Context, world string) error {
	m.mu.Lock()
	delete(m.entries, world)
	m.mu.Unlock()
	return nil
}

func (m *MemorySnapshotCache) Close() error { return nil }

func (m *MemorySnapshotCache) Metrics() Metrics {
	return m.stats.metrics()
}
