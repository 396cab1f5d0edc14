package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrCacheMiss возвращается, если снимка нет в кеше
var ErrCacheMiss = errors.New("cache miss")

// SnapshotCache общий кеш сжатых снимков палитр между узлами рендера.
//
// Использование:
//
//	c := NewRedisSnapshotCache(cfg)
//	data, err := c.Get(ctx, "overworld")
//	err = c.Set(ctx, "overworld", data, time.Hour)
type SnapshotCache interface {
	// Get возвращает снимок мира или ErrCacheMiss.
	Get(ctx context.Context, world string) ([]byte, error)

	// Set сохраняет снимок. TTL = 0 означает отсутствие истечения.
	Set(ctx context.Context, world string, data []byte, ttl time.Duration) error

	// Delete удаляет снимок.
	Delete(ctx context.Context, world string) error

	// Close закрывает соединение.
	Close() error

	// Metrics возвращает копию счётчиков.
	Metrics() Metrics
}

// Metrics счётчики попаданий кеша
type Metrics struct {
	Requests int64   `json:"requests"`
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRatio float64 `json:"hit_ratio"`
}

// IsCacheMiss проверяет, является ли ошибка промахом кеша
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

type counters struct {
	requests, hits, misses int64
}

func (c *counters) metrics() Metrics {
	m := Metrics{
		Requests: atomic.LoadInt64(&c.requests),
		Hits:     atomic.LoadInt64(&c.hits),
		Misses:   atomic.LoadInt64(&c.misses),
	}
	if m.Requests > 0 {
		m.HitRatio = float64(m.Hits) / float64(m.Requests)
	}
	return m
}
