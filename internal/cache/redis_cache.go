package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/annel0/blockstate/internal/logging"
	"github.com/go-redis/redis/v8"
)

const keyPrefix = "blockstate:snapshot:"

// RedisConfig конфигурация подключения
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// MaxTTL ограничивает TTL записей; 0 — без ограничения
	MaxTTL time.Duration
}

// RedisSnapshotCache хранит снимки палитр в Redis
type RedisSnapshotCache struct {
	client *redis.Client
	config RedisConfig
	stats  counters
}

// NewRedisSnapshotCache подключается к Redis и проверяет соединение
func NewRedisSnapshotCache(ctx context.Context, config RedisConfig) (*RedisSnapshotCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logging.Info("Redis snapshot cache initialized: %s", config.Addr)
	return &RedisSnapshotCache{client: rdb, config: config}, nil
}

// Get получает снимок мира из Redis
func (r *RedisSnapshotCache) Get(ctx context.Context, world string) ([]byte, error) {
	atomic.AddInt64(&r.stats.requests, 1)

	val, err := r.client.Get(ctx, keyPrefix+world).Bytes()
	if err == nil {
		atomic.AddInt64(&r.stats.hits, 1)
		return val, nil
	}

	atomic.AddInt64(&r.stats.misses, 1)
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}

	logging.Error("Redis Get error for world %s: %v", world, err)
	return nil, fmt.Errorf("redis get error: %w", err)
}

// Set сохраняет снимок мира в Redis
func (r *RedisSnapshotCache) Set(ctx context.Context, world string, data []byte, ttl time.Duration) error {
	if r.config.MaxTTL > 0 && (ttl == 0 || ttl > r.config.MaxTTL) {
		ttl = r.config.MaxTTL
	}

	if err := r.client.Set(ctx, keyPrefix+world, data, ttl).Err(); err != nil {
		logging.Error("Redis Set error for world %s: %v", world, err)
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

// Delete удаляет снимок мира
func (r *RedisSnapshotCache) Delete(ctx context.Context, world string) error {
	if err := r.client.Del(ctx, keyPrefix+world).Err(); err != nil {
		return fmt.Errorf("redis delete error: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func (r *RedisSnapshotCache) Close() error {
	return r.client.Close()
}

// Metrics возвращает счётчики кеша
func (r *RedisSnapshotCache) Metrics() Metrics {
	return r.stats.metrics()
}
