package engine

import (
	"context"
	"time"

	"github.com/wonny/ninthball/internal/regime"
	"github.com/wonny/ninthball/pkg/redis"
)

// ModelCache 국면 모델 저장소
// 복원한 모델은 Engine이 카탈로그와 대조 검증 후에만 사용
type ModelCache interface {
	Get(ctx context.Context, key string) (*regime.Model, bool, error)
	Put(ctx context.Context, key string, m *regime.Model) error
}

// RedisModelCache pkg/redis Cache 기반 ModelCache
// Redis 비활성 시 항상 miss, 저장은 no-op
type RedisModelCache struct {
	cache *redis.Cache
	ttl   time.Duration
}

// NewRedisModelCache creates a Redis-backed model cache
func NewRedisModelCache(cache *redis.Cache, ttl time.Duration) *RedisModelCache {
	if ttl <= 0 {
		ttl = redis.TTLDaily
	}
	return &RedisModelCache{cache: cache, ttl: ttl}
}

// Get implements ModelCache
func (c *RedisModelCache) Get(ctx context.Context, key string) (*regime.Model, bool, error) {
	var m regime.Model
	found, err := c.cache.Get(ctx, key, &m)
	if err != nil || !found {
		return nil, false, err
	}
	return &m, true, nil
}

// Put implements ModelCache
func (c *RedisModelCache) Put(ctx context.Context, key string, m *regime.Model) error {
	return c.cache.Set(ctx, key, m, c.ttl)
}
