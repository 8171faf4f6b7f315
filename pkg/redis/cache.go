package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wonny/ninthball/pkg/logger"
)

// 캐시 TTL
const (
	TTLShort  = 1 * time.Minute  // 시나리오 응답 (/api/scenarios/{iteration})
	TTLMedium = 10 * time.Minute // 카탈로그 응답 (/api/catalog)
	TTLDaily  = 24 * time.Hour   // 국면 모델 (REDIS_MODEL_TTL 기본값)
)

// Cache JSON 값 캐시
// 값은 스냅샷에서 결정적으로 만들어지므로 키에 스냅샷 fingerprint를 넣어야 함
type Cache struct {
	client *Client
	logger *logger.Logger
}

// NewCache creates a cache on client (nil log = Nop)
func NewCache(client *Client, log *logger.Logger) *Cache {
	if log == nil {
		log = logger.Nop()
	}
	return &Cache{client: client, logger: log}
}

// Enabled returns whether reads/writes reach Redis
func (c *Cache) Enabled() bool {
	return c != nil && c.client.Enabled()
}

// Get decodes a cached value into dest. miss면 (false, nil)
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}

	data, err := c.client.rdb.Get(ctx, c.client.key("cache", key)).Bytes()
	switch {
	case errors.Is(err, goredis.Nil):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores value as JSON with ttl
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := c.client.rdb.Set(ctx, c.client.key("cache", key), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// GetOrSet 캐시 조회, miss면 fn 결과를 저장하고 반환
// 반환 bool: 캐시 hit 여부
// 캐시 읽기/쓰기 실패는 경고만 남기고 fn 결과를 사용 (캐시 장애가 응답을 막지 않음)
// c가 nil이거나 비활성이면 항상 fn
func GetOrSet[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, fn func() (T, error)) (T, bool, error) {
	if !c.Enabled() {
		v, err := fn()
		return v, false, err
	}

	var cached T
	found, err := c.Get(ctx, key, &cached)
	if err != nil {
		c.logger.WithError(err).Warn("Cache read failed")
	}
	if found {
		return cached, true, nil
	}

	v, err := fn()
	if err != nil {
		return v, false, err
	}
	if err := c.Set(ctx, key, v, ttl); err != nil {
		c.logger.WithError(err).Warn("Cache write failed")
	}
	return v, false, nil
}

// ModelKey 국면 모델 캐시 키
// 시계열 내용과 모델 관련 설정이 모두 같아야 같은 키
func ModelKey(seriesDigest, modelHash string) string {
	sum := sha256.Sum256([]byte(seriesDigest + "|" + modelHash))
	return fmt.Sprintf("regime-model:%s", hex.EncodeToString(sum[:]))
}
