package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// slidingWindow 창 밖 항목 제거 → 개수 확인 → 허용 시 추가
// 반환: {허용 여부, 남은 횟수, 가장 오래된 항목 시각(ms, 거절 시)}
var slidingWindow = goredis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_ms = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window_ms)
	local count = redis.call('ZCARD', key)
	if count < limit then
		redis.call('ZADD', key, now, ARGV[4])
		redis.call('PEXPIRE', key, window_ms)
		return {1, limit - count - 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local ts = now
	if oldest[2] then ts = tonumber(oldest[2]) end
	return {0, 0, ts}
`)

// RateLimiter 여러 API 인스턴스가 공유하는 sliding window 제한
// ⭐ SSOT: 인스턴스 간 레이트 리밋은 여기서만
type RateLimiter struct {
	client *Client
}

// RateLimitConfig defines rate limit parameters
type RateLimitConfig struct {
	Key    string        // 제한 대상 (e.g., "simulations")
	Limit  int           // 창 안에서 허용 횟수
	Window time.Duration // 창 길이
}

// Decision 제한 판정
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration // 거절 시 가장 오래된 요청이 창을 벗어날 때까지
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// Allow 요청 1건을 기록하고 판정. Redis 비활성이면 항상 허용
func (r *RateLimiter) Allow(ctx context.Context, cfg RateLimitConfig) (Decision, error) {
	if !r.client.Enabled() {
		return Decision{Allowed: true, Remaining: cfg.Limit}, nil
	}

	now := time.Now().UnixMilli()
	// 같은 ms에 들어온 요청끼리 덮어쓰지 않도록 멤버는 고유값
	member := fmt.Sprintf("%d-%s", now, uuid.NewString())
	res, err := slidingWindow.Run(ctx, r.client.rdb, []string{r.client.key("ratelimit", cfg.Key)},
		now, cfg.Window.Milliseconds(), cfg.Limit, member,
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit %s: %w", cfg.Key, err)
	}
	return decide(res, now, cfg.Window)
}

// decide 스크립트 결과 → Decision
func decide(res []int64, now int64, window time.Duration) (Decision, error) {
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("rate limit: unexpected script result %v", res)
	}
	d := Decision{Allowed: res[0] == 1, Remaining: int(res[1])}
	if !d.Allowed {
		wait := time.Duration(res[2]+window.Milliseconds()-now) * time.Millisecond
		d.RetryAfter = max(wait, time.Millisecond)
	}
	return d, nil
}

// SimulationRateLimit POST /api/simulations 공유 제한 (모든 API 인스턴스 합산)
// perSecond 초당 허용 횟수, burst 최소 허용 횟수
func SimulationRateLimit(perSecond float64, burst int) RateLimitConfig {
	limit := int(perSecond * 60)
	if limit < burst {
		limit = burst
	}
	return RateLimitConfig{
		Key:    "simulations",
		Limit:  limit,
		Window: time.Minute,
	}
}
