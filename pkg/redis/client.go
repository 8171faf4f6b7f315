package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/wonny/ninthball/pkg/config"
)

const pingTimeout = 3 * time.Second

// Client Redis 연결
// REDIS_ENABLED=false면 연결 없이 만들어지고 모든 연산은 no-op (캐시 miss, 제한 없음)
// ⭐ SSOT: Redis 연결과 키 namespace는 여기서만
type Client struct {
	rdb       *goredis.Client
	namespace string
}

// New connects and pings. namespace는 모든 키 앞에 붙음 (여러 배포가 한 Redis를 공유)
func New(ctx context.Context, cfg config.RedisConfig, namespace string) (*Client, error) {
	if !cfg.Enabled {
		return &Client{namespace: namespace}, nil
	}

	addr := net.JoinHostPort(cfg.Host, cfg.Port)
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}

	return NewWithClient(rdb, namespace), nil
}

// NewWithClient 이미 연결된 go-redis 클라이언트를 감쌈 (ping 없음)
func NewWithClient(rdb *goredis.Client, namespace string) *Client {
	return &Client{rdb: rdb, namespace: namespace}
}

// Enabled returns whether Redis is connected
func (c *Client) Enabled() bool {
	return c != nil && c.rdb != nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}

// HealthCheck /health 용 상태 ("disabled" | "healthy" | "unhealthy")
func (c *Client) HealthCheck(ctx context.Context) (string, error) {
	if !c.Enabled() {
		return "disabled", nil
	}
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return "unhealthy", fmt.Errorf("redis ping: %w", err)
	}
	return "healthy", nil
}

// key <namespace>:<kind>:<name>
func (c *Client) key(kind, name string) string {
	return c.namespace + ":" + kind + ":" + name
}
