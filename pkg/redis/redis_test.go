package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"

	"github.com/wonny/ninthball/pkg/config"
)

func newMock(t *testing.T) (*Cache, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	client := NewWithClient(db, "t")
	t.Cleanup(func() { client.Close() })
	return NewCache(client, nil), mock
}

func TestNewClient_Disabled(t *testing.T) {
	client, err := New(context.Background(), config.RedisConfig{Enabled: false}, "t")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if client.Enabled() {
		t.Error("Expected client to be disabled")
	}

	status, err := client.HealthCheck(context.Background())
	if err != nil || status != "disabled" {
		t.Errorf("HealthCheck() = %q, %v; want disabled", status, err)
	}
}

func TestClient_NilIsDisabled(t *testing.T) {
	var client *Client
	if client.Enabled() {
		t.Error("Expected nil client to be disabled")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestClient_HealthCheck(t *testing.T) {
	db, mock := redismock.NewClientMock()
	client := NewWithClient(db, "t")
	defer client.Close()

	mock.ExpectPing().SetVal("PONG")
	status, err := client.HealthCheck(context.Background())
	if err != nil || status != "healthy" {
		t.Errorf("HealthCheck() = %q, %v; want healthy", status, err)
	}

	mock.ExpectPing().SetErr(errors.New("connection refused"))
	status, err = client.HealthCheck(context.Background())
	if err == nil || status != "unhealthy" {
		t.Errorf("HealthCheck() = %q, %v; want unhealthy with error", status, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	client, _ := New(context.Background(), config.RedisConfig{}, "t")
	limiter := NewRateLimiter(client)
	rl := SimulationRateLimit(1, 3)

	// When Redis is disabled, all requests should be allowed
	d, err := limiter.Allow(context.Background(), rl)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !d.Allowed {
		t.Error("Expected request to be allowed when Redis disabled")
	}
	if d.Remaining != rl.Limit {
		t.Errorf("Expected remaining = %d, got %d", rl.Limit, d.Remaining)
	}
}

func TestDecide(t *testing.T) {
	now := int64(100_000)

	d, err := decide([]int64{1, 4, 0}, now, time.Minute)
	if err != nil {
		t.Fatalf("decide() error = %v", err)
	}
	if !d.Allowed || d.Remaining != 4 || d.RetryAfter != 0 {
		t.Errorf("allowed decision = %+v", d)
	}

	// 가장 오래된 요청이 20초 전 → 40초 뒤 창을 벗어남
	d, _ = decide([]int64{0, 0, now - 20_000}, now, time.Minute)
	if d.Allowed {
		t.Error("Expected rejection")
	}
	if d.RetryAfter != 40*time.Second {
		t.Errorf("RetryAfter = %v, want 40s", d.RetryAfter)
	}

	// 이미 창을 벗어난 항목이어도 최소 1ms
	d, _ = decide([]int64{0, 0, now - 90_000}, now, time.Minute)
	if d.RetryAfter != time.Millisecond {
		t.Errorf("RetryAfter = %v, want 1ms", d.RetryAfter)
	}

	if _, err := decide([]int64{1}, now, time.Minute); err == nil {
		t.Error("Expected error for malformed script result")
	}
}

func TestCache_Disabled(t *testing.T) {
	client, _ := New(context.Background(), config.RedisConfig{}, "t")
	cache := NewCache(client, nil)

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(context.Background(), "key", &result)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if found {
		t.Error("Expected cache miss when Redis disabled")
	}
	if err := cache.Set(context.Background(), "key", "v", TTLShort); err != nil {
		t.Errorf("Set() error = %v", err)
	}
}

func TestCache_Get(t *testing.T) {
	cache, mock := newMock(t)
	ctx := context.Background()

	mock.ExpectGet("t:cache:hit").SetVal(`[1,2,3]`)
	mock.ExpectGet("t:cache:miss").RedisNil()
	mock.ExpectGet("t:cache:down").SetErr(errors.New("i/o timeout"))
	mock.ExpectGet("t:cache:bad").SetVal(`{not json`)

	var got []int
	found, err := cache.Get(ctx, "hit", &got)
	if err != nil || !found || len(got) != 3 {
		t.Errorf("hit: found=%v err=%v got=%v", found, err, got)
	}

	found, err = cache.Get(ctx, "miss", &got)
	if err != nil || found {
		t.Errorf("miss: found=%v err=%v", found, err)
	}

	found, err = cache.Get(ctx, "down", &got)
	if err == nil || found {
		t.Errorf("down: expected error, found=%v err=%v", found, err)
	}

	found, err = cache.Get(ctx, "bad", &got)
	if err == nil || !strings.Contains(err.Error(), "decode") {
		t.Errorf("bad: expected decode error, found=%v err=%v", found, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetOrSet(t *testing.T) {
	ctx := context.Background()
	value := []int{1, 2, 3}
	data, _ := json.Marshal(value)

	t.Run("miss stores value", func(t *testing.T) {
		cache, mock := newMock(t)
		mock.ExpectGet("t:cache:k").RedisNil()
		mock.ExpectSet("t:cache:k", data, TTLMedium).SetVal("OK")

		calls := 0
		got, hit, err := GetOrSet(ctx, cache, "k", TTLMedium, func() ([]int, error) {
			calls++
			return value, nil
		})
		if err != nil || hit || calls != 1 || len(got) != 3 {
			t.Errorf("got=%v hit=%v calls=%d err=%v", got, hit, calls, err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})

	t.Run("hit skips fn", func(t *testing.T) {
		cache, mock := newMock(t)
		mock.ExpectGet("t:cache:k").SetVal(string(data))

		got, hit, err := GetOrSet(ctx, cache, "k", TTLMedium, func() ([]int, error) {
			t.Fatal("fn must not run on hit")
			return nil, nil
		})
		if err != nil || !hit || got[2] != 3 {
			t.Errorf("got=%v hit=%v err=%v", got, hit, err)
		}
	})

	t.Run("read error falls back to fn", func(t *testing.T) {
		cache, mock := newMock(t)
		mock.ExpectGet("t:cache:k").SetErr(errors.New("i/o timeout"))
		mock.ExpectSet("t:cache:k", data, TTLShort).SetErr(errors.New("i/o timeout"))

		got, hit, err := GetOrSet(ctx, cache, "k", TTLShort, func() ([]int, error) {
			return value, nil
		})
		if err != nil || hit || len(got) != 3 {
			t.Errorf("got=%v hit=%v err=%v", got, hit, err)
		}
	})

	t.Run("fn error is not cached", func(t *testing.T) {
		cache, mock := newMock(t)
		mock.ExpectGet("t:cache:k").RedisNil()

		_, _, err := GetOrSet(ctx, cache, "k", TTLShort, func() ([]int, error) {
			return nil, errors.New("boom")
		})
		if err == nil {
			t.Error("Expected fn error")
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
	})

	t.Run("nil cache", func(t *testing.T) {
		calls := 0
		_, hit, err := GetOrSet(ctx, nil, "k", TTLShort, func() ([]int, error) {
			calls++
			return value, nil
		})
		if err != nil || hit || calls != 1 {
			t.Errorf("hit=%v calls=%d err=%v", hit, calls, err)
		}
	})
}

func TestModelKey(t *testing.T) {
	a := ModelKey("digest-a", "hash-1")
	if !strings.HasPrefix(a, "regime-model:") {
		t.Errorf("Expected regime-model: prefix, got %q", a)
	}
	if len(a) != len("regime-model:")+64 {
		t.Errorf("Expected sha256 hex suffix, got %q", a)
	}
	if a != ModelKey("digest-a", "hash-1") {
		t.Error("Expected deterministic key")
	}
	if a == ModelKey("digest-b", "hash-1") || a == ModelKey("digest-a", "hash-2") {
		t.Error("Expected key to change with series digest and model hash")
	}
}

func TestSimulationRateLimit(t *testing.T) {
	tests := []struct {
		name      string
		perSecond float64
		burst     int
		wantLimit int
	}{
		{"per second scaled to minute", 2, 3, 120},
		{"burst floor", 0.01, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SimulationRateLimit(tt.perSecond, tt.burst)
			if got.Limit != tt.wantLimit {
				t.Errorf("Limit = %d, want %d", got.Limit, tt.wantLimit)
			}
			if got.Window != time.Minute {
				t.Errorf("Window = %v, want 1m", got.Window)
			}
		})
	}
}
