package proxy

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/govguard/govguard/internal/ports"
)

// RedisRateLimiter is a fixed-window counter per key
type RedisRateLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

// NewRedisRateLimiter allows limit calls per window for each key.
// Non-positive values fall back to 60 calls per minute.
func NewRedisRateLimiter(client *redis.Client, limit int, window time.Duration) *RedisRateLimiter {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RedisRateLimiter{client: client, limit: limit, window: window}
}

// Allow counts the call and reports whether the key is still under the limit
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	windowKey := fmt.Sprintf("govguard:rl:%s:%d", key, time.Now().UnixNano()/int64(l.window))

	pipeline := l.client.TxPipeline()
	incrCmd := pipeline.Incr(ctx, windowKey)
	pipeline.Expire(ctx, windowKey, l.window)

	if _, err := pipeline.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	return incrCmd.Val() <= int64(l.limit), nil
}

// Window returns the length of one counting window
func (l *RedisRateLimiter) Window() time.Duration {
	return l.window
}

// NoopRateLimiter allows every call
type NoopRateLimiter struct{}

func (NoopRateLimiter) Allow(ctx context.Context, key string) (bool, error) { return true, nil }

var (
	_ ports.RateLimiter = (*RedisRateLimiter)(nil)
	_ ports.RateLimiter = NoopRateLimiter{}
)
