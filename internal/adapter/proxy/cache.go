package proxy

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/govguard/govguard/internal/ports"
)

// CacheKey derives the cache key for a prompt sent to a provider's model
func CacheKey(provider, model, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return fmt.Sprintf("govguard:gen:%s:%s:%s", provider, model, hex.EncodeToString(sum[:]))
}

// RedisCache stores generated text in Redis with a fixed TTL
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed response cache
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached value, reporting a miss as ok=false with no error
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read cache: %w", err)
	}
	return val, true, nil
}

// Set stores value under key with the configured TTL
func (c *RedisCache) Set(ctx context.Context, key, value string) error {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return nil
}

// NoopCache never stores anything
type NoopCache struct{}

func (NoopCache) Get(ctx context.Context, key string) (string, bool, error) { return "", false, nil }
func (NoopCache) Set(ctx context.Context, key, value string) error          { return nil }

var (
	_ ports.ResponseCache = (*RedisCache)(nil)
	_ ports.ResponseCache = NoopCache{}
)
