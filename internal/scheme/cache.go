package scheme

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores grounded search answers so repeated questions do not cost a
// model call.
type Cache interface {
	Get(ctx context.Context, key string) (*SearchResult, bool, error)
	Set(ctx context.Context, key string, r *SearchResult) error
}

// CacheKey derives the cache key for an operation and its inputs.
func CacheKey(op string, lang Language, input string) string {
	sum := sha256.Sum256([]byte(op + "\x00" + string(lang) + "\x00" + input))
	return "welfare-desk:" + op + ":" + hex.EncodeToString(sum[:16])
}

// RedisCache keeps answers in Redis with a fixed TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to the Redis URL and verifies it with a ping.
func NewRedisCache(ctx context.Context, url string, ttl time.Duration) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisCacheFromClient(client, ttl), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*SearchResult, bool, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get: %w", err)
	}
	var r SearchResult
	if err := json.Unmarshal(b, &r); err != nil {
		// A garbled entry is a miss; the next Set overwrites it.
		return nil, false, nil
	}
	return &r, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, r *SearchResult) error {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	if err := c.client.Set(ctx, key, b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
