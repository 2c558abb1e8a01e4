// Package cache stores short-lived rendered views keyed by owner.
package cache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// ViewCache keeps a serialized view per key until it expires or is
// invalidated.
type ViewCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Invalidate(ctx context.Context, keys ...string) error
}

// RedisViewCache keeps views in Redis with a TTL.
type RedisViewCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisViewCache connects to Redis and verifies the connection.
func NewRedisViewCache(ctx context.Context, addr, password string, db int, prefix string, ttl time.Duration) (*RedisViewCache, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("view cache redis addr is required")
	}
	if ttl <= 0 {
		return nil, errors.New("view cache requires a positive ttl")
	}
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "journal:view"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &RedisViewCache{client: client, prefix: prefix, ttl: ttl}, nil
}

func (c *RedisViewCache) key(k string) string {
	return c.prefix + ":" + k
}

func (c *RedisViewCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisViewCache) Set(ctx context.Context, key string, value []byte) error {
	return c.client.Set(ctx, c.key(key), value, c.ttl).Err()
}

func (c *RedisViewCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

func (c *RedisViewCache) Close() error {
	return c.client.Close()
}

// Nop never stores anything; every Get misses.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte) error         { return nil }
func (Nop) Invalidate(context.Context, ...string) error       { return nil }
