// Package cache holds the page cache and webhook idempotency stores.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatch = 100

// Redis caches JSON values under a key prefix.
type Redis struct {
	client *redis.Client
	prefix string
}

// Open parses a redis:// URL and checks the connection.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (c *Redis) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal: %w", err)
	}
	return true, nil
}

func (c *Redis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// InvalidatePrefix deletes every key under prefix using SCAN, never KEYS.
func (c *Redis) InvalidatePrefix(ctx context.Context, prefix string) error {
	pattern := c.prefix + prefix + "*"
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, pattern, scanBatch).Result()
		if err != nil {
			return fmt.Errorf("cache scan: %w", err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache delete: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// RedisIdempotency remembers processed webhook ids with SETNX.
type RedisIdempotency struct {
	client *redis.Client
	prefix string
}

func NewRedisIdempotency(client *redis.Client, prefix string) *RedisIdempotency {
	if prefix == "" {
		prefix = "webhook:idempotency:"
	}
	return &RedisIdempotency{client: client, prefix: prefix}
}

// MarkProcessed returns true the first time id is seen within ttl.
func (s *RedisIdempotency) MarkProcessed(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.prefix+id, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark processed: %w", err)
	}
	return ok, nil
}

func (s *RedisIdempotency) Release(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.prefix+id).Err(); err != nil {
		return fmt.Errorf("release: %w", err)
	}
	return nil
}
