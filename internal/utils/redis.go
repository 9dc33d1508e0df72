package utils

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix   = "journal:"
	redisDialTimeout = 5 * time.Second
)

var ErrCacheMiss = errors.New("cache miss")

// RedisClient keeps JSON values under the journal key namespace and
// publishes journal events. Channel names are not prefixed.
type RedisClient struct {
	rdb *redis.Client
}

func NewRedisClient(ctx context.Context, redisURL string) (*RedisClient, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisDialTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &RedisClient{rdb: rdb}, nil
}

func namespaced(key string) string {
	return redisKeyPrefix + key
}

// Set stores value as JSON; a zero ttl keeps the key forever
func (c *RedisClient) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.rdb.Set(ctx, namespaced(key), payload, ttl).Err()
}

// Get decodes the cached JSON into dest or returns ErrCacheMiss
func (c *RedisClient) Get(ctx context.Context, key string, dest interface{}) error {
	raw, err := c.rdb.Get(ctx, namespaced(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return ErrCacheMiss
	case err != nil:
		return err
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (c *RedisClient) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, namespaced(key)).Err()
}

// Exists reports false when Redis cannot be reached
func (c *RedisClient) Exists(ctx context.Context, key string) bool {
	n, err := c.rdb.Exists(ctx, namespaced(key)).Result()
	return err == nil && n > 0
}

func (c *RedisClient) Publish(ctx context.Context, channel string, payload interface{}) error {
	msg, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode event for %s: %w", channel, err)
	}
	return c.rdb.Publish(ctx, channel, msg).Err()
}

func (c *RedisClient) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *RedisClient) Close() error {
	return c.rdb.Close()
}
