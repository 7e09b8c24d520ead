package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCache 是基于 Redis 的 Cache 实现，可在多个进程实例之间共享。
type RedisCache struct {
	client     *redis.Client
	defaultTTL time.Duration
}

// NewRedisCache 创建一个 RedisCache。
func NewRedisCache(client *redis.Client, defaultTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, defaultTTL: defaultTTL}
}

// Set 写入一个值，并设置过期时间。
func (c *RedisCache) Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	return c.client.Set(ctx, namespacedKey(namespace, key), value, ttl).Err()
}

// Get 读取一个值。
func (c *RedisCache) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, namespacedKey(namespace, key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	return data, nil
}

// Delete 删除一个键。
func (c *RedisCache) Delete(ctx context.Context, namespace, key string) error {
	return c.client.Del(ctx, namespacedKey(namespace, key)).Err()
}
