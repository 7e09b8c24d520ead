package cache

import (
	"context"
	"time"

	"TubeDigest/pkg/util"
)

// MemoryCache 是基于进程内 LRU 的 Cache 实现，
// 供未配置 Redis 的本地部署使用。
type MemoryCache struct {
	lru *util.LRUCache[string, []byte]
}

// NewMemoryCache 创建一个 MemoryCache。
func NewMemoryCache(capacity int, defaultTTL time.Duration) (*MemoryCache, error) {
	lru, err := util.NewWithConfig[string, []byte](util.CacheConfig{
		Capacity:   capacity,
		DefaultTTL: defaultTTL,
	})
	if err != nil {
		return nil, err
	}
	return &MemoryCache{lru: lru}, nil
}

// Set 写入一个值。
func (c *MemoryCache) Set(_ context.Context, namespace, key string, value []byte, ttl time.Duration) error {
	c.lru.Put(namespacedKey(namespace, key), value, ttl)
	return nil
}

// Get 读取一个值。
func (c *MemoryCache) Get(_ context.Context, namespace, key string) ([]byte, error) {
	data, ok := c.lru.Get(namespacedKey(namespace, key))
	if !ok {
		return nil, ErrCacheMiss
	}
	return data, nil
}

// Delete 删除一个键。
func (c *MemoryCache) Delete(_ context.Context, namespace, key string) error {
	c.lru.Delete(namespacedKey(namespace, key))
	return nil
}
