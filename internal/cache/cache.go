package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// ErrCacheMiss 在键不存在或已过期时返回。
var ErrCacheMiss = errors.New("cache: key not found")

// Cache 定义了带命名空间的键值缓存接口。
// 字幕、视频信息与任务记录分别使用不同的命名空间和 TTL。
type Cache interface {
	// Set 写入一个值。ttl <= 0 时使用实现方的默认 TTL。
	Set(ctx context.Context, namespace, key string, value []byte, ttl time.Duration) error
	// Get 读取一个值，键不存在或已过期时返回 ErrCacheMiss。
	Get(ctx context.Context, namespace, key string) ([]byte, error)
	// Delete 删除一个键。键不存在时不报错。
	Delete(ctx context.Context, namespace, key string) error
}

// namespacedKey 将命名空间与键拼接为存储层使用的完整键。
func namespacedKey(namespace, key string) string {
	return namespace + ":" + key
}

// SetJSON 将值序列化为 JSON 后写入缓存。
func SetJSON(ctx context.Context, c Cache, namespace, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, namespace, key, data, ttl)
}

// GetJSON 从缓存读取并反序列化 JSON 值。
func GetJSON(ctx context.Context, c Cache, namespace, key string, out interface{}) error {
	data, err := c.Get(ctx, namespace, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
