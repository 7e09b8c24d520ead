package redis

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"TubeDigest/internal/config"

	"github.com/go-redis/redis/v8"
)

// connectTimeout 限制初次建立连接时 Ping 的等待时间。
const connectTimeout = 5 * time.Second

var (
	client  *redis.Client
	once    sync.Once
	initErr error
)

// GetClient 使用单例模式初始化并返回一个 Redis 客户端实例。
// 任务存储与字幕缓存共用同一个连接池。
func GetClient(cfg *config.RedisConfig) (*redis.Client, error) {
	once.Do(func() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			initErr = fmt.Errorf("无法连接到 Redis (%s): %w", cfg.Address, err)
			return
		}

		log.Printf("成功连接到 Redis: %s (db %d)", cfg.Address, cfg.DB)
		client = rdb
	})

	return client, initErr
}

// Close 安全地关闭单例的 Redis 连接。
func Close() error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// HealthCheck 检查 Redis 连接的健康状况，供 /health 端点使用。
func HealthCheck(ctx context.Context) error {
	if client == nil {
		return fmt.Errorf("Redis 客户端未初始化")
	}
	return client.Ping(ctx).Err()
}
