package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"animstory/internal/config"
)

// ErrMiss key 不存在
var ErrMiss = errors.New("cache miss")

// RedisCache Redis 缓存封装，值以 JSON 存储
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache 创建 Redis 缓存客户端并检查连通性
func NewRedisCache(cfg *config.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &RedisCache{client: client}, nil
}

// Set 设置缓存
func (c *RedisCache) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, expiration).Err()
}

// Get 获取缓存，不存在时返回 ErrMiss
func (c *RedisCache) Get(ctx context.Context, key string, dest any) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Ping 检查连接，用于就绪探针
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close 关闭连接
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// 视频操作结果缓存
const (
	VideoOperationKeyPrefix = "video_op:"
	VideoOperationTTL       = time.Hour
)

// VideoOperationKey 生成视频操作结果缓存 key
func VideoOperationKey(operationName string) string {
	return VideoOperationKeyPrefix + operationName
}
