package kvstore

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

// keyPrefix 避免与同一 Redis 实例上的其他应用冲突。
const keyPrefix = "chunrag:"

// redisStore 以 Redis 作为 key → JSON 文档的后端。
// Redis 的 SET 本身是原子的，满足全有或全无的写入要求。
type redisStore struct {
	client *redis.Client
}

// NewRedisStore 创建一个以 Redis 为后端的 Store，并在启动时验证连通性。
func NewRedisStore(addr, password string, db int) (Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}
	return &redisStore{client: client}, nil
}

// Get 读取 key 对应的 JSON 文档。
func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("读取 %s 失败: %w", key, err)
	}
	return data, nil
}

// Set 写入 key 对应的 JSON 文档，数据常驻不过期。
func (s *redisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, keyPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", key, err)
	}
	return nil
}

// Delete 删除 key。
func (s *redisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("删除 %s 失败: %w", key, err)
	}
	return nil
}
