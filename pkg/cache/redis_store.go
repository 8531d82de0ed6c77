package cache

import (
	"context"
	"time"

	"timegrid/backend/pkg/redis"
)

// redisStore 基于 pkg/redis 客户端的 Store 实现
type redisStore struct {
	client *redis.Client
}

// NewRedisStore 以 Redis 为缓存后端
func NewRedisStore(client *redis.Client) Store {
	return &redisStore{client: client}
}

func (r *redisStore) Get(ctx context.Context, key string) (string, error) {
	return r.client.GetRaw(ctx, key)
}

func (r *redisStore) Set(ctx context.Context, key, val string, ttl time.Duration) error {
	return r.client.SetRaw(ctx, key, val, ttl)
}

func (r *redisStore) Delete(ctx context.Context, key string) error {
	return r.client.Delete(ctx, key)
}
