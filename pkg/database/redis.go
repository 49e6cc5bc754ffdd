package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss 快取中沒有該 key
var ErrCacheMiss = redis.Nil

// RedisRepository 定義泛型快取介面
type RedisRepository[T any] interface {
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
	Get(ctx context.Context, key string) (T, error)
	Del(ctx context.Context, key string) error
}

// redisRepository 實現 RedisRepository
type redisRepository[T any] struct {
	client *redis.Client
}

// NewRedisRepository init Redis repository (Set, Get, Del)
// sentinelAddrs 為空時使用單機位址 addr 連線，否則走 Sentinel
func NewRedisRepository[T any](masterName, addr string, sentinelAddrs []string, db int) (RedisRepository[T], error) {
	var rdb *redis.Client
	if len(sentinelAddrs) > 0 {
		rdb = redis.NewFailoverClient(&redis.FailoverOptions{
			MasterName:    masterName,
			SentinelAddrs: sentinelAddrs,
			DB:            db,
		})
	} else {
		rdb = redis.NewClient(&redis.Options{
			Addr: addr,
			DB:   db,
		})
	}

	// 測試連線
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &redisRepository[T]{client: rdb}, nil
}

func (r *redisRepository[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	// 將 value 序列化為 JSON
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return r.client.Set(ctx, key, data, ttl).Err()
}

func (r *redisRepository[T]) Get(ctx context.Context, key string) (T, error) {
	var zeroValue T
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return zeroValue, ErrCacheMiss
	} else if err != nil {
		return zeroValue, fmt.Errorf("failed to get cache value: %w", err)
	}

	var result T
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return zeroValue, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return result, nil
}

func (r *redisRepository[T]) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}
