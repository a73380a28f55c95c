package storage

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"

	apperrors "github.com/lcrostarosa/nirbhaya/internal/errors"
)

// DefaultRedisPrefix namespaces keys in a shared Redis
const DefaultRedisPrefix = "nirbhaya:"

// RedisKV stores records as plain Redis strings without expiry
type RedisKV struct {
	client *redis.Client
	prefix string
}

// NewRedisKV wraps a go-redis client. An empty prefix uses DefaultRedisPrefix.
func NewRedisKV(client *redis.Client, prefix string) *RedisKV {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisKV{client: client, prefix: prefix}
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperrors.ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

// Ping checks connectivity
func (r *RedisKV) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
