package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "portal:visitante:"

type redisCommander interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// Redis guarda o armazenamento local de um visitante num hash com expiração.
type Redis struct {
	client redisCommander
	key    string
	ttl    time.Duration
}

// NewRedis cria o store do visitante; ttl <= 0 desativa a expiração.
func NewRedis(client redisCommander, visitorID string, ttl time.Duration) *Redis {
	return &Redis{client: client, key: redisKeyPrefix + visitorID, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.HGet(ctx, r.key, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("storage: redis hget: %w", err)
	}
	return val, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.HSet(ctx, r.key, key, value).Err(); err != nil {
		return fmt.Errorf("storage: redis hset: %w", err)
	}
	if r.ttl > 0 {
		return r.Expire(ctx, r.ttl)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.HDel(ctx, r.key, key).Err(); err != nil {
		return fmt.Errorf("storage: redis hdel: %w", err)
	}
	return nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("storage: redis del: %w", err)
	}
	return nil
}

// Expire redefine a expiração do hash do visitante.
func (r *Redis) Expire(ctx context.Context, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := r.client.Expire(ctx, r.key, ttl).Err(); err != nil {
		return fmt.Errorf("storage: redis expire: %w", err)
	}
	return nil
}
