package utils

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const lockKeyPrefix = "lock:"

// Locker provides mutual exclusion keyed by an arbitrary string.
// Acquire returns false when another holder owns the key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisLocker implements Locker with SETNX and a TTL so a crashed
// holder cannot wedge the key forever.
type RedisLocker struct {
	Client *redis.Client
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{Client: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return l.Client.SetNX(ctx, lockKeyPrefix+key, "1", ttl).Result()
}

func (l *RedisLocker) Release(ctx context.Context, key string) error {
	return l.Client.Del(ctx, lockKeyPrefix+key).Err()
}
