// Package idempotency remembers which order an Idempotency-Key produced.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pendingValue = "pending"

// ErrInProgress is returned by Reserve while another request holds the key.
var ErrInProgress = errors.New("idempotent request in progress")

type RedisStore struct {
	client     *redis.Client
	ttl        time.Duration
	pendingTTL time.Duration
}

// NewRedis stores completed keys for ttl. A reservation that is never
// completed expires after a minute so a crashed request cannot block a key.
func NewRedis(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, pendingTTL: time.Minute}
}

// Reserve claims key for the caller. It returns ("", nil) when the caller now
// owns the key, the stored result when the key already completed, and
// ErrInProgress when another request owns it.
func (s *RedisStore) Reserve(ctx context.Context, key string) (string, error) {
	ok, err := s.client.SetNX(ctx, redisKey(key), pendingValue, s.pendingTTL).Result()
	if err != nil {
		return "", fmt.Errorf("redis setnx failed: %w", err)
	}
	if ok {
		return "", nil
	}

	val, err := s.client.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; try once more.
		return s.reserveAgain(ctx, key)
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	if val == pendingValue {
		return "", ErrInProgress
	}
	return val, nil
}

func (s *RedisStore) reserveAgain(ctx context.Context, key string) (string, error) {
	ok, err := s.client.SetNX(ctx, redisKey(key), pendingValue, s.pendingTTL).Result()
	if err != nil {
		return "", fmt.Errorf("redis setnx failed: %w", err)
	}
	if !ok {
		return "", ErrInProgress
	}
	return "", nil
}

// Complete records result for key.
func (s *RedisStore) Complete(ctx context.Context, key, result string) error {
	if err := s.client.Set(ctx, redisKey(key), result, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Release drops a reservation so the key can be retried.
func (s *RedisStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func redisKey(key string) string {
	return fmt.Sprintf("idempotency:%s", key)
}
