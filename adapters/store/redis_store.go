package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/layer-3/walletauth/core"
	"github.com/layer-3/walletauth/ports"
	"github.com/redis/go-redis/v9"
)

var (
	_ ports.ChallengeStore = (*RedisStore)(nil)
	_ ports.Denylist       = (*RedisStore)(nil)
)

// consumeIfScript deletes KEYS[1] only while it holds ARGV[1]
var consumeIfScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore is a Redis implementation of the challenge store and session denylist
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "walletauth:",
	}
}

// Put stores a value with expiration, overwriting any previous value
func (s *RedisStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to put %s: %w: %v", key, core.ErrStoreUnavailable, err)
	}
	return nil
}

// Peek reads a value without consuming it
func (s *RedisStore) Peek(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Result()
	return s.result(key, value, err)
}

// GetAndConsume atomically reads and deletes a value
func (s *RedisStore) GetAndConsume(ctx context.Context, key string) (string, error) {
	value, err := s.client.GetDel(ctx, s.prefix+key).Result()
	return s.result(key, value, err)
}

// ConsumeIf deletes key only while it still holds value
func (s *RedisStore) ConsumeIf(ctx context.Context, key, value string) (bool, error) {
	n, err := consumeIfScript.Run(ctx, s.client, []string{s.prefix + key}, value).Int()
	if err != nil {
		return false, fmt.Errorf("failed to consume %s: %w: %v", key, core.ErrStoreUnavailable, err)
	}
	return n == 1, nil
}

// Delete removes a key unconditionally
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w: %v", key, core.ErrStoreUnavailable, err)
	}
	return nil
}

// InvalidateToken marks a token as invalidated in Redis
func (s *RedisStore) InvalidateToken(ctx context.Context, tokenID string, expiry time.Duration) error {
	key := s.prefix + "revoked:" + tokenID

	if err := s.client.Set(ctx, key, "1", expiry).Err(); err != nil {
		return fmt.Errorf("failed to invalidate token: %w: %v", core.ErrStoreUnavailable, err)
	}

	return nil
}

// IsTokenInvalidated checks if a token is invalidated in Redis
func (s *RedisStore) IsTokenInvalidated(ctx context.Context, tokenID string) (bool, error) {
	key := s.prefix + "revoked:" + tokenID

	val, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token invalidation: %w: %v", core.ErrStoreUnavailable, err)
	}

	return val > 0, nil
}

func (s *RedisStore) result(key, value string, err error) (string, error) {
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("%s: %w", key, core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w: %v", key, core.ErrStoreUnavailable, err)
	}
	return value, nil
}
