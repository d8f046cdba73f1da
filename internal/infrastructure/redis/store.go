package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-member-api/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// compareAndDelete removes KEYS[1] only when it currently holds ARGV[1].
// Returns 1 when the key was removed, 0 otherwise.
var compareAndDelete = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Store is a string key/value store with per-key expiry.
type Store struct {
	client goredis.UniversalClient
}

func NewStore(client goredis.UniversalClient) *Store {
	return &Store{client: client}
}

func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Get returns domain.ErrNotFound when the key is absent or expired.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, nil
}

// ReplaceKeepTTL overwrites an existing key without touching its expiry.
// It reports false when the key did not exist, in which case nothing is written.
func (s *Store) ReplaceKeepTTL(ctx context.Context, key, value string) (bool, error) {
	_, err := s.client.SetArgs(ctx, key, value, goredis.SetArgs{Mode: "XX", KeepTTL: true}).Result()
	if errors.Is(err, goredis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis replace %s: %w", key, err)
	}
	return true, nil
}

// CompareAndDelete atomically deletes key if it holds expected.
func (s *Store) CompareAndDelete(ctx context.Context, key, expected string) (bool, error) {
	n, err := compareAndDelete.Run(ctx, s.client, []string{key}, expected).Int()
	if err != nil {
		return false, fmt.Errorf("redis compare-and-delete %s: %w", key, err)
	}
	return n == 1, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}
