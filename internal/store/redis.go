// Package store provides CatalogStore implementations: a Redis-backed store
// for deployments and an in-memory store for tests and degraded setups.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shopipet/chatkit/internal/core"
)

// RedisClient defines the Redis client surface used by the store.
// This allows for easy mocking in tests.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisStore implements core.CatalogStore on a Redis key-value backend.
// Snapshots are stored as whole blobs without expiry; the next successful
// sync overwrites the previous one.
type RedisStore struct {
	client RedisClient
	prefix string
}

// NewRedisStore creates a store scoped to the given key prefix.
func NewRedisStore(client RedisClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// NewRedisStoreFromURL connects a store from a redis:// URL.
func NewRedisStoreFromURL(url, prefix string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return NewRedisStore(redis.NewClient(opts), prefix), nil
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

// Get retrieves the blob stored at key. A missing key maps to
// core.ErrCatalogEmpty; a backend failure maps to core.ErrStoreUnavailable.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrCatalogEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return data, nil
}

// Set stores the blob at key in a single write.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// Delete removes the blob at key. Deleting an absent key is not an error.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}

// Ping verifies connectivity with the backend.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnavailable, err)
	}
	return nil
}
