package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/rueidis"

	"github.com/go-training/oauth-relay/pkg/core"
)

// RedisStore implements the core.Store interface using Redis via rueidis.
// Expiry is delegated to Redis key TTLs, so multiple relay instances can
// share one store.
type RedisStore struct {
	client rueidis.Client
}

// NewRedisStore creates a new instance of RedisStore with the provided rueidis client.
func NewRedisStore(client rueidis.Client) *RedisStore {
	return &RedisStore{
		client: client,
	}
}

// RedisOptions contains configuration for Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisStoreFromOptions creates a new RedisStore with simplified options.
func NewRedisStoreFromOptions(opts RedisOptions) (*RedisStore, error) {
	clientOpts := rueidis.ClientOption{
		InitAddress: []string{opts.Addr},
		Password:    opts.Password,
		SelectDB:    opts.DB,
	}
	client, err := rueidis.NewClient(clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	return NewRedisStore(client), nil
}

// NewRedisStoreFromClientOption creates a new RedisStore with full rueidis client options.
func NewRedisStoreFromClientOption(opts rueidis.ClientOption) (*RedisStore, error) {
	client, err := rueidis.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}
	return NewRedisStore(client), nil
}

// Close closes the Redis client connection.
func (r *RedisStore) Close() {
	r.client.Close()
}

// Put stores value under key with the given TTL using SET ... EX.
func (r *RedisStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}

	seconds := int64(ttl.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	cmd := r.client.B().Set().Key(key).Value(value).ExSeconds(seconds).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to put key in redis: %w", err)
	}
	return nil
}

// Get returns the value stored under key.
// It returns core.ErrKeyNotFound when the key is absent or expired.
// Responses are never cached client-side: a poll must observe deletes
// performed by other relay instances immediately.
func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	cmd := r.client.B().Get().Key(key).Build()
	result, err := r.client.Do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return "", core.ErrKeyNotFound
		}
		return "", fmt.Errorf("failed to get key from redis: %w", err)
	}
	return result, nil
}

// Delete removes the entry under key.
// It returns core.ErrKeyNotFound when there was nothing to remove.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	cmd := r.client.B().Del().Key(key).Build()
	removed, err := r.client.Do(ctx, cmd).AsInt64()
	if err != nil {
		return fmt.Errorf("failed to delete key from redis: %w", err)
	}
	if removed == 0 {
		return core.ErrKeyNotFound
	}
	return nil
}
