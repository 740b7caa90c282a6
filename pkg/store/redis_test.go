package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"

	"github.com/go-training/oauth-relay/pkg/core"
)

// setupRedisStore creates a test Redis store connected to localhost:6379.
// Tests are skipped when Redis is not available.
func setupRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	opts := rueidis.ClientOption{
		InitAddress: []string{"localhost:6379"},
	}

	store, err := NewRedisStoreFromClientOption(opts)
	if err != nil {
		t.Skipf("Redis not available, skipping test: %v", err)
	}

	// Test connection
	ctx := context.Background()
	cmd := store.client.B().Ping().Build()
	if err := store.client.Do(ctx, cmd).Error(); err != nil {
		store.Close()
		t.Skipf("Cannot connect to Redis, skipping test: %v", err)
	}

	t.Cleanup(func() {
		cleanupRedisKeys(t, store)
		store.Close()
	})

	return store
}

// cleanupRedisKeys removes relay test keys from Redis.
func cleanupRedisKeys(t *testing.T, store *RedisStore) {
	t.Helper()
	ctx := context.Background()

	for _, pattern := range []string{"readKey:*", "tokens:*", "test:*"} {
		scanCmd := store.client.B().Scan().Cursor(0).Match(pattern).Count(100).Build()
		scanResult, err := store.client.Do(ctx, scanCmd).AsScanEntry()
		if err != nil {
			continue
		}
		for _, key := range scanResult.Elements {
			delCmd := store.client.B().Del().Key(key).Build()
			_ = store.client.Do(ctx, delCmd).Error()
		}
	}
}

func TestRedisStore_PutGet(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "test:readKey:W1", "R1", time.Minute); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	got, err := store.Get(ctx, "test:readKey:W1")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got != "R1" {
		t.Errorf("Get() = %q, want %q", got, "R1")
	}
}

func TestRedisStore_Put_EmptyKey(t *testing.T) {
	store := setupRedisStore(t)

	if err := store.Put(context.Background(), "", "v", time.Minute); !errors.Is(err, ErrEmptyKey) {
		t.Errorf("Put() error = %v, want ErrEmptyKey", err)
	}
}

func TestRedisStore_Get_Missing(t *testing.T) {
	store := setupRedisStore(t)

	_, err := store.Get(context.Background(), "test:never-stored")
	if !errors.Is(err, core.ErrKeyNotFound) {
		t.Errorf("Get() error = %v, want core.ErrKeyNotFound", err)
	}
}

func TestRedisStore_Expiry(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	// Sub-second TTLs round up to one second.
	if err := store.Put(ctx, "test:short", "v", 500*time.Millisecond); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	if _, err := store.Get(ctx, "test:short"); err != nil {
		t.Fatalf("Get() before expiry failed: %v", err)
	}

	time.Sleep(1500 * time.Millisecond)

	if _, err := store.Get(ctx, "test:short"); !errors.Is(err, core.ErrKeyNotFound) {
		t.Errorf("Get() after expiry error = %v, want core.ErrKeyNotFound", err)
	}
}

func TestRedisStore_Delete(t *testing.T) {
	store := setupRedisStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "test:tokens:R1", `{"access_token":"tok"}`, time.Minute); err != nil {
		t.Fatalf("Put() failed: %v", err)
	}

	if err := store.Delete(ctx, "test:tokens:R1"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	if _, err := store.Get(ctx, "test:tokens:R1"); !errors.Is(err, core.ErrKeyNotFound) {
		t.Errorf("Get() after Delete error = %v, want core.ErrKeyNotFound", err)
	}

	if err := store.Delete(ctx, "test:tokens:R1"); !errors.Is(err, core.ErrKeyNotFound) {
		t.Errorf("second Delete() error = %v, want core.ErrKeyNotFound", err)
	}
}
