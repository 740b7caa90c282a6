package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-training/oauth-relay/pkg/core"
)

// ErrEmptyKey is returned when an operation is attempted with an empty key.
var ErrEmptyKey = errors.New("key cannot be empty")

// entry is a stored value with its expiry deadline.
type entry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore implements the core.Store interface using an in-memory map.
// It is thread-safe and suitable for single-instance deployments and tests.
// Expired entries are reaped lazily on access; there is no background sweep,
// matching the TTL-only cleanup contract of the relay.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry

	// now is the clock used for expiry checks. Tests replace it to
	// simulate the passage of time.
	now func() time.Time
}

// NewMemoryStore creates a new instance of MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// NewMemoryStoreWithClock creates a MemoryStore whose expiry checks use the
// provided clock instead of time.Now.
func NewMemoryStoreWithClock(now func() time.Time) *MemoryStore {
	s := NewMemoryStore()
	s.now = now
	return s
}

// Put stores value under key with the given TTL, replacing any previous entry.
func (m *MemoryStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry{
		value:     value,
		expiresAt: m.now().Add(ttl),
	}
	return nil
}

// Get returns the value stored under key.
// It returns core.ErrKeyNotFound when the key is absent or expired.
func (m *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, exists := m.entries[key]
	if !exists {
		return "", core.ErrKeyNotFound
	}
	if m.now().After(e.expiresAt) {
		delete(m.entries, key)
		return "", core.ErrKeyNotFound
	}

	return e.value, nil
}

// Delete removes the entry under key.
// It returns core.ErrKeyNotFound when the key is absent or already expired.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, exists := m.entries[key]
	if !exists {
		return core.ErrKeyNotFound
	}
	delete(m.entries, key)
	if m.now().After(e.expiresAt) {
		return core.ErrKeyNotFound
	}
	return nil
}
