package core

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned by Store.Get and Store.Delete when the key does
// not exist or its TTL has lapsed. Callers treat the two cases identically.
var ErrKeyNotFound = errors.New("key not found")

// Store is the ephemeral key-value store backing the correlation protocol.
// Implementations must enforce per-entry expiry and provide atomic Get, Put,
// and Delete per key; no ordering or transactional guarantees exist across
// keys. TTL expiry is the sole cleanup mechanism of the relay.
type Store interface {
	// Put stores value under key, replacing any previous entry, and arms
	// the entry's expiry ttl from now.
	Put(ctx context.Context, key, value string, ttl time.Duration) error

	// Get returns the value stored under key, or ErrKeyNotFound when the
	// key is absent or expired.
	Get(ctx context.Context, key string) (string, error)

	// Delete removes the entry under key. It returns ErrKeyNotFound when
	// there was nothing to remove.
	Delete(ctx context.Context, key string) error
}
