package relay

import (
	"crypto/rand"
	"encoding/base64"
)

// handleBytes is the entropy of a correlation handle. 32 bytes keeps
// guessing a live handle within its TTL window computationally infeasible.
const handleBytes = 32

// newHandle produces an unpredictable URL-safe correlation handle.
// Handles are generated independently; no collision check is made against
// the store.
func newHandle() string {
	b := make([]byte, handleBytes)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
