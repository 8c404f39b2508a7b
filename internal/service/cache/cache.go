package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// BytesCache stores raw response bytes with a TTL.
type BytesCache interface {
	GetBytes(ctx context.Context, key string) (b []byte, ok bool, err error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Key derives a cache key from a request body, so byte-identical requests
// share an entry.
func Key(prefix string, body []byte) string {
	sum := sha256.Sum256(body)
	return prefix + ":" + hex.EncodeToString(sum[:])
}
