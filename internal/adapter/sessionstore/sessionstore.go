// Package sessionstore is a small key/value store for login sessions and
// per-user flags. Missing or expired keys report domain.ErrNotFound.
package sessionstore

import (
	"context"
	"time"
)

// Store is implemented by Redis and Memory.
type Store interface {
	GetItem(ctx context.Context, key string) (string, error)
	// SetItem stores value under key. ttl <= 0 keeps it until removed.
	SetItem(ctx context.Context, key, value string, ttl time.Duration) error
	RemoveItem(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}
