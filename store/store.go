// Package store provides the gateway's key-value persistence port and its
// Redis implementation. Conversation state lives behind the narrow
// KeyValue interface so the backing store is swappable; tests use the
// in-memory implementation or miniredis.
package store

import (
	"context"
	"time"
)

// KeyValue is the narrow persistence port: string values with TTL.
// A zero TTL means no expiration. Get returns ErrNotFound for missing keys.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
