package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Typed provides JSON-serialized get/set over a KeyValue store. All keys
// are prefixed with keyPrefix followed by a colon separator.
type Typed[T any] struct {
	kv        KeyValue
	keyPrefix string
}

// NewTyped creates a Typed store over kv.
func NewTyped[T any](kv KeyValue, keyPrefix string) *Typed[T] {
	return &Typed[T]{kv: kv, keyPrefix: keyPrefix}
}

func (s *Typed[T]) fullKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + ":" + key
}

// Load deserializes JSON from the store. Returns (nil, nil) if the key
// does not exist.
func (s *Typed[T]) Load(ctx context.Context, key string) (*T, error) {
	raw, err := s.kv.Get(ctx, s.fullKey(key))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("typed store load %q: %w", key, err)
	}

	var val T
	if err := json.Unmarshal([]byte(raw), &val); err != nil {
		return nil, fmt.Errorf("typed store unmarshal %q: %w", key, err)
	}
	return &val, nil
}

// Save serializes to JSON and stores with TTL. TTL of 0 means no expiration.
func (s *Typed[T]) Save(ctx context.Context, key string, val *T, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("typed store marshal %q: %w", key, err)
	}
	if err := s.kv.Set(ctx, s.fullKey(key), string(data), ttl); err != nil {
		return fmt.Errorf("typed store save %q: %w", key, err)
	}
	return nil
}

// Delete removes the key.
func (s *Typed[T]) Delete(ctx context.Context, key string) error {
	if err := s.kv.Delete(ctx, s.fullKey(key)); err != nil {
		return fmt.Errorf("typed store delete %q: %w", key, err)
	}
	return nil
}
