// Package cache provides a short-TTL key-value cache fronting expensive
// grouped queries. Every entry shares one fixed TTL chosen at construction;
// there is no per-key override.
package cache

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrMiss is returned by Get when a key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Store is a byte-oriented cache with a fixed TTL for every entry.
type Store interface {
	// Get returns the value stored under key, or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key with the store's fixed TTL.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// GetOrFetch returns the cached value under key, or invokes producer,
// stores its result, and returns it. An empty result is cached the same as
// a populated one; misses and empty values are not distinguished. Producer
// errors are returned without touching the cache. Cache write failures are
// swallowed: the fresh value is still served.
func GetOrFetch[T any](ctx context.Context, store Store, key string, producer func() (T, error)) (T, error) {
	var value T

	if raw, err := store.Get(ctx, key); err == nil {
		if err := json.Unmarshal(raw, &value); err == nil {
			return value, nil
		}
		// Undecodable entry: fall through and recompute.
	}

	value, err := producer()
	if err != nil {
		return value, err
	}

	if raw, err := json.Marshal(value); err == nil {
		_ = store.Set(ctx, key, raw)
	}
	return value, nil
}
