// Package cache provides the cache service each container exposes as
// "cache": JSON-encoded values over a memory or Redis store, with stampede
// protection for computed values.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

var (
	ErrNotFound  = errors.New("cache: entry not found")
	ErrMarshal   = errors.New("cache: marshal failed")
	ErrUnmarshal = errors.New("cache: unmarshal failed")
)

// Cache encodes values as JSON into a Store.
type Cache struct {
	store  Store
	logger *slog.Logger
	group  singleflight.Group
}

// New wraps store. A nil logger discards diagnostics.
func New(store Store, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Cache{store: store, logger: logger}
}

// Store returns the underlying store.
func (c *Cache) Store() Store {
	return c.store
}

// Get decodes the entry at key into dest. It returns ErrNotFound on a miss.
func (c *Cache) Get(ctx context.Context, key string, dest any) error {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return errors.Join(ErrUnmarshal, err)
	}
	return nil
}

// Set stores value under key. See Store for TTL semantics.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.Join(ErrMarshal, err)
	}
	return c.store.Set(ctx, key, data, ttl)
}

// Forever stores value without expiration.
func (c *Cache) Forever(ctx context.Context, key string, value any) error {
	return c.Set(ctx, key, value, -1)
}

// Delete removes key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.store.Delete(ctx, key)
}

// Has reports whether key holds an entry.
func (c *Cache) Has(ctx context.Context, key string) (bool, error) {
	return c.store.Has(ctx, key)
}

// Clear removes every entry of the store.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// Close releases the store.
func (c *Cache) Close() error {
	return c.store.Close()
}

// GetAs returns the entry at key decoded as V.
func GetAs[V any](ctx context.Context, c *Cache, key string) (V, error) {
	var v V
	err := c.Get(ctx, key, &v)
	return v, err
}

// Remember returns the cached value of key, computing and storing it with fn
// on a miss. Concurrent misses for the same key share a single fn call. A
// failing fn is not cached.
func Remember[V any](ctx context.Context, c *Cache, key string, ttl time.Duration, fn func(ctx context.Context) (V, error)) (V, error) {
	if v, err := GetAs[V](ctx, c, key); err == nil {
		return v, nil
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		if v, err := GetAs[V](ctx, c, key); err == nil {
			return v, nil
		}
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Set(ctx, key, v, ttl); err != nil {
			c.logger.WarnContext(ctx, "cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, fmt.Errorf("cache: computing %s: %w", key, err)
	}

	v, _ := result.(V)
	return v, nil
}
