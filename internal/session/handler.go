package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kitpress-go/framework/internal/cache"
)

// Handler persists encoded session payloads by id.
type Handler interface {
	// Read returns the payload of id, or nil when there is none.
	Read(ctx context.Context, id string) ([]byte, error)
	Write(ctx context.Context, id string, data []byte) error
	Destroy(ctx context.Context, id string) error
	// GC removes sessions idle for longer than maxLifetime and returns how
	// many were removed.
	GC(ctx context.Context, maxLifetime time.Duration) (int, error)
	Close() error
}

// MemoryHandler keeps sessions in process memory.
type MemoryHandler struct {
	sessions map[string]*entry
	mutex    sync.RWMutex
}

type entry struct {
	data       []byte
	lastAccess time.Time
}

// NewMemoryHandler creates an empty memory handler.
func NewMemoryHandler() *MemoryHandler {
	return &MemoryHandler{sessions: make(map[string]*entry)}
}

func (h *MemoryHandler) Read(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	e, exists := h.sessions[id]
	if !exists {
		return nil, nil
	}
	e.lastAccess = time.Now()
	return append([]byte(nil), e.data...), nil
}

func (h *MemoryHandler) Write(ctx context.Context, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.sessions[id] = &entry{data: append([]byte(nil), data...), lastAccess: time.Now()}
	return nil
}

func (h *MemoryHandler) Destroy(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	delete(h.sessions, id)
	return nil
}

func (h *MemoryHandler) GC(ctx context.Context, maxLifetime time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	cutoff := time.Now().Add(-maxLifetime)
	removed := 0
	for id, e := range h.sessions {
		if e.lastAccess.Before(cutoff) {
			delete(h.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Count returns the number of stored sessions.
func (h *MemoryHandler) Count() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.sessions)
}

func (h *MemoryHandler) Close() error {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	clear(h.sessions)
	return nil
}

// CacheHandler stores sessions in a cache store under "session:<id>". The
// store expires idle sessions, so GC does nothing.
type CacheHandler struct {
	store    cache.Store
	lifetime time.Duration
}

// NewCacheHandler creates a handler writing entries that live for lifetime.
func NewCacheHandler(store cache.Store, lifetime time.Duration) *CacheHandler {
	return &CacheHandler{store: store, lifetime: lifetime}
}

func (h *CacheHandler) key(id string) string {
	return "session:" + id
}

func (h *CacheHandler) Read(ctx context.Context, id string) ([]byte, error) {
	data, err := h.store.Get(ctx, h.key(id))
	if errors.Is(err, cache.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("session: reading %s: %w", id, err)
	}
	return data, nil
}

func (h *CacheHandler) Write(ctx context.Context, id string, data []byte) error {
	return h.store.Set(ctx, h.key(id), data, h.lifetime)
}

func (h *CacheHandler) Destroy(ctx context.Context, id string) error {
	return h.store.Delete(ctx, h.key(id))
}

func (h *CacheHandler) GC(context.Context, time.Duration) (int, error) {
	return 0, nil
}

// Close leaves the store open; it belongs to the cache service.
func (h *CacheHandler) Close() error {
	return nil
}
