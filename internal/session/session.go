// Package session provides the per-tenant session manager bound as the
// "session" service.
package session

import (
	"context"
	"maps"
	"sync"
)

// Session is the attribute bag of one visitor. Changes are persisted by the
// manager's Save or Flush.
type Session struct {
	id      string
	data    map[string]any
	dirty   bool
	manager *Manager
	mutex   sync.RWMutex
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Get returns the attribute stored under key, or defaultValue.
func (s *Session) Get(key string, defaultValue ...any) any {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if value, exists := s.data[key]; exists {
		return value
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return nil
}

func (s *Session) Put(key string, value any) {
	s.mutex.Lock()
	s.data[key] = value
	s.mutex.Unlock()
	s.touch()
}

func (s *Session) Remove(key string) {
	s.mutex.Lock()
	_, exists := s.data[key]
	delete(s.data, key)
	s.mutex.Unlock()
	if exists {
		s.touch()
	}
}

func (s *Session) Has(key string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, exists := s.data[key]
	return exists
}

// All returns a copy of every attribute.
func (s *Session) All() map[string]any {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return maps.Clone(s.data)
}

// Clear removes every attribute.
func (s *Session) Clear() {
	s.mutex.Lock()
	clear(s.data)
	s.mutex.Unlock()
	s.touch()
}

// Dirty reports whether the session changed since it was last saved.
func (s *Session) Dirty() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.dirty
}

func (s *Session) touch() {
	s.mutex.Lock()
	s.dirty = true
	s.mutex.Unlock()
	if s.manager != nil {
		s.manager.track(s)
	}
}

type contextKey struct{}

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(contextKey{}).(*Session)
	return s, ok
}
