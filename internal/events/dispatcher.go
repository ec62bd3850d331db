// Package events implements the ordered, synchronous hook dispatcher each
// container uses for its lifecycle and tenant hooks.
package events

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Event is delivered to every hook registered for its name.
type Event struct {
	Name    string
	Payload any
}

// Hook handles an event. A non-nil error stops the dispatch.
type Hook func(ctx context.Context, event Event) error

type listener struct {
	pattern string
	hook    Hook
}

// Dispatcher runs hooks in registration order. Patterns ending in "*"
// match every event name sharing the prefix.
type Dispatcher struct {
	listeners []listener
	mutex     sync.RWMutex
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{}
}

// Listen registers a hook for an event name or wildcard pattern.
func (d *Dispatcher) Listen(pattern string, hook Hook) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.listeners = append(d.listeners, listener{pattern: pattern, hook: hook})
}

// Dispatch calls the matching hooks synchronously. The first error aborts
// the remaining hooks and is returned wrapped with the event name.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, payload any) error {
	event := Event{Name: name, Payload: payload}

	for _, hook := range d.Hooks(name) {
		if err := hook(ctx, event); err != nil {
			return fmt.Errorf("hook %s: %w", name, err)
		}
	}

	return nil
}

// Hooks returns the hooks matching name in registration order.
func (d *Dispatcher) Hooks(name string) []Hook {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	var hooks []Hook
	for _, l := range d.listeners {
		if matches(l.pattern, name) {
			hooks = append(hooks, l.hook)
		}
	}
	return hooks
}

// HasListeners reports whether any hook matches name.
func (d *Dispatcher) HasListeners(name string) bool {
	return len(d.Hooks(name)) > 0
}

// Forget removes the hooks registered under exactly this pattern.
func (d *Dispatcher) Forget(pattern string) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	kept := d.listeners[:0]
	for _, l := range d.listeners {
		if l.pattern != pattern {
			kept = append(kept, l)
		}
	}
	clear(d.listeners[len(kept):])
	d.listeners = kept
}

// Events returns the registered patterns, first registration order, without
// duplicates.
func (d *Dispatcher) Events() []string {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	seen := make(map[string]bool, len(d.listeners))
	var names []string
	for _, l := range d.listeners {
		if !seen[l.pattern] {
			seen[l.pattern] = true
			names = append(names, l.pattern)
		}
	}
	return names
}

func matches(pattern, name string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(name, prefix)
	}
	return pattern == name
}
