// Package facade keeps track of the tenant containers a process serves and
// which one is active, and provides typed proxies that resolve a service
// from the active container on every call.
package facade

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/kitpress-go/framework/internal/container"
)

// ErrNamespaceNotRegistered is returned when no container is registered for
// the requested or active namespace.
var ErrNamespaceNotRegistered = errors.New("facade: namespace not registered")

// Registry maps namespaces to containers and holds the process-wide active
// namespace. A namespace carried by the request context takes precedence.
type Registry struct {
	containers map[string]*container.Container
	current    string
	active     bool
	mutex      sync.RWMutex
}

// NewRegistry creates an empty registry with no active namespace.
func NewRegistry() *Registry {
	return &Registry{containers: make(map[string]*container.Container)}
}

// SetContainer registers c under namespace, or under c.Namespace() when
// omitted, and makes it the active namespace.
func (r *Registry) SetContainer(c *container.Container, namespace ...string) {
	ns := c.Namespace()
	if len(namespace) > 0 {
		ns = namespace[0]
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.containers[ns] = c
	r.current = ns
	r.active = true
}

// UseNamespace switches the active namespace to one registered before.
func (r *Registry) UseNamespace(namespace string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, exists := r.containers[namespace]; !exists {
		return fmt.Errorf("%w: %q", ErrNamespaceNotRegistered, namespace)
	}
	r.current = namespace
	r.active = true
	return nil
}

// Current returns the process-wide active namespace.
func (r *Registry) Current() (string, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.current, r.active
}

// Lookup returns the container registered under namespace.
func (r *Registry) Lookup(namespace string) (*container.Container, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	c, exists := r.containers[namespace]
	return c, exists
}

// Namespaces lists the registered namespaces, sorted.
func (r *Registry) Namespaces() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return slices.Sorted(maps.Keys(r.containers))
}

// Container returns the container facades resolve against: the namespace in
// ctx when present, the process-wide active namespace otherwise. There is no
// fallback to any other container.
func (r *Registry) Container(ctx context.Context) (*container.Container, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ns, ok := NamespaceFromContext(ctx)
	if !ok {
		if !r.active {
			return nil, fmt.Errorf("%w: no active namespace", ErrNamespaceNotRegistered)
		}
		ns = r.current
	}

	c, exists := r.containers[ns]
	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrNamespaceNotRegistered, ns)
	}
	return c, nil
}

// Reset forgets every container and the active namespace.
func (r *Registry) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.containers = make(map[string]*container.Container)
	r.current = ""
	r.active = false
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry shared by every facade.
func Default() *Registry {
	return defaultRegistry
}

// SetContainer registers c with the process-wide registry and activates it.
func SetContainer(c *container.Container, namespace ...string) {
	defaultRegistry.SetContainer(c, namespace...)
}

// UseNamespace switches the process-wide active namespace.
func UseNamespace(namespace string) error {
	return defaultRegistry.UseNamespace(namespace)
}

// Container returns the active container of the process-wide registry.
func Container(ctx context.Context) (*container.Container, error) {
	return defaultRegistry.Container(ctx)
}

// Reset clears the process-wide registry.
func Reset() {
	defaultRegistry.Reset()
}

type namespaceKey struct{}

// WithNamespace scopes facade resolution in ctx to namespace, independently
// of the process-wide selection.
func WithNamespace(ctx context.Context, namespace string) context.Context {
	return context.WithValue(ctx, namespaceKey{}, namespace)
}

// NamespaceFromContext returns the namespace set with WithNamespace.
func NamespaceFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	ns, ok := ctx.Value(namespaceKey{}).(string)
	return ns, ok
}
