package container

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Registry maps namespaces to their containers for the process.
type Registry struct {
	containers map[string]*Container
	mutex      sync.RWMutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{containers: make(map[string]*Container)}
}

// GetInstance returns the container of namespace, creating it on first use.
func (r *Registry) GetInstance(namespace string) *Container {
	r.mutex.RLock()
	c, exists := r.containers[namespace]
	r.mutex.RUnlock()
	if exists {
		return c
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if c, exists := r.containers[namespace]; exists {
		return c
	}
	c = New(namespace)
	r.containers[namespace] = c
	return c
}

// CheckContainer reports true when the namespace has a container and fails
// with ErrContainerNotFound otherwise.
func (r *Registry) CheckContainer(namespace string) (bool, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if _, exists := r.containers[namespace]; !exists {
		return false, fmt.Errorf("%w: %q", ErrContainerNotFound, namespace)
	}
	return true, nil
}

// Namespaces lists the namespaces with a container, sorted.
func (r *Registry) Namespaces() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return slices.Sorted(maps.Keys(r.containers))
}

// Reset drops every container.
func (r *Registry) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.containers = make(map[string]*Container)
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry {
	return defaultRegistry
}

// GetInstance returns the container of namespace from the process-wide
// registry.
func GetInstance(namespace string) *Container {
	return defaultRegistry.GetInstance(namespace)
}

// CheckContainer checks the process-wide registry.
func CheckContainer(namespace string) (bool, error) {
	return defaultRegistry.CheckContainer(namespace)
}

// Namespaces lists the namespaces of the process-wide registry.
func Namespaces() []string {
	return defaultRegistry.Namespaces()
}

// Reset clears the process-wide registry.
func Reset() {
	defaultRegistry.Reset()
}
