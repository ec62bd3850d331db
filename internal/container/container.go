// Package container provides the per-namespace service container. Every
// tenant owns one container; ids, dependencies and hook names registered on
// it are qualified with its namespace so tenants sharing a process never see
// each other's services.
package container

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/kitpress-go/framework/internal/events"
)

// Lifecycle hooks fired by every container.
const (
	HookServiceRegistered   = "service.registered"
	HookServiceResolved     = "service.resolved"
	HookServicesInitialized = "services.initialized"
)

// Hook and Event are the container's hook callback and payload types.
type (
	Hook  = events.Hook
	Event = events.Event
)

// Container holds the bindings, cached singletons and hooks of one namespace.
type Container struct {
	namespace   string
	bindings    map[string]*Binding
	instances   map[string]any
	hooks       *events.Dispatcher
	initialized bool
	seq         uint64
	logger      *slog.Logger
	mutex       sync.RWMutex
}

// New creates an empty container. Most callers obtain containers through
// GetInstance instead.
func New(namespace string) *Container {
	return &Container{
		namespace: namespace,
		bindings:  make(map[string]*Binding),
		instances: make(map[string]any),
		hooks:     events.NewDispatcher(),
		logger:    slog.New(slog.DiscardHandler),
	}
}

// Namespace returns the namespace; "" is the framework container.
func (c *Container) Namespace() string {
	return c.namespace
}

// SetLogger sets the logger used for binding diagnostics.
func (c *Container) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.logger = logger.With(slog.String("namespace", c.namespace))
}

// Qualify prefixes id with the namespace unless it already carries it.
func (c *Container) Qualify(id string) string {
	if c.namespace == "" || strings.HasPrefix(id, c.namespace+".") {
		return id
	}
	return c.namespace + "." + id
}

// Bind registers a binding, replacing any previous binding of the same id
// together with its cached instance, then fires service.registered. A hook
// error is returned but the binding stays registered.
func (c *Container) Bind(ctx context.Context, id string, concrete Concrete, opts ...Option) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidBinding)
	}
	if concrete == nil {
		return fmt.Errorf("%w: %s has no concrete", ErrInvalidBinding, id)
	}

	build, err := newBuilder(concrete)
	if err != nil {
		return fmt.Errorf("binding %s: %w", id, err)
	}

	binding := &Binding{
		ID:       c.Qualify(id),
		Concrete: concrete,
		Priority: DefaultPriority,
		build:    build,
	}
	for _, opt := range opts {
		opt(binding)
	}
	for i, dep := range binding.Dependencies {
		binding.Dependencies[i] = c.Qualify(dep)
	}

	c.mutex.Lock()
	if previous, exists := c.bindings[binding.ID]; exists {
		binding.seq = previous.seq
	} else {
		c.seq++
		binding.seq = c.seq
	}
	c.bindings[binding.ID] = binding
	delete(c.instances, binding.ID)
	logger := c.logger
	c.mutex.Unlock()

	logger.Debug("service bound",
		slog.String("id", binding.ID),
		slog.String("kind", binding.Kind()),
		slog.Bool("singleton", binding.Singleton),
		slog.Int("priority", binding.Priority),
	)

	return c.TriggerHook(ctx, HookServiceRegistered, binding.ID)
}

// Singleton registers a binding whose first built instance is cached.
func (c *Container) Singleton(ctx context.Context, id string, concrete Concrete, opts ...Option) error {
	return c.Bind(ctx, id, concrete, append(opts, AsSingleton())...)
}

// Instance registers an already built value as a singleton.
func (c *Container) Instance(ctx context.Context, id string, value any) error {
	err := c.Singleton(ctx, id, Constructor(func(...any) (any, error) {
		return value, nil
	}))

	qualified := c.Qualify(id)
	c.mutex.Lock()
	if _, exists := c.bindings[qualified]; exists {
		c.instances[qualified] = value
	}
	c.mutex.Unlock()

	return err
}

// Resolve returns the instance for id, building it and its dependencies
// depth-first when needed. Failed constructions are never cached.
func (c *Container) Resolve(ctx context.Context, id string) (any, error) {
	return c.resolve(ctx, c.Qualify(id), nil)
}

// Get is an alias of Resolve.
func (c *Container) Get(ctx context.Context, id string) (any, error) {
	return c.Resolve(ctx, id)
}

// Service is an alias of Resolve.
func (c *Container) Service(ctx context.Context, id string) (any, error) {
	return c.Resolve(ctx, id)
}

// Make is an alias of Resolve.
func (c *Container) Make(ctx context.Context, id string) (any, error) {
	return c.Resolve(ctx, id)
}

// MustGet resolves id and panics on failure.
func (c *Container) MustGet(ctx context.Context, id string) any {
	instance, err := c.Resolve(ctx, id)
	if err != nil {
		panic(err)
	}
	return instance
}

func (c *Container) resolve(ctx context.Context, id string, path []string) (any, error) {
	if slices.Contains(path, id) {
		return nil, fmt.Errorf("%w: %s", ErrCyclicDependency, strings.Join(append(path, id), " -> "))
	}

	c.mutex.RLock()
	if instance, exists := c.instances[id]; exists {
		c.mutex.RUnlock()
		return instance, nil
	}
	binding, exists := c.bindings[id]
	c.mutex.RUnlock()

	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, id)
	}

	path = append(path[:len(path):len(path)], id)

	deps := make([]any, len(binding.Dependencies))
	for i, dep := range binding.Dependencies {
		instance, err := c.resolve(ctx, dep, path)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", id, err)
		}
		deps[i] = instance
	}

	instance, err := binding.build(c, deps)
	if err != nil {
		return nil, fmt.Errorf("container: building %s: %w", id, err)
	}

	if binding.Singleton {
		c.mutex.Lock()
		if existing, exists := c.instances[id]; exists {
			c.mutex.Unlock()
			return existing, nil
		}
		if c.bindings[id] == binding {
			c.instances[id] = instance
		}
		c.mutex.Unlock()
	}

	if err := c.TriggerHook(ctx, HookServiceResolved, id); err != nil {
		return nil, err
	}

	return instance, nil
}

// Has reports whether a binding exists for id. Cached instances without a
// binding do not count.
func (c *Container) Has(id string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	_, exists := c.bindings[c.Qualify(id)]
	return exists
}

// Resolved reports whether a singleton instance is cached for id.
func (c *Container) Resolved(id string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	_, exists := c.instances[c.Qualify(id)]
	return exists
}

// Binding returns a copy of the binding registered for id.
func (c *Container) Binding(id string) (Binding, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	binding, exists := c.bindings[c.Qualify(id)]
	if !exists {
		return Binding{}, false
	}
	return copyBinding(binding), true
}

// AddHook registers a hook for the namespace-qualified event name.
func (c *Container) AddHook(event string, hook Hook) {
	c.hooks.Listen(c.Qualify(event), hook)
}

// TriggerHook runs the hooks of the qualified event synchronously in
// registration order. The first hook error aborts the rest and is returned.
func (c *Container) TriggerHook(ctx context.Context, event string, data any) error {
	return c.hooks.Dispatch(ctx, c.Qualify(event), data)
}

// HasHook reports whether any hook is registered for the event.
func (c *Container) HasHook(event string) bool {
	return c.hooks.HasListeners(c.Qualify(event))
}

// OrderedBindings returns the bindings sorted by ascending priority, ties
// kept in registration order.
func (c *Container) OrderedBindings() []Binding {
	c.mutex.RLock()
	bindings := make([]Binding, 0, len(c.bindings))
	for _, binding := range c.bindings {
		bindings = append(bindings, copyBinding(binding))
	}
	c.mutex.RUnlock()

	slices.SortFunc(bindings, func(a, b Binding) int {
		return cmp.Or(cmp.Compare(a.Priority, b.Priority), cmp.Compare(a.seq, b.seq))
	})
	return bindings
}

// InitializeServices builds every singleton that is not cached yet, in
// priority order, then fires services.initialized.
func (c *Container) InitializeServices(ctx context.Context) error {
	for _, binding := range c.OrderedBindings() {
		if !binding.Singleton || c.Resolved(binding.ID) {
			continue
		}
		if _, err := c.resolve(ctx, binding.ID, nil); err != nil {
			return err
		}
	}

	c.mutex.Lock()
	c.initialized = true
	c.mutex.Unlock()

	return c.TriggerHook(ctx, HookServicesInitialized, c.namespace)
}

// Initialized reports whether InitializeServices completed.
func (c *Container) Initialized() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.initialized
}

// IDs returns the qualified ids of every binding in sorted order.
func (c *Container) IDs() []string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return slices.Sorted(maps.Keys(c.bindings))
}

// Clear removes all bindings, instances and the initialized flag. Hooks are
// kept.
func (c *Container) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.bindings = make(map[string]*Binding)
	c.instances = make(map[string]any)
	c.initialized = false
}

func copyBinding(b *Binding) Binding {
	out := *b
	out.Dependencies = slices.Clone(b.Dependencies)
	return out
}

// Resolve resolves id from c and asserts the instance to T.
func Resolve[T any](ctx context.Context, c *Container, id string) (T, error) {
	var zero T

	instance, err := c.Resolve(ctx, id)
	if err != nil {
		return zero, err
	}

	typed, ok := instance.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T, not %s", ErrUnexpectedType, c.Qualify(id), instance, reflect.TypeFor[T]())
	}
	return typed, nil
}
