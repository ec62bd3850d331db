package container

import (
	"fmt"
	"slices"
)

// DefaultPriority is used for bindings registered without an explicit
// priority.
const DefaultPriority = 10

// Concrete describes how a binding builds its instance. It is one of
// Constructor, Factory or Class.
type Concrete interface {
	kind() string
}

// Constructor builds an instance from its resolved dependencies, passed
// positionally in declaration order.
type Constructor func(deps ...any) (any, error)

// Factory builds an instance with access to the container it is resolved
// from, followed by the resolved dependencies.
type Factory func(c *Container, deps ...any) (any, error)

// Class names a Constructor registered with RegisterClass.
type Class string

func (Constructor) kind() string { return "constructor" }
func (Factory) kind() string     { return "factory" }
func (c Class) kind() string     { return "class:" + string(c) }

// Binding is the registered recipe for one service id.
type Binding struct {
	ID           string
	Concrete     Concrete
	Singleton    bool
	Priority     int
	Dependencies []string

	build builder
	seq   uint64
}

// Kind describes the concrete, e.g. "factory" or "class:cache".
func (b Binding) Kind() string {
	return b.Concrete.kind()
}

type builder func(c *Container, deps []any) (any, error)

// Option customises a binding.
type Option func(*Binding)

// WithPriority sets the initialization priority. Lower runs first.
func WithPriority(priority int) Option {
	return func(b *Binding) {
		b.Priority = priority
	}
}

// WithDependencies declares the ids resolved and passed to the concrete.
// Ids are qualified with the container namespace.
func WithDependencies(ids ...string) Option {
	return func(b *Binding) {
		b.Dependencies = slices.Clone(ids)
	}
}

// AsSingleton caches the first built instance.
func AsSingleton() Option {
	return func(b *Binding) {
		b.Singleton = true
	}
}

func newBuilder(concrete Concrete) (builder, error) {
	switch fn := concrete.(type) {
	case Constructor:
		if fn == nil {
			return nil, fmt.Errorf("%w: nil constructor", ErrInvalidBinding)
		}
		return func(_ *Container, deps []any) (any, error) {
			return fn(deps...)
		}, nil

	case Factory:
		if fn == nil {
			return nil, fmt.Errorf("%w: nil factory", ErrInvalidBinding)
		}
		return func(c *Container, deps []any) (any, error) {
			return fn(c, deps...)
		}, nil

	case Class:
		ctor, ok := LookupClass(string(fn))
		if !ok {
			return nil, fmt.Errorf("%w: unknown class %q", ErrInvalidBinding, string(fn))
		}
		return func(_ *Container, deps []any) (any, error) {
			return ctor(deps...)
		}, nil

	default:
		return nil, fmt.Errorf("%w: concrete %T is not constructible", ErrInvalidBinding, concrete)
	}
}
