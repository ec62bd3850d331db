package facade

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/kitpress-go/framework/internal/container"
)

var (
	ErrMethodNotFound   = errors.New("facade: method not found")
	ErrInvalidArguments = errors.New("facade: invalid arguments")
)

// Facade proxies the service registered under an accessor id in whichever
// container is active when it is used.
type Facade[T any] struct {
	accessor string
	registry *Registry
}

// New creates a facade over the process-wide registry.
func New[T any](accessor string) Facade[T] {
	return Facade[T]{accessor: accessor}
}

// WithRegistry returns a copy of the facade bound to r.
func (f Facade[T]) WithRegistry(r *Registry) Facade[T] {
	f.registry = r
	return f
}

// Accessor returns the service id the facade resolves.
func (f Facade[T]) Accessor() string {
	return f.accessor
}

func (f Facade[T]) reg() *Registry {
	if f.registry != nil {
		return f.registry
	}
	return defaultRegistry
}

// Root resolves the backing service from the active container.
func (f Facade[T]) Root(ctx context.Context) (T, error) {
	c, err := f.reg().Container(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	return container.Resolve[T](ctx, c, f.accessor)
}

// Must is Root that panics on failure.
func (f Facade[T]) Must(ctx context.Context) T {
	root, err := f.Root(ctx)
	if err != nil {
		panic(err)
	}
	return root
}

// Call invokes the exported method name on the backing service with args and
// returns its results unchanged.
func (f Facade[T]) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	root, err := f.Root(ctx)
	if err != nil {
		return nil, err
	}

	fn := reflect.ValueOf(root).MethodByName(method)
	if !fn.IsValid() {
		return nil, fmt.Errorf("%w: %T has no method %s", ErrMethodNotFound, root, method)
	}

	in, err := arguments(fn.Type(), args)
	if err != nil {
		return nil, fmt.Errorf("%s.%s: %w", f.accessor, method, err)
	}

	out := fn.Call(in)
	results := make([]any, len(out))
	for i, v := range out {
		results[i] = v.Interface()
	}
	return results, nil
}

func arguments(fnType reflect.Type, args []any) ([]reflect.Value, error) {
	fixed := fnType.NumIn()
	if fnType.IsVariadic() {
		fixed--
		if len(args) < fixed {
			return nil, fmt.Errorf("%w: want at least %d, got %d", ErrInvalidArguments, fixed, len(args))
		}
	} else if len(args) != fixed {
		return nil, fmt.Errorf("%w: want %d, got %d", ErrInvalidArguments, fixed, len(args))
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		var want reflect.Type
		if i < fixed {
			want = fnType.In(i)
		} else {
			want = fnType.In(fnType.NumIn() - 1).Elem()
		}

		if arg == nil {
			switch want.Kind() {
			case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
				in[i] = reflect.Zero(want)
				continue
			}
			return nil, fmt.Errorf("%w: argument %d cannot be nil", ErrInvalidArguments, i)
		}

		v := reflect.ValueOf(arg)
		if !v.Type().AssignableTo(want) {
			return nil, fmt.Errorf("%w: argument %d is %s, want %s", ErrInvalidArguments, i, v.Type(), want)
		}
		in[i] = v
	}
	return in, nil
}
