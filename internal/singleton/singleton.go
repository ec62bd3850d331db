// Package singleton keeps one lazily constructed instance per concrete type
// for the lifetime of the process.
package singleton

import (
	"errors"
	"reflect"
	"sync"
)

// ErrUnsupportedOperation is returned when a singleton is cloned or serialized.
var ErrUnsupportedOperation = errors.New("singleton: unsupported operation")

type entry struct {
	once  sync.Once
	value any
}

var (
	mutex   sync.Mutex
	entries = make(map[reflect.Type]*entry)
)

// Instance returns the process-wide instance of T, calling construct exactly
// once on first use. Later calls ignore construct.
func Instance[T any](construct func() *T) *T {
	e := lookup(reflect.TypeFor[T]())
	e.once.Do(func() {
		e.value = construct()
	})
	v, _ := e.value.(*T)
	return v
}

// Exists reports whether an instance of T has already been constructed.
func Exists[T any]() bool {
	mutex.Lock()
	defer mutex.Unlock()

	e, ok := entries[reflect.TypeFor[T]()]
	return ok && e.value != nil
}

// Reset forgets every instance. Only tests should need it.
func Reset() {
	mutex.Lock()
	defer mutex.Unlock()
	entries = make(map[reflect.Type]*entry)
}

func lookup(t reflect.Type) *entry {
	mutex.Lock()
	defer mutex.Unlock()

	e, ok := entries[t]
	if !ok {
		e = &entry{}
		entries[t] = e
	}
	return e
}

// Base is embedded by singleton types. Copying or serializing a singleton
// would create a second instance, so every such path fails.
type Base struct{}

// Clone always fails.
func (Base) Clone() (any, error) { return nil, ErrUnsupportedOperation }

func (Base) MarshalJSON() ([]byte, error)   { return nil, ErrUnsupportedOperation }
func (*Base) UnmarshalJSON([]byte) error    { return ErrUnsupportedOperation }
func (Base) MarshalBinary() ([]byte, error) { return nil, ErrUnsupportedOperation }
func (*Base) UnmarshalBinary([]byte) error  { return ErrUnsupportedOperation }
func (Base) GobEncode() ([]byte, error)     { return nil, ErrUnsupportedOperation }
func (*Base) GobDecode([]byte) error        { return ErrUnsupportedOperation }
