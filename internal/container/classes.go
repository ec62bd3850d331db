package container

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

var classes = struct {
	ctors map[string]Constructor
	mutex sync.RWMutex
}{ctors: make(map[string]Constructor)}

// RegisterClass makes a constructor available to Class bindings and to
// service descriptors under name. Registering a name again replaces it.
func RegisterClass(name string, ctor Constructor) error {
	if name == "" || ctor == nil {
		return fmt.Errorf("%w: class %q needs a name and a constructor", ErrInvalidBinding, name)
	}

	classes.mutex.Lock()
	defer classes.mutex.Unlock()
	classes.ctors[name] = ctor
	return nil
}

// LookupClass returns the constructor registered under name.
func LookupClass(name string) (Constructor, bool) {
	classes.mutex.RLock()
	defer classes.mutex.RUnlock()
	ctor, ok := classes.ctors[name]
	return ctor, ok
}

// Classes lists the registered class names in sorted order.
func Classes() []string {
	classes.mutex.RLock()
	defer classes.mutex.RUnlock()
	return slices.Sorted(maps.Keys(classes.ctors))
}

// ResetClasses forgets every registered class.
func ResetClasses() {
	classes.mutex.Lock()
	defer classes.mutex.Unlock()
	classes.ctors = make(map[string]Constructor)
}
