// Package config holds the layered configuration store. Each named document
// is loaded from the framework defaults, overridden key by key by the
// tenant's document of the same name, and then addressed with dot-paths such
// as "app.log.level".
package config

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/spf13/cast"
)

// KindConfig is the directory holding regular config documents.
const KindConfig = "config"

// Store manages the merged configuration trees of one container.
type Store struct {
	items      map[string]any
	loaded     map[string]bool
	protected  map[string]bool
	validators map[string]Validator
	defaults   Source
	overrides  Source
	logger     *slog.Logger
	mutex      sync.RWMutex
}

// Option configures a Store.
type Option func(*Store)

// WithDefaults sets the source of default documents. Framework() is used
// when not set.
func WithDefaults(source Source) Option {
	return func(s *Store) {
		s.defaults = source
	}
}

// WithOverrides sets the tenant source whose documents override the defaults.
func WithOverrides(source Source) Option {
	return func(s *Store) {
		s.overrides = source
	}
}

// WithProtected marks document names that only ever come from the defaults.
func WithProtected(names ...string) Option {
	return func(s *Store) {
		for _, name := range names {
			s.protected[name] = true
		}
	}
}

// WithLogger sets the logger used for load diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// DefaultProtected lists the framework documents tenants may not override.
var DefaultProtected = []string{"framework"}

// New creates a store. Without options it reads only the framework defaults.
func New(opts ...Option) *Store {
	s := &Store{
		items:      make(map[string]any),
		loaded:     make(map[string]bool),
		protected:  make(map[string]bool),
		validators: make(map[string]Validator),
		logger:     slog.New(slog.DiscardHandler),
	}
	WithProtected(DefaultProtected...)(s)

	for _, opt := range opts {
		opt(s)
	}
	if s.defaults == nil {
		s.defaults = Framework()
	}

	return s
}

// Load loads and merges the named config documents. Names already loaded are
// skipped, so values changed with Set survive a repeated Load.
func (s *Store) Load(names ...string) error {
	return s.LoadKind(KindConfig, names...)
}

// LoadKind loads documents from the kind directory. Documents of a kind other
// than KindConfig are stored under "<kind>/<name>".
func (s *Store) LoadKind(kind string, names ...string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, name := range names {
		key := itemKey(kind, name)
		if s.loaded[key] {
			continue
		}

		tree, err := s.read(kind, name)
		if err != nil {
			return err
		}
		if err := s.validate(key, tree); err != nil {
			return err
		}

		s.items[key] = tree
		s.loaded[key] = true
		s.logger.Debug("config loaded", slog.String("name", key))
	}

	return nil
}

// Reload forgets and loads the named config documents again, discarding
// changes made with Set.
func (s *Store) Reload(names ...string) error {
	s.mutex.Lock()
	for _, name := range names {
		delete(s.loaded, itemKey(KindConfig, name))
	}
	s.mutex.Unlock()

	return s.Load(names...)
}

func (s *Store) read(kind, name string) (map[string]any, error) {
	base, err := s.defaults.Read(kind, name)
	if err != nil {
		return nil, fmt.Errorf("config: loading default %s: %w", name, err)
	}

	if s.overrides == nil || s.protected[name] {
		return base, nil
	}

	custom, err := s.overrides.Read(kind, name)
	if err != nil {
		return nil, fmt.Errorf("config: loading override %s: %w", name, err)
	}

	return Merge(base, custom), nil
}

func (s *Store) validate(key string, tree map[string]any) error {
	root := map[string]any{key: tree}
	for path, validator := range s.validators {
		if SplitKey(path)[0] != key {
			continue
		}
		value, _ := getNested(root, path)
		if err := validator(path, value); err != nil {
			return err
		}
	}
	return nil
}

// Loaded reports whether the config document has been loaded.
func (s *Store) Loaded(name string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.loaded[itemKey(KindConfig, name)]
}

// Protected reports whether the document can only come from the defaults.
func (s *Store) Protected(name string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.protected[name]
}

// AddValidator registers a validator for a dot-path. It runs on Set and when
// the document containing the path is loaded.
func (s *Store) AddValidator(path string, validator Validator) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.validators[path] = validator
}

// Get returns the value at a dot-path, or the first default (nil when none)
// if any segment is missing or the tree stops being a mapping early.
func (s *Store) Get(path string, defaultValue ...any) any {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if value, ok := getNested(s.items, path); ok {
		return value
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return nil
}

// Has reports whether a value exists at the dot-path.
func (s *Store) Has(path string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	_, ok := getNested(s.items, path)
	return ok
}

// Set stores a value at a dot-path, creating intermediate mappings.
func (s *Store) Set(path string, value any) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if validator, exists := s.validators[path]; exists {
		if err := validator(path, value); err != nil {
			return err
		}
	}

	setNested(s.items, path, value)
	return nil
}

// Reset drops every loaded document.
func (s *Store) Reset() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.items = make(map[string]any)
	s.loaded = make(map[string]bool)
}

// All returns a deep copy of every loaded tree keyed by document name.
func (s *Store) All() map[string]any {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return DeepCopyMap(s.items)
}

// Names returns the loaded document keys in sorted order.
func (s *Store) Names() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return slices.Sorted(maps.Keys(s.loaded))
}

// Map returns a copy of the mapping at a dot-path, or nil.
func (s *Store) Map(path string) map[string]any {
	m, ok := s.Get(path).(map[string]any)
	if !ok {
		return nil
	}
	return DeepCopyMap(m)
}

// GetString retrieves a string value.
func (s *Store) GetString(path string, defaultValue ...string) string {
	if s.Has(path) {
		if v, err := cast.ToStringE(s.Get(path)); err == nil {
			return v
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

// GetInt retrieves an integer value.
func (s *Store) GetInt(path string, defaultValue ...int) int {
	if s.Has(path) {
		if v, err := cast.ToIntE(s.Get(path)); err == nil {
			return v
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return 0
}

// GetBool retrieves a boolean value.
func (s *Store) GetBool(path string, defaultValue ...bool) bool {
	if s.Has(path) {
		if v, err := cast.ToBoolE(s.Get(path)); err == nil {
			return v
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return false
}

// GetDuration retrieves a duration; strings use time.ParseDuration syntax.
func (s *Store) GetDuration(path string, defaultValue ...time.Duration) time.Duration {
	if s.Has(path) {
		if v, err := cast.ToDurationE(s.Get(path)); err == nil {
			return v
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return 0
}

// GetStringSlice retrieves a string slice.
func (s *Store) GetStringSlice(path string, defaultValue ...[]string) []string {
	if s.Has(path) {
		if v, err := cast.ToStringSliceE(s.Get(path)); err == nil {
			return v
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return nil
}

// GetStringMap retrieves a mapping with string values.
func (s *Store) GetStringMap(path string, defaultValue ...map[string]string) map[string]string {
	if s.Has(path) {
		if v, err := cast.ToStringMapStringE(s.Get(path)); err == nil {
			return v
		}
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return nil
}

// Overrides returns the tenant source, or nil for framework-only stores.
func (s *Store) Overrides() Source {
	return s.overrides
}

func itemKey(kind, name string) string {
	if kind == KindConfig || kind == "" {
		return name
	}
	return kind + "/" + name
}
