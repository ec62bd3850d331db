// Package bootstrap wires the framework into containers: a one-time
// framework initialization and a per-container request lifecycle.
package bootstrap

import (
	"context"
	"log/slog"
	"sync"

	"github.com/kitpress-go/framework/internal/config"
	"github.com/kitpress-go/framework/internal/container"
	"github.com/kitpress-go/framework/internal/facade"
	"github.com/kitpress-go/framework/internal/lang"
	"github.com/kitpress-go/framework/internal/singleton"
)

// Framework config documents loaded by Initialize.
var frameworkDocuments = []string{"app", "database", "menu", "cron", "framework"}

// Tenant config documents loaded by Start.
var tenantDocuments = []string{"app", "database", "menu", "cron", "cache", "session", "framework", "services"}

// Bootstrap initializes the framework once per process and starts tenant
// containers.
type Bootstrap struct {
	singleton.Base

	containers *container.Registry
	facades    *facade.Registry
	config     *config.Store
	logger     *slog.Logger

	framework   *container.Container
	translator  *lang.Translator
	initialized bool
	started     map[*container.Container]bool
	locks       map[*container.Container]*sync.Mutex
	mutex       sync.Mutex
}

// Option configures a Bootstrap.
type Option func(*Bootstrap)

// WithConfig replaces the framework config store.
func WithConfig(store *config.Store) Option {
	return func(b *Bootstrap) {
		b.config = store
	}
}

// WithLogger sets the logger used for lifecycle diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bootstrap) {
		b.logger = logger
	}
}

// New creates a Bootstrap over the given registries.
func New(containers *container.Registry, facades *facade.Registry, opts ...Option) *Bootstrap {
	b := &Bootstrap{
		containers: containers,
		facades:    facades,
		config:     config.New(),
		logger:     slog.New(slog.DiscardHandler),
		started:    make(map[*container.Container]bool),
		locks:      make(map[*container.Container]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Default returns the process-wide Bootstrap over the default registries.
func Default() *Bootstrap {
	return singleton.Instance(func() *Bootstrap {
		return New(container.Default(), facade.Default())
	})
}

// Initialize performs the framework initialization once: it loads the
// framework config, sets up translations and the class registry, activates
// the framework container and registers the core services on it. A failure
// is returned as *Error and the next call tries again.
func (b *Bootstrap) Initialize(ctx context.Context) (*container.Container, error) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return b.initialize(ctx)
}

func (b *Bootstrap) initialize(ctx context.Context) (*container.Container, error) {
	if b.initialized {
		return b.framework, nil
	}

	if err := b.config.Load(frameworkDocuments...); err != nil {
		return nil, fail("", "config", err)
	}

	translator, err := lang.New(b.config.GetString("app.locale"), b.config.GetString("app.fallback_locale"))
	if err != nil {
		return nil, fail("", "lang", err)
	}
	if err := registerClasses(); err != nil {
		return nil, fail("", "classes", err)
	}

	c := b.containers.GetInstance("")
	b.facades.SetContainer(c)

	services := coreServices{store: b.config, logger: b.logger}
	if err := c.RegisterProviders(ctx, services); err != nil {
		return nil, fail("", "services", err)
	}

	b.framework = c
	b.translator = translator
	b.initialized = true
	b.logger.InfoContext(ctx, "framework initialized", slog.String("version", b.config.GetString("framework.version")))

	return c, nil
}

// Initialized reports whether Initialize has succeeded.
func (b *Bootstrap) Initialized() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.initialized
}

// Config returns the framework config store.
func (b *Bootstrap) Config() *config.Store {
	return b.config
}

// Translator returns the framework translator, or nil before Initialize.
func (b *Bootstrap) Translator() *lang.Translator {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.translator
}

// Reset forgets the initialization and every started container.
func (b *Bootstrap) Reset() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.config.Reset()
	b.framework = nil
	b.translator = nil
	b.initialized = false
	b.started = make(map[*container.Container]bool)
}

// Boot returns the lifecycle of c.
func (b *Bootstrap) Boot(c *container.Container) *Lifecycle {
	return &Lifecycle{bootstrap: b, container: c}
}

// Boot returns the lifecycle of c under the default Bootstrap.
func Boot(c *container.Container) *Lifecycle {
	return Default().Boot(c)
}

func (b *Bootstrap) isStarted(c *container.Container) bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.started[c] && c.Initialized()
}

func (b *Bootstrap) markStarted(c *container.Container) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.started[c] = true
}

// containerLock serializes Start per container.
func (b *Bootstrap) containerLock(c *container.Container) *sync.Mutex {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	lock, exists := b.locks[c]
	if !exists {
		lock = &sync.Mutex{}
		b.locks[c] = lock
	}
	return lock
}
