package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"github.com/kitpress-go/framework/internal/cache"
	"github.com/kitpress-go/framework/internal/config"
	"github.com/kitpress-go/framework/internal/container"
	"github.com/kitpress-go/framework/internal/database"
	"github.com/kitpress-go/framework/internal/events"
	"github.com/kitpress-go/framework/internal/lang"
	"github.com/kitpress-go/framework/internal/logging"
	"github.com/kitpress-go/framework/internal/scheduler"
	"github.com/kitpress-go/framework/internal/session"
)

// Core service ids.
const (
	ServiceConfig    = "config"
	ServiceLog       = "log"
	ServiceCache     = "cache"
	ServiceLang      = "lang"
	ServiceDB        = "db"
	ServiceSession   = "session"
	ServiceScheduler = "scheduler"
	ServiceRoot      = "path"
)

// coreServices registers the framework services of one container. Every
// service is a lazy singleton whose priority comes from
// framework.priorities.<id>.
type coreServices struct {
	store  *config.Store
	root   string
	logger *slog.Logger
}

func (p coreServices) priority(id string) container.Option {
	return container.WithPriority(p.store.GetInt("framework.priorities."+id, container.DefaultPriority))
}

func (p coreServices) Register(ctx context.Context, c *container.Container) error {
	store := p.store
	root := p.root
	namespace := c.Namespace()

	if !c.Has(ServiceConfig) {
		if err := c.Singleton(ctx, ServiceConfig, container.Constructor(func(...any) (any, error) {
			return store, nil
		}), p.priority(ServiceConfig)); err != nil {
			return err
		}
	}

	bindings := []struct {
		id       string
		concrete container.Concrete
		deps     []string
	}{
		{ServiceLog, container.Factory(func(c *container.Container, _ ...any) (any, error) {
			logger, err := logging.New(logging.Config{
				Level:       store.GetString("app.log.level", "info"),
				Format:      store.GetString("app.log.format", "json"),
				Output:      store.GetString("app.log.output", "stderr"),
				SentryDSN:   store.GetString("app.log.sentry_dsn"),
				Environment: store.GetString("app.env"),
			}, logging.DefaultExtractors()...)
			if err != nil {
				return nil, err
			}
			c.SetLogger(logger.Logger)
			return logger, nil
		}), nil},

		{ServiceCache, container.Constructor(func(deps ...any) (any, error) {
			return cache.Open(cache.ConfigFrom(store, namespace), channel(deps[0], "cache"))
		}), []string{ServiceLog}},

		{ServiceLang, container.Constructor(func(...any) (any, error) {
			return lang.ForRoot(root, store.GetString("app.locale"), store.GetString("app.fallback_locale"))
		}), nil},

		{ServiceDB, container.Constructor(func(...any) (any, error) {
			cfg, err := database.ConfigFrom(store, root)
			if err != nil {
				return nil, err
			}
			return database.Open(cfg)
		}), nil},

		{ServiceSession, container.Constructor(func(deps ...any) (any, error) {
			var backing cache.Store
			if c, ok := deps[1].(*cache.Cache); ok {
				backing = c.Store()
			}
			return session.Open(session.ConfigFrom(store), backing, channel(deps[0], "session"))
		}), []string{ServiceLog, ServiceCache}},

		{ServiceScheduler, container.Factory(func(c *container.Container, deps ...any) (any, error) {
			return scheduler.FromConfig(store, c.TriggerHook, channel(deps[0], "cron"))
		}), []string{ServiceLog}},
	}

	for _, b := range bindings {
		if c.Has(b.id) {
			continue
		}
		if err := c.Singleton(ctx, b.id, b.concrete, p.priority(b.id), container.WithDependencies(b.deps...)); err != nil {
			return err
		}
	}
	return nil
}

// Boot logs the registered services once all providers are registered.
func (p coreServices) Boot(ctx context.Context, c *container.Container) error {
	p.logger.DebugContext(ctx, "core services registered",
		slog.String("namespace", c.Namespace()),
		slog.Int("bindings", len(c.IDs())),
	)
	return nil
}

// channel derives a named logger from the resolved "log" service.
func channel(dep any, name string) *slog.Logger {
	switch l := dep.(type) {
	case *logging.Logger:
		return logging.Channel(l.Logger, name)
	case *slog.Logger:
		return logging.Channel(l, name)
	default:
		return logging.Nop()
	}
}

// registerClasses makes the stock implementations available to tenant
// "services" documents.
func registerClasses() error {
	classes := map[string]container.Constructor{
		"kitpress.cache.memory": func(...any) (any, error) {
			return cache.New(cache.NewMemoryStore(10*time.Minute, 30*time.Minute), nil), nil
		},
		"kitpress.session.memory": func(...any) (any, error) {
			return session.NewManager(session.NewMemoryHandler(), session.Config{}, nil), nil
		},
		"kitpress.events": func(...any) (any, error) {
			return events.NewDispatcher(), nil
		},
	}
	for name, ctor := range classes {
		if err := container.RegisterClass(name, ctor); err != nil {
			return err
		}
	}
	return nil
}
