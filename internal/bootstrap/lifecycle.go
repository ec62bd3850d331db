package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/kitpress-go/framework/internal/config"
	"github.com/kitpress-go/framework/internal/container"
	"github.com/kitpress-go/framework/internal/scheduler"
	"github.com/kitpress-go/framework/internal/session"
)

// Lifecycle hooks fired on tenant containers.
const (
	HookInit            = "kitpress.init"
	HookRequestRun      = "request.run"
	HookAdminMenu       = "admin.menu"
	HookAdminAssets     = "admin.assets"
	HookRoutesDispatch  = "routes.dispatch"
	HookPublicAssets    = "public.assets"
	HookRequestShutdown = "request.shutdown"
	HookCronRegister    = "cron.register"
)

// Request is the payload of the request hooks.
type Request struct {
	Admin bool
	Path  string
	HTTP  *http.Request
}

// Lifecycle drives one container through start, run and shutdown.
type Lifecycle struct {
	bootstrap *Bootstrap
	container *container.Container
}

// Container returns the container the lifecycle drives.
func (l *Lifecycle) Container() *container.Container {
	return l.container
}

// Start initializes the framework if needed, then the container: its config
// documents, the core services, the "services" document, the kitpress.init
// hook and every singleton in priority order. It does nothing for a
// container that already started. Failures are returned as *Error.
func (l *Lifecycle) Start(ctx context.Context) error {
	b := l.bootstrap
	c := l.container

	if _, err := b.Initialize(ctx); err != nil {
		return err
	}

	lock := b.containerLock(c)
	lock.Lock()
	defer lock.Unlock()

	if b.isStarted(c) {
		return nil
	}

	ns := c.Namespace()

	store, root, err := tenantConfig(ctx, c)
	if err != nil {
		return fail(ns, "config", err)
	}
	if err := store.Load(tenantDocuments...); err != nil {
		return fail(ns, "config", err)
	}

	services := coreServices{store: store, root: root, logger: b.logger}
	if err := c.RegisterProviders(ctx, services); err != nil {
		return fail(ns, "services", err)
	}
	if err := c.LoadServices(ctx, store.Map("services")); err != nil {
		return fail(ns, "services", err)
	}
	if err := c.TriggerHook(ctx, HookInit, ns); err != nil {
		return fail(ns, "init", err)
	}
	if err := c.InitializeServices(ctx); err != nil {
		return fail(ns, "initialize", err)
	}

	if c.Resolved(ServiceScheduler) {
		s, err := container.Resolve[*scheduler.Scheduler](ctx, c, ServiceScheduler)
		if err == nil {
			err = c.TriggerHook(ctx, HookCronRegister, s)
		}
		if err != nil {
			return fail(ns, "cron", err)
		}
	}

	b.markStarted(c)
	b.logger.InfoContext(ctx, "container started", slog.String("namespace", ns), slog.Int("services", len(c.IDs())))
	return nil
}

// tenantConfig returns the config store and root directory bound on c,
// binding a fresh store when there is none.
func tenantConfig(ctx context.Context, c *container.Container) (*config.Store, string, error) {
	var root string
	if c.Has(ServiceRoot) {
		value, err := container.Resolve[string](ctx, c, ServiceRoot)
		if err != nil {
			return nil, "", err
		}
		root = value
	}

	if c.Has(ServiceConfig) {
		store, err := container.Resolve[*config.Store](ctx, c, ServiceConfig)
		return store, root, err
	}

	store := config.New()
	if err := c.Instance(ctx, ServiceConfig, store); err != nil {
		return nil, "", err
	}
	return store, root, nil
}

// Started reports whether Start succeeded for the container.
func (l *Lifecycle) Started() bool {
	return l.bootstrap.isStarted(l.container)
}

// Run fires request.run, then admin.menu and admin.assets for admin requests
// or routes.dispatch and public.assets otherwise.
func (l *Lifecycle) Run(ctx context.Context, req *Request) error {
	if !l.Started() {
		return fmt.Errorf("%w: %s", ErrNotStarted, l.container.Namespace())
	}
	if req == nil {
		req = &Request{}
	}

	hooks := []string{HookRequestRun, HookRoutesDispatch, HookPublicAssets}
	if req.Admin {
		hooks = []string{HookRequestRun, HookAdminMenu, HookAdminAssets}
	}

	for _, hook := range hooks {
		if err := l.container.TriggerHook(ctx, hook, req); err != nil {
			return err
		}
	}
	return nil
}

// Shutdown fires request.shutdown and flushes the session manager when it
// was instantiated.
func (l *Lifecycle) Shutdown(ctx context.Context) error {
	if !l.Started() {
		return fmt.Errorf("%w: %s", ErrNotStarted, l.container.Namespace())
	}

	c := l.container
	hookErr := c.TriggerHook(ctx, HookRequestShutdown, c.Namespace())

	var flushErr error
	if c.Resolved(ServiceSession) {
		manager, err := container.Resolve[*session.Manager](ctx, c, ServiceSession)
		if err == nil {
			err = manager.Flush(ctx)
		}
		flushErr = err
	}

	return errors.Join(hookErr, flushErr)
}
