// Package kitpress hosts several independent tenants in one process. Each
// tenant is an install root with its own container, config tree and routes,
// keyed by a namespace derived from the root's directory name.
//
//	app, err := kitpress.New(ctx, "/srv/plugins/shop", "/srv/plugins/blog")
//	if err != nil {
//		return err
//	}
//	return app.Server(ctx).Run(ctx, ":8080")
package kitpress

import (
	"context"
	"fmt"

	"github.com/kitpress-go/framework/internal/bootstrap"
	"github.com/kitpress-go/framework/internal/container"
	"github.com/kitpress-go/framework/internal/facade"
	"github.com/kitpress-go/framework/internal/server"
	"github.com/kitpress-go/framework/internal/tenant"
)

// Version of the framework.
const Version = "0.4.0"

// App ties the framework bootstrap to the tenants it serves.
type App struct {
	bootstrap *bootstrap.Bootstrap
	tenants   *tenant.Registry
	facades   *facade.Registry
}

// New initializes the framework and registers a tenant for each root, using
// the process-wide registries the facades read from. The last root becomes
// the active namespace.
func New(ctx context.Context, roots ...string) (*App, error) {
	app := &App{
		bootstrap: bootstrap.Default(),
		tenants:   tenant.Default(),
		facades:   facade.Default(),
	}

	if _, err := app.bootstrap.Initialize(ctx); err != nil {
		return nil, err
	}
	for _, root := range roots {
		if _, err := app.tenants.Register(ctx, root); err != nil {
			return nil, err
		}
	}
	return app, nil
}

// Bootstrap returns the framework bootstrap.
func (a *App) Bootstrap() *bootstrap.Bootstrap {
	return a.bootstrap
}

// Tenants returns the tenant registry.
func (a *App) Tenants() *tenant.Registry {
	return a.tenants
}

// Tenant returns the tenant registered for root.
func (a *App) Tenant(root string) (*tenant.Tenant, error) {
	ns, ok := a.tenants.Namespace(root)
	if !ok {
		return nil, fmt.Errorf("%w: %s", tenant.ErrTenantNotFound, root)
	}
	return a.tenants.Tenant(ns)
}

// Container returns the container of the tenant registered for root.
func (a *App) Container(root string) (*container.Container, error) {
	t, err := a.Tenant(root)
	if err != nil {
		return nil, err
	}
	return t.Container, nil
}

// Dispatch runs one request for the tenant registered for root outside of
// HTTP: it activates the tenant, starts it, runs the request hooks and shuts
// the request down. A *bootstrap.Error means the request must stop.
func (a *App) Dispatch(ctx context.Context, root string, req *bootstrap.Request) error {
	ns, ok := a.tenants.Namespace(root)
	if !ok {
		return fmt.Errorf("%w: %s", tenant.ErrTenantNotFound, root)
	}
	if err := a.tenants.UseNamespace(ns); err != nil {
		return err
	}

	c, err := a.tenants.Container(ns)
	if err != nil {
		return err
	}
	ctx = facade.WithNamespace(ctx, ns)

	life := a.bootstrap.Boot(c)
	if err := life.Start(ctx); err != nil {
		return err
	}
	if err := life.Run(ctx, req); err != nil {
		return err
	}
	return life.Shutdown(ctx)
}

// Server builds the HTTP server for every registered tenant.
func (a *App) Server(ctx context.Context, opts ...server.Option) *server.Server {
	return server.New(ctx, a.bootstrap, a.tenants, opts...)
}
