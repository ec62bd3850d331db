// Package kitpress exposes the types tenant plugins need to register
// services and hooks without importing internal packages.
package kitpress

import (
	"context"

	framework "github.com/kitpress-go/framework"
	"github.com/kitpress-go/framework/internal/bootstrap"
	"github.com/kitpress-go/framework/internal/config"
	"github.com/kitpress-go/framework/internal/container"
	"github.com/kitpress-go/framework/internal/facade"
	"github.com/kitpress-go/framework/internal/scheduler"
	"github.com/kitpress-go/framework/internal/server"
	"github.com/kitpress-go/framework/internal/session"
	"github.com/kitpress-go/framework/internal/tenant"
)

// App serves a set of tenants in one process.
type App = framework.App

// Container holds the services and hooks of one tenant.
type Container = container.Container

type (
	Binding         = container.Binding
	Constructor     = container.Constructor
	Factory         = container.Factory
	Class           = container.Class
	Option          = container.Option
	ServiceProvider = container.ServiceProvider
	Hook            = container.Hook
	Event           = container.Event
)

type (
	Config    = config.Store
	Request   = bootstrap.Request
	Error     = bootstrap.Error
	Tenant    = tenant.Tenant
	Server    = server.Server
	Session   = session.Session
	Scheduler = scheduler.Scheduler
)

// Lifecycle hooks.
const (
	HookInit              = bootstrap.HookInit
	HookRequestRun        = bootstrap.HookRequestRun
	HookAdminMenu         = bootstrap.HookAdminMenu
	HookAdminAssets       = bootstrap.HookAdminAssets
	HookRoutesDispatch    = bootstrap.HookRoutesDispatch
	HookPublicAssets      = bootstrap.HookPublicAssets
	HookRequestShutdown   = bootstrap.HookRequestShutdown
	HookCronRegister      = bootstrap.HookCronRegister
	HookRoutesRegister    = server.HookRoutesRegister
	HookServiceRegistered = container.HookServiceRegistered
	HookServiceResolved   = container.HookServiceResolved
	HookServicesReady     = container.HookServicesInitialized
)

var (
	WithPriority     = container.WithPriority
	WithDependencies = container.WithDependencies
	AsSingleton      = container.AsSingleton
	RegisterClass    = container.RegisterClass
)

// New registers every root as a tenant.
func New(ctx context.Context, roots ...string) (*App, error) {
	return framework.New(ctx, roots...)
}

// Resolve resolves id from c as T.
func Resolve[T any](ctx context.Context, c *Container, id string) (T, error) {
	return container.Resolve[T](ctx, c, id)
}

// WithNamespace scopes facades in ctx to a tenant.
func WithNamespace(ctx context.Context, namespace string) context.Context {
	return facade.WithNamespace(ctx, namespace)
}

// T translates key with the active tenant's translator.
func T(ctx context.Context, key string, replace ...map[string]string) string {
	return framework.T(ctx, key, replace...)
}

// Get returns the config value at path for the active tenant.
func Get(ctx context.Context, path string, defaultValue ...any) any {
	return framework.Get(ctx, path, defaultValue...)
}
