package kitpress

import (
	"context"

	"github.com/kitpress-go/framework/internal/bootstrap"
	"github.com/kitpress-go/framework/internal/cache"
	"github.com/kitpress-go/framework/internal/config"
	"github.com/kitpress-go/framework/internal/database"
	"github.com/kitpress-go/framework/internal/facade"
	"github.com/kitpress-go/framework/internal/lang"
	"github.com/kitpress-go/framework/internal/logging"
	"github.com/kitpress-go/framework/internal/scheduler"
	"github.com/kitpress-go/framework/internal/session"
)

// Facades over the core services of the active tenant. The tenant is the
// namespace carried by ctx, or the process-wide active one.
var (
	Config   = facade.New[*config.Store](bootstrap.ServiceConfig)
	Log      = facade.New[*logging.Logger](bootstrap.ServiceLog)
	Cache    = facade.New[*cache.Cache](bootstrap.ServiceCache)
	Lang     = facade.New[*lang.Translator](bootstrap.ServiceLang)
	DB       = facade.New[*database.DB](bootstrap.ServiceDB)
	Session  = facade.New[*session.Manager](bootstrap.ServiceSession)
	Schedule = facade.New[*scheduler.Scheduler](bootstrap.ServiceScheduler)
)

// T translates key with the active tenant's translator, in the locale
// carried by ctx when there is one. The key itself is returned when no
// translator can be resolved.
func T(ctx context.Context, key string, replace ...map[string]string) string {
	tr, err := Lang.Root(ctx)
	if err != nil {
		return key
	}
	return tr.TContext(ctx, key, replace...)
}

// Get reads a config value of the active tenant.
func Get(ctx context.Context, path string, defaultValue ...any) any {
	store, err := Config.Root(ctx)
	if err != nil {
		if len(defaultValue) > 0 {
			return defaultValue[0]
		}
		return nil
	}
	return store.Get(path, defaultValue...)
}
