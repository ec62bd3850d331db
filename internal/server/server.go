// Package server serves every registered tenant under /<namespace> and
// drives its lifecycle around each request.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kitpress-go/framework/internal/bootstrap"
	"github.com/kitpress-go/framework/internal/container"
	"github.com/kitpress-go/framework/internal/facade"
	"github.com/kitpress-go/framework/internal/fatal"
	"github.com/kitpress-go/framework/internal/lang"
	"github.com/kitpress-go/framework/internal/scheduler"
	"github.com/kitpress-go/framework/internal/session"
	"github.com/kitpress-go/framework/internal/tenant"
)

// HookRoutesRegister is fired once per tenant with its chi.Router as payload.
const HookRoutesRegister = "routes.register"

const (
	defaultReadHeaderTimeout = 10 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultShutdownTimeout   = 15 * time.Second
)

// Server is the HTTP entry point of a process.
type Server struct {
	router      chi.Router
	bootstrap   *bootstrap.Bootstrap
	tenants     *tenant.Registry
	mounts      []*mount
	sink        fatal.Sink
	logger      *slog.Logger
	adminPrefix string
}

// Option configures a Server.
type Option func(*Server)

// WithSink replaces the renderer of fatal errors.
func WithSink(sink fatal.Sink) Option {
	return func(s *Server) {
		s.sink = sink
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAdminPrefix sets the path, relative to a tenant mount, under which
// requests count as admin requests. The default is "/admin".
func WithAdminPrefix(prefix string) Option {
	return func(s *Server) {
		s.adminPrefix = prefix
	}
}

// New mounts every tenant of tenants and starts it. A tenant that fails to
// start is logged and retried on its next request.
func New(ctx context.Context, b *bootstrap.Bootstrap, tenants *tenant.Registry, opts ...Option) *Server {
	s := &Server{
		router:      chi.NewRouter(),
		bootstrap:   b,
		tenants:     tenants,
		logger:      slog.New(slog.DiscardHandler),
		adminPrefix: "/admin",
	}
	for _, opt := range opts {
		opt(s)
	}
	if _, err := b.Initialize(ctx); err != nil {
		s.logger.ErrorContext(ctx, "bootstrap failed", slog.String("error", err.Error()))
	}
	if s.sink == nil {
		s.sink = fatal.LogSink{
			Logger: s.logger,
			Next:   fatal.HTMLSink{Debug: b.Config().GetBool("app.debug")},
		}
	}

	s.router.Use(
		RequestID,
		RequestLogger(s.logger),
		Recoverer(s.logger, s.sink),
		SecurityHeaders(SecurityConfigFrom(b.Config())),
	)
	s.router.Get("/healthz", s.health)

	for _, t := range tenants.Tenants() {
		if t.Namespace == "healthz" {
			s.logger.ErrorContext(ctx, "tenant namespace is reserved", slog.String("tenant", t.Namespace))
			continue
		}
		m := &mount{server: s, tenant: t, lifecycle: b.Boot(t.Container)}
		if err := m.ensure(facade.WithNamespace(ctx, t.Namespace)); err != nil {
			s.logger.ErrorContext(ctx, "tenant failed to start",
				slog.String("tenant", t.Namespace), slog.String("error", err.Error()))
		}
		s.mounts = append(s.mounts, m)
		s.router.Mount("/"+t.Namespace, m)
	}

	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	status := make(map[string]bool, len(s.mounts))
	for _, m := range s.mounts {
		status[m.tenant.Namespace] = m.lifecycle.Started()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"tenants": status})
}

// fail renders err through the sink, translated by the tenant's translator
// when it is available.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, c *container.Container, err error) {
	var tr fatal.Translator
	if t := s.bootstrap.Translator(); t != nil {
		tr = t
	}
	if c.Resolved(bootstrap.ServiceLang) {
		if t, resolveErr := container.Resolve[*lang.Translator](r.Context(), c, bootstrap.ServiceLang); resolveErr == nil {
			tr = t
		}
	}
	s.sink.Render(w, r, fatal.FromError(err, tr))
}

// Run serves on addr until ctx is done, then shuts down gracefully. Tenant
// schedulers with cron.enabled run alongside.
func (s *Server) Run(ctx context.Context, addr string) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		IdleTimeout:       defaultIdleTimeout,
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	schedulers := s.startSchedulers(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	errs := []error{httpServer.Shutdown(shutdownCtx)}
	for _, sched := range schedulers {
		errs = append(errs, sched.Stop(shutdownCtx))
	}
	return errors.Join(errs...)
}

func (s *Server) startSchedulers(ctx context.Context) []*scheduler.Scheduler {
	var started []*scheduler.Scheduler
	for _, m := range s.mounts {
		c := m.tenant.Container
		if !m.lifecycle.Started() || !m.tenant.Config.GetBool("cron.enabled") || !c.Resolved(bootstrap.ServiceScheduler) {
			continue
		}
		sched, err := container.Resolve[*scheduler.Scheduler](ctx, c, bootstrap.ServiceScheduler)
		if err != nil {
			continue
		}
		if err := sched.Start(); err != nil {
			s.logger.WarnContext(ctx, "scheduler not started",
				slog.String("tenant", m.tenant.Namespace), slog.String("error", err.Error()))
			continue
		}
		started = append(started, sched)
	}
	return started
}

// mount serves one tenant.
type mount struct {
	server    *Server
	tenant    *tenant.Tenant
	lifecycle *bootstrap.Lifecycle
	router    chi.Router
	mutex     sync.Mutex
}

// ensure starts the tenant and collects its routes once. Routes are
// collected into a fresh router on every attempt until one succeeds.
func (m *mount) ensure(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.router != nil && m.lifecycle.Started() {
		return nil
	}
	if err := m.lifecycle.Start(ctx); err != nil {
		return err
	}

	router := chi.NewRouter()
	if err := m.tenant.Container.TriggerHook(ctx, HookRoutesRegister, chi.Router(router)); err != nil {
		return err
	}
	m.router = router
	return nil
}

func (m *mount) routes() chi.Router {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.router
}

func (m *mount) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := facade.WithNamespace(r.Context(), m.tenant.Namespace)
	r = r.WithContext(ctx)
	c := m.tenant.Container

	if err := m.ensure(ctx); err != nil {
		m.server.fail(w, r, c, err)
		return
	}

	path := r.URL.Path
	if rctx := chi.RouteContext(ctx); rctx != nil && rctx.RoutePath != "" {
		path = rctx.RoutePath
	}
	req := &bootstrap.Request{
		Admin: path == m.server.adminPrefix || strings.HasPrefix(path, m.server.adminPrefix+"/"),
		Path:  path,
		HTTP:  r,
	}

	if err := m.lifecycle.Run(ctx, req); err != nil {
		m.server.fail(w, r, c, err)
		return
	}

	var handler http.Handler = m.routes()
	if manager, err := container.Resolve[*session.Manager](ctx, c, bootstrap.ServiceSession); err == nil {
		handler = manager.Middleware(handler)
	}
	handler.ServeHTTP(w, r)

	if err := m.lifecycle.Shutdown(ctx); err != nil {
		m.server.logger.ErrorContext(ctx, "request shutdown failed", slog.String("error", err.Error()))
	}
}
