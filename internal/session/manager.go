package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kitpress-go/framework/internal/cache"
	"github.com/kitpress-go/framework/internal/config"
)

var ErrUnsupportedDriver = errors.New("session: unsupported driver")

// DefaultCookie names the cookie carrying the session id.
const DefaultCookie = "kitpress_session"

// Config configures a manager.
type Config struct {
	Driver   string
	Lifetime time.Duration
	Cookie   string
	Secure   bool
}

// ConfigFrom reads the "session" config document.
func ConfigFrom(store *config.Store) Config {
	return Config{
		Driver:   store.GetString("session.driver", "memory"),
		Lifetime: store.GetDuration("session.lifetime", 2*time.Hour),
		Cookie:   store.GetString("session.cookie", DefaultCookie),
		Secure:   store.GetBool("session.secure"),
	}
}

// Manager loads sessions from a handler and writes back the changed ones.
type Manager struct {
	handler Handler
	config  Config
	logger  *slog.Logger
	pending map[string]*Session
	mutex   sync.Mutex
}

// NewManager creates a manager over handler.
func NewManager(handler Handler, cfg Config, logger *slog.Logger) *Manager {
	if cfg.Cookie == "" {
		cfg.Cookie = DefaultCookie
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = 2 * time.Hour
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		handler: handler,
		config:  cfg,
		logger:  logger,
		pending: make(map[string]*Session),
	}
}

// Open builds a manager for the configured driver. The "cache" driver
// stores sessions in store, which must then be non-nil.
func Open(cfg Config, store cache.Store, logger *slog.Logger) (*Manager, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewManager(NewMemoryHandler(), cfg, logger), nil
	case "cache":
		if store == nil {
			return nil, fmt.Errorf("%w: cache driver needs a cache store", ErrUnsupportedDriver)
		}
		return NewManager(NewCacheHandler(store, cfg.Lifetime), cfg, logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
}

// Handler returns the storage handler.
func (m *Manager) Handler() Handler {
	return m.handler
}

// Cookie returns the cookie name.
func (m *Manager) Cookie() string {
	return m.config.Cookie
}

// Start loads the session with id, or begins a new one with a fresh id when
// id is empty, malformed or unknown.
func (m *Manager) Start(ctx context.Context, id string) (*Session, error) {
	s := &Session{data: make(map[string]any), manager: m}

	if err := uuid.Validate(id); err == nil {
		data, err := m.handler.Read(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("session: %w", err)
		}
		if data != nil {
			if err := json.Unmarshal(data, &s.data); err != nil {
				m.logger.WarnContext(ctx, "discarding unreadable session", slog.String("error", err.Error()))
			} else {
				s.id = id
				return s, nil
			}
		}
	}

	s.id = uuid.NewString()
	s.data = make(map[string]any)
	return s, nil
}

// Save writes s when it changed.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	s.mutex.Lock()
	if !s.dirty {
		s.mutex.Unlock()
		return nil
	}
	data, err := json.Marshal(s.data)
	s.dirty = false
	s.mutex.Unlock()

	m.mutex.Lock()
	delete(m.pending, s.id)
	m.mutex.Unlock()

	if err != nil {
		return fmt.Errorf("session: encoding %s: %w", s.id, err)
	}
	return m.handler.Write(ctx, s.id, data)
}

// Flush saves every session changed since the last flush.
func (m *Manager) Flush(ctx context.Context) error {
	m.mutex.Lock()
	pending := make([]*Session, 0, len(m.pending))
	for _, s := range m.pending {
		pending = append(pending, s)
	}
	m.mutex.Unlock()

	var errs []error
	for _, s := range pending {
		if err := m.Save(ctx, s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Pending returns the number of sessions awaiting a flush.
func (m *Manager) Pending() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.pending)
}

// Destroy deletes the stored session.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	m.mutex.Lock()
	delete(m.pending, id)
	m.mutex.Unlock()
	return m.handler.Destroy(ctx, id)
}

// GC removes sessions idle longer than the configured lifetime.
func (m *Manager) GC(ctx context.Context) (int, error) {
	return m.handler.GC(ctx, m.config.Lifetime)
}

// Close closes the handler.
func (m *Manager) Close() error {
	return m.handler.Close()
}

func (m *Manager) track(s *Session) {
	m.mutex.Lock()
	m.pending[s.id] = s
	m.mutex.Unlock()
}

// Middleware starts the session named by the request cookie, stores it in
// the request context and saves it once next returns.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var id string
		if cookie, err := r.Cookie(m.config.Cookie); err == nil {
			id = cookie.Value
		}

		s, err := m.Start(r.Context(), id)
		if err != nil {
			m.logger.ErrorContext(r.Context(), "session start failed", slog.String("error", err.Error()))
			next.ServeHTTP(w, r)
			return
		}

		if s.ID() != id {
			http.SetCookie(w, &http.Cookie{
				Name:     m.config.Cookie,
				Value:    s.ID(),
				Path:     "/",
				MaxAge:   int(m.config.Lifetime.Seconds()),
				HttpOnly: true,
				Secure:   m.config.Secure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))

		if err := m.Save(r.Context(), s); err != nil {
			m.logger.ErrorContext(r.Context(), "session save failed", slog.String("error", err.Error()))
		}
	})
}
