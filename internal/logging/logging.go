// Package logging builds the framework's slog loggers: JSON or text output,
// request-scoped attributes pulled from the context, optional Sentry
// fan-out and named channels.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ErrInvalidLevel is returned for an unknown level name.
var ErrInvalidLevel = errors.New("logging: invalid level")

// Config selects how the logger writes.
type Config struct {
	Level       string
	Format      string // "json" or "text"
	Output      string // "stdout", "stderr" or a file path
	SentryDSN   string
	Environment string

	// Writer overrides Output when set.
	Writer io.Writer
}

// Logger is a slog logger together with the resources it owns.
type Logger struct {
	*slog.Logger
	closers []io.Closer
}

// Close releases the log file, if one was opened.
func (l *Logger) Close() error {
	var errs []error
	for _, c := range l.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// New builds a logger from cfg. Extractors add attributes from the context
// of every record.
func New(cfg Config, extractors ...ContextExtractor) (*Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	out := &Logger{}
	w := cfg.Writer
	if w == nil {
		w, err = openOutput(cfg.Output)
		if err != nil {
			return nil, err
		}
		if c, ok := w.(io.Closer); ok && w != os.Stdout && w != os.Stderr {
			out.closers = append(out.closers, c)
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	case "", "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("logging: unknown format %q", cfg.Format)
	}

	if cfg.SentryDSN != "" {
		handler = withSentry(handler, SentryConfig{
			DSN:         cfg.SentryDSN,
			Environment: cfg.Environment,
			MinLevel:    level,
		})
	}

	out.Logger = slog.New(NewLogHandlerDecorator(handler, extractors...))
	return out, nil
}

// ParseLevel maps debug, info, warn/warning and error to slog levels. An
// empty name is info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, name)
	}
}

func openOutput(output string) (io.Writer, error) {
	switch output {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logging: opening %s: %w", output, err)
		}
		return f, nil
	}
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
