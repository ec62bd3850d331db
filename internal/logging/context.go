package logging

import (
	"context"
	"log/slog"

	"github.com/kitpress-go/framework/internal/facade"
)

type requestIDKey struct{}

// WithRequestID stores the request id logged by RequestIDExtractor.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id stored in ctx.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// RequestIDExtractor adds "request_id".
func RequestIDExtractor(ctx context.Context) (slog.Attr, bool) {
	id, ok := RequestIDFromContext(ctx)
	if !ok {
		return slog.Attr{}, false
	}
	return slog.String("request_id", id), true
}

// NamespaceExtractor adds "tenant" for requests scoped with
// facade.WithNamespace.
func NamespaceExtractor(ctx context.Context) (slog.Attr, bool) {
	ns, ok := facade.NamespaceFromContext(ctx)
	if !ok || ns == "" {
		return slog.Attr{}, false
	}
	return slog.String("tenant", ns), true
}

// DefaultExtractors are installed on every framework logger.
func DefaultExtractors() []ContextExtractor {
	return []ContextExtractor{RequestIDExtractor, NamespaceExtractor}
}
