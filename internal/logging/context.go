package logging

import (
	"context"
	"log/slog"
)

// Attribute keys shared by every log line of a cacheable request
const (
	FingerprintKey = "fingerprint"
	CacheRoleKey   = "cacheRole"
)

type requestLoggerContextKey struct{}

// FromContext returns the request logger, or the default logger marked as a fallback
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(requestLoggerContextKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default().With(slog.String("logger", "fallback"))
}

func AddToContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, requestLoggerContextKey{}, logger)
}

// AddMetaToContext attaches attrs to every later log line of the request
func AddMetaToContext(ctx context.Context, attrs ...slog.Attr) context.Context {
	if len(attrs) == 0 {
		return ctx
	}

	args := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		args = append(args, attr)
	}

	return AddToContext(ctx, FromContext(ctx).With(args...))
}
