// Package context carries request-scoped values from the delivery layer
// down to the usecases: the request ID and a logger already tagged with it.
package context

import (
	"context"
	"log/slog"
)

// HeaderXRequestID is the header the request ID is read from and echoed on.
const HeaderXRequestID = "X-Request-Id"

type requestIDKey struct{}

type loggerKey struct{}

// WithRequestID returns a context carrying the request ID.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request ID carried by ctx, or "" when none was set.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)

	return id
}

// WithLogger returns a context carrying a request-scoped logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// Logger returns the request-scoped logger carried by ctx. Callers outside
// an HTTP request (workers, startup hooks) get the fallback instead.
func Logger(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return logger
	}

	return fallback
}
