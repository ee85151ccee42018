package logger

import (
	"context"
	"log/slog"
)

type loggerCtxKey struct{}

// With derives a context whose logger carries the extra fields. The
// auth middleware uses it to tag every line in a request with the
// caller's user id.
func With(ctx context.Context, fields ...any) context.Context {
	l := From(ctx).With(fields...)
	return context.WithValue(ctx, loggerCtxKey{}, l)
}

// From returns the context's logger, falling back to the process one.
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*slog.Logger); ok {
		return l
	}
	return LoggerWrapper()
}
