package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// Detach returns a fresh background context carrying only the logger from
// ctx. Work that outlives a request uses it so it keeps the request's log
// attributes without inheriting its cancellation.
func Detach(ctx context.Context) context.Context {
	return WithContext(context.Background(), FromContext(ctx))
}
