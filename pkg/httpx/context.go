package httpx

import (
	"context"

	"github.com/aussiebroadwan/signup/pkg/websession"
)

type ctxKey string

const (
	ctxKeySession   ctxKey = "session"
	ctxKeyCSRFToken ctxKey = "csrf_token"
)

// WithSession stores the logged-in session in ctx.
func WithSession(ctx context.Context, s websession.Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, s)
}

// SessionFromContext returns the session set by RequireSession.
func SessionFromContext(ctx context.Context) (websession.Session, bool) {
	s, ok := ctx.Value(ctxKeySession).(websession.Session)
	return s, ok
}

// CSRFToken returns the token handlers must embed in forms they render.
func CSRFToken(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyCSRFToken).(string)
	return v
}
