package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/signup/pkg/slogx"
	"github.com/aussiebroadwan/signup/pkg/websession"
)

// SessionLoader reads the logged-in session from a request.
type SessionLoader interface {
	Load(r *http.Request) (websession.Session, error)
}

// PermissionChecker reports whether a user holds a permission at the IdP.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID, permission string) (bool, error)
}

// RequireSession injects the session into the request context. Browsers
// without a session are redirected to loginPath; API clients get a 401.
func RequireSession(sessions SessionLoader, loginPath string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := sessions.Load(r)
			if err != nil {
				if !errors.Is(err, websession.ErrNoSession) {
					slogx.FromContext(r.Context()).Info("rejected session cookie", "err", err)
				}
				if WantsJSON(r) {
					WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
					return
				}
				http.Redirect(w, r, loginPath, http.StatusFound)
				return
			}

			ctx := WithSession(r.Context(), s)
			ctx = slogx.WithContext(ctx, slogx.FromContext(ctx).With("user_id", s.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission rejects sessions whose user lacks permission. It must run
// after RequireSession.
func RequirePermission(checker PermissionChecker, permission string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			s, ok := SessionFromContext(ctx)
			if !ok {
				WriteError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}

			granted, err := checker.HasPermission(ctx, s.UserID, permission)
			if err != nil {
				log.Error("failed to fetch permissions", "err", err)
				WriteError(w, http.StatusBadGateway, "server_error", "Could not verify permissions")
				return
			}
			if !granted {
				log.Warn("permission denied", "permission", permission, "path", r.URL.Path)
				WriteError(w, http.StatusForbidden, "insufficient_permission",
					"You do not have the "+permission+" permission")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
