package httpx

import (
	"context"
	"net/http"

	"github.com/gorilla/csrf"

	"github.com/aussiebroadwan/signup/pkg/slogx"
)

const (
	CSRFCookieName = "signup_csrf"
	CSRFFormField  = "csrf_token"
	CSRFHeader     = "X-CSRF-Token"
)

// CSRFConfig configures the CSRF middleware.
type CSRFConfig struct {
	// AuthKey signs the token cookie. It must be 32 bytes.
	AuthKey []byte

	// Secure marks the cookie Secure and turns on the strict Origin/Referer
	// check for unsafe requests. Leave it off only for plain-HTTP development.
	Secure bool

	// TrustedOrigins lists extra hosts allowed to submit forms, e.g. the
	// public host when the app sits behind a proxy that rewrites Host.
	TrustedOrigins []string
}

// CSRF protects unsafe requests with gorilla/csrf. The masked token for the
// current request is available to handlers through CSRFToken and is echoed in
// the X-CSRF-Token response header, so a JSON client can pick it up from any
// GET and send it back in the same header.
func CSRF(cfg CSRFConfig) Middleware {
	protect := csrf.Protect(cfg.AuthKey,
		csrf.CookieName(CSRFCookieName),
		csrf.FieldName(CSRFFormField),
		csrf.RequestHeader(CSRFHeader),
		csrf.Path("/"),
		csrf.Secure(cfg.Secure),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.TrustedOrigins(cfg.TrustedOrigins),
		csrf.ErrorHandler(http.HandlerFunc(csrfFailure)),
	)

	return func(next http.Handler) http.Handler {
		expose := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := csrf.Token(r)
			w.Header().Set(CSRFHeader, token)

			ctx := context.WithValue(r.Context(), ctxKeyCSRFToken, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})

		protected := protect(expose)
		if cfg.Secure {
			return protected
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			protected.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}

func csrfFailure(w http.ResponseWriter, r *http.Request) {
	slogx.FromContext(r.Context()).Warn("csrf check failed",
		"path", r.URL.Path,
		"reason", csrf.FailureReason(r),
	)
	WriteError(w, http.StatusForbidden, "invalid_csrf_token", "Missing or invalid CSRF token")
}
