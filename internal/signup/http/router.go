package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aussiebroadwan/signup/internal/signup/domain"
	"github.com/aussiebroadwan/signup/internal/signup/service"
	"github.com/aussiebroadwan/signup/pkg/httpx"
	"github.com/aussiebroadwan/signup/pkg/slogx"
	"github.com/aussiebroadwan/signup/pkg/websession"

	_ "github.com/aussiebroadwan/signup/api/signup" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// RateLimits holds the three rate limit profiles used by the routes.
type RateLimits struct {
	Strict   httpx.RateLimitConfig
	Moderate httpx.RateLimitConfig
	Lenient  httpx.RateLimitConfig
}

// RouterConfig carries the deployment settings handlers need.
type RouterConfig struct {
	OrgName          string
	PublicURL        string
	Audience         string // optional audience requested at login
	InvitePermission string
	Fields           domain.FieldSet
	SecureCookies    bool
	CSRFKey          []byte // 32 bytes, signs the CSRF cookie
	Limits           RateLimits
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	config       RouterConfig
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	pages        *pages
	forms        *formValidator

	Sessions *websession.Codec
	Login    LoginProvider
	Gatherer prometheus.Gatherer // nil disables /metrics

	InviteService     *service.InviteService
	BulkService       *service.BulkInviteService
	SignupService     *service.SignupService
	ProfileService    *service.ProfileService
	PermissionService *service.PermissionService
}

func NewRouter(cfg RouterConfig, buildVersion string, logger *slog.Logger) (*Router, error) {
	p, err := newPages(cfg.OrgName)
	if err != nil {
		return nil, fmt.Errorf("load page templates: %w", err)
	}

	if len(cfg.CSRFKey) != 32 {
		return nil, fmt.Errorf("csrf key must be 32 bytes, got %d", len(cfg.CSRFKey))
	}

	var trusted []string
	if u, err := url.Parse(cfg.PublicURL); err == nil && u.Host != "" {
		trusted = append(trusted, u.Host)
	}

	cfg.Limits.Strict = orDefault(cfg.Limits.Strict, httpx.StrictLimit)
	cfg.Limits.Moderate = orDefault(cfg.Limits.Moderate, httpx.ModerateLimit)
	cfg.Limits.Lenient = orDefault(cfg.Limits.Lenient, httpx.LenientLimit)

	r := &Router{
		Mux:          http.NewServeMux(),
		config:       cfg,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		pages:        p,
		forms:        newFormValidator(),
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		httpx.CSRF(httpx.CSRFConfig{
			AuthKey:        cfg.CSRFKey,
			Secure:         cfg.SecureCookies,
			TrustedOrigins: trusted,
		}),
	}

	return r, nil
}

func orDefault(cfg, def httpx.RateLimitConfig) httpx.RateLimitConfig {
	if cfg.RequestsPerWindow <= 0 || cfg.Window <= 0 {
		return def
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.RequestsPerWindow
	}
	return cfg
}

func (r *Router) ApplyRoutes() {
	r.registerLogin()
	r.registerAdmin()
	r.registerSignup()
	r.registerProfile()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title						Sign-up Portal API
//	@version					0.1.0
//	@description				Invitation-gated sign-up portal. Admins invite people by email; invitees
//	@description				follow a signed, time-limited link to create their account at the identity provider.
//	@description
//	@description				Browser forms and JSON clients share the same endpoints. Every response carries a
//	@description				CSRF token in the X-CSRF-Token header; unsafe requests must send it back, together
//	@description				with the signup_csrf cookie, in that header or the csrf_token form field.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/signup
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	SessionCookie
//	@in							cookie
//	@name						signup_session
//	@description				Session cookie set by /login_callback.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerLogin() {
	h := &LoginHandler{
		Provider:  r.Login,
		Sessions:  r.Sessions,
		PublicURL: r.config.PublicURL,
		Audience:  r.config.Audience,
		Secure:    r.config.SecureCookies,
		pages:     r.pages,
	}

	// Login redirects and the callback - strict by IP (each one hits the IdP)
	r.Mux.Handle("GET /login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(r.config.Limits.Strict),
		),
	)
	r.Mux.Handle("GET /login_callback",
		httpx.Chain(http.HandlerFunc(h.HandleCallback),
			httpx.RateLimitByIP(r.config.Limits.Strict),
		),
	)
	r.Mux.Handle("GET /logout", http.HandlerFunc(h.HandleLogout))
}

// admin wraps h with login, the invite permission and a per-user limit.
func (r *Router) admin(h http.Handler, limit httpx.RateLimitConfig) http.Handler {
	return httpx.Chain(h,
		httpx.RequireSession(r.Sessions, "/login"),
		httpx.RequirePermission(r.PermissionService, r.config.InvitePermission),
		httpx.RateLimitByUser(limit),
	)
}

func (r *Router) registerAdmin() {
	page := &AdminPageHandler{pages: r.pages}
	invite := &InviteHandler{InviteService: r.InviteService, pages: r.pages, forms: r.forms}
	bulk := &BulkInviteHandler{BulkService: r.BulkService, pages: r.pages, forms: r.forms}

	r.Mux.Handle("GET /admin", r.admin(page, r.config.Limits.Lenient))

	// Invitations reach the IdP and SMTP - moderate limit by user
	r.Mux.Handle("POST /admin/invite", r.admin(invite, r.config.Limits.Moderate))
	r.Mux.Handle("POST /admin/invite/bulk", r.admin(bulk, r.config.Limits.Moderate))

	r.Mux.Handle("GET /{$}", http.RedirectHandler("/admin", http.StatusFound))
}

func (r *Router) registerSignup() {
	h := &SignupHandler{
		SignupService: r.SignupService,
		Fields:        r.config.Fields,
		pages:         r.pages,
		forms:         r.forms,
	}

	r.Mux.Handle("GET /signup/{token}",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			httpx.RateLimitByIP(r.config.Limits.Lenient),
		),
	)

	// Account creation - strict limit by IP (public endpoint)
	r.Mux.Handle("POST /signup/{token}",
		httpx.Chain(http.HandlerFunc(h.HandlePost),
			httpx.RateLimitByIP(r.config.Limits.Strict),
		),
	)
}

func (r *Router) registerProfile() {
	h := &ProfileHandler{
		ProfileService: r.ProfileService,
		Fields:         r.config.Fields,
		pages:          r.pages,
		forms:          r.forms,
	}
	reset := &PasswordResetHandler{ProfileService: r.ProfileService, pages: r.pages}

	session := httpx.RequireSession(r.Sessions, "/login")

	r.Mux.Handle("GET /profile",
		httpx.Chain(http.HandlerFunc(h.HandleGet),
			session,
			httpx.RateLimitByUser(r.config.Limits.Lenient),
		),
	)
	r.Mux.Handle("POST /profile",
		httpx.Chain(http.HandlerFunc(h.HandlePost),
			session,
			httpx.RateLimitByUser(r.config.Limits.Moderate),
		),
	)

	// Each reset sends an email - strict limit by user
	r.Mux.Handle("POST /profile/password-reset",
		httpx.Chain(reset,
			session,
			httpx.RateLimitByUser(r.config.Limits.Strict),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.config.Limits.Lenient),
		),
	)

	if r.Gatherer != nil {
		r.Mux.Handle("GET /metrics", promhttp.HandlerFor(r.Gatherer, promhttp.HandlerOpts{}))
	}
}
