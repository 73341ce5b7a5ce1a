package app

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	httpapi "github.com/aussiebroadwan/signup/internal/signup/http"
	"github.com/aussiebroadwan/signup/internal/signup/metrics"
	"github.com/aussiebroadwan/signup/internal/signup/notify"
	"github.com/aussiebroadwan/signup/internal/signup/service"
	"github.com/aussiebroadwan/signup/pkg/auth0"
	"github.com/aussiebroadwan/signup/pkg/invitetoken"
	"github.com/aussiebroadwan/signup/pkg/mailx"
	"github.com/aussiebroadwan/signup/pkg/slogx"
	"github.com/aussiebroadwan/signup/pkg/websession"
)

// BuildVersion is overridden at build time with -ldflags "-X".
var BuildVersion = "v0.1.0"

// Application encapsulates the sign-up portal with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// window is the invitation lifetime in nanoseconds. Token verification
	// reads it on every call so a reload applies to links already sent.
	window atomic.Int64

	// Core dependencies
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	idp      *auth0.Client
	mailer   *mailx.Mailer
	tokens   *invitetoken.Codec
	sessions *websession.Codec
	runner   *service.JobRunner

	// Services
	inviteService     *service.InviteService
	bulkService       *service.BulkInviteService
	signupService     *service.SignupService
	profileService    *service.ProfileService
	permissionService *service.PermissionService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "signup",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}
	app.window.Store(int64(invitetoken.Days(cfg.InviteExpirationDays)))

	if err := app.initDependencies(); err != nil {
		return nil, err
	}
	if err := app.initServices(); err != nil {
		return nil, err
	}
	if err := app.initHTTP(); err != nil {
		return nil, err
	}

	return app, nil
}

// InviteWindow returns the current invitation lifetime.
func (app *Application) InviteWindow() time.Duration {
	return time.Duration(app.window.Load())
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.runner.Start()

	app.logger.Info("signup portal starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"invite_window", app.InviteWindow().String(),
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	defer signal.Stop(reload)

	for {
		select {
		case err := <-serverErrors:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		case <-reload:
			if err := loadDotEnv(true); err != nil {
				app.logger.Error("reload failed", "error", err)
				continue
			}
			if err := app.ReloadInviteWindow(env.Options{}); err != nil {
				app.logger.Error("reload failed", "error", err)
			}
		case sig := <-shutdown:
			app.logger.Info("shutdown signal received", "signal", sig)

			if err := app.Shutdown(); err != nil {
				return fmt.Errorf("graceful shutdown failed: %w", err)
			}
			return nil
		}
	}
}

// ReloadInviteWindow re-reads INVITE_EXPIRATION_DAYS. An invalid value keeps
// the current window.
func (app *Application) ReloadInviteWindow(opts env.Options) error {
	days, err := readExpirationDays(opts)
	if err != nil {
		return err
	}

	prev := app.InviteWindow()
	next := invitetoken.Days(days)
	app.window.Store(int64(next))
	app.logger.Info("invite window reloaded", "previous", prev.String(), "current", next.String())
	return nil
}

// Shutdown gracefully shuts down the application. The server stops first so
// no new jobs arrive; the runner then lets the current job finish within
// BulkDrainTimeout and drops the rest of the queue.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down signup portal...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// A bulk job is paced by the IdP limit, so it gets its own budget.
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), app.cfg.BulkDrainTimeout)
	defer cancelDrain()

	if err := app.runner.Stop(drainCtx); err != nil {
		app.logger.Error("bulk invitation runner did not stop cleanly", "error", err)
		return err
	}

	app.logger.Info("signup portal stopped")
	return nil
}

// initDependencies builds the clients for everything outside the process.
func (app *Application) initDependencies() error {
	app.registry = prometheus.NewRegistry()
	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(app.registry)

	app.idp = auth0.NewClient(app.cfg.Auth0Domain, app.cfg.Auth0ClientID, app.cfg.Auth0ClientSecret)
	app.idp.Limiter = rate.NewLimiter(rate.Limit(app.cfg.IdPRatePerSec), 1)
	if app.cfg.Auth0Connection != "" {
		app.idp.Connection = app.cfg.Auth0Connection
	}

	mailer, err := mailx.New(mailx.Config{
		Host:          app.cfg.MailServer,
		Port:          app.cfg.MailPort,
		Username:      app.cfg.MailUsername,
		Password:      app.cfg.MailPassword,
		UseTLS:        app.cfg.MailUseTLS,
		UseSSL:        app.cfg.MailUseSSL,
		SenderName:    app.cfg.MailSenderName,
		SenderAddress: app.cfg.MailSenderAddress,
		MaxEmails:     app.cfg.MailMaxEmails,
		Timeout:       app.cfg.MailTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize mailer: %w", err)
	}
	app.mailer = mailer

	secret := []byte(app.cfg.SecretKey)
	app.tokens = invitetoken.New(secret, app.InviteWindow)
	app.sessions = websession.New(secret,
		websession.WithTTL(app.cfg.SessionTTL),
		websession.WithSecure(app.cfg.SecureCookies()),
	)

	app.runner = service.NewJobRunner(app.logger, app.cfg.BulkQueueSize)
	return nil
}

// initServices initializes all business logic services
func (app *Application) initServices() error {
	fields, err := app.cfg.FieldSet()
	if err != nil {
		return err
	}

	composer, err := notify.NewComposer(app.cfg.OrgName)
	if err != nil {
		return fmt.Errorf("failed to load email templates: %w", err)
	}

	app.inviteService = &service.InviteService{
		IdP:       app.idp,
		Mailer:    app.mailer,
		Tokens:    app.tokens,
		Emails:    composer,
		PublicURL: app.cfg.PublicURL,
		Window:    app.InviteWindow,
		Metrics:   app.metrics,
	}
	app.bulkService = &service.BulkInviteService{
		Invites: app.inviteService,
		Runner:  app.runner,
		Metrics: app.metrics,
	}
	app.signupService = &service.SignupService{
		IdP:     app.idp,
		Tokens:  app.tokens,
		Fields:  fields,
		Metrics: app.metrics,
	}
	app.profileService = &service.ProfileService{IdP: app.idp, Fields: fields}
	app.permissionService = &service.PermissionService{IdP: app.idp}
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() error {
	fields, err := app.cfg.FieldSet()
	if err != nil {
		return err
	}

	// gorilla/csrf wants exactly 32 bytes; derive them from SECRET_KEY.
	csrfKey := sha256.Sum256([]byte("signup-csrf:" + app.cfg.SecretKey))

	router, err := httpapi.NewRouter(httpapi.RouterConfig{
		OrgName:          app.cfg.OrgName,
		PublicURL:        app.cfg.PublicURL,
		Audience:         app.cfg.Auth0Audience,
		InvitePermission: app.cfg.InvitePermission,
		Fields:           fields,
		SecureCookies:    app.cfg.SecureCookies(),
		CSRFKey:          csrfKey[:],
		Limits: httpapi.RateLimits{
			Strict:   app.cfg.StrictLimit,
			Moderate: app.cfg.ModerateLimit,
			Lenient:  app.cfg.LenientLimit,
		},
	}, BuildVersion, app.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize router: %w", err)
	}

	// Wire services to router
	router.Sessions = app.sessions
	router.Login = app.idp
	router.Gatherer = app.registry
	router.InviteService = app.inviteService
	router.BulkService = app.bulkService
	router.SignupService = app.signupService
	router.ProfileService = app.profileService
	router.PermissionService = app.permissionService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
