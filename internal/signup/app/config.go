package app

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/aussiebroadwan/signup/internal/signup/domain"
	"github.com/aussiebroadwan/signup/pkg/httpx"
)

type Config struct {
	PublicURL string `env:"SIGNUP_PUBLIC_URL,required"` // Required: root URL used in invitation links
	SecretKey string `env:"SECRET_KEY,required"`        // Required: signs invitation tokens and session cookies
	OrgName   string `env:"ORG_NAME,required"`          // Required: shown in pages and email subjects

	InviteExpirationDays float64  `env:"INVITE_EXPIRATION_DAYS" envDefault:"5"`                // Decimal days; re-read on SIGHUP
	InvitePermission     string   `env:"INVITE_PERMISSION"      envDefault:"send:invitation"` // IdP permission needed to invite
	UserFields           []string `env:"USER_FIELDS"            envSeparator:","`             // Profile fields collected at sign-up
	RequiredUserFields   []string `env:"REQUIRED_USER_FIELDS"   envSeparator:","`             // Subset of UserFields that must be filled

	MailServer        string        `env:"MAIL_SERVER"         envDefault:"localhost"`
	MailPort          int           `env:"MAIL_PORT"           envDefault:"25"`
	MailUseTLS        bool          `env:"MAIL_USE_TLS"`
	MailUseSSL        bool          `env:"MAIL_USE_SSL"`
	MailUsername      string        `env:"MAIL_USERNAME"`
	MailPassword      string        `env:"MAIL_PASSWORD"`
	MailSenderName    string        `env:"MAIL_SENDER_NAME"`
	MailSenderAddress string        `env:"MAIL_SENDER_ADDRESS,required"`
	MailMaxEmails     int           `env:"MAIL_MAX_EMAILS"` // Messages per connection, 0 = unlimited
	MailTimeout       time.Duration `env:"MAIL_TIMEOUT"        envDefault:"30s"`

	Auth0Domain       string  `env:"AUTH0_DOMAIN,required"`
	Auth0ClientID     string  `env:"AUTH0_CLIENT_ID,required"`
	Auth0ClientSecret string  `env:"AUTH0_CLIENT_SECRET,required"`
	Auth0Audience     string  `env:"AUTH0_AUDIENCE"`
	Auth0Connection   string  `env:"AUTH0_CONNECTION"  envDefault:"Username-Password-Authentication"`
	IdPRatePerSec     float64 `env:"IDP_RATE_PER_SEC"  envDefault:"1"` // Management API calls per second, process-wide

	SessionTTL       time.Duration `env:"SESSION_TTL"        envDefault:"8h"`
	BulkQueueSize    int           `env:"BULK_QUEUE_SIZE"    envDefault:"16"`
	BulkDrainTimeout time.Duration `env:"BULK_DRAIN_TIMEOUT" envDefault:"5m"` // How long shutdown waits for the running bulk job

	StrictLimit   httpx.RateLimitConfig `envPrefix:"RATELIMIT_STRICT_"`
	ModerateLimit httpx.RateLimitConfig `envPrefix:"RATELIMIT_MODERATE_"`
	LenientLimit  httpx.RateLimitConfig `envPrefix:"RATELIMIT_LENIENT_"`

	Env                 string        `env:"ENV"                   envDefault:"dev"`
	LogLevel            string        `env:"LOG_LEVEL"             envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT"            envDefault:"json"`
	Port                int           `env:"PORT"                  envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() (Config, error) {
	if err := loadDotEnv(false); err != nil {
		return Config{}, err
	}
	return parseConfig(env.Options{})
}

// loadDotEnv applies ./.env. With override set, values already in the
// environment are replaced, which is what a reload wants.
func loadDotEnv(override bool) error {
	load := godotenv.Load
	if override {
		load = godotenv.Overload
	}
	if err := load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func parseConfig(opts env.Options) (Config, error) {
	cfg := Config{
		StrictLimit:   httpx.StrictLimit,
		ModerateLimit: httpx.ModerateLimit,
		LenientLimit:  httpx.LenientLimit,
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks values the struct tags cannot express.
func (c Config) Validate() error {
	u, err := url.Parse(c.PublicURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("SIGNUP_PUBLIC_URL must be an absolute http(s) URL, got %q", c.PublicURL)
	}
	if c.InviteExpirationDays <= 0 {
		return fmt.Errorf("INVITE_EXPIRATION_DAYS must be positive, got %v", c.InviteExpirationDays)
	}
	if c.MailUseTLS && c.MailUseSSL {
		return errors.New("MAIL_USE_TLS and MAIL_USE_SSL cannot both be set")
	}
	if c.IdPRatePerSec <= 0 {
		return fmt.Errorf("IDP_RATE_PER_SEC must be positive, got %v", c.IdPRatePerSec)
	}
	if c.BulkQueueSize < 1 {
		return fmt.Errorf("BULK_QUEUE_SIZE must be at least 1, got %d", c.BulkQueueSize)
	}
	if c.BulkDrainTimeout <= 0 {
		return fmt.Errorf("BULK_DRAIN_TIMEOUT must be positive, got %v", c.BulkDrainTimeout)
	}
	if _, err := c.FieldSet(); err != nil {
		return err
	}
	return nil
}

// FieldSet resolves USER_FIELDS and REQUIRED_USER_FIELDS against the catalog.
func (c Config) FieldSet() (domain.FieldSet, error) {
	fields, err := domain.NewFieldSet(c.UserFields, c.RequiredUserFields)
	if err != nil {
		return domain.FieldSet{}, fmt.Errorf("USER_FIELDS: %w", err)
	}
	return fields, nil
}

// SecureCookies reports whether cookies should carry the Secure flag.
func (c Config) SecureCookies() bool {
	return strings.HasPrefix(c.PublicURL, "https://")
}

// expirationEnv is the part of the environment a reload re-reads.
type expirationEnv struct {
	Days float64 `env:"INVITE_EXPIRATION_DAYS" envDefault:"5"`
}

func readExpirationDays(opts env.Options) (float64, error) {
	var e expirationEnv
	if err := env.ParseWithOptions(&e, opts); err != nil {
		return 0, fmt.Errorf("parse env: %w", err)
	}
	if e.Days <= 0 {
		return 0, fmt.Errorf("INVITE_EXPIRATION_DAYS must be positive, got %v", e.Days)
	}
	return e.Days, nil
}
