// Package websession keeps the logged-in admin in a signed cookie.
//
// The cookie value is an HS256 JWT carrying the IdP subject, display name and
// email. Nothing is stored server side, so a restart keeps sessions valid as
// long as the secret does not change.
package websession

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// CookieName is the session cookie set after a successful login.
	CookieName = "signup_session"

	// DefaultTTL bounds how long a login lasts without re-authenticating.
	DefaultTTL = 8 * time.Hour
)

var (
	ErrNoSession      = errors.New("websession: no session cookie")
	ErrInvalidSession = errors.New("websession: invalid session")
)

// Session is the identity of the logged-in user.
type Session struct {
	UserID string
	Name   string
	Email  string
}

type claims struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Codec signs and reads session cookies.
type Codec struct {
	key    []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// Option configures a Codec.
type Option func(*Codec)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(c *Codec) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithSecure marks cookies Secure; set it when the portal is served over https.
func WithSecure(secure bool) Option {
	return func(c *Codec) { c.secure = secure }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// New derives the cookie signing key from secret. The derived key differs
// from secret itself so a session cookie never verifies as any other token
// signed with the process secret.
func New(secret []byte, opts ...Option) *Codec {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte("websession"))

	c := &Codec{
		key: mac.Sum(nil),
		ttl: DefaultTTL,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encode returns the signed cookie value for s.
func (c *Codec) Encode(s Session) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Name:  s.Name,
		Email: s.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	})

	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("websession: sign: %w", err)
	}
	return signed, nil
}

// Decode verifies a cookie value and returns its session.
func (c *Codec) Decode(value string) (Session, error) {
	var cl claims
	_, err := jwt.ParseWithClaims(value, &cl, func(*jwt.Token) (any, error) {
		return c.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if cl.Subject == "" {
		return Session{}, fmt.Errorf("%w: missing subject", ErrInvalidSession)
	}

	return Session{UserID: cl.Subject, Name: cl.Name, Email: cl.Email}, nil
}

// Save writes the session cookie.
func (c *Codec) Save(w http.ResponseWriter, s Session) error {
	value, err := c.Encode(s)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Load reads the session cookie from r.
func (c *Codec) Load(r *http.Request) (Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return Session{}, ErrNoSession
	}
	return c.Decode(cookie.Value)
}

// Clear expires the session cookie.
func (c *Codec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
