package auth0

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// tokenExpiryBuffer is subtracted from the provider-declared lifetime so a
// token is never used right as it expires mid-request.
const tokenExpiryBuffer = 30 * time.Second

// Client talks to a single Auth0 tenant. It is safe for concurrent use and is
// meant to be shared process-wide.
type Client struct {
	// BaseURL is the tenant root, e.g. "https://example.eu.auth0.com".
	BaseURL      string
	ClientID     string
	ClientSecret string

	// Connection is the database connection used for new users and password
	// resets. Default: DefaultConnection
	Connection string

	HTTPClient *http.Client

	// Limiter paces every Management API request, including each page of a
	// paginated read. Share one per tenant so concurrent callers stay under
	// the tenant ceiling together. Nil disables pacing.
	Limiter *rate.Limiter

	mu          sync.RWMutex
	accessToken string
	expiresAt   time.Time
	now         func() time.Time
}

// NewClient creates a client for the tenant at domain.
func NewClient(domain, clientID, clientSecret string) *Client {
	return NewClientWithBaseURL("https://"+domain, clientID, clientSecret)
}

// NewClientWithBaseURL creates a client for a tenant served from baseURL.
// Tests point this at an httptest server.
func NewClientWithBaseURL(baseURL, clientID, clientSecret string) *Client {
	return &Client{
		BaseURL:      strings.TrimSuffix(baseURL, "/"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Connection:   DefaultConnection,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		now: time.Now,
	}
}

// managementAudience is the audience of the Management API for this tenant.
func (c *Client) managementAudience() string {
	return c.BaseURL + "/api/v2/"
}

// url builds a complete URL by appending path to the tenant root.
func (c *Client) url(path string) string {
	return c.BaseURL + path
}
