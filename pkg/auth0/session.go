package auth0

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/signup/pkg/slogx"
)

// managementToken returns a valid Management API token, authenticating on
// first use and again once the cached token is within the expiry buffer.
func (c *Client) managementToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.accessToken != "" && c.now().Before(c.expiresAt) {
		token := c.accessToken
		c.mu.RUnlock()
		return token, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring the write lock, another goroutine may have
	// authenticated while we were waiting.
	if c.accessToken != "" && c.now().Before(c.expiresAt) {
		return c.accessToken, nil
	}

	log := slogx.FromContext(ctx)
	if c.accessToken != "" {
		log.Info("management API access token has expired")
	}

	tokenResp, err := c.clientCredentialsGrant(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to authenticate with management API: %w", err)
	}

	c.accessToken = tokenResp.AccessToken
	c.expiresAt = c.now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - tokenExpiryBuffer)

	log.Info("obtained access token for management API",
		slog.Time("expires_at", c.expiresAt),
	)
	return c.accessToken, nil
}

// clientCredentialsGrant requests a Management API token for this client.
func (c *Client) clientCredentialsGrant(ctx context.Context) (*tokenResponse, error) {
	data := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.ClientID},
		"client_secret": {c.ClientSecret},
		"audience":      {c.managementAudience()},
	}

	resp, err := c.doRequest(ctx, "POST", "/oauth/token", strings.NewReader(data.Encode()), map[string]string{
		"Content-Type": "application/x-www-form-urlencoded",
	})
	if err != nil {
		return nil, err
	}

	var tokenResp tokenResponse
	if err := decodeJSON(resp, &tokenResp, 200); err != nil {
		return nil, err
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("token response did not include an access token")
	}

	return &tokenResp, nil
}
