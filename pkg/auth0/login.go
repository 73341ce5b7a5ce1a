package auth0

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"golang.org/x/oauth2"
)

// LoginConfig builds the authorization code flow configuration for
// interactive admin login.
func (c *Client) LoginConfig(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   c.url("/authorize"),
			TokenURL:  c.url("/oauth/token"),
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: redirectURL,
		Scopes:      []string{"openid", "profile", "email"},
	}
}

// FetchUserInfo exchanges the user's access token for their OIDC profile.
func (c *Client) FetchUserInfo(ctx context.Context, token *oauth2.Token) (UserInfo, error) {
	httpClient := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient), oauth2.StaticTokenSource(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url("/userinfo"), nil)
	if err != nil {
		return UserInfo{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return UserInfo{}, fmt.Errorf("failed to send request: %w", err)
	}

	var info UserInfo
	if err := decodeJSON(resp, &info, http.StatusOK); err != nil {
		return UserInfo{}, err
	}
	if info.Subject == "" {
		return UserInfo{}, fmt.Errorf("userinfo response did not include a subject")
	}
	return info, nil
}

// LogoutURL returns the tenant logout URL that redirects back to returnTo.
func (c *Client) LogoutURL(returnTo string) string {
	params := url.Values{
		"returnTo":  {returnTo},
		"client_id": {c.ClientID},
	}
	return c.url("/v2/logout") + "?" + params.Encode()
}
