package auth0

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/signup/pkg/slogx"
)

// UserExists reports whether any user is registered with email.
func (c *Client) UserExists(ctx context.Context, email string) (bool, error) {
	path := "/users-by-email?" + url.Values{"email": {email}}.Encode()

	resp, err := c.doManagementRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return false, err
	}

	var users []User
	if err := decodeJSON(resp, &users, http.StatusOK); err != nil {
		return false, err
	}
	return len(users) > 0, nil
}

// CreateUser creates a verified user in the database connection. extras are
// root profile attributes (given_name, picture, ...) set at creation time.
func (c *Client) CreateUser(ctx context.Context, email, password string, extras map[string]string) error {
	payload := make(map[string]any, len(extras)+4)
	for k, v := range extras {
		if v != "" {
			payload[k] = v
		}
	}
	payload["email"] = email
	payload["password"] = password
	payload["email_verified"] = true
	payload["connection"] = c.Connection

	resp, err := c.doManagementRequest(ctx, http.MethodPost, "/users", payload)
	if err != nil {
		return err
	}

	if err := decodeJSON(resp, nil, http.StatusCreated); err != nil {
		return mapCreateUserError(err)
	}

	slogx.FromContext(ctx).Info("created user", slog.String("email", email))
	return nil
}

// GetUser fetches a user by id.
func (c *Client) GetUser(ctx context.Context, userID string) (User, error) {
	resp, err := c.doManagementRequest(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), nil)
	if err != nil {
		return User{}, err
	}

	var user User
	if err := decodeJSON(resp, &user, http.StatusOK); err != nil {
		return User{}, err
	}
	return user, nil
}

// UpdateUser patches root profile attributes of a user.
func (c *Client) UpdateUser(ctx context.Context, userID string, fields map[string]string) error {
	resp, err := c.doManagementRequest(ctx, http.MethodPatch, "/users/"+url.PathEscape(userID), fields)
	if err != nil {
		return err
	}

	if err := decodeJSON(resp, nil, http.StatusOK); err != nil {
		return mapUpdateUserError(err)
	}
	return nil
}

// TriggerPasswordReset asks Auth0 to email a password change link to email.
// This uses the Authentication API and needs no management token.
func (c *Client) TriggerPasswordReset(ctx context.Context, email string) error {
	buf, err := json.Marshal(map[string]string{
		"client_id":  c.ClientID,
		"email":      email,
		"connection": c.Connection,
	})
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/dbconnections/change_password", bytes.NewReader(buf), map[string]string{
		"Content-Type": "application/json",
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return parseErrorResponse(resp, body)
	}
	return nil
}
