package auth0

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrPasswordTooWeak          = errors.New("auth0: password too weak")
	ErrPasswordContainsUserInfo = errors.New("auth0: password contains user information")
	ErrUserAlreadyExists        = errors.New("auth0: user already exists")
	ErrCannotUnsetField         = errors.New("auth0: profile field cannot be unset")
)

// APIError is an unmapped error response from Auth0.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("auth0: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("auth0: HTTP %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// parseErrorResponse turns a non-success response into an *APIError,
// falling back to the status text when the body is not Auth0's error shape.
func parseErrorResponse(resp *http.Response, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && (errResp.Message != "" || errResp.Error != "") {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       errResp.ErrorCode,
			Message:    firstNonEmpty(errResp.Message, errResp.Error),
		}
	}

	return &APIError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
	}
}

// mapCreateUserError maps the known account-creation failures. The password
// policy errors are only identifiable by the message prefix Auth0 uses.
func mapCreateUserError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}

	switch {
	case strings.HasPrefix(apiErr.Message, "PasswordStrengthError"):
		return fmt.Errorf("%w: %s", ErrPasswordTooWeak, apiErr.Message)
	case strings.HasPrefix(apiErr.Message, "PasswordNoUserInfoError"):
		return fmt.Errorf("%w: %s", ErrPasswordContainsUserInfo, apiErr.Message)
	case apiErr.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrUserAlreadyExists, apiErr.Message)
	}
	return err
}

// mapUpdateUserError detects Auth0 refusing to blank out a root attribute.
func mapUpdateUserError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) &&
		apiErr.StatusCode == http.StatusBadRequest &&
		strings.Contains(apiErr.Message, "String is too short") {
		return fmt.Errorf("%w: %s", ErrCannotUnsetField, apiErr.Message)
	}
	return err
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
