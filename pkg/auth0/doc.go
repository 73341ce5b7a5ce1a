/*
Package auth0 is a small client for the Auth0 Management API and the parts of
the Authentication API the sign-up portal needs.

# Client and management token

A Client authenticates with the client_credentials grant on first use and
caches the management access token until 30 seconds before it expires. The
cache is guarded by a mutex so concurrent first use and renewal result in a
single token request:

	client := auth0.NewClient("example.eu.auth0.com", clientID, clientSecret)

	exists, err := client.UserExists(ctx, "alice@example.com")

# Errors

Account creation failures are mapped onto sentinel errors:

	err := client.CreateUser(ctx, email, password, nil)
	switch {
	case errors.Is(err, auth0.ErrPasswordTooWeak):
	case errors.Is(err, auth0.ErrPasswordContainsUserInfo):
	case errors.Is(err, auth0.ErrUserAlreadyExists):
	}

Anything else is returned as an *APIError carrying the status code and the
message Auth0 sent back.

# Login

LoginConfig builds the golang.org/x/oauth2 configuration for the
authorization code flow and FetchUserInfo resolves the logged-in user.
*/
package auth0
