package auth0

// DefaultConnection is the database connection new users are created in.
const DefaultConnection = "Username-Password-Authentication"

// tokenResponse is the /oauth/token response for the client_credentials grant.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

// errorResponse is the error body returned by the Management API.
type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
	ErrorCode  string `json:"errorCode,omitempty"`
}

// User is the subset of the Auth0 user object the portal reads.
type User struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
	GivenName   string `json:"given_name,omitempty"`
	FamilyName  string `json:"family_name,omitempty"`
	Name        string `json:"name,omitempty"`
	Nickname    string `json:"nickname,omitempty"`
	Picture     string `json:"picture,omitempty"`
}

// Fields returns the editable profile attributes keyed by Auth0 attribute name.
func (u User) Fields() map[string]string {
	return map[string]string{
		"phone_number": u.PhoneNumber,
		"given_name":   u.GivenName,
		"family_name":  u.FamilyName,
		"name":         u.Name,
		"nickname":     u.Nickname,
		"picture":      u.Picture,
	}
}

// permission is a single entry from /users/{id}/permissions.
type permission struct {
	PermissionName           string `json:"permission_name"`
	ResourceServerIdentifier string `json:"resource_server_identifier"`
}

// permissionsPage is one page of /users/{id}/permissions with include_totals.
type permissionsPage struct {
	Permissions []permission `json:"permissions"`
	Start       int          `json:"start"`
	Limit       int          `json:"limit"`
	Total       int          `json:"total"`
}

// UserInfo is the OIDC /userinfo response for a logged-in user.
type UserInfo struct {
	Subject string `json:"sub"`
	Name    string `json:"name"`
	Email   string `json:"email"`
}
