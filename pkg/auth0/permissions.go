package auth0

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// GetPermissions returns the names of every permission granted to a user,
// walking all result pages.
func (c *Client) GetPermissions(ctx context.Context, userID string) ([]string, error) {
	var names []string

	for page := 0; ; page++ {
		query := url.Values{
			"page":           {strconv.Itoa(page)},
			"include_totals": {"true"},
		}
		path := "/users/" + url.PathEscape(userID) + "/permissions?" + query.Encode()

		resp, err := c.doManagementRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}

		var result permissionsPage
		if err := decodeJSON(resp, &result, http.StatusOK); err != nil {
			return nil, err
		}

		for _, p := range result.Permissions {
			names = append(names, p.PermissionName)
		}

		// An empty page means the total moved under us; stop rather than spin.
		if len(names) >= result.Total || len(result.Permissions) == 0 {
			return names, nil
		}
	}
}
