package service

import (
	"context"
	"fmt"
	"slices"
)

// PermissionService answers permission checks against the IdP.
type PermissionService struct {
	IdP IdentityProvider
}

func (s *PermissionService) HasPermission(ctx context.Context, userID, permission string) (bool, error) {
	perms, err := s.IdP.GetPermissions(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("get permissions: %w", err)
	}
	return slices.Contains(perms, permission), nil
}
