package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/signup/internal/signup/domain"
	"github.com/aussiebroadwan/signup/pkg/slogx"
)

// Profile is the configured subset of a user's IdP attributes.
type Profile struct {
	UserID string
	Email  string
	Fields map[string]string
}

// ProfileService lets a logged-in user read and edit their own attributes.
type ProfileService struct {
	IdP    IdentityProvider
	Fields domain.FieldSet
}

func (s *ProfileService) Get(ctx context.Context, userID string) (Profile, error) {
	user, err := s.IdP.GetUser(ctx, userID)
	if err != nil {
		return Profile{}, fmt.Errorf("get user: %w", err)
	}

	all := user.Fields()
	fields := make(map[string]string, len(s.Fields.Fields))
	for _, f := range s.Fields.Fields {
		fields[f.Name] = all[f.Name]
	}

	return Profile{UserID: user.UserID, Email: user.Email, Fields: fields}, nil
}

// Update applies the submitted configured fields that differ from the
// stored values. Fields absent from submitted are left alone. Blanking a
// field that has a value fails with ErrCannotUnsetField before the IdP is
// called.
func (s *ProfileService) Update(ctx context.Context, userID string, submitted map[string]string) error {
	user, err := s.IdP.GetUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	current := user.Fields()

	changes := make(map[string]string)
	for _, f := range s.Fields.Fields {
		raw, ok := submitted[f.Name]
		if !ok {
			continue
		}
		v := strings.TrimSpace(raw)
		if v == current[f.Name] {
			continue
		}
		if v == "" {
			if s.Fields.Required(f.Name) {
				return fmt.Errorf("%w: %s", ErrMissingProfileField, f.Name)
			}
			return fmt.Errorf("%w: %s", ErrCannotUnsetField, f.Name)
		}
		changes[f.Name] = v
	}

	if len(changes) == 0 {
		return nil
	}

	if err := s.IdP.UpdateUser(ctx, userID, changes); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("profile updated", slog.Int("fields", len(changes)))
	return nil
}

// ResetPassword asks the IdP to mail a password change link to email.
func (s *ProfileService) ResetPassword(ctx context.Context, email string) error {
	if err := s.IdP.TriggerPasswordReset(ctx, email); err != nil {
		return fmt.Errorf("trigger password reset: %w", err)
	}
	slogx.FromContext(ctx).Info("password reset requested", slog.String("email", email))
	return nil
}
