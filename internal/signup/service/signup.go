package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/signup/internal/signup/domain"
	"github.com/aussiebroadwan/signup/internal/signup/metrics"
	"github.com/aussiebroadwan/signup/pkg/cryptox"
	"github.com/aussiebroadwan/signup/pkg/invitetoken"
	"github.com/aussiebroadwan/signup/pkg/slogx"
)

var (
	ErrInviteExpired       = errors.New("invitation has expired")
	ErrInviteInvalid       = errors.New("invitation is invalid")
	ErrMissingProfileField = errors.New("required profile field is missing")
)

// SignupService redeems invitation links.
type SignupService struct {
	IdP     IdentityProvider
	Tokens  *invitetoken.Codec
	Fields  domain.FieldSet
	Metrics *metrics.Metrics
}

// VerifyInvite returns the email an invitation token was issued for.
func (s *SignupService) VerifyInvite(ctx context.Context, token string) (string, error) {
	log := slogx.FromContext(ctx).With(slog.String("token_fp", cryptox.FingerprintToken(token)))

	email, err := s.Tokens.Verify(token)
	switch {
	case err == nil:
		s.Metrics.RecordTokenVerification(metrics.TokenValid)
		return email, nil
	case errors.Is(err, invitetoken.ErrExpired):
		log.Info("received expired invitation token")
		s.Metrics.RecordTokenVerification(metrics.TokenExpired)
		return "", ErrInviteExpired
	default:
		log.Warn("received invalid invitation token", slog.Any("err", err))
		s.Metrics.RecordTokenVerification(metrics.TokenInvalid)
		return "", ErrInviteInvalid
	}
}

// CreateAccount verifies token again and creates the account for its email.
// profile may hold any of the configured fields; others are ignored.
func (s *SignupService) CreateAccount(ctx context.Context, token, password string, profile map[string]string) (string, error) {
	email, err := s.VerifyInvite(ctx, token)
	if err != nil {
		return "", err
	}

	log := slogx.FromContext(ctx)

	extras := make(map[string]string, len(s.Fields.Fields))
	for _, f := range s.Fields.Fields {
		v := strings.TrimSpace(profile[f.Name])
		if v == "" {
			if s.Fields.Required(f.Name) {
				return email, fmt.Errorf("%w: %s", ErrMissingProfileField, f.Name)
			}
			continue
		}
		extras[f.Name] = v
	}

	if err := s.IdP.CreateUser(ctx, email, password, extras); err != nil {
		switch {
		case errors.Is(err, ErrPasswordTooWeak), errors.Is(err, ErrPasswordContainsUserInfo):
			log.Info("account creation rejected by password policy", slog.String("email", email), slog.Any("err", err))
		case errors.Is(err, ErrUserAlreadyExists):
			log.Info("account already exists", slog.String("email", email))
		default:
			log.Error("failed to create account", slog.String("email", email), slog.Any("err", err))
		}
		return email, err
	}

	s.Metrics.RecordAccountCreated()
	log.Info("account created", slog.String("email", email))
	return email, nil
}
