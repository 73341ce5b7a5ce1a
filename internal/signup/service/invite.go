package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/signup/internal/signup/domain"
	"github.com/aussiebroadwan/signup/internal/signup/metrics"
	"github.com/aussiebroadwan/signup/internal/signup/notify"
	"github.com/aussiebroadwan/signup/pkg/cryptox"
	"github.com/aussiebroadwan/signup/pkg/emailx"
	"github.com/aussiebroadwan/signup/pkg/invitetoken"
	"github.com/aussiebroadwan/signup/pkg/mailx"
	"github.com/aussiebroadwan/signup/pkg/slogx"
)

// InvalidAddressError names the first address that failed validation.
type InvalidAddressError struct {
	Address string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("invalid email address %q", e.Address)
}

// InviteService sends single invitations. Existence checks are paced by the
// IdP client itself, so single invites and bulk jobs share one ceiling.
type InviteService struct {
	IdP       IdentityProvider
	Mailer    Mailer
	Tokens    *invitetoken.Codec
	Emails    *notify.Composer
	PublicURL string // e.g. https://join.example.com
	Window    func() time.Duration
	Metrics   *metrics.Metrics
}

// Invite mails an invitation to email unless it already has an account.
// A mail failure is returned as is; there is no retry.
func (s *InviteService) Invite(ctx context.Context, email string) (domain.InviteResult, error) {
	log := slogx.FromContext(ctx)
	result := domain.InviteResult{Email: email}

	if !emailx.IsValid(email) {
		return result, &InvalidAddressError{Address: email}
	}

	exists, err := s.accountExists(ctx, email)
	if err != nil {
		return result, err
	}
	if exists {
		log.Info("invitation skipped, account exists", slog.String("email", email))
		s.Metrics.RecordInvite(false)
		result.Status = domain.InviteAlreadyExists
		return result, nil
	}

	msg, err := s.invitation(ctx, email)
	if err != nil {
		return result, err
	}
	if err := s.Mailer.Send(ctx, msg); err != nil {
		return result, fmt.Errorf("send invitation: %w", err)
	}

	log.Info("invitation sent", slog.String("email", email))
	s.Metrics.RecordInvite(true)
	result.Status = domain.InviteSent
	return result, nil
}

func (s *InviteService) accountExists(ctx context.Context, email string) (bool, error) {
	exists, err := s.IdP.UserExists(ctx, email)
	if err != nil {
		return false, fmt.Errorf("check existing account for %s: %w", email, err)
	}
	return exists, nil
}

// invitation issues a fresh token and renders the mail carrying its link.
func (s *InviteService) invitation(ctx context.Context, email string) (mailx.Message, error) {
	token, err := s.Tokens.Issue(email)
	if err != nil {
		return mailx.Message{}, fmt.Errorf("issue invitation token: %w", err)
	}
	slogx.FromContext(ctx).Debug("issued invitation token",
		slog.String("email", email),
		slog.String("token_fp", cryptox.FingerprintToken(token)),
	)

	return s.Emails.Invitation(email, s.SignupLink(token), s.Window())
}

// SignupLink is the public URL an invitee opens to redeem token.
func (s *InviteService) SignupLink(token string) string {
	return strings.TrimRight(s.PublicURL, "/") + "/signup/" + url.PathEscape(token)
}
