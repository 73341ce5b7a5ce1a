package service

import (
	"context"

	"github.com/aussiebroadwan/signup/pkg/auth0"
	"github.com/aussiebroadwan/signup/pkg/mailx"
)

// IdentityProvider is the subset of the IdP gateway the portal needs.
// *auth0.Client implements it.
type IdentityProvider interface {
	UserExists(ctx context.Context, email string) (bool, error)
	CreateUser(ctx context.Context, email, password string, extras map[string]string) error
	GetPermissions(ctx context.Context, userID string) ([]string, error)
	GetUser(ctx context.Context, userID string) (auth0.User, error)
	UpdateUser(ctx context.Context, userID string, fields map[string]string) error
	TriggerPasswordReset(ctx context.Context, email string) error
}

// Mailer delivers messages one at a time or over a reused connection.
// *mailx.Mailer implements it.
type Mailer interface {
	Send(ctx context.Context, msg mailx.Message) error
	OpenBatch(ctx context.Context) (mailx.Batch, error)
}

// Account-creation and profile errors surfaced by the IdP gateway.
var (
	ErrPasswordTooWeak          = auth0.ErrPasswordTooWeak
	ErrPasswordContainsUserInfo = auth0.ErrPasswordContainsUserInfo
	ErrUserAlreadyExists        = auth0.ErrUserAlreadyExists
	ErrCannotUnsetField         = auth0.ErrCannotUnsetField
)

var (
	_ IdentityProvider = (*auth0.Client)(nil)
	_ Mailer           = (*mailx.Mailer)(nil)
)
