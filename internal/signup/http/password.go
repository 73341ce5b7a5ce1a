package http

import (
	"net/http"

	"github.com/aussiebroadwan/signup/internal/signup/service"
	"github.com/aussiebroadwan/signup/pkg/httpx"
	"github.com/aussiebroadwan/signup/pkg/slogx"
)

const msgPasswordReset = "A password reset link has been emailed to you."

// PasswordResetHandler asks the IdP to mail the logged-in user a password
// change link.
type PasswordResetHandler struct {
	ProfileService *service.ProfileService
	pages          *pages
}

// ServeHTTP godoc
//
//	@Summary		Request a password reset
//	@Description	Triggers the identity provider's password change email for the logged-in user.
//	@Tags			Profile
//	@Produce		json,html
//	@Param			X-CSRF-Token	header		string	true	"Token from the X-CSRF-Token response header"
//	@Success		202				{object}	MessageResponse
//	@Failure		400				{object}	ErrorResponse	"session has no email"
//	@Failure		401				{object}	ErrorResponse
//	@Failure		502				{object}	ErrorResponse
//	@Security		SessionCookie
//	@Router			/profile/password-reset [post]
func (h *PasswordResetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, _ := httpx.SessionFromContext(ctx)

	if session.Email == "" {
		h.reply(w, r, http.StatusBadRequest, "invalid_request", "Your account has no email address")
		return
	}

	if err := h.ProfileService.ResetPassword(ctx, session.Email); err != nil {
		slogx.FromContext(ctx).Error("failed to request password reset", "err", err)
		h.reply(w, r, http.StatusBadGateway, "upstream_error", msgUnknownError)
		return
	}

	if httpx.WantsJSON(r) {
		httpx.WriteJSON(w, http.StatusAccepted, MessageResponse{Message: msgPasswordReset})
		return
	}
	h.pages.message(w, r, http.StatusAccepted, "Password Reset", msgPasswordReset)
}

func (h *PasswordResetHandler) reply(w http.ResponseWriter, r *http.Request, code int, errCode, msg string) {
	if httpx.WantsJSON(r) {
		httpx.WriteError(w, code, errCode, msg)
		return
	}
	h.pages.message(w, r, code, "Password Reset", msg)
}
