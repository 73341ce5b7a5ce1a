package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/signup/internal/signup/domain"
	"github.com/aussiebroadwan/signup/internal/signup/service"
	"github.com/aussiebroadwan/signup/pkg/httpx"
	"github.com/aussiebroadwan/signup/pkg/slogx"
)

// AdminPageHandler renders the invitation forms.
type AdminPageHandler struct {
	pages *pages
}

// ServeHTTP godoc
//
//	@Summary		Admin page
//	@Description	Renders the single and bulk invitation forms for a logged-in admin.
//	@Tags			Admin
//	@Produce		html
//	@Success		200	{string}	string	"HTML page"
//	@Failure		302	{string}	string	"Redirect to /login when not logged in"
//	@Failure		403	{object}	ErrorResponse
//	@Security		SessionCookie
//	@Router			/admin [get]
func (h *AdminPageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.pages.render(w, r, http.StatusOK, pageAdmin, pageData{Title: "Invite"})
}

// InviteHandler sends a single invitation.
type InviteHandler struct {
	InviteService *service.InviteService
	pages         *pages
	forms         *formValidator
}

// ServeHTTP godoc
//
//	@Summary		Send one invitation
//	@Description	Mails a sign-up link to email unless an account already exists for it.
//	@Description	An existing account is not an error; the response status is "exists" and nothing is sent.
//	@Tags			Admin
//	@Accept			json,x-www-form-urlencoded
//	@Produce		json
//	@Param			request	body		InviteForm				true	"Invitee"
//	@Param			X-CSRF-Token	header	string	true	"Token from the X-CSRF-Token response header"
//	@Success		200		{object}	InviteResponse			"email, status"
//	@Failure		400		{object}	ValidationErrorResponse	"invalid email"
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		429		{object}	ErrorResponse
//	@Failure		500		{object}	ErrorResponse
//	@Security		SessionCookie
//	@Router			/admin/invite [post]
func (h *InviteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var form InviteForm
	if err := bind(w, r, &form); err != nil {
		h.reject(w, r, form.Email, "Invalid request body", nil)
		return
	}
	if err := h.forms.Struct(form); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			h.reject(w, r, form.Email, verr.First(), verr.Errors)
			return
		}
		log.Error("failed to validate invite form", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal error")
		return
	}

	result, err := h.InviteService.Invite(ctx, form.Email)
	if err != nil {
		var bad *service.InvalidAddressError
		if errors.As(err, &bad) {
			h.reject(w, r, form.Email, "email must be a valid email address",
				map[string]string{"email": "email must be a valid email address"})
			return
		}

		log.Error("failed to send invitation", "email", form.Email, "err", err)
		if httpx.WantsJSON(r) {
			httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Failed to send invitation")
			return
		}
		h.pages.render(w, r, http.StatusInternalServerError, pageAdmin, pageData{
			Title: "Invite",
			Email: form.Email,
			Error: "An unknown error occured.",
		})
		return
	}

	if httpx.WantsJSON(r) {
		httpx.WriteJSON(w, http.StatusOK, InviteResponse{Email: result.Email, Status: string(result.Status)})
		return
	}

	data := pageData{Title: "Invite"}
	switch result.Status {
	case domain.InviteAlreadyExists:
		data.Error = "An account already exists for this email address."
		data.Email = result.Email
	default:
		data.Notice = fmt.Sprintf("Invitation sent to %s!", result.Email)
	}
	h.pages.render(w, r, http.StatusOK, pageAdmin, data)
}

func (h *InviteHandler) reject(w http.ResponseWriter, r *http.Request, email, msg string, fields map[string]string) {
	if httpx.WantsJSON(r) {
		httpx.WriteJSON(w, http.StatusBadRequest, ValidationErrorResponse{
			Error:            "invalid_request",
			ErrorDescription: msg,
			Fields:           fields,
		})
		return
	}
	h.pages.render(w, r, http.StatusBadRequest, pageAdmin, pageData{
		Title:  "Invite",
		Email:  email,
		Error:  msg,
		Errors: fields,
	})
}

// BulkInviteHandler queues a bulk invitation job.
type BulkInviteHandler struct {
	BulkService *service.BulkInviteService
	pages       *pages
	forms       *formValidator
}

// ServeHTTP godoc
//
//	@Summary		Queue a bulk invitation
//	@Description	Validates a pasted list of addresses and queues one background job for them.
//	@Description	The request returns as soon as the job is queued. When the job finishes the
//	@Description	submitting admin receives one email: a report of sent and skipped addresses,
//	@Description	or a failure notice.
//	@Tags			Admin
//	@Accept			json,x-www-form-urlencoded
//	@Produce		json
//	@Param			request	body		BulkInviteForm			true	"Addresses separated by commas or whitespace"
//	@Param			X-CSRF-Token	header	string	true	"Token from the X-CSRF-Token response header"
//	@Success		202		{object}	BulkInviteResponse		"job_id, count"
//	@Failure		400		{object}	ValidationErrorResponse	"first invalid address"
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		429		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse			"job queue full"
//	@Security		SessionCookie
//	@Router			/admin/invite/bulk [post]
func (h *BulkInviteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var form BulkInviteForm
	if err := bind(w, r, &form); err != nil {
		h.reject(w, r, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if err := h.forms.Struct(form); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			h.reject(w, r, http.StatusBadRequest, "invalid_request", verr.First())
			return
		}
		log.Error("failed to validate bulk invite form", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal error")
		return
	}

	session, _ := httpx.SessionFromContext(ctx)
	job, err := h.BulkService.Submit(ctx, form.Emails, service.Inviter{Email: session.Email, Name: session.Name})
	if err != nil {
		var bad *service.InvalidAddressError
		switch {
		case errors.As(err, &bad):
			h.reject(w, r, http.StatusBadRequest, "invalid_request", fmt.Sprintf("Invalid email address: %s", bad.Address))
		case errors.Is(err, service.ErrNoAddresses):
			h.reject(w, r, http.StatusBadRequest, "invalid_request", "No email addresses were submitted")
		case errors.Is(err, service.ErrJobQueueFull), errors.Is(err, service.ErrJobRunnerStopped):
			log.Warn("bulk invitation rejected", "err", err)
			h.reject(w, r, http.StatusServiceUnavailable, "temporarily_unavailable", "Too many bulk invitations are queued, try again later")
		default:
			log.Error("failed to queue bulk invitation", "err", err)
			h.reject(w, r, http.StatusInternalServerError, "server_error", "An unknown error occured.")
		}
		return
	}

	if httpx.WantsJSON(r) {
		httpx.WriteJSON(w, http.StatusAccepted, BulkInviteResponse{JobID: job.ID.String(), Count: len(job.Addresses)})
		return
	}
	h.pages.render(w, r, http.StatusAccepted, pageAdmin, pageData{
		Title:  "Invite",
		Notice: fmt.Sprintf("Queued invitations for %d addresses. A report will be emailed to you when the job finishes.", len(job.Addresses)),
	})
}

func (h *BulkInviteHandler) reject(w http.ResponseWriter, r *http.Request, code int, errCode, msg string) {
	if httpx.WantsJSON(r) {
		httpx.WriteError(w, code, errCode, msg)
		return
	}
	h.pages.render(w, r, code, pageAdmin, pageData{Title: "Invite", Error: msg})
}
