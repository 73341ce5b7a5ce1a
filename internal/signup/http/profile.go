package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/signup/internal/signup/domain"
	"github.com/aussiebroadwan/signup/internal/signup/service"
	"github.com/aussiebroadwan/signup/pkg/httpx"
	"github.com/aussiebroadwan/signup/pkg/slogx"
)

// ProfileHandler lets the logged-in user view and edit their own attributes.
type ProfileHandler struct {
	ProfileService *service.ProfileService
	Fields         domain.FieldSet
	pages          *pages
	forms          *formValidator
}

// HandleGet godoc
//
//	@Summary		Get own profile
//	@Description	Returns the configured profile fields of the logged-in user.
//	@Tags			Profile
//	@Produce		json,html
//	@Success		200	{object}	ProfileResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		502	{object}	ErrorResponse	"identity provider unavailable"
//	@Security		SessionCookie
//	@Router			/profile [get]
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session, _ := httpx.SessionFromContext(ctx)

	profile, err := h.ProfileService.Get(ctx, session.UserID)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to load profile", "err", err)
		h.fail(w, r, http.StatusBadGateway, "upstream_error", "Unable to load your profile", nil, nil)
		return
	}

	if httpx.WantsJSON(r) {
		httpx.WriteJSON(w, http.StatusOK, ProfileResponse{UserID: profile.UserID, Email: profile.Email, Fields: profile.Fields})
		return
	}
	h.pages.render(w, r, http.StatusOK, pageProfile, pageData{
		Title:  "Profile",
		Email:  profile.Email,
		Fields: fieldViews(h.Fields, profile.Fields),
	})
}

// HandlePost godoc
//
//	@Summary		Update own profile
//	@Description	Updates the submitted configured fields that changed. Fields left out are not touched.
//	@Description	A field that has a value cannot be cleared.
//	@Tags			Profile
//	@Accept			json,x-www-form-urlencoded
//	@Produce		json,html
//	@Param			request			body		map[string]string		true	"Field name to new value"
//	@Param			X-CSRF-Token	header		string					true	"Token from the X-CSRF-Token response header"
//	@Success		200				{object}	ProfileResponse
//	@Failure		400				{object}	ValidationErrorResponse
//	@Failure		401				{object}	ErrorResponse
//	@Failure		502				{object}	ErrorResponse
//	@Security		SessionCookie
//	@Router			/profile [post]
func (h *ProfileHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	session, _ := httpx.SessionFromContext(ctx)

	body := map[string]string{}
	if err := bind(w, r, &body); err != nil {
		h.fail(w, r, http.StatusBadRequest, "invalid_request", "Invalid request body", nil, nil)
		return
	}
	submitted := profileValues(h.Fields, body)

	if err := h.forms.Profile(h.Fields, submitted, false); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			h.fail(w, r, http.StatusBadRequest, "invalid_request", verr.First(), verr.Errors, submitted)
			return
		}
		log.Error("failed to validate profile form", "err", err)
		h.fail(w, r, http.StatusInternalServerError, "server_error", msgUnknownError, nil, submitted)
		return
	}

	if err := h.ProfileService.Update(ctx, session.UserID, submitted); err != nil {
		switch {
		case errors.Is(err, service.ErrCannotUnsetField):
			h.fail(w, r, http.StatusBadRequest, "invalid_request", "A field cannot be cleared once it has a value.", nil, submitted)
		case errors.Is(err, service.ErrMissingProfileField):
			h.fail(w, r, http.StatusBadRequest, "invalid_request", "A required field is missing.", nil, submitted)
		default:
			log.Error("failed to update profile", "err", err)
			h.fail(w, r, http.StatusBadGateway, "upstream_error", msgUnknownError, nil, submitted)
		}
		return
	}

	profile, err := h.ProfileService.Get(ctx, session.UserID)
	if err != nil {
		log.Error("failed to reload profile", "err", err)
		h.fail(w, r, http.StatusBadGateway, "upstream_error", "Profile updated, but it could not be reloaded", nil, submitted)
		return
	}

	if httpx.WantsJSON(r) {
		httpx.WriteJSON(w, http.StatusOK, ProfileResponse{UserID: profile.UserID, Email: profile.Email, Fields: profile.Fields})
		return
	}
	h.pages.render(w, r, http.StatusOK, pageProfile, pageData{
		Title:  "Profile",
		Notice: "Profile updated.",
		Email:  profile.Email,
		Fields: fieldViews(h.Fields, profile.Fields),
	})
}

func (h *ProfileHandler) fail(w http.ResponseWriter, r *http.Request, code int, errCode, msg string, fields, values map[string]string) {
	if httpx.WantsJSON(r) {
		httpx.WriteJSON(w, code, ValidationErrorResponse{Error: errCode, ErrorDescription: msg, Fields: fields})
		return
	}
	session, _ := httpx.SessionFromContext(r.Context())
	h.pages.render(w, r, code, pageProfile, pageData{
		Title:  "Profile",
		Email:  session.Email,
		Error:  msg,
		Errors: fields,
		Fields: fieldViews(h.Fields, values),
	})
}
