package http

import (
	"errors"
	"maps"
	"net/http"

	"github.com/aussiebroadwan/signup/internal/signup/domain"
	"github.com/aussiebroadwan/signup/internal/signup/service"
	"github.com/aussiebroadwan/signup/pkg/httpx"
	"github.com/aussiebroadwan/signup/pkg/slogx"
)

const (
	msgInviteExpired = "Sorry, this link has expired. Please request a new invitation link."
	msgInviteInvalid = "ERROR: invalid invitation token"
	msgUnknownError  = "An unknown error occured."
)

// SignupHandler redeems invitation links.
type SignupHandler struct {
	SignupService *service.SignupService
	Fields        domain.FieldSet
	pages         *pages
	forms         *formValidator
}

// HandleGet godoc
//
//	@Summary		Sign-up form
//	@Description	Verifies the invitation token in the path and renders the sign-up form for the invited address.
//	@Tags			Sign-up
//	@Produce		html
//	@Param			token	path		string			true	"Invitation token from the emailed link"
//	@Success		200		{string}	string			"HTML form"
//	@Failure		400		{object}	ErrorResponse	"invalid token"
//	@Failure		410		{object}	ErrorResponse	"expired token"
//	@Router			/signup/{token} [get]
func (h *SignupHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	email, err := h.SignupService.VerifyInvite(r.Context(), r.PathValue("token"))
	if err != nil {
		h.tokenError(w, r, err)
		return
	}

	h.pages.render(w, r, http.StatusOK, pageSignup, pageData{
		Title:  "Sign Up",
		Email:  email,
		Fields: fieldViews(h.Fields, nil),
	})
}

// HandlePost godoc
//
//	@Summary		Create an account
//	@Description	Verifies the invitation token again and creates the account for the address it was issued to.
//	@Description	Configured profile fields are passed to the identity provider with the new account.
//	@Tags			Sign-up
//	@Accept			json,x-www-form-urlencoded
//	@Produce		json
//	@Param			token				path		string					true	"Invitation token from the emailed link"
//	@Param			password			formData	string					true	"New password"
//	@Param			confirm_password	formData	string					true	"Must equal password"
//	@Param			X-CSRF-Token		header		string					true	"Token from the X-CSRF-Token response header"
//	@Success		201					{object}	SignupResponse
//	@Failure		400					{object}	ValidationErrorResponse	"invalid form or token, or password rejected"
//	@Failure		409					{object}	ErrorResponse			"account already exists"
//	@Failure		410					{object}	ErrorResponse			"expired token"
//	@Failure		429					{object}	ErrorResponse
//	@Failure		500					{object}	ErrorResponse
//	@Router			/signup/{token} [post]
func (h *SignupHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	token := r.PathValue("token")

	email, err := h.SignupService.VerifyInvite(ctx, token)
	if err != nil {
		h.tokenError(w, r, err)
		return
	}

	body := map[string]string{}
	if err := bind(w, r, &body); err != nil {
		h.formError(w, r, http.StatusBadRequest, email, nil, "Invalid request body", nil)
		return
	}
	profile := profileValues(h.Fields, body)
	form := SignupForm{Password: body["password"], ConfirmPassword: body["confirm_password"]}

	fieldErrs := map[string]string{}
	for _, err := range []error{h.forms.Struct(form), h.forms.Profile(h.Fields, profile, true)} {
		if err == nil {
			continue
		}
		var verr *ValidationError
		if !errors.As(err, &verr) {
			log.Error("failed to validate sign-up form", "err", err)
			h.formError(w, r, http.StatusInternalServerError, email, profile, msgUnknownError, nil)
			return
		}
		maps.Copy(fieldErrs, verr.Errors)
	}
	if len(fieldErrs) > 0 {
		h.formError(w, r, http.StatusBadRequest, email, profile, (&ValidationError{Errors: fieldErrs}).First(), fieldErrs)
		return
	}

	_, err = h.SignupService.CreateAccount(ctx, token, form.Password, profile)
	switch {
	case err == nil:
	case errors.Is(err, service.ErrInviteExpired), errors.Is(err, service.ErrInviteInvalid):
		h.tokenError(w, r, err)
		return
	case errors.Is(err, service.ErrPasswordTooWeak):
		h.formError(w, r, http.StatusBadRequest, email, profile, "Password too weak!",
			map[string]string{"password": "Password too weak!"})
		return
	case errors.Is(err, service.ErrPasswordContainsUserInfo):
		msg := "Password must not contain user information (eg email/username)."
		h.formError(w, r, http.StatusBadRequest, email, profile, msg, map[string]string{"password": msg})
		return
	case errors.Is(err, service.ErrUserAlreadyExists):
		h.formError(w, r, http.StatusConflict, email, profile, "An account already exists for your email address.", nil)
		return
	case errors.Is(err, service.ErrMissingProfileField):
		h.formError(w, r, http.StatusBadRequest, email, profile, "A required field is missing.", nil)
		return
	default:
		h.formError(w, r, http.StatusInternalServerError, email, profile, msgUnknownError, nil)
		return
	}

	if httpx.WantsJSON(r) {
		httpx.WriteJSON(w, http.StatusCreated, SignupResponse{Email: email, Message: "Account created!"})
		return
	}
	h.pages.message(w, r, http.StatusOK, "Sign Up", "Account created!")
}

// tokenError answers for a token that failed verification. The response
// never says more than expired or invalid.
func (h *SignupHandler) tokenError(w http.ResponseWriter, r *http.Request, err error) {
	code, errCode, msg := http.StatusBadRequest, "invalid_token", msgInviteInvalid
	if errors.Is(err, service.ErrInviteExpired) {
		code, errCode, msg = http.StatusGone, "expired_token", msgInviteExpired
	}

	if httpx.WantsJSON(r) {
		httpx.WriteError(w, code, errCode, msg)
		return
	}
	h.pages.message(w, r, code, "Sign Up", msg)
}

// formError re-renders the form with the submitted profile values. Passwords
// are never echoed back.
func (h *SignupHandler) formError(w http.ResponseWriter, r *http.Request, code int, email string, profile map[string]string, msg string, fields map[string]string) {
	if httpx.WantsJSON(r) {
		errCode := "invalid_request"
		switch code {
		case http.StatusConflict:
			errCode = "account_exists"
		case http.StatusInternalServerError:
			errCode = "server_error"
		}
		httpx.WriteJSON(w, code, ValidationErrorResponse{Error: errCode, ErrorDescription: msg, Fields: fields})
		return
	}
	h.pages.render(w, r, code, pageSignup, pageData{
		Title:  "Sign Up",
		Email:  email,
		Error:  msg,
		Errors: fields,
		Fields: fieldViews(h.Fields, profile),
	})
}
