package http

import "github.com/aussiebroadwan/signup/pkg/httpx"

// ErrorResponse is the JSON error body.
type ErrorResponse = httpx.ErrorResponse

// InviteResponse reports the outcome of a single invitation.
type InviteResponse struct {
	Email  string `json:"email" example:"new.member@example.com"`
	Status string `json:"status" example:"sent" enums:"sent,exists"`
}

// BulkInviteResponse acknowledges a queued bulk invitation job.
type BulkInviteResponse struct {
	JobID string `json:"job_id" example:"01JBX6Q8M4ZP3A6V2N9R7T5K1C"`
	Count int    `json:"count" example:"12"`
}

// ValidationErrorResponse lists per-field form errors.
type ValidationErrorResponse struct {
	Error            string            `json:"error" example:"invalid_request"`
	ErrorDescription string            `json:"error_description,omitempty"`
	Fields           map[string]string `json:"fields,omitempty"`
}

// SignupResponse confirms a created account.
type SignupResponse struct {
	Email   string `json:"email" example:"new.member@example.com"`
	Message string `json:"message" example:"Account created!"`
}

// ProfileResponse holds the configured profile fields of the logged-in user.
type ProfileResponse struct {
	UserID string            `json:"user_id" example:"auth0|64f1c2"`
	Email  string            `json:"email" example:"member@example.com"`
	Fields map[string]string `json:"fields"`
}

// MessageResponse carries a human readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is returned by the liveness probe.
type HealthResponse struct {
	Status  string `json:"status" example:"ok"`
	Uptime  string `json:"uptime" example:"1h2m3s"`
	Version string `json:"version" example:"0.1.0"`
}
