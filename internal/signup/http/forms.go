package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aussiebroadwan/signup/internal/signup/domain"
)

const maxBodyBytes = 64 << 10

// InviteForm is the single invitation form.
type InviteForm struct {
	Email string `json:"email" validate:"required,email"`
}

// BulkInviteForm carries a pasted list of addresses, separated by commas
// or whitespace.
type BulkInviteForm struct {
	Emails string `json:"emails" validate:"required"`
}

// SignupForm is the password part of the sign-up form. Profile fields are
// validated separately because the set is configured at runtime.
type SignupForm struct {
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// ValidationError maps a form field to a message for the user.
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	messages := make([]string, len(fields))
	for i, f := range fields {
		messages[i] = fmt.Sprintf("%s: %s", f, e.Errors[f])
	}
	return "validation failed: " + strings.Join(messages, ", ")
}

// First returns one message, for surfaces that show a single line.
func (e *ValidationError) First() string {
	fields := make([]string, 0, len(e.Errors))
	for f := range e.Errors {
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		return ""
	}
	sort.Strings(fields)
	return e.Errors[fields[0]]
}

// formValidator wraps validator/v10 and reports failures by JSON field name.
type formValidator struct {
	validate *validator.Validate
}

func newFormValidator() *formValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &formValidator{validate: v}
}

// Struct validates a form struct.
func (fv *formValidator) Struct(form any) error {
	err := fv.validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{Errors: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Errors[fe.Field()] = fieldMessage(fe.Field(), fe.Tag(), fe.Param())
	}
	return out
}

// Profile validates the configured profile fields in values. With
// requireAll unset, empty values are skipped; blanking is a service-level
// decision.
func (fv *formValidator) Profile(fields domain.FieldSet, values map[string]string, requireAll bool) error {
	out := &ValidationError{Errors: map[string]string{}}
	for _, f := range fields.Fields {
		tag := "omitempty,max=255"
		if requireAll && fields.Required(f.Name) {
			tag = "required,max=255"
		}
		if f.URL {
			tag += ",url"
		}

		v := strings.TrimSpace(values[f.Name])
		if err := fv.validate.Var(v, tag); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				out.Errors[f.Name] = fieldMessage(f.Label, verrs[0].Tag(), verrs[0].Param())
				continue
			}
			return err
		}
	}
	if len(out.Errors) > 0 {
		return out
	}
	return nil
}

func fieldMessage(field, tag, param string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "eqfield":
		return "Passwords must match"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters long", field, param)
	case "url":
		return fmt.Sprintf("%s must be a valid URL", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// bind decodes a JSON or form-encoded body into dst. Form values are mapped
// onto dst's json tags; repeated keys keep the first value.
func bind(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && ct == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
			return fmt.Errorf("decode json body: %w", err)
		}
		return nil
	}

	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("parse form: %w", err)
	}
	flat := make(map[string]string, len(r.PostForm))
	for k := range r.PostForm {
		flat[k] = r.PostForm.Get(k)
	}
	raw, err := json.Marshal(flat)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// profileValues picks the configured fields out of a bound body.
func profileValues(fields domain.FieldSet, body map[string]string) map[string]string {
	out := make(map[string]string, len(fields.Fields))
	for _, f := range fields.Fields {
		if v, ok := body[f.Name]; ok {
			out[f.Name] = v
		}
	}
	return out
}
