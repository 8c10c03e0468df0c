// Package validation implements field-level request validation with
// human-readable, per-field messages.
package validation

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
)

// FieldError is a single validation failure on a named request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Errors collects failures in rule-evaluation order.
type Errors []FieldError

func (e Errors) Error() string {
	return "invalid request"
}

// First returns the first failure message, or an empty string.
func (e Errors) First() string {
	if len(e) == 0 {
		return ""
	}
	return e[0].Message
}

// Fields maps each failing field to its first message.
func (e Errors) Fields() map[string]string {
	fields := make(map[string]string, len(e))
	for _, fe := range e {
		if _, ok := fields[fe.Field]; !ok {
			fields[fe.Field] = fe.Message
		}
	}
	return fields
}

var digitsPattern = regexp.MustCompile(`^[0-9]+$`)

// Validator accumulates rule failures for one request.
type Validator struct {
	errs Errors
}

func New() *Validator {
	return &Validator{}
}

// Add records a failure for a field unless one is already present.
func (v *Validator) Add(field, message string) {
	for _, fe := range v.errs {
		if fe.Field == field {
			return
		}
	}
	v.errs = append(v.errs, FieldError{Field: field, Message: message})
}

func (v *Validator) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, fmt.Sprintf("The %s field is required.", label(field)))
	}
}

// Max validates a maximum length; empty values pass (pair with Required).
func (v *Validator) Max(field, value string, max int) {
	if value != "" && len(value) > max {
		v.Add(field, fmt.Sprintf("The %s field must not be greater than %d characters.", label(field), max))
	}
}

func (v *Validator) Min(field, value string, min int) {
	if value != "" && len(value) < min {
		v.Add(field, fmt.Sprintf("The %s field must be at least %d characters.", label(field), min))
	}
}

func (v *Validator) Email(field, value string) {
	if value == "" {
		return
	}
	if _, err := mail.ParseAddress(value); err != nil {
		v.Add(field, fmt.Sprintf("The %s field must be a valid email address.", label(field)))
	}
}

// Confirmed checks that value matches its <field>_confirmation counterpart.
func (v *Validator) Confirmed(field, value, confirmation string) {
	if value != "" && value != confirmation {
		v.Add(field, fmt.Sprintf("The %s field confirmation does not match.", label(field)))
	}
}

func (v *Validator) Digits(field, value string, count int) {
	if value == "" {
		return
	}
	if len(value) != count || !digitsPattern.MatchString(value) {
		v.Add(field, fmt.Sprintf("The %s field must be %d digits.", label(field), count))
	}
}

func (v *Validator) URL(field, value string) {
	if value == "" {
		return
	}
	u, err := url.ParseRequestURI(value)
	if err != nil || u.Scheme == "" || u.Host == "" {
		v.Add(field, fmt.Sprintf("The %s field must be a valid URL.", label(field)))
	}
}

func (v *Validator) Valid() bool {
	return len(v.errs) == 0
}

func (v *Validator) Errors() Errors {
	return v.errs
}

// label renders a field name the way messages spell it (password_confirmation
// becomes "password confirmation").
func label(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}
