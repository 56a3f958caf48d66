package site

import (
	"errors"
	"net/mail"
	"sort"
	"strings"
	"unicode"
)

// ErrInvalidForm is wrapped by every FieldErrors.
var ErrInvalidForm = errors.New("invalid form input")

// FieldErrors maps form field names to user-facing messages.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return ErrInvalidForm.Error() + ": " + strings.Join(fields, ", ")
}

func (fe FieldErrors) Unwrap() error {
	return ErrInvalidForm
}

// Has reports whether field failed validation.
func (fe FieldErrors) Has(field string) bool {
	_, ok := fe[field]
	return ok
}

func (fe FieldErrors) orNil() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func (fe FieldErrors) required(field, value, msg string) {
	if strings.TrimSpace(value) == "" {
		fe[field] = msg
	}
}

func (fe FieldErrors) email(field, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		fe[field] = "Email address is required"
		return
	}
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		fe[field] = "Enter a valid email address"
	}
}

// phone accepts any formatting with 10 to 15 digits. Empty is left to
// required when the field is mandatory.
func (fe FieldErrors) phone(field, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	digits := 0
	for _, r := range value {
		switch {
		case unicode.IsDigit(r):
			digits++
		case strings.ContainsRune(" ()-.+", r):
		default:
			fe[field] = "Enter a valid phone number"
			return
		}
	}
	if digits < 10 || digits > 15 {
		fe[field] = "Enter a valid phone number"
	}
}

func oneOf(value string, options []string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
