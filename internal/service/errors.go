package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for the guarded CRUD operations. Handlers map these to
// redirects, flash messages, or hard status codes.
var (
	// ErrDuplicateEmail is returned when registering with an email that
	// already has an account.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials is returned on any login mismatch. Unknown
	// email and wrong password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDuplicateBusiness is returned when a user who already owns a
	// business tries to register another.
	ErrDuplicateBusiness = errors.New("user already owns a business")

	// ErrForbidden is returned when an ownership or role check fails.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when a row looked up by ID does not exist.
	ErrNotFound = errors.New("not found")
)

// ValidationError carries per-field validation messages for form
// re-rendering.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a ValidationError with the given field messages.
func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
