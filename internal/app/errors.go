package app

import (
	"errors"
	"fmt"
	"strings"

	"farmlink/pkg/domain"
)

var (
	// ErrInvalidCredentials is returned on unknown email or password mismatch.
	// The message is shown to end users and must not enable account enumeration.
	ErrInvalidCredentials = errors.New("Invalid credentials")

	// ErrEmailAlreadyExists is returned when registering a duplicate email.
	ErrEmailAlreadyExists = errors.New("Email already registered")

	// ErrNotFound is returned when the referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when the caller is not allowed to act on the entity.
	ErrForbidden = errors.New("forbidden")

	// ErrUploadsDisabled is returned when no object store is configured.
	ErrUploadsDisabled = errors.New("image uploads are not configured")
)

// ValidationError carries the full list of field problems found in a request
// body. Checks collect every failure instead of stopping at the first.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// InvalidTransitionError reports an illegal request lifecycle move.
type InvalidTransitionError struct {
	From domain.RequestStatus
	To   domain.RequestStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition request from %s to %s", e.From, e.To)
}
