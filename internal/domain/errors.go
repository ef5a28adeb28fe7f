package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation error")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
	ErrLockDenied    = errors.New("lock denied")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError contains a list of field-level validation errors.
// It is always produced before any write; the caller can fully recover
// by adjusting input.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation: %s: %s", e.Errors[0].Field, e.Errors[0].Message)
	}
	return fmt.Sprintf("validation: %d errors", len(e.Errors))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Errors: []FieldError{{Field: field, Message: message}},
	}
}

// VersionConflictError reports a failed optimistic-concurrency check.
// CurrentVersion carries the version actually stored so the caller can
// re-fetch and resubmit; the system never auto-merges.
type VersionConflictError struct {
	CurrentVersion int64
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict: current version is %d", e.CurrentVersion)
}

func (e *VersionConflictError) Unwrap() error { return ErrConflict }

// LockDeniedError reports that another account holds an active edit lease.
// Not an error condition per se: the caller should surface "someone else is
// editing" and retry later.
type LockDeniedError struct {
	HolderID uuid.UUID
	Since    time.Time
}

func (e *LockDeniedError) Error() string {
	return fmt.Sprintf("lock held by %s since %s", e.HolderID, e.Since.Format(time.RFC3339))
}

func (e *LockDeniedError) Unwrap() error { return ErrLockDenied }
