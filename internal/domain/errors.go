package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors used across all layers.
var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrValidation      = errors.New("validation error")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrPersistence     = errors.New("persistence failure")
	ErrFormat          = errors.New("invalid format")
	ErrRestoreFailed   = errors.New("restore failed")
	ErrPartialRollback = errors.New("partial rollback")
)

// FieldError describes a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError contains a list of field-level validation errors.
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

// NewValidationErrors creates a ValidationError from multiple field errors.
func NewValidationErrors(errs []FieldError) *ValidationError {
	return &ValidationError{Errors: errs}
}

// PersistenceError reports that the remote store rejected or failed a write.
// Nothing described by Op was applied.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }

// FormatError reports a malformed backup payload.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string { return "format: " + e.Reason }

func (e *FormatError) Unwrap() error { return ErrFormat }

// RestorePhase names the stage a restore was in when it failed.
type RestorePhase string

const (
	RestorePhaseDelete RestorePhase = "delete"
	RestorePhaseInsert RestorePhase = "insert"
)

// RestoreFailedError reports a restore that stopped part way. Done counts the
// items already processed in the failing phase.
type RestoreFailedError struct {
	Phase RestorePhase
	Done  int
	Total int
	Err   error
}

func (e *RestoreFailedError) Error() string {
	return fmt.Sprintf("restore failed during %s (%d/%d): %v", e.Phase, e.Done, e.Total, e.Err)
}

func (e *RestoreFailedError) Unwrap() []error { return []error{ErrRestoreFailed, e.Err} }

// PartialRollbackWarning lists products a rollback could not revert because
// they no longer exist. The rest of the job was reverted.
type PartialRollbackWarning struct {
	MissingProductIDs []string
}

func (w *PartialRollbackWarning) Error() string {
	return "partial rollback: missing products " + strings.Join(w.MissingProductIDs, ", ")
}

func (w *PartialRollbackWarning) Unwrap() error { return ErrPartialRollback }
