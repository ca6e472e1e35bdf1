// Package domain provides shared domain-level sentinel errors.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a unique constraint rejected a concurrent insert.
var ErrConflict = errors.New("conflict: resource already exists")

// ErrValidation indicates the request failed field-level validation.
var ErrValidation = errors.New("validation failed")

// ErrUnauthenticated indicates no caller identity could be resolved.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrForbidden indicates the caller lacks the permission for the operation.
var ErrForbidden = errors.New("forbidden")

// ErrStoreFailure indicates a persistence call failed for a reason not
// covered by another sentinel.
var ErrStoreFailure = errors.New("store failure")

// ErrAgencyNotFound indicates no agency is registered for a location.
// It never triggers creation of agency-scoped records.
var ErrAgencyNotFound = fmt.Errorf("agency %w", ErrNotFound)

// ErrUnitNotFound indicates no unit matched an address lookup.
var ErrUnitNotFound = fmt.Errorf("unit %w", ErrNotFound)

// ErrUnitNotFoundForAgency indicates the unit does not exist or belongs to
// another agency. The two cases are reported identically.
var ErrUnitNotFoundForAgency = fmt.Errorf("unit %w for agency", ErrNotFound)

// ValidationError lists every offending field of a request.
type ValidationError struct {
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required fields: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid fields: "+strings.Join(e.Invalid, ", "))
	}
	if len(parts) == 0 {
		return ErrValidation.Error()
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Fields returns missing and invalid field names in report order.
func (e *ValidationError) Fields() []string {
	out := make([]string, 0, len(e.Missing)+len(e.Invalid))
	out = append(out, e.Missing...)
	return append(out, e.Invalid...)
}

// Empty reports whether no field was flagged.
func (e *ValidationError) Empty() bool {
	return len(e.Missing) == 0 && len(e.Invalid) == 0
}

// StoreError carries the backing store's diagnostics for a failed stage.
// Diagnostics are for operators; callers only see the stage.
type StoreError struct {
	Stage   string
	Code    string // SQLSTATE when available
	Message string
	Detail  string
	Hint    string
	Err     error
}

func (e *StoreError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (sqlstate %s)", e.Stage, e.Message, e.Code)
	}
	if e.Message != "" {
		return e.Stage + ": " + e.Message
	}
	return e.Stage + ": " + ErrStoreFailure.Error()
}

// Unwrap exposes both the store sentinel and the underlying cause.
func (e *StoreError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrStoreFailure}
	}
	return []error{ErrStoreFailure, e.Err}
}

// StageError tags err with a workflow stage. Domain errors other than store
// failures pass through untouched; an existing StoreError is re-staged.
func StageError(stage string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		cp := *se
		cp.Stage = stage
		return &cp
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrForbidden) || errors.Is(err, ErrUnauthenticated) {
		return err
	}
	return &StoreError{Stage: stage, Message: err.Error(), Err: err}
}

// Code returns the stable error code reported to clients for err.
// The most specific not-found sentinel wins.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrValidation):
		return "validation_failed"
	case errors.Is(err, ErrAgencyNotFound):
		return "agency_not_found"
	case errors.Is(err, ErrUnitNotFoundForAgency):
		return "unit_not_found_for_agency"
	case errors.Is(err, ErrUnitNotFound):
		return "unit_not_found"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	default:
		return "store_failure"
	}
}
