package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrValidation    = errors.New("validation failed")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("access denied")
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrStorage       = errors.New("storage backend failure")
	ErrInvalidState  = errors.New("invalid state transition")
)

type (
	// NotFoundError indicates a resource was not found
	NotFoundError struct {
		ResourceType string
		ResourceID   string
	}

	// ValidationError indicates malformed input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// AccessDeniedError indicates the principal lacks the required permission
	AccessDeniedError struct {
		ResourceType string
		ResourceID   string
		Action       string
	}
)

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.ResourceType, e.ResourceID)
}
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("%s access denied on %s %s", e.Action, e.ResourceType, e.ResourceID)
}

func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *AccessDeniedError) StatusCode() int { return http.StatusForbidden }

func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *AccessDeniedError) Is(target error) bool { return target == ErrForbidden }

// NewValidationError builds a ValidationError from a format string
func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictReason classifies why a hierarchy mutation was rejected
type ConflictReason string

const (
	ConflictDuplicateName ConflictReason = "duplicate_name"
	ConflictDepthExceeded ConflictReason = "depth_exceeded"
	ConflictCircularMove  ConflictReason = "circular_move"
	ConflictNotEmpty      ConflictReason = "not_empty"
)

// ConflictError represents a resource conflict with details about the existing resource
type ConflictError struct {
	Message      string         // Human-readable error message
	Reason       ConflictReason // Machine-readable classification
	ResourceType string         // folder or file
	ResourceID   string         // ID of the existing/conflicting resource, if any
}

func (e *ConflictError) Error() string        { return e.Message }
func (e *ConflictError) StatusCode() int      { return http.StatusConflict }
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// QuotaExceededError is returned when an upload would push the owner past their limit
type QuotaExceededError struct {
	OwnerID   string
	Requested int64
	Available int64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("storage quota exceeded for owner %s: requested %d bytes, %d available",
		e.OwnerID, e.Requested, e.Available)
}
func (e *QuotaExceededError) StatusCode() int      { return http.StatusRequestEntityTooLarge }
func (e *QuotaExceededError) Is(target error) bool { return target == ErrQuotaExceeded }

// StorageBackendError wraps an object store failure.
// Retryable distinguishes transient failures (throttling, 5xx, timeouts) from fatal ones.
type StorageBackendError struct {
	Op        string
	Ref       string
	Retryable bool
	Err       error
}

func (e *StorageBackendError) Error() string {
	kind := "fatal"
	if e.Retryable {
		kind = "transient"
	}
	return fmt.Sprintf("object store %s %q (%s): %v", e.Op, e.Ref, kind, e.Err)
}
func (e *StorageBackendError) Unwrap() error { return e.Err }
func (e *StorageBackendError) StatusCode() int {
	if e.Retryable {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}
func (e *StorageBackendError) Is(target error) bool { return target == ErrStorage }

// StateError reports an illegal file status transition
type StateError struct {
	From string
	To   string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("illegal status transition %s -> %s", e.From, e.To)
}
func (e *StateError) StatusCode() int      { return http.StatusConflict }
func (e *StateError) Is(target error) bool { return target == ErrInvalidState }

// IsRetryable reports whether err carries a transient storage failure
func IsRetryable(err error) bool {
	var storageErr *StorageBackendError
	return errors.As(err, &storageErr) && storageErr.Retryable
}
