package shared

import "errors"

// ErrorKind classifies a domain error for transport mapping and retry policy.
type ErrorKind string

const (
	// KindValidation marks a malformed or incomplete request. Never retried.
	KindValidation ErrorKind = "VALIDATION"
	// KindEligibility marks a precondition failure on a product or
	// transaction. Never retried.
	KindEligibility ErrorKind = "ELIGIBILITY"
	// KindConflict marks a lost optimistic-concurrency race. Transient;
	// safe to retry after re-reading state.
	KindConflict ErrorKind = "CONFLICT"
	// KindNotFound marks an unknown product or transaction id.
	KindNotFound ErrorKind = "NOT_FOUND"
	// KindInternal marks an unexpected infrastructure failure.
	KindInternal ErrorKind = "INTERNAL"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a validation error
func NewValidationError(code, message string) *DomainError {
	return NewDomainError(KindValidation, code, message)
}

// NewEligibilityError creates an eligibility error
func NewEligibilityError(code, message string) *DomainError {
	return NewDomainError(KindEligibility, code, message)
}

// NewNotFoundError creates a not-found error
func NewNotFoundError(code, message string) *DomainError {
	return NewDomainError(KindNotFound, code, message)
}

// Common domain errors
var (
	ErrNotFound = NewDomainError(KindNotFound, "NOT_FOUND", "Resource not found")
	ErrConflict = NewDomainError(KindConflict, "CONCURRENCY_CONFLICT", "Resource was modified by another process")
)

// KindOf returns the kind of err if it is a DomainError, KindInternal otherwise.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

// IsEligibility reports whether err is an eligibility error.
func IsEligibility(err error) bool {
	return KindOf(err) == KindEligibility
}

// IsConflict reports whether err is an optimistic-concurrency conflict.
func IsConflict(err error) bool {
	return KindOf(err) == KindConflict
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}
