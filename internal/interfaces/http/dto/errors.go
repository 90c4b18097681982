package dto

import (
	"net/http"

	"github.com/goldshop/backend/internal/domain/shared"
)

// Transport-level error codes. Domain error codes (NOT_AVAILABLE,
// DEPOSIT_CLOSED, ...) pass through unchanged; only the HTTP status is
// derived, from the error kind.
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
)

// kindHTTPStatus maps domain error kinds to HTTP status codes.
var kindHTTPStatus = map[shared.ErrorKind]int{
	shared.KindValidation:  http.StatusBadRequest,
	shared.KindEligibility: http.StatusUnprocessableEntity,
	shared.KindConflict:    http.StatusConflict,
	shared.KindNotFound:    http.StatusNotFound,
	shared.KindInternal:    http.StatusInternalServerError,
}

// HTTPStatusForKind returns the HTTP status for a domain error kind.
// Unknown kinds map to 500.
func HTTPStatusForKind(kind shared.ErrorKind) int {
	if status, ok := kindHTTPStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}
