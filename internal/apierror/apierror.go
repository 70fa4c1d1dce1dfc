// Package apierror provides the standardized error contract for the workflow
// core. Every failed operation returns an *Error carrying one of the Kind
// values below; handlers translate kinds to HTTP statuses. Raw persistence
// errors never cross the service boundary.
package apierror

import "net/http"

// Kind classifies a failure. The kind, not the message, is the contract.
type Kind string

const (
	KindValidationFailed     Kind = "validation_failed"
	KindDuplicatePreparation Kind = "duplicate_preparation"
	KindUnauthorized         Kind = "unauthorized"
	KindNotFound             Kind = "not_found"
	KindInvalidTransition    Kind = "invalid_transition"
	KindMachineUnavailable   Kind = "machine_unavailable"
	KindAlreadyCompleted     Kind = "already_completed"
	KindRateLimited          Kind = "rate_limited"
	KindInternal             Kind = "internal"
)

// Error is the canonical error envelope for all failed operations.
type Error struct {
	Kind   Kind              `json:"kind"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (e *Error) Error() string { return e.Detail }

func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Validation wraps field-level messages from entity invariant violations.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidationFailed, Detail: "validation failed", Fields: fields}
}

func Unauthorized(detail string) *Error {
	return &Error{Kind: KindUnauthorized, Detail: detail}
}

func NotFound(detail string) *Error {
	return &Error{Kind: KindNotFound, Detail: detail}
}

func InvalidTransition(detail string) *Error {
	return &Error{Kind: KindInvalidTransition, Detail: detail}
}

func MachineUnavailable(detail string) *Error {
	return &Error{Kind: KindMachineUnavailable, Detail: detail}
}

func AlreadyCompleted(detail string) *Error {
	return &Error{Kind: KindAlreadyCompleted, Detail: detail}
}

// Internal hides an underlying persistence failure behind the one kind
// clients may see for it. The original error is logged at the call site.
func Internal(detail string) *Error {
	return &Error{Kind: KindInternal, Detail: detail}
}

// From returns err as *Error when it is one, or wraps it as Internal.
func From(err error) *Error {
	if e, ok := err.(*Error); ok {
		return e
	}
	return Internal("internal error")
}

// Status maps an error kind to its HTTP response status.
func Status(err *Error) int {
	switch err.Kind {
	case KindValidationFailed:
		return http.StatusUnprocessableEntity
	case KindUnauthorized:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindDuplicatePreparation, KindAlreadyCompleted:
		return http.StatusConflict
	case KindInvalidTransition, KindMachineUnavailable:
		return http.StatusBadRequest
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
