package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound is returned by storage when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned by storage when a write lost against a concurrent writer
	// or hit a uniqueness constraint.
	ErrConflict = errors.New("concurrent modification")
)

// Error codes returned to callers. Every failure maps to exactly one of them.
const (
	CodeValidation   = "validation_error"
	CodeNotFound     = "not_found"
	CodeForbidden    = "forbidden"
	CodeConflict     = "conflict"
	CodeUnauthorized = "unauthorized"
	CodeInternal     = "internal"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidation, message, http.StatusBadRequest, details)
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

// NewForbidden builds a forbidden error carrying the access policy reason code.
func NewForbidden(reason string) error {
	return NewDomainError(CodeForbidden, "access denied", http.StatusForbidden, map[string]any{"reason": reason})
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, ErrNotFound) {
		return NewNotFound("resource", nil).(*DomainError)
	}
	if errors.Is(err, ErrConflict) {
		return NewConflict("concurrent update detected", nil).(*DomainError)
	}
	return NewInternalError(err).(*DomainError)
}

// MapError returns err as a DomainError.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

// CodeOf returns the taxonomy code of err, or an empty string for nil.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	return ToDomainError(err).Code
}

// ReasonOf returns the forbidden reason carried by err, if any.
func ReasonOf(err error) string {
	de := ToDomainError(err)
	if de == nil || de.Details == nil {
		return ""
	}
	reason, _ := de.Details["reason"].(string)
	return reason
}
