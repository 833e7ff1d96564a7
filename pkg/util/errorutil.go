package util

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes surfaced by the lifecycle core. Every structured error
// carries exactly one of these.
const (
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeConfigurationError = "CONFIGURATION_ERROR"
	CodeRepositoryError    = "REPOSITORY_ERROR"
	CodeNotificationError  = "NOTIFICATION_ERROR"
	CodeWriteConflict      = "WRITE_CONFLICT"
	CodeNotFound           = "NOT_FOUND"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInternalError      = "INTERNAL_ERROR"
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

// NewInvalidTransition reports a state-machine move outside the allowed table.
func NewInvalidTransition(current, requested string) error {
	return NewDomainError(CodeInvalidTransition,
		fmt.Sprintf("transition from %s to %s is not allowed", current, requested),
		http.StatusConflict,
		map[string]any{"current_status": current, "requested_status": requested})
}

// NewConfigurationError reports malformed configuration data, such as a
// zero SLA budget.
func NewConfigurationError(message string, details map[string]any) error {
	return NewDomainError(CodeConfigurationError, message, http.StatusUnprocessableEntity, details)
}

// NewRepositoryError wraps a transient persistence failure.
func NewRepositoryError(err error) error {
	return &DomainError{
		Code:       CodeRepositoryError,
		Message:    "repository operation failed",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewNotificationError wraps a failed alert dispatch.
func NewNotificationError(err error) error {
	return &DomainError{
		Code:       CodeNotificationError,
		Message:    "notification dispatch failed",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewWriteConflict reports a lost concurrent read-modify-write.
func NewWriteConflict(resource string, details map[string]any) error {
	return NewDomainError(CodeWriteConflict,
		fmt.Sprintf("%s was modified concurrently", resource),
		http.StatusConflict, details)
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
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

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternalError,
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
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
