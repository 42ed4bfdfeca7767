// Package apperrors defines the error taxonomy shared by the service layer
// and the HTTP API, and the mapping from taxonomy to HTTP status/slug.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a stable slug identifying an error category, used both in the
// HTTP error envelope's error_code field and in log output.
type Code string

const (
	CodeDatabaseUnavailable  Code = "database_unavailable"
	CodeDatabaseError        Code = "database_error"
	CodeNotFound             Code = "not_found"
	CodeInvalidInput         Code = "invalid_input"
	CodeProviderNotConfig    Code = "provider_not_configured"
	CodeAuthFailed           Code = "auth_failed"
	CodeAuthTimeout          Code = "auth_timeout"
	CodeLLMError             Code = "llm_error"
	CodeToolExecutionFailed  Code = "tool_execution_failed"
	CodeToolPermissionDenied Code = "tool_permission_denied"
	CodeInternal             Code = "internal"
)

// statusByCode mirrors the status table in the external interface contract.
var statusByCode = map[Code]int{
	CodeInvalidInput:         http.StatusBadRequest,
	CodeProviderNotConfig:    http.StatusBadRequest,
	CodeAuthFailed:           http.StatusUnauthorized,
	CodeToolPermissionDenied: http.StatusForbidden,
	CodeNotFound:             http.StatusNotFound,
	CodeLLMError:             http.StatusBadGateway,
	CodeDatabaseUnavailable:  http.StatusServiceUnavailable,
	CodeAuthTimeout:          http.StatusGatewayTimeout,
	CodeInternal:             http.StatusInternalServerError,
	CodeDatabaseError:        http.StatusInternalServerError,
	CodeToolExecutionFailed:  http.StatusInternalServerError,
}

// Error is an application error carrying a stable Code alongside the usual
// wrapped cause, so the API layer can map it to a status/slug without
// string-matching messages.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error with no wrapped cause.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an Error with a wrapped cause.
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// StatusFor returns the HTTP status code for an error's Code, falling back
// to 500 for an unrecognized or absent code.
func StatusFor(err error) (int, Code) {
	var appErr *Error
	if errors.As(err, &appErr) {
		if status, ok := statusByCode[appErr.Code]; ok {
			return status, appErr.Code
		}
	}
	return http.StatusInternalServerError, CodeInternal
}

// Sentinel errors for cases where a full Error with message isn't needed,
// mirroring the service layer's errors.New/errors.Is idiom.
var (
	ErrNotFound             = errors.New("entity not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrProviderNotConfigured = errors.New("provider not configured")
	ErrToolPermissionDenied = errors.New("tool permission denied")
)
