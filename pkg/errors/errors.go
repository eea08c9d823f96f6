package errors

import (
	"fmt"
	"net/http"
	"runtime/debug"
)

// Error codes used across the application. The provider-origin codes
// (quota_exceeded, rate_limited, provider_error, provider_unavailable)
// classify failures coming back from chat and image providers.
const (
	CodeInvalidInput  = "invalid_input"
	CodeNotFound      = "not_found"
	CodeQuotaExceeded = "quota_exceeded"
	CodeRateLimited   = "rate_limited"
	CodeProviderError = "provider_error"
	CodeUnavailable   = "provider_unavailable"
	CodeStorageError  = "storage_error"
	CodeConfigError   = "config_error"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
	Stack      string `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// NewError creates a new application error
func NewError(statusCode int, code string, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
		Stack:      string(debug.Stack()),
	}
}

// NewInvalidInputError creates a 400 error for a violated caller contract
func NewInvalidInputError(message string) *AppError {
	return NewError(http.StatusBadRequest, CodeInvalidInput, message)
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(message string) *AppError {
	return NewError(http.StatusNotFound, CodeNotFound, message)
}

// NewQuotaExceededError creates an error for quota/billing provider failures
func NewQuotaExceededError(message string) *AppError {
	return NewError(http.StatusPaymentRequired, CodeQuotaExceeded, message)
}

// NewRateLimitedError creates an error for 429-class provider failures
func NewRateLimitedError(message string) *AppError {
	return NewError(http.StatusTooManyRequests, CodeRateLimited, message)
}

// NewProviderError creates an error for any other provider-originated failure
func NewProviderError(message string) *AppError {
	return NewError(http.StatusBadGateway, CodeProviderError, message)
}

// NewUnavailableError creates an error for a provider with no configured client
func NewUnavailableError(message string) *AppError {
	return NewError(http.StatusServiceUnavailable, CodeUnavailable, message)
}

// NewStorageError creates an error for database I/O failures
func NewStorageError(message string) *AppError {
	return NewError(http.StatusInternalServerError, CodeStorageError, message)
}

// NewConfigError creates an error for a missing credential in a strict path
func NewConfigError(message string) *AppError {
	return NewError(http.StatusInternalServerError, CodeConfigError, message)
}

// NewInternalServerError creates a 500 Internal Server Error
func NewInternalServerError(code string, message string) *AppError {
	return NewError(http.StatusInternalServerError, code, message)
}

// FromError converts any error into an AppError, preserving an existing one.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return NewInternalServerError("internal_error", err.Error())
}

// Code returns the application error code for err, or empty if not an AppError.
func Code(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return ""
}

// IsKind reports whether err is an AppError with the given code.
func IsKind(err error, code string) bool {
	return Code(err) == code
}
