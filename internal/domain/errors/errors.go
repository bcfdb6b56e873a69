// Package errors defines the application error taxonomy. Every failure a
// caller can act on is one of the typed errors below; the transport layer
// maps them to HTTP without the core knowing about status codes' semantics.
package errors

import (
	"net/http"

	"shopauth/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// ErrBadCredentials covers wrong password, unknown email, and inactive
	// accounts alike. Deliberately generic so login cannot be used to
	// enumerate which of the three it was.
	ErrBadCredentials = NewBaseError(
		http.StatusUnauthorized,
		"BAD_CREDENTIALS",
		"Invalid email or password",
		"",
	)

	// ErrAccountLocked is distinguishable from ErrBadCredentials because the
	// caller has already proven credential knowledge by reaching that branch.
	ErrAccountLocked = NewBaseError(
		http.StatusLocked,
		"ACCOUNT_LOCKED",
		"Account is locked",
		"",
	)

	// ErrInvalidToken covers unknown, inactive, and expired refresh tokens as
	// well as access-token signature and expiry failures.
	ErrInvalidToken = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_TOKEN",
		"Invalid or expired token",
		"",
	)

	// ErrDuplicateResource is returned on registration email/username collisions.
	ErrDuplicateResource = NewBaseError(
		http.StatusConflict,
		"DUPLICATE_RESOURCE",
		"Email or username is already taken",
		"",
	)

	// ErrInvalidOrExpiredCode signals a missing, consumed, or expired
	// OAuth2 one-time code.
	ErrInvalidOrExpiredCode = NewBaseError(
		http.StatusUnauthorized,
		"INVALID_OR_EXPIRED_CODE",
		"Authorization code is invalid or has expired",
		"",
	)

	// ErrResourceNotFound is returned when an admin operation references a
	// user that does not exist.
	ErrResourceNotFound = NewBaseError(
		http.StatusNotFound,
		"RESOURCE_NOT_FOUND",
		"Requested resource was not found",
		"",
	)

	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Request validation failed",
		"",
	)

	ErrForbidden = NewBaseError(
		http.StatusForbidden,
		"FORBIDDEN",
		"Access denied",
		"",
	)

	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal server error",
		"",
	)
)

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "Database execution failed"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}
