// Package apperror defines the error type returned across layers and its HTTP mapping.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"
	CodeStorage  = "STORAGE_ERROR"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Business rule violations (422)
	CodeBusinessRule = "BUSINESS_RULE_VIOLATION"
	CodeLineRejected = "LINE_REJECTED"

	// Receiving workflow conflicts (409)
	CodeEditInProgress     = "EDIT_IN_PROGRESS"
	CodeInvalidEditState   = "INVALID_EDIT_STATE"
	CodeSubmissionInFlight = "SUBMISSION_IN_FLIGHT"
	CodeConflict           = "CONFLICT"
	CodeDuplicate          = "DUPLICATE_ENTRY"

	// Upstream failures (502)
	CodeSubmissionFailed = "SUBMISSION_FAILED"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewLineRejected is returned when a receiving line fails its invariants.
// Callers attach per-field and cross-field issues as details.
func NewLineRejected(message string) *AppError {
	return NewBusinessRule(CodeLineRejected, message)
}

// NewEditInProgress is returned when a second item is selected while
// another one is still being edited.
func NewEditInProgress(itemRef string) *AppError {
	return &AppError{
		Code:       CodeEditInProgress,
		Message:    "Finish or cancel the item being edited before selecting another one",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"itemRef": itemRef},
	}
}

// NewInvalidEditState is returned when an action does not apply to the current slot state.
func NewInvalidEditState(action, state string) *AppError {
	return &AppError{
		Code:       CodeInvalidEditState,
		Message:    fmt.Sprintf("cannot %s while slot is %s", action, state),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"action": action, "state": state},
	}
}

// NewSubmissionInFlight is returned while a receipt submission has not resolved yet.
func NewSubmissionInFlight(sessionID string) *AppError {
	return &AppError{
		Code:       CodeSubmissionInFlight,
		Message:    "Receipt submission is in progress",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"sessionId": sessionID},
	}
}

// NewSubmissionFailed wraps an error returned by the receipt-creation collaborator.
func NewSubmissionFailed(err error) *AppError {
	return &AppError{
		Code:       CodeSubmissionFailed,
		Message:    "Receipt could not be created. The session was kept, please retry.",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

// NewStorage wraps a persistence failure of session state.
func NewStorage(err error) *AppError {
	return &AppError{
		Code:       CodeStorage,
		Message:    "Session state could not be saved",
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}
