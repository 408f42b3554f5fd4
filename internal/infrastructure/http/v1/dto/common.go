// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import "stockroom/internal/core/apperror"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// FromAppError converts an AppError into its response body.
func FromAppError(err *apperror.AppError) ErrorResponse {
	return ErrorResponse{Code: err.Code, Message: err.Message, Details: err.Details}
}
