package apperror

import (
	"fmt"
	"net/http"
)

var (
	ErrNotFound = New(
		CodeNotFound,
		"Resource not found",
		http.StatusNotFound,
	)

	ErrForbidden = New(
		CodeForbidden,
		"You do not have permission to access this resource",
		http.StatusForbidden,
	)

	ErrInternal = New(
		CodeInternalError,
		"Internal server error",
		http.StatusInternalServerError,
	)

	ErrUnauthorized = New(
		CodeUnauthorized,
		"Authentication is required",
		http.StatusUnauthorized,
	)

	ErrInvalidInput = New(
		CodeInvalidInput,
		"The provided input is invalid",
		http.StatusBadRequest,
	)

	ErrUnavailable = New(
		CodeServiceUnavailable,
		"Service temporarily unavailable",
		http.StatusServiceUnavailable,
	)
)

// RequiredField builds the error returned when a mandatory field is missing.
func RequiredField(field string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("%s is required", field), http.StatusBadRequest)
}

// InvalidField builds the error returned when a field fails validation.
func InvalidField(field string) *AppError {
	return New(CodeInvalidInput, fmt.Sprintf("%s is invalid", field), http.StatusBadRequest)
}

// Unavailable wraps a store or identity provider failure.
func Unavailable(err error) *AppError {
	return Wrap(err, CodeServiceUnavailable, ErrUnavailable.Message, http.StatusServiceUnavailable)
}
