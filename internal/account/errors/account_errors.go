package accounterrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrAccountNotFound = apperror.New(
		apperror.CodeNotFound,
		"account not registered",
		http.StatusNotFound,
	)
	ErrAccountExists = apperror.New(
		apperror.CodeConflict,
		"account already registered",
		http.StatusConflict,
	)
	ErrInvalidRole = apperror.New(
		apperror.CodeInvalidInput,
		"role must be employee or admin",
		http.StatusBadRequest,
	)
	ErrEmailRequired = apperror.New(
		apperror.CodeInvalidInput,
		"email is required",
		http.StatusBadRequest,
	)
	ErrEmailMismatch = apperror.New(
		apperror.CodeInvalidInput,
		"email must match the authenticated identity",
		http.StatusBadRequest,
	)
)
