package autherrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrMissingToken = apperror.New(
		apperror.CodeUnauthorized,
		"missing or invalid auth token",
		http.StatusUnauthorized,
	)
	ErrInvalidToken = apperror.New(
		apperror.CodeUnauthorized,
		"invalid or expired token",
		http.StatusUnauthorized,
	)
	ErrTokenExpired = apperror.New(
		apperror.CodeUnauthorized,
		"token has expired",
		http.StatusUnauthorized,
	)
	ErrForbidden = apperror.New(
		apperror.CodeForbidden,
		"forbidden",
		http.StatusForbidden,
	)
	ErrAdminOnly = apperror.New(
		apperror.CodeForbidden,
		"admin only",
		http.StatusForbidden,
	)
)
