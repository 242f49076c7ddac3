package balanceerrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrAccountNotFound = apperror.New(
		apperror.CodeNotFound,
		"account not found",
		http.StatusNotFound,
	)
	ErrEmptyUpdate = apperror.New(
		apperror.CodeInvalidInput,
		"at least one of annual, sick or casual is required",
		http.StatusBadRequest,
	)
	ErrNegativeBalance = apperror.New(
		apperror.CodeInvalidInput,
		"balance values must be integers greater than or equal to 0",
		http.StatusBadRequest,
	)
	ErrBalanceTooLarge = apperror.New(
		apperror.CodeInvalidInput,
		"balance values must not exceed 2147483647",
		http.StatusBadRequest,
	)
	ErrInvalidAmount = apperror.New(
		apperror.CodeInvalidInput,
		"debit amount must be positive",
		http.StatusBadRequest,
	)
)
