package leaveerrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrInvalidCategory = apperror.New(
		apperror.CodeInvalidInput,
		"category must be one of annual, sick, casual, unpaid",
		http.StatusBadRequest,
	)
	ErrReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"reason is required",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"end_date must not be before start_date",
		http.StatusBadRequest,
	)
	ErrStartInPast = apperror.New(
		apperror.CodeInvalidInput,
		"start_date cannot be in the past",
		http.StatusBadRequest,
	)
	ErrInvalidStatusFilter = apperror.New(
		apperror.CodeInvalidInput,
		"status must be one of pending, approved, rejected",
		http.StatusBadRequest,
	)
	ErrInvalidDecision = apperror.New(
		apperror.CodeInvalidInput,
		"decision must be approve or reject",
		http.StatusBadRequest,
	)
	ErrOwnerNotRegistered = apperror.New(
		apperror.CodeInvalidInput,
		"register your account before requesting leave",
		http.StatusBadRequest,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave request not found",
		http.StatusNotFound,
	)
	ErrNotPending = apperror.New(
		apperror.CodeConflict,
		"leave request is no longer pending",
		http.StatusConflict,
	)
)
