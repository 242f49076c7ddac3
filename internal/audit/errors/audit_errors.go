package auditerrors

import (
	"net/http"

	"go-leave/internal/shared/apperror"
)

var (
	ErrInvalidEvent = apperror.New(
		apperror.CodeInvalidInput,
		"lifecycle event is missing leave_request_id or event_type",
		http.StatusBadRequest,
	)
	ErrLeaveIDRequired = apperror.New(
		apperror.CodeInvalidInput,
		"leave request id is required",
		http.StatusBadRequest,
	)
)
