package account

import (
	"errors"

	accounterrors "go-leave/internal/account/errors"
	"go-leave/internal/shared/apperror"

	"gorm.io/gorm"
)

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return accounterrors.ErrAccountNotFound
	}

	// pkey on id or uq_accounts_email; either way the caller is already registered.
	if apperror.IsUniqueViolation(err, "") {
		return accounterrors.ErrAccountExists
	}

	if apperror.IsUnavailable(err) {
		return apperror.Unavailable(err)
	}

	return err
}
