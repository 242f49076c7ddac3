package leave

import (
	"errors"

	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/shared/apperror"

	"github.com/jackc/pgx/v5/pgconn"
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
		return leaveerrors.ErrLeaveNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return leaveerrors.ErrOwnerNotRegistered
	}

	if apperror.IsUnavailable(err) {
		return apperror.Unavailable(err)
	}

	return err
}
