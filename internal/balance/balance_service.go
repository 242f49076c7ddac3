package balance

import (
	"context"
	"database/sql"
	"errors"
	"time"

	balanceerrors "go-leave/internal/balance/errors"
	"go-leave/internal/domain"
	"go-leave/internal/shared/apperror"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service interface {
	Read(ctx context.Context, actor domain.Actor, accountID string) (BalanceResponse, error)
	Set(ctx context.Context, actor domain.Actor, accountID string, req SetBalanceRequest) (BalanceResponse, error)
	Debit(ctx context.Context, tx *sql.Tx, accountID string, category domain.Category, days int) (BalanceResponse, error)
	Effective(ctx context.Context, accountIDs []string) (map[string]Allocation, error)
}

type service struct {
	repo         Repository
	guard        domain.Guard
	defaults     Allocation
	storeTimeout time.Duration
	logger       *zap.Logger
}

func NewService(repo Repository, guard domain.Guard, defaults Allocation, storeTimeout time.Duration, logger ...*zap.Logger) Service {
	l := zap.L().Named("balance.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("balance.service")
	}
	return &service{
		repo:         repo,
		guard:        guard,
		defaults:     defaults,
		storeTimeout: storeTimeout,
		logger:       l,
	}
}

func (s *service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

func (s *service) Read(ctx context.Context, actor domain.Actor, accountID string) (BalanceResponse, error) {
	if err := s.guard.RequireSelfOrAdmin(actor, accountID); err != nil {
		return BalanceResponse{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.ensureAccount(ctx, accountID); err != nil {
		return BalanceResponse{}, err
	}

	b, err := s.repo.FindByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return defaultResponse(accountID, s.defaults), nil
		}
		s.logger.Error("read balance failed", zap.String("account_id", accountID), zap.Error(err))
		return BalanceResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*b), nil
}

func (s *service) Set(ctx context.Context, actor domain.Actor, accountID string, req SetBalanceRequest) (BalanceResponse, error) {
	if err := s.guard.RequireAdmin(actor); err != nil {
		return BalanceResponse{}, err
	}

	patch := Patch{Annual: req.Annual, Sick: req.Sick, Casual: req.Casual}
	if patch.Empty() {
		return BalanceResponse{}, balanceerrors.ErrEmptyUpdate
	}
	for _, v := range []*int{patch.Annual, patch.Sick, patch.Casual} {
		if v == nil {
			continue
		}
		if *v < 0 {
			return BalanceResponse{}, balanceerrors.ErrNegativeBalance
		}
		if *v > MaxBalanceDays {
			return BalanceResponse{}, balanceerrors.ErrBalanceTooLarge
		}
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.ensureAccount(ctx, accountID); err != nil {
		return BalanceResponse{}, err
	}

	b, err := s.repo.Set(ctx, accountID, patch, s.defaults)
	if err != nil {
		s.logger.Error("set balance failed", zap.String("account_id", accountID), zap.Error(err))
		return BalanceResponse{}, mapRepositoryError(err)
	}

	s.logger.Info("balance overwritten",
		zap.String("account_id", accountID),
		zap.String("admin_id", actor.ID),
		zap.Int("annual", b.Annual),
		zap.Int("sick", b.Sick),
		zap.Int("casual", b.Casual),
	)
	return mapToResponse(b), nil
}

// Debit is only called by the leave review flow. It never fails on insufficient balance.
// tx may be nil, in which case the statement runs on its own.
func (s *service) Debit(ctx context.Context, tx *sql.Tx, accountID string, category domain.Category, days int) (BalanceResponse, error) {
	if !category.Ledgered() {
		s.logger.Debug("debit skipped for non-ledger category", zap.String("category", string(category)))
		return BalanceResponse{AccountID: accountID}, nil
	}
	if days <= 0 {
		return BalanceResponse{}, balanceerrors.ErrInvalidAmount
	}

	repo := s.repo
	if tx != nil {
		repo = repo.WithTx(tx)
	}

	b, err := repo.Debit(ctx, accountID, category, days, s.defaults)
	if err != nil {
		s.logger.Error("debit balance failed",
			zap.String("account_id", accountID),
			zap.String("category", string(category)),
			zap.Int("days", days),
			zap.Error(err),
		)
		return BalanceResponse{}, mapRepositoryError(err)
	}

	s.logger.Info("balance debited",
		zap.String("account_id", accountID),
		zap.String("category", string(category)),
		zap.Int("days", days),
		zap.Int("remaining", b.Allocation().Get(category)),
	)
	return mapToResponse(b), nil
}

// Effective returns the balance each account would read, defaults included.
func (s *service) Effective(ctx context.Context, accountIDs []string) (map[string]Allocation, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	rows, err := s.repo.FindByAccountIDs(ctx, accountIDs)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	out := make(map[string]Allocation, len(accountIDs))
	for _, id := range accountIDs {
		out[id] = s.defaults
	}
	for _, b := range rows {
		out[b.AccountID] = b.Allocation()
	}
	return out, nil
}

func (s *service) ensureAccount(ctx context.Context, accountID string) error {
	exists, err := s.repo.AccountExists(ctx, accountID)
	if err != nil {
		return mapRepositoryError(err)
	}
	if !exists {
		return balanceerrors.ErrAccountNotFound
	}
	return nil
}

func mapRepositoryError(err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return balanceerrors.ErrAccountNotFound
	}
	if apperror.IsUnavailable(err) {
		return apperror.Unavailable(err)
	}
	return err
}
