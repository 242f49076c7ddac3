package account

import (
	"context"
	"strings"
	"time"

	accounterrors "go-leave/internal/account/errors"
	"go-leave/internal/balance"
	"go-leave/internal/domain"

	"go.uber.org/zap"
)

type Service interface {
	Register(ctx context.Context, actor domain.Actor, req RegisterRequest) (AccountResponse, error)
	Me(ctx context.Context, actor domain.Actor) (AccountResponse, error)
	List(ctx context.Context, actor domain.Actor) ([]AccountWithBalanceResponse, error)
}

type service struct {
	repo         Repository
	balances     balance.Service
	guard        domain.Guard
	storeTimeout time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

func NewService(repo Repository, balances balance.Service, guard domain.Guard, storeTimeout time.Duration, logger ...*zap.Logger) Service {
	l := zap.L().Named("account.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("account.service")
	}
	return &service{
		repo:         repo,
		balances:     balances,
		guard:        guard,
		storeTimeout: storeTimeout,
		now:          time.Now,
		logger:       l,
	}
}

func (s *service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

// Register records the caller's profile. The persisted role is the one the admin policy
// resolved at authentication; the requested role is only validated.
func (s *service) Register(ctx context.Context, actor domain.Actor, req RegisterRequest) (AccountResponse, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return AccountResponse{}, accounterrors.ErrEmailRequired
	}
	if _, ok := domain.ParseRole(req.Role); !ok {
		return AccountResponse{}, accounterrors.ErrInvalidRole
	}
	if !strings.EqualFold(email, strings.TrimSpace(actor.Email)) {
		s.logger.Warn("register email mismatch", zap.String("actor_id", actor.ID))
		return AccountResponse{}, accounterrors.ErrEmailMismatch
	}

	role := actor.Role
	if role == "" {
		role = domain.RoleEmployee
	}

	a := &Account{
		ID:             actor.ID,
		Email:          strings.ToLower(email),
		Role:           string(role),
		FullName:       optional(req.FullName),
		Phone:          optional(req.Phone),
		Department:     optional(req.Department),
		EmployeeNumber: optional(req.EmployeeID),
		CreatedAt:      s.now().UTC(),
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.repo.Create(ctx, a); err != nil {
		s.logger.Warn("register account failed", zap.String("actor_id", actor.ID), zap.Error(err))
		return AccountResponse{}, mapRepositoryError(err)
	}

	s.logger.Info("account registered",
		zap.String("account_id", a.ID),
		zap.String("role", a.Role),
	)
	return mapToResponse(*a), nil
}

func (s *service) Me(ctx context.Context, actor domain.Actor) (AccountResponse, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	a, err := s.repo.FindByID(ctx, actor.ID)
	if err != nil {
		return AccountResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*a), nil
}

func (s *service) List(ctx context.Context, actor domain.Actor) ([]AccountWithBalanceResponse, error) {
	if err := s.guard.RequireAdmin(actor); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	accounts, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("list accounts failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}

	ids := make([]string, 0, len(accounts))
	for _, a := range accounts {
		ids = append(ids, a.ID)
	}

	balances, err := s.balances.Effective(ctx, ids)
	if err != nil {
		s.logger.Error("list account balances failed", zap.Error(err))
		return nil, err
	}

	out := make([]AccountWithBalanceResponse, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, AccountWithBalanceResponse{
			AccountResponse: mapToResponse(a),
			Balance:         balances[a.ID],
		})
	}
	return out, nil
}
