package rbac

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go-leave/internal/auth"
	autherrors "go-leave/internal/auth/errors"
	"go-leave/internal/domain"
	"go-leave/internal/rbac/infra"
	"go-leave/internal/shared/apperror"

	"github.com/casbin/casbin/v2"
	"go.uber.org/zap"
)

type Service interface {
	Authenticate(ctx context.Context, credential string) (domain.Actor, error)
	RequireSelfOrAdmin(actor domain.Actor, ownerID string) error
	RequireAdmin(actor domain.Actor) error
	Enforce(actor domain.Actor, resource, action string) (bool, error)
}

type service struct {
	provider auth.Provider
	enforcer *casbin.Enforcer
	timeout  time.Duration
	mu       sync.Mutex
	logger   *zap.Logger
}

func NewService(provider auth.Provider, enforcer *casbin.Enforcer, timeout time.Duration, logger ...*zap.Logger) Service {
	l := zap.L().Named("rbac.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.service")
	}
	return &service{
		provider: provider,
		enforcer: enforcer,
		timeout:  timeout,
		logger:   l,
	}
}

type verifyResult struct {
	identity auth.Identity
	err      error
}

func (s *service) Authenticate(ctx context.Context, credential string) (domain.Actor, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return domain.Actor{}, autherrors.ErrMissingToken
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	done := make(chan verifyResult, 1)
	go func() {
		id, err := s.provider.Verify(ctx, credential)
		done <- verifyResult{identity: id, err: err}
	}()

	var res verifyResult
	select {
	case <-ctx.Done():
		s.logger.Warn("identity provider timed out", zap.Error(ctx.Err()))
		return domain.Actor{}, apperror.Unavailable(ctx.Err())
	case res = <-done:
	}

	if res.err != nil {
		if apperror.IsUnavailable(res.err) {
			s.logger.Warn("identity provider unavailable", zap.Error(res.err))
			return domain.Actor{}, apperror.Unavailable(res.err)
		}
		var appErr *apperror.AppError
		if errors.As(res.err, &appErr) {
			return domain.Actor{}, appErr
		}
		return domain.Actor{}, autherrors.ErrInvalidToken.WithCause(res.err)
	}

	role, err := s.resolveRole(res.identity)
	if err != nil {
		return domain.Actor{}, err
	}

	return domain.Actor{
		ID:    res.identity.Subject,
		Email: res.identity.Email,
		Role:  role,
	}, nil
}

func (s *service) resolveRole(id auth.Identity) (domain.Role, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, subject := range []string{infra.IDSubject(id.Subject), infra.EmailSubject(id.Email)} {
		ok, err := s.enforcer.HasRoleForUser(subject, string(domain.RoleAdmin))
		if err != nil {
			s.logger.Error("resolve role failed", zap.String("subject", subject), zap.Error(err))
			return "", err
		}
		if ok {
			return domain.RoleAdmin, nil
		}
	}
	return domain.RoleEmployee, nil
}

func (s *service) RequireSelfOrAdmin(actor domain.Actor, ownerID string) error {
	if actor.IsAdmin() || (actor.ID != "" && actor.ID == ownerID) {
		return nil
	}
	return autherrors.ErrForbidden
}

func (s *service) RequireAdmin(actor domain.Actor) error {
	if actor.IsAdmin() {
		return nil
	}
	return autherrors.ErrAdminOnly
}

func (s *service) Enforce(actor domain.Actor, resource, action string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	allowed, err := s.enforcer.Enforce(string(actor.Role), resource, action)
	if err != nil {
		s.logger.Error("rbac enforce failed",
			zap.String("actor_id", actor.ID),
			zap.String("resource", resource),
			zap.String("action", action),
			zap.Error(err),
		)
		return false, err
	}

	s.logger.Debug("rbac enforce result",
		zap.String("actor_id", actor.ID),
		zap.String("role", string(actor.Role)),
		zap.String("resource", resource),
		zap.String("action", action),
		zap.Bool("allowed", allowed),
	)
	return allowed, nil
}
