package audit

import (
	"context"
	"strings"
	"time"

	auditerrors "go-leave/internal/audit/errors"
	"go-leave/internal/domain"
	"go-leave/internal/events"
	"go-leave/internal/shared/apperror"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	Record(ctx context.Context, event events.LeaveLifecycleEvent) error
	History(ctx context.Context, actor domain.Actor, leaveRequestID string) ([]EntryResponse, error)
}

type service struct {
	repo         Repository
	guard        domain.Guard
	storeTimeout time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

func NewService(repo Repository, guard domain.Guard, storeTimeout time.Duration, logger ...*zap.Logger) Service {
	l := zap.L().Named("audit.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit.service")
	}
	return &service{
		repo:         repo,
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

// Record stores event in the trail. Redelivered events are accepted and ignored.
func (s *service) Record(ctx context.Context, event events.LeaveLifecycleEvent) error {
	if strings.TrimSpace(event.LeaveRequestID) == "" || strings.TrimSpace(event.EventType) == "" {
		return auditerrors.ErrInvalidEvent
	}

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.now()
	}

	e := &Entry{
		ID:             uuid.New(),
		LeaveRequestID: event.LeaveRequestID,
		EventType:      event.EventType,
		OwnerID:        event.OwnerID,
		ActorID:        event.ActorID,
		Category:       event.Category,
		Status:         event.Status,
		DurationDays:   event.DurationDays,
		OccurredAt:     occurredAt.UTC(),
		RecordedAt:     s.now().UTC(),
	}
	if event.RequestID != "" {
		rid := event.RequestID
		e.RequestID = &rid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	inserted, err := s.repo.Record(ctx, e)
	if err != nil {
		if apperror.IsUnavailable(err) {
			return apperror.Unavailable(err)
		}
		return err
	}
	if !inserted {
		s.logger.Debug("lifecycle event already recorded",
			zap.String("leave_request_id", event.LeaveRequestID),
			zap.String("event_type", event.EventType),
		)
	}
	return nil
}

func (s *service) History(ctx context.Context, actor domain.Actor, leaveRequestID string) ([]EntryResponse, error) {
	if err := s.guard.RequireAdmin(actor); err != nil {
		return nil, err
	}
	leaveRequestID = strings.TrimSpace(leaveRequestID)
	if leaveRequestID == "" {
		return nil, auditerrors.ErrLeaveIDRequired
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	items, err := s.repo.ListByLeaveRequest(ctx, leaveRequestID)
	if err != nil {
		s.logger.Error("list audit trail failed", zap.String("leave_request_id", leaveRequestID), zap.Error(err))
		if apperror.IsUnavailable(err) {
			return nil, apperror.Unavailable(err)
		}
		return nil, err
	}
	return mapToListResponse(items), nil
}
