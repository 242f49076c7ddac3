package leave

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync/atomic"
	"time"

	"go-leave/internal/balance"
	"go-leave/internal/domain"
	"go-leave/internal/events"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/shared/contextutil"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	StatsCacheKey = "leave:stats"
	statsCacheTTL = 30 * time.Second

	secondsPerDay = 24 * 60 * 60
)

type Service interface {
	Create(ctx context.Context, actor domain.Actor, req CreateLeaveRequest) (LeaveResponse, error)
	List(ctx context.Context, actor domain.Actor, filter ListFilter) ([]LeaveResponse, error)
	Get(ctx context.Context, actor domain.Actor, id string) (LeaveResponse, error)
	Cancel(ctx context.Context, actor domain.Actor, id string) error
	Review(ctx context.Context, actor domain.Actor, id string, req ReviewLeaveRequest) (LeaveResponse, error)
	Stats(ctx context.Context, actor domain.Actor) (StatsResponse, error)
}

// Options carries the optional collaborators of the leave service.
type Options struct {
	Outbox       kafka.OutboxRepository
	Cache        redis.Cmdable
	Location     *time.Location
	StoreTimeout time.Duration
	Now          func() time.Time
}

type service struct {
	db           *sql.DB
	repo         Repository
	ledger       balance.Service
	guard        domain.Guard
	outbox       kafka.OutboxRepository
	rdb          redis.Cmdable
	sf           *singleflight.Group
	statsGen     atomic.Uint64
	loc          *time.Location
	storeTimeout time.Duration
	now          func() time.Time
	logger       *zap.Logger
}

func NewService(db *sql.DB, repo Repository, ledger balance.Service, guard domain.Guard, opts Options, logger ...*zap.Logger) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		db:           db,
		repo:         repo,
		ledger:       ledger,
		guard:        guard,
		outbox:       opts.Outbox,
		rdb:          opts.Cache,
		sf:           &singleflight.Group{},
		loc:          loc,
		storeTimeout: opts.StoreTimeout,
		now:          now,
		logger:       l,
	}
}

func (s *service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.storeTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.storeTimeout)
}

func (s *service) Create(ctx context.Context, actor domain.Actor, req CreateLeaveRequest) (LeaveResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create leave requested",
		zap.String("request_id", rid),
		zap.String("actor_id", actor.ID),
		zap.String("category", req.Category),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	category, startDate, endDate, reason, err := s.validateCreateRequest(req)
	if err != nil {
		s.logger.Warn("create leave validation failed", zap.String("actor_id", actor.ID), zap.Error(err))
		return LeaveResponse{}, err
	}

	l := &LeaveRequest{
		ID:           uuid.New(),
		OwnerID:      actor.ID,
		OwnerEmail:   actor.Email,
		Category:     string(category),
		StartDate:    startDate,
		EndDate:      endDate,
		DurationDays: durationDays(startDate, endDate),
		Reason:       reason,
		Status:       StatusPending,
		CreatedAt:    s.now().UTC(),
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, mapRepositoryError(err)
	}
	defer tx.Rollback()

	if err := s.repo.WithTx(tx).Create(ctx, l); err != nil {
		s.logger.Error("create leave persist failed", zap.String("actor_id", actor.ID), zap.Error(err))
		return LeaveResponse{}, mapRepositoryError(err)
	}

	if err := s.enqueue(ctx, tx, events.LeaveRequested, *l, actor); err != nil {
		s.logger.Error("create leave outbox persist failed", zap.String("leave_id", l.ID.String()), zap.Error(err))
		return LeaveResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create leave commit failed", zap.String("request_id", rid), zap.Error(err))
		return LeaveResponse{}, mapRepositoryError(err)
	}
	s.invalidateStats(ctx)

	s.logger.Info("create leave success",
		zap.String("request_id", rid),
		zap.String("leave_id", l.ID.String()),
		zap.String("owner_id", l.OwnerID),
		zap.Int("duration_days", l.DurationDays),
	)
	return mapToResponse(*l), nil
}

// List restricts non-admins to their own requests; a foreign owner filter is ignored.
func (s *service) List(ctx context.Context, actor domain.Actor, filter ListFilter) ([]LeaveResponse, error) {
	status := strings.ToLower(strings.TrimSpace(filter.Status))
	if status != "" && !validStatus(status) {
		return nil, leaveerrors.ErrInvalidStatusFilter
	}

	ownerID := strings.TrimSpace(filter.OwnerID)
	if !actor.IsAdmin() {
		ownerID = actor.ID
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	items, err := s.repo.FindAll(ctx, ListFilter{OwnerID: ownerID, Status: status})
	if err != nil {
		s.logger.Error("list leave failed", zap.String("actor_id", actor.ID), zap.Error(err))
		return nil, mapRepositoryError(err)
	}
	return mapToListResponse(items), nil
}

func (s *service) Get(ctx context.Context, actor domain.Actor, id string) (LeaveResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return LeaveResponse{}, mapRepositoryError(err)
	}
	if err := s.guard.RequireSelfOrAdmin(actor, l.OwnerID); err != nil {
		return LeaveResponse{}, err
	}
	return mapToResponse(*l), nil
}

// Cancel removes a pending request. The delete itself re-checks the status so a
// concurrent review wins over a cancel.
func (s *service) Cancel(ctx context.Context, actor domain.Actor, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return leaveerrors.ErrLeaveNotFound
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapRepositoryError(err)
	}
	if err := s.guard.RequireSelfOrAdmin(actor, l.OwnerID); err != nil {
		s.logger.Warn("cancel leave forbidden", zap.String("leave_id", id), zap.String("actor_id", actor.ID))
		return err
	}
	if l.Status != StatusPending {
		return leaveerrors.ErrNotPending
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("cancel leave begin tx failed", zap.Error(err))
		return mapRepositoryError(err)
	}
	defer tx.Rollback()

	affected, err := s.repo.WithTx(tx).DeletePending(ctx, id)
	if err != nil {
		s.logger.Error("cancel leave delete failed", zap.String("leave_id", id), zap.Error(err))
		return mapRepositoryError(err)
	}
	if affected == 0 {
		return leaveerrors.ErrNotPending
	}

	if err := s.enqueue(ctx, tx, events.LeaveCancelled, *l, actor); err != nil {
		s.logger.Error("cancel leave outbox persist failed", zap.String("leave_id", id), zap.Error(err))
		return mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("cancel leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return mapRepositoryError(err)
	}
	s.invalidateStats(ctx)

	s.logger.Info("cancel leave success", zap.String("leave_id", id), zap.String("actor_id", actor.ID))
	return nil
}

// Review locks the request, debits the ledger on approval and records the decision
// in one transaction.
func (s *service) Review(ctx context.Context, actor domain.Actor, id string, req ReviewLeaveRequest) (LeaveResponse, error) {
	if err := s.guard.RequireAdmin(actor); err != nil {
		return LeaveResponse{}, err
	}

	decision := strings.ToLower(strings.TrimSpace(req.Decision))
	if decision != DecisionApprove && decision != DecisionReject {
		return LeaveResponse{}, leaveerrors.ErrInvalidDecision
	}
	if _, err := uuid.Parse(id); err != nil {
		return LeaveResponse{}, leaveerrors.ErrLeaveNotFound
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("review leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, mapRepositoryError(err)
	}
	defer tx.Rollback()

	qtx := s.repo.WithTx(tx)

	l, err := qtx.FindByIDForUpdate(ctx, id)
	if err != nil {
		return LeaveResponse{}, mapRepositoryError(err)
	}
	if l.Status != StatusPending {
		s.logger.Warn("review leave not pending", zap.String("leave_id", id), zap.String("status", l.Status))
		return LeaveResponse{}, leaveerrors.ErrNotPending
	}

	if decision == DecisionApprove {
		if _, err := s.ledger.Debit(ctx, tx, l.OwnerID, domain.Category(l.Category), l.DurationDays); err != nil {
			s.logger.Error("review leave debit failed", zap.String("leave_id", id), zap.Error(err))
			return LeaveResponse{}, err
		}
		l.Status = StatusApproved
	} else {
		l.Status = StatusRejected
	}

	reviewedAt := s.now().UTC()
	reviewerID := actor.ID
	reviewerEmail := actor.Email
	l.ReviewerID = &reviewerID
	l.ReviewerEmail = &reviewerEmail
	l.ReviewedAt = &reviewedAt
	if comment := strings.TrimSpace(req.AdminComment); comment != "" {
		l.AdminComment = &comment
	}

	affected, err := qtx.MarkReviewed(ctx, l)
	if err != nil {
		s.logger.Error("review leave update failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, mapRepositoryError(err)
	}
	if affected == 0 {
		return LeaveResponse{}, leaveerrors.ErrNotPending
	}

	if err := s.enqueue(ctx, tx, events.LeaveReviewed, *l, actor); err != nil {
		s.logger.Error("review leave outbox persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("review leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, mapRepositoryError(err)
	}
	s.invalidateStats(ctx)

	s.logger.Info("review leave success",
		zap.String("leave_id", id),
		zap.String("status", l.Status),
		zap.String("reviewer_id", actor.ID),
	)
	return mapToResponse(*l), nil
}

func (s *service) Stats(ctx context.Context, actor domain.Actor) (StatsResponse, error) {
	if err := s.guard.RequireAdmin(actor); err != nil {
		return StatsResponse{}, err
	}

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, StatsCacheKey).Result(); err == nil {
			var resp StatsResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(StatsCacheKey, func() (any, error) {
		gen := s.statsGen.Load()
		ctx, cancel := s.withTimeout(ctx)
		defer cancel()

		counts, err := s.repo.CountByStatus(ctx)
		if err != nil {
			return nil, mapRepositoryError(err)
		}

		resp := StatsResponse{
			Pending:  counts[StatusPending],
			Approved: counts[StatusApproved],
			Rejected: counts[StatusRejected],
		}
		resp.Total = resp.Pending + resp.Approved + resp.Rejected

		if s.rdb != nil {
			if payload, err := json.Marshal(resp); err == nil {
				if err := s.rdb.Set(ctx, StatsCacheKey, payload, statsCacheTTL).Err(); err != nil {
					s.logger.Warn("cache leave stats failed", zap.Error(err))
				}
				// a write committed while counting; its Del may have run before this Set
				if s.statsGen.Load() != gen {
					s.dropStats(ctx)
				}
			}
		}
		return resp, nil
	})
	if err != nil {
		s.logger.Error("leave stats failed", zap.Error(err))
		return StatsResponse{}, err
	}

	return v.(StatsResponse), nil
}

func (s *service) enqueue(ctx context.Context, tx *sql.Tx, eventType string, l LeaveRequest, actor domain.Actor) error {
	if s.outbox == nil {
		return nil
	}

	rid := contextutil.GetRequestID(ctx)
	event, err := kafka.NewOutboxEvent(rid, "leave_request", l.ID.String(), eventType, events.LeaveLifecycleTopic, events.LeaveLifecycleEvent{
		EventType:      eventType,
		RequestID:      rid,
		LeaveRequestID: l.ID.String(),
		OwnerID:        l.OwnerID,
		ActorID:        actor.ID,
		Category:       l.Category,
		Status:         l.Status,
		StartDate:      l.StartDate.Format(dateLayout),
		EndDate:        l.EndDate.Format(dateLayout),
		DurationDays:   l.DurationDays,
		OccurredAt:     s.now().UTC(),
	})
	if err != nil {
		return err
	}
	return s.outbox.WithTx(tx).Create(ctx, event)
}

func (s *service) invalidateStats(ctx context.Context) {
	s.statsGen.Add(1)
	if s.rdb == nil {
		return
	}
	s.dropStats(ctx)
}

func (s *service) dropStats(ctx context.Context) {
	if err := s.rdb.Del(ctx, StatsCacheKey).Err(); err != nil {
		s.logger.Warn("invalidate leave stats cache failed", zap.Error(err))
	}
}

func (s *service) validateCreateRequest(req CreateLeaveRequest) (domain.Category, time.Time, time.Time, string, error) {
	category, ok := domain.ParseCategory(req.Category)
	if !ok {
		return "", time.Time{}, time.Time{}, "", leaveerrors.ErrInvalidCategory
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return "", time.Time{}, time.Time{}, "", leaveerrors.ErrReasonRequired
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return "", time.Time{}, time.Time{}, "", err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return "", time.Time{}, time.Time{}, "", err
	}
	if endDate.Before(startDate) {
		return "", time.Time{}, time.Time{}, "", leaveerrors.ErrInvalidDateRange
	}
	if startDate.Before(serverToday(s.now(), s.loc)) {
		return "", time.Time{}, time.Time{}, "", leaveerrors.ErrStartInPast
	}

	return category, startDate, endDate, reason, nil
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

// serverToday is the calendar day of now in loc, as UTC midnight like parsed dates.
func serverToday(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// durationDays counts both ends of the range; both dates are UTC midnights.
func durationDays(start, end time.Time) int {
	return int((end.Unix()-start.Unix())/secondsPerDay) + 1
}
