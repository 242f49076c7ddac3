package leave_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	autherrors "go-leave/internal/auth/errors"
	"go-leave/internal/balance"
	balanceMock "go-leave/internal/balance/mock"
	"go-leave/internal/domain"
	"go-leave/internal/events"
	"go-leave/internal/leave"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/messaging/kafka"
	kafkaMock "go-leave/internal/messaging/kafka/mock"
	"go-leave/internal/rbac"
	"go-leave/internal/shared/apperror"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type fakeLeaveRepository struct {
	createFn            func(ctx context.Context, l *leave.LeaveRequest) error
	findByIDFn          func(ctx context.Context, id string) (*leave.LeaveRequest, error)
	findByIDForUpdateFn func(ctx context.Context, id string) (*leave.LeaveRequest, error)
	findAllFn           func(ctx context.Context, filter leave.ListFilter) ([]leave.LeaveRequest, error)
	deletePendingFn     func(ctx context.Context, id string) (int64, error)
	markReviewedFn      func(ctx context.Context, l *leave.LeaveRequest) (int64, error)
	countByStatusFn     func(ctx context.Context) (map[string]int64, error)
}

func (f *fakeLeaveRepository) WithTx(*sql.Tx) leave.Repository { return f }

func (f *fakeLeaveRepository) Create(ctx context.Context, l *leave.LeaveRequest) error {
	if f.createFn != nil {
		return f.createFn(ctx, l)
	}
	return nil
}

func (f *fakeLeaveRepository) FindByID(ctx context.Context, id string) (*leave.LeaveRequest, error) {
	if f.findByIDFn != nil {
		return f.findByIDFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLeaveRepository) FindByIDForUpdate(ctx context.Context, id string) (*leave.LeaveRequest, error) {
	if f.findByIDForUpdateFn != nil {
		return f.findByIDForUpdateFn(ctx, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeLeaveRepository) FindAll(ctx context.Context, filter leave.ListFilter) ([]leave.LeaveRequest, error) {
	if f.findAllFn != nil {
		return f.findAllFn(ctx, filter)
	}
	return nil, nil
}

func (f *fakeLeaveRepository) DeletePending(ctx context.Context, id string) (int64, error) {
	if f.deletePendingFn != nil {
		return f.deletePendingFn(ctx, id)
	}
	return 1, nil
}

func (f *fakeLeaveRepository) MarkReviewed(ctx context.Context, l *leave.LeaveRequest) (int64, error) {
	if f.markReviewedFn != nil {
		return f.markReviewedFn(ctx, l)
	}
	return 1, nil
}

func (f *fakeLeaveRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	if f.countByStatusFn != nil {
		return f.countByStatusFn(ctx)
	}
	return map[string]int64{}, nil
}

var (
	// 2026-03-10 is "today" for every test below.
	fixedNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	defaults = balance.Allocation{Annual: 12, Sick: 10, Casual: 8}

	owner    = domain.Actor{ID: "u-1", Email: "jane@corp.test", Role: domain.RoleEmployee}
	stranger = domain.Actor{ID: "u-2", Email: "joe@corp.test", Role: domain.RoleEmployee}
	admin    = domain.Actor{ID: "a-1", Email: "boss@corp.test", Role: domain.RoleAdmin}
)

type leaveServiceDeps struct {
	db          *sql.DB
	sqlMock     sqlmock.Sqlmock
	service     leave.Service
	repo        *fakeLeaveRepository
	balanceRepo *balanceMock.MockRepository
	outbox      *kafkaMock.MockOutboxRepository
	redisMock   redismock.ClientMock
}

func setupLeaveServiceTest(t *testing.T, opts ...func(*leave.Options)) *leaveServiceDeps {
	t.Helper()
	ctrl := gomock.NewController(t)

	db, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	rdb, redisMock := redismock.NewClientMock()
	balanceRepo := balanceMock.NewMockRepository(ctrl)
	outbox := kafkaMock.NewMockOutboxRepository(ctrl)
	guard := rbac.NewService(nil, nil, 0)

	options := leave.Options{
		Outbox:       outbox,
		Cache:        rdb,
		Location:     time.UTC,
		StoreTimeout: time.Second,
		Now:          func() time.Time { return fixedNow },
	}
	for _, o := range opts {
		o(&options)
	}

	repo := &fakeLeaveRepository{}
	ledger := balance.NewService(balanceRepo, guard, defaults, time.Second)
	svc := leave.NewService(db, repo, ledger, guard, options)

	return &leaveServiceDeps{
		db:          db,
		sqlMock:     sqlMock,
		service:     svc,
		repo:        repo,
		balanceRepo: balanceRepo,
		outbox:      outbox,
		redisMock:   redisMock,
	}
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func (d *leaveServiceDeps) expectOutbox(t *testing.T, eventType string) {
	t.Helper()
	d.outbox.EXPECT().WithTx(gomock.Any()).Return(d.outbox)
	d.outbox.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e kafka.OutboxEvent) error {
		assert.Equal(t, eventType, e.EventType)
		assert.Equal(t, events.LeaveLifecycleTopic, e.Topic)
		assert.Equal(t, kafka.OutboxStatusPending, e.Status)

		var payload events.LeaveLifecycleEvent
		assert.NoError(t, json.Unmarshal(e.Payload, &payload))
		assert.Equal(t, eventType, payload.EventType)
		assert.Equal(t, e.AggregateID, payload.LeaveRequestID)
		return nil
	})
}

func (d *leaveServiceDeps) assertDone(t *testing.T) {
	t.Helper()
	assert.NoError(t, d.sqlMock.ExpectationsWereMet())
	assert.NoError(t, d.redisMock.ExpectationsWereMet())
}

func pendingRequest(category domain.Category, days int) *leave.LeaveRequest {
	start := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	return &leave.LeaveRequest{
		ID:           uuid.New(),
		OwnerID:      owner.ID,
		OwnerEmail:   owner.Email,
		Category:     string(category),
		StartDate:    start,
		EndDate:      start.AddDate(0, 0, days-1),
		DurationDays: days,
		Reason:       "family trip",
		Status:       leave.StatusPending,
		CreatedAt:    fixedNow,
	}
}

func TestLeaveService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)

		var saved *leave.LeaveRequest
		deps.repo.createFn = func(_ context.Context, l *leave.LeaveRequest) error {
			saved = l
			return nil
		}
		expectTx(t, deps.sqlMock, true)
		deps.expectOutbox(t, events.LeaveRequested)
		deps.redisMock.ExpectDel(leave.StatsCacheKey).SetVal(1)

		resp, err := deps.service.Create(ctx, owner, leave.CreateLeaveRequest{
			Category:  "annual",
			StartDate: "2026-03-10",
			EndDate:   "2026-03-12",
			Reason:    "  family trip ",
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, resp.DurationDays)
		assert.Equal(t, leave.StatusPending, resp.Status)
		assert.Equal(t, owner.ID, resp.OwnerID)
		assert.Equal(t, owner.Email, resp.OwnerEmail)
		assert.Equal(t, "family trip", resp.Reason)
		assert.Equal(t, fixedNow, resp.CreatedAt)
		assert.NotNil(t, saved)
		assert.NotEqual(t, uuid.Nil, saved.ID)
		deps.assertDone(t)
	})

	t.Run("success single day lasts one day", func(t *testing.T) {
		deps := setupLeaveServiceTest(t, func(o *leave.Options) { o.Outbox = nil })
		expectTx(t, deps.sqlMock, true)
		deps.redisMock.ExpectDel(leave.StatsCacheKey).SetVal(1)

		resp, err := deps.service.Create(ctx, owner, leave.CreateLeaveRequest{
			Category: "unpaid", StartDate: "2026-03-20", EndDate: "2026-03-20", Reason: "errand",
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, resp.DurationDays)
		deps.assertDone(t)
	})

	validation := []struct {
		name string
		req  leave.CreateLeaveRequest
		want error
	}{
		{"negative unknown category", leave.CreateLeaveRequest{Category: "vacation", StartDate: "2026-03-10", EndDate: "2026-03-10", Reason: "x"}, leaveerrors.ErrInvalidCategory},
		{"negative blank reason", leave.CreateLeaveRequest{Category: "sick", StartDate: "2026-03-10", EndDate: "2026-03-10", Reason: "   "}, leaveerrors.ErrReasonRequired},
		{"negative bad date format", leave.CreateLeaveRequest{Category: "sick", StartDate: "03/10/2026", EndDate: "2026-03-10", Reason: "x"}, leaveerrors.ErrInvalidDateFormat},
		{"negative end before start", leave.CreateLeaveRequest{Category: "casual", StartDate: "2026-03-12", EndDate: "2026-03-11", Reason: "x"}, leaveerrors.ErrInvalidDateRange},
		{"negative start in the past", leave.CreateLeaveRequest{Category: "annual", StartDate: "2026-03-09", EndDate: "2026-03-12", Reason: "x"}, leaveerrors.ErrStartInPast},
	}
	for _, tc := range validation {
		t.Run(tc.name, func(t *testing.T) {
			deps := setupLeaveServiceTest(t)

			_, err := deps.service.Create(ctx, owner, tc.req)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, apperror.CodeInvalidInput, apperror.CodeOf(err))
			deps.assertDone(t)
		})
	}

	t.Run("negative today follows the server timezone", func(t *testing.T) {
		// 23:30 UTC on the 10th is already the 11th at UTC+7.
		deps := setupLeaveServiceTest(t, func(o *leave.Options) {
			o.Location = time.FixedZone("UTC+7", 7*3600)
			o.Now = func() time.Time { return time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC) }
		})

		_, err := deps.service.Create(ctx, owner, leave.CreateLeaveRequest{
			Category: "annual", StartDate: "2026-03-10", EndDate: "2026-03-10", Reason: "x",
		})
		assert.ErrorIs(t, err, leaveerrors.ErrStartInPast)
	})

	t.Run("negative owner not registered", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.repo.createFn = func(context.Context, *leave.LeaveRequest) error {
			return &pgconn.PgError{Code: "23503", ConstraintName: "leave_requests_owner_id_fkey"}
		}
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.Create(ctx, owner, leave.CreateLeaveRequest{
			Category: "annual", StartDate: "2026-03-10", EndDate: "2026-03-10", Reason: "x",
		})
		assert.ErrorIs(t, err, leaveerrors.ErrOwnerNotRegistered)
		deps.assertDone(t)
	})

	t.Run("negative store timeout is unavailable", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.repo.createFn = func(context.Context, *leave.LeaveRequest) error {
			return context.DeadlineExceeded
		}
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.Create(ctx, owner, leave.CreateLeaveRequest{
			Category: "annual", StartDate: "2026-03-10", EndDate: "2026-03-10", Reason: "x",
		})
		assert.ErrorIs(t, err, apperror.ErrUnavailable)
		deps.assertDone(t)
	})
}

func TestLeaveService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("employee is restricted to own requests", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.repo.findAllFn = func(_ context.Context, filter leave.ListFilter) ([]leave.LeaveRequest, error) {
			assert.Equal(t, owner.ID, filter.OwnerID)
			return []leave.LeaveRequest{*pendingRequest(domain.CategoryAnnual, 2)}, nil
		}

		resp, err := deps.service.List(ctx, owner, leave.ListFilter{OwnerID: stranger.ID})
		assert.NoError(t, err)
		assert.Len(t, resp, 1)
	})

	t.Run("admin filters freely", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.repo.findAllFn = func(_ context.Context, filter leave.ListFilter) ([]leave.LeaveRequest, error) {
			assert.Equal(t, stranger.ID, filter.OwnerID)
			assert.Equal(t, leave.StatusApproved, filter.Status)
			return nil, nil
		}

		resp, err := deps.service.List(ctx, admin, leave.ListFilter{OwnerID: stranger.ID, Status: "APPROVED"})
		assert.NoError(t, err)
		assert.Empty(t, resp)
	})

	t.Run("negative unknown status", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)

		_, err := deps.service.List(ctx, admin, leave.ListFilter{Status: "cancelled"})
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidStatusFilter)
	})
}

func TestLeaveService_Get(t *testing.T) {
	ctx := context.Background()
	l := pendingRequest(domain.CategorySick, 1)

	deps := setupLeaveServiceTest(t)
	deps.repo.findByIDFn = func(_ context.Context, id string) (*leave.LeaveRequest, error) {
		if id == l.ID.String() {
			return l, nil
		}
		return nil, gorm.ErrRecordNotFound
	}

	resp, err := deps.service.Get(ctx, owner, l.ID.String())
	assert.NoError(t, err)
	assert.Equal(t, l.ID.String(), resp.ID)

	_, err = deps.service.Get(ctx, admin, l.ID.String())
	assert.NoError(t, err)

	_, err = deps.service.Get(ctx, stranger, l.ID.String())
	assert.ErrorIs(t, err, autherrors.ErrForbidden)

	_, err = deps.service.Get(ctx, owner, uuid.NewString())
	assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)

	_, err = deps.service.Get(ctx, owner, "not-a-uuid")
	assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
}

func TestLeaveService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("success owner cancels pending", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		l := pendingRequest(domain.CategoryAnnual, 2)
		deps.repo.findByIDFn = func(context.Context, string) (*leave.LeaveRequest, error) { return l, nil }

		var deleted string
		deps.repo.deletePendingFn = func(_ context.Context, id string) (int64, error) {
			deleted = id
			return 1, nil
		}
		expectTx(t, deps.sqlMock, true)
		deps.expectOutbox(t, events.LeaveCancelled)
		deps.redisMock.ExpectDel(leave.StatsCacheKey).SetVal(1)

		assert.NoError(t, deps.service.Cancel(ctx, owner, l.ID.String()))
		assert.Equal(t, l.ID.String(), deleted)
		deps.assertDone(t)
	})

	t.Run("success admin cancels someone else's request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		l := pendingRequest(domain.CategoryAnnual, 2)
		deps.repo.findByIDFn = func(context.Context, string) (*leave.LeaveRequest, error) { return l, nil }
		expectTx(t, deps.sqlMock, true)
		deps.expectOutbox(t, events.LeaveCancelled)
		deps.redisMock.ExpectDel(leave.StatsCacheKey).SetVal(1)

		assert.NoError(t, deps.service.Cancel(ctx, admin, l.ID.String()))
		deps.assertDone(t)
	})

	t.Run("negative foreign employee", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		l := pendingRequest(domain.CategoryAnnual, 2)
		deps.repo.findByIDFn = func(context.Context, string) (*leave.LeaveRequest, error) { return l, nil }
		deps.repo.deletePendingFn = func(context.Context, string) (int64, error) {
			t.Fatal("must not delete")
			return 0, nil
		}

		err := deps.service.Cancel(ctx, stranger, l.ID.String())
		assert.ErrorIs(t, err, autherrors.ErrForbidden)
		deps.assertDone(t)
	})

	t.Run("negative already reviewed", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		l := pendingRequest(domain.CategoryAnnual, 2)
		l.Status = leave.StatusApproved
		deps.repo.findByIDFn = func(context.Context, string) (*leave.LeaveRequest, error) { return l, nil }

		err := deps.service.Cancel(ctx, owner, l.ID.String())
		assert.ErrorIs(t, err, leaveerrors.ErrNotPending)
		assert.Equal(t, apperror.CodeConflict, apperror.CodeOf(err))
		deps.assertDone(t)
	})

	t.Run("negative reviewed between read and delete", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		l := pendingRequest(domain.CategoryAnnual, 2)
		deps.repo.findByIDFn = func(context.Context, string) (*leave.LeaveRequest, error) { return l, nil }
		deps.repo.deletePendingFn = func(context.Context, string) (int64, error) { return 0, nil }
		expectTx(t, deps.sqlMock, false)

		err := deps.service.Cancel(ctx, owner, l.ID.String())
		assert.ErrorIs(t, err, leaveerrors.ErrNotPending)
		deps.assertDone(t)
	})

	t.Run("negative missing", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)

		err := deps.service.Cancel(ctx, owner, uuid.NewString())
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
	})
}

func TestLeaveService_Review(t *testing.T) {
	ctx := context.Background()

	t.Run("success approve debits the ledger in the same transaction", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		l := pendingRequest(domain.CategoryAnnual, 3)
		deps.repo.findByIDForUpdateFn = func(context.Context, string) (*leave.LeaveRequest, error) { return l, nil }

		var reviewed *leave.LeaveRequest
		deps.repo.markReviewedFn = func(_ context.Context, r *leave.LeaveRequest) (int64, error) {
			reviewed = r
			return 1, nil
		}

		expectTx(t, deps.sqlMock, true)
		deps.balanceRepo.EXPECT().WithTx(gomock.Not(gomock.Nil())).Return(deps.balanceRepo)
		deps.balanceRepo.EXPECT().Debit(gomock.Any(), owner.ID, domain.CategoryAnnual, 3, defaults).
			Return(balance.Balance{AccountID: owner.ID, Annual: 9, Sick: 10, Casual: 8}, nil)
		deps.expectOutbox(t, events.LeaveReviewed)
		deps.redisMock.ExpectDel(leave.StatsCacheKey).SetVal(1)

		resp, err := deps.service.Review(ctx, admin, l.ID.String(), leave.ReviewLeaveRequest{Decision: "approve", AdminComment: " enjoy "})
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		assert.Equal(t, admin.ID, *resp.ReviewerID)
		assert.Equal(t, admin.Email, *resp.ReviewerEmail)
		assert.Equal(t, "enjoy", *resp.AdminComment)
		assert.Equal(t, fixedNow, *resp.ReviewedAt)
		assert.Equal(t, leave.StatusApproved, reviewed.Status)
		deps.assertDone(t)
	})

	t.Run("success approve beyond balance clamps at zero", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		l := pendingRequest(domain.CategorySick, 15)
		deps.repo.findByIDForUpdateFn = func(context.Context, string) (*leave.LeaveRequest, error) { return l, nil }

		expectTx(t, deps.sqlMock, true)
		deps.balanceRepo.EXPECT().WithTx(gomock.Any()).Return(deps.balanceRepo)
		deps.balanceRepo.EXPECT().Debit(gomock.Any(), owner.ID, domain.CategorySick, 15, defaults).
			Return(balance.Balance{AccountID: owner.ID, Annual: 12, Sick: 0, Casual: 8}, nil)
		deps.expectOutbox(t, events.LeaveReviewed)
		deps.redisMock.ExpectDel(leave.StatsCacheKey).SetVal(1)

		resp, err := deps.service.Review(ctx, admin, l.ID.String(), leave.ReviewLeaveRequest{Decision: "approve"})
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		assert.Nil(t, resp.AdminComment)
		deps.assertDone(t)
	})

	t.Run("success approve unpaid leaves the ledger alone", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		l := pendingRequest(domain.CategoryUnpaid, 5)
		deps.repo.findByIDForUpdateFn = func(context.Context, string) (*leave.LeaveRequest, error) { return l, nil }

		expectTx(t, deps.sqlMock, true)
		deps.expectOutbox(t, events.LeaveReviewed)
		deps.redisMock.ExpectDel(leave.StatsCacheKey).SetVal(1)

		resp, err := deps.service.Review(ctx, admin, l.ID.String(), leave.ReviewLeaveRequest{Decision: "approve"})
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusApproved, resp.Status)
		deps.assertDone(t)
	})

	t.Run("success reject does not debit", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		l := pendingRequest(domain.CategoryCasual, 2)
		deps.repo.findByIDForUpdateFn = func(context.Context, string) (*leave.LeaveRequest, error) { return l, nil }

		expectTx(t, deps.sqlMock, true)
		deps.expectOutbox(t, events.LeaveReviewed)
		deps.redisMock.ExpectDel(leave.StatsCacheKey).SetVal(1)

		resp, err := deps.service.Review(ctx, admin, l.ID.String(), leave.ReviewLeaveRequest{Decision: "reject", AdminComment: "busy week"})
		assert.NoError(t, err)
		assert.Equal(t, leave.StatusRejected, resp.Status)
		assert.Equal(t, "busy week", *resp.AdminComment)
		deps.assertDone(t)
	})

	t.Run("negative second review conflicts", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		l := pendingRequest(domain.CategoryAnnual, 3)
		l.Status = leave.StatusApproved
		deps.repo.findByIDForUpdateFn = func(context.Context, string) (*leave.LeaveRequest, error) { return l, nil }
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.Review(ctx, admin, l.ID.String(), leave.ReviewLeaveRequest{Decision: "reject"})
		assert.ErrorIs(t, err, leaveerrors.ErrNotPending)
		deps.assertDone(t)
	})

	t.Run("negative employee cannot review", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)

		_, err := deps.service.Review(ctx, owner, uuid.NewString(), leave.ReviewLeaveRequest{Decision: "approve"})
		assert.ErrorIs(t, err, autherrors.ErrAdminOnly)
		deps.assertDone(t)
	})

	t.Run("negative unknown decision", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)

		_, err := deps.service.Review(ctx, admin, uuid.NewString(), leave.ReviewLeaveRequest{Decision: "maybe"})
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDecision)
	})

	t.Run("negative missing request", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.Review(ctx, admin, uuid.NewString(), leave.ReviewLeaveRequest{Decision: "approve"})
		assert.ErrorIs(t, err, leaveerrors.ErrLeaveNotFound)
		deps.assertDone(t)
	})

	t.Run("negative debit failure rolls back", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		l := pendingRequest(domain.CategoryAnnual, 3)
		deps.repo.findByIDForUpdateFn = func(context.Context, string) (*leave.LeaveRequest, error) { return l, nil }
		deps.repo.markReviewedFn = func(context.Context, *leave.LeaveRequest) (int64, error) {
			t.Fatal("status must not change when the debit fails")
			return 0, nil
		}

		expectTx(t, deps.sqlMock, false)
		deps.balanceRepo.EXPECT().WithTx(gomock.Any()).Return(deps.balanceRepo)
		deps.balanceRepo.EXPECT().Debit(gomock.Any(), owner.ID, domain.CategoryAnnual, 3, defaults).
			Return(balance.Balance{}, context.DeadlineExceeded)

		_, err := deps.service.Review(ctx, admin, l.ID.String(), leave.ReviewLeaveRequest{Decision: "approve"})
		assert.ErrorIs(t, err, apperror.ErrUnavailable)
		deps.assertDone(t)
	})

	t.Run("negative lost the race on the conditional update", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		l := pendingRequest(domain.CategoryUnpaid, 1)
		deps.repo.findByIDForUpdateFn = func(context.Context, string) (*leave.LeaveRequest, error) { return l, nil }
		deps.repo.markReviewedFn = func(context.Context, *leave.LeaveRequest) (int64, error) { return 0, nil }
		expectTx(t, deps.sqlMock, false)

		_, err := deps.service.Review(ctx, admin, l.ID.String(), leave.ReviewLeaveRequest{Decision: "approve"})
		assert.ErrorIs(t, err, leaveerrors.ErrNotPending)
		deps.assertDone(t)
	})
}

func TestLeaveService_Stats(t *testing.T) {
	ctx := context.Background()

	t.Run("cache miss counts and stores", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.repo.countByStatusFn = func(context.Context) (map[string]int64, error) {
			return map[string]int64{leave.StatusPending: 2, leave.StatusApproved: 5, leave.StatusRejected: 1}, nil
		}

		want := leave.StatsResponse{Pending: 2, Approved: 5, Rejected: 1, Total: 8}
		payload, _ := json.Marshal(want)
		deps.redisMock.ExpectGet(leave.StatsCacheKey).RedisNil()
		deps.redisMock.ExpectSet(leave.StatsCacheKey, payload, 30*time.Second).SetVal("OK")

		got, err := deps.service.Stats(ctx, admin)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
		deps.assertDone(t)
	})

	t.Run("cache hit skips the store", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)
		deps.repo.countByStatusFn = func(context.Context) (map[string]int64, error) {
			t.Fatal("store must not be queried")
			return nil, nil
		}
		deps.redisMock.ExpectGet(leave.StatsCacheKey).SetVal(`{"pending":1,"approved":0,"rejected":0,"total":1}`)

		got, err := deps.service.Stats(ctx, admin)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), got.Total)
		deps.assertDone(t)
	})

	t.Run("negative employee", func(t *testing.T) {
		deps := setupLeaveServiceTest(t)

		_, err := deps.service.Stats(ctx, owner)
		assert.ErrorIs(t, err, autherrors.ErrAdminOnly)
	})
}
