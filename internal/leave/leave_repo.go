package leave

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, l *LeaveRequest) error
	FindByID(ctx context.Context, id string) (*LeaveRequest, error)
	FindByIDForUpdate(ctx context.Context, id string) (*LeaveRequest, error)
	FindAll(ctx context.Context, filter ListFilter) ([]LeaveRequest, error)
	DeletePending(ctx context.Context, id string) (int64, error)
	MarkReviewed(ctx context.Context, l *LeaveRequest) (int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	if r.tx != nil {
		db.Statement.ConnPool = r.tx
	}
	return db
}

func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	return r.conn(ctx).Create(l).Error
}

func (r *repository) FindByID(ctx context.Context, id string) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.conn(ctx).
		Where("id = ?", id).
		Take(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// FindByIDForUpdate row-locks the request until the surrounding transaction ends.
func (r *repository) FindByIDForUpdate(ctx context.Context, id string) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&l).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) FindAll(ctx context.Context, filter ListFilter) ([]LeaveRequest, error) {
	db := r.conn(ctx).Model(&LeaveRequest{})
	if filter.OwnerID != "" {
		db = db.Where("owner_id = ?", filter.OwnerID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}

	var items []LeaveRequest
	err := db.
		Order("created_at DESC").
		Order("id DESC").
		Find(&items).Error
	return items, err
}

func (r *repository) DeletePending(ctx context.Context, id string) (int64, error) {
	res := r.conn(ctx).
		Where("id = ? AND status = ?", id, StatusPending).
		Delete(&LeaveRequest{})
	return res.RowsAffected, res.Error
}

// MarkReviewed only transitions rows that are still pending.
func (r *repository) MarkReviewed(ctx context.Context, l *LeaveRequest) (int64, error) {
	res := r.conn(ctx).
		Model(&LeaveRequest{}).
		Where("id = ? AND status = ?", l.ID, StatusPending).
		Updates(map[string]any{
			"status":         l.Status,
			"reviewer_id":    l.ReviewerID,
			"reviewer_email": l.ReviewerEmail,
			"reviewed_at":    l.ReviewedAt,
			"admin_comment":  l.AdminComment,
		})
	return res.RowsAffected, res.Error
}

type statusCount struct {
	Status string
	Total  int64
}

func (r *repository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	var rows []statusCount
	err := r.conn(ctx).
		Model(&LeaveRequest{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Total
	}
	return out, nil
}
