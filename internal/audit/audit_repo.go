package audit

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Record(ctx context.Context, e *Entry) (bool, error)
	ListByLeaveRequest(ctx context.Context, leaveRequestID string) ([]Entry, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Record inserts e unless the same event was already recorded for the request.
// The bool is false for a redelivered event.
func (r *repository) Record(ctx context.Context, e *Entry) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "leave_request_id"}, {Name: "event_type"}},
			DoNothing: true,
		}).
		Create(e)
	return res.RowsAffected > 0, res.Error
}

func (r *repository) ListByLeaveRequest(ctx context.Context, leaveRequestID string) ([]Entry, error) {
	var items []Entry
	err := r.db.WithContext(ctx).
		Where("leave_request_id = ?", leaveRequestID).
		Order("occurred_at ASC").
		Find(&items).Error
	return items, err
}
