package leave

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

type LeaveRequest struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID    string    `gorm:"type:varchar(128);not null;index:idx_leave_requests_owner_created"`
	OwnerEmail string    `gorm:"type:varchar(255);not null"`

	Category     string    `gorm:"type:varchar(20);not null"`
	StartDate    time.Time `gorm:"type:date;not null"`
	EndDate      time.Time `gorm:"type:date;not null"`
	DurationDays int       `gorm:"type:int;not null"`
	Reason       string    `gorm:"type:text;not null"`

	Status        string     `gorm:"type:varchar(20);not null;default:'pending';index:idx_leave_requests_status"`
	ReviewerID    *string    `gorm:"type:varchar(128)"`
	ReviewerEmail *string    `gorm:"type:varchar(255)"`
	ReviewedAt    *time.Time `gorm:"type:timestamptz"`
	AdminComment  *string    `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;index:idx_leave_requests_owner_created,sort:desc"`
}

func validStatus(s string) bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}
