package audit

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded lifecycle transition of a leave request.
type Entry struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	LeaveRequestID string    `gorm:"type:varchar(64);not null;uniqueIndex:uq_leave_audit_event"`
	EventType      string    `gorm:"type:varchar(100);not null;uniqueIndex:uq_leave_audit_event"`
	OwnerID        string    `gorm:"type:varchar(128);not null"`
	ActorID        string    `gorm:"type:varchar(128);not null"`
	Category       string    `gorm:"type:varchar(20);not null"`
	Status         string    `gorm:"type:varchar(20);not null"`
	DurationDays   int       `gorm:"type:int;not null"`
	RequestID      *string   `gorm:"type:varchar(64)"`
	OccurredAt     time.Time `gorm:"not null"`
	RecordedAt     time.Time `gorm:"not null"`
}

func (Entry) TableName() string {
	return "leave_audit_trail"
}
