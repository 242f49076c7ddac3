package events

import "time"

const LeaveLifecycleTopic = "hr.leave.lifecycle.v1"

const (
	LeaveRequested = "leave.requested"
	LeaveReviewed  = "leave.reviewed"
	LeaveCancelled = "leave.cancelled"
)

// LeaveLifecycleEvent is published for every state change of a leave request.
type LeaveLifecycleEvent struct {
	EventType      string    `json:"event_type"`
	RequestID      string    `json:"request_id,omitempty"`
	LeaveRequestID string    `json:"leave_request_id"`
	OwnerID        string    `json:"owner_id"`
	ActorID        string    `json:"actor_id"`
	Category       string    `json:"category"`
	Status         string    `json:"status"`
	StartDate      string    `json:"start_date"`
	EndDate        string    `json:"end_date"`
	DurationDays   int       `json:"duration_days"`
	OccurredAt     time.Time `json:"occurred_at"`
}
