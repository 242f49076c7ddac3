package leave

import (
	"time"
)

const dateLayout = "2006-01-02"

type CreateLeaveRequest struct {
	Category  string `json:"category" binding:"required"`
	StartDate string `json:"start_date" binding:"required"`
	EndDate   string `json:"end_date" binding:"required"`
	Reason    string `json:"reason" binding:"required"`
}

type ReviewLeaveRequest struct {
	Decision     string `json:"decision" binding:"required,oneof=approve reject"`
	AdminComment string `json:"admin_comment" binding:"max=1000"`
}

type ListFilter struct {
	OwnerID string `form:"owner_id"`
	Status  string `form:"status"`
}

type LeaveResponse struct {
	ID            string     `json:"id"`
	OwnerID       string     `json:"owner_id"`
	OwnerEmail    string     `json:"owner_email"`
	Category      string     `json:"category"`
	StartDate     string     `json:"start_date"`
	EndDate       string     `json:"end_date"`
	DurationDays  int        `json:"duration_days"`
	Reason        string     `json:"reason"`
	Status        string     `json:"status"`
	ReviewerID    *string    `json:"reviewer_id,omitempty"`
	ReviewerEmail *string    `json:"reviewer_email,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	AdminComment  *string    `json:"admin_comment,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type StatsResponse struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Total    int64 `json:"total"`
}

func mapToResponse(l LeaveRequest) LeaveResponse {
	return LeaveResponse{
		ID:            l.ID.String(),
		OwnerID:       l.OwnerID,
		OwnerEmail:    l.OwnerEmail,
		Category:      l.Category,
		StartDate:     l.StartDate.Format(dateLayout),
		EndDate:       l.EndDate.Format(dateLayout),
		DurationDays:  l.DurationDays,
		Reason:        l.Reason,
		Status:        l.Status,
		ReviewerID:    l.ReviewerID,
		ReviewerEmail: l.ReviewerEmail,
		ReviewedAt:    l.ReviewedAt,
		AdminComment:  l.AdminComment,
		CreatedAt:     l.CreatedAt,
	}
}

func mapToListResponse(items []LeaveRequest) []LeaveResponse {
	out := make([]LeaveResponse, 0, len(items))
	for _, l := range items {
		out = append(out, mapToResponse(l))
	}
	return out
}
