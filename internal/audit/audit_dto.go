package audit

import "time"

type EntryResponse struct {
	EventType    string    `json:"event_type"`
	ActorID      string    `json:"actor_id"`
	Status       string    `json:"status"`
	Category     string    `json:"category"`
	DurationDays int       `json:"duration_days"`
	RequestID    string    `json:"request_id,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func mapToResponse(e Entry) EntryResponse {
	resp := EntryResponse{
		EventType:    e.EventType,
		ActorID:      e.ActorID,
		Status:       e.Status,
		Category:     e.Category,
		DurationDays: e.DurationDays,
		OccurredAt:   e.OccurredAt,
	}
	if e.RequestID != nil {
		resp.RequestID = *e.RequestID
	}
	return resp
}

func mapToListResponse(items []Entry) []EntryResponse {
	out := make([]EntryResponse, 0, len(items))
	for _, e := range items {
		out = append(out, mapToResponse(e))
	}
	return out
}
