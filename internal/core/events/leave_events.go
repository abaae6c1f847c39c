package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeLeaveSubmitted = "leave.submitted"
	EventTypeLeaveApproved  = "leave.approved"
	EventTypeLeaveRejected  = "leave.rejected"
	EventTypeLeaveCancelled = "leave.cancelled"
)

// LeaveEventTypes lists every leave transition event, in lifecycle order.
var LeaveEventTypes = []string{
	EventTypeLeaveSubmitted,
	EventTypeLeaveApproved,
	EventTypeLeaveRejected,
	EventTypeLeaveCancelled,
}

type LeavePayload struct {
	LeaveID        int64     `json:"leave_id"`
	OwnerID        int64     `json:"owner_id"`
	OwnerName      string    `json:"owner_name"`
	OwnerManagerID *int64    `json:"owner_manager_id,omitempty"`
	ActorID        int64     `json:"actor_id"`
	ActorName      string    `json:"actor_name"`
	Category       string    `json:"category"`
	Status         string    `json:"status"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	Days           int       `json:"days"`
	Notes          string    `json:"notes,omitempty"`
	OnBehalf       bool      `json:"on_behalf"`
}

type LeaveEvent struct {
	BaseEvent
	LeavePayload
}

func NewLeaveEvent(eventType string, p LeavePayload) *LeaveEvent {
	return &LeaveEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"leave_id":   p.LeaveID,
				"owner_id":   p.OwnerID,
				"actor_id":   p.ActorID,
				"category":   p.Category,
				"status":     p.Status,
				"start_date": p.StartDate.Format(time.DateOnly),
				"end_date":   p.EndDate.Format(time.DateOnly),
				"days":       p.Days,
				"on_behalf":  p.OnBehalf,
			},
		},
		LeavePayload: p,
	}
}
