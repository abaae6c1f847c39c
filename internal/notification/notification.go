package notification

import (
	"time"

	notificationDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/notification"
)

type Type string

const (
	TypeLeaveSubmitted Type = "leave_submitted"
	TypeLeaveApproved  Type = "leave_approved"
	TypeLeaveRejected  Type = "leave_rejected"
	TypeLeaveCancelled Type = "leave_cancelled"
)

type Notification struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Type      Type       `json:"type"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	LeaveID   *int64     `json:"leave_id,omitempty"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

type ListFilter struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}

func (n *Notification) ToDataModel() *notificationDatamodel.Notification {
	return &notificationDatamodel.Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		LeaveID:   n.LeaveID,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

func FromDataModel(m *notificationDatamodel.Notification) *Notification {
	return &Notification{
		ID:        m.ID,
		UserID:    m.UserID,
		Type:      Type(m.Type),
		Title:     m.Title,
		Message:   m.Message,
		LeaveID:   m.LeaveID,
		ReadAt:    m.ReadAt,
		CreatedAt: m.CreatedAt,
	}
}

func FromDataModelSlice(models []notificationDatamodel.Notification) []*Notification {
	out := make([]*Notification, len(models))
	for i := range models {
		out[i] = FromDataModel(&models[i])
	}
	return out
}
