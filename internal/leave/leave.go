package leave

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/leave-management/internal/calendar"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
)

type Category string

const (
	CategoryVacation          Category = "vacation"
	CategorySickSelfCertified Category = "sick_self_certified"
	CategorySickCertified     Category = "sick_certified"
	CategoryOtherAbsence      Category = "other_absence"
)

var Categories = []Category{
	CategoryVacation,
	CategorySickSelfCertified,
	CategorySickCertified,
	CategoryOtherAbsence,
}

func ParseCategory(s string) (Category, error) {
	switch c := Category(strings.ToLower(strings.TrimSpace(s))); c {
	case CategoryVacation, CategorySickSelfCertified, CategorySickCertified, CategoryOtherAbsence:
		return c, nil
	}
	return "", fmt.Errorf("unknown leave category %q", s)
}

// CountsAgainstBalance is true only for vacation; every other category is unlimited.
func (c Category) CountsAgainstBalance() bool {
	return c == CategoryVacation
}

// OnBehalfOnly marks categories a user can never submit for themself.
func (c Category) OnBehalfOnly() bool {
	return c == CategoryOtherAbsence
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown leave status %q", s)
}

var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected},
	StatusApproved: {StatusCancelled},
}

func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// HoldsBalance reports whether a leave in this status reserves allowance.
func (s Status) HoldsBalance() bool {
	return s == StatusPending || s == StatusApproved
}

// Blocks reports whether a leave in this status takes part in overlap detection.
func (s Status) Blocks() bool {
	return s != StatusRejected && s != StatusCancelled
}

type Action string

const (
	ActionSubmitted      Action = "submitted"
	ActionApproved       Action = "approved"
	ActionRejected       Action = "rejected"
	ActionCancelled      Action = "cancelled"
	ActionCreatedForUser Action = "created_for_user"
)

// actionFor maps a review target status to its history action.
func actionFor(next Status) Action {
	switch next {
	case StatusApproved:
		return ActionApproved
	case StatusRejected:
		return ActionRejected
	case StatusCancelled:
		return ActionCancelled
	}
	return Action(next)
}

type Leave struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	Category      Category   `json:"category"`
	StartDate     time.Time  `json:"start_date"`
	EndDate       time.Time  `json:"end_date"`
	DaysRequested int        `json:"days_requested"`
	Reason        *string    `json:"reason,omitempty"`
	Status        Status     `json:"status"`
	ReviewerID    *int64     `json:"reviewer_id,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`
	ReviewNotes   *string    `json:"review_notes,omitempty"`
	CreatedBy     int64      `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// MarshalJSON renders the leave dates as YYYY-MM-DD.
func (l *Leave) MarshalJSON() ([]byte, error) {
	type alias Leave
	return json.Marshal(struct {
		*alias
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}{
		alias:     (*alias)(l),
		StartDate: l.StartDate.Format(time.DateOnly),
		EndDate:   l.EndDate.Format(time.DateOnly),
	})
}

// Overlaps is the inclusive interval intersection test.
func (l *Leave) Overlaps(start, end time.Time) bool {
	return !l.StartDate.After(end) && !l.EndDate.Before(start)
}

type History struct {
	ID             int64           `json:"id"`
	LeaveID        int64           `json:"leave_id"`
	ActorID        int64           `json:"actor_id"`
	Action         Action          `json:"action"`
	PreviousStatus *Status         `json:"previous_status"`
	NewStatus      Status          `json:"new_status"`
	Notes          *string         `json:"notes,omitempty"`
	Metadata       json.RawMessage `json:"metadata,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func ToDataModel(l *Leave) *leaveDatamodel.Leave {
	return &leaveDatamodel.Leave{
		ID:            l.ID,
		UserID:        l.UserID,
		Category:      string(l.Category),
		StartDate:     l.StartDate,
		EndDate:       l.EndDate,
		DaysRequested: l.DaysRequested,
		Reason:        l.Reason,
		Status:        string(l.Status),
		ReviewerID:    l.ReviewerID,
		ReviewedAt:    l.ReviewedAt,
		ReviewNotes:   l.ReviewNotes,
		CreatedBy:     l.CreatedBy,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

func FromDataModel(l *leaveDatamodel.Leave) *Leave {
	return &Leave{
		ID:            l.ID,
		UserID:        l.UserID,
		Category:      Category(l.Category),
		StartDate:     calendar.Normalize(l.StartDate),
		EndDate:       calendar.Normalize(l.EndDate),
		DaysRequested: l.DaysRequested,
		Reason:        l.Reason,
		Status:        Status(l.Status),
		ReviewerID:    l.ReviewerID,
		ReviewedAt:    l.ReviewedAt,
		ReviewNotes:   l.ReviewNotes,
		CreatedBy:     l.CreatedBy,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

func FromDataModelSlice(rows []leaveDatamodel.Leave) []*Leave {
	out := make([]*Leave, len(rows))
	for i := range rows {
		out[i] = FromDataModel(&rows[i])
	}
	return out
}

func HistoryToDataModel(h *History) *leaveDatamodel.History {
	var prev *string
	if h.PreviousStatus != nil {
		s := string(*h.PreviousStatus)
		prev = &s
	}
	return &leaveDatamodel.History{
		ID:             h.ID,
		LeaveID:        h.LeaveID,
		ActorID:        h.ActorID,
		Action:         string(h.Action),
		PreviousStatus: prev,
		NewStatus:      string(h.NewStatus),
		Notes:          h.Notes,
		Metadata:       h.Metadata,
		CreatedAt:      h.CreatedAt,
	}
}

func HistoryFromDataModel(h *leaveDatamodel.History) *History {
	var prev *Status
	if h.PreviousStatus != nil {
		s := Status(*h.PreviousStatus)
		prev = &s
	}
	return &History{
		ID:             h.ID,
		LeaveID:        h.LeaveID,
		ActorID:        h.ActorID,
		Action:         Action(h.Action),
		PreviousStatus: prev,
		NewStatus:      Status(h.NewStatus),
		Notes:          h.Notes,
		Metadata:       h.Metadata,
		CreatedAt:      h.CreatedAt,
	}
}
