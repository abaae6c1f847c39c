package activity

import (
	"fmt"
	"time"

	activityDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/activity"
)

type TargetType string

const (
	TargetLeave TargetType = "leave"
	TargetUser  TargetType = "user"
)

// Target is a tagged reference to the entity an activity is about.
type Target struct {
	Type TargetType `json:"type"`
	ID   int64      `json:"id"`
}

func LeaveTarget(id int64) Target { return Target{Type: TargetLeave, ID: id} }
func UserTarget(id int64) Target  { return Target{Type: TargetUser, ID: id} }

func (t Target) String() string {
	return fmt.Sprintf("%s#%d", t.Type, t.ID)
}

type Entry struct {
	ID          int64     `json:"id"`
	ActorID     int64     `json:"actor_id"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	Target      Target    `json:"target"`
	TargetLabel string    `json:"target_label,omitempty"`
	OwnerID     *int64    `json:"owner_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type ListFilter struct {
	TargetType TargetType
	TargetID   int64
	ActorID    int64
	Limit      int
	Offset     int
}

func (e *Entry) ToDataModel() *activityDatamodel.ActivityLog {
	return &activityDatamodel.ActivityLog{
		ID:          e.ID,
		ActorID:     e.ActorID,
		Action:      e.Action,
		Description: e.Description,
		TargetType:  string(e.Target.Type),
		TargetID:    e.Target.ID,
		OwnerID:     e.OwnerID,
		CreatedAt:   e.CreatedAt,
	}
}

func FromDataModel(m *activityDatamodel.ActivityLog) *Entry {
	return &Entry{
		ID:          m.ID,
		ActorID:     m.ActorID,
		Action:      m.Action,
		Description: m.Description,
		Target:      Target{Type: TargetType(m.TargetType), ID: m.TargetID},
		OwnerID:     m.OwnerID,
		CreatedAt:   m.CreatedAt,
	}
}

func FromDataModelSlice(models []activityDatamodel.ActivityLog) []*Entry {
	out := make([]*Entry, len(models))
	for i := range models {
		out[i] = FromDataModel(&models[i])
	}
	return out
}
