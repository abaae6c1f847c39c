package leave

import (
	"encoding/json"
	"time"
)

type Leave struct {
	ID            int64      `gorm:"primaryKey"`
	UserID        int64      `gorm:"column:user_id;not null;index"`
	Category      string     `gorm:"column:category;not null"`
	StartDate     time.Time  `gorm:"column:start_date;type:date;not null"`
	EndDate       time.Time  `gorm:"column:end_date;type:date;not null"`
	DaysRequested int        `gorm:"column:days_requested;not null"`
	Reason        *string    `gorm:"column:reason"`
	Status        string     `gorm:"column:status;not null;index"`
	ReviewerID    *int64     `gorm:"column:reviewer_id"`
	ReviewedAt    *time.Time `gorm:"column:reviewed_at"`
	ReviewNotes   *string    `gorm:"column:review_notes"`
	CreatedBy     int64      `gorm:"column:created_by;not null"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Leave) TableName() string {
	return "leaves"
}

type History struct {
	ID             int64           `gorm:"primaryKey"`
	LeaveID        int64           `gorm:"column:leave_id;not null;index"`
	ActorID        int64           `gorm:"column:actor_id;not null"`
	Action         string          `gorm:"column:action;not null"`
	PreviousStatus *string         `gorm:"column:previous_status"`
	NewStatus      string          `gorm:"column:new_status;not null"`
	Notes          *string         `gorm:"column:notes"`
	Metadata       json.RawMessage `gorm:"column:metadata"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (History) TableName() string {
	return "leave_histories"
}
