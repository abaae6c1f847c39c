package activity

import "time"

type ActivityLog struct {
	ID          int64     `gorm:"primaryKey"`
	ActorID     int64     `gorm:"column:actor_id;not null;index"`
	Action      string    `gorm:"column:action;not null"`
	Description string    `gorm:"column:description;not null"`
	TargetType  string    `gorm:"column:target_type;not null;index:idx_activity_target"`
	TargetID    int64     `gorm:"column:target_id;not null;index:idx_activity_target"`
	OwnerID     *int64    `gorm:"column:owner_id;index"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}
