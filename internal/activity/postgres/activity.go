package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal/access"
	"github.com/frahmantamala/leave-management/internal/activity"
	activityDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/activity"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, e *activity.Entry) error {
	m := e.ToDataModel()
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	e.ID = m.ID
	e.CreatedAt = m.CreatedAt
	return nil
}

func (r *ActivityRepository) List(ctx context.Context, scope access.Scope, filter activity.ListFilter) ([]*activity.Entry, int64, error) {
	q := r.db.WithContext(ctx).Model(&activityDatamodel.ActivityLog{})
	q = scope.Apply(q, "activity_logs.owner_id")

	if filter.TargetType != "" {
		q = q.Where("target_type = ?", string(filter.TargetType))
	}
	if filter.TargetID > 0 {
		q = q.Where("target_id = ?", filter.TargetID)
	}
	if filter.ActorID > 0 {
		q = q.Where("actor_id = ?", filter.ActorID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	var models []activityDatamodel.ActivityLog
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(filter.Offset).Find(&models).Error; err != nil {
		return nil, 0, err
	}
	return activity.FromDataModelSlice(models), total, nil
}

// LeaveResolver labels leave targets as "#id owner, category start..end".
type LeaveResolver struct {
	db *gorm.DB
}

func NewLeaveResolver(db *gorm.DB) *LeaveResolver {
	return &LeaveResolver{db: db}
}

func (r *LeaveResolver) Labels(ctx context.Context, ids []int64) (map[int64]string, error) {
	var rows []struct {
		ID        int64
		Name      string
		Category  string
		StartDate string
		EndDate   string
	}
	err := r.db.WithContext(ctx).
		Table("leaves").
		Select("leaves.id, users.name, leaves.category, leaves.start_date, leaves.end_date").
		Joins("JOIN users ON users.id = leaves.user_id").
		Where("leaves.id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[int64]string, len(rows))
	for _, row := range rows {
		out[row.ID] = fmt.Sprintf("#%d %s, %s %s..%s", row.ID, row.Name, row.Category, dateOnly(row.StartDate), dateOnly(row.EndDate))
	}
	return out, nil
}

// UserResolver labels user targets as "name <email>".
type UserResolver struct {
	db *gorm.DB
}

func NewUserResolver(db *gorm.DB) *UserResolver {
	return &UserResolver{db: db}
}

func (r *UserResolver) Labels(ctx context.Context, ids []int64) (map[int64]string, error) {
	var rows []struct {
		ID    int64
		Name  string
		Email string
	}
	err := r.db.WithContext(ctx).Table("users").Select("id, name, email").Where("id IN ?", ids).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[int64]string, len(rows))
	for _, row := range rows {
		out[row.ID] = fmt.Sprintf("%s <%s>", row.Name, row.Email)
	}
	return out, nil
}

// dates come back as "2026-10-19" from postgres and with a time part from sqlite.
func dateOnly(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}
