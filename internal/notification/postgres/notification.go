package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	notificationDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/notification"
	"github.com/frahmantamala/leave-management/internal/notification"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	m := n.ToDataModel()
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	n.ID = m.ID
	n.CreatedAt = m.CreatedAt
	return nil
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID int64, filter notification.ListFilter) ([]*notification.Notification, int64, error) {
	q := r.db.WithContext(ctx).Model(&notificationDatamodel.Notification{}).Where("user_id = ?", userID)
	if filter.UnreadOnly {
		q = q.Where("read_at IS NULL")
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	var models []notificationDatamodel.Notification
	err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(filter.Offset).Find(&models).Error
	if err != nil {
		return nil, 0, err
	}
	return notification.FromDataModelSlice(models), total, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&notificationDatamodel.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&n).Error
	return n, err
}

// MarkRead is idempotent: an already-read notification keeps its first read time.
func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID int64, at time.Time) error {
	var m notificationDatamodel.Notification
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return internal.ErrNotificationNotFound
		}
		return err
	}
	if m.ReadAt != nil {
		return nil
	}
	return r.db.WithContext(ctx).Model(&m).Update("read_at", at).Error
}
