package postgres

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/access"
	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
	coreuser "github.com/frahmantamala/leave-management/internal/core/user"
	"github.com/frahmantamala/leave-management/internal/user"
)

// UserRepository implements user.Repository using GORM
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*coreuser.User, error) {
	var m userDatamodel.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&m), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*coreuser.User, error) {
	var m userDatamodel.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&m), nil
}

// List returns one page of users inside scope plus the unpaged total.
func (r *UserRepository) List(ctx context.Context, scope access.Scope, filter user.ListFilter) ([]*coreuser.User, int64, error) {
	q := scope.Apply(r.db.WithContext(ctx).Model(&userDatamodel.User{}), "users.id")
	if filter.Role != "" {
		q = q.Where("role = ?", strings.ToLower(filter.Role))
	}
	if !filter.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	var rows []userDatamodel.User
	if err := q.Order("name ASC, id ASC").Limit(limit).Offset(filter.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]*coreuser.User, len(rows))
	for i := range rows {
		out[i] = user.FromDataModel(&rows[i])
	}
	return out, total, nil
}

func (r *UserRepository) CountSubordinates(ctx context.Context, managerID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&userDatamodel.User{}).
		Where("manager_id = ? AND is_active = ?", managerID, true).
		Count(&n).Error
	return n, err
}

func (r *UserRepository) Create(ctx context.Context, u *coreuser.User) error {
	m := user.ToDataModel(u)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.ErrEmailTaken
		}
		return err
	}
	u.ID = m.ID
	u.CreatedAt = m.CreatedAt
	u.UpdatedAt = m.UpdatedAt
	return nil
}

// Update writes every mutable column; Select("*") keeps zero values such as
// is_active=false and a cleared manager_id.
func (r *UserRepository) Update(ctx context.Context, u *coreuser.User) error {
	m := user.ToDataModel(u)
	res := r.db.WithContext(ctx).Model(m).
		Select("name", "role", "manager_id", "total_leave_days", "is_active", "updated_at").
		Updates(m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	u.UpdatedAt = m.UpdatedAt
	return nil
}
