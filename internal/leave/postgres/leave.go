package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/access"
	leaveDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/leave"
	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
	coreuser "github.com/frahmantamala/leave-management/internal/core/user"
	"github.com/frahmantamala/leave-management/internal/leave"
	"github.com/frahmantamala/leave-management/internal/user"
)

// LeaveRepository implements leave.Repository using GORM
type LeaveRepository struct {
	db *gorm.DB
}

func NewLeaveRepository(db *gorm.DB) *LeaveRepository {
	return &LeaveRepository{db: db}
}

func (r *LeaveRepository) WithTx(ctx context.Context, fn func(tx leave.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&LeaveRepository{db: tx})
	})
}

func (r *LeaveRepository) GetUser(ctx context.Context, id int64) (*coreuser.User, error) {
	return r.getUser(r.db.WithContext(ctx), id)
}

// LockUser takes the user row with SELECT ... FOR UPDATE. SQLite has no row
// locks and relies on its single writer instead.
func (r *LeaveRepository) LockUser(ctx context.Context, id int64) (*coreuser.User, error) {
	return r.getUser(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *LeaveRepository) getUser(db *gorm.DB, id int64) (*coreuser.User, error) {
	var m userDatamodel.User
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return user.FromDataModel(&m), nil
}

func (r *LeaveRepository) GetByID(ctx context.Context, id int64) (*leave.Leave, error) {
	return r.getLeave(r.db.WithContext(ctx), id)
}

func (r *LeaveRepository) GetByIDForUpdate(ctx context.Context, id int64) (*leave.Leave, error) {
	return r.getLeave(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *LeaveRepository) getLeave(db *gorm.DB, id int64) (*leave.Leave, error) {
	var m leaveDatamodel.Leave
	if err := db.Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrLeaveNotFound
		}
		return nil, err
	}
	return leave.FromDataModel(&m), nil
}

func (r *LeaveRepository) Create(ctx context.Context, l *leave.Leave) error {
	m := leave.ToDataModel(l)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	l.ID = m.ID
	l.CreatedAt = m.CreatedAt
	l.UpdatedAt = m.UpdatedAt
	return nil
}

func (r *LeaveRepository) UpdateReview(ctx context.Context, l *leave.Leave, expected leave.Status) error {
	now := time.Now()
	res := r.db.WithContext(ctx).Model(&leaveDatamodel.Leave{}).
		Where("id = ? AND status = ?", l.ID, string(expected)).
		Updates(map[string]interface{}{
			"status":       string(l.Status),
			"reviewer_id":  l.ReviewerID,
			"reviewed_at":  l.ReviewedAt,
			"review_notes": l.ReviewNotes,
			"updated_at":   now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrInvalidState
	}
	l.UpdatedAt = now
	return nil
}

func (r *LeaveRepository) SumDays(ctx context.Context, userID int64, category leave.Category, statuses []leave.Status, from, to time.Time) (int, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&leaveDatamodel.Leave{}).
		Select("COALESCE(SUM(days_requested), 0)").
		Where("user_id = ? AND category = ?", userID, string(category)).
		Where("status IN ?", statusStrings(statuses)).
		Where("start_date >= ? AND start_date <= ?", from, to).
		Scan(&total).Error
	return int(total), err
}

func (r *LeaveRepository) FindOverlapping(ctx context.Context, userID int64, category leave.Category, start, end time.Time) (*leave.Leave, error) {
	var rows []leaveDatamodel.Leave
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND category = ?", userID, string(category)).
		Where("status NOT IN ?", []string{string(leave.StatusRejected), string(leave.StatusCancelled)}).
		Where("start_date <= ? AND end_date >= ?", end, start).
		Order("start_date ASC, id ASC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return leave.FromDataModel(&rows[0]), nil
}

func (r *LeaveRepository) List(ctx context.Context, scope access.Scope, filter leave.ListFilter) ([]*leave.Leave, int64, error) {
	q := scope.Apply(r.db.WithContext(ctx).Model(&leaveDatamodel.Leave{}), "leaves.user_id")
	if filter.UserID != 0 {
		q = q.Where("leaves.user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.Category != "" {
		q = q.Where("category = ?", string(filter.Category))
	}
	if !filter.From.IsZero() {
		q = q.Where("end_date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("start_date <= ?", filter.To)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}

	var rows []leaveDatamodel.Leave
	if err := q.Order("start_date DESC, id DESC").Limit(limit).Offset(filter.Offset).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return leave.FromDataModelSlice(rows), total, nil
}

func (r *LeaveRepository) AppendHistory(ctx context.Context, h *leave.History) error {
	m := leave.HistoryToDataModel(h)
	if len(m.Metadata) == 0 {
		m.Metadata = []byte("{}")
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	h.ID = m.ID
	h.CreatedAt = m.CreatedAt
	return nil
}

func (r *LeaveRepository) ListHistory(ctx context.Context, leaveID int64) ([]*leave.History, error) {
	var rows []leaveDatamodel.History
	err := r.db.WithContext(ctx).
		Where("leave_id = ?", leaveID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]*leave.History, len(rows))
	for i := range rows {
		out[i] = leave.HistoryFromDataModel(&rows[i])
	}
	return out, nil
}

func statusStrings(statuses []leave.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
