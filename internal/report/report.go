// Package report aggregates leave usage per user for a year. It reads with
// hand-written SQL through sqlx and never writes.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/access"
	coreuser "github.com/frahmantamala/leave-management/internal/core/user"
	"github.com/frahmantamala/leave-management/internal/leave"
)

type CategoryUsage struct {
	Approved int `json:"approved"`
	Pending  int `json:"pending"`
}

type UserUsage struct {
	UserID            int64                    `json:"user_id"`
	Name              string                   `json:"name"`
	Allowance         int                      `json:"allowance"`
	Categories        map[string]CategoryUsage `json:"categories"`
	VacationRemaining int                      `json:"vacation_remaining"`
}

type Usage struct {
	Year  int          `json:"year"`
	Users []*UserUsage `json:"users"`
}

type usageRow struct {
	UserID    int64  `db:"user_id"`
	Name      string `db:"name"`
	Allowance int    `db:"total_leave_days"`
	Category  string `db:"category"`
	Status    string `db:"status"`
	Days      int    `db:"days"`
}

const usageQuery = `
SELECT u.id AS user_id, u.name, u.total_leave_days, l.category, l.status,
       SUM(l.days_requested) AS days
FROM leaves l
JOIN users u ON u.id = l.user_id
WHERE l.status IN (?, ?)
  AND l.start_date >= ? AND l.start_date <= ?
  AND %s
GROUP BY u.id, u.name, u.total_leave_days, l.category, l.status
ORDER BY u.name, u.id, l.category`

type Service struct {
	db *sqlx.DB
}

func NewService(db *sqlx.DB) *Service {
	return &Service{db: db}
}

// Usage sums pending and approved days per user and category for leaves
// starting in year, restricted to the leaves the actor may see.
func (s *Service) Usage(ctx context.Context, actor *coreuser.User, year int) (*Usage, error) {
	if year < 1970 || year > 9999 {
		return nil, internal.NewValidationFieldError("year", "year must be between 1970 and 9999", internal.ErrCodeValidationFailed)
	}

	where, scopeArgs := access.VisibleLeaves(actor).SQL("l.user_id")
	query := s.db.Rebind(fmt.Sprintf(usageQuery, where))

	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	args := append([]interface{}{string(leave.StatusPending), string(leave.StatusApproved), from, to}, scopeArgs...)

	var rows []usageRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, internal.NewInternalError("failed to load usage report", err)
	}

	return &Usage{Year: year, Users: fold(rows)}, nil
}

func fold(rows []usageRow) []*UserUsage {
	byUser := make(map[int64]*UserUsage)
	for _, r := range rows {
		u, ok := byUser[r.UserID]
		if !ok {
			u = &UserUsage{
				UserID:     r.UserID,
				Name:       r.Name,
				Allowance:  r.Allowance,
				Categories: make(map[string]CategoryUsage),
			}
			byUser[r.UserID] = u
		}

		c := u.Categories[r.Category]
		switch leave.Status(r.Status) {
		case leave.StatusApproved:
			c.Approved += r.Days
		case leave.StatusPending:
			c.Pending += r.Days
		}
		u.Categories[r.Category] = c
	}

	out := make([]*UserUsage, 0, len(byUser))
	for _, u := range byUser {
		v := u.Categories[string(leave.CategoryVacation)]
		u.VacationRemaining = u.Allowance - v.Approved - v.Pending
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].UserID < out[j].UserID
	})
	return out
}
