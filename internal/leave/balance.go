package leave

import (
	"context"
	"time"

	"github.com/frahmantamala/leave-management/internal/calendar"
	coreuser "github.com/frahmantamala/leave-management/internal/core/user"
)

// UsageReader sums days_requested over a user's leaves of one category whose
// start date falls in [from, to].
type UsageReader interface {
	SumDays(ctx context.Context, userID int64, category Category, statuses []Status, from, to time.Time) (int, error)
}

type Balance struct {
	UserID    int64 `json:"user_id"`
	Year      int   `json:"year"`
	Total     int   `json:"total"`
	Approved  int   `json:"approved"`
	Pending   int   `json:"pending"`
	Remaining int   `json:"remaining"`
}

// BalanceCalculator derives a user's vacation balance from their leave rows.
// Nothing is stored or cached: every call runs the aggregate again.
type BalanceCalculator struct{}

func yearBounds(year int) (time.Time, time.Time) {
	return calendar.Date(year, time.January, 1), calendar.Date(year, time.December, 31)
}

// Remaining is the allowance minus every pending or approved vacation day
// starting in year. Pending requests reserve their days until reviewed.
func (BalanceCalculator) Remaining(ctx context.Context, r UsageReader, u *coreuser.User, year int) (int, error) {
	from, to := yearBounds(year)
	used, err := r.SumDays(ctx, u.ID, CategoryVacation, []Status{StatusPending, StatusApproved}, from, to)
	if err != nil {
		return 0, err
	}
	return u.TotalLeaveDays - used, nil
}

func (BalanceCalculator) Summary(ctx context.Context, r UsageReader, u *coreuser.User, year int) (*Balance, error) {
	from, to := yearBounds(year)
	approved, err := r.SumDays(ctx, u.ID, CategoryVacation, []Status{StatusApproved}, from, to)
	if err != nil {
		return nil, err
	}
	pending, err := r.SumDays(ctx, u.ID, CategoryVacation, []Status{StatusPending}, from, to)
	if err != nil {
		return nil, err
	}
	return &Balance{
		UserID:    u.ID,
		Year:      year,
		Total:     u.TotalLeaveDays,
		Approved:  approved,
		Pending:   pending,
		Remaining: u.TotalLeaveDays - approved - pending,
	}, nil
}
