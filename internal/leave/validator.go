package leave

import (
	"context"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/access"
	"github.com/frahmantamala/leave-management/internal/calendar"
	coreuser "github.com/frahmantamala/leave-management/internal/core/user"
)

// ValidationStore is the read side the validator needs. Implementations bound
// to a transaction make the checks atomic with the insert that follows.
type ValidationStore interface {
	UsageReader
	// LockUser loads the user and holds its row until the transaction ends.
	LockUser(ctx context.Context, id int64) (*coreuser.User, error)
	// FindOverlapping returns the first blocking leave of the user in category
	// intersecting [start, end], or nil.
	FindOverlapping(ctx context.Context, userID int64, category Category, start, end time.Time) (*Leave, error)
}

// Request is a proposed leave. TargetUserID 0 means the actor themself.
type Request struct {
	TargetUserID int64
	Category     string
	StartDate    time.Time
	EndDate      time.Time
	Reason       *string
}

// Draft is an accepted request, ready to persist.
type Draft struct {
	Target    *coreuser.User
	Category  Category
	StartDate time.Time
	EndDate   time.Time
	Days      int
	Reason    *string
	Status    Status
	OnBehalf  bool
}

func (d *Draft) Action() Action {
	if d.OnBehalf {
		return ActionCreatedForUser
	}
	return ActionSubmitted
}

// Leave builds the record for d. On-behalf leaves are approved by their creator.
func (d *Draft) Leave(actor *coreuser.User, now time.Time) *Leave {
	l := &Leave{
		UserID:        d.Target.ID,
		Category:      d.Category,
		StartDate:     d.StartDate,
		EndDate:       d.EndDate,
		DaysRequested: d.Days,
		Reason:        d.Reason,
		Status:        d.Status,
		CreatedBy:     actor.ID,
	}
	if d.Status == StatusApproved {
		reviewer := actor.ID
		l.ReviewerID = &reviewer
		l.ReviewedAt = &now
	}
	return l
}

type Validator struct {
	counter  *calendar.Counter
	clock    calendar.Clock
	location *time.Location
	balance  BalanceCalculator
}

func NewValidator(counter *calendar.Counter, clock calendar.Clock, location *time.Location) *Validator {
	if counter == nil {
		counter = calendar.NewCounter(nil, false)
	}
	if clock == nil {
		clock = calendar.SystemClock{}
	}
	if location == nil {
		location = time.UTC
	}
	return &Validator{counter: counter, clock: clock, location: location}
}

// Validate runs the business rules in a fixed order and stops at the first
// failure: target permission, dates, category, day count, balance, overlap.
func (v *Validator) Validate(ctx context.Context, store ValidationStore, actor *coreuser.User, req Request) (*Draft, error) {
	target, onBehalf, err := v.resolveTarget(ctx, store, actor, req.TargetUserID)
	if err != nil {
		return nil, err
	}

	start, end := calendar.Normalize(req.StartDate), calendar.Normalize(req.EndDate)
	if end.Before(start) {
		return nil, internal.ErrInvalidDateRange
	}
	if !onBehalf && start.Before(calendar.Today(v.clock, v.location)) {
		return nil, internal.ErrStartInPast
	}

	category, err := ParseCategory(req.Category)
	if err != nil {
		return nil, internal.ErrInvalidCategory
	}
	if category.OnBehalfOnly() && !onBehalf {
		return nil, internal.ErrForbidden.WithDetails(map[string]interface{}{
			"reason": string(category) + " can only be recorded by a manager or admin for another user",
		})
	}

	days := v.counter.Count(start, end)
	if days == 0 {
		reason := internal.EmptyRangeWeekendOnly
		if v.counter.IsHolidayOnlyRange(start, end) {
			reason = internal.EmptyRangeHolidayOnly
		}
		return nil, internal.NewEmptyRangeError(reason)
	}

	if category.CountsAgainstBalance() {
		remaining, err := v.balance.Remaining(ctx, store, target, start.Year())
		if err != nil {
			return nil, err
		}
		if days > remaining {
			return nil, internal.NewInsufficientBalanceError(remaining, days)
		}
	}

	existing, err := store.FindOverlapping(ctx, target.ID, category, start, end)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, internal.NewOverlappingRequestError(existing.ID, existing.StartDate, existing.EndDate, string(existing.Status))
	}

	status := StatusPending
	if onBehalf {
		status = StatusApproved
	}
	return &Draft{
		Target:    target,
		Category:  category,
		StartDate: start,
		EndDate:   end,
		Days:      days,
		Reason:    req.Reason,
		Status:    status,
		OnBehalf:  onBehalf,
	}, nil
}

func (v *Validator) resolveTarget(ctx context.Context, store ValidationStore, actor *coreuser.User, targetID int64) (*coreuser.User, bool, error) {
	if targetID == 0 {
		targetID = actor.ID
	}
	target, err := store.LockUser(ctx, targetID)
	if err != nil {
		return nil, false, err
	}
	if target.ID == actor.ID {
		return target, false, nil
	}
	if !access.CanActFor(actor, target) {
		return nil, false, internal.ErrForbidden
	}
	return target, true, nil
}
