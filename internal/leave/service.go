package leave

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/access"
	"github.com/frahmantamala/leave-management/internal/calendar"
	"github.com/frahmantamala/leave-management/internal/core/events"
	coreuser "github.com/frahmantamala/leave-management/internal/core/user"
)

// Repository is the persistence port of the lifecycle. Missing rows are
// reported as internal.ErrLeaveNotFound or internal.ErrUserNotFound.
type Repository interface {
	ValidationStore

	// WithTx runs fn inside one transaction with a repository bound to it.
	WithTx(ctx context.Context, fn func(tx Repository) error) error

	GetUser(ctx context.Context, id int64) (*coreuser.User, error)
	GetByID(ctx context.Context, id int64) (*Leave, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*Leave, error)
	Create(ctx context.Context, l *Leave) error
	// UpdateReview persists the review fields of l only while the stored
	// status still equals expected, otherwise it returns internal.ErrInvalidState.
	UpdateReview(ctx context.Context, l *Leave, expected Status) error
	List(ctx context.Context, scope access.Scope, filter ListFilter) ([]*Leave, int64, error)
	AppendHistory(ctx context.Context, h *History) error
	ListHistory(ctx context.Context, leaveID int64) ([]*History, error)
}

// Recorder receives lifecycle outcomes for metrics.
type Recorder interface {
	ObserveTransition(action, category string)
	ObserveRejection(code string)
}

type Service struct {
	repo      Repository
	validator *Validator
	balance   BalanceCalculator
	publisher events.Publisher
	recorder  Recorder
	clock     calendar.Clock
	location  *time.Location
	logger    *slog.Logger
}

type ServiceOption func(*Service)

func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) { s.recorder = r }
}

func WithClock(c calendar.Clock) ServiceOption {
	return func(s *Service) { s.clock = c }
}

func NewService(repo Repository, validator *Validator, publisher events.Publisher, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		repo:      repo,
		validator: validator,
		publisher: publisher,
		clock:     validator.clock,
		location:  validator.location,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates and stores a new leave. Validation, insert and history run
// in one transaction holding the target user's row lock, so two concurrent
// submissions for one user cannot both pass the balance and overlap checks.
func (s *Service) Submit(ctx context.Context, actor *coreuser.User, dto SubmitLeaveDTO) (*Leave, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	req, err := dto.ToRequest()
	if err != nil {
		return nil, err
	}

	var (
		created *Leave
		draft   *Draft
	)
	err = s.repo.WithTx(ctx, func(tx Repository) error {
		d, err := s.validator.Validate(ctx, tx, actor, req)
		if err != nil {
			return err
		}

		l := d.Leave(actor, s.clock.Now())
		if err := tx.Create(ctx, l); err != nil {
			return err
		}

		h := &History{
			LeaveID:   l.ID,
			ActorID:   actor.ID,
			Action:    d.Action(),
			NewStatus: l.Status,
			Notes:     l.Reason,
			Metadata: metadata(map[string]interface{}{
				"category":       l.Category,
				"days_requested": l.DaysRequested,
				"on_behalf":      d.OnBehalf,
			}),
		}
		if err := tx.AppendHistory(ctx, h); err != nil {
			return err
		}

		created, draft = l, d
		return nil
	})
	if err != nil {
		s.observeRejection(err)
		s.logger.Warn("leave submission failed",
			"actor_id", actor.ID,
			"target_user_id", req.TargetUserID,
			"category", req.Category,
			"error", err)
		return nil, err
	}

	s.logger.Info("leave created",
		"leave_id", created.ID,
		"user_id", created.UserID,
		"actor_id", actor.ID,
		"category", created.Category,
		"days", created.DaysRequested,
		"status", created.Status)

	s.observeTransition(draft.Action(), created.Category)
	s.publish(ctx, events.EventTypeLeaveSubmitted, created, draft.Target, actor, "", draft.OnBehalf)
	return created, nil
}

func (s *Service) Approve(ctx context.Context, actor *coreuser.User, leaveID int64, notes string) (*Leave, error) {
	return s.review(ctx, actor, leaveID, StatusApproved, notes)
}

// Reject requires non-blank notes.
func (s *Service) Reject(ctx context.Context, actor *coreuser.User, leaveID int64, notes string) (*Leave, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, internal.ErrNotesRequired
	}
	return s.review(ctx, actor, leaveID, StatusRejected, notes)
}

// Cancel withdraws an approved leave and requires non-blank notes.
func (s *Service) Cancel(ctx context.Context, actor *coreuser.User, leaveID int64, notes string) (*Leave, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, internal.ErrNotesRequired
	}
	return s.review(ctx, actor, leaveID, StatusCancelled, notes)
}

func (s *Service) review(ctx context.Context, actor *coreuser.User, leaveID int64, next Status, notes string) (*Leave, error) {
	var reviewNotes *string
	if n := strings.TrimSpace(notes); n != "" {
		reviewNotes = &n
	}

	var (
		updated *Leave
		owner   *coreuser.User
	)
	err := s.repo.WithTx(ctx, func(tx Repository) error {
		l, err := tx.GetByIDForUpdate(ctx, leaveID)
		if err != nil {
			return err
		}
		o, err := tx.GetUser(ctx, l.UserID)
		if err != nil {
			return err
		}
		if !access.CanReview(actor, o) {
			return internal.ErrForbidden
		}
		if !l.Status.CanTransitionTo(next) {
			return invalidTransition(l.Status, next)
		}

		prev := l.Status
		now := s.clock.Now()
		reviewer := actor.ID
		l.Status = next
		l.ReviewerID = &reviewer
		l.ReviewedAt = &now
		l.ReviewNotes = reviewNotes

		if err := tx.UpdateReview(ctx, l, prev); err != nil {
			return err
		}

		h := &History{
			LeaveID:        l.ID,
			ActorID:        actor.ID,
			Action:         actionFor(next),
			PreviousStatus: &prev,
			NewStatus:      next,
			Notes:          reviewNotes,
			Metadata:       metadata(map[string]interface{}{"actor_role": actor.Role}),
		}
		if err := tx.AppendHistory(ctx, h); err != nil {
			return err
		}

		updated, owner = l, o
		return nil
	})
	if err != nil {
		s.observeRejection(err)
		s.logger.Warn("leave review failed",
			"leave_id", leaveID,
			"actor_id", actor.ID,
			"requested_status", next,
			"error", err)
		return nil, err
	}

	s.logger.Info("leave reviewed",
		"leave_id", updated.ID,
		"actor_id", actor.ID,
		"status", updated.Status)

	s.observeTransition(actionFor(next), updated.Category)
	s.publish(ctx, eventTypeFor(next), updated, owner, actor, notes, false)
	return updated, nil
}

func (s *Service) GetByID(ctx context.Context, actor *coreuser.User, leaveID int64) (*Leave, error) {
	l, err := s.repo.GetByID(ctx, leaveID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureVisible(ctx, actor, l.UserID); err != nil {
		return nil, err
	}
	return l, nil
}

// List returns the leaves the actor may see. Mine narrows any role to the
// actor's own leaves.
func (s *Service) List(ctx context.Context, actor *coreuser.User, filter ListFilter) ([]*Leave, int64, error) {
	scope := access.VisibleLeaves(actor)
	if filter.Mine {
		scope = access.Scope{Kind: access.ScopeSelf, ActorID: actor.ID}
	}
	leaves, total, err := s.repo.List(ctx, scope, filter)
	if err != nil {
		s.logger.Error("failed to list leaves", "error", err, "actor_id", actor.ID, "scope", scope.Kind.String())
		return nil, 0, err
	}
	return leaves, total, nil
}

func (s *Service) History(ctx context.Context, actor *coreuser.User, leaveID int64) ([]*History, error) {
	if _, err := s.GetByID(ctx, actor, leaveID); err != nil {
		return nil, err
	}
	return s.repo.ListHistory(ctx, leaveID)
}

// Balance reports the vacation balance of userID for year; year 0 means the
// current year.
func (s *Service) Balance(ctx context.Context, actor *coreuser.User, userID int64, year int) (*Balance, error) {
	if year == 0 {
		year = calendar.Today(s.clock, s.location).Year()
	}
	target, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if target.ID != actor.ID && !access.VisibleUsers(actor).Includes(target) {
		return nil, internal.ErrForbidden
	}
	return s.balance.Summary(ctx, s.repo, target, year)
}

// Remaining is the bare remaining-days figure used by validation.
func (s *Service) Remaining(ctx context.Context, u *coreuser.User, year int) (int, error) {
	return s.balance.Remaining(ctx, s.repo, u, year)
}

func (s *Service) ensureVisible(ctx context.Context, actor *coreuser.User, ownerID int64) error {
	if actor.ID == ownerID {
		return nil
	}
	owner, err := s.repo.GetUser(ctx, ownerID)
	if err != nil {
		return err
	}
	if !access.CanView(actor, owner) {
		return internal.ErrForbidden
	}
	return nil
}

func (s *Service) publish(ctx context.Context, eventType string, l *Leave, owner, actor *coreuser.User, notes string, onBehalf bool) {
	if s.publisher == nil {
		return
	}
	evt := events.NewLeaveEvent(eventType, events.LeavePayload{
		LeaveID:        l.ID,
		OwnerID:        owner.ID,
		OwnerName:      owner.Name,
		OwnerManagerID: owner.ManagerID,
		ActorID:        actor.ID,
		ActorName:      actor.Name,
		Category:       string(l.Category),
		Status:         string(l.Status),
		StartDate:      l.StartDate,
		EndDate:        l.EndDate,
		Days:           l.DaysRequested,
		Notes:          strings.TrimSpace(notes),
		OnBehalf:       onBehalf,
	})
	// Side effects never undo a committed transition.
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("leave side effects failed", "leave_id", l.ID, "event_type", eventType, "error", err)
	}
}

func (s *Service) observeTransition(action Action, category Category) {
	if s.recorder != nil {
		s.recorder.ObserveTransition(string(action), string(category))
	}
}

func (s *Service) observeRejection(err error) {
	if s.recorder == nil {
		return
	}
	if code := internal.CodeOf(err); code != "" {
		s.recorder.ObserveRejection(string(code))
	}
}

func eventTypeFor(next Status) string {
	switch next {
	case StatusApproved:
		return events.EventTypeLeaveApproved
	case StatusRejected:
		return events.EventTypeLeaveRejected
	case StatusCancelled:
		return events.EventTypeLeaveCancelled
	}
	return events.EventTypeLeaveSubmitted
}

func invalidTransition(current, next Status) error {
	return internal.ErrInvalidState.WithDetails(map[string]interface{}{
		"current_status":   current,
		"requested_status": next,
	})
}

func metadata(m map[string]interface{}) json.RawMessage {
	b, err := json.Marshal(m)
	if err != nil {
		return json.RawMessage("{}")
	}
	return b
}
