package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/leave-management/internal"
	coreuser "github.com/frahmantamala/leave-management/internal/core/user"
)

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	ListForUser(ctx context.Context, userID int64, filter ListFilter) ([]*Notification, int64, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	MarkRead(ctx context.Context, id, userID int64, at time.Time) error
}

// Deliverer pushes a stored notification somewhere outside the database.
// Enqueue must not block the caller.
type Deliverer interface {
	Enqueue(n *Notification) bool
}

type Service struct {
	repo      Repository
	deliverer Deliverer
	now       func() time.Time
	logger    *slog.Logger
}

func NewService(repo Repository, deliverer Deliverer, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		deliverer: deliverer,
		now:       time.Now,
		logger:    logger,
	}
}

// Notify stores a notification for userID and hands it to the deliverer, if any.
func (s *Service) Notify(ctx context.Context, userID int64, t Type, title, message string, leaveID *int64) (*Notification, error) {
	n := &Notification{
		UserID:  userID,
		Type:    t,
		Title:   title,
		Message: message,
		LeaveID: leaveID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	s.logger.Debug("notification stored", "notification_id", n.ID, "user_id", userID, "type", t)

	if s.deliverer != nil && !s.deliverer.Enqueue(n) {
		s.logger.Warn("notification delivery skipped", "notification_id", n.ID)
	}
	return n, nil
}

func (s *Service) List(ctx context.Context, actor *coreuser.User, filter ListFilter) ([]*Notification, int64, error) {
	return s.repo.ListForUser(ctx, actor.ID, filter)
}

func (s *Service) UnreadCount(ctx context.Context, actor *coreuser.User) (int64, error) {
	return s.repo.CountUnread(ctx, actor.ID)
}

// MarkRead only touches the actor's own notifications; anything else looks
// like a missing row.
func (s *Service) MarkRead(ctx context.Context, actor *coreuser.User, id int64) error {
	if id <= 0 {
		return internal.ErrNotificationNotFound
	}
	return s.repo.MarkRead(ctx, id, actor.ID, s.now())
}
