package activity

import (
	"context"
	"log/slog"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/access"
	coreuser "github.com/frahmantamala/leave-management/internal/core/user"
)

type Repository interface {
	Create(ctx context.Context, e *Entry) error
	List(ctx context.Context, scope access.Scope, filter ListFilter) ([]*Entry, int64, error)
}

// Resolver renders a human label for targets of one type. Missing ids are
// simply absent from the result.
type Resolver interface {
	Labels(ctx context.Context, ids []int64) (map[int64]string, error)
}

type Service struct {
	repo      Repository
	resolvers map[TargetType]Resolver
	logger    *slog.Logger
}

func NewService(repo Repository, resolvers map[TargetType]Resolver, logger *slog.Logger) *Service {
	return &Service{repo: repo, resolvers: resolvers, logger: logger}
}

// LogActivity appends an entry. ownerID is the user the target belongs to and
// drives visibility.
func (s *Service) LogActivity(ctx context.Context, action, description string, target Target, actorID int64, ownerID *int64) error {
	e := &Entry{
		ActorID:     actorID,
		Action:      action,
		Description: description,
		Target:      target,
		OwnerID:     ownerID,
	}
	if err := s.repo.Create(ctx, e); err != nil {
		return err
	}
	s.logger.Debug("activity logged", "action", action, "target", target.String(), "actor_id", actorID)
	return nil
}

func (s *Service) List(ctx context.Context, actor *coreuser.User, filter ListFilter) ([]*Entry, int64, error) {
	if filter.TargetType != "" {
		if _, ok := s.resolvers[filter.TargetType]; !ok {
			return nil, 0, internal.NewValidationFieldError("target_type", "unknown target type", internal.ErrCodeValidationFailed)
		}
	}

	entries, total, err := s.repo.List(ctx, access.VisibleActivity(actor), filter)
	if err != nil {
		return nil, 0, err
	}
	s.label(ctx, entries)
	return entries, total, nil
}

// label fills TargetLabel per target type. A failing resolver leaves labels
// empty rather than failing the listing.
func (s *Service) label(ctx context.Context, entries []*Entry) {
	ids := make(map[TargetType][]int64)
	for _, e := range entries {
		ids[e.Target.Type] = append(ids[e.Target.Type], e.Target.ID)
	}

	for t, list := range ids {
		r, ok := s.resolvers[t]
		if !ok {
			continue
		}
		labels, err := r.Labels(ctx, list)
		if err != nil {
			s.logger.Warn("failed to resolve activity targets", "target_type", t, "error", err)
			continue
		}
		for _, e := range entries {
			if e.Target.Type == t {
				e.TargetLabel = labels[e.Target.ID]
			}
		}
	}
}
