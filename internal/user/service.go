package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/leave-management/internal"
	"github.com/frahmantamala/leave-management/internal/access"
	"github.com/frahmantamala/leave-management/internal/core/events"
	coreuser "github.com/frahmantamala/leave-management/internal/core/user"
)

// Repository returns internal.ErrUserNotFound for missing rows.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*coreuser.User, error)
	GetByEmail(ctx context.Context, email string) (*coreuser.User, error)
	List(ctx context.Context, scope access.Scope, filter ListFilter) ([]*coreuser.User, int64, error)
	CountSubordinates(ctx context.Context, managerID int64) (int64, error)
	Create(ctx context.Context, u *coreuser.User) error
	Update(ctx context.Context, u *coreuser.User) error
}

type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// maxChainDepth bounds the manager-chain walk on corrupted data.
const maxChainDepth = 64

type Service struct {
	repo             Repository
	hasher           PasswordHasher
	publisher        events.Publisher
	defaultAllowance int
	logger           *slog.Logger
}

func NewService(repo Repository, hasher PasswordHasher, publisher events.Publisher, defaultAllowance int, logger *slog.Logger) *Service {
	if defaultAllowance <= 0 {
		defaultAllowance = coreuser.DefaultLeaveDays
	}
	return &Service{
		repo:             repo,
		hasher:           hasher,
		publisher:        publisher,
		defaultAllowance: defaultAllowance,
		logger:           logger,
	}
}

func (s *Service) GetByID(ctx context.Context, actor *coreuser.User, id int64) (*coreuser.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID != u.ID && !access.VisibleUsers(actor).Includes(u) {
		s.logger.Warn("user lookup denied", "actor_id", actor.ID, "user_id", id)
		return nil, internal.ErrForbidden
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, actor *coreuser.User, filter ListFilter) ([]*coreuser.User, int64, error) {
	if filter.Role != "" {
		if _, err := coreuser.ParseRole(filter.Role); err != nil {
			return nil, 0, internal.ErrInvalidRole
		}
	}
	users, total, err := s.repo.List(ctx, access.VisibleUsers(actor), filter)
	if err != nil {
		s.logger.Error("failed to list users", "error", err, "actor_id", actor.ID)
		return nil, 0, err
	}
	return users, total, nil
}

func (s *Service) Create(ctx context.Context, actor *coreuser.User, dto CreateUserDTO) (*coreuser.User, error) {
	dto.Normalize()
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	role, err := coreuser.ParseRole(dto.Role)
	if err != nil {
		return nil, internal.ErrInvalidRole
	}
	if !access.CanCreateUser(actor, role) {
		s.logger.Warn("user creation denied", "actor_id", actor.ID, "role", role)
		return nil, internal.ErrForbidden
	}

	managerID := dto.ManagerID
	if actor.IsManager() {
		// Managers may only create their own direct reports.
		if managerID != nil && *managerID != actor.ID {
			return nil, internal.ErrForbidden
		}
		id := actor.ID
		managerID = &id
	}

	if _, err := s.repo.GetByEmail(ctx, dto.Email); err == nil {
		return nil, internal.ErrEmailTaken
	} else if !errors.Is(err, internal.ErrUserNotFound) {
		return nil, err
	}

	hash, err := s.hasher.HashPassword(dto.Password)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	allowance := s.defaultAllowance
	if dto.TotalLeaveDays != nil {
		allowance = *dto.TotalLeaveDays
	}

	u := &coreuser.User{
		Email:          dto.Email,
		Name:           dto.Name,
		PasswordHash:   hash,
		Role:           role,
		TotalLeaveDays: allowance,
		IsActive:       true,
	}
	if err := s.validateManager(ctx, u, managerID); err != nil {
		return nil, err
	}
	u.ManagerID = managerID

	if err := s.repo.Create(ctx, u); err != nil {
		s.logger.Error("failed to create user", "error", err, "email", u.Email)
		return nil, err
	}

	s.logger.Info("user created", "user_id", u.ID, "role", u.Role, "actor_id", actor.ID)
	s.publish(ctx, events.NewUserEvent(events.EventTypeUserCreated, u.ID, u.Email, actor.ID))
	return u, nil
}

func (s *Service) Update(ctx context.Context, actor *coreuser.User, id int64, dto UpdateUserDTO) (*coreuser.User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !access.CanEdit(actor, u) {
		s.logger.Warn("user update denied", "actor_id", actor.ID, "user_id", id)
		return nil, internal.ErrForbidden
	}
	if dto.IsEmpty() {
		return u, nil
	}

	var changes []string

	if dto.Role != nil {
		role, err := coreuser.ParseRole(*dto.Role)
		if err != nil {
			return nil, internal.ErrInvalidRole
		}
		if role != u.Role {
			if !access.CanAssignRole(actor, role) {
				s.logger.Warn("role change denied", "actor_id", actor.ID, "user_id", id, "role", role)
				return nil, internal.ErrForbidden
			}
			if role == coreuser.RoleTeacher {
				n, err := s.repo.CountSubordinates(ctx, u.ID)
				if err != nil {
					return nil, err
				}
				if n > 0 {
					return nil, internal.ErrInvalidManager.WithDetails(map[string]interface{}{
						"reason":       "user still manages other users",
						"subordinates": n,
					})
				}
			}
			u.Role = role
			changes = append(changes, "role")
		}
	}

	if dto.RemoveManager || dto.ManagerID != nil {
		var managerID *int64
		if !dto.RemoveManager {
			managerID = dto.ManagerID
		}
		if err := s.validateManager(ctx, u, managerID); err != nil {
			return nil, err
		}
		u.ManagerID = managerID
		changes = append(changes, "manager")
	} else if u.Role == coreuser.RoleAdmin && u.ManagerID != nil {
		// Promoting to admin drops the manager.
		u.ManagerID = nil
		changes = append(changes, "manager")
	}

	if dto.Name != nil {
		u.Name = *dto.Name
		changes = append(changes, "name")
	}
	if dto.TotalLeaveDays != nil {
		u.TotalLeaveDays = *dto.TotalLeaveDays
		changes = append(changes, "total_leave_days")
	}

	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.Error("failed to update user", "error", err, "user_id", u.ID)
		return nil, err
	}

	s.logger.Info("user updated", "user_id", u.ID, "actor_id", actor.ID, "changes", changes)
	s.publish(ctx, events.NewUserEvent(events.EventTypeUserUpdated, u.ID, u.Email, actor.ID, changes...))
	return u, nil
}

// Deactivate flips is_active; users are never deleted.
func (s *Service) Deactivate(ctx context.Context, actor *coreuser.User, id int64) (*coreuser.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.ID == u.ID || !access.CanEdit(actor, u) {
		return nil, internal.ErrForbidden
	}
	if !u.IsActive {
		return u, nil
	}

	u.IsActive = false
	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.Error("failed to deactivate user", "error", err, "user_id", u.ID)
		return nil, err
	}

	s.logger.Info("user deactivated", "user_id", u.ID, "actor_id", actor.ID)
	s.publish(ctx, events.NewUserEvent(events.EventTypeUserDeactivated, u.ID, u.Email, actor.ID))
	return u, nil
}

// validateManager checks that managerID may manage u: admins have no manager,
// nobody manages themself, the manager holds a managing role and the chain
// above the manager never reaches u.
func (s *Service) validateManager(ctx context.Context, u *coreuser.User, managerID *int64) error {
	if managerID == nil {
		return nil
	}
	if u.Role == coreuser.RoleAdmin {
		return internal.ErrInvalidManager.WithDetails(map[string]interface{}{"reason": "admins cannot have a manager"})
	}
	if u.ID != 0 && *managerID == u.ID {
		return internal.ErrInvalidManager.WithDetails(map[string]interface{}{"reason": "a user cannot manage themself"})
	}

	manager, err := s.repo.GetByID(ctx, *managerID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return internal.ErrInvalidManager.WithDetails(map[string]interface{}{"reason": "manager does not exist"})
		}
		return err
	}
	if !manager.IsActive || manager.IsTeacher() {
		return internal.ErrInvalidManager.WithDetails(map[string]interface{}{"reason": "manager must be an active manager or admin"})
	}

	if u.ID == 0 {
		return nil
	}
	cur := manager
	for depth := 0; cur.ManagerID != nil; depth++ {
		if *cur.ManagerID == u.ID {
			return internal.ErrManagerCycle
		}
		if depth >= maxChainDepth {
			return fmt.Errorf("manager chain of user %d exceeds %d levels", u.ID, maxChainDepth)
		}
		if cur, err = s.repo.GetByID(ctx, *cur.ManagerID); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) publish(ctx context.Context, evt events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("user event side effects failed", "event_type", evt.EventType(), "error", err)
	}
}
