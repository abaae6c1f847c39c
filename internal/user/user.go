package user

import (
	"time"

	userDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/user"
	coreuser "github.com/frahmantamala/leave-management/internal/core/user"
)

// User is the API view of a user; the password hash never leaves the service.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           string    `json:"role"`
	ManagerID      *int64    `json:"manager_id,omitempty"`
	TotalLeaveDays int       `json:"total_leave_days"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func ToView(u *coreuser.User) *User {
	return &User{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		Role:           string(u.Role),
		ManagerID:      u.ManagerID,
		TotalLeaveDays: u.TotalLeaveDays,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func ToViews(users []*coreuser.User) []*User {
	out := make([]*User, len(users))
	for i, u := range users {
		out[i] = ToView(u)
	}
	return out
}

func ToDataModel(u *coreuser.User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		PasswordHash:   u.PasswordHash,
		Role:           string(u.Role),
		ManagerID:      u.ManagerID,
		TotalLeaveDays: u.TotalLeaveDays,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *coreuser.User {
	return &coreuser.User{
		ID:             u.ID,
		Email:          u.Email,
		Name:           u.Name,
		PasswordHash:   u.PasswordHash,
		Role:           coreuser.Role(u.Role),
		ManagerID:      u.ManagerID,
		TotalLeaveDays: u.TotalLeaveDays,
		IsActive:       u.IsActive,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}
