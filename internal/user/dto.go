package user

import (
	"strings"

	"github.com/frahmantamala/leave-management/internal/core/common/validation"
)

type CreateUserDTO struct {
	Email          string `json:"email" validate:"required,email,max=255"`
	Name           string `json:"name" validate:"required,min=1,max=255"`
	Password       string `json:"password" validate:"required,min=8,max=72"`
	Role           string `json:"role" validate:"required,oneof=teacher manager admin"`
	ManagerID      *int64 `json:"manager_id,omitempty" validate:"omitempty,min=1"`
	TotalLeaveDays *int   `json:"total_leave_days,omitempty" validate:"omitempty,min=1,max=50"`
}

func (d *CreateUserDTO) Normalize() {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Name = strings.TrimSpace(d.Name)
	d.Role = strings.ToLower(strings.TrimSpace(d.Role))
}

func (d CreateUserDTO) Validate() error {
	if err := validation.Struct(d); err != nil {
		return err
	}
	return nil
}

// UpdateUserDTO changes only the fields that are set. RemoveManager clears the
// manager and wins over ManagerID.
type UpdateUserDTO struct {
	Name           *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Role           *string `json:"role,omitempty" validate:"omitempty,oneof=teacher manager admin"`
	ManagerID      *int64  `json:"manager_id,omitempty" validate:"omitempty,min=1"`
	RemoveManager  bool    `json:"remove_manager,omitempty"`
	TotalLeaveDays *int    `json:"total_leave_days,omitempty" validate:"omitempty,min=1,max=50"`
}

func (d UpdateUserDTO) Validate() error {
	if err := validation.Struct(d); err != nil {
		return err
	}
	return nil
}

func (d UpdateUserDTO) IsEmpty() bool {
	return d.Name == nil && d.Role == nil && d.ManagerID == nil && !d.RemoveManager && d.TotalLeaveDays == nil
}

type ListFilter struct {
	Role            string
	IncludeInactive bool
	Limit           int
	Offset          int
}
