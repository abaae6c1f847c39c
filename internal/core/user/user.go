package user

import (
	"fmt"
	"strings"
	"time"
)

// Role is closed: every switch over it in the codebase is exhaustive.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

const (
	MinLeaveDays     = 1
	MaxLeaveDays     = 50
	DefaultLeaveDays = 20
)

func ParseRole(s string) (Role, error) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleTeacher, RoleManager, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

type User struct {
	ID             int64
	Email          string
	Name           string
	PasswordHash   string
	Role           Role
	ManagerID      *int64
	TotalLeaveDays int
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsManager() bool { return u.Role == RoleManager }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }

// ReportsTo is true when managerID is u's direct manager.
func (u *User) ReportsTo(managerID int64) bool {
	return u.ManagerID != nil && *u.ManagerID == managerID
}
