// Package access decides what an actor may see and do. Every rule is a
// switch over the closed role enum so adding a role fails loudly here.
package access

import (
	"fmt"

	coreuser "github.com/frahmantamala/leave-management/internal/core/user"
)

type ScopeKind int

const (
	// ScopeNone matches nothing; inactive or unknown actors get it.
	ScopeNone ScopeKind = iota
	ScopeAll
	ScopeSubordinates
	ScopeSubordinatesAndSelf
	ScopeSelf
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeNone:
		return "none"
	case ScopeAll:
		return "all"
	case ScopeSubordinates:
		return "subordinates"
	case ScopeSubordinatesAndSelf:
		return "subordinates_and_self"
	case ScopeSelf:
		return "self"
	}
	return fmt.Sprintf("scope(%d)", int(k))
}

// Scope is a record-set predicate, translated to SQL by each repository.
type Scope struct {
	Kind    ScopeKind
	ActorID int64
}

// Includes evaluates the predicate for a record owned by owner.
func (s Scope) Includes(owner *coreuser.User) bool {
	if owner == nil {
		return false
	}
	switch s.Kind {
	case ScopeAll:
		return true
	case ScopeSubordinates:
		return owner.ReportsTo(s.ActorID)
	case ScopeSubordinatesAndSelf:
		return owner.ID == s.ActorID || owner.ReportsTo(s.ActorID)
	case ScopeSelf:
		return owner.ID == s.ActorID
	case ScopeNone:
		return false
	}
	return false
}

// VisibleLeaves: admins see everything, managers their subordinates' leaves,
// teachers their own.
func VisibleLeaves(actor *coreuser.User) Scope {
	if actor == nil || !actor.IsActive {
		return Scope{Kind: ScopeNone}
	}
	switch actor.Role {
	case coreuser.RoleAdmin:
		return Scope{Kind: ScopeAll, ActorID: actor.ID}
	case coreuser.RoleManager:
		return Scope{Kind: ScopeSubordinates, ActorID: actor.ID}
	case coreuser.RoleTeacher:
		return Scope{Kind: ScopeSelf, ActorID: actor.ID}
	}
	return Scope{Kind: ScopeNone}
}

// VisibleActivity is VisibleLeaves widened by the actor's own entries for managers.
func VisibleActivity(actor *coreuser.User) Scope {
	if actor == nil || !actor.IsActive {
		return Scope{Kind: ScopeNone}
	}
	switch actor.Role {
	case coreuser.RoleAdmin:
		return Scope{Kind: ScopeAll, ActorID: actor.ID}
	case coreuser.RoleManager:
		return Scope{Kind: ScopeSubordinatesAndSelf, ActorID: actor.ID}
	case coreuser.RoleTeacher:
		return Scope{Kind: ScopeSelf, ActorID: actor.ID}
	}
	return Scope{Kind: ScopeNone}
}

// VisibleUsers is the user directory an actor may browse.
func VisibleUsers(actor *coreuser.User) Scope {
	if actor == nil || !actor.IsActive {
		return Scope{Kind: ScopeNone}
	}
	switch actor.Role {
	case coreuser.RoleAdmin:
		return Scope{Kind: ScopeAll, ActorID: actor.ID}
	case coreuser.RoleManager:
		return Scope{Kind: ScopeSubordinatesAndSelf, ActorID: actor.ID}
	case coreuser.RoleTeacher:
		return Scope{Kind: ScopeSelf, ActorID: actor.ID}
	}
	return Scope{Kind: ScopeNone}
}

// CanReview reports whether actor may approve, reject or cancel leaves owned by owner.
func CanReview(actor, owner *coreuser.User) bool {
	if actor == nil || owner == nil || !actor.IsActive {
		return false
	}
	switch actor.Role {
	case coreuser.RoleAdmin:
		return true
	case coreuser.RoleManager:
		return owner.ReportsTo(actor.ID)
	case coreuser.RoleTeacher:
		return false
	}
	return false
}

// CanActFor reports whether actor may create a leave on behalf of target.
// Acting for oneself is not acting on behalf.
func CanActFor(actor, target *coreuser.User) bool {
	if actor == nil || target == nil || !actor.IsActive || !target.IsActive || actor.ID == target.ID {
		return false
	}
	switch actor.Role {
	case coreuser.RoleAdmin:
		return true
	case coreuser.RoleManager:
		return target.IsTeacher() && target.ReportsTo(actor.ID)
	case coreuser.RoleTeacher:
		return false
	}
	return false
}

// CanEdit reports whether actor may change target's profile, role, manager
// or allowance.
func CanEdit(actor, target *coreuser.User) bool {
	if actor == nil || target == nil || !actor.IsActive {
		return false
	}
	switch actor.Role {
	case coreuser.RoleAdmin:
		return true
	case coreuser.RoleManager:
		return target.IsTeacher() && target.ReportsTo(actor.ID)
	case coreuser.RoleTeacher:
		return false
	}
	return false
}

// CanView reports whether actor may read records owned by owner.
func CanView(actor, owner *coreuser.User) bool {
	if actor == nil || owner == nil {
		return false
	}
	if actor.ID == owner.ID {
		return true
	}
	return VisibleLeaves(actor).Includes(owner)
}

// CanCreateUser reports whether actor may create a user with role.
func CanCreateUser(actor *coreuser.User, role coreuser.Role) bool {
	if actor == nil || !actor.IsActive {
		return false
	}
	switch actor.Role {
	case coreuser.RoleAdmin:
		return true
	case coreuser.RoleManager:
		return role == coreuser.RoleTeacher
	case coreuser.RoleTeacher:
		return false
	}
	return false
}

// CanAssignRole reports whether actor may move a user it can edit into role.
// Managers hand out the roles below admin.
func CanAssignRole(actor *coreuser.User, role coreuser.Role) bool {
	if actor == nil || !actor.IsActive {
		return false
	}
	switch actor.Role {
	case coreuser.RoleAdmin:
		return true
	case coreuser.RoleManager:
		return role == coreuser.RoleTeacher || role == coreuser.RoleManager
	case coreuser.RoleTeacher:
		return false
	}
	return false
}
