package access

import "gorm.io/gorm"

// Apply restricts db to rows whose owner, named by ownerColumn, falls inside the scope.
func (s Scope) Apply(db *gorm.DB, ownerColumn string) *gorm.DB {
	switch s.Kind {
	case ScopeAll:
		return db
	case ScopeSubordinates:
		return db.Where(ownerColumn+" IN (?)", subordinates(db, s.ActorID))
	case ScopeSubordinatesAndSelf:
		return db.Where("("+ownerColumn+" = ? OR "+ownerColumn+" IN (?))", s.ActorID, subordinates(db, s.ActorID))
	case ScopeSelf:
		return db.Where(ownerColumn+" = ?", s.ActorID)
	case ScopeNone:
		return db.Where("1 = 0")
	}
	return db.Where("1 = 0")
}

func subordinates(db *gorm.DB, managerID int64) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).Table("users").Select("id").Where("manager_id = ?", managerID)
}
