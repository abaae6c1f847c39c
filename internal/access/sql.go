package access

// SQL renders the scope as a raw predicate with '?' placeholders, for
// queries written outside gorm. Rebind before use on postgres.
func (s Scope) SQL(ownerColumn string) (string, []interface{}) {
	const subordinates = "SELECT id FROM users WHERE manager_id = ?"
	switch s.Kind {
	case ScopeAll:
		return "1 = 1", nil
	case ScopeSubordinates:
		return ownerColumn + " IN (" + subordinates + ")", []interface{}{s.ActorID}
	case ScopeSubordinatesAndSelf:
		return "(" + ownerColumn + " = ? OR " + ownerColumn + " IN (" + subordinates + "))", []interface{}{s.ActorID, s.ActorID}
	case ScopeSelf:
		return ownerColumn + " = ?", []interface{}{s.ActorID}
	case ScopeNone:
		return "1 = 0", nil
	}
	return "1 = 0", nil
}
