package domain

// User represents a user of the application in the domain.
type User struct {
	UserID            string `json:"userID" db:"user_id"` // Primary Key (UUID)
	Name              string `json:"name" db:"name"`
	Email             string `json:"email" db:"email"`
	PasswordHash      string `json:"-" db:"password_hash"`
	IsAdmin           bool   `json:"isAdmin" db:"is_admin"`
	IsActive          bool   `json:"isActive" db:"is_active"`
	CanViewAllBudgets bool   `json:"canViewAllBudgets" db:"can_view_all_budgets"`
	AuditFields
}

// Actor is a verified user together with the levels it holds and the
// requesters whose budgets it was explicitly allowed to see.
type Actor struct {
	User
	Levels              []Level  `json:"levels"`
	PermittedRequesters []string `json:"permittedRequesters"`
}

// HoldsLevel reports whether the actor holds the given level.
func (a Actor) HoldsLevel(levelID string) bool {
	_, ok := a.heldLevel(levelID)
	return ok
}

// HoldsLevelWhere reports whether the actor holds the given level and that level satisfies pred.
func (a Actor) HoldsLevelWhere(levelID string, pred func(Level) bool) bool {
	l, ok := a.heldLevel(levelID)
	return ok && pred(l)
}

// HasAnyLevel reports whether any held level satisfies pred.
func (a Actor) HasAnyLevel(pred func(Level) bool) bool {
	for _, l := range a.Levels {
		if pred(l) {
			return true
		}
	}
	return false
}

// LevelIDs returns the IDs of held levels satisfying pred, in held order.
func (a Actor) LevelIDs(pred func(Level) bool) []string {
	ids := []string{}
	for _, l := range a.Levels {
		if pred == nil || pred(l) {
			ids = append(ids, l.LevelID)
		}
	}
	return ids
}

func (a Actor) heldLevel(levelID string) (Level, bool) {
	for _, l := range a.Levels {
		if l.LevelID == levelID {
			return l, true
		}
	}
	return Level{}, false
}
