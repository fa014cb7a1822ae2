package workflow

import "github.com/SscSPs/budget_approval_app/internal/core/domain"

const (
	// RequesterPriority is the base level budgets are normally raised from.
	RequesterPriority = 1
	// SupervisorPriority holders see their own queue plus everything raised at RequesterPriority.
	SupervisorPriority = 2
)

// Scope describes which budgets a viewer may list. A budget is visible when All
// is set or when it matches any of the populated criteria.
type Scope struct {
	All                       bool
	RequesterIDs              []string
	CurrentLevelIDs           []string
	RequestersHoldingPriority *int
}

// VisibleScope computes the listing scope for viewer.
func VisibleScope(viewer domain.Actor) Scope {
	if viewer.IsAdmin || viewer.CanViewAllBudgets {
		return Scope{All: true}
	}

	if viewer.HasAnyLevel(domain.PriorityIs(SupervisorPriority)) {
		p := RequesterPriority
		return Scope{
			RequesterIDs:              []string{viewer.UserID},
			CurrentLevelIDs:           viewer.LevelIDs(nil),
			RequestersHoldingPriority: &p,
		}
	}

	if len(viewer.PermittedRequesters) > 0 {
		ids := make([]string, 0, len(viewer.PermittedRequesters)+1)
		ids = append(ids, viewer.UserID)
		for _, id := range viewer.PermittedRequesters {
			if id != viewer.UserID {
				ids = append(ids, id)
			}
		}
		return Scope{RequesterIDs: ids}
	}

	return Scope{RequesterIDs: []string{viewer.UserID}}
}

// PendingLevelIDs are the levels whose pending budgets wait on viewer. The base
// requester level is excluded.
func PendingLevelIDs(viewer domain.Actor) []string {
	return viewer.LevelIDs(domain.PriorityAbove(RequesterPriority))
}

// SeesPurchasingQueues reports whether viewer may list the awaiting-purchase and
// ready-to-close queues.
func SeesPurchasingQueues(viewer domain.Actor) bool {
	return viewer.IsAdmin || viewer.HasAnyLevel(domain.FinalLevel)
}
