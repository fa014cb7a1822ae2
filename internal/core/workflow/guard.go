package workflow

import (
	"github.com/SscSPs/budget_approval_app/internal/apperrors"
	"github.com/SscSPs/budget_approval_app/internal/core/domain"
)

// Guard checks whether an actor may perform an action on a budget.
// Every failure unwraps to apperrors.ErrForbidden.
type Guard struct{}

func (Guard) active(actor domain.Actor) error {
	if !actor.IsActive {
		return apperrors.NewForbiddenError("user is inactive")
	}
	return nil
}

// CanCreate requires an admin or a held level flagged canCreateBudget.
func (g Guard) CanCreate(actor domain.Actor) error {
	if err := g.active(actor); err != nil {
		return err
	}
	if actor.IsAdmin || actor.HasAnyLevel(domain.CreatorLevel) {
		return nil
	}
	return apperrors.NewForbiddenError("user holds no level allowed to create budgets")
}

// CanApprove requires an admin or a holder of the budget's current level.
// Unlike CanReject it does not look at the level's canApprove flag.
func (g Guard) CanApprove(actor domain.Actor, b domain.Budget) error {
	if err := g.active(actor); err != nil {
		return err
	}
	if actor.IsAdmin || actor.HoldsLevel(b.CurrentLevelID) {
		return nil
	}
	return apperrors.NewForbiddenError("user does not hold the budget's current level")
}

// CanReject requires an admin or a holder of the current level when that level can approve.
func (g Guard) CanReject(actor domain.Actor, b domain.Budget) error {
	if err := g.active(actor); err != nil {
		return err
	}
	if actor.IsAdmin || actor.HoldsLevelWhere(b.CurrentLevelID, domain.CanApproveLevel) {
		return nil
	}
	return apperrors.NewForbiddenError("user cannot reject at the budget's current level")
}

// CanMarkPurchased requires an admin or any purchasing level holder.
func (g Guard) CanMarkPurchased(actor domain.Actor, _ domain.Budget) error {
	if err := g.active(actor); err != nil {
		return err
	}
	if actor.IsAdmin || actor.HasAnyLevel(domain.FinalLevel) {
		return nil
	}
	return apperrors.NewForbiddenError("only purchasing level holders can mark budgets as purchased")
}

// CanClose requires an admin or a holder of the current level when it is the purchasing level.
func (g Guard) CanClose(actor domain.Actor, b domain.Budget) error {
	if err := g.active(actor); err != nil {
		return err
	}
	if actor.IsAdmin || actor.HoldsLevelWhere(b.CurrentLevelID, domain.FinalLevel) {
		return nil
	}
	return apperrors.NewForbiddenError("only the purchasing level holding the budget can close it")
}

// CanEdit allows only the requester, and only while the budget still sits at the
// requester's initial level.
func (g Guard) CanEdit(actor domain.Actor, b domain.Budget, initialLevelID string) error {
	if err := g.active(actor); err != nil {
		return err
	}
	if actor.UserID != b.RequesterID {
		return apperrors.NewForbiddenError("only the requester can edit a budget")
	}
	if b.CurrentLevelID != initialLevelID {
		return apperrors.NewForbiddenError("budget has already moved past the requester's initial level")
	}
	return nil
}

func (g Guard) CanDelete(actor domain.Actor, b domain.Budget) error {
	if err := g.active(actor); err != nil {
		return err
	}
	if actor.IsAdmin || actor.UserID == b.RequesterID {
		return nil
	}
	return apperrors.NewForbiddenError("only the requester or an admin can delete a budget")
}

// CanAdminister is required for configuration and maintenance operations.
func (g Guard) CanAdminister(actor domain.Actor) error {
	if err := g.active(actor); err != nil {
		return err
	}
	if !actor.IsAdmin {
		return apperrors.NewForbiddenError("admin access required")
	}
	return nil
}
