package workflow

import (
	"time"

	"github.com/SscSPs/budget_approval_app/internal/apperrors"
	"github.com/SscSPs/budget_approval_app/internal/core/domain"
)

// requiredStatus is the only status each action may start from.
var requiredStatus = map[domain.BudgetAction]domain.BudgetStatus{
	domain.ActionApprove:       domain.StatusPending,
	domain.ActionReject:        domain.StatusPending,
	domain.ActionEdit:          domain.StatusPending,
	domain.ActionDelete:        domain.StatusPending,
	domain.ActionMarkPurchased: domain.StatusAwaitingPurchase,
	domain.ActionClose:         domain.StatusPurchased,
}

// CheckAction fails with an InvalidTransitionError when action cannot start from status.
func CheckAction(status domain.BudgetStatus, action domain.BudgetAction) error {
	if from, ok := requiredStatus[action]; ok && from == status {
		return nil
	}
	return apperrors.NewInvalidTransitionError(string(status), string(action))
}

// StateMachine applies transitions to a budget in memory.
type StateMachine struct {
	Graph             *LevelGraph
	RequireFinalLevel bool
}

// Approve advances b along router. Without a next level the budget goes to the
// purchasing level if one is configured, otherwise it is approved outright.
func (m StateMachine) Approve(b *domain.Budget, router Router, now time.Time) error {
	if err := CheckAction(b.Status, domain.ActionApprove); err != nil {
		return err
	}

	if next, ok := router.NextLevel(b.CurrentLevelID); ok {
		// Promotion onto the purchasing level completes the approval chain.
		if l, found := m.Graph.Level(next); found && l.IsFinalLevel {
			if _, err := m.Graph.FinalLevel(false); err != nil {
				return err
			}
			b.Status = domain.StatusAwaitingPurchase
		}
		b.CurrentLevelID = next
	} else {
		final, err := m.Graph.FinalLevel(m.RequireFinalLevel)
		if err != nil {
			return err
		}
		if final != nil {
			b.Status = domain.StatusAwaitingPurchase
			b.CurrentLevelID = final.LevelID
		} else {
			b.Status = domain.StatusApproved
		}
	}
	b.NextLevelID = nil
	b.LastUpdatedAt = now
	return nil
}

// Reject moves a pending budget to its terminal rejected state.
func (m StateMachine) Reject(b *domain.Budget, now time.Time) error {
	if err := CheckAction(b.Status, domain.ActionReject); err != nil {
		return err
	}
	b.Status = domain.StatusRejected
	b.NextLevelID = nil
	b.LastUpdatedAt = now
	return nil
}

func (m StateMachine) MarkPurchased(b *domain.Budget, now time.Time) error {
	if err := CheckAction(b.Status, domain.ActionMarkPurchased); err != nil {
		return err
	}
	b.Status = domain.StatusPurchased
	b.PurchaseDate = &now
	b.LastUpdatedAt = now
	return nil
}

func (m StateMachine) Close(b *domain.Budget, now time.Time) error {
	if err := CheckAction(b.Status, domain.ActionClose); err != nil {
		return err
	}
	b.Status = domain.StatusFinished
	b.DeliveryDate = &now
	b.LastUpdatedAt = now
	return nil
}
