package workflow_test

import (
	"testing"

	"github.com/SscSPs/budget_approval_app/internal/apperrors"
	"github.com/SscSPs/budget_approval_app/internal/core/domain"
	"github.com/SscSPs/budget_approval_app/internal/core/workflow"
	"github.com/stretchr/testify/assert"
)

func actor(id string, admin bool, levels ...domain.Level) domain.Actor {
	return domain.Actor{
		User:   domain.User{UserID: id, IsActive: true, IsAdmin: admin},
		Levels: levels,
	}
}

func TestGuard(t *testing.T) {
	requesterLevel := level("l1", 1)
	approverLevel := level("l2", 2)
	approverLevel.CanApprove = true
	viewOnlyLevel := level("l2b", 3)
	purchasing := level("buy", 4)
	purchasing.IsFinalLevel = true
	purchasing.CanApprove = true
	noCreate := level("nc", 5)
	noCreate.CanCreateBudget = false

	atL2 := domain.Budget{RequesterID: "req", CurrentLevelID: "l2"}
	atL2b := domain.Budget{RequesterID: "req", CurrentLevelID: "l2b"}
	atBuy := domain.Budget{RequesterID: "req", CurrentLevelID: "buy"}
	atL1 := domain.Budget{RequesterID: "req", CurrentLevelID: "l1"}

	inactive := actor("idle", true)
	inactive.IsActive = false

	g := workflow.Guard{}
	tests := []struct {
		name    string
		check   func() error
		allowed bool
	}{
		{"admin approves anywhere", func() error { return g.CanApprove(actor("a", true), atL2) }, true},
		{"holder of current level approves", func() error { return g.CanApprove(actor("u", false, approverLevel), atL2) }, true},
		{"holder without canApprove still approves", func() error { return g.CanApprove(actor("u", false, viewOnlyLevel), atL2b) }, true},
		{"non holder cannot approve", func() error { return g.CanApprove(actor("u", false, approverLevel), atBuy) }, false},
		{"inactive admin cannot approve", func() error { return g.CanApprove(inactive, atL2) }, false},

		{"admin rejects", func() error { return g.CanReject(actor("a", true), atL2) }, true},
		{"holder with canApprove rejects", func() error { return g.CanReject(actor("u", false, approverLevel), atL2) }, true},
		{"holder without canApprove cannot reject", func() error { return g.CanReject(actor("u", false, viewOnlyLevel), atL2b) }, false},
		{"canApprove at another level cannot reject", func() error { return g.CanReject(actor("u", false, approverLevel, viewOnlyLevel), atBuy) }, false},

		{"purchasing holder marks purchased", func() error { return g.CanMarkPurchased(actor("p", false, purchasing), atL2) }, true},
		{"regular user cannot mark purchased", func() error { return g.CanMarkPurchased(actor("u", false, approverLevel), atBuy) }, false},

		{"purchasing holder at current level closes", func() error { return g.CanClose(actor("p", false, purchasing), atBuy) }, true},
		{"purchasing holder elsewhere cannot close", func() error { return g.CanClose(actor("p", false, purchasing), atL2) }, false},
		{"holder of non final current level cannot close", func() error { return g.CanClose(actor("u", false, approverLevel), atL2) }, false},
		{"admin closes", func() error { return g.CanClose(actor("a", true), atL2) }, true},

		{"requester edits at initial level", func() error { return g.CanEdit(actor("req", false, requesterLevel), atL1, "l1") }, true},
		{"requester cannot edit once advanced", func() error { return g.CanEdit(actor("req", false, requesterLevel), atL2, "l1") }, false},
		{"admin cannot edit someone else's budget", func() error { return g.CanEdit(actor("a", true), atL1, "l1") }, false},

		{"requester deletes", func() error { return g.CanDelete(actor("req", false), atL2) }, true},
		{"admin deletes", func() error { return g.CanDelete(actor("a", true), atL2) }, true},
		{"other user cannot delete", func() error { return g.CanDelete(actor("x", false, approverLevel), atL2) }, false},

		{"creator level creates", func() error { return g.CanCreate(actor("u", false, requesterLevel)) }, true},
		{"no creator level cannot create", func() error { return g.CanCreate(actor("u", false, noCreate)) }, false},
		{"admin creates", func() error { return g.CanCreate(actor("a", true)) }, true},

		{"admin administers", func() error { return g.CanAdminister(actor("a", true)) }, true},
		{"user cannot administer", func() error { return g.CanAdminister(actor("u", false, purchasing)) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.check()
			if tt.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, apperrors.ErrForbidden)
			}
		})
	}
}
