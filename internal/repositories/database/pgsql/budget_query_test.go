package pgsql

import (
	"testing"
	"time"

	"github.com/SscSPs/budget_approval_app/internal/core/domain"
	"github.com/SscSPs/budget_approval_app/internal/core/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetWhere_Scope(t *testing.T) {
	requester := domain.Level{LevelID: "l1", Priority: 1, IsActive: true}
	supervisor := domain.Level{LevelID: "l2", Priority: 2, IsActive: true}

	t.Run("admin adds no condition", func(t *testing.T) {
		w := &budgetWhere{}
		w.scope(workflow.VisibleScope(domain.Actor{User: domain.User{UserID: "a", IsAdmin: true}}))

		assert.Empty(t, w.String())
		assert.Empty(t, w.args)
	})

	t.Run("plain requester sees own budgets only", func(t *testing.T) {
		w := &budgetWhere{}
		w.scope(workflow.VisibleScope(domain.Actor{User: domain.User{UserID: "u1"}, Levels: []domain.Level{requester}}))

		assert.Equal(t, " WHERE (b.requester_id = ANY($1))", w.String())
		assert.Equal(t, []any{[]string{"u1"}}, w.args)
	})

	t.Run("allow-list adds permitted requesters to self", func(t *testing.T) {
		w := &budgetWhere{}
		w.scope(workflow.VisibleScope(domain.Actor{User: domain.User{UserID: "u1"}, PermittedRequesters: []string{"u2"}}))

		assert.Equal(t, " WHERE (b.requester_id = ANY($1))", w.String())
		assert.Equal(t, []any{[]string{"u1", "u2"}}, w.args)
	})

	t.Run("supervisor sees own, held levels and priority-1 requesters", func(t *testing.T) {
		w := &budgetWhere{}
		w.scope(workflow.VisibleScope(domain.Actor{User: domain.User{UserID: "s1"}, Levels: []domain.Level{supervisor}}))

		sql := w.String()
		assert.Contains(t, sql, " WHERE (b.requester_id = ANY($1) OR b.current_level_id = ANY($2) OR b.requester_id IN (")
		assert.Contains(t, sql, "WHERE pl.priority = $3 AND pl.is_active)")
		require.Len(t, w.args, 3)
		assert.Equal(t, []string{"s1"}, w.args[0])
		assert.Equal(t, []string{"l2"}, w.args[1])
		assert.Equal(t, 1, w.args[2])
	})

	t.Run("empty scope matches nothing", func(t *testing.T) {
		w := &budgetWhere{}
		w.scope(workflow.Scope{})

		assert.Equal(t, " WHERE FALSE", w.String())
		assert.Empty(t, w.args)
	})
}

func TestBudgetWhere_Filter(t *testing.T) {
	status := domain.StatusPending
	branch := "b-7"
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		filter   domain.BudgetFilter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:     "zero filter",
			filter:   domain.BudgetFilter{},
			wantSQL:  "",
			wantArgs: nil,
		},
		{
			name:     "search escapes like wildcards",
			filter:   domain.BudgetFilter{Search: `50%_off\x`},
			wantSQL:  " WHERE b.title ILIKE $1",
			wantArgs: []any{`%50\%\_off\\x%`},
		},
		{
			name:     "status and branch",
			filter:   domain.BudgetFilter{Status: &status, BranchID: &branch},
			wantSQL:  " WHERE b.status = $1 AND b.branch_id = $2",
			wantArgs: []any{"PENDENTE", "b-7"},
		},
		{
			name:     "date range is half open",
			filter:   domain.BudgetFilter{From: &from, To: &to},
			wantSQL:  " WHERE b.created_at >= $1 AND b.created_at < $2",
			wantArgs: []any{from, to},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &budgetWhere{}
			w.filter(tt.filter)

			assert.Equal(t, tt.wantSQL, w.String())
			assert.Equal(t, tt.wantArgs, w.args)
		})
	}
}

func TestBudgetWhere_ScopeFilterAndCursorNumberArgsInOrder(t *testing.T) {
	status := domain.StatusAwaitingPurchase
	createdAt := time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)
	budgetID := "bud-9"
	filter := domain.BudgetFilter{Status: &status, AfterCreatedAt: &createdAt, AfterBudgetID: &budgetID}

	w := &budgetWhere{}
	w.scope(workflow.Scope{RequesterIDs: []string{"u1"}})
	w.filter(filter)
	w.after(filter)

	assert.Equal(t,
		" WHERE (b.requester_id = ANY($1)) AND b.status = $2 AND (b.created_at, b.budget_id) < ($3, $4)",
		w.String())
	assert.Equal(t, []any{[]string{"u1"}, "AGUARDANDO_COMPRA", createdAt, "bud-9"}, w.args)
}

func TestBudgetWhere_CursorNeedsBothKeys(t *testing.T) {
	createdAt := time.Now()

	w := &budgetWhere{}
	w.after(domain.BudgetFilter{AfterCreatedAt: &createdAt})

	assert.Empty(t, w.String())
}
