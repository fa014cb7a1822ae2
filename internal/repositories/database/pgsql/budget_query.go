package pgsql

import (
	"context"
	"strconv"
	"strings"

	"github.com/SscSPs/budget_approval_app/internal/apperrors"
	"github.com/SscSPs/budget_approval_app/internal/core/domain"
	"github.com/SscSPs/budget_approval_app/internal/core/workflow"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const recentBudgetsInSummary = 10

// budgetWhere accumulates WHERE conditions over the budgets alias b with positional args.
type budgetWhere struct {
	conds []string
	args  []any
}

func (w *budgetWhere) arg(v any) string {
	w.args = append(w.args, v)
	return "$" + strconv.Itoa(len(w.args))
}

func (w *budgetWhere) add(cond string) {
	w.conds = append(w.conds, cond)
}

func (w *budgetWhere) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

// scope restricts rows to what the viewer may see. A scope with no criteria matches nothing.
func (w *budgetWhere) scope(s workflow.Scope) {
	if s.All {
		return
	}
	var clauses []string
	if len(s.RequesterIDs) > 0 {
		clauses = append(clauses, "b.requester_id = ANY("+w.arg(s.RequesterIDs)+")")
	}
	if len(s.CurrentLevelIDs) > 0 {
		clauses = append(clauses, "b.current_level_id = ANY("+w.arg(s.CurrentLevelIDs)+")")
	}
	if s.RequestersHoldingPriority != nil {
		clauses = append(clauses, `b.requester_id IN (
			SELECT ul.user_id FROM user_levels ul
			JOIN levels pl ON pl.level_id = ul.level_id
			WHERE pl.priority = `+w.arg(*s.RequestersHoldingPriority)+` AND pl.is_active)`)
	}
	if len(clauses) == 0 {
		w.add("FALSE")
		return
	}
	w.add("(" + strings.Join(clauses, " OR ") + ")")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (w *budgetWhere) filter(f domain.BudgetFilter) {
	if f.Search != "" {
		w.add("b.title ILIKE " + w.arg("%"+likeEscaper.Replace(f.Search)+"%"))
	}
	if f.Status != nil {
		w.add("b.status = " + w.arg(string(*f.Status)))
	}
	if f.BranchID != nil {
		w.add("b.branch_id = " + w.arg(*f.BranchID))
	}
	if f.From != nil {
		w.add("b.created_at >= " + w.arg(*f.From))
	}
	if f.To != nil {
		w.add("b.created_at < " + w.arg(*f.To))
	}
}

func (w *budgetWhere) after(f domain.BudgetFilter) {
	if f.AfterCreatedAt != nil && f.AfterBudgetID != nil {
		w.add("(b.created_at, b.budget_id) < (" + w.arg(*f.AfterCreatedAt) + ", " + w.arg(*f.AfterBudgetID) + ")")
	}
}

// ListBudgets returns budgets inside scope matching filter, newest first.
func (r *PgxBudgetRepository) ListBudgets(ctx context.Context, scope workflow.Scope, filter domain.BudgetFilter) ([]domain.Budget, error) {
	w := &budgetWhere{}
	w.scope(scope)
	w.filter(filter)
	w.after(filter)

	query := FULL_BUDGET_SELECT_QUERY + w.String() + " ORDER BY b.created_at DESC, b.budget_id DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + w.arg(filter.Limit)
	}

	rows, err := r.Pool.Query(ctx, query, w.args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query budgets", err)
	}
	return collectBudgets(rows)
}

// SummarizeBudgets aggregates the scoped budgets. The grouped counts and the approval
// count go out in one batch.
func (r *PgxBudgetRepository) SummarizeBudgets(ctx context.Context, scope workflow.Scope, filter domain.BudgetFilter) (*domain.BudgetSummary, error) {
	filter.Limit = 0
	filter.AfterCreatedAt = nil
	filter.AfterBudgetID = nil

	w := &budgetWhere{}
	w.scope(scope)
	w.filter(filter)
	where := w.String()

	decided := make([]string, 0, 4)
	for _, s := range []domain.BudgetStatus{domain.StatusApproved, domain.StatusAwaitingPurchase, domain.StatusPurchased, domain.StatusFinished} {
		decided = append(decided, "'"+string(s)+"'")
	}
	approvedFilter := "b.status IN (" + strings.Join(decided, ", ") + ")"
	approvalsWhere := " WHERE " + approvedFilter
	if where != "" {
		approvalsWhere = where + " AND " + approvedFilter
	}

	batch := &pgx.Batch{}
	batch.Queue(`
		SELECT b.status, b.current_level_id, COUNT(*), COALESCE(SUM(b.unit_value * b.quantity), 0)
		FROM budgets b`+where+`
		GROUP BY b.status, b.current_level_id`, w.args...)
	batch.Queue(`
		SELECT COUNT(a.approval_id)
		FROM budget_approvals a
		JOIN budgets b ON b.budget_id = a.budget_id`+approvalsWhere, w.args...)

	summary := &domain.BudgetSummary{
		ByStatus:   make(map[domain.BudgetStatus]int, len(domain.AllBudgetStatuses)),
		ByLevel:    map[string]int{},
		TotalValue: decimal.Zero,
	}

	br := r.Pool.SendBatch(ctx, batch)
	rows, err := br.Query()
	if err != nil {
		br.Close()
		return nil, apperrors.NewAppError(500, "failed to aggregate budgets", err)
	}
	for rows.Next() {
		var (
			status  string
			levelID string
			count   int
			value   decimal.Decimal
		)
		if err := rows.Scan(&status, &levelID, &count, &value); err != nil {
			rows.Close()
			br.Close()
			return nil, apperrors.NewAppError(500, "failed to scan budget aggregate", err)
		}
		summary.Total += count
		summary.ByStatus[domain.BudgetStatus(status)] += count
		summary.ByLevel[levelID] += count
		summary.TotalValue = summary.TotalValue.Add(value)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		br.Close()
		return nil, apperrors.NewAppError(500, "failed to iterate budget aggregates", err)
	}

	var approvals int
	if err := br.QueryRow().Scan(&approvals); err != nil {
		br.Close()
		return nil, apperrors.NewAppError(500, "failed to count approvals", err)
	}
	if err := br.Close(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to close summary batch", err)
	}

	decidedCount := 0
	for _, s := range []domain.BudgetStatus{domain.StatusApproved, domain.StatusAwaitingPurchase, domain.StatusPurchased, domain.StatusFinished} {
		decidedCount += summary.ByStatus[s]
	}
	summary.AverageApprovalCount = decimal.Zero
	if decidedCount > 0 {
		summary.AverageApprovalCount = decimal.NewFromInt(int64(approvals)).
			DivRound(decimal.NewFromInt(int64(decidedCount)), 2)
	}

	filter.Limit = recentBudgetsInSummary
	recent, err := r.ListBudgets(ctx, scope, filter)
	if err != nil {
		return nil, err
	}
	summary.Recent = recent
	return summary, nil
}
