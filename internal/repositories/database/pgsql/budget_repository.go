package pgsql

import (
	"context"
	"fmt"

	"github.com/SscSPs/budget_approval_app/internal/apperrors"
	"github.com/SscSPs/budget_approval_app/internal/core/domain"
	portsrepo "github.com/SscSPs/budget_approval_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxBudgetRepository struct {
	BaseRepository
}

// newPgxBudgetRepository creates a new repository for budgets and their decision records.
func newPgxBudgetRepository(pool *pgxpool.Pool) portsrepo.BudgetRepositoryWithTx {
	return &PgxBudgetRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxBudgetRepository implements portsrepo.BudgetRepositoryWithTx
var _ portsrepo.BudgetRepositoryWithTx = (*PgxBudgetRepository)(nil)

const FULL_BUDGET_SELECT_QUERY = `
SELECT
	b.budget_id, b.title, b.description, b.unit_value, b.quantity, b.supplier,
	b.links, b.photos, b.attachments, b.notes, b.status, b.requester_id, b.branch_id,
	b.current_level_id, b.next_level_id, b.purchase_date, b.delivery_date,
	b.created_at, b.created_by, b.last_updated_at, b.last_updated_by
FROM budgets b
`

func collectBudgets(rows pgx.Rows) ([]domain.Budget, error) {
	defer rows.Close()
	budgets, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.Budget])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect budget rows", err)
	}
	return budgets, nil
}

func (r *PgxBudgetRepository) FindBudgetByID(ctx context.Context, budgetID string) (*domain.Budget, error) {
	rows, err := r.Pool.Query(ctx, FULL_BUDGET_SELECT_QUERY+`WHERE b.budget_id = $1`, budgetID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query budget", err)
	}
	budgets, err := collectBudgets(rows)
	if err != nil {
		return nil, err
	}
	if len(budgets) == 0 {
		return nil, apperrors.NewNotFoundError("budget " + budgetID + " not found")
	}
	return &budgets[0], nil
}

// FindBudgetByIDForUpdate locks the budget row until tx ends.
// Must be called within a transaction.
func (r *PgxBudgetRepository) FindBudgetByIDForUpdate(ctx context.Context, tx pgx.Tx, budgetID string) (*domain.Budget, error) {
	rows, err := tx.Query(ctx, FULL_BUDGET_SELECT_QUERY+`WHERE b.budget_id = $1 FOR UPDATE`, budgetID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to lock budget", err)
	}
	budgets, err := collectBudgets(rows)
	if err != nil {
		return nil, err
	}
	if len(budgets) == 0 {
		return nil, apperrors.NewNotFoundError("budget " + budgetID + " not found")
	}
	return &budgets[0], nil
}

func (r *PgxBudgetRepository) FindApprovals(ctx context.Context, budgetID string) ([]domain.Approval, error) {
	query := `
		SELECT approval_id, budget_id, approver_id, level_id, notes, created_at
		FROM budget_approvals
		WHERE budget_id = $1
		ORDER BY created_at DESC, approval_id DESC;
	`
	rows, err := r.Pool.Query(ctx, query, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query approvals for budget %s: %w", budgetID, err)
	}
	defer rows.Close()
	approvals, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.Approval])
	if err != nil {
		return nil, fmt.Errorf("failed to collect approval rows: %w", err)
	}
	return approvals, nil
}

func (r *PgxBudgetRepository) FindRejections(ctx context.Context, budgetID string) ([]domain.Rejection, error) {
	query := `
		SELECT rejection_id, budget_id, rejector_id, level_id, reason, notes, created_at
		FROM budget_rejections
		WHERE budget_id = $1
		ORDER BY created_at DESC, rejection_id DESC;
	`
	rows, err := r.Pool.Query(ctx, query, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rejections for budget %s: %w", budgetID, err)
	}
	defer rows.Close()
	rejections, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.Rejection])
	if err != nil {
		return nil, fmt.Errorf("failed to collect rejection rows: %w", err)
	}
	return rejections, nil
}

func (r *PgxBudgetRepository) SaveBudget(ctx context.Context, budget domain.Budget) error {
	query := `
		INSERT INTO budgets (
			budget_id, title, description, unit_value, quantity, supplier,
			links, photos, attachments, notes, status, requester_id, branch_id,
			current_level_id, next_level_id, purchase_date, delivery_date,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21);
	`
	_, err := r.Pool.Exec(ctx, query,
		budget.BudgetID,
		budget.Title,
		budget.Description,
		budget.UnitValue,
		budget.Quantity,
		budget.Supplier,
		textArray(budget.Links),
		textArray(budget.Photos),
		textArray(budget.Attachments),
		budget.Notes,
		budget.Status,
		budget.RequesterID,
		budget.BranchID,
		budget.CurrentLevelID,
		budget.NextLevelID,
		budget.PurchaseDate,
		budget.DeliveryDate,
		budget.CreatedAt,
		budget.CreatedBy,
		budget.LastUpdatedAt,
		budget.LastUpdatedBy,
	)
	if err != nil {
		switch pgErrorCode(err) {
		case uniqueViolation:
			return apperrors.NewConflictError("budget " + budget.BudgetID + " already exists")
		case foreignKeyViolation:
			return apperrors.NewValidationFailedError("budget references an unknown requester or level")
		}
		return apperrors.NewAppError(500, "failed to save budget "+budget.BudgetID, err)
	}
	return nil
}

func (r *PgxBudgetRepository) UpdateBudgetInTx(ctx context.Context, tx pgx.Tx, budget domain.Budget) error {
	query := `
		UPDATE budgets
		SET title = $1, description = $2, unit_value = $3, quantity = $4, supplier = $5,
			links = $6, photos = $7, attachments = $8, notes = $9, status = $10, branch_id = $11,
			current_level_id = $12, next_level_id = $13, purchase_date = $14, delivery_date = $15,
			last_updated_at = $16, last_updated_by = $17
		WHERE budget_id = $18;
	`
	cmdTag, err := tx.Exec(ctx, query,
		budget.Title,
		budget.Description,
		budget.UnitValue,
		budget.Quantity,
		budget.Supplier,
		textArray(budget.Links),
		textArray(budget.Photos),
		textArray(budget.Attachments),
		budget.Notes,
		budget.Status,
		budget.BranchID,
		budget.CurrentLevelID,
		budget.NextLevelID,
		budget.PurchaseDate,
		budget.DeliveryDate,
		budget.LastUpdatedAt,
		budget.LastUpdatedBy,
		budget.BudgetID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to update budget "+budget.BudgetID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("budget " + budget.BudgetID + " not found")
	}
	return nil
}

func (r *PgxBudgetRepository) SaveApprovalInTx(ctx context.Context, tx pgx.Tx, approval domain.Approval) error {
	query := `
		INSERT INTO budget_approvals (approval_id, budget_id, approver_id, level_id, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := tx.Exec(ctx, query,
		approval.ApprovalID,
		approval.BudgetID,
		approval.ApproverID,
		approval.LevelID,
		approval.Notes,
		approval.CreatedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save approval for budget "+approval.BudgetID, err)
	}
	return nil
}

func (r *PgxBudgetRepository) SaveRejectionInTx(ctx context.Context, tx pgx.Tx, rejection domain.Rejection) error {
	query := `
		INSERT INTO budget_rejections (rejection_id, budget_id, rejector_id, level_id, reason, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := tx.Exec(ctx, query,
		rejection.RejectionID,
		rejection.BudgetID,
		rejection.RejectorID,
		rejection.LevelID,
		rejection.Reason,
		rejection.Notes,
		rejection.CreatedAt,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to save rejection for budget "+rejection.BudgetID, err)
	}
	return nil
}

// DeleteBudgetInTx removes the budget. Its decision records go with it through ON DELETE CASCADE.
func (r *PgxBudgetRepository) DeleteBudgetInTx(ctx context.Context, tx pgx.Tx, budgetID string) error {
	cmdTag, err := tx.Exec(ctx, `DELETE FROM budgets WHERE budget_id = $1;`, budgetID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete budget "+budgetID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("budget " + budgetID + " not found")
	}
	return nil
}

func (r *PgxBudgetRepository) CountOpenBudgetsAtLevel(ctx context.Context, levelID string) (int, error) {
	var count int
	err := r.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM budgets WHERE current_level_id = $1 AND status = ANY($2);`,
		levelID, []string{string(domain.StatusPending), string(domain.StatusAwaitingPurchase), string(domain.StatusPurchased)},
	).Scan(&count)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to count budgets at level "+levelID, err)
	}
	return count, nil
}

// DeleteAllBudgets removes every budget. Decision records cascade.
func (r *PgxBudgetRepository) DeleteAllBudgets(ctx context.Context) (int64, error) {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM budgets;`)
	if err != nil {
		return 0, apperrors.NewAppError(500, "failed to clear budgets", err)
	}
	return cmdTag.RowsAffected(), nil
}

// textArray keeps NOT NULL array columns from receiving NULL.
func textArray(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
