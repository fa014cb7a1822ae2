package repositories

import (
	"context"

	"github.com/SscSPs/budget_approval_app/internal/core/domain"
	"github.com/SscSPs/budget_approval_app/internal/core/workflow"
	"github.com/jackc/pgx/v5"
)

// BudgetReader defines read operations for budgets and their audit records.
type BudgetReader interface {
	FindBudgetByID(ctx context.Context, budgetID string) (*domain.Budget, error)

	// FindApprovals and FindRejections return the audit trail newest first.
	FindApprovals(ctx context.Context, budgetID string) ([]domain.Approval, error)
	FindRejections(ctx context.Context, budgetID string) ([]domain.Rejection, error)

	// ListBudgets returns budgets inside scope matching filter, newest first.
	// A zero filter.Limit means no limit.
	ListBudgets(ctx context.Context, scope workflow.Scope, filter domain.BudgetFilter) ([]domain.Budget, error)

	// CountOpenBudgetsAtLevel counts non-terminal budgets currently sitting at levelID.
	CountOpenBudgetsAtLevel(ctx context.Context, levelID string) (int, error)

	// SummarizeBudgets aggregates budgets inside scope matching filter. Limit and cursor are ignored.
	SummarizeBudgets(ctx context.Context, scope workflow.Scope, filter domain.BudgetFilter) (*domain.BudgetSummary, error)
}

// BudgetWriter defines non-transactional write operations.
type BudgetWriter interface {
	SaveBudget(ctx context.Context, budget domain.Budget) error

	// DeleteAllBudgets removes every budget with its audit records and returns how many budgets went.
	DeleteAllBudgets(ctx context.Context) (int64, error)
}

// BudgetTxWriter holds the operations that make up one workflow transition.
// The budget row is locked by FindBudgetByIDForUpdate until the transaction ends.
type BudgetTxWriter interface {
	FindBudgetByIDForUpdate(ctx context.Context, tx pgx.Tx, budgetID string) (*domain.Budget, error)
	UpdateBudgetInTx(ctx context.Context, tx pgx.Tx, budget domain.Budget) error
	SaveApprovalInTx(ctx context.Context, tx pgx.Tx, approval domain.Approval) error
	SaveRejectionInTx(ctx context.Context, tx pgx.Tx, rejection domain.Rejection) error
	DeleteBudgetInTx(ctx context.Context, tx pgx.Tx, budgetID string) error
}

// BudgetRepositoryWithTx combines all budget repository interfaces with transaction support.
type BudgetRepositoryWithTx interface {
	BudgetReader
	BudgetWriter
	BudgetTxWriter
	TransactionManager
}
