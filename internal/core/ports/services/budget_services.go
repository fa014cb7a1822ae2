package services

import (
	"context"

	"github.com/SscSPs/budget_approval_app/internal/core/domain"
	"github.com/SscSPs/budget_approval_app/internal/dto"
)

// BudgetWorkflowSvc drives a budget through its lifecycle.
type BudgetWorkflowSvc interface {
	CreateBudget(ctx context.Context, actorID string, req dto.CreateBudgetRequest) (*domain.Budget, error)
	Approve(ctx context.Context, actorID, budgetID string, notes *string) (*domain.Budget, error)
	Reject(ctx context.Context, actorID, budgetID, reason string, notes *string) (*domain.Budget, error)
	MarkPurchased(ctx context.Context, actorID, budgetID string) (*domain.Budget, error)
	Close(ctx context.Context, actorID, budgetID string) (*domain.Budget, error)
}

// BudgetEditorSvc covers requester-owned edits and maintenance deletes.
type BudgetEditorSvc interface {
	UpdateBudget(ctx context.Context, actorID, budgetID string, req dto.UpdateBudgetRequest) (*domain.Budget, error)
	DeleteBudget(ctx context.Context, actorID, budgetID string) error
	ClearAllBudgets(ctx context.Context, actorID string) (int64, error)
}

// BudgetQuerySvc lists budgets through the visibility scope.
type BudgetQuerySvc interface {
	// GetBudget is not restricted by the visibility scope.
	GetBudget(ctx context.Context, actorID, budgetID string) (*domain.BudgetDetail, error)
	ListVisible(ctx context.Context, actorID string, params dto.ListBudgetsParams) (*dto.ListBudgetsResponse, error)
	ListPendingFor(ctx context.Context, actorID string) ([]domain.Budget, error)
	ListAwaitingPurchase(ctx context.Context, actorID string) ([]domain.Budget, error)
	ListReadyToClose(ctx context.Context, actorID string) ([]domain.Budget, error)
	Summary(ctx context.Context, actorID string, params dto.ListBudgetsParams) (*domain.BudgetSummary, error)
}

// BudgetSvcFacade combines all budget-related service interfaces
type BudgetSvcFacade interface {
	BudgetWorkflowSvc
	BudgetEditorSvc
	BudgetQuerySvc
}
