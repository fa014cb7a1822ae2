package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/budget_approval_app/internal/core/domain"
	"github.com/SscSPs/budget_approval_app/internal/core/workflow"
	"github.com/SscSPs/budget_approval_app/internal/dto"
	"github.com/SscSPs/budget_approval_app/internal/utils/pagination"
)

func (s *budgetService) GetBudget(ctx context.Context, actorID, budgetID string) (*domain.BudgetDetail, error) {
	if _, err := s.Actor(ctx, actorID); err != nil {
		return nil, err
	}
	budget, err := s.budgetRepo.FindBudgetByID(ctx, budgetID)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to get budget", slog.String("budget_id", budgetID))
		return nil, fmt.Errorf("failed to get budget %s: %w", budgetID, err)
	}
	approvals, err := s.budgetRepo.FindApprovals(ctx, budgetID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load approvals", slog.String("budget_id", budgetID))
		return nil, fmt.Errorf("failed to load approvals for budget %s: %w", budgetID, err)
	}
	rejections, err := s.budgetRepo.FindRejections(ctx, budgetID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load rejections", slog.String("budget_id", budgetID))
		return nil, fmt.Errorf("failed to load rejections for budget %s: %w", budgetID, err)
	}
	return &domain.BudgetDetail{Budget: *budget, Approvals: approvals, Rejections: rejections}, nil
}

func (s *budgetService) ListVisible(ctx context.Context, actorID string, params dto.ListBudgetsParams) (*dto.ListBudgetsResponse, error) {
	actor, err := s.Actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	filter, err := toBudgetFilter(params)
	if err != nil {
		return nil, err
	}

	limit := pagination.ClampLimit(params.Limit, s.defaultPageSize, s.maxPageSize)
	if params.NextToken != "" {
		createdAt, id, err := pagination.DecodeToken(params.NextToken)
		if err != nil {
			return nil, validationError("invalid nextToken: %v", err)
		}
		filter.AfterCreatedAt = &createdAt
		filter.AfterBudgetID = &id
	}
	// One extra row tells whether another page exists.
	filter.Limit = limit + 1

	budgets, err := s.budgetRepo.ListBudgets(ctx, workflow.VisibleScope(*actor), filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to list budgets")
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}

	resp := &dto.ListBudgetsResponse{}
	if len(budgets) > limit {
		budgets = budgets[:limit]
		last := budgets[len(budgets)-1]
		token := pagination.EncodeToken(last.CreatedAt, last.BudgetID)
		resp.NextToken = &token
	}
	resp.Budgets = dto.ToBudgetResponses(budgets)
	return resp, nil
}

func (s *budgetService) ListPendingFor(ctx context.Context, actorID string) ([]domain.Budget, error) {
	actor, err := s.Actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	levelIDs := workflow.PendingLevelIDs(*actor)
	if len(levelIDs) == 0 {
		return []domain.Budget{}, nil
	}
	return s.listQueue(ctx, workflow.Scope{CurrentLevelIDs: levelIDs}, domain.StatusPending)
}

func (s *budgetService) ListAwaitingPurchase(ctx context.Context, actorID string) ([]domain.Budget, error) {
	actor, err := s.Actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !workflow.SeesPurchasingQueues(*actor) {
		return []domain.Budget{}, nil
	}
	return s.listQueue(ctx, workflow.Scope{All: true}, domain.StatusAwaitingPurchase)
}

func (s *budgetService) ListReadyToClose(ctx context.Context, actorID string) ([]domain.Budget, error) {
	actor, err := s.Actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !workflow.SeesPurchasingQueues(*actor) {
		return []domain.Budget{}, nil
	}
	return s.listQueue(ctx, workflow.Scope{All: true}, domain.StatusPurchased)
}

func (s *budgetService) listQueue(ctx context.Context, scope workflow.Scope, status domain.BudgetStatus) ([]domain.Budget, error) {
	budgets, err := s.budgetRepo.ListBudgets(ctx, scope, domain.BudgetFilter{Status: &status})
	if err != nil {
		s.LogError(ctx, err, "Failed to list budget queue", slog.String("status", string(status)))
		return nil, fmt.Errorf("failed to list %s budgets: %w", status, err)
	}
	if budgets == nil {
		budgets = []domain.Budget{}
	}
	return budgets, nil
}

func (s *budgetService) Summary(ctx context.Context, actorID string, params dto.ListBudgetsParams) (*domain.BudgetSummary, error) {
	actor, err := s.Actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	filter, err := toBudgetFilter(params)
	if err != nil {
		return nil, err
	}
	summary, err := s.budgetRepo.SummarizeBudgets(ctx, workflow.VisibleScope(*actor), filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to summarize budgets")
		return nil, fmt.Errorf("failed to summarize budgets: %w", err)
	}
	return summary, nil
}

// toBudgetFilter validates listing parameters. The To date is inclusive, so the
// filter bound is the start of the following day.
func toBudgetFilter(params dto.ListBudgetsParams) (domain.BudgetFilter, error) {
	filter := domain.BudgetFilter{Search: strings.TrimSpace(params.Q)}
	if params.Status != "" {
		status := domain.BudgetStatus(strings.ToUpper(params.Status))
		if !status.IsValid() {
			return filter, validationError("unknown status %q", params.Status)
		}
		filter.Status = &status
	}
	if branch := strings.TrimSpace(params.BranchID); branch != "" {
		filter.BranchID = &branch
	}
	if params.From != nil {
		from := params.From.UTC()
		filter.From = &from
	}
	if params.To != nil {
		to := params.To.UTC().Add(24 * time.Hour)
		filter.To = &to
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return filter, validationError("from must not be after to")
	}
	return filter, nil
}
