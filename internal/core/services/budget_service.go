package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/budget_approval_app/internal/apperrors"
	"github.com/SscSPs/budget_approval_app/internal/core/domain"
	portsrepo "github.com/SscSPs/budget_approval_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/budget_approval_app/internal/core/ports/services"
	"github.com/SscSPs/budget_approval_app/internal/core/workflow"
	"github.com/SscSPs/budget_approval_app/internal/dto"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type budgetService struct {
	BaseService
	budgetRepo        portsrepo.BudgetRepositoryWithTx
	userRepo          portsrepo.UserReader
	levelRepo         portsrepo.LevelRepositoryFacade
	requireFinalLevel bool
	defaultPageSize   int
	maxPageSize       int
	now               func() time.Time
}

// BudgetServiceOption is a functional option for configuring the budget service
type BudgetServiceOption func(*budgetService)

// WithBudgetActorResolver sets how acting users are resolved.
func WithBudgetActorResolver(resolver portssvc.ActorResolverSvc) BudgetServiceOption {
	return func(s *budgetService) {
		s.ActorResolver = resolver
	}
}

// WithRequireFinalLevel makes approvals fail when no purchasing level is configured.
func WithRequireFinalLevel(require bool) BudgetServiceOption {
	return func(s *budgetService) {
		s.requireFinalLevel = require
	}
}

// WithPageSizes sets the default and maximum listing page size.
func WithPageSizes(def, max int) BudgetServiceOption {
	return func(s *budgetService) {
		s.defaultPageSize = def
		s.maxPageSize = max
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) BudgetServiceOption {
	return func(s *budgetService) {
		s.now = now
	}
}

// NewBudgetService creates the budget workflow service.
func NewBudgetService(
	budgetRepo portsrepo.BudgetRepositoryWithTx,
	userRepo portsrepo.UserReader,
	levelRepo portsrepo.LevelRepositoryFacade,
	options ...BudgetServiceOption,
) portssvc.BudgetSvcFacade {
	svc := &budgetService{
		budgetRepo:      budgetRepo,
		userRepo:        userRepo,
		levelRepo:       levelRepo,
		defaultPageSize: 20,
		maxPageSize:     100,
		now:             func() time.Time { return time.Now().UTC() },
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.BudgetSvcFacade = (*budgetService)(nil)

// routerFor builds the routing strategy of requesterID together with the level graph.
func (s *budgetService) routerFor(ctx context.Context, requesterID string) (workflow.Router, *workflow.LevelGraph, error) {
	levels, err := s.levelRepo.ListLevels(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list levels: %w", err)
	}
	rules, err := s.levelRepo.ListFlowRules(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list flow rules: %w", err)
	}
	flow, err := s.levelRepo.FindUserFlow(ctx, requesterID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load flow for requester %s: %w", requesterID, err)
	}
	held, err := s.userRepo.FindLevelsForUser(ctx, requesterID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load levels for requester %s: %w", requesterID, err)
	}

	graph := workflow.NewLevelGraph(levels, rules)
	return workflow.NewRouter(workflow.RouteInput{Flow: flow, HeldLevels: held, Graph: graph}), graph, nil
}

func (s *budgetService) CreateBudget(ctx context.Context, actorID string, req dto.CreateBudgetRequest) (*domain.Budget, error) {
	actor, err := s.Actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.Guard.CanCreate(*actor); err != nil {
		s.LogWarn(ctx, err, "Budget creation refused")
		return nil, err
	}

	now := s.now()
	budget := domain.Budget{
		BudgetID:    uuid.NewString(),
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		UnitValue:   req.UnitValue,
		Quantity:    req.Quantity,
		Supplier:    req.Supplier,
		Links:       req.Links,
		Photos:      req.Photos,
		Attachments: req.Attachments,
		Notes:       req.Notes,
		Status:      domain.StatusPending,
		RequesterID: actor.UserID,
		BranchID:    strings.TrimSpace(req.BranchID),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: actor.UserID,
		},
	}
	if err := validateBudget(budget); err != nil {
		return nil, err
	}

	router, _, err := s.routerFor(ctx, actor.UserID)
	if err != nil {
		s.LogError(ctx, err, "Failed to build route for requester")
		return nil, err
	}
	placement, err := router.InitialLevel()
	if err != nil {
		s.LogWarn(ctx, err, "Requester has no route into the workflow")
		return nil, err
	}
	budget.CurrentLevelID = placement.CurrentLevelID
	budget.NextLevelID = placement.NextLevelID

	if err := s.budgetRepo.SaveBudget(ctx, budget); err != nil {
		s.LogError(ctx, err, "Failed to save budget")
		return nil, fmt.Errorf("failed to create budget: %w", err)
	}

	s.LogInfo(ctx, "Budget created",
		slog.String("budget_id", budget.BudgetID),
		slog.String("current_level_id", budget.CurrentLevelID),
		slog.Bool("personalized_flow", router.Personalized()))
	return &budget, nil
}

func (s *budgetService) Approve(ctx context.Context, actorID, budgetID string, notes *string) (*domain.Budget, error) {
	return s.transition(ctx, actorID, budgetID, domain.ActionApprove, func(tx pgx.Tx, actor domain.Actor, b *domain.Budget, now time.Time) error {
		if err := s.Guard.CanApprove(actor, *b); err != nil {
			return err
		}
		// Routing always follows the requester, never the approver.
		router, graph, err := s.routerFor(ctx, b.RequesterID)
		if err != nil {
			return err
		}
		decidedAt := b.CurrentLevelID
		sm := workflow.StateMachine{Graph: graph, RequireFinalLevel: s.requireFinalLevel}
		if err := sm.Approve(b, router, now); err != nil {
			return err
		}
		return s.budgetRepo.SaveApprovalInTx(ctx, tx, domain.Approval{
			ApprovalID: uuid.NewString(),
			BudgetID:   b.BudgetID,
			ApproverID: actor.UserID,
			LevelID:    decidedAt,
			Notes:      notes,
			CreatedAt:  now,
		})
	})
}

func (s *budgetService) Reject(ctx context.Context, actorID, budgetID, reason string, notes *string) (*domain.Budget, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, validationError("a rejection reason is required")
	}
	return s.transition(ctx, actorID, budgetID, domain.ActionReject, func(tx pgx.Tx, actor domain.Actor, b *domain.Budget, now time.Time) error {
		if err := s.Guard.CanReject(actor, *b); err != nil {
			return err
		}
		decidedAt := b.CurrentLevelID
		if err := (workflow.StateMachine{}).Reject(b, now); err != nil {
			return err
		}
		return s.budgetRepo.SaveRejectionInTx(ctx, tx, domain.Rejection{
			RejectionID: uuid.NewString(),
			BudgetID:    b.BudgetID,
			RejectorID:  actor.UserID,
			LevelID:     decidedAt,
			Reason:      reason,
			Notes:       notes,
			CreatedAt:   now,
		})
	})
}

func (s *budgetService) MarkPurchased(ctx context.Context, actorID, budgetID string) (*domain.Budget, error) {
	return s.transition(ctx, actorID, budgetID, domain.ActionMarkPurchased, func(_ pgx.Tx, actor domain.Actor, b *domain.Budget, now time.Time) error {
		if err := s.Guard.CanMarkPurchased(actor, *b); err != nil {
			return err
		}
		return (workflow.StateMachine{}).MarkPurchased(b, now)
	})
}

func (s *budgetService) Close(ctx context.Context, actorID, budgetID string) (*domain.Budget, error) {
	return s.transition(ctx, actorID, budgetID, domain.ActionClose, func(_ pgx.Tx, actor domain.Actor, b *domain.Budget, now time.Time) error {
		if err := s.Guard.CanClose(actor, *b); err != nil {
			return err
		}
		return (workflow.StateMachine{}).Close(b, now)
	})
}

func (s *budgetService) UpdateBudget(ctx context.Context, actorID, budgetID string, req dto.UpdateBudgetRequest) (*domain.Budget, error) {
	return s.transition(ctx, actorID, budgetID, domain.ActionEdit, func(_ pgx.Tx, actor domain.Actor, b *domain.Budget, now time.Time) error {
		router, _, err := s.routerFor(ctx, b.RequesterID)
		if err != nil {
			return err
		}
		initial, err := router.InitialLevel()
		if err != nil {
			if errors.Is(err, apperrors.ErrNoLevelAssigned) {
				return apperrors.NewForbiddenError("requester no longer has an initial level")
			}
			return err
		}
		if err := s.Guard.CanEdit(actor, *b, initial.CurrentLevelID); err != nil {
			return err
		}
		if err := workflow.CheckAction(b.Status, domain.ActionEdit); err != nil {
			return err
		}
		applyBudgetUpdate(b, req)
		b.LastUpdatedAt = now
		b.LastUpdatedBy = actor.UserID
		return validateBudget(*b)
	})
}

func (s *budgetService) DeleteBudget(ctx context.Context, actorID, budgetID string) error {
	actor, err := s.Actor(ctx, actorID)
	if err != nil {
		return err
	}
	logger := s.GetLogger(ctx).With(slog.String("budget_id", budgetID))

	tx, err := s.budgetRepo.Begin(ctx)
	if err != nil {
		logger.Error("Failed to begin transaction", slog.String("error", err.Error()))
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = s.budgetRepo.Rollback(ctx, tx) }()

	b, err := s.budgetRepo.FindBudgetByIDForUpdate(ctx, tx, budgetID)
	if err != nil {
		return fmt.Errorf("failed to find budget %s: %w", budgetID, err)
	}
	if err := s.Guard.CanDelete(*actor, *b); err != nil {
		logger.Warn("Budget delete refused", slog.String("error", err.Error()))
		return err
	}
	if err := workflow.CheckAction(b.Status, domain.ActionDelete); err != nil {
		logger.Warn("Budget delete refused", slog.String("error", err.Error()))
		return err
	}
	if err := s.budgetRepo.DeleteBudgetInTx(ctx, tx, budgetID); err != nil {
		logger.Error("Failed to delete budget", slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete budget %s: %w", budgetID, err)
	}
	if err := s.budgetRepo.Commit(ctx, tx); err != nil {
		return fmt.Errorf("failed to commit budget delete: %w", err)
	}
	logger.Info("Budget deleted")
	return nil
}

func (s *budgetService) ClearAllBudgets(ctx context.Context, actorID string) (int64, error) {
	if _, err := s.Admin(ctx, actorID); err != nil {
		return 0, err
	}
	n, err := s.budgetRepo.DeleteAllBudgets(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to clear budgets")
		return 0, fmt.Errorf("failed to clear budgets: %w", err)
	}
	s.GetLogger(ctx).Warn("All budgets cleared", slog.Int64("deleted", n))
	return n, nil
}

// transitionFunc mutates a locked budget and writes any audit record within tx.
type transitionFunc func(tx pgx.Tx, actor domain.Actor, b *domain.Budget, now time.Time) error

// transition runs apply against the budget row locked FOR UPDATE and persists the
// result in the same transaction. The audit record commits with the status change or not at all.
func (s *budgetService) transition(ctx context.Context, actorID, budgetID string, action domain.BudgetAction, apply transitionFunc) (*domain.Budget, error) {
	actor, err := s.Actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	logger := s.GetLogger(ctx).With(
		slog.String("budget_id", budgetID),
		slog.String("action", string(action)),
	)

	tx, err := s.budgetRepo.Begin(ctx)
	if err != nil {
		logger.Error("Failed to begin transaction", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = s.budgetRepo.Rollback(ctx, tx) }()

	b, err := s.budgetRepo.FindBudgetByIDForUpdate(ctx, tx, budgetID)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to lock budget", slog.String("budget_id", budgetID))
		return nil, fmt.Errorf("failed to find budget %s: %w", budgetID, err)
	}
	from := b.Status

	if err := apply(tx, *actor, b, s.now()); err != nil {
		if isCallerError(err) {
			logger.Warn("Budget action refused", slog.String("status", string(from)), slog.String("error", err.Error()))
		} else {
			logger.Error("Budget action failed", slog.String("error", err.Error()))
		}
		return nil, err
	}
	b.LastUpdatedBy = actor.UserID

	if err := s.budgetRepo.UpdateBudgetInTx(ctx, tx, *b); err != nil {
		logger.Error("Failed to persist budget", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to update budget %s: %w", budgetID, err)
	}
	if err := s.budgetRepo.Commit(ctx, tx); err != nil {
		logger.Error("Failed to commit budget transition", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to commit budget %s: %w", budgetID, err)
	}

	logger.Info("Budget transition applied",
		slog.String("from_status", string(from)),
		slog.String("to_status", string(b.Status)),
		slog.String("current_level_id", b.CurrentLevelID))
	return b, nil
}

func applyBudgetUpdate(b *domain.Budget, req dto.UpdateBudgetRequest) {
	if req.Title != nil {
		b.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		b.Description = strings.TrimSpace(*req.Description)
	}
	if req.UnitValue != nil {
		b.UnitValue = *req.UnitValue
	}
	if req.Quantity != nil {
		b.Quantity = *req.Quantity
	}
	if req.BranchID != nil {
		b.BranchID = strings.TrimSpace(*req.BranchID)
	}
	if req.Supplier != nil {
		b.Supplier = req.Supplier
	}
	if req.Links != nil {
		b.Links = *req.Links
	}
	if req.Photos != nil {
		b.Photos = *req.Photos
	}
	if req.Attachments != nil {
		b.Attachments = *req.Attachments
	}
	if req.Notes != nil {
		b.Notes = req.Notes
	}
}

func validateBudget(b domain.Budget) error {
	switch {
	case b.Title == "":
		return validationError("title is required")
	case b.Description == "":
		return validationError("description is required")
	case !b.UnitValue.IsPositive():
		return validationError("unit value must be greater than zero")
	case b.Quantity < 1:
		return validationError("quantity must be at least 1")
	case b.BranchID == "":
		return validationError("branch is required")
	}
	return nil
}
