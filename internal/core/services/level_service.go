package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/budget_approval_app/internal/apperrors"
	"github.com/SscSPs/budget_approval_app/internal/core/domain"
	portsrepo "github.com/SscSPs/budget_approval_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/budget_approval_app/internal/core/ports/services"
	"github.com/SscSPs/budget_approval_app/internal/dto"
	"github.com/google/uuid"
)

type levelService struct {
	BaseService
	levelRepo  portsrepo.LevelRepositoryFacade
	budgetRepo portsrepo.BudgetReader
}

// NewLevelService creates the level administration service.
func NewLevelService(levelRepo portsrepo.LevelRepositoryFacade, budgetRepo portsrepo.BudgetReader, resolver portssvc.ActorResolverSvc) portssvc.LevelSvcFacade {
	return &levelService{
		BaseService: BaseService{ActorResolver: resolver},
		levelRepo:   levelRepo,
		budgetRepo:  budgetRepo,
	}
}

var _ portssvc.LevelSvcFacade = (*levelService)(nil)

func (s *levelService) GetLevel(ctx context.Context, actorID, levelID string) (*domain.Level, error) {
	if _, err := s.Actor(ctx, actorID); err != nil {
		return nil, err
	}
	level, err := s.levelRepo.FindLevelByID(ctx, levelID)
	if err != nil {
		return nil, fmt.Errorf("failed to find level %s: %w", levelID, err)
	}
	return level, nil
}

func (s *levelService) ListLevels(ctx context.Context, actorID string) ([]domain.Level, error) {
	if _, err := s.Actor(ctx, actorID); err != nil {
		return nil, err
	}
	levels, err := s.levelRepo.ListLevels(ctx)
	if err != nil {
		s.LogError(ctx, err, "Failed to list levels")
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}
	return levels, nil
}

func (s *levelService) ListFlowRules(ctx context.Context, actorID, levelID string) ([]domain.FlowRule, error) {
	if _, err := s.Actor(ctx, actorID); err != nil {
		return nil, err
	}
	if _, err := s.levelRepo.FindLevelByID(ctx, levelID); err != nil {
		return nil, fmt.Errorf("failed to find level %s: %w", levelID, err)
	}
	rules, err := s.levelRepo.ListFlowRulesForLevel(ctx, levelID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list flow rules", slog.String("level_id", levelID))
		return nil, fmt.Errorf("failed to list flow rules for level %s: %w", levelID, err)
	}
	return rules, nil
}

func (s *levelService) CreateLevel(ctx context.Context, actorID string, req dto.CreateLevelRequest) (*domain.Level, error) {
	if _, err := s.Admin(ctx, actorID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	level := domain.Level{
		LevelID:         uuid.NewString(),
		Name:            strings.TrimSpace(req.Name),
		Priority:        req.Priority,
		CanCreateBudget: boolOr(req.CanCreateBudget, true),
		CanApprove:      boolOr(req.CanApprove, false),
		IsFinalLevel:    boolOr(req.IsFinalLevel, false),
		IsActive:        true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}
	if level.Name == "" {
		return nil, validationError("level name is required")
	}
	if level.Priority < 1 {
		return nil, validationError("priority must be at least 1")
	}
	if err := s.ensureSingleFinalLevel(ctx, level); err != nil {
		return nil, err
	}

	if err := s.levelRepo.SaveLevel(ctx, level); err != nil {
		s.LogFailure(ctx, err, "Failed to save level", slog.Int("priority", level.Priority))
		return nil, fmt.Errorf("failed to create level: %w", err)
	}
	s.LogInfo(ctx, "Level created", slog.String("level_id", level.LevelID), slog.Int("priority", level.Priority))
	return &level, nil
}

func (s *levelService) UpdateLevel(ctx context.Context, actorID, levelID string, req dto.UpdateLevelRequest) (*domain.Level, error) {
	if _, err := s.Admin(ctx, actorID); err != nil {
		return nil, err
	}
	level, err := s.levelRepo.FindLevelByID(ctx, levelID)
	if err != nil {
		return nil, fmt.Errorf("failed to find level %s: %w", levelID, err)
	}

	wasActive := level.IsActive

	if req.Name != nil {
		level.Name = strings.TrimSpace(*req.Name)
	}
	if req.Priority != nil {
		level.Priority = *req.Priority
	}
	level.CanCreateBudget = boolOr(req.CanCreateBudget, level.CanCreateBudget)
	level.CanApprove = boolOr(req.CanApprove, level.CanApprove)
	level.IsFinalLevel = boolOr(req.IsFinalLevel, level.IsFinalLevel)
	level.IsActive = boolOr(req.IsActive, level.IsActive)
	level.LastUpdatedAt = time.Now().UTC()
	level.LastUpdatedBy = actorID

	if level.Name == "" {
		return nil, validationError("level name is required")
	}
	if level.Priority < 1 {
		return nil, validationError("priority must be at least 1")
	}
	if wasActive && !level.IsActive {
		open, err := s.budgetRepo.CountOpenBudgetsAtLevel(ctx, levelID)
		if err != nil {
			s.LogError(ctx, err, "Failed to count budgets at level", slog.String("level_id", levelID))
			return nil, fmt.Errorf("failed to check budgets at level %s: %w", levelID, err)
		}
		if open > 0 {
			return nil, validationError("level %s still holds %d open budgets", level.Name, open)
		}
	}
	if err := s.ensureSingleFinalLevel(ctx, *level); err != nil {
		return nil, err
	}

	if err := s.levelRepo.UpdateLevel(ctx, *level); err != nil {
		s.LogFailure(ctx, err, "Failed to update level", slog.String("level_id", levelID))
		return nil, fmt.Errorf("failed to update level %s: %w", levelID, err)
	}
	s.LogInfo(ctx, "Level updated", slog.String("level_id", levelID))
	return level, nil
}

func (s *levelService) DeleteLevel(ctx context.Context, actorID, levelID string) error {
	if _, err := s.Admin(ctx, actorID); err != nil {
		return err
	}
	if err := s.levelRepo.DeleteLevel(ctx, levelID); err != nil {
		s.LogFailure(ctx, err, "Failed to delete level", slog.String("level_id", levelID))
		return fmt.Errorf("failed to delete level %s: %w", levelID, err)
	}
	s.LogInfo(ctx, "Level deleted", slog.String("level_id", levelID))
	return nil
}

func (s *levelService) CreateFlowRule(ctx context.Context, actorID, levelID string, req dto.CreateFlowRuleRequest) (*domain.FlowRule, error) {
	if _, err := s.Admin(ctx, actorID); err != nil {
		return nil, err
	}
	if levelID == req.DestinationLevelID {
		return nil, validationError("a level cannot promote to itself")
	}
	if _, err := s.levelRepo.FindLevelByID(ctx, levelID); err != nil {
		return nil, fmt.Errorf("failed to find origin level %s: %w", levelID, err)
	}
	if _, err := s.levelRepo.FindLevelByID(ctx, req.DestinationLevelID); err != nil {
		return nil, fmt.Errorf("failed to find destination level %s: %w", req.DestinationLevelID, err)
	}

	rule := domain.FlowRule{
		RuleID:             uuid.NewString(),
		OriginLevelID:      levelID,
		DestinationLevelID: req.DestinationLevelID,
		CreatedAt:          time.Now().UTC(),
		CreatedBy:          actorID,
	}
	if err := s.levelRepo.SaveFlowRule(ctx, rule); err != nil {
		s.LogFailure(ctx, err, "Failed to save flow rule", slog.String("origin_level_id", levelID))
		return nil, fmt.Errorf("failed to create flow rule: %w", err)
	}
	s.LogInfo(ctx, "Flow rule created",
		slog.String("rule_id", rule.RuleID),
		slog.String("origin_level_id", rule.OriginLevelID),
		slog.String("destination_level_id", rule.DestinationLevelID))
	return &rule, nil
}

func (s *levelService) DeleteFlowRule(ctx context.Context, actorID, levelID, ruleID string) error {
	if _, err := s.Admin(ctx, actorID); err != nil {
		return err
	}
	if err := s.levelRepo.DeleteFlowRule(ctx, levelID, ruleID); err != nil {
		s.LogFailure(ctx, err, "Failed to delete flow rule", slog.String("rule_id", ruleID))
		return fmt.Errorf("failed to delete flow rule %s: %w", ruleID, err)
	}
	return nil
}

// ensureSingleFinalLevel refuses to leave more than one active purchasing level.
func (s *levelService) ensureSingleFinalLevel(ctx context.Context, candidate domain.Level) error {
	if !candidate.IsFinalLevel || !candidate.IsActive {
		return nil
	}
	levels, err := s.levelRepo.ListLevels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list levels: %w", err)
	}
	for _, l := range levels {
		if l.LevelID != candidate.LevelID && l.IsActive && l.IsFinalLevel {
			return fmt.Errorf("%w: level %s is already the purchasing level", apperrors.ErrMisconfiguredFinalLevel, l.Name)
		}
	}
	return nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
