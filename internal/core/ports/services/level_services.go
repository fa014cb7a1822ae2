package services

import (
	"context"

	"github.com/SscSPs/budget_approval_app/internal/core/domain"
	"github.com/SscSPs/budget_approval_app/internal/dto"
)

// LevelReaderSvc defines read operations on levels. Any active user may read them.
type LevelReaderSvc interface {
	GetLevel(ctx context.Context, actorID, levelID string) (*domain.Level, error)
	ListLevels(ctx context.Context, actorID string) ([]domain.Level, error)
	ListFlowRules(ctx context.Context, actorID, levelID string) ([]domain.FlowRule, error)
}

// LevelWriterSvc defines admin-only level and flow rule changes.
type LevelWriterSvc interface {
	CreateLevel(ctx context.Context, actorID string, req dto.CreateLevelRequest) (*domain.Level, error)
	UpdateLevel(ctx context.Context, actorID, levelID string, req dto.UpdateLevelRequest) (*domain.Level, error)
	DeleteLevel(ctx context.Context, actorID, levelID string) error
	CreateFlowRule(ctx context.Context, actorID, levelID string, req dto.CreateFlowRuleRequest) (*domain.FlowRule, error)
	DeleteFlowRule(ctx context.Context, actorID, levelID, ruleID string) error
}

// LevelSvcFacade combines all level-related service interfaces
type LevelSvcFacade interface {
	LevelReaderSvc
	LevelWriterSvc
}
