package repositories

import (
	"context"

	"github.com/SscSPs/budget_approval_app/internal/core/domain"
)

// LevelReader defines read operations for levels and their promotion rules.
type LevelReader interface {
	FindLevelByID(ctx context.Context, levelID string) (*domain.Level, error)

	// ListLevels returns every level ordered by ascending priority.
	ListLevels(ctx context.Context) ([]domain.Level, error)

	// ListFlowRules returns every default promotion edge.
	ListFlowRules(ctx context.Context) ([]domain.FlowRule, error)

	// ListFlowRulesForLevel returns edges where levelID is origin or destination.
	ListFlowRulesForLevel(ctx context.Context, levelID string) ([]domain.FlowRule, error)
}

// LevelWriter defines write operations for levels and their promotion rules.
type LevelWriter interface {
	SaveLevel(ctx context.Context, level domain.Level) error
	UpdateLevel(ctx context.Context, level domain.Level) error

	// DeleteLevel fails with ErrValidation when the level is still referenced by a budget or flow.
	DeleteLevel(ctx context.Context, levelID string) error

	SaveFlowRule(ctx context.Context, rule domain.FlowRule) error

	// DeleteFlowRule removes a rule that touches levelID.
	DeleteFlowRule(ctx context.Context, levelID, ruleID string) error
}

// UserFlowRepository manages personalized flows.
type UserFlowRepository interface {
	// FindUserFlow returns the requester's flow entries ordered by position.
	FindUserFlow(ctx context.Context, requesterID string) ([]domain.UserFlowEntry, error)

	// ReplaceUserFlow atomically rewrites the requester's flow as positions 1..N.
	ReplaceUserFlow(ctx context.Context, requesterID string, levelIDs []string) ([]domain.UserFlowEntry, error)

	DeleteUserFlow(ctx context.Context, requesterID string) error
}

// LevelRepositoryFacade combines all level and flow repository interfaces.
type LevelRepositoryFacade interface {
	LevelReader
	LevelWriter
	UserFlowRepository
}
