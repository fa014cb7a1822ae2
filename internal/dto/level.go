package dto

import (
	"github.com/SscSPs/budget_approval_app/internal/core/domain"
)

// CreateLevelRequest defines the data needed to create a level.
// Capability flags are pointers so omitted flags fall back to their defaults.
type CreateLevelRequest struct {
	Name            string `json:"name" binding:"required"`
	Priority        int    `json:"priority" binding:"required,min=1"`
	CanCreateBudget *bool  `json:"canCreateBudget,omitempty"`
	CanApprove      *bool  `json:"canApprove,omitempty"`
	IsFinalLevel    *bool  `json:"isFinalLevel,omitempty"`
}

// UpdateLevelRequest is a partial edit of a level.
type UpdateLevelRequest struct {
	Name            *string `json:"name,omitempty" binding:"omitempty,min=1"`
	Priority        *int    `json:"priority,omitempty" binding:"omitempty,min=1"`
	CanCreateBudget *bool   `json:"canCreateBudget,omitempty"`
	CanApprove      *bool   `json:"canApprove,omitempty"`
	IsFinalLevel    *bool   `json:"isFinalLevel,omitempty"`
	IsActive        *bool   `json:"isActive,omitempty"`
}

// CreateFlowRuleRequest adds an edge from the level in the path to DestinationLevelID.
type CreateFlowRuleRequest struct {
	DestinationLevelID string `json:"destinationLevelID" binding:"required"`
}

// ListLevelsResponse wraps the list of levels.
type ListLevelsResponse struct {
	Levels []domain.Level `json:"levels"`
}

// ListFlowRulesResponse wraps the list of flow rules.
type ListFlowRulesResponse struct {
	Rules []domain.FlowRule `json:"rules"`
}

func ToListLevelsResponse(levels []domain.Level) ListLevelsResponse {
	if levels == nil {
		levels = []domain.Level{}
	}
	return ListLevelsResponse{Levels: levels}
}

func ToListFlowRulesResponse(rules []domain.FlowRule) ListFlowRulesResponse {
	if rules == nil {
		rules = []domain.FlowRule{}
	}
	return ListFlowRulesResponse{Rules: rules}
}
