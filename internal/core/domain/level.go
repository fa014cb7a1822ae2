package domain

import "time"

// Level is a named stage of the approval chain. Priority gives the default
// ordering of levels, it is not the routing sequence itself.
type Level struct {
	LevelID         string `json:"levelID" db:"level_id"`
	Name            string `json:"name" db:"name"`
	Priority        int    `json:"priority" db:"priority"`
	CanCreateBudget bool   `json:"canCreateBudget" db:"can_create_budget"`
	CanApprove      bool   `json:"canApprove" db:"can_approve"`
	IsFinalLevel    bool   `json:"isFinalLevel" db:"is_final_level"`
	IsActive        bool   `json:"isActive" db:"is_active"`
	AuditFields
}

// Level predicates used by the authorization guard and visibility scope.
var (
	CanApproveLevel = func(l Level) bool { return l.CanApprove }
	FinalLevel      = func(l Level) bool { return l.IsFinalLevel }
	CreatorLevel    = func(l Level) bool { return l.CanCreateBudget }
)

// PriorityIs matches levels with exactly the given priority.
func PriorityIs(p int) func(Level) bool {
	return func(l Level) bool { return l.Priority == p }
}

// PriorityAbove matches levels with a priority strictly greater than p.
func PriorityAbove(p int) func(Level) bool {
	return func(l Level) bool { return l.Priority > p }
}

// FlowRule is a default promotion edge between two levels.
type FlowRule struct {
	RuleID             string    `json:"ruleID" db:"rule_id"`
	OriginLevelID      string    `json:"originLevelID" db:"origin_level_id"`
	DestinationLevelID string    `json:"destinationLevelID" db:"destination_level_id"`
	CreatedAt          time.Time `json:"createdAt" db:"created_at"`
	CreatedBy          string    `json:"createdBy" db:"created_by"`
}

// UserFlowEntry is one position of a requester's personalized flow.
type UserFlowEntry struct {
	RequesterID string `json:"requesterID" db:"requester_id"`
	Position    int    `json:"position" db:"position"`
	LevelID     string `json:"levelID" db:"level_id"`
	IsActive    bool   `json:"isActive" db:"is_active"`
}
