package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetStatus is the lifecycle status of a budget request.
type BudgetStatus string

const (
	StatusPending          BudgetStatus = "PENDENTE"
	StatusApproved         BudgetStatus = "APROVADO"
	StatusRejected         BudgetStatus = "REPROVADO"
	StatusAwaitingPurchase BudgetStatus = "AGUARDANDO_COMPRA"
	StatusPurchased        BudgetStatus = "COMPRA_EFETUADA"
	StatusFinished         BudgetStatus = "FINALIZADO"
)

// AllBudgetStatuses lists every status in lifecycle order.
var AllBudgetStatuses = []BudgetStatus{
	StatusPending,
	StatusApproved,
	StatusRejected,
	StatusAwaitingPurchase,
	StatusPurchased,
	StatusFinished,
}

// IsValid reports whether s is a known status.
func (s BudgetStatus) IsValid() bool {
	for _, known := range AllBudgetStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further action can move the budget.
func (s BudgetStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusFinished
}

// BudgetAction names an operation attempted against a budget.
type BudgetAction string

const (
	ActionApprove       BudgetAction = "approve"
	ActionReject        BudgetAction = "reject"
	ActionMarkPurchased BudgetAction = "mark-purchased"
	ActionClose         BudgetAction = "close"
	ActionEdit          BudgetAction = "edit"
	ActionDelete        BudgetAction = "delete"
)

// Budget is a purchase request moving through the approval workflow.
type Budget struct {
	BudgetID       string          `json:"budgetID" db:"budget_id"`
	Title          string          `json:"title" db:"title"`
	Description    string          `json:"description" db:"description"`
	UnitValue      decimal.Decimal `json:"unitValue" db:"unit_value"`
	Quantity       int             `json:"quantity" db:"quantity"`
	Supplier       *string         `json:"supplier,omitempty" db:"supplier"`
	Links          []string        `json:"links" db:"links"`
	Photos         []string        `json:"photos" db:"photos"`
	Attachments    []string        `json:"attachments" db:"attachments"`
	Notes          *string         `json:"notes,omitempty" db:"notes"`
	Status         BudgetStatus    `json:"status" db:"status"`
	RequesterID    string          `json:"requesterID" db:"requester_id"`
	BranchID       string          `json:"branchID" db:"branch_id"`
	CurrentLevelID string          `json:"currentLevelID" db:"current_level_id"`
	NextLevelID    *string         `json:"nextLevelID,omitempty" db:"next_level_id"` // advisory, display only
	PurchaseDate   *time.Time      `json:"purchaseDate,omitempty" db:"purchase_date"`
	DeliveryDate   *time.Time      `json:"deliveryDate,omitempty" db:"delivery_date"`
	AuditFields
}

// TotalValue is unit value times quantity.
func (b Budget) TotalValue() decimal.Decimal {
	return b.UnitValue.Mul(decimal.NewFromInt(int64(b.Quantity)))
}

// Approval is an immutable record of an approval decision.
type Approval struct {
	ApprovalID string    `json:"approvalID" db:"approval_id"`
	BudgetID   string    `json:"budgetID" db:"budget_id"`
	ApproverID string    `json:"approverID" db:"approver_id"`
	LevelID    string    `json:"levelID" db:"level_id"`
	Notes      *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// Rejection is an immutable record of a rejection decision.
type Rejection struct {
	RejectionID string    `json:"rejectionID" db:"rejection_id"`
	BudgetID    string    `json:"budgetID" db:"budget_id"`
	RejectorID  string    `json:"rejectorID" db:"rejector_id"`
	LevelID     string    `json:"levelID" db:"level_id"`
	Reason      string    `json:"reason" db:"reason"`
	Notes       *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// BudgetDetail is a budget with its decision history, newest first.
type BudgetDetail struct {
	Budget
	Approvals  []Approval  `json:"approvals"`
	Rejections []Rejection `json:"rejections"`
}

// BudgetFilter holds the listing filters applied after the visibility scope.
type BudgetFilter struct {
	Search   string
	Status   *BudgetStatus
	BranchID *string
	From     *time.Time
	To       *time.Time
	Limit    int
	// Keyset cursor: rows strictly older than (CreatedAt, BudgetID).
	AfterCreatedAt *time.Time
	AfterBudgetID  *string
}

// BudgetSummary aggregates the visible budgets.
type BudgetSummary struct {
	Total                int                  `json:"total"`
	ByStatus             map[BudgetStatus]int `json:"byStatus"`
	ByLevel              map[string]int       `json:"byLevel"`
	TotalValue           decimal.Decimal      `json:"totalValue"`
	AverageApprovalCount decimal.Decimal      `json:"averageApprovalCount"`
	Recent               []Budget             `json:"recent"`
}
