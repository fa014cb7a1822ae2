package dto

import (
	"time"

	"github.com/SscSPs/budget_approval_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateBudgetRequest defines the data needed to open a budget request.
type CreateBudgetRequest struct {
	Title       string          `json:"title" binding:"required,max=200"`
	Description string          `json:"description" binding:"required"`
	UnitValue   decimal.Decimal `json:"unitValue" binding:"required,gt=0"`
	Quantity    int             `json:"quantity" binding:"required,min=1"`
	BranchID    string          `json:"branchID" binding:"required"`
	Supplier    *string         `json:"supplier,omitempty"`
	Links       []string        `json:"links,omitempty"`
	Photos      []string        `json:"photos,omitempty"`
	Attachments []string        `json:"attachments,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
}

// UpdateBudgetRequest is a partial edit. Nil fields are left untouched.
type UpdateBudgetRequest struct {
	Title       *string          `json:"title,omitempty" binding:"omitempty,min=1,max=200"`
	Description *string          `json:"description,omitempty" binding:"omitempty,min=1"`
	UnitValue   *decimal.Decimal `json:"unitValue,omitempty" binding:"omitempty,gt=0"`
	Quantity    *int             `json:"quantity,omitempty" binding:"omitempty,min=1"`
	BranchID    *string          `json:"branchID,omitempty" binding:"omitempty,min=1"`
	Supplier    *string          `json:"supplier,omitempty"`
	Links       *[]string        `json:"links,omitempty"`
	Photos      *[]string        `json:"photos,omitempty"`
	Attachments *[]string        `json:"attachments,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
}

// ApproveBudgetRequest carries optional notes for the approval record.
type ApproveBudgetRequest struct {
	Notes *string `json:"notes,omitempty"`
}

// RejectBudgetRequest requires the reason for the rejection.
type RejectBudgetRequest struct {
	Reason string  `json:"reason" binding:"required"`
	Notes  *string `json:"notes,omitempty"`
}

// ListBudgetsParams defines query parameters for listing and summarizing budgets.
type ListBudgetsParams struct {
	Q         string     `form:"q"`
	Status    string     `form:"status"`
	BranchID  string     `form:"branchID"`
	From      *time.Time `form:"from" time_format:"2006-01-02"`
	To        *time.Time `form:"to" time_format:"2006-01-02"`
	Limit     int        `form:"limit"`
	NextToken string     `form:"nextToken"`
}

// BudgetResponse defines the data returned for a budget.
type BudgetResponse struct {
	BudgetID       string          `json:"budgetID"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	UnitValue      decimal.Decimal `json:"unitValue"`
	Quantity       int             `json:"quantity"`
	TotalValue     decimal.Decimal `json:"totalValue"`
	Supplier       *string         `json:"supplier,omitempty"`
	Links          []string        `json:"links"`
	Photos         []string        `json:"photos"`
	Attachments    []string        `json:"attachments"`
	Notes          *string         `json:"notes,omitempty"`
	Status         string          `json:"status"`
	RequesterID    string          `json:"requesterID"`
	BranchID       string          `json:"branchID"`
	CurrentLevelID string          `json:"currentLevelID"`
	NextLevelID    *string         `json:"nextLevelID,omitempty"`
	PurchaseDate   *time.Time      `json:"purchaseDate,omitempty"`
	DeliveryDate   *time.Time      `json:"deliveryDate,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// BudgetDetailResponse is a budget with its approval and rejection history.
type BudgetDetailResponse struct {
	BudgetResponse
	Approvals  []domain.Approval  `json:"approvals"`
	Rejections []domain.Rejection `json:"rejections"`
}

// ListBudgetsResponse wraps a page of budgets.
type ListBudgetsResponse struct {
	Budgets   []BudgetResponse `json:"budgets"`
	NextToken *string          `json:"nextToken,omitempty"`
}

// BudgetSummaryResponse aggregates the budgets a viewer can see.
type BudgetSummaryResponse struct {
	Total                int              `json:"total"`
	ByStatus             map[string]int   `json:"byStatus"`
	ByLevel              map[string]int   `json:"byLevel"`
	TotalValue           decimal.Decimal  `json:"totalValue"`
	AverageApprovalCount decimal.Decimal  `json:"averageApprovalCount"`
	Recent               []BudgetResponse `json:"recent"`
}

// ToBudgetResponse converts a domain.Budget to BudgetResponse DTO.
func ToBudgetResponse(b *domain.Budget) BudgetResponse {
	return BudgetResponse{
		BudgetID:       b.BudgetID,
		Title:          b.Title,
		Description:    b.Description,
		UnitValue:      b.UnitValue,
		Quantity:       b.Quantity,
		TotalValue:     b.TotalValue(),
		Supplier:       b.Supplier,
		Links:          nonNil(b.Links),
		Photos:         nonNil(b.Photos),
		Attachments:    nonNil(b.Attachments),
		Notes:          b.Notes,
		Status:         string(b.Status),
		RequesterID:    b.RequesterID,
		BranchID:       b.BranchID,
		CurrentLevelID: b.CurrentLevelID,
		NextLevelID:    b.NextLevelID,
		PurchaseDate:   b.PurchaseDate,
		DeliveryDate:   b.DeliveryDate,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.LastUpdatedAt,
	}
}

// ToBudgetResponses converts a slice of domain.Budget to []BudgetResponse.
func ToBudgetResponses(budgets []domain.Budget) []BudgetResponse {
	responses := make([]BudgetResponse, len(budgets))
	for i := range budgets {
		responses[i] = ToBudgetResponse(&budgets[i])
	}
	return responses
}

func ToBudgetDetailResponse(d *domain.BudgetDetail) BudgetDetailResponse {
	resp := BudgetDetailResponse{
		BudgetResponse: ToBudgetResponse(&d.Budget),
		Approvals:      d.Approvals,
		Rejections:     d.Rejections,
	}
	if resp.Approvals == nil {
		resp.Approvals = []domain.Approval{}
	}
	if resp.Rejections == nil {
		resp.Rejections = []domain.Rejection{}
	}
	return resp
}

func ToBudgetSummaryResponse(s *domain.BudgetSummary) BudgetSummaryResponse {
	byStatus := make(map[string]int, len(domain.AllBudgetStatuses))
	for _, status := range domain.AllBudgetStatuses {
		byStatus[string(status)] = s.ByStatus[status]
	}
	byLevel := s.ByLevel
	if byLevel == nil {
		byLevel = map[string]int{}
	}
	return BudgetSummaryResponse{
		Total:                s.Total,
		ByStatus:             byStatus,
		ByLevel:              byLevel,
		TotalValue:           s.TotalValue,
		AverageApprovalCount: s.AverageApprovalCount,
		Recent:               ToBudgetResponses(s.Recent),
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
