package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/budget_approval_app/internal/core/domain"
	portssvc "github.com/SscSPs/budget_approval_app/internal/core/ports/services"
	"github.com/SscSPs/budget_approval_app/internal/dto"
	"github.com/SscSPs/budget_approval_app/internal/middleware"
	"github.com/SscSPs/budget_approval_app/internal/utils"
	"github.com/gin-gonic/gin"
)

// budgetHandler handles HTTP requests related to budgets.
type budgetHandler struct {
	budgetService portssvc.BudgetSvcFacade
	analytics     *utils.PosthogClientWrapper
}

func newBudgetHandler(bs portssvc.BudgetSvcFacade, analytics *utils.PosthogClientWrapper) *budgetHandler {
	return &budgetHandler{
		budgetService: bs,
		analytics:     analytics,
	}
}

// RegisterBudgetRoutes registers all budget-related routes. analytics may be nil.
func RegisterBudgetRoutes(rg *gin.RouterGroup, budgetService portssvc.BudgetSvcFacade, analytics *utils.PosthogClientWrapper) {
	h := newBudgetHandler(budgetService, analytics)

	budgets := rg.Group("/budgets")
	{
		budgets.POST("", h.createBudget)
		budgets.GET("", h.listBudgets)
		budgets.DELETE("", h.clearBudgets) // admin only
		budgets.GET("/summary", h.summary)
		budgets.GET("/pending", h.listPending)
		budgets.GET("/awaiting-purchase", h.listAwaitingPurchase)
		budgets.GET("/ready-to-close", h.listReadyToClose)
		budgets.GET("/:id", h.getBudget)
		budgets.PUT("/:id", h.updateBudget)
		budgets.DELETE("/:id", h.deleteBudget)
		budgets.POST("/:id/approve", h.approveBudget)
		budgets.POST("/:id/reject", h.rejectBudget)
		budgets.POST("/:id/purchase", h.markPurchased)
		budgets.POST("/:id/close", h.closeBudget)
	}
}

// createBudget godoc
// @Summary Create a budget request
// @Description Opens a budget and routes it to the requester's first approval level.
// @Tags budgets
// @Accept  json
// @Produce  json
// @Param   budget body dto.CreateBudgetRequest true "Budget details"
// @Success 201 {object} dto.BudgetResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse "Requester has no level assigned"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /budgets [post]
func (h *budgetHandler) createBudget(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	userID, ok := actorID(c)
	if !ok {
		return
	}

	budget, err := h.budgetService.CreateBudget(c.Request.Context(), userID, req)
	if err != nil {
		respondWithError(c, err, "Failed to create budget")
		return
	}

	logger.Info("Budget created", slog.String("budget_id", budget.BudgetID))
	c.JSON(http.StatusCreated, dto.ToBudgetResponse(budget))
}

// listBudgets godoc
// @Summary List visible budgets
// @Description Lists the budgets the caller may see, newest first, with keyset pagination.
// @Tags budgets
// @Produce  json
// @Param   q query string false "Case-insensitive title search"
// @Param   status query string false "Budget status"
// @Param   branchID query string false "Branch ID"
// @Param   from query string false "Created on or after (YYYY-MM-DD)"
// @Param   to query string false "Created on or before (YYYY-MM-DD)"
// @Param   limit query int false "Page size"
// @Param   nextToken query string false "Token from the previous page"
// @Success 200 {object} dto.ListBudgetsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /budgets [get]
func (h *budgetHandler) listBudgets(c *gin.Context) {
	var params dto.ListBudgetsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, err)
		return
	}
	userID, ok := actorID(c)
	if !ok {
		return
	}

	resp, err := h.budgetService.ListVisible(c.Request.Context(), userID, params)
	if err != nil {
		respondWithError(c, err, "Failed to list budgets")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// summary godoc
// @Summary Summarize visible budgets
// @Description Aggregates the budgets the caller may see: counts per status and level, total value, average approvals and the most recent budgets.
// @Tags budgets
// @Produce  json
// @Param   q query string false "Case-insensitive title search"
// @Param   status query string false "Budget status"
// @Param   branchID query string false "Branch ID"
// @Param   from query string false "Created on or after (YYYY-MM-DD)"
// @Param   to query string false "Created on or before (YYYY-MM-DD)"
// @Success 200 {object} dto.BudgetSummaryResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /budgets/summary [get]
func (h *budgetHandler) summary(c *gin.Context) {
	var params dto.ListBudgetsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, err)
		return
	}
	userID, ok := actorID(c)
	if !ok {
		return
	}

	s, err := h.budgetService.Summary(c.Request.Context(), userID, params)
	if err != nil {
		respondWithError(c, err, "Failed to summarize budgets")
		return
	}
	c.JSON(http.StatusOK, dto.ToBudgetSummaryResponse(s))
}

type queueFunc func(c *gin.Context, userID string) ([]domain.Budget, error)

func (h *budgetHandler) listQueue(c *gin.Context, fetch queueFunc) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	budgets, err := fetch(c, userID)
	if err != nil {
		respondWithError(c, err, "Failed to list budgets")
		return
	}
	c.JSON(http.StatusOK, dto.ListBudgetsResponse{Budgets: dto.ToBudgetResponses(budgets)})
}

// listPending godoc
// @Summary Budgets waiting on the caller
// @Description Lists PENDENTE budgets sitting at a level the caller holds, above the requester tier.
// @Tags budgets
// @Produce  json
// @Success 200 {object} dto.ListBudgetsResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /budgets/pending [get]
func (h *budgetHandler) listPending(c *gin.Context) {
	h.listQueue(c, func(c *gin.Context, userID string) ([]domain.Budget, error) {
		return h.budgetService.ListPendingFor(c.Request.Context(), userID)
	})
}

// listAwaitingPurchase godoc
// @Summary Purchasing queue
// @Description Lists AGUARDANDO_COMPRA budgets. Empty unless the caller is an admin or holds the final level.
// @Tags budgets
// @Produce  json
// @Success 200 {object} dto.ListBudgetsResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /budgets/awaiting-purchase [get]
func (h *budgetHandler) listAwaitingPurchase(c *gin.Context) {
	h.listQueue(c, func(c *gin.Context, userID string) ([]domain.Budget, error) {
		return h.budgetService.ListAwaitingPurchase(c.Request.Context(), userID)
	})
}

// listReadyToClose godoc
// @Summary Delivery queue
// @Description Lists COMPRA_EFETUADA budgets. Empty unless the caller is an admin or holds the final level.
// @Tags budgets
// @Produce  json
// @Success 200 {object} dto.ListBudgetsResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /budgets/ready-to-close [get]
func (h *budgetHandler) listReadyToClose(c *gin.Context) {
	h.listQueue(c, func(c *gin.Context, userID string) ([]domain.Budget, error) {
		return h.budgetService.ListReadyToClose(c.Request.Context(), userID)
	})
}

// getBudget godoc
// @Summary Get a budget
// @Description Returns a budget with its approvals and rejections, newest first.
// @Tags budgets
// @Produce  json
// @Param   id path string true "Budget ID"
// @Success 200 {object} dto.BudgetDetailResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /budgets/{id} [get]
func (h *budgetHandler) getBudget(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	detail, err := h.budgetService.GetBudget(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err, "Failed to get budget")
		return
	}
	c.JSON(http.StatusOK, dto.ToBudgetDetailResponse(detail))
}

// updateBudget godoc
// @Summary Edit a pending budget
// @Description Partial edit by the requester while the budget sits at its first level.
// @Tags budgets
// @Accept  json
// @Produce  json
// @Param   id path string true "Budget ID"
// @Param   budget body dto.UpdateBudgetRequest true "Fields to change"
// @Success 200 {object} dto.BudgetResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /budgets/{id} [put]
func (h *budgetHandler) updateBudget(c *gin.Context) {
	var req dto.UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	userID, ok := actorID(c)
	if !ok {
		return
	}
	budget, err := h.budgetService.UpdateBudget(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		respondWithError(c, err, "Failed to update budget")
		return
	}
	c.JSON(http.StatusOK, dto.ToBudgetResponse(budget))
}

// deleteBudget godoc
// @Summary Delete a pending budget
// @Tags budgets
// @Param   id path string true "Budget ID"
// @Success 204 "No Content"
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /budgets/{id} [delete]
func (h *budgetHandler) deleteBudget(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	if err := h.budgetService.DeleteBudget(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondWithError(c, err, "Failed to delete budget")
		return
	}
	c.Status(http.StatusNoContent)
}

// clearBudgets godoc
// @Summary Delete every budget
// @Description Maintenance operation. Admin only.
// @Tags budgets
// @Produce  json
// @Success 200 {object} map[string]int64
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /budgets [delete]
func (h *budgetHandler) clearBudgets(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	deleted, err := h.budgetService.ClearAllBudgets(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err, "Failed to clear budgets")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Warn("All budgets cleared", slog.Int64("deleted", deleted))
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// approveBudget godoc
// @Summary Approve a budget
// @Description Approves the budget at its current level and promotes it along the requester's flow.
// @Tags budgets
// @Accept  json
// @Produce  json
// @Param   id path string true "Budget ID"
// @Param   body body dto.ApproveBudgetRequest false "Optional notes"
// @Success 200 {object} dto.BudgetResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Budget is not pending"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /budgets/{id}/approve [post]
func (h *budgetHandler) approveBudget(c *gin.Context) {
	var req dto.ApproveBudgetRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, err)
			return
		}
	}
	h.transition(c, domain.ActionApprove, func(userID, budgetID string) (*domain.Budget, error) {
		return h.budgetService.Approve(c.Request.Context(), userID, budgetID, req.Notes)
	})
}

// rejectBudget godoc
// @Summary Reject a budget
// @Tags budgets
// @Accept  json
// @Produce  json
// @Param   id path string true "Budget ID"
// @Param   body body dto.RejectBudgetRequest true "Rejection reason"
// @Success 200 {object} dto.BudgetResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Budget is not pending"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /budgets/{id}/reject [post]
func (h *budgetHandler) rejectBudget(c *gin.Context) {
	var req dto.RejectBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	h.transition(c, domain.ActionReject, func(userID, budgetID string) (*domain.Budget, error) {
		return h.budgetService.Reject(c.Request.Context(), userID, budgetID, req.Reason, req.Notes)
	})
}

// markPurchased godoc
// @Summary Mark a budget as purchased
// @Tags budgets
// @Produce  json
// @Param   id path string true "Budget ID"
// @Success 200 {object} dto.BudgetResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /budgets/{id}/purchase [post]
func (h *budgetHandler) markPurchased(c *gin.Context) {
	h.transition(c, domain.ActionMarkPurchased, func(userID, budgetID string) (*domain.Budget, error) {
		return h.budgetService.MarkPurchased(c.Request.Context(), userID, budgetID)
	})
}

// closeBudget godoc
// @Summary Confirm delivery and close a budget
// @Tags budgets
// @Produce  json
// @Param   id path string true "Budget ID"
// @Success 200 {object} dto.BudgetResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /budgets/{id}/close [post]
func (h *budgetHandler) closeBudget(c *gin.Context) {
	h.transition(c, domain.ActionClose, func(userID, budgetID string) (*domain.Budget, error) {
		return h.budgetService.Close(c.Request.Context(), userID, budgetID)
	})
}

func (h *budgetHandler) transition(c *gin.Context, action domain.BudgetAction, apply func(userID, budgetID string) (*domain.Budget, error)) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	budgetID := c.Param("id")
	budget, err := apply(userID, budgetID)
	if err != nil {
		respondWithError(c, err, "Failed to "+string(action)+" budget")
		return
	}

	middleware.PosthogEvent(c, h.analytics, "budget_transition", map[string]any{
		"action":    string(action),
		"budget_id": budget.BudgetID,
		"status":    string(budget.Status),
		"level_id":  budget.CurrentLevelID,
	})
	c.JSON(http.StatusOK, dto.ToBudgetResponse(budget))
}
