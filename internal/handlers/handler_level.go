package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/budget_approval_app/internal/core/ports/services"
	"github.com/SscSPs/budget_approval_app/internal/dto"
	"github.com/SscSPs/budget_approval_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// levelHandler handles HTTP requests related to levels and flow rules.
type levelHandler struct {
	levelService portssvc.LevelSvcFacade
}

func newLevelHandler(ls portssvc.LevelSvcFacade) *levelHandler {
	return &levelHandler{levelService: ls}
}

// RegisterLevelRoutes registers level and flow rule routes. Writes are admin only.
func RegisterLevelRoutes(rg *gin.RouterGroup, levelService portssvc.LevelSvcFacade) {
	h := newLevelHandler(levelService)

	levels := rg.Group("/levels")
	{
		levels.GET("", h.listLevels)
		levels.POST("", h.createLevel)
		levels.GET("/:id", h.getLevel)
		levels.PUT("/:id", h.updateLevel)
		levels.DELETE("/:id", h.deleteLevel)
		levels.GET("/:id/rules", h.listFlowRules)
		levels.POST("/:id/rules", h.createFlowRule)
		levels.DELETE("/:id/rules/:ruleID", h.deleteFlowRule)
	}
}

// listLevels godoc
// @Summary List levels
// @Description Lists every level in priority order.
// @Tags levels
// @Produce  json
// @Success 200 {object} dto.ListLevelsResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /levels [get]
func (h *levelHandler) listLevels(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	levels, err := h.levelService.ListLevels(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err, "Failed to list levels")
		return
	}
	c.JSON(http.StatusOK, dto.ToListLevelsResponse(levels))
}

// createLevel godoc
// @Summary Create a level
// @Tags levels
// @Accept  json
// @Produce  json
// @Param   level body dto.CreateLevelRequest true "Level details"
// @Success 201 {object} domain.Level
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Priority already taken"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /levels [post]
func (h *levelHandler) createLevel(c *gin.Context) {
	var req dto.CreateLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	userID, ok := actorID(c)
	if !ok {
		return
	}
	level, err := h.levelService.CreateLevel(c.Request.Context(), userID, req)
	if err != nil {
		respondWithError(c, err, "Failed to create level")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Level created", slog.String("level_id", level.LevelID))
	c.JSON(http.StatusCreated, level)
}

// getLevel godoc
// @Summary Get a level
// @Tags levels
// @Produce  json
// @Param   id path string true "Level ID"
// @Success 200 {object} domain.Level
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /levels/{id} [get]
func (h *levelHandler) getLevel(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	level, err := h.levelService.GetLevel(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err, "Failed to get level")
		return
	}
	c.JSON(http.StatusOK, level)
}

// updateLevel godoc
// @Summary Update a level
// @Tags levels
// @Accept  json
// @Produce  json
// @Param   id path string true "Level ID"
// @Param   level body dto.UpdateLevelRequest true "Fields to change"
// @Success 200 {object} domain.Level
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse "Second final level"
// @Security BearerAuth
// @Router /levels/{id} [put]
func (h *levelHandler) updateLevel(c *gin.Context) {
	var req dto.UpdateLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	userID, ok := actorID(c)
	if !ok {
		return
	}
	level, err := h.levelService.UpdateLevel(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		respondWithError(c, err, "Failed to update level")
		return
	}
	c.JSON(http.StatusOK, level)
}

// deleteLevel godoc
// @Summary Delete a level
// @Description Fails with 400 while budgets or flows still reference the level.
// @Tags levels
// @Param   id path string true "Level ID"
// @Success 204 "No Content"
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /levels/{id} [delete]
func (h *levelHandler) deleteLevel(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	if err := h.levelService.DeleteLevel(c.Request.Context(), userID, c.Param("id")); err != nil {
		respondWithError(c, err, "Failed to delete level")
		return
	}
	c.Status(http.StatusNoContent)
}

// listFlowRules godoc
// @Summary List flow rules touching a level
// @Tags levels
// @Produce  json
// @Param   id path string true "Level ID"
// @Success 200 {object} dto.ListFlowRulesResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /levels/{id}/rules [get]
func (h *levelHandler) listFlowRules(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	rules, err := h.levelService.ListFlowRules(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondWithError(c, err, "Failed to list flow rules")
		return
	}
	c.JSON(http.StatusOK, dto.ToListFlowRulesResponse(rules))
}

// createFlowRule godoc
// @Summary Add a flow rule leaving a level
// @Tags levels
// @Accept  json
// @Produce  json
// @Param   id path string true "Origin level ID"
// @Param   rule body dto.CreateFlowRuleRequest true "Destination"
// @Success 201 {object} domain.FlowRule
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /levels/{id}/rules [post]
func (h *levelHandler) createFlowRule(c *gin.Context) {
	var req dto.CreateFlowRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	userID, ok := actorID(c)
	if !ok {
		return
	}
	rule, err := h.levelService.CreateFlowRule(c.Request.Context(), userID, c.Param("id"), req)
	if err != nil {
		respondWithError(c, err, "Failed to create flow rule")
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// deleteFlowRule godoc
// @Summary Delete a flow rule
// @Tags levels
// @Param   id path string true "Origin level ID"
// @Param   ruleID path string true "Rule ID"
// @Success 204 "No Content"
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /levels/{id}/rules/{ruleID} [delete]
func (h *levelHandler) deleteFlowRule(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	if err := h.levelService.DeleteFlowRule(c.Request.Context(), userID, c.Param("id"), c.Param("ruleID")); err != nil {
		respondWithError(c, err, "Failed to delete flow rule")
		return
	}
	c.Status(http.StatusNoContent)
}
