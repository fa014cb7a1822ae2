package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/budget_approval_app/internal/core/ports/services"
	"github.com/SscSPs/budget_approval_app/internal/dto"
	"github.com/SscSPs/budget_approval_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// userHandler handles HTTP requests related to users.
type userHandler struct {
	userService portssvc.UserSvcFacade
}

// newUserHandler creates a new userHandler.
func newUserHandler(us portssvc.UserSvcFacade) *userHandler {
	return &userHandler{
		userService: us,
	}
}

// RegisterUserRoutes registers all user-related routes.
func RegisterUserRoutes(rg *gin.RouterGroup, userService portssvc.UserSvcFacade) {
	h := newUserHandler(userService)

	users := rg.Group("/users")
	{
		users.GET("/me", h.getMe)
		users.GET("", h.listUsers)      // Admin only
		users.POST("", h.createUser)    // Admin only
		users.GET("/:id", h.getUser)    // Admin only
		users.PUT("/:id", h.updateUser) // Admin only
		users.PUT("/:id/levels", h.replaceLevels)
		users.PUT("/:id/permitted-requesters", h.replacePermittedRequesters)
		users.GET("/:id/flow", h.getFlow)
		users.PUT("/:id/flow", h.replaceFlow)
		users.DELETE("/:id/flow", h.deleteFlow)
	}
}

// getMe godoc
// @Summary Current user
// @Description Returns the authenticated user with its levels and allow-list.
// @Tags users
// @Produce  json
// @Success 200 {object} dto.ActorResponse
// @Failure 401 {object} ErrorResponse
// @Security BearerAuth
// @Router /users/me [get]
func (h *userHandler) getMe(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	actor, err := h.userService.ResolveActor(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err, "Failed to load current user")
		return
	}
	c.JSON(http.StatusOK, dto.ToActorResponse(actor))
}

// createUser godoc
// @Summary Create a new user
// @Tags users
// @Accept  json
// @Produce  json
// @Param   user body dto.CreateUserRequest true "User details"
// @Success 201 {object} dto.UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Email already registered"
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /users [post]
func (h *userHandler) createUser(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	creatorUserID, ok := actorID(c)
	if !ok {
		return
	}

	logger.Info("Received request to create user", slog.String("user_name", req.Name))
	createdUser, err := h.userService.CreateUser(c.Request.Context(), creatorUserID, req)
	if err != nil {
		respondWithError(c, err, "Failed to create user")
		return
	}

	logger.Info("User created successfully", slog.String("new_user_id", createdUser.UserID))
	c.JSON(http.StatusCreated, dto.ToUserResponse(createdUser))
}

// getUser godoc
// @Summary Get a user by ID
// @Tags users
// @Produce  json
// @Param   id path string true "User ID"
// @Success 200 {object} dto.ActorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [get]
func (h *userHandler) getUser(c *gin.Context) {
	loggedInUserID, ok := actorID(c)
	if !ok {
		return
	}
	user, err := h.userService.GetUserByID(c.Request.Context(), loggedInUserID, c.Param("id"))
	if err != nil {
		respondWithError(c, err, "Failed to retrieve user")
		return
	}
	c.JSON(http.StatusOK, dto.ToActorResponse(user))
}

// listUsers godoc
// @Summary List users
// @Tags users
// @Produce  json
// @Param   limit query int false "Limit number of results" default(20)
// @Param   offset query int false "Offset for pagination" default(0)
// @Success 200 {object} dto.ListUsersResponse
// @Failure 403 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Security BearerAuth
// @Router /users [get]
func (h *userHandler) listUsers(c *gin.Context) {
	var params dto.ListUsersParams
	if err := c.ShouldBindQuery(&params); err != nil {
		respondBadRequest(c, err)
		return
	}
	loggedInUserID, ok := actorID(c)
	if !ok {
		return
	}
	users, err := h.userService.ListUsers(c.Request.Context(), loggedInUserID, params.Limit, params.Offset)
	if err != nil {
		respondWithError(c, err, "Failed to list users")
		return
	}
	c.JSON(http.StatusOK, dto.ToListUserResponse(users))
}

// updateUser godoc
// @Summary Update a user's flags
// @Tags users
// @Accept  json
// @Produce  json
// @Param   id path string true "User ID to update"
// @Param   user body dto.UpdateUserRequest true "User details to update"
// @Success 200 {object} dto.UserResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /users/{id} [put]
func (h *userHandler) updateUser(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	loggedInUserID, ok := actorID(c)
	if !ok {
		return
	}
	updatedUser, err := h.userService.UpdateUser(c.Request.Context(), loggedInUserID, c.Param("id"), req)
	if err != nil {
		respondWithError(c, err, "Failed to update user")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserResponse(updatedUser))
}

// replaceLevels godoc
// @Summary Replace the levels a user holds
// @Tags users
// @Accept  json
// @Produce  json
// @Param   id path string true "User ID"
// @Param   body body dto.ReplaceIDsRequest true "Level IDs"
// @Success 200 {object} dto.ActorResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/levels [put]
func (h *userHandler) replaceLevels(c *gin.Context) {
	var req dto.ReplaceIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	loggedInUserID, ok := actorID(c)
	if !ok {
		return
	}
	actor, err := h.userService.ReplaceUserLevels(c.Request.Context(), loggedInUserID, c.Param("id"), req.IDs)
	if err != nil {
		respondWithError(c, err, "Failed to replace user levels")
		return
	}
	c.JSON(http.StatusOK, dto.ToActorResponse(actor))
}

// replacePermittedRequesters godoc
// @Summary Replace the requesters whose budgets a user may see
// @Tags users
// @Accept  json
// @Produce  json
// @Param   id path string true "User ID"
// @Param   body body dto.ReplaceIDsRequest true "Requester user IDs"
// @Success 200 {object} dto.ActorResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/permitted-requesters [put]
func (h *userHandler) replacePermittedRequesters(c *gin.Context) {
	var req dto.ReplaceIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	loggedInUserID, ok := actorID(c)
	if !ok {
		return
	}
	actor, err := h.userService.ReplacePermittedRequesters(c.Request.Context(), loggedInUserID, c.Param("id"), req.IDs)
	if err != nil {
		respondWithError(c, err, "Failed to replace permitted requesters")
		return
	}
	c.JSON(http.StatusOK, dto.ToActorResponse(actor))
}

// getFlow godoc
// @Summary Get a requester's personalized flow
// @Tags users
// @Produce  json
// @Param   id path string true "Requester user ID"
// @Success 200 {object} dto.UserFlowResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/flow [get]
func (h *userHandler) getFlow(c *gin.Context) {
	loggedInUserID, ok := actorID(c)
	if !ok {
		return
	}
	requesterID := c.Param("id")
	entries, err := h.userService.GetUserFlow(c.Request.Context(), loggedInUserID, requesterID)
	if err != nil {
		respondWithError(c, err, "Failed to get user flow")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserFlowResponse(requesterID, entries))
}

// replaceFlow godoc
// @Summary Replace a requester's personalized flow
// @Description Positions are rewritten 1..N in the given order.
// @Tags users
// @Accept  json
// @Produce  json
// @Param   id path string true "Requester user ID"
// @Param   body body dto.ReplaceIDsRequest true "Ordered level IDs"
// @Success 200 {object} dto.UserFlowResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/flow [put]
func (h *userHandler) replaceFlow(c *gin.Context) {
	var req dto.ReplaceIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}
	loggedInUserID, ok := actorID(c)
	if !ok {
		return
	}
	requesterID := c.Param("id")
	entries, err := h.userService.ReplaceUserFlow(c.Request.Context(), loggedInUserID, requesterID, req.IDs)
	if err != nil {
		respondWithError(c, err, "Failed to replace user flow")
		return
	}
	c.JSON(http.StatusOK, dto.ToUserFlowResponse(requesterID, entries))
}

// deleteFlow godoc
// @Summary Remove a requester's personalized flow
// @Tags users
// @Param   id path string true "Requester user ID"
// @Success 204 "No Content"
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/flow [delete]
func (h *userHandler) deleteFlow(c *gin.Context) {
	loggedInUserID, ok := actorID(c)
	if !ok {
		return
	}
	if err := h.userService.DeleteUserFlow(c.Request.Context(), loggedInUserID, c.Param("id")); err != nil {
		respondWithError(c, err, "Failed to delete user flow")
		return
	}
	c.Status(http.StatusNoContent)
}
