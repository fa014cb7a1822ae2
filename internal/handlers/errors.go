package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/SscSPs/budget_approval_app/internal/apperrors"
	"github.com/SscSPs/budget_approval_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// Order matters: the first matching sentinel wins.
var errorMappings = []errorMapping{
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
	{apperrors.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{apperrors.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
	{apperrors.ErrValidation, http.StatusBadRequest, "VALIDATION_FAILED"},
	{apperrors.ErrDuplicate, http.StatusConflict, "DUPLICATE"},
	{apperrors.ErrInvalidTransition, http.StatusConflict, "INVALID_TRANSITION"},
	{apperrors.ErrNoLevelAssigned, http.StatusUnprocessableEntity, "NO_LEVEL_ASSIGNED"},
	{apperrors.ErrMisconfiguredFinalLevel, http.StatusInternalServerError, "MISCONFIGURED_FINAL_LEVEL"},
}

// respondWithError maps a service error onto a status code and writes the error body.
// Unknown errors are logged and reported as a generic internal error.
func respondWithError(c *gin.Context, err error, fallbackMsg string) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			if m.status >= http.StatusInternalServerError {
				logger.Error(fallbackMsg, slog.String("error", err.Error()))
			} else {
				logger.Warn(fallbackMsg, slog.String("error", err.Error()))
			}
			c.JSON(m.status, ErrorResponse{Error: err.Error(), Code: m.code})
			return
		}
	}
	logger.Error(fallbackMsg, slog.String("error", err.Error()))
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: fallbackMsg, Code: "INTERNAL"})
}

// respondBadRequest reports a binding failure.
func respondBadRequest(c *gin.Context, err error) {
	middleware.GetLoggerFromCtx(c.Request.Context()).Warn("Failed to bind request", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid request format: " + err.Error(), Code: "VALIDATION_FAILED"})
}

// actorID returns the authenticated user ID, writing a 401 when it is missing.
func actorID(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Code: "UNAUTHORIZED"})
		return "", false
	}
	return userID, true
}
