package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/SscSPs/budget_approval_app/internal/apperrors"
	"github.com/SscSPs/budget_approval_app/internal/core/domain"
	portssvc "github.com/SscSPs/budget_approval_app/internal/core/ports/services"
	"github.com/SscSPs/budget_approval_app/internal/core/workflow"
	"github.com/SscSPs/budget_approval_app/internal/middleware"
)

// BaseService provides common functionality for all services
type BaseService struct {
	ActorResolver portssvc.ActorResolverSvc
	Guard         workflow.Guard
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.GetLogger(ctx).Error(msg, args...)
}

// LogWarn logs an expected failure such as a refused action.
func (s *BaseService) LogWarn(ctx context.Context, err error, msg string, keyvals ...any) {
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	s.GetLogger(ctx).Warn(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogFailure logs err as a warning when it is a caller mistake and as an error otherwise.
func (s *BaseService) LogFailure(ctx context.Context, err error, msg string, keyvals ...any) {
	if isCallerError(err) {
		s.LogWarn(ctx, err, msg, keyvals...)
		return
	}
	s.LogError(ctx, err, msg, keyvals...)
}

// Actor resolves the acting user through the configured resolver.
func (s *BaseService) Actor(ctx context.Context, actorID string) (*domain.Actor, error) {
	if s.ActorResolver == nil {
		return nil, apperrors.NewAppError(500, "actor resolver not configured", nil)
	}
	actor, err := s.ActorResolver.ResolveActor(ctx, actorID)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to resolve acting user", slog.String("actor_id", actorID))
		return nil, err
	}
	return actor, nil
}

// Admin resolves the acting user and requires it to be an admin.
func (s *BaseService) Admin(ctx context.Context, actorID string) (*domain.Actor, error) {
	actor, err := s.Actor(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.Guard.CanAdminister(*actor); err != nil {
		s.LogWarn(ctx, err, "Admin access denied", slog.String("actor_id", actorID))
		return nil, err
	}
	return actor, nil
}

func isCallerError(err error) bool {
	for _, target := range []error{
		apperrors.ErrNotFound,
		apperrors.ErrValidation,
		apperrors.ErrDuplicate,
		apperrors.ErrForbidden,
		apperrors.ErrUnauthorized,
		apperrors.ErrNoLevelAssigned,
		apperrors.ErrInvalidTransition,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperrors.ErrValidation, fmt.Sprintf(format, args...))
}
