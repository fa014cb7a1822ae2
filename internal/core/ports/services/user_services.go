package services

import (
	"context"

	"github.com/SscSPs/budget_approval_app/internal/core/domain"
	"github.com/SscSPs/budget_approval_app/internal/dto"
)

// ActorResolverSvc turns an authenticated user ID into a verified acting-user record.
type ActorResolverSvc interface {
	// ResolveActor loads the user with its active levels and allow-list.
	// Unknown or inactive users fail with apperrors.ErrUnauthorized.
	ResolveActor(ctx context.Context, userID string) (*domain.Actor, error)
}

// AuthenticatorSvc checks login credentials.
type AuthenticatorSvc interface {
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
}

// UserAdminSvc defines admin-only user management operations.
type UserAdminSvc interface {
	CreateUser(ctx context.Context, actorID string, req dto.CreateUserRequest) (*domain.User, error)
	GetUserByID(ctx context.Context, actorID, userID string) (*domain.Actor, error)
	ListUsers(ctx context.Context, actorID string, limit, offset int) ([]domain.User, error)
	UpdateUser(ctx context.Context, actorID, userID string, req dto.UpdateUserRequest) (*domain.User, error)
	ReplaceUserLevels(ctx context.Context, actorID, userID string, levelIDs []string) (*domain.Actor, error)
	ReplacePermittedRequesters(ctx context.Context, actorID, userID string, requesterIDs []string) (*domain.Actor, error)
}

// UserFlowSvc defines admin-only personalized flow operations.
type UserFlowSvc interface {
	GetUserFlow(ctx context.Context, actorID, requesterID string) ([]domain.UserFlowEntry, error)
	ReplaceUserFlow(ctx context.Context, actorID, requesterID string, levelIDs []string) ([]domain.UserFlowEntry, error)
	DeleteUserFlow(ctx context.Context, actorID, requesterID string) error
}

// UserSvcFacade combines all user-related service interfaces
type UserSvcFacade interface {
	ActorResolverSvc
	AuthenticatorSvc
	UserAdminSvc
	UserFlowSvc
}
