package repositories

import (
	"context"

	"github.com/SscSPs/budget_approval_app/internal/core/domain"
)

// UserReader defines read operations for user data
type UserReader interface {
	// FindUserByID retrieves a specific user by their ID.
	FindUserByID(ctx context.Context, userID string) (*domain.User, error)

	// FindUserByEmail retrieves a user by login email, case-insensitively.
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindUsers retrieves a paginated list of users ordered by name.
	FindUsers(ctx context.Context, limit int, offset int) ([]domain.User, error)

	// FindLevelsForUser returns every level the user holds, ordered by priority.
	FindLevelsForUser(ctx context.Context, userID string) ([]domain.Level, error)

	// FindPermittedRequesters returns the allow-list of requester IDs for a viewer.
	FindPermittedRequesters(ctx context.Context, userID string) ([]string, error)
}

// UserWriter defines write operations for user data
type UserWriter interface {
	// SaveUser inserts user together with its held levels in one transaction.
	SaveUser(ctx context.Context, user domain.User, levelIDs []string) error
	UpdateUser(ctx context.Context, user domain.User) error

	// ReplaceUserLevels sets the user's held levels to exactly levelIDs.
	ReplaceUserLevels(ctx context.Context, userID string, levelIDs []string) error

	// ReplacePermittedRequesters sets the viewer's allow-list to exactly requesterIDs.
	ReplacePermittedRequesters(ctx context.Context, userID string, requesterIDs []string) error
}

// UserRepositoryFacade combines all user-related repository interfaces
type UserRepositoryFacade interface {
	UserReader
	UserWriter
}
