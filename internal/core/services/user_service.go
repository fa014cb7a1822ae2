package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/budget_approval_app/internal/apperrors"
	"github.com/SscSPs/budget_approval_app/internal/core/domain"
	portsrepo "github.com/SscSPs/budget_approval_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/budget_approval_app/internal/core/ports/services"
	"github.com/SscSPs/budget_approval_app/internal/dto"
	"github.com/SscSPs/budget_approval_app/internal/utils"
	"github.com/google/uuid"
)

type userService struct {
	BaseService
	userRepo  portsrepo.UserRepositoryFacade
	levelRepo portsrepo.LevelRepositoryFacade
}

// NewUserService creates the user service. It resolves actors for itself.
func NewUserService(userRepo portsrepo.UserRepositoryFacade, levelRepo portsrepo.LevelRepositoryFacade) portssvc.UserSvcFacade {
	svc := &userService{userRepo: userRepo, levelRepo: levelRepo}
	svc.ActorResolver = svc
	return svc
}

var _ portssvc.UserSvcFacade = (*userService)(nil)

func (s *userService) ResolveActor(ctx context.Context, userID string) (*domain.Actor, error) {
	actor, err := s.loadActor(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s does not exist", apperrors.ErrUnauthorized, userID)
		}
		return nil, err
	}
	if !actor.IsActive {
		return nil, fmt.Errorf("%w: user %s is inactive", apperrors.ErrUnauthorized, userID)
	}
	return actor, nil
}

// loadActor loads a user with its active levels and allow-list, whatever its status.
func (s *userService) loadActor(ctx context.Context, userID string) (*domain.Actor, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", userID, err)
	}
	levels, err := s.userRepo.FindLevelsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load levels for user %s: %w", userID, err)
	}
	active := make([]domain.Level, 0, len(levels))
	for _, l := range levels {
		if l.IsActive {
			active = append(active, l)
		}
	}
	permitted, err := s.userRepo.FindPermittedRequesters(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load permitted requesters for user %s: %w", userID, err)
	}
	return &domain.Actor{User: *user, Levels: active, PermittedRequesters: permitted}, nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: user is inactive", apperrors.ErrUnauthorized)
	}
	return user, nil
}

func (s *userService) CreateUser(ctx context.Context, actorID string, req dto.CreateUserRequest) (*domain.User, error) {
	if _, err := s.Admin(ctx, actorID); err != nil {
		return nil, err
	}
	logger := s.GetLogger(ctx)

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		s.LogError(ctx, err, "Failed to hash password")
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		UserID:            uuid.NewString(),
		Name:              strings.TrimSpace(req.Name),
		Email:             strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash:      hash,
		IsAdmin:           req.IsAdmin,
		IsActive:          true,
		CanViewAllBudgets: req.CanViewAllBudgets,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actorID,
			LastUpdatedAt: now,
			LastUpdatedBy: actorID,
		},
	}
	if err := s.userRepo.SaveUser(ctx, user, dedupe(req.LevelIDs)); err != nil {
		s.LogFailure(ctx, err, "Failed to save user", slog.String("email", user.Email))
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.Info("User created", slog.String("user_id", user.UserID), slog.Bool("is_admin", user.IsAdmin))
	return &user, nil
}

func (s *userService) GetUserByID(ctx context.Context, actorID, userID string) (*domain.Actor, error) {
	if actorID != userID {
		if _, err := s.Admin(ctx, actorID); err != nil {
			return nil, err
		}
	}
	actor, err := s.loadActor(ctx, userID)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to load user", slog.String("user_id", userID))
		return nil, err
	}
	return actor, nil
}

func (s *userService) ListUsers(ctx context.Context, actorID string, limit, offset int) ([]domain.User, error) {
	if _, err := s.Admin(ctx, actorID); err != nil {
		return nil, err
	}
	users, err := s.userRepo.FindUsers(ctx, limit, offset)
	if err != nil {
		s.LogError(ctx, err, "Failed to list users")
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *userService) UpdateUser(ctx context.Context, actorID, userID string, req dto.UpdateUserRequest) (*domain.User, error) {
	if _, err := s.Admin(ctx, actorID); err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to find user for update", slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to find user %s: %w", userID, err)
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}
	if req.IsAdmin != nil {
		user.IsAdmin = *req.IsAdmin
	}
	if req.IsActive != nil {
		if !*req.IsActive && userID == actorID {
			return nil, validationError("admins cannot deactivate themselves")
		}
		user.IsActive = *req.IsActive
	}
	if req.CanViewAllBudgets != nil {
		user.CanViewAllBudgets = *req.CanViewAllBudgets
	}
	user.LastUpdatedAt = time.Now().UTC()
	user.LastUpdatedBy = actorID

	if err := s.userRepo.UpdateUser(ctx, *user); err != nil {
		s.LogFailure(ctx, err, "Failed to update user", slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to update user %s: %w", userID, err)
	}
	s.LogInfo(ctx, "User updated", slog.String("user_id", userID))
	return user, nil
}

func (s *userService) ReplaceUserLevels(ctx context.Context, actorID, userID string, levelIDs []string) (*domain.Actor, error) {
	if _, err := s.Admin(ctx, actorID); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.FindUserByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", userID, err)
	}
	if err := s.userRepo.ReplaceUserLevels(ctx, userID, dedupe(levelIDs)); err != nil {
		s.LogFailure(ctx, err, "Failed to replace user levels", slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to replace levels for user %s: %w", userID, err)
	}
	s.LogInfo(ctx, "User levels replaced", slog.String("user_id", userID), slog.Int("level_count", len(levelIDs)))
	return s.loadActor(ctx, userID)
}

func (s *userService) ReplacePermittedRequesters(ctx context.Context, actorID, userID string, requesterIDs []string) (*domain.Actor, error) {
	if _, err := s.Admin(ctx, actorID); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.FindUserByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", userID, err)
	}
	ids := make([]string, 0, len(requesterIDs))
	for _, id := range dedupe(requesterIDs) {
		if id != userID {
			ids = append(ids, id)
		}
	}
	if err := s.userRepo.ReplacePermittedRequesters(ctx, userID, ids); err != nil {
		s.LogFailure(ctx, err, "Failed to replace permitted requesters", slog.String("user_id", userID))
		return nil, fmt.Errorf("failed to replace permitted requesters for user %s: %w", userID, err)
	}
	return s.loadActor(ctx, userID)
}

// dedupe drops blanks and repeats, keeping first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
