package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/budget_approval_app/internal/apperrors"
	"github.com/SscSPs/budget_approval_app/internal/core/domain"
)

func (s *userService) GetUserFlow(ctx context.Context, actorID, requesterID string) ([]domain.UserFlowEntry, error) {
	if _, err := s.Admin(ctx, actorID); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.FindUserByID(ctx, requesterID); err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", requesterID, err)
	}
	entries, err := s.levelRepo.FindUserFlow(ctx, requesterID)
	if err != nil {
		s.LogError(ctx, err, "Failed to load personalized flow", slog.String("requester_id", requesterID))
		return nil, fmt.Errorf("failed to load flow for user %s: %w", requesterID, err)
	}
	active := make([]domain.UserFlowEntry, 0, len(entries))
	for _, e := range entries {
		if e.IsActive {
			active = append(active, e)
		}
	}
	return active, nil
}

// ReplaceUserFlow rewrites the requester's personalized flow. Every level must
// exist, be active and appear once. An empty list removes the flow.
func (s *userService) ReplaceUserFlow(ctx context.Context, actorID, requesterID string, levelIDs []string) ([]domain.UserFlowEntry, error) {
	if _, err := s.Admin(ctx, actorID); err != nil {
		return nil, err
	}
	if _, err := s.userRepo.FindUserByID(ctx, requesterID); err != nil {
		return nil, fmt.Errorf("failed to find user %s: %w", requesterID, err)
	}
	if len(levelIDs) == 0 {
		if err := s.DeleteUserFlow(ctx, actorID, requesterID); err != nil {
			return nil, err
		}
		return []domain.UserFlowEntry{}, nil
	}

	levels, err := s.levelRepo.ListLevels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list levels: %w", err)
	}
	known := make(map[string]domain.Level, len(levels))
	for _, l := range levels {
		known[l.LevelID] = l
	}
	seen := make(map[string]bool, len(levelIDs))
	for _, id := range levelIDs {
		l, ok := known[id]
		if !ok {
			return nil, fmt.Errorf("%w: level %s", apperrors.ErrNotFound, id)
		}
		if !l.IsActive {
			return nil, validationError("level %s is inactive", l.Name)
		}
		if seen[id] {
			return nil, validationError("level %s appears more than once in the flow", l.Name)
		}
		seen[id] = true
	}

	entries, err := s.levelRepo.ReplaceUserFlow(ctx, requesterID, levelIDs)
	if err != nil {
		s.LogFailure(ctx, err, "Failed to replace personalized flow", slog.String("requester_id", requesterID))
		return nil, fmt.Errorf("failed to replace flow for user %s: %w", requesterID, err)
	}
	s.LogInfo(ctx, "Personalized flow replaced", slog.String("requester_id", requesterID), slog.Int("length", len(entries)))
	return entries, nil
}

func (s *userService) DeleteUserFlow(ctx context.Context, actorID, requesterID string) error {
	if _, err := s.Admin(ctx, actorID); err != nil {
		return err
	}
	if err := s.levelRepo.DeleteUserFlow(ctx, requesterID); err != nil {
		s.LogFailure(ctx, err, "Failed to delete personalized flow", slog.String("requester_id", requesterID))
		return fmt.Errorf("failed to delete flow for user %s: %w", requesterID, err)
	}
	s.LogInfo(ctx, "Personalized flow deleted", slog.String("requester_id", requesterID))
	return nil
}
