package main

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
	"github.com/SscSPs/budget_approval_app/internal/repositories/database/pgsql"
	"github.com/SscSPs/budget_approval_app/internal/utils"
	"github.com/SscSPs/budget_approval_app/pkg/database"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// defaultChain is the level chain installed by seed --with-default-levels, in promotion order.
var defaultChain = []domain.Level{
	{Name: "Solicitante", Priority: 1, CanCreateBudget: true},
	{Name: "Coordenador", Priority: 2, CanCreateBudget: true, CanApprove: true},
	{Name: "Diretor", Priority: 3, CanCreateBudget: true, CanApprove: true},
	{Name: "Compras", Priority: 4, CanCreateBudget: true, CanApprove: true, IsFinalLevel: true},
}

type seedOptions struct {
	email         string
	password      string
	name          string
	defaultLevels bool
}

func newSeedCmd(a *app) *cobra.Command {
	opts := seedOptions{}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the first admin and, optionally, a default level chain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(opts.email) == "" || len(opts.password) < 8 {
				return fmt.Errorf("--admin-email is required and --admin-password needs at least 8 characters")
			}
			dbPool, err := database.NewPgxPool(cmd.Context(), a.cfg.DatabaseURL, true)
			if err != nil {
				return err
			}
			defer database.ClosePgxPool(dbPool)
			return seed(cmd.Context(), a.logger, pgsql.NewRepositoryProvider(dbPool), opts)
		},
	}
	cmd.Flags().StringVar(&opts.email, "admin-email", "", "admin login email")
	cmd.Flags().StringVar(&opts.password, "admin-password", "", "admin password")
	cmd.Flags().StringVar(&opts.name, "admin-name", "Administrator", "admin display name")
	cmd.Flags().BoolVar(&opts.defaultLevels, "with-default-levels", false, "install Solicitante -> Coordenador -> Diretor -> Compras")
	return cmd
}

func seed(ctx context.Context, logger *slog.Logger, repos portsrepo.RepositoryProvider, opts seedOptions) error {
	adminID, err := ensureAdmin(ctx, logger, repos.UserRepo, opts)
	if err != nil {
		return err
	}
	if !opts.defaultLevels {
		return nil
	}
	return ensureDefaultChain(ctx, logger, repos.LevelRepo, adminID)
}

func ensureAdmin(ctx context.Context, logger *slog.Logger, users portsrepo.UserRepositoryFacade, opts seedOptions) (string, error) {
	existing, err := users.FindUserByEmail(ctx, opts.email)
	if err == nil {
		logger.Info("Admin already exists, skipping", slog.String("user_id", existing.UserID))
		return existing.UserID, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return "", fmt.Errorf("failed to look up admin: %w", err)
	}

	hash, err := utils.HashPassword(opts.password)
	if err != nil {
		return "", fmt.Errorf("failed to hash admin password: %w", err)
	}
	now := time.Now().UTC()
	id := uuid.NewString()
	admin := domain.User{
		UserID:            id,
		Name:              opts.name,
		Email:             strings.TrimSpace(opts.email),
		PasswordHash:      hash,
		IsAdmin:           true,
		IsActive:          true,
		CanViewAllBudgets: true,
		AuditFields:       domain.AuditFields{CreatedAt: now, CreatedBy: id, LastUpdatedAt: now, LastUpdatedBy: id},
	}
	if err := users.SaveUser(ctx, admin, nil); err != nil {
		return "", fmt.Errorf("failed to save admin: %w", err)
	}
	logger.Info("Admin created", slog.String("user_id", id), slog.String("email", admin.Email))
	return id, nil
}

func ensureDefaultChain(ctx context.Context, logger *slog.Logger, levels portsrepo.LevelRepositoryFacade, adminID string) error {
	now := time.Now().UTC()
	for _, l := range defaultChain {
		l.LevelID = uuid.NewString()
		l.IsActive = true
		l.AuditFields = domain.AuditFields{CreatedAt: now, CreatedBy: adminID, LastUpdatedAt: now, LastUpdatedBy: adminID}
		if err := levels.SaveLevel(ctx, l); err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) {
				logger.Info("Level priority already taken, skipping", slog.String("name", l.Name), slog.Int("priority", l.Priority))
				continue
			}
			return fmt.Errorf("failed to save level %s: %w", l.Name, err)
		}
		logger.Info("Level created", slog.String("name", l.Name), slog.String("level_id", l.LevelID))
	}

	stored, err := levels.ListLevels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list levels: %w", err)
	}
	byPriority := make(map[int]string, len(stored))
	for _, l := range stored {
		byPriority[l.Priority] = l.LevelID
	}

	for i := 0; i+1 < len(defaultChain); i++ {
		origin, okO := byPriority[defaultChain[i].Priority]
		dest, okD := byPriority[defaultChain[i+1].Priority]
		if !okO || !okD {
			continue
		}
		rule := domain.FlowRule{
			RuleID:             uuid.NewString(),
			OriginLevelID:      origin,
			DestinationLevelID: dest,
			CreatedAt:          now,
			CreatedBy:          adminID,
		}
		if err := levels.SaveFlowRule(ctx, rule); err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) {
				continue
			}
			return fmt.Errorf("failed to save flow rule %s -> %s: %w", defaultChain[i].Name, defaultChain[i+1].Name, err)
		}
	}
	logger.Info("Default level chain installed")
	return nil
}
