package pgsql

import (
	"context"
	"fmt"
	"strconv"

	"github.com/SscSPs/budget_approval_app/internal/apperrors"
	"github.com/SscSPs/budget_approval_app/internal/core/domain"
	portsrepo "github.com/SscSPs/budget_approval_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxLevelRepository struct {
	BaseRepository
}

func newPgxLevelRepository(pool *pgxpool.Pool) portsrepo.LevelRepositoryFacade {
	return &PgxLevelRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.LevelRepositoryFacade = (*PgxLevelRepository)(nil)

const FULL_LEVEL_SELECT_QUERY = `
SELECT
	l.level_id, l.name, l.priority, l.can_create_budget, l.can_approve, l.is_final_level, l.is_active,
	l.created_at, l.created_by, l.last_updated_at, l.last_updated_by
FROM levels l
`

const FULL_FLOW_RULE_SELECT_QUERY = `
SELECT r.rule_id, r.origin_level_id, r.destination_level_id, r.created_at, r.created_by
FROM flow_rules r
`

func (r *PgxLevelRepository) getLevels(ctx context.Context, filterQuery string, args ...any) ([]domain.Level, error) {
	rows, err := r.Pool.Query(ctx, FULL_LEVEL_SELECT_QUERY+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query levels", err)
	}
	defer rows.Close()
	levels, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.Level])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect level rows", err)
	}
	return levels, nil
}

func (r *PgxLevelRepository) getFlowRules(ctx context.Context, filterQuery string, args ...any) ([]domain.FlowRule, error) {
	rows, err := r.Pool.Query(ctx, FULL_FLOW_RULE_SELECT_QUERY+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query flow rules", err)
	}
	defer rows.Close()
	rules, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.FlowRule])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect flow rule rows", err)
	}
	return rules, nil
}

func (r *PgxLevelRepository) FindLevelByID(ctx context.Context, levelID string) (*domain.Level, error) {
	levels, err := r.getLevels(ctx, `WHERE l.level_id = $1`, levelID)
	if err != nil {
		return nil, err
	}
	if len(levels) == 0 {
		return nil, apperrors.NewNotFoundError("level " + levelID + " not found")
	}
	return &levels[0], nil
}

func (r *PgxLevelRepository) ListLevels(ctx context.Context) ([]domain.Level, error) {
	return r.getLevels(ctx, `ORDER BY l.priority`)
}

func (r *PgxLevelRepository) ListFlowRules(ctx context.Context) ([]domain.FlowRule, error) {
	return r.getFlowRules(ctx, `ORDER BY r.created_at, r.rule_id`)
}

func (r *PgxLevelRepository) ListFlowRulesForLevel(ctx context.Context, levelID string) ([]domain.FlowRule, error) {
	return r.getFlowRules(ctx, `WHERE r.origin_level_id = $1 OR r.destination_level_id = $1 ORDER BY r.created_at, r.rule_id`, levelID)
}

func (r *PgxLevelRepository) SaveLevel(ctx context.Context, level domain.Level) error {
	query := `
		INSERT INTO levels (
			level_id, name, priority, can_create_budget, can_approve, is_final_level, is_active,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.Pool.Exec(ctx, query,
		level.LevelID,
		level.Name,
		level.Priority,
		level.CanCreateBudget,
		level.CanApprove,
		level.IsFinalLevel,
		level.IsActive,
		level.CreatedAt,
		level.CreatedBy,
		level.LastUpdatedAt,
		level.LastUpdatedBy,
	)
	if err != nil {
		if pgErrorCode(err) == uniqueViolation {
			return apperrors.NewConflictError("priority " + strconv.Itoa(level.Priority) + " is already taken")
		}
		return apperrors.NewAppError(500, "failed to save level "+level.LevelID, err)
	}
	return nil
}

func (r *PgxLevelRepository) UpdateLevel(ctx context.Context, level domain.Level) error {
	query := `
		UPDATE levels
		SET name = $1, priority = $2, can_create_budget = $3, can_approve = $4, is_final_level = $5,
			is_active = $6, last_updated_at = $7, last_updated_by = $8
		WHERE level_id = $9;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		level.Name,
		level.Priority,
		level.CanCreateBudget,
		level.CanApprove,
		level.IsFinalLevel,
		level.IsActive,
		level.LastUpdatedAt,
		level.LastUpdatedBy,
		level.LevelID,
	)
	if err != nil {
		if pgErrorCode(err) == uniqueViolation {
			return apperrors.NewConflictError("priority " + strconv.Itoa(level.Priority) + " is already taken")
		}
		return apperrors.NewAppError(500, "failed to update level "+level.LevelID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("level " + level.LevelID + " not found")
	}
	return nil
}

func (r *PgxLevelRepository) DeleteLevel(ctx context.Context, levelID string) error {
	cmdTag, err := r.Pool.Exec(ctx, `DELETE FROM levels WHERE level_id = $1;`, levelID)
	if err != nil {
		if pgErrorCode(err) == foreignKeyViolation {
			return apperrors.NewValidationFailedError("level " + levelID + " is still used by budgets or personalized flows")
		}
		return apperrors.NewAppError(500, "failed to delete level "+levelID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("level " + levelID + " not found")
	}
	return nil
}

func (r *PgxLevelRepository) SaveFlowRule(ctx context.Context, rule domain.FlowRule) error {
	query := `
		INSERT INTO flow_rules (rule_id, origin_level_id, destination_level_id, created_at, created_by)
		VALUES ($1, $2, $3, $4, $5);
	`
	_, err := r.Pool.Exec(ctx, query, rule.RuleID, rule.OriginLevelID, rule.DestinationLevelID, rule.CreatedAt, rule.CreatedBy)
	if err != nil {
		switch pgErrorCode(err) {
		case uniqueViolation:
			return apperrors.NewConflictError("flow rule already exists")
		case foreignKeyViolation:
			return apperrors.NewValidationFailedError("flow rule references an unknown level")
		}
		return apperrors.NewAppError(500, "failed to save flow rule "+rule.RuleID, err)
	}
	return nil
}

func (r *PgxLevelRepository) DeleteFlowRule(ctx context.Context, levelID, ruleID string) error {
	query := `
		DELETE FROM flow_rules
		WHERE rule_id = $1 AND (origin_level_id = $2 OR destination_level_id = $2);
	`
	cmdTag, err := r.Pool.Exec(ctx, query, ruleID, levelID)
	if err != nil {
		return apperrors.NewAppError(500, "failed to delete flow rule "+ruleID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.NewNotFoundError("flow rule " + ruleID + " not found for level " + levelID)
	}
	return nil
}

func (r *PgxLevelRepository) FindUserFlow(ctx context.Context, requesterID string) ([]domain.UserFlowEntry, error) {
	query := `
		SELECT requester_id, position, level_id, is_active
		FROM user_flows
		WHERE requester_id = $1
		ORDER BY position;
	`
	rows, err := r.Pool.Query(ctx, query, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to query flow for requester %s: %w", requesterID, err)
	}
	defer rows.Close()
	entries, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.UserFlowEntry])
	if err != nil {
		return nil, fmt.Errorf("failed to collect flow rows: %w", err)
	}
	return entries, nil
}

func (r *PgxLevelRepository) ReplaceUserFlow(ctx context.Context, requesterID string, levelIDs []string) ([]domain.UserFlowEntry, error) {
	entries := make([]domain.UserFlowEntry, len(levelIDs))
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_flows WHERE requester_id = $1;`, requesterID); err != nil {
			return fmt.Errorf("failed to clear flow: %w", err)
		}
		batch := &pgx.Batch{}
		for i, levelID := range levelIDs {
			entries[i] = domain.UserFlowEntry{RequesterID: requesterID, Position: i + 1, LevelID: levelID, IsActive: true}
			batch.Queue(`
				INSERT INTO user_flows (requester_id, position, level_id, is_active)
				VALUES ($1, $2, $3, TRUE);
			`, requesterID, i+1, levelID)
		}
		return execBatch(ctx, tx, batch)
	})
	if err != nil {
		switch pgErrorCode(err) {
		case uniqueViolation:
			return nil, apperrors.NewValidationFailedError("a level appears more than once in the flow")
		case foreignKeyViolation:
			return nil, apperrors.NewValidationFailedError("flow references an unknown level or requester")
		}
		return nil, apperrors.NewAppError(500, "failed to replace flow for requester "+requesterID, err)
	}
	return entries, nil
}

func (r *PgxLevelRepository) DeleteUserFlow(ctx context.Context, requesterID string) error {
	if _, err := r.Pool.Exec(ctx, `DELETE FROM user_flows WHERE requester_id = $1;`, requesterID); err != nil {
		return apperrors.NewAppError(500, "failed to delete flow for requester "+requesterID, err)
	}
	return nil
}
