package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/SscSPs/budget_approval_app/internal/apperrors"
	"github.com/SscSPs/budget_approval_app/internal/core/domain"
	portsrepo "github.com/SscSPs/budget_approval_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgxUserRepository struct {
	BaseRepository
}

func newPgxUserRepository(pool *pgxpool.Pool) portsrepo.UserRepositoryFacade {
	return &PgxUserRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure PgxUserRepository implements portsrepo.UserRepositoryFacade
var _ portsrepo.UserRepositoryFacade = (*PgxUserRepository)(nil)

const FULL_USER_SELECT_QUERY = `
SELECT
	u.user_id, u.name, u.email, u.password_hash, u.is_admin, u.is_active, u.can_view_all_budgets,
	u.created_at, u.created_by, u.last_updated_at, u.last_updated_by
FROM users u
`

func (r *PgxUserRepository) getUsers(ctx context.Context, filterQuery string, args ...any) ([]domain.User, error) {
	rows, err := r.Pool.Query(ctx, FULL_USER_SELECT_QUERY+filterQuery, args...)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query users", err)
	}
	defer rows.Close()
	users, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.User])
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to collect user rows", err)
	}
	return users, nil
}

func (r *PgxUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	users, err := r.getUsers(ctx, `WHERE u.user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, apperrors.NewNotFoundError("user " + userID + " not found")
	}
	return &users[0], nil
}

func (r *PgxUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	users, err := r.getUsers(ctx, `WHERE LOWER(u.email) = LOWER($1)`, email)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, apperrors.ErrNotFound
	}
	return &users[0], nil
}

func (r *PgxUserRepository) FindUsers(ctx context.Context, limit int, offset int) ([]domain.User, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return r.getUsers(ctx, `ORDER BY u.name, u.user_id LIMIT $1 OFFSET $2`, limit, offset)
}

func (r *PgxUserRepository) FindLevelsForUser(ctx context.Context, userID string) ([]domain.Level, error) {
	query := FULL_LEVEL_SELECT_QUERY + `
		JOIN user_levels ul ON ul.level_id = l.level_id
		WHERE ul.user_id = $1
		ORDER BY l.priority;
	`
	rows, err := r.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query levels for user %s: %w", userID, err)
	}
	defer rows.Close()
	levels, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.Level])
	if err != nil {
		return nil, fmt.Errorf("failed to collect level rows: %w", err)
	}
	return levels, nil
}

func (r *PgxUserRepository) FindPermittedRequesters(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT requester_id FROM user_permitted_requesters
		WHERE viewer_id = $1
		ORDER BY requester_id;
	`
	rows, err := r.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query permitted requesters for user %s: %w", userID, err)
	}
	defer rows.Close()
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to collect permitted requesters: %w", err)
	}
	return ids, nil
}

func (r *PgxUserRepository) SaveUser(ctx context.Context, user domain.User, levelIDs []string) error {
	query := `
		INSERT INTO users (
			user_id, name, email, password_hash, is_admin, is_active, can_view_all_budgets,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	return r.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query,
			user.UserID,
			user.Name,
			user.Email,
			user.PasswordHash,
			user.IsAdmin,
			user.IsActive,
			user.CanViewAllBudgets,
			user.CreatedAt,
			user.CreatedBy,
			user.LastUpdatedAt,
			user.LastUpdatedBy,
		)
		if err != nil {
			if pgErrorCode(err) == uniqueViolation {
				return apperrors.NewConflictError("email " + user.Email + " is already registered")
			}
			return apperrors.NewAppError(500, "failed to save user "+user.UserID, err)
		}

		batch := &pgx.Batch{}
		for _, levelID := range levelIDs {
			batch.Queue(`INSERT INTO user_levels (user_id, level_id) VALUES ($1, $2);`, user.UserID, levelID)
		}
		return mapAssignmentError(execBatch(ctx, tx, batch), "level")
	})
}

func (r *PgxUserRepository) UpdateUser(ctx context.Context, user domain.User) error {
	query := `
		UPDATE users
		SET name = $1, is_admin = $2, is_active = $3, can_view_all_budgets = $4,
			last_updated_at = $5, last_updated_by = $6
		WHERE user_id = $7;
	`
	cmdTag, err := r.Pool.Exec(ctx, query,
		user.Name,
		user.IsAdmin,
		user.IsActive,
		user.CanViewAllBudgets,
		user.LastUpdatedAt,
		user.LastUpdatedBy,
		user.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to execute update user query: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("user %s not found: %w", user.UserID, apperrors.ErrNotFound)
	}
	return nil
}

func (r *PgxUserRepository) ReplaceUserLevels(ctx context.Context, userID string, levelIDs []string) error {
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_levels WHERE user_id = $1;`, userID); err != nil {
			return fmt.Errorf("failed to clear levels: %w", err)
		}
		batch := &pgx.Batch{}
		for _, levelID := range levelIDs {
			batch.Queue(`INSERT INTO user_levels (user_id, level_id) VALUES ($1, $2);`, userID, levelID)
		}
		return execBatch(ctx, tx, batch)
	})
	return mapAssignmentError(err, "level")
}

func (r *PgxUserRepository) ReplacePermittedRequesters(ctx context.Context, userID string, requesterIDs []string) error {
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_permitted_requesters WHERE viewer_id = $1;`, userID); err != nil {
			return fmt.Errorf("failed to clear permitted requesters: %w", err)
		}
		batch := &pgx.Batch{}
		for _, requesterID := range requesterIDs {
			batch.Queue(`INSERT INTO user_permitted_requesters (viewer_id, requester_id) VALUES ($1, $2);`, userID, requesterID)
		}
		return execBatch(ctx, tx, batch)
	})
	return mapAssignmentError(err, "user")
}

// mapAssignmentError turns a dangling reference in a join-table rewrite into a validation error.
func mapAssignmentError(err error, referenced string) error {
	if err == nil {
		return nil
	}
	if pgErrorCode(err) == foreignKeyViolation {
		return apperrors.NewValidationFailedError("unknown " + referenced + " in assignment")
	}
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.NewAppError(500, "failed to replace "+referenced+" assignments", err)
}
