package pgsql

import (
	portsrepo "github.com/SscSPs/budget_approval_app/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		UserRepo:   newPgxUserRepository(dbPool),
		LevelRepo:  newPgxLevelRepository(dbPool),
		BudgetRepo: newPgxBudgetRepository(dbPool),
	}
}
