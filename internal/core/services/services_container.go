package services

import (
	portsrepo "github.com/SscSPs/budget_approval_app/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/budget_approval_app/internal/core/ports/services"
	"github.com/SscSPs/budget_approval_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// The user service resolves actors for every other service.
	container.User = NewUserService(repos.UserRepo, repos.LevelRepo)
	resolver := container.User.(portssvc.ActorResolverSvc)

	container.Level = NewLevelService(repos.LevelRepo, repos.BudgetRepo, resolver)

	container.Budget = NewBudgetService(
		repos.BudgetRepo,
		repos.UserRepo,
		repos.LevelRepo,
		WithBudgetActorResolver(resolver),
		WithRequireFinalLevel(cfg.RequireFinalLevel),
		WithPageSizes(cfg.DefaultPageSize, cfg.MaxPageSize),
	)

	return container
}
