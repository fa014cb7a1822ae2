package services

// ServiceContainer holds instances of all the application services.
// It is built once in main and handed to the HTTP handlers.
type ServiceContainer struct {
	User   UserSvcFacade
	Level  LevelSvcFacade
	Budget BudgetSvcFacade
}
