package services_test

import (
	"context"

	"github.com/SscSPs/budget_approval_app/internal/core/domain"
	"github.com/SscSPs/budget_approval_app/internal/core/workflow"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
)

// --- Mock ActorResolver ---
type MockActorResolver struct {
	mock.Mock
}

func (m *MockActorResolver) ResolveActor(ctx context.Context, userID string) (*domain.Actor, error) {
	args := m.Called(ctx, userID)
	var actor *domain.Actor
	if args.Get(0) != nil {
		actor = args.Get(0).(*domain.Actor)
	}
	return actor, args.Error(1)
}

// --- Mock UserRepository ---
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	var user *domain.User
	if args.Get(0) != nil {
		user = args.Get(0).(*domain.User)
	}
	return user, args.Error(1)
}

func (m *MockUserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	var user *domain.User
	if args.Get(0) != nil {
		user = args.Get(0).(*domain.User)
	}
	return user, args.Error(1)
}

func (m *MockUserRepository) FindUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	args := m.Called(ctx, limit, offset)
	var users []domain.User
	if args.Get(0) != nil {
		users = args.Get(0).([]domain.User)
	}
	return users, args.Error(1)
}

func (m *MockUserRepository) FindLevelsForUser(ctx context.Context, userID string) ([]domain.Level, error) {
	args := m.Called(ctx, userID)
	var levels []domain.Level
	if args.Get(0) != nil {
		levels = args.Get(0).([]domain.Level)
	}
	return levels, args.Error(1)
}

func (m *MockUserRepository) FindPermittedRequesters(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	var ids []string
	if args.Get(0) != nil {
		ids = args.Get(0).([]string)
	}
	return ids, args.Error(1)
}

func (m *MockUserRepository) SaveUser(ctx context.Context, user domain.User, levelIDs []string) error {
	args := m.Called(ctx, user, levelIDs)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateUser(ctx context.Context, user domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) ReplaceUserLevels(ctx context.Context, userID string, levelIDs []string) error {
	args := m.Called(ctx, userID, levelIDs)
	return args.Error(0)
}

func (m *MockUserRepository) ReplacePermittedRequesters(ctx context.Context, userID string, requesterIDs []string) error {
	args := m.Called(ctx, userID, requesterIDs)
	return args.Error(0)
}

// --- Mock LevelRepository ---
type MockLevelRepository struct {
	mock.Mock
}

func (m *MockLevelRepository) FindLevelByID(ctx context.Context, levelID string) (*domain.Level, error) {
	args := m.Called(ctx, levelID)
	var level *domain.Level
	if args.Get(0) != nil {
		level = args.Get(0).(*domain.Level)
	}
	return level, args.Error(1)
}

func (m *MockLevelRepository) ListLevels(ctx context.Context) ([]domain.Level, error) {
	args := m.Called(ctx)
	var levels []domain.Level
	if args.Get(0) != nil {
		levels = args.Get(0).([]domain.Level)
	}
	return levels, args.Error(1)
}

func (m *MockLevelRepository) ListFlowRules(ctx context.Context) ([]domain.FlowRule, error) {
	args := m.Called(ctx)
	var rules []domain.FlowRule
	if args.Get(0) != nil {
		rules = args.Get(0).([]domain.FlowRule)
	}
	return rules, args.Error(1)
}

func (m *MockLevelRepository) ListFlowRulesForLevel(ctx context.Context, levelID string) ([]domain.FlowRule, error) {
	args := m.Called(ctx, levelID)
	var rules []domain.FlowRule
	if args.Get(0) != nil {
		rules = args.Get(0).([]domain.FlowRule)
	}
	return rules, args.Error(1)
}

func (m *MockLevelRepository) SaveLevel(ctx context.Context, level domain.Level) error {
	args := m.Called(ctx, level)
	return args.Error(0)
}

func (m *MockLevelRepository) UpdateLevel(ctx context.Context, level domain.Level) error {
	args := m.Called(ctx, level)
	return args.Error(0)
}

func (m *MockLevelRepository) DeleteLevel(ctx context.Context, levelID string) error {
	args := m.Called(ctx, levelID)
	return args.Error(0)
}

func (m *MockLevelRepository) SaveFlowRule(ctx context.Context, rule domain.FlowRule) error {
	args := m.Called(ctx, rule)
	return args.Error(0)
}

func (m *MockLevelRepository) DeleteFlowRule(ctx context.Context, levelID, ruleID string) error {
	args := m.Called(ctx, levelID, ruleID)
	return args.Error(0)
}

func (m *MockLevelRepository) FindUserFlow(ctx context.Context, requesterID string) ([]domain.UserFlowEntry, error) {
	args := m.Called(ctx, requesterID)
	var entries []domain.UserFlowEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]domain.UserFlowEntry)
	}
	return entries, args.Error(1)
}

func (m *MockLevelRepository) ReplaceUserFlow(ctx context.Context, requesterID string, levelIDs []string) ([]domain.UserFlowEntry, error) {
	args := m.Called(ctx, requesterID, levelIDs)
	var entries []domain.UserFlowEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]domain.UserFlowEntry)
	}
	return entries, args.Error(1)
}

func (m *MockLevelRepository) DeleteUserFlow(ctx context.Context, requesterID string) error {
	args := m.Called(ctx, requesterID)
	return args.Error(0)
}

// --- Mock BudgetRepository ---
type MockBudgetRepository struct {
	mock.Mock
}

func (m *MockBudgetRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	var tx pgx.Tx
	if args.Get(0) != nil {
		tx = args.Get(0).(pgx.Tx)
	}
	return tx, args.Error(1)
}

func (m *MockBudgetRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockBudgetRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockBudgetRepository) FindBudgetByID(ctx context.Context, budgetID string) (*domain.Budget, error) {
	args := m.Called(ctx, budgetID)
	var budget *domain.Budget
	if args.Get(0) != nil {
		budget = args.Get(0).(*domain.Budget)
	}
	return budget, args.Error(1)
}

func (m *MockBudgetRepository) FindApprovals(ctx context.Context, budgetID string) ([]domain.Approval, error) {
	args := m.Called(ctx, budgetID)
	var approvals []domain.Approval
	if args.Get(0) != nil {
		approvals = args.Get(0).([]domain.Approval)
	}
	return approvals, args.Error(1)
}

func (m *MockBudgetRepository) FindRejections(ctx context.Context, budgetID string) ([]domain.Rejection, error) {
	args := m.Called(ctx, budgetID)
	var rejections []domain.Rejection
	if args.Get(0) != nil {
		rejections = args.Get(0).([]domain.Rejection)
	}
	return rejections, args.Error(1)
}

func (m *MockBudgetRepository) ListBudgets(ctx context.Context, scope workflow.Scope, filter domain.BudgetFilter) ([]domain.Budget, error) {
	args := m.Called(ctx, scope, filter)
	var budgets []domain.Budget
	if args.Get(0) != nil {
		budgets = args.Get(0).([]domain.Budget)
	}
	return budgets, args.Error(1)
}

func (m *MockBudgetRepository) SummarizeBudgets(ctx context.Context, scope workflow.Scope, filter domain.BudgetFilter) (*domain.BudgetSummary, error) {
	args := m.Called(ctx, scope, filter)
	var summary *domain.BudgetSummary
	if args.Get(0) != nil {
		summary = args.Get(0).(*domain.BudgetSummary)
	}
	return summary, args.Error(1)
}

func (m *MockBudgetRepository) CountOpenBudgetsAtLevel(ctx context.Context, levelID string) (int, error) {
	args := m.Called(ctx, levelID)
	return args.Int(0), args.Error(1)
}

func (m *MockBudgetRepository) SaveBudget(ctx context.Context, budget domain.Budget) error {
	args := m.Called(ctx, budget)
	return args.Error(0)
}

func (m *MockBudgetRepository) DeleteAllBudgets(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBudgetRepository) FindBudgetByIDForUpdate(ctx context.Context, tx pgx.Tx, budgetID string) (*domain.Budget, error) {
	args := m.Called(ctx, tx, budgetID)
	var budget *domain.Budget
	if args.Get(0) != nil {
		budget = args.Get(0).(*domain.Budget)
	}
	return budget, args.Error(1)
}

func (m *MockBudgetRepository) UpdateBudgetInTx(ctx context.Context, tx pgx.Tx, budget domain.Budget) error {
	args := m.Called(ctx, tx, budget)
	return args.Error(0)
}

func (m *MockBudgetRepository) SaveApprovalInTx(ctx context.Context, tx pgx.Tx, approval domain.Approval) error {
	args := m.Called(ctx, tx, approval)
	return args.Error(0)
}

func (m *MockBudgetRepository) SaveRejectionInTx(ctx context.Context, tx pgx.Tx, rejection domain.Rejection) error {
	args := m.Called(ctx, tx, rejection)
	return args.Error(0)
}

func (m *MockBudgetRepository) DeleteBudgetInTx(ctx context.Context, tx pgx.Tx, budgetID string) error {
	args := m.Called(ctx, tx, budgetID)
	return args.Error(0)
}
