package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/SscSPs/budget_approval_app/internal/apperrors"
	"github.com/SscSPs/budget_approval_app/internal/core/domain"
	portssvc "github.com/SscSPs/budget_approval_app/internal/core/ports/services"
	"github.com/SscSPs/budget_approval_app/internal/core/services"
	"github.com/SscSPs/budget_approval_app/internal/core/workflow"
	"github.com/SscSPs/budget_approval_app/internal/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

const requesterID = "requester-1"

var (
	levelRequester = domain.Level{LevelID: "l1", Name: "Solicitante", Priority: 1, CanCreateBudget: true, IsActive: true}
	levelApprover  = domain.Level{LevelID: "l2", Name: "Coordenador", Priority: 2, CanApprove: true, IsActive: true}
	levelBuyer     = domain.Level{LevelID: "buy", Name: "Compras", Priority: 4, CanApprove: true, IsFinalLevel: true, IsActive: true}
)

func testActor(id string, admin bool, levels ...domain.Level) *domain.Actor {
	return &domain.Actor{
		User:   domain.User{UserID: id, Name: id, IsActive: true, IsAdmin: admin},
		Levels: levels,
	}
}

func pendingBudget(levelID string) *domain.Budget {
	return &domain.Budget{
		BudgetID:       "budget-1",
		Title:          "Notebook",
		Description:    "Notebook for the new analyst",
		UnitValue:      decimal.NewFromInt(4500),
		Quantity:       1,
		Status:         domain.StatusPending,
		RequesterID:    requesterID,
		BranchID:       "matriz",
		CurrentLevelID: levelID,
	}
}

// --- Test Suite ---
type BudgetServiceTestSuite struct {
	suite.Suite
	mockBudgetRepo *MockBudgetRepository
	mockUserRepo   *MockUserRepository
	mockLevelRepo  *MockLevelRepository
	mockResolver   *MockActorResolver
	service        portssvc.BudgetSvcFacade
	now            time.Time
}

func (suite *BudgetServiceTestSuite) SetupTest() {
	suite.mockBudgetRepo = new(MockBudgetRepository)
	suite.mockUserRepo = new(MockUserRepository)
	suite.mockLevelRepo = new(MockLevelRepository)
	suite.mockResolver = new(MockActorResolver)
	suite.now = time.Date(2025, 5, 10, 14, 0, 0, 0, time.UTC)
	suite.service = services.NewBudgetService(
		suite.mockBudgetRepo,
		suite.mockUserRepo,
		suite.mockLevelRepo,
		services.WithBudgetActorResolver(suite.mockResolver),
		services.WithPageSizes(2, 10),
		services.WithClock(func() time.Time { return suite.now }),
	)
}

func (suite *BudgetServiceTestSuite) expectActor(actor *domain.Actor) {
	suite.mockResolver.On("ResolveActor", mock.Anything, actor.UserID).Return(actor, nil)
}

// expectDefaultGraph wires Solicitante -> Coordenador -> Compras with the requester holding Solicitante.
func (suite *BudgetServiceTestSuite) expectDefaultGraph(flow []domain.UserFlowEntry) {
	suite.mockLevelRepo.On("ListLevels", mock.Anything).
		Return([]domain.Level{levelRequester, levelApprover, levelBuyer}, nil).Maybe()
	suite.mockLevelRepo.On("ListFlowRules", mock.Anything).Return([]domain.FlowRule{
		{RuleID: "r1", OriginLevelID: "l1", DestinationLevelID: "l2"},
		{RuleID: "r2", OriginLevelID: "l2", DestinationLevelID: "buy"},
	}, nil).Maybe()
	suite.mockLevelRepo.On("FindUserFlow", mock.Anything, requesterID).Return(flow, nil).Maybe()
	suite.mockUserRepo.On("FindLevelsForUser", mock.Anything, requesterID).
		Return([]domain.Level{levelRequester}, nil).Maybe()
}

func (suite *BudgetServiceTestSuite) expectTx(budget *domain.Budget) {
	suite.mockBudgetRepo.On("Begin", mock.Anything).Return(nil, nil).Once()
	suite.mockBudgetRepo.On("Rollback", mock.Anything, mock.Anything).Return(nil).Maybe()
	suite.mockBudgetRepo.On("FindBudgetByIDForUpdate", mock.Anything, mock.Anything, budget.BudgetID).Return(budget, nil).Once()
}

func (suite *BudgetServiceTestSuite) expectCommit() {
	suite.mockBudgetRepo.On("UpdateBudgetInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.Budget")).Return(nil).Once()
	suite.mockBudgetRepo.On("Commit", mock.Anything, mock.Anything).Return(nil).Once()
}

func (suite *BudgetServiceTestSuite) assertNothingPersisted() {
	suite.mockBudgetRepo.AssertNotCalled(suite.T(), "UpdateBudgetInTx", mock.Anything, mock.Anything, mock.Anything)
	suite.mockBudgetRepo.AssertNotCalled(suite.T(), "Commit", mock.Anything, mock.Anything)
}

// --- CreateBudget Tests ---
func (suite *BudgetServiceTestSuite) TestCreateBudget_DefaultGraph() {
	ctx := context.Background()
	suite.expectActor(testActor(requesterID, false, levelRequester))
	suite.expectDefaultGraph(nil)
	req := dto.CreateBudgetRequest{
		Title:       " Notebook ",
		Description: "Notebook for the new analyst",
		UnitValue:   decimal.RequireFromString("4500.50"),
		Quantity:    2,
		BranchID:    "matriz",
	}

	suite.mockBudgetRepo.On("SaveBudget", mock.Anything, mock.MatchedBy(func(b domain.Budget) bool {
		return b.Title == "Notebook" &&
			b.Status == domain.StatusPending &&
			b.CurrentLevelID == "l1" &&
			b.NextLevelID != nil && *b.NextLevelID == "l2" &&
			b.RequesterID == requesterID &&
			b.CreatedAt.Equal(suite.now)
	})).Return(nil).Once()

	budget, err := suite.service.CreateBudget(ctx, requesterID, req)

	suite.Require().NoError(err)
	suite.NotEmpty(budget.BudgetID)
	suite.Equal("l1", budget.CurrentLevelID)
	suite.True(decimal.RequireFromString("9001").Equal(budget.TotalValue()))
	suite.mockBudgetRepo.AssertExpectations(suite.T())
}

func (suite *BudgetServiceTestSuite) TestCreateBudget_PersonalizedFlow() {
	ctx := context.Background()
	suite.expectActor(testActor(requesterID, false, levelRequester))
	suite.expectDefaultGraph([]domain.UserFlowEntry{
		{RequesterID: requesterID, Position: 2, LevelID: "buy", IsActive: true},
		{RequesterID: requesterID, Position: 1, LevelID: "l2", IsActive: true},
	})

	suite.mockBudgetRepo.On("SaveBudget", mock.Anything, mock.MatchedBy(func(b domain.Budget) bool {
		return b.CurrentLevelID == "l2" && b.NextLevelID != nil && *b.NextLevelID == "buy"
	})).Return(nil).Once()

	budget, err := suite.service.CreateBudget(ctx, requesterID, dto.CreateBudgetRequest{
		Title: "Chair", Description: "Office chair", UnitValue: decimal.NewFromInt(800), Quantity: 1, BranchID: "matriz",
	})

	suite.Require().NoError(err)
	suite.Equal("l2", budget.CurrentLevelID)
	suite.mockBudgetRepo.AssertExpectations(suite.T())
}

func (suite *BudgetServiceTestSuite) TestCreateBudget_NoLevelAssigned() {
	ctx := context.Background()
	admin := testActor("admin-1", true)
	suite.expectActor(admin)
	suite.mockLevelRepo.On("ListLevels", mock.Anything).Return([]domain.Level{levelRequester}, nil)
	suite.mockLevelRepo.On("ListFlowRules", mock.Anything).Return([]domain.FlowRule{}, nil)
	suite.mockLevelRepo.On("FindUserFlow", mock.Anything, admin.UserID).Return(nil, nil)
	suite.mockUserRepo.On("FindLevelsForUser", mock.Anything, admin.UserID).Return([]domain.Level{}, nil)

	budget, err := suite.service.CreateBudget(ctx, admin.UserID, dto.CreateBudgetRequest{
		Title: "Chair", Description: "Office chair", UnitValue: decimal.NewFromInt(800), Quantity: 1, BranchID: "matriz",
	})

	suite.Nil(budget)
	suite.ErrorIs(err, apperrors.ErrNoLevelAssigned)
	suite.mockBudgetRepo.AssertNotCalled(suite.T(), "SaveBudget", mock.Anything, mock.Anything)
}

func (suite *BudgetServiceTestSuite) TestCreateBudget_ForbiddenWithoutCreatorLevel() {
	ctx := context.Background()
	approverOnly := levelApprover
	approverOnly.CanCreateBudget = false
	suite.expectActor(testActor("approver-1", false, approverOnly))

	budget, err := suite.service.CreateBudget(ctx, "approver-1", dto.CreateBudgetRequest{
		Title: "Chair", Description: "Office chair", UnitValue: decimal.NewFromInt(800), Quantity: 1, BranchID: "matriz",
	})

	suite.Nil(budget)
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *BudgetServiceTestSuite) TestCreateBudget_RejectsNonPositiveValue() {
	ctx := context.Background()
	suite.expectActor(testActor(requesterID, false, levelRequester))

	_, err := suite.service.CreateBudget(ctx, requesterID, dto.CreateBudgetRequest{
		Title: "Chair", Description: "Office chair", UnitValue: decimal.Zero, Quantity: 1, BranchID: "matriz",
	})

	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *BudgetServiceTestSuite) TestCreateBudget_UnknownActor() {
	ctx := context.Background()
	suite.mockResolver.On("ResolveActor", mock.Anything, "ghost").Return(nil, apperrors.ErrUnauthorized)

	_, err := suite.service.CreateBudget(ctx, "ghost", dto.CreateBudgetRequest{})

	suite.ErrorIs(err, apperrors.ErrUnauthorized)
}

// --- Approve Tests ---
func (suite *BudgetServiceTestSuite) TestApprove_AdvancesAlongGraph() {
	ctx := context.Background()
	approver := testActor("approver-1", false, levelRequester)
	suite.expectActor(approver)
	suite.expectDefaultGraph(nil)
	budget := pendingBudget("l1")
	suite.expectTx(budget)
	notes := "ok"
	suite.mockBudgetRepo.On("SaveApprovalInTx", mock.Anything, mock.Anything, mock.MatchedBy(func(a domain.Approval) bool {
		return a.BudgetID == budget.BudgetID && a.ApproverID == approver.UserID && a.LevelID == "l1" && *a.Notes == notes
	})).Return(nil).Once()
	suite.expectCommit()

	updated, err := suite.service.Approve(ctx, approver.UserID, budget.BudgetID, &notes)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusPending, updated.Status)
	suite.Equal("l2", updated.CurrentLevelID)
	suite.Nil(updated.NextLevelID)
	suite.Equal(approver.UserID, updated.LastUpdatedBy)
	suite.mockBudgetRepo.AssertExpectations(suite.T())
}

func (suite *BudgetServiceTestSuite) TestApprove_ReachesPurchasing() {
	ctx := context.Background()
	approver := testActor("approver-1", false, levelApprover)
	suite.expectActor(approver)
	suite.expectDefaultGraph(nil)
	budget := pendingBudget("l2")
	suite.expectTx(budget)
	suite.mockBudgetRepo.On("SaveApprovalInTx", mock.Anything, mock.Anything, mock.MatchedBy(func(a domain.Approval) bool {
		return a.LevelID == "l2"
	})).Return(nil).Once()
	suite.expectCommit()

	updated, err := suite.service.Approve(ctx, approver.UserID, budget.BudgetID, nil)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusAwaitingPurchase, updated.Status)
	suite.Equal("buy", updated.CurrentLevelID)
	suite.Nil(updated.PurchaseDate)
}

func (suite *BudgetServiceTestSuite) TestApprove_ForbiddenForOtherLevel() {
	ctx := context.Background()
	approver := testActor("approver-1", false, levelApprover)
	suite.expectActor(approver)
	budget := pendingBudget("l1")
	suite.expectTx(budget)

	updated, err := suite.service.Approve(ctx, approver.UserID, budget.BudgetID, nil)

	suite.Nil(updated)
	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.assertNothingPersisted()
	suite.mockBudgetRepo.AssertNotCalled(suite.T(), "SaveApprovalInTx", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BudgetServiceTestSuite) TestApprove_RejectedBudgetIsInvalidTransition() {
	ctx := context.Background()
	admin := testActor("admin-1", true)
	suite.expectActor(admin)
	suite.expectDefaultGraph(nil)
	budget := pendingBudget("l1")
	budget.Status = domain.StatusRejected
	suite.expectTx(budget)

	_, err := suite.service.Approve(ctx, admin.UserID, budget.BudgetID, nil)

	suite.ErrorIs(err, apperrors.ErrInvalidTransition)
	suite.assertNothingPersisted()
}

func (suite *BudgetServiceTestSuite) TestApprove_AuditFailureRollsBack() {
	ctx := context.Background()
	approver := testActor("approver-1", false, levelRequester)
	suite.expectActor(approver)
	suite.expectDefaultGraph(nil)
	budget := pendingBudget("l1")
	suite.expectTx(budget)
	suite.mockBudgetRepo.On("SaveApprovalInTx", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError).Once()

	_, err := suite.service.Approve(ctx, approver.UserID, budget.BudgetID, nil)

	suite.ErrorIs(err, assert.AnError)
	suite.assertNothingPersisted()
	suite.mockBudgetRepo.AssertCalled(suite.T(), "Rollback", mock.Anything, mock.Anything)
}

func (suite *BudgetServiceTestSuite) TestApprove_BudgetNotFound() {
	ctx := context.Background()
	admin := testActor("admin-1", true)
	suite.expectActor(admin)
	suite.mockBudgetRepo.On("Begin", mock.Anything).Return(nil, nil).Once()
	suite.mockBudgetRepo.On("Rollback", mock.Anything, mock.Anything).Return(nil).Maybe()
	suite.mockBudgetRepo.On("FindBudgetByIDForUpdate", mock.Anything, mock.Anything, "missing").
		Return(nil, apperrors.NewNotFoundError("budget missing not found")).Once()

	_, err := suite.service.Approve(ctx, admin.UserID, "missing", nil)

	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// --- Reject Tests ---
func (suite *BudgetServiceTestSuite) TestReject_Success() {
	ctx := context.Background()
	approver := testActor("approver-1", false, levelApprover)
	suite.expectActor(approver)
	budget := pendingBudget("l2")
	next := "buy"
	budget.NextLevelID = &next
	suite.expectTx(budget)
	suite.mockBudgetRepo.On("SaveRejectionInTx", mock.Anything, mock.Anything, mock.MatchedBy(func(r domain.Rejection) bool {
		return r.Reason == "too expensive" && r.LevelID == "l2" && r.RejectorID == approver.UserID
	})).Return(nil).Once()
	suite.expectCommit()

	updated, err := suite.service.Reject(ctx, approver.UserID, budget.BudgetID, " too expensive ", nil)

	suite.Require().NoError(err)
	suite.Equal(domain.StatusRejected, updated.Status)
	suite.Equal("l2", updated.CurrentLevelID)
	suite.Nil(updated.NextLevelID)
	suite.mockBudgetRepo.AssertExpectations(suite.T())
}

func (suite *BudgetServiceTestSuite) TestReject_RequiresReason() {
	_, err := suite.service.Reject(context.Background(), "approver-1", "budget-1", "  ", nil)

	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockBudgetRepo.AssertNotCalled(suite.T(), "Begin", mock.Anything)
}

func (suite *BudgetServiceTestSuite) TestReject_LevelWithoutApproveFlag() {
	ctx := context.Background()
	holder := testActor("holder-1", false, levelRequester)
	suite.expectActor(holder)
	suite.expectTx(pendingBudget("l1"))

	_, err := suite.service.Reject(ctx, holder.UserID, "budget-1", "no", nil)

	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.assertNothingPersisted()
}

func (suite *BudgetServiceTestSuite) TestReject_Twice() {
	ctx := context.Background()
	approver := testActor("approver-1", false, levelApprover)
	suite.expectActor(approver)
	budget := pendingBudget("l2")
	budget.Status = domain.StatusRejected
	suite.expectTx(budget)

	_, err := suite.service.Reject(ctx, approver.UserID, budget.BudgetID, "again", nil)

	suite.ErrorIs(err, apperrors.ErrInvalidTransition)
	suite.mockBudgetRepo.AssertNotCalled(suite.T(), "SaveRejectionInTx", mock.Anything, mock.Anything, mock.Anything)
}

// --- Purchasing Tests ---
func (suite *BudgetServiceTestSuite) TestMarkPurchasedAndClose() {
	ctx := context.Background()
	buyer := testActor("buyer-1", false, levelBuyer)
	suite.expectActor(buyer)

	budget := pendingBudget("buy")
	budget.Status = domain.StatusAwaitingPurchase
	suite.expectTx(budget)
	suite.expectCommit()

	purchased, err := suite.service.MarkPurchased(ctx, buyer.UserID, budget.BudgetID)
	suite.Require().NoError(err)
	suite.Equal(domain.StatusPurchased, purchased.Status)
	suite.Require().NotNil(purchased.PurchaseDate)
	suite.True(purchased.PurchaseDate.Equal(suite.now))

	suite.expectTx(purchased)
	suite.expectCommit()

	closed, err := suite.service.Close(ctx, buyer.UserID, budget.BudgetID)
	suite.Require().NoError(err)
	suite.Equal(domain.StatusFinished, closed.Status)
	suite.Require().NotNil(closed.DeliveryDate)
}

func (suite *BudgetServiceTestSuite) TestMarkPurchased_PendingBudget() {
	ctx := context.Background()
	buyer := testActor("buyer-1", false, levelBuyer)
	suite.expectActor(buyer)
	suite.expectTx(pendingBudget("l2"))

	_, err := suite.service.MarkPurchased(ctx, buyer.UserID, "budget-1")

	suite.ErrorIs(err, apperrors.ErrInvalidTransition)
	suite.assertNothingPersisted()
}

func (suite *BudgetServiceTestSuite) TestClose_ForbiddenForApprover() {
	ctx := context.Background()
	approver := testActor("approver-1", false, levelApprover)
	suite.expectActor(approver)
	budget := pendingBudget("buy")
	budget.Status = domain.StatusPurchased
	suite.expectTx(budget)

	_, err := suite.service.Close(ctx, approver.UserID, budget.BudgetID)

	suite.ErrorIs(err, apperrors.ErrForbidden)
}

// --- Edit/Delete Tests ---
func (suite *BudgetServiceTestSuite) TestUpdateBudget_AtInitialLevel() {
	ctx := context.Background()
	suite.expectActor(testActor(requesterID, false, levelRequester))
	suite.expectDefaultGraph(nil)
	suite.expectTx(pendingBudget("l1"))
	suite.expectCommit()
	title := "Notebook 16GB"
	qty := 3

	updated, err := suite.service.UpdateBudget(ctx, requesterID, "budget-1", dto.UpdateBudgetRequest{Title: &title, Quantity: &qty})

	suite.Require().NoError(err)
	suite.Equal(title, updated.Title)
	suite.Equal(3, updated.Quantity)
	suite.Equal("Notebook for the new analyst", updated.Description)
}

func (suite *BudgetServiceTestSuite) TestUpdateBudget_AfterPromotion() {
	ctx := context.Background()
	suite.expectActor(testActor(requesterID, false, levelRequester))
	suite.expectDefaultGraph(nil)
	suite.expectTx(pendingBudget("l2"))
	title := "late change"

	_, err := suite.service.UpdateBudget(ctx, requesterID, "budget-1", dto.UpdateBudgetRequest{Title: &title})

	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.assertNothingPersisted()
}

func (suite *BudgetServiceTestSuite) TestUpdateBudget_ByAnotherUser() {
	ctx := context.Background()
	suite.expectActor(testActor("someone", false, levelRequester))
	suite.expectDefaultGraph(nil)
	suite.expectTx(pendingBudget("l1"))
	title := "hijack"

	_, err := suite.service.UpdateBudget(ctx, "someone", "budget-1", dto.UpdateBudgetRequest{Title: &title})

	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func (suite *BudgetServiceTestSuite) TestDeleteBudget_ByRequester() {
	ctx := context.Background()
	suite.expectActor(testActor(requesterID, false, levelRequester))
	suite.expectTx(pendingBudget("l1"))
	suite.mockBudgetRepo.On("DeleteBudgetInTx", mock.Anything, mock.Anything, "budget-1").Return(nil).Once()
	suite.mockBudgetRepo.On("Commit", mock.Anything, mock.Anything).Return(nil).Once()

	err := suite.service.DeleteBudget(ctx, requesterID, "budget-1")

	suite.Require().NoError(err)
	suite.mockBudgetRepo.AssertExpectations(suite.T())
}

func (suite *BudgetServiceTestSuite) TestDeleteBudget_ApprovedBudget() {
	ctx := context.Background()
	suite.expectActor(testActor(requesterID, false, levelRequester))
	budget := pendingBudget("buy")
	budget.Status = domain.StatusAwaitingPurchase
	suite.expectTx(budget)

	err := suite.service.DeleteBudget(ctx, requesterID, "budget-1")

	suite.ErrorIs(err, apperrors.ErrInvalidTransition)
	suite.mockBudgetRepo.AssertNotCalled(suite.T(), "DeleteBudgetInTx", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BudgetServiceTestSuite) TestClearAllBudgets_RequiresAdmin() {
	ctx := context.Background()
	suite.expectActor(testActor(requesterID, false, levelRequester))

	_, err := suite.service.ClearAllBudgets(ctx, requesterID)

	suite.ErrorIs(err, apperrors.ErrForbidden)
	suite.mockBudgetRepo.AssertNotCalled(suite.T(), "DeleteAllBudgets", mock.Anything)
}

func (suite *BudgetServiceTestSuite) TestClearAllBudgets_Admin() {
	ctx := context.Background()
	suite.expectActor(testActor("admin-1", true))
	suite.mockBudgetRepo.On("DeleteAllBudgets", mock.Anything).Return(int64(7), nil).Once()

	n, err := suite.service.ClearAllBudgets(ctx, "admin-1")

	suite.Require().NoError(err)
	suite.Equal(int64(7), n)
}

// --- Query Tests ---
func (suite *BudgetServiceTestSuite) TestGetBudget_WithHistory() {
	ctx := context.Background()
	suite.expectActor(testActor("viewer", false))
	budget := pendingBudget("l2")
	approvals := []domain.Approval{{ApprovalID: "a1", BudgetID: budget.BudgetID, LevelID: "l1"}}
	suite.mockBudgetRepo.On("FindBudgetByID", mock.Anything, budget.BudgetID).Return(budget, nil).Once()
	suite.mockBudgetRepo.On("FindApprovals", mock.Anything, budget.BudgetID).Return(approvals, nil).Once()
	suite.mockBudgetRepo.On("FindRejections", mock.Anything, budget.BudgetID).Return(nil, nil).Once()

	detail, err := suite.service.GetBudget(ctx, "viewer", budget.BudgetID)

	suite.Require().NoError(err)
	suite.Equal(budget.BudgetID, detail.BudgetID)
	suite.Len(detail.Approvals, 1)
	suite.Empty(detail.Rejections)
}

func (suite *BudgetServiceTestSuite) TestListVisible_Paginates() {
	ctx := context.Background()
	suite.expectActor(testActor(requesterID, false, levelRequester))
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := []domain.Budget{
		{BudgetID: "b3", AuditFields: domain.AuditFields{CreatedAt: base.Add(3 * time.Hour)}},
		{BudgetID: "b2", AuditFields: domain.AuditFields{CreatedAt: base.Add(2 * time.Hour)}},
		{BudgetID: "b1", AuditFields: domain.AuditFields{CreatedAt: base.Add(time.Hour)}},
	}
	suite.mockBudgetRepo.On("ListBudgets", mock.Anything,
		workflow.Scope{RequesterIDs: []string{requesterID}},
		mock.MatchedBy(func(f domain.BudgetFilter) bool { return f.Limit == 3 && f.AfterBudgetID == nil }),
	).Return(rows, nil).Once()

	page, err := suite.service.ListVisible(ctx, requesterID, dto.ListBudgetsParams{})

	suite.Require().NoError(err)
	suite.Require().Len(page.Budgets, 2)
	suite.Equal("b2", page.Budgets[1].BudgetID)
	suite.Require().NotNil(page.NextToken)

	suite.mockBudgetRepo.On("ListBudgets", mock.Anything, mock.Anything,
		mock.MatchedBy(func(f domain.BudgetFilter) bool {
			return f.AfterBudgetID != nil && *f.AfterBudgetID == "b2" && f.AfterCreatedAt.Equal(base.Add(2*time.Hour))
		}),
	).Return(rows[2:], nil).Once()

	next, err := suite.service.ListVisible(ctx, requesterID, dto.ListBudgetsParams{NextToken: *page.NextToken})

	suite.Require().NoError(err)
	suite.Len(next.Budgets, 1)
	suite.Nil(next.NextToken)
}

func (suite *BudgetServiceTestSuite) TestListVisible_BadParams() {
	ctx := context.Background()
	suite.expectActor(testActor(requesterID, false, levelRequester))

	_, err := suite.service.ListVisible(ctx, requesterID, dto.ListBudgetsParams{NextToken: "%%%"})
	suite.ErrorIs(err, apperrors.ErrValidation)

	_, err = suite.service.ListVisible(ctx, requesterID, dto.ListBudgetsParams{Status: "ENTREGUE"})
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *BudgetServiceTestSuite) TestListVisible_DateRangeIsInclusive() {
	ctx := context.Background()
	suite.expectActor(testActor("admin-1", true))
	from := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 5, 31, 0, 0, 0, 0, time.UTC)
	suite.mockBudgetRepo.On("ListBudgets", mock.Anything, workflow.Scope{All: true},
		mock.MatchedBy(func(f domain.BudgetFilter) bool {
			return f.From.Equal(from) && f.To.Equal(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
		}),
	).Return([]domain.Budget{}, nil).Once()

	page, err := suite.service.ListVisible(ctx, "admin-1", dto.ListBudgetsParams{From: &from, To: &to})

	suite.Require().NoError(err)
	suite.Empty(page.Budgets)
	suite.Nil(page.NextToken)
}

func (suite *BudgetServiceTestSuite) TestListPendingFor() {
	ctx := context.Background()
	suite.expectActor(testActor("approver-1", false, levelRequester, levelApprover))
	pending := domain.StatusPending
	suite.mockBudgetRepo.On("ListBudgets", mock.Anything,
		workflow.Scope{CurrentLevelIDs: []string{"l2"}},
		domain.BudgetFilter{Status: &pending},
	).Return([]domain.Budget{*pendingBudget("l2")}, nil).Once()

	budgets, err := suite.service.ListPendingFor(ctx, "approver-1")

	suite.Require().NoError(err)
	suite.Len(budgets, 1)
}

func (suite *BudgetServiceTestSuite) TestListPendingFor_OnlyBaseLevel() {
	ctx := context.Background()
	suite.expectActor(testActor(requesterID, false, levelRequester))

	budgets, err := suite.service.ListPendingFor(ctx, requesterID)

	suite.Require().NoError(err)
	suite.Empty(budgets)
	suite.mockBudgetRepo.AssertNotCalled(suite.T(), "ListBudgets", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *BudgetServiceTestSuite) TestPurchasingQueues() {
	ctx := context.Background()
	suite.expectActor(testActor("buyer-1", false, levelBuyer))
	suite.expectActor(testActor("approver-1", false, levelApprover))
	awaiting := domain.StatusAwaitingPurchase
	purchased := domain.StatusPurchased
	suite.mockBudgetRepo.On("ListBudgets", mock.Anything, workflow.Scope{All: true}, domain.BudgetFilter{Status: &awaiting}).
		Return([]domain.Budget{{BudgetID: "b1"}}, nil).Once()
	suite.mockBudgetRepo.On("ListBudgets", mock.Anything, workflow.Scope{All: true}, domain.BudgetFilter{Status: &purchased}).
		Return(nil, nil).Once()

	awaitingList, err := suite.service.ListAwaitingPurchase(ctx, "buyer-1")
	suite.Require().NoError(err)
	suite.Len(awaitingList, 1)

	ready, err := suite.service.ListReadyToClose(ctx, "buyer-1")
	suite.Require().NoError(err)
	suite.NotNil(ready)
	suite.Empty(ready)

	hidden, err := suite.service.ListAwaitingPurchase(ctx, "approver-1")
	suite.Require().NoError(err)
	suite.Empty(hidden)
	suite.mockBudgetRepo.AssertExpectations(suite.T())
}

func (suite *BudgetServiceTestSuite) TestSummary_UsesVisibleScope() {
	ctx := context.Background()
	suite.expectActor(testActor("supervisor", false, levelApprover))
	p := workflow.RequesterPriority
	expected := &domain.BudgetSummary{Total: 4}
	suite.mockBudgetRepo.On("SummarizeBudgets", mock.Anything, workflow.Scope{
		RequesterIDs:              []string{"supervisor"},
		CurrentLevelIDs:           []string{"l2"},
		RequestersHoldingPriority: &p,
	}, domain.BudgetFilter{}).Return(expected, nil).Once()

	summary, err := suite.service.Summary(ctx, "supervisor", dto.ListBudgetsParams{})

	suite.Require().NoError(err)
	suite.Equal(4, summary.Total)
}

// --- Run Test Suite ---
func TestBudgetServiceTestSuite(t *testing.T) {
	suite.Run(t, new(BudgetServiceTestSuite))
}
