package services_test

import (
	"context"
	"testing"

	"github.com/finvolt/ledger_backend/internal/apperrors"
	"github.com/finvolt/ledger_backend/internal/core/domain"
	portssvc "github.com/finvolt/ledger_backend/internal/core/ports/services"
	"github.com/finvolt/ledger_backend/internal/core/services"
	"github.com/finvolt/ledger_backend/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockReportingRepository is a mock type for the ReportingRepository interface
type MockReportingRepository struct {
	mock.Mock
}

func (m *MockReportingRepository) GetTrialBalanceData(ctx context.Context, tenantID string, periodID string) ([]domain.TrialBalanceRow, error) {
	args := m.Called(ctx, tenantID, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TrialBalanceRow), args.Error(1)
}

func (m *MockReportingRepository) GetProfitAndLossData(ctx context.Context, tenantID string, periodID string) ([]domain.AccountAmount, []domain.AccountAmount, error) {
	args := m.Called(ctx, tenantID, periodID)
	var revenue, expenses []domain.AccountAmount
	if args.Get(0) != nil {
		revenue = args.Get(0).([]domain.AccountAmount)
	}
	if args.Get(1) != nil {
		expenses = args.Get(1).([]domain.AccountAmount)
	}
	return revenue, expenses, args.Error(2)
}

func (m *MockReportingRepository) GetBalanceSheetData(ctx context.Context, tenantID string, periodID string) ([]domain.AccountAmount, []domain.AccountAmount, []domain.AccountAmount, error) {
	args := m.Called(ctx, tenantID, periodID)
	var assets, liabilities, equity []domain.AccountAmount
	if args.Get(0) != nil {
		assets = args.Get(0).([]domain.AccountAmount)
	}
	if args.Get(1) != nil {
		liabilities = args.Get(1).([]domain.AccountAmount)
	}
	if args.Get(2) != nil {
		equity = args.Get(2).([]domain.AccountAmount)
	}
	return assets, liabilities, equity, args.Error(3)
}

// MockAccountSvcFacade is a mock type for the AccountSvcFacade interface
type MockAccountSvcFacade struct {
	mock.Mock
}

func (m *MockAccountSvcFacade) GetAccountByID(ctx context.Context, tenantID string, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, tenantID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountSvcFacade) GetAccountByCode(ctx context.Context, tenantID string, code string) (*domain.Account, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountSvcFacade) GetAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, tenantID, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountSvcFacade) ListAccounts(ctx context.Context, tenantID string, params dto.ListAccountsParams) (*dto.ListAccountsResponse, error) {
	args := m.Called(ctx, tenantID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListAccountsResponse), args.Error(1)
}

func (m *MockAccountSvcFacade) CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error) {
	args := m.Called(ctx, tenantID, req, creatorUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountSvcFacade) UpdateAccount(ctx context.Context, tenantID string, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	args := m.Called(ctx, tenantID, accountID, req, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountSvcFacade) DeleteAccount(ctx context.Context, tenantID string, accountID string) error {
	args := m.Called(ctx, tenantID, accountID)
	return args.Error(0)
}

func (m *MockAccountSvcFacade) AncestorsOf(ctx context.Context, tenantID string, accountID string) ([]domain.Account, error) {
	args := m.Called(ctx, tenantID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountSvcFacade) DescendantsOf(ctx context.Context, tenantID string, accountID string) ([]domain.Account, error) {
	args := m.Called(ctx, tenantID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

// --- Test Suite Setup ---

type ReportingServiceTestSuite struct {
	suite.Suite
	mockRepo     *MockReportingRepository
	mockPeriods  *MockFiscalPeriodReaderSvc
	mockAccounts *MockAccountSvcFacade
	service      portssvc.ReportingSvc
	tenantID     string
	periodID     string
}

func (suite *ReportingServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockReportingRepository)
	suite.mockPeriods = new(MockFiscalPeriodReaderSvc)
	suite.mockAccounts = new(MockAccountSvcFacade)
	suite.service = services.NewReportingService(suite.mockRepo, suite.mockPeriods, suite.mockAccounts)
	suite.tenantID = uuid.NewString()
	suite.periodID = uuid.NewString()
}

func (suite *ReportingServiceTestSuite) expectPeriodExists() {
	period := &domain.FiscalPeriod{
		PeriodID: suite.periodID,
		TenantID: suite.tenantID,
		Name:     "FY2026-Q1",
		Status:   domain.PeriodOpen,
	}
	suite.mockPeriods.On("GetPeriodByID", mock.Anything, suite.tenantID, suite.periodID).Return(period, nil)
}

func amount(id, code, name, net string) domain.AccountAmount {
	return domain.AccountAmount{
		AccountID: id,
		Code:      code,
		Name:      name,
		NetAmount: decimal.RequireFromString(net),
	}
}

// --- Test Cases ---

func (suite *ReportingServiceTestSuite) TestTrialBalance_ClosingBalancePerNormalSide() {
	ctx := context.Background()
	suite.expectPeriodExists()

	rows := []domain.TrialBalanceRow{
		{
			AccountID:   uuid.NewString(),
			AccountCode: "4000",
			AccountName: "Sales",
			AccountType: domain.Revenue,
			DebitTotal:  decimal.Zero,
			CreditTotal: decimal.RequireFromString("100"),
		},
		{
			AccountID:   uuid.NewString(),
			AccountCode: "1000",
			AccountName: "Cash",
			AccountType: domain.Asset,
			DebitTotal:  decimal.RequireFromString("100"),
			CreditTotal: decimal.RequireFromString("30"),
		},
		{
			AccountID:   uuid.NewString(),
			AccountCode: "2000",
			AccountName: "Loans",
			AccountType: domain.Liability,
			DebitTotal:  decimal.RequireFromString("120"),
			CreditTotal: decimal.RequireFromString("20"),
		},
	}
	suite.mockRepo.On("GetTrialBalanceData", ctx, suite.tenantID, suite.periodID).Return(rows, nil).Once()

	result, err := suite.service.TrialBalance(ctx, suite.tenantID, suite.periodID)

	suite.Require().NoError(err)
	suite.Require().Len(result, 3)

	// Sorted by account code.
	suite.Equal("1000", result[0].AccountCode)
	suite.Equal("2000", result[1].AccountCode)
	suite.Equal("4000", result[2].AccountCode)

	// Debit-normal account: debits minus credits.
	suite.True(result[0].ClosingBalance.Equal(decimal.RequireFromString("70")), "cash closing: %s", result[0].ClosingBalance)
	// Credit-normal account with net debit activity reports a negative
	// closing balance rather than flipping sides.
	suite.True(result[1].ClosingBalance.Equal(decimal.RequireFromString("-100")), "loans closing: %s", result[1].ClosingBalance)
	suite.True(result[2].ClosingBalance.Equal(decimal.RequireFromString("100")), "sales closing: %s", result[2].ClosingBalance)

	// Aggregate debits and credits stay symmetric.
	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, row := range result {
		totalDebit = totalDebit.Add(row.DebitTotal)
		totalCredit = totalCredit.Add(row.CreditTotal)
	}
	suite.True(totalDebit.Equal(totalCredit))
}

func (suite *ReportingServiceTestSuite) TestTrialBalance_PeriodNotFound() {
	ctx := context.Background()
	suite.mockPeriods.On("GetPeriodByID", mock.Anything, suite.tenantID, suite.periodID).Return(nil, apperrors.ErrNotFound)

	result, err := suite.service.TrialBalance(ctx, suite.tenantID, suite.periodID)

	suite.Require().Error(err)
	suite.Nil(result)
	suite.ErrorIs(err, apperrors.ErrNotFound)
	suite.mockRepo.AssertNotCalled(suite.T(), "GetTrialBalanceData", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *ReportingServiceTestSuite) TestProfitAndLoss_NetProfit() {
	ctx := context.Background()
	suite.expectPeriodExists()

	revenue := []domain.AccountAmount{
		amount(uuid.NewString(), "4000", "Sales", "100"),
		amount(uuid.NewString(), "4100", "Interest income", "50"),
	}
	expenses := []domain.AccountAmount{
		amount(uuid.NewString(), "5000", "Rent", "30"),
	}
	suite.mockRepo.On("GetProfitAndLossData", ctx, suite.tenantID, suite.periodID).Return(revenue, expenses, nil).Once()

	report, err := suite.service.ProfitAndLoss(ctx, suite.tenantID, suite.periodID)

	suite.Require().NoError(err)
	suite.Require().NotNil(report)
	suite.True(report.TotalRevenue.Equal(decimal.RequireFromString("150")))
	suite.True(report.TotalExpenses.Equal(decimal.RequireFromString("30")))
	suite.True(report.NetProfit.Equal(decimal.RequireFromString("120")))
}

func (suite *ReportingServiceTestSuite) TestBalanceSheet_EquationHolds() {
	ctx := context.Background()
	suite.expectPeriodExists()

	cashID := uuid.NewString()
	assets := []domain.AccountAmount{amount(cashID, "1000", "Cash", "120")}

	suite.mockRepo.On("GetBalanceSheetData", ctx, suite.tenantID, suite.periodID).Return(assets, []domain.AccountAmount{}, []domain.AccountAmount{}, nil).Once()
	suite.mockRepo.On("GetProfitAndLossData", ctx, suite.tenantID, suite.periodID).Return(
		[]domain.AccountAmount{amount(uuid.NewString(), "4000", "Sales", "150")},
		[]domain.AccountAmount{amount(uuid.NewString(), "5000", "Rent", "30")},
		nil,
	).Once()
	suite.mockAccounts.On("AncestorsOf", ctx, suite.tenantID, cashID).Return([]domain.Account{}, nil).Once()

	report, err := suite.service.BalanceSheet(ctx, suite.tenantID, suite.periodID)

	suite.Require().NoError(err)
	suite.Require().NotNil(report)
	suite.True(report.TotalAssets.Equal(decimal.RequireFromString("120")))
	suite.True(report.TotalLiabilities.IsZero())
	suite.True(report.TotalEquity.IsZero())
	suite.True(report.NetIncome.Equal(decimal.RequireFromString("120")))
	suite.True(report.Consistent)
}

func (suite *ReportingServiceTestSuite) TestBalanceSheet_InconsistentIsReportedNotRejected() {
	ctx := context.Background()
	suite.expectPeriodExists()

	cashID := uuid.NewString()
	assets := []domain.AccountAmount{amount(cashID, "1000", "Cash", "999")}

	suite.mockRepo.On("GetBalanceSheetData", ctx, suite.tenantID, suite.periodID).Return(assets, []domain.AccountAmount{}, []domain.AccountAmount{}, nil).Once()
	suite.mockRepo.On("GetProfitAndLossData", ctx, suite.tenantID, suite.periodID).Return(
		[]domain.AccountAmount{amount(uuid.NewString(), "4000", "Sales", "150")},
		[]domain.AccountAmount{},
		nil,
	).Once()
	suite.mockAccounts.On("AncestorsOf", ctx, suite.tenantID, cashID).Return([]domain.Account{}, nil).Once()

	report, err := suite.service.BalanceSheet(ctx, suite.tenantID, suite.periodID)

	suite.Require().NoError(err)
	suite.Require().NotNil(report)
	suite.False(report.Consistent)
}

func (suite *ReportingServiceTestSuite) TestBalanceSheet_RollsChildIntoParent() {
	ctx := context.Background()
	suite.expectPeriodExists()

	parentID := uuid.NewString()
	childID := uuid.NewString()
	parent := domain.Account{
		AccountID:   parentID,
		TenantID:    suite.tenantID,
		Code:        "1",
		Name:        "Current Assets",
		AccountType: domain.Asset,
	}

	// Only the child has direct postings.
	assets := []domain.AccountAmount{amount(childID, "1000", "Cash", "80")}

	suite.mockRepo.On("GetBalanceSheetData", ctx, suite.tenantID, suite.periodID).Return(assets, []domain.AccountAmount{}, []domain.AccountAmount{}, nil).Once()
	suite.mockRepo.On("GetProfitAndLossData", ctx, suite.tenantID, suite.periodID).Return(
		[]domain.AccountAmount{amount(uuid.NewString(), "4000", "Sales", "80")},
		[]domain.AccountAmount{},
		nil,
	).Once()
	suite.mockAccounts.On("AncestorsOf", ctx, suite.tenantID, childID).Return([]domain.Account{parent}, nil).Once()

	report, err := suite.service.BalanceSheet(ctx, suite.tenantID, suite.periodID)

	suite.Require().NoError(err)
	suite.Require().Len(report.Assets, 2)

	// Parent row carries the subtree amount; the category total counts the
	// direct posting only once.
	suite.Equal("1", report.Assets[0].Code)
	suite.True(report.Assets[0].NetAmount.Equal(decimal.RequireFromString("80")))
	suite.Equal("1000", report.Assets[1].Code)
	suite.True(report.Assets[1].NetAmount.Equal(decimal.RequireFromString("80")))
	suite.True(report.TotalAssets.Equal(decimal.RequireFromString("80")))
}

func TestReportingServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ReportingServiceTestSuite))
}
