package services_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/finvolt/ledger_backend/internal/apperrors"
	"github.com/finvolt/ledger_backend/internal/core/domain"
	portsrepo "github.com/finvolt/ledger_backend/internal/core/ports/repositories"
	portssvc "github.com/finvolt/ledger_backend/internal/core/ports/services"
	"github.com/finvolt/ledger_backend/internal/core/services"
	"github.com/finvolt/ledger_backend/internal/dto"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockJournalRepository is a mock type for the JournalRepositoryWithTx interface
type MockJournalRepository struct {
	mock.Mock
}

func (m *MockJournalRepository) FindEntryByID(ctx context.Context, tenantID string, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tenantID, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) FindEntryByReference(ctx context.Context, tenantID string, referenceNumber string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tenantID, referenceNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error) {
	args := m.Called(ctx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalLine), args.Error(1)
}

func (m *MockJournalRepository) ListEntries(ctx context.Context, tenantID string, filter portsrepo.ListEntriesFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	args := m.Called(ctx, tenantID, filter, limit, nextToken)
	var entries []domain.JournalEntry
	if args.Get(0) != nil {
		entries = args.Get(0).([]domain.JournalEntry)
	}
	var token *string
	if args.Get(1) != nil {
		token = args.Get(1).(*string)
	}
	return entries, token, args.Error(2)
}

func (m *MockJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	args := m.Called(ctx, entry, lines)
	return args.Error(0)
}

func (m *MockJournalRepository) FindEntryByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID string, entryID string) (*domain.JournalEntry, error) {
	args := m.Called(ctx, tx, tenantID, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.JournalEntry), args.Error(1)
}

func (m *MockJournalRepository) FindLinesByEntryIDInTx(ctx context.Context, tx pgx.Tx, entryID string) ([]domain.JournalLine, error) {
	args := m.Called(ctx, tx, entryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.JournalLine), args.Error(1)
}

func (m *MockJournalRepository) MarkEntryPosted(ctx context.Context, tx pgx.Tx, entryID string, postedBy string, postedAt time.Time) error {
	args := m.Called(ctx, tx, entryID, postedBy, postedAt)
	return args.Error(0)
}

func (m *MockJournalRepository) UpdateEntryStatus(ctx context.Context, tenantID string, entryID string, status domain.EntryStatus, updatedByUserID string, updatedAt time.Time) error {
	args := m.Called(ctx, tenantID, entryID, status, updatedByUserID, updatedAt)
	return args.Error(0)
}

func (m *MockJournalRepository) UpdateEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	args := m.Called(ctx, entry, lines)
	return args.Error(0)
}

func (m *MockJournalRepository) DeleteEntry(ctx context.Context, tenantID string, entryID string) error {
	args := m.Called(ctx, tenantID, entryID)
	return args.Error(0)
}

func (m *MockJournalRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	tx, _ := args.Get(0).(pgx.Tx)
	return tx, args.Error(1)
}

func (m *MockJournalRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockJournalRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

// MockAccountReaderSvc is a mock type for the AccountReaderSvc interface
type MockAccountReaderSvc struct {
	mock.Mock
}

func (m *MockAccountReaderSvc) GetAccountByID(ctx context.Context, tenantID string, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, tenantID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountReaderSvc) GetAccountByCode(ctx context.Context, tenantID string, code string) (*domain.Account, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountReaderSvc) GetAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, tenantID, accountIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountReaderSvc) ListAccounts(ctx context.Context, tenantID string, params dto.ListAccountsParams) (*dto.ListAccountsResponse, error) {
	args := m.Called(ctx, tenantID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ListAccountsResponse), args.Error(1)
}

// MockFiscalPeriodReaderSvc is a mock type for the FiscalPeriodReaderSvc interface
type MockFiscalPeriodReaderSvc struct {
	mock.Mock
}

func (m *MockFiscalPeriodReaderSvc) GetPeriodByID(ctx context.Context, tenantID string, periodID string) (*domain.FiscalPeriod, error) {
	args := m.Called(ctx, tenantID, periodID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FiscalPeriod), args.Error(1)
}

func (m *MockFiscalPeriodReaderSvc) ListPeriods(ctx context.Context, tenantID string) ([]domain.FiscalPeriod, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FiscalPeriod), args.Error(1)
}

func (m *MockFiscalPeriodReaderSvc) IsOpenForDate(ctx context.Context, tenantID string, date time.Time) (bool, error) {
	args := m.Called(ctx, tenantID, date)
	return args.Bool(0), args.Error(1)
}

// --- Test Suite Setup ---

type JournalServiceTestSuite struct {
	suite.Suite
	mockRepo      *MockJournalRepository
	mockAccounts  *MockAccountReaderSvc
	mockPeriods   *MockFiscalPeriodReaderSvc
	service       portssvc.JournalSvcFacade
	tenantID      string
	userID        string
	cashAccount   domain.Account
	salesAccount  domain.Account
	openPeriod    *domain.FiscalPeriod
	entryDate     time.Time
}

func (suite *JournalServiceTestSuite) SetupTest() {
	suite.mockRepo = new(MockJournalRepository)
	suite.mockAccounts = new(MockAccountReaderSvc)
	suite.mockPeriods = new(MockFiscalPeriodReaderSvc)
	suite.service = services.NewJournalService(suite.mockRepo, suite.mockAccounts, suite.mockPeriods)
	suite.tenantID = uuid.NewString()
	suite.userID = uuid.NewString()

	suite.cashAccount = domain.Account{
		AccountID:   uuid.NewString(),
		TenantID:    suite.tenantID,
		Code:        "1000",
		Name:        "Cash",
		AccountType: domain.Asset,
		IsActive:    true,
	}
	suite.salesAccount = domain.Account{
		AccountID:   uuid.NewString(),
		TenantID:    suite.tenantID,
		Code:        "4000",
		Name:        "Sales",
		AccountType: domain.Revenue,
		IsActive:    true,
	}
	suite.entryDate = time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	suite.openPeriod = &domain.FiscalPeriod{
		PeriodID:  uuid.NewString(),
		TenantID:  suite.tenantID,
		Name:      "FY2026-Q1",
		StartDate: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Status:    domain.PeriodOpen,
	}
}

func (suite *JournalServiceTestSuite) balancedRequest() dto.CreateEntryRequest {
	return dto.CreateEntryRequest{
		PeriodID:        suite.openPeriod.PeriodID,
		ReferenceNumber: "INV-001",
		EntryDate:       suite.entryDate,
		Description:     "Cash sale",
		Lines: []dto.CreateLineRequest{
			{AccountID: suite.cashAccount.AccountID, Side: domain.Debit, Amount: decimal.RequireFromString("150.00")},
			{AccountID: suite.salesAccount.AccountID, Side: domain.Credit, Amount: decimal.RequireFromString("150.00")},
		},
	}
}

func (suite *JournalServiceTestSuite) accountsMap() map[string]domain.Account {
	return map[string]domain.Account{
		suite.cashAccount.AccountID:  suite.cashAccount,
		suite.salesAccount.AccountID: suite.salesAccount,
	}
}

func (suite *JournalServiceTestSuite) expectNoExistingReference(ctx context.Context, reference string) {
	suite.mockRepo.On("FindEntryByReference", ctx, suite.tenantID, reference).Return(nil, apperrors.ErrNotFound).Once()
}

// --- Test Cases ---

func (suite *JournalServiceTestSuite) TestCreateEntry_Success() {
	ctx := context.Background()
	req := suite.balancedRequest()

	suite.expectNoExistingReference(ctx, req.ReferenceNumber)
	suite.mockAccounts.On("GetAccountsByIDs", ctx, suite.tenantID, mock.AnythingOfType("[]string")).Return(suite.accountsMap(), nil).Once()
	suite.mockPeriods.On("GetPeriodByID", ctx, suite.tenantID, suite.openPeriod.PeriodID).Return(suite.openPeriod, nil).Once()
	suite.mockRepo.On("SaveEntry", ctx, mock.AnythingOfType("domain.JournalEntry"), mock.AnythingOfType("[]domain.JournalLine")).Return(nil).Once()

	entry, err := suite.service.CreateEntry(ctx, suite.tenantID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(entry)
	suite.Equal(domain.Draft, entry.Status)
	suite.Equal(req.ReferenceNumber, entry.ReferenceNumber)
	suite.Nil(entry.PostedAt)
	suite.Nil(entry.PostedBy)
	suite.Require().Len(entry.Lines, 2)
	suite.Equal(entry.EntryID, entry.Lines[0].EntryID)
	suite.mockRepo.AssertExpectations(suite.T())
	suite.mockAccounts.AssertExpectations(suite.T())
	suite.mockPeriods.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestCreateEntry_Unbalanced() {
	ctx := context.Background()
	req := suite.balancedRequest()
	req.Lines[1].Amount = decimal.RequireFromString("149.99")

	suite.expectNoExistingReference(ctx, req.ReferenceNumber)

	entry, err := suite.service.CreateEntry(ctx, suite.tenantID, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(entry)
	suite.ErrorIs(err, services.ErrUnbalancedEntry)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveEntry", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestCreateEntry_DuplicateReference() {
	ctx := context.Background()
	req := suite.balancedRequest()
	existing := &domain.JournalEntry{EntryID: uuid.NewString(), TenantID: suite.tenantID, ReferenceNumber: req.ReferenceNumber}

	suite.mockRepo.On("FindEntryByReference", ctx, suite.tenantID, req.ReferenceNumber).Return(existing, nil).Once()

	entry, err := suite.service.CreateEntry(ctx, suite.tenantID, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(entry)
	suite.ErrorIs(err, services.ErrDuplicateReference)
	suite.ErrorIs(err, apperrors.ErrDuplicate)
}

func (suite *JournalServiceTestSuite) TestCreateEntry_DuplicateReferenceAtSave() {
	// The unique index backstops the pre-check when two creates race.
	ctx := context.Background()
	req := suite.balancedRequest()

	suite.expectNoExistingReference(ctx, req.ReferenceNumber)
	suite.mockAccounts.On("GetAccountsByIDs", ctx, suite.tenantID, mock.AnythingOfType("[]string")).Return(suite.accountsMap(), nil).Once()
	suite.mockPeriods.On("GetPeriodByID", ctx, suite.tenantID, suite.openPeriod.PeriodID).Return(suite.openPeriod, nil).Once()
	suite.mockRepo.On("SaveEntry", ctx, mock.AnythingOfType("domain.JournalEntry"), mock.AnythingOfType("[]domain.JournalLine")).Return(apperrors.ErrDuplicate).Once()

	entry, err := suite.service.CreateEntry(ctx, suite.tenantID, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(entry)
	suite.ErrorIs(err, services.ErrDuplicateReference)
}

func (suite *JournalServiceTestSuite) TestCreateEntry_PreservesFullScaleAmounts() {
	ctx := context.Background()
	req := suite.balancedRequest()
	req.Lines = []dto.CreateLineRequest{
		{AccountID: suite.cashAccount.AccountID, Side: domain.Debit, Amount: decimal.RequireFromString("0.00005000")},
		{AccountID: suite.cashAccount.AccountID, Side: domain.Debit, Amount: decimal.RequireFromString("0.00005000")},
		{AccountID: suite.salesAccount.AccountID, Side: domain.Credit, Amount: decimal.RequireFromString("0.00010000")},
	}

	var savedLines []domain.JournalLine
	suite.expectNoExistingReference(ctx, req.ReferenceNumber)
	suite.mockAccounts.On("GetAccountsByIDs", ctx, suite.tenantID, mock.AnythingOfType("[]string")).Return(suite.accountsMap(), nil).Once()
	suite.mockPeriods.On("GetPeriodByID", ctx, suite.tenantID, suite.openPeriod.PeriodID).Return(suite.openPeriod, nil).Once()
	suite.mockRepo.On("SaveEntry", ctx, mock.AnythingOfType("domain.JournalEntry"), mock.AnythingOfType("[]domain.JournalLine")).
		Run(func(args mock.Arguments) { savedLines = args.Get(2).([]domain.JournalLine) }).
		Return(nil).Once()

	entry, err := suite.service.CreateEntry(ctx, suite.tenantID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(entry)
	suite.Require().Len(savedLines, 3)
	// Eight fractional digits must reach the repository unrounded.
	suite.True(savedLines[0].Amount.Equal(decimal.RequireFromString("0.00005")))
	suite.True(savedLines[2].Amount.Equal(decimal.RequireFromString("0.0001")))
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestCreateEntry_PeriodClosesBeforeSave() {
	// The save transaction re-checks the period row, so a close that commits
	// between validation and the insert rejects the entry.
	ctx := context.Background()
	req := suite.balancedRequest()

	suite.expectNoExistingReference(ctx, req.ReferenceNumber)
	suite.mockAccounts.On("GetAccountsByIDs", ctx, suite.tenantID, mock.AnythingOfType("[]string")).Return(suite.accountsMap(), nil).Once()
	suite.mockPeriods.On("GetPeriodByID", ctx, suite.tenantID, suite.openPeriod.PeriodID).Return(suite.openPeriod, nil).Once()
	suite.mockRepo.On("SaveEntry", ctx, mock.AnythingOfType("domain.JournalEntry"), mock.AnythingOfType("[]domain.JournalLine")).
		Return(fmt.Errorf("%w: fiscal period %s is not open", apperrors.ErrConflict, req.PeriodID)).Once()

	entry, err := suite.service.CreateEntry(ctx, suite.tenantID, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(entry)
	suite.ErrorIs(err, services.ErrPeriodClosed)
	suite.ErrorIs(err, apperrors.ErrConflict)
}

func (suite *JournalServiceTestSuite) TestCreateEntry_UnknownAccount() {
	ctx := context.Background()
	req := suite.balancedRequest()

	// Sales account missing from the lookup result.
	partial := map[string]domain.Account{suite.cashAccount.AccountID: suite.cashAccount}

	suite.expectNoExistingReference(ctx, req.ReferenceNumber)
	suite.mockAccounts.On("GetAccountsByIDs", ctx, suite.tenantID, mock.AnythingOfType("[]string")).Return(partial, nil).Once()

	entry, err := suite.service.CreateEntry(ctx, suite.tenantID, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(entry)
	suite.ErrorIs(err, services.ErrUnknownAccount)
}

func (suite *JournalServiceTestSuite) TestCreateEntry_InactiveAccount() {
	ctx := context.Background()
	req := suite.balancedRequest()

	accounts := suite.accountsMap()
	inactive := accounts[suite.salesAccount.AccountID]
	inactive.IsActive = false
	accounts[suite.salesAccount.AccountID] = inactive

	suite.expectNoExistingReference(ctx, req.ReferenceNumber)
	suite.mockAccounts.On("GetAccountsByIDs", ctx, suite.tenantID, mock.AnythingOfType("[]string")).Return(accounts, nil).Once()

	entry, err := suite.service.CreateEntry(ctx, suite.tenantID, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(entry)
	suite.ErrorIs(err, services.ErrUnknownAccount)
}

func (suite *JournalServiceTestSuite) TestCreateEntry_PeriodClosed() {
	ctx := context.Background()
	req := suite.balancedRequest()

	closed := *suite.openPeriod
	closed.Status = domain.PeriodClosed

	suite.expectNoExistingReference(ctx, req.ReferenceNumber)
	suite.mockAccounts.On("GetAccountsByIDs", ctx, suite.tenantID, mock.AnythingOfType("[]string")).Return(suite.accountsMap(), nil).Once()
	suite.mockPeriods.On("GetPeriodByID", ctx, suite.tenantID, suite.openPeriod.PeriodID).Return(&closed, nil).Once()

	entry, err := suite.service.CreateEntry(ctx, suite.tenantID, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(entry)
	suite.ErrorIs(err, services.ErrPeriodClosed)
	suite.mockRepo.AssertNotCalled(suite.T(), "SaveEntry", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestCreateEntry_DateOutsidePeriod() {
	ctx := context.Background()
	req := suite.balancedRequest()
	req.EntryDate = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	suite.expectNoExistingReference(ctx, req.ReferenceNumber)
	suite.mockAccounts.On("GetAccountsByIDs", ctx, suite.tenantID, mock.AnythingOfType("[]string")).Return(suite.accountsMap(), nil).Once()
	suite.mockPeriods.On("GetPeriodByID", ctx, suite.tenantID, suite.openPeriod.PeriodID).Return(suite.openPeriod, nil).Once()

	entry, err := suite.service.CreateEntry(ctx, suite.tenantID, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(entry)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func (suite *JournalServiceTestSuite) TestCreateEntry_SingleLine() {
	ctx := context.Background()
	req := suite.balancedRequest()
	req.Lines = req.Lines[:1]

	suite.expectNoExistingReference(ctx, req.ReferenceNumber)

	entry, err := suite.service.CreateEntry(ctx, suite.tenantID, req, suite.userID)

	suite.Require().Error(err)
	suite.Nil(entry)
	suite.ErrorIs(err, services.ErrEntryMinLines)
}

func (suite *JournalServiceTestSuite) draftEntry() *domain.JournalEntry {
	return &domain.JournalEntry{
		EntryID:         uuid.NewString(),
		TenantID:        suite.tenantID,
		PeriodID:        suite.openPeriod.PeriodID,
		ReferenceNumber: "INV-001",
		EntryDate:       suite.entryDate,
		Status:          domain.Draft,
	}
}

func (suite *JournalServiceTestSuite) balancedLines(entryID string) []domain.JournalLine {
	return []domain.JournalLine{
		{LineID: uuid.NewString(), EntryID: entryID, AccountID: suite.cashAccount.AccountID, Side: domain.Debit, Amount: decimal.RequireFromString("150.00")},
		{LineID: uuid.NewString(), EntryID: entryID, AccountID: suite.salesAccount.AccountID, Side: domain.Credit, Amount: decimal.RequireFromString("150.00")},
	}
}

func (suite *JournalServiceTestSuite) TestPostEntry_Success() {
	ctx := context.Background()
	entry := suite.draftEntry()
	lines := suite.balancedLines(entry.EntryID)

	suite.mockRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockRepo.On("FindEntryByIDForUpdate", ctx, mock.Anything, suite.tenantID, entry.EntryID).Return(entry, nil).Once()
	suite.mockPeriods.On("IsOpenForDate", ctx, suite.tenantID, entry.EntryDate).Return(true, nil).Once()
	suite.mockRepo.On("FindLinesByEntryIDInTx", ctx, mock.Anything, entry.EntryID).Return(lines, nil).Once()
	suite.mockRepo.On("MarkEntryPosted", ctx, mock.Anything, entry.EntryID, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()
	suite.mockRepo.On("Commit", ctx, mock.Anything).Return(nil).Once()
	suite.mockRepo.On("Rollback", ctx, mock.Anything).Return(nil).Maybe()

	posted, err := suite.service.PostEntry(ctx, suite.tenantID, entry.EntryID, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(posted)
	suite.Equal(domain.Posted, posted.Status)
	suite.Require().NotNil(posted.PostedBy)
	suite.Equal(suite.userID, *posted.PostedBy)
	suite.NotNil(posted.PostedAt)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestPostEntry_NotDraft() {
	ctx := context.Background()
	entry := suite.draftEntry()
	entry.Status = domain.Posted

	suite.mockRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockRepo.On("FindEntryByIDForUpdate", ctx, mock.Anything, suite.tenantID, entry.EntryID).Return(entry, nil).Once()
	suite.mockRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()

	posted, err := suite.service.PostEntry(ctx, suite.tenantID, entry.EntryID, suite.userID)

	suite.Require().Error(err)
	suite.Nil(posted)
	suite.ErrorIs(err, services.ErrEntryNotDraft)
	suite.ErrorIs(err, apperrors.ErrInvalidState)
	suite.mockRepo.AssertNotCalled(suite.T(), "MarkEntryPosted", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestPostEntry_PeriodNotOpen() {
	ctx := context.Background()
	entry := suite.draftEntry()

	suite.mockRepo.On("Begin", ctx).Return(nil, nil).Once()
	suite.mockRepo.On("FindEntryByIDForUpdate", ctx, mock.Anything, suite.tenantID, entry.EntryID).Return(entry, nil).Once()
	suite.mockPeriods.On("IsOpenForDate", ctx, suite.tenantID, entry.EntryDate).Return(false, nil).Once()
	suite.mockRepo.On("Rollback", ctx, mock.Anything).Return(nil).Once()

	posted, err := suite.service.PostEntry(ctx, suite.tenantID, entry.EntryID, suite.userID)

	suite.Require().Error(err)
	suite.Nil(posted)
	suite.ErrorIs(err, services.ErrPeriodClosed)
}

func (suite *JournalServiceTestSuite) TestUpdateEntry_PostedIsImmutable() {
	ctx := context.Background()
	entry := suite.draftEntry()
	entry.Status = domain.Posted
	newDesc := "Amended"

	suite.mockRepo.On("FindEntryByID", ctx, suite.tenantID, entry.EntryID).Return(entry, nil).Once()

	updated, err := suite.service.UpdateEntry(ctx, suite.tenantID, entry.EntryID, dto.UpdateEntryRequest{Description: &newDesc}, suite.userID)

	suite.Require().Error(err)
	suite.Nil(updated)
	suite.ErrorIs(err, services.ErrEntryPosted)
	suite.ErrorIs(err, apperrors.ErrImmutable)
	suite.mockRepo.AssertNotCalled(suite.T(), "UpdateEntry", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestUpdateEntry_VoidIsTerminal() {
	ctx := context.Background()
	entry := suite.draftEntry()
	entry.Status = domain.Void
	newDesc := "Amended"

	suite.mockRepo.On("FindEntryByID", ctx, suite.tenantID, entry.EntryID).Return(entry, nil).Once()

	updated, err := suite.service.UpdateEntry(ctx, suite.tenantID, entry.EntryID, dto.UpdateEntryRequest{Description: &newDesc}, suite.userID)

	suite.Require().Error(err)
	suite.Nil(updated)
	suite.ErrorIs(err, services.ErrEntryNotDraft)
}

func (suite *JournalServiceTestSuite) TestUpdateEntry_Draft_ReplacesLines() {
	ctx := context.Background()
	entry := suite.draftEntry()
	req := dto.UpdateEntryRequest{
		Lines: []dto.CreateLineRequest{
			{AccountID: suite.cashAccount.AccountID, Side: domain.Debit, Amount: decimal.RequireFromString("200.00")},
			{AccountID: suite.salesAccount.AccountID, Side: domain.Credit, Amount: decimal.RequireFromString("200.00")},
		},
	}

	suite.mockRepo.On("FindEntryByID", ctx, suite.tenantID, entry.EntryID).Return(entry, nil).Once()
	suite.mockAccounts.On("GetAccountsByIDs", ctx, suite.tenantID, mock.AnythingOfType("[]string")).Return(suite.accountsMap(), nil).Once()
	suite.mockRepo.On("UpdateEntry", ctx, mock.AnythingOfType("domain.JournalEntry"), mock.AnythingOfType("[]domain.JournalLine")).Return(nil).Once()

	updated, err := suite.service.UpdateEntry(ctx, suite.tenantID, entry.EntryID, req, suite.userID)

	suite.Require().NoError(err)
	suite.Require().NotNil(updated)
	suite.Require().Len(updated.Lines, 2)
	suite.True(updated.Lines[0].Amount.Equal(decimal.RequireFromString("200.00")))
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestVoidEntry_Draft() {
	ctx := context.Background()
	entry := suite.draftEntry()

	suite.mockRepo.On("FindEntryByID", ctx, suite.tenantID, entry.EntryID).Return(entry, nil).Once()
	suite.mockRepo.On("UpdateEntryStatus", ctx, suite.tenantID, entry.EntryID, domain.Void, suite.userID, mock.AnythingOfType("time.Time")).Return(nil).Once()

	err := suite.service.VoidEntry(ctx, suite.tenantID, entry.EntryID, suite.userID)

	suite.Require().NoError(err)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestVoidEntry_PostedRejected() {
	ctx := context.Background()
	entry := suite.draftEntry()
	entry.Status = domain.Posted

	suite.mockRepo.On("FindEntryByID", ctx, suite.tenantID, entry.EntryID).Return(entry, nil).Once()

	err := suite.service.VoidEntry(ctx, suite.tenantID, entry.EntryID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrEntryNotDraft)
	suite.mockRepo.AssertNotCalled(suite.T(), "UpdateEntryStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *JournalServiceTestSuite) TestVoidEntry_LosesRaceToPosting() {
	// The status read is unlocked; when a concurrent posting wins between the
	// read and the update, the draft-only update touches no row and the void
	// fails instead of flipping a posted entry.
	ctx := context.Background()
	entry := suite.draftEntry()

	suite.mockRepo.On("FindEntryByID", ctx, suite.tenantID, entry.EntryID).Return(entry, nil).Once()
	suite.mockRepo.On("UpdateEntryStatus", ctx, suite.tenantID, entry.EntryID, domain.Void, suite.userID, mock.AnythingOfType("time.Time")).
		Return(fmt.Errorf("%w: journal entry %s is not a draft", apperrors.ErrInvalidState, entry.EntryID)).Once()

	err := suite.service.VoidEntry(ctx, suite.tenantID, entry.EntryID, suite.userID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrEntryNotDraft)
	suite.ErrorIs(err, apperrors.ErrInvalidState)
	suite.mockRepo.AssertExpectations(suite.T())
}

func (suite *JournalServiceTestSuite) TestDeleteEntry_PostedRejected() {
	ctx := context.Background()
	entry := suite.draftEntry()
	entry.Status = domain.Posted

	suite.mockRepo.On("FindEntryByID", ctx, suite.tenantID, entry.EntryID).Return(entry, nil).Once()

	err := suite.service.DeleteEntry(ctx, suite.tenantID, entry.EntryID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrEntryNotDraft)
	suite.mockRepo.AssertNotCalled(suite.T(), "DeleteEntry", mock.Anything, mock.Anything, mock.Anything)
}

func TestJournalServiceTestSuite(t *testing.T) {
	suite.Run(t, new(JournalServiceTestSuite))
}

// --- Concurrent posting ---

// fakePostingRepo is a minimal in-memory JournalRepositoryWithTx whose Begin
// serializes callers the way a row lock does, so the posting race can be
// exercised for real.
type fakePostingRepo struct {
	sem     chan struct{}
	mu      sync.Mutex
	holding bool
	entry   domain.JournalEntry
	lines   []domain.JournalLine
	posted  int
}

func newFakePostingRepo(entry domain.JournalEntry, lines []domain.JournalLine) *fakePostingRepo {
	return &fakePostingRepo{
		sem:   make(chan struct{}, 1),
		entry: entry,
		lines: lines,
	}
}

func (f *fakePostingRepo) Begin(ctx context.Context) (pgx.Tx, error) {
	f.sem <- struct{}{}
	f.mu.Lock()
	f.holding = true
	f.mu.Unlock()
	return nil, nil
}

func (f *fakePostingRepo) release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.holding {
		f.holding = false
		<-f.sem
	}
}

func (f *fakePostingRepo) Commit(ctx context.Context, tx pgx.Tx) error {
	f.release()
	return nil
}

func (f *fakePostingRepo) Rollback(ctx context.Context, tx pgx.Tx) error {
	f.release()
	return nil
}

func (f *fakePostingRepo) FindEntryByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID string, entryID string) (*domain.JournalEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry := f.entry
	return &entry, nil
}

func (f *fakePostingRepo) FindLinesByEntryIDInTx(ctx context.Context, tx pgx.Tx, entryID string) ([]domain.JournalLine, error) {
	return f.lines, nil
}

func (f *fakePostingRepo) MarkEntryPosted(ctx context.Context, tx pgx.Tx, entryID string, postedBy string, postedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entry.Status != domain.Draft {
		return apperrors.ErrInvalidState
	}
	f.entry.Status = domain.Posted
	f.posted++
	return nil
}

func (f *fakePostingRepo) FindEntryByID(ctx context.Context, tenantID string, entryID string) (*domain.JournalEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry := f.entry
	return &entry, nil
}

func (f *fakePostingRepo) FindEntryByReference(ctx context.Context, tenantID string, referenceNumber string) (*domain.JournalEntry, error) {
	return nil, apperrors.ErrNotFound
}

func (f *fakePostingRepo) FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error) {
	return f.lines, nil
}

func (f *fakePostingRepo) ListEntries(ctx context.Context, tenantID string, filter portsrepo.ListEntriesFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	return nil, nil, nil
}

func (f *fakePostingRepo) SaveEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	return nil
}

func (f *fakePostingRepo) UpdateEntryStatus(ctx context.Context, tenantID string, entryID string, status domain.EntryStatus, updatedByUserID string, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entry.Status != domain.Draft {
		return apperrors.ErrInvalidState
	}
	f.entry.Status = status
	return nil
}

func (f *fakePostingRepo) UpdateEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	return nil
}

func (f *fakePostingRepo) DeleteEntry(ctx context.Context, tenantID string, entryID string) error {
	return nil
}

func TestPostEntry_ConcurrentPostersExactlyOneWins(t *testing.T) {
	tenantID := uuid.NewString()
	entryDate := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	entry := domain.JournalEntry{
		EntryID:         uuid.NewString(),
		TenantID:        tenantID,
		PeriodID:        uuid.NewString(),
		ReferenceNumber: "INV-RACE",
		EntryDate:       entryDate,
		Status:          domain.Draft,
	}
	lines := []domain.JournalLine{
		{LineID: uuid.NewString(), EntryID: entry.EntryID, AccountID: uuid.NewString(), Side: domain.Debit, Amount: decimal.RequireFromString("100")},
		{LineID: uuid.NewString(), EntryID: entry.EntryID, AccountID: uuid.NewString(), Side: domain.Credit, Amount: decimal.RequireFromString("100")},
	}

	repo := newFakePostingRepo(entry, lines)
	mockPeriods := new(MockFiscalPeriodReaderSvc)
	mockPeriods.On("IsOpenForDate", mock.Anything, tenantID, entryDate).Return(true, nil)
	mockAccounts := new(MockAccountReaderSvc)

	service := services.NewJournalService(repo, mockAccounts, mockPeriods)

	const posters = 8
	var wg sync.WaitGroup
	errs := make([]error, posters)
	for i := 0; i < posters; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, err := service.PostEntry(context.Background(), tenantID, entry.EntryID, uuid.NewString())
			errs[idx] = err
		}(i)
	}
	wg.Wait()

	successes := 0
	for _, err := range errs {
		if err == nil {
			successes++
		} else if !errors.Is(err, apperrors.ErrInvalidState) {
			t.Fatalf("unexpected error from losing poster: %v", err)
		}
	}
	if successes != 1 {
		t.Fatalf("expected exactly one successful post, got %d", successes)
	}
	if repo.posted != 1 {
		t.Fatalf("expected entry to be marked posted exactly once, got %d", repo.posted)
	}
}

func TestVoidEntry_RacingPostNeverVoidsPosted(t *testing.T) {
	tenantID := uuid.NewString()
	entryDate := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	entry := domain.JournalEntry{
		EntryID:         uuid.NewString(),
		TenantID:        tenantID,
		PeriodID:        uuid.NewString(),
		ReferenceNumber: "INV-VOID-RACE",
		EntryDate:       entryDate,
		Status:          domain.Draft,
	}
	lines := []domain.JournalLine{
		{LineID: uuid.NewString(), EntryID: entry.EntryID, AccountID: uuid.NewString(), Side: domain.Debit, Amount: decimal.RequireFromString("100")},
		{LineID: uuid.NewString(), EntryID: entry.EntryID, AccountID: uuid.NewString(), Side: domain.Credit, Amount: decimal.RequireFromString("100")},
	}

	repo := newFakePostingRepo(entry, lines)
	mockPeriods := new(MockFiscalPeriodReaderSvc)
	mockPeriods.On("IsOpenForDate", mock.Anything, tenantID, entryDate).Return(true, nil)
	mockAccounts := new(MockAccountReaderSvc)

	service := services.NewJournalService(repo, mockAccounts, mockPeriods)

	var wg sync.WaitGroup
	var postErr, voidErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, postErr = service.PostEntry(context.Background(), tenantID, entry.EntryID, uuid.NewString())
	}()
	go func() {
		defer wg.Done()
		voidErr = service.VoidEntry(context.Background(), tenantID, entry.EntryID, uuid.NewString())
	}()
	wg.Wait()

	if postErr == nil && voidErr == nil {
		t.Fatal("post and void both succeeded on the same entry")
	}
	for _, err := range []error{postErr, voidErr} {
		if err != nil && !errors.Is(err, apperrors.ErrInvalidState) {
			t.Fatalf("unexpected error from losing caller: %v", err)
		}
	}

	repo.mu.Lock()
	finalStatus := repo.entry.Status
	repo.mu.Unlock()
	if repo.posted == 1 && finalStatus != domain.Posted {
		t.Fatalf("posted entry ended as %s", finalStatus)
	}
	if postErr == nil && finalStatus != domain.Posted {
		t.Fatalf("successful post left entry as %s", finalStatus)
	}
	if voidErr == nil && finalStatus != domain.Void {
		t.Fatalf("successful void left entry as %s", finalStatus)
	}
}
