package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/finvolt/ledger_backend/internal/apperrors"
	"github.com/finvolt/ledger_backend/internal/core/domain"
	portsrepo "github.com/finvolt/ledger_backend/internal/core/ports/repositories"
	portssvc "github.com/finvolt/ledger_backend/internal/core/ports/services"
	"github.com/finvolt/ledger_backend/internal/dto"
)

var (
	ErrDuplicateCode    = fmt.Errorf("%w: account code already in use for tenant", apperrors.ErrDuplicate)
	ErrInvalidHierarchy = fmt.Errorf("%w: invalid account hierarchy", apperrors.ErrValidation)
	ErrAccountHasLines  = fmt.Errorf("%w: account has journal lines and cannot be deleted", apperrors.ErrConflict)
	ErrSystemAccount    = fmt.Errorf("%w: system accounts cannot be modified or deleted", apperrors.ErrImmutable)
)

// maxHierarchyDepth bounds ancestor walks so corrupt parent data cannot loop forever.
const maxHierarchyDepth = 64

// accountService owns the chart of accounts: account CRUD, account-type
// semantics and the parent/child hierarchy.
type accountService struct {
	BaseService
	accountRepo portsrepo.AccountRepositoryFacade
}

// NewAccountService creates a new chart-of-accounts service.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade) portssvc.AccountSvcFacade {
	return &accountService{accountRepo: accountRepo}
}

// Ensure accountService implements the portssvc.AccountSvcFacade interface
var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// validateParent checks that a prospective parent exists in the same tenant
// and that attaching accountID under it would not create a cycle. accountID
// is empty during create (a new account cannot be its own ancestor yet).
func (s *accountService) validateParent(ctx context.Context, tenantID, accountID, parentID string) error {
	if parentID == accountID && accountID != "" {
		return fmt.Errorf("%w: account cannot be its own parent", ErrInvalidHierarchy)
	}

	currentID := parentID
	for depth := 0; currentID != ""; depth++ {
		if depth >= maxHierarchyDepth {
			return fmt.Errorf("%w: parent chain exceeds maximum depth %d", ErrInvalidHierarchy, maxHierarchyDepth)
		}
		parent, err := s.accountRepo.FindAccountByID(ctx, tenantID, currentID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				// Unknown or cross-tenant parent; the repository scopes lookups
				// by tenant so a foreign account is indistinguishable from a
				// missing one.
				return fmt.Errorf("%w: parent account %s not found", ErrInvalidHierarchy, currentID)
			}
			return fmt.Errorf("failed to resolve parent account %s: %w", currentID, err)
		}
		if accountID != "" && parent.AccountID == accountID {
			return fmt.Errorf("%w: account %s is an ancestor of the proposed parent", ErrInvalidHierarchy, accountID)
		}
		currentID = parent.ParentAccountID
	}
	return nil
}

// CreateAccount creates a new account after code-uniqueness and hierarchy validation.
// Implements portssvc.AccountWriterSvc
func (s *accountService) CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error) {
	logger := s.GetLogger(ctx)

	if !req.AccountType.IsValid() {
		return nil, fmt.Errorf("%w: unknown account type '%s'", apperrors.ErrValidation, req.AccountType)
	}

	// Code must be unique within the tenant.
	existing, err := s.accountRepo.FindAccountByCode(ctx, tenantID, req.Code)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		logger.Error("Failed to check account code uniqueness", slog.String("error", err.Error()), slog.String("code", req.Code))
		return nil, fmt.Errorf("failed to check account code uniqueness: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: code %s", ErrDuplicateCode, req.Code)
	}

	parentID := ""
	if req.ParentAccountID != nil && *req.ParentAccountID != "" {
		parentID = *req.ParentAccountID
		if err := s.validateParent(ctx, tenantID, "", parentID); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	account := domain.Account{
		AccountID:       uuid.NewString(),
		TenantID:        tenantID,
		Code:            req.Code,
		Name:            req.Name,
		AccountType:     req.AccountType,
		ParentAccountID: parentID,
		Description:     req.Description,
		IsSystem:        false,
		IsActive:        true,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		// The unique index on (tenant_id, code) backstops the pre-check above.
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: code %s", ErrDuplicateCode, req.Code)
		}
		logger.Error("Failed to save account", slog.String("error", err.Error()), slog.String("account_id", account.AccountID))
		return nil, fmt.Errorf("failed to save account: %w", err)
	}

	logger.Info("Account created successfully", slog.String("account_id", account.AccountID), slog.String("code", account.Code))
	return &account, nil
}

// GetAccountByID retrieves a specific account by its ID.
// Implements portssvc.AccountReaderSvc
func (s *accountService) GetAccountByID(ctx context.Context, tenantID string, accountID string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by ID", slog.String("account_id", accountID))
		}
		return nil, err
	}
	return account, nil
}

// GetAccountByCode retrieves an account by its tenant-unique code.
func (s *accountService) GetAccountByCode(ctx context.Context, tenantID string, code string) (*domain.Account, error) {
	account, err := s.accountRepo.FindAccountByCode(ctx, tenantID, code)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account by code", slog.String("code", code))
		}
		return nil, err
	}
	return account, nil
}

// GetAccountsByIDs retrieves multiple accounts keyed by account ID.
func (s *accountService) GetAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error) {
	accounts, err := s.accountRepo.FindAccountsByIDs(ctx, tenantID, accountIDs)
	if err != nil {
		s.LogError(ctx, err, "Failed to find accounts by IDs", slog.Int("count", len(accountIDs)))
		return nil, fmt.Errorf("failed to fetch accounts: %w", err)
	}
	return accounts, nil
}

// ListAccounts retrieves a paginated list of accounts for a tenant.
func (s *accountService) ListAccounts(ctx context.Context, tenantID string, params dto.ListAccountsParams) (*dto.ListAccountsResponse, error) {
	accounts, nextToken, err := s.accountRepo.ListAccounts(ctx, tenantID, params.Limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts from repository")
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return &dto.ListAccountsResponse{
		Accounts:  dto.ToAccountResponses(accounts),
		NextToken: nextToken,
	}, nil
}

// UpdateAccount merges permitted fields into a non-system account.
// A parent re-attachment is re-validated for cycles.
// Implements portssvc.AccountWriterSvc
func (s *accountService) UpdateAccount(ctx context.Context, tenantID string, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error) {
	logger := s.GetLogger(ctx)

	account, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}

	if account.IsSystem {
		return nil, fmt.Errorf("%w: account %s", ErrSystemAccount, accountID)
	}

	updated := false
	if req.Name != nil {
		account.Name = *req.Name
		updated = true
	}
	if req.Description != nil {
		account.Description = *req.Description
		updated = true
	}
	if req.IsActive != nil {
		account.IsActive = *req.IsActive
		updated = true
	}
	if req.ParentAccountID != nil {
		newParentID := *req.ParentAccountID
		if newParentID != "" {
			if err := s.validateParent(ctx, tenantID, accountID, newParentID); err != nil {
				return nil, err
			}
		}
		account.ParentAccountID = newParentID
		updated = true
	}

	if !updated {
		logger.Debug("No fields provided for account update", slog.String("account_id", accountID))
		return account, nil
	}

	now := time.Now().UTC()
	account.LastUpdatedAt = now
	account.LastUpdatedBy = userID

	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		logger.Error("Failed to save account update", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return nil, fmt.Errorf("failed to save account update: %w", err)
	}

	logger.Info("Account updated successfully", slog.String("account_id", accountID))
	return account, nil
}

// DeleteAccount hard-deletes an account that has no postings. An account
// referenced by any journal line is retained forever and can only be
// deactivated via UpdateAccount.
// Implements portssvc.AccountWriterSvc
func (s *accountService) DeleteAccount(ctx context.Context, tenantID string, accountID string) error {
	logger := s.GetLogger(ctx)

	account, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID)
	if err != nil {
		return err
	}

	if account.IsSystem {
		return fmt.Errorf("%w: account %s", ErrSystemAccount, accountID)
	}

	hasLines, err := s.accountRepo.HasJournalLines(ctx, accountID)
	if err != nil {
		logger.Error("Failed to check account postings", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return fmt.Errorf("failed to check account postings: %w", err)
	}
	if hasLines {
		return fmt.Errorf("%w: account %s", ErrAccountHasLines, accountID)
	}

	children, err := s.accountRepo.ListChildAccounts(ctx, tenantID, accountID)
	if err != nil {
		return fmt.Errorf("failed to check child accounts: %w", err)
	}
	if len(children) > 0 {
		return fmt.Errorf("%w: account %s still has %d child accounts", apperrors.ErrConflict, accountID, len(children))
	}

	if err := s.accountRepo.DeleteAccount(ctx, tenantID, accountID); err != nil {
		logger.Error("Failed to delete account", slog.String("error", err.Error()), slog.String("account_id", accountID))
		return fmt.Errorf("failed to delete account: %w", err)
	}

	logger.Info("Account deleted successfully", slog.String("account_id", accountID))
	return nil
}

// AncestorsOf returns the parent chain from the account's direct parent up to
// the root, in that order.
// Implements portssvc.AccountHierarchySvc
func (s *accountService) AncestorsOf(ctx context.Context, tenantID string, accountID string) ([]domain.Account, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID)
	if err != nil {
		return nil, err
	}

	ancestors := []domain.Account{}
	currentID := account.ParentAccountID
	for depth := 0; currentID != ""; depth++ {
		if depth >= maxHierarchyDepth {
			return nil, fmt.Errorf("%w: ancestor chain for account %s exceeds maximum depth", apperrors.ErrInternal, accountID)
		}
		parent, err := s.accountRepo.FindAccountByID(ctx, tenantID, currentID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve ancestor %s: %w", currentID, err)
		}
		ancestors = append(ancestors, *parent)
		currentID = parent.ParentAccountID
	}
	return ancestors, nil
}

// DescendantsOf returns all accounts below the given account, breadth-first.
// Implements portssvc.AccountHierarchySvc
func (s *accountService) DescendantsOf(ctx context.Context, tenantID string, accountID string) ([]domain.Account, error) {
	if _, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID); err != nil {
		return nil, err
	}

	descendants := []domain.Account{}
	queue := []string{accountID}
	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]

		children, err := s.accountRepo.ListChildAccounts(ctx, tenantID, currentID)
		if err != nil {
			return nil, fmt.Errorf("failed to list children of account %s: %w", currentID, err)
		}
		for _, child := range children {
			descendants = append(descendants, child)
			queue = append(queue, child.AccountID)
		}
	}
	return descendants, nil
}
