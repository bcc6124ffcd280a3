package services

import (
	"context"

	"github.com/finvolt/ledger_backend/internal/core/domain"
	"github.com/finvolt/ledger_backend/internal/dto"
)

// AccountReaderSvc defines read operations over the chart of accounts.
type AccountReaderSvc interface {
	// GetAccountByID retrieves a specific account by its ID.
	GetAccountByID(ctx context.Context, tenantID string, accountID string) (*domain.Account, error)

	// GetAccountByCode retrieves an account by its tenant-unique code.
	GetAccountByCode(ctx context.Context, tenantID string, code string) (*domain.Account, error)

	// GetAccountsByIDs retrieves multiple accounts keyed by account ID.
	GetAccountsByIDs(ctx context.Context, tenantID string, accountIDs []string) (map[string]domain.Account, error)

	// ListAccounts retrieves a paginated list of accounts for a tenant.
	ListAccounts(ctx context.Context, tenantID string, params dto.ListAccountsParams) (*dto.ListAccountsResponse, error)
}

// AccountWriterSvc defines write operations over the chart of accounts.
type AccountWriterSvc interface {
	// CreateAccount creates a new account after code and hierarchy validation.
	CreateAccount(ctx context.Context, tenantID string, req dto.CreateAccountRequest, creatorUserID string) (*domain.Account, error)

	// UpdateAccount merges permitted fields into a non-system account.
	UpdateAccount(ctx context.Context, tenantID string, accountID string, req dto.UpdateAccountRequest, userID string) (*domain.Account, error)

	// DeleteAccount hard-deletes an account that has no postings.
	DeleteAccount(ctx context.Context, tenantID string, accountID string) error
}

// AccountHierarchySvc defines tree traversal used for report rollups.
type AccountHierarchySvc interface {
	// AncestorsOf returns the parent chain from the account's direct parent to the root.
	AncestorsOf(ctx context.Context, tenantID string, accountID string) ([]domain.Account, error)

	// DescendantsOf returns all accounts below the given account in the hierarchy.
	DescendantsOf(ctx context.Context, tenantID string, accountID string) ([]domain.Account, error)
}

// AccountSvcFacade combines all chart-of-accounts service interfaces.
type AccountSvcFacade interface {
	AccountReaderSvc
	AccountWriterSvc
	AccountHierarchySvc
}
