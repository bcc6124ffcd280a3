package services

import (
	"context"

	"github.com/finvolt/ledger_backend/internal/core/domain"
	"github.com/finvolt/ledger_backend/internal/dto"
)

// JournalReaderSvc defines read operations for journal entries.
type JournalReaderSvc interface {
	// GetEntryByID retrieves an entry with its lines populated.
	GetEntryByID(ctx context.Context, tenantID string, entryID string) (*domain.JournalEntry, error)

	// ListEntries retrieves a paginated list of entries for a tenant.
	ListEntries(ctx context.Context, tenantID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
}

// JournalWriterSvc defines the journal-entry state machine operations.
type JournalWriterSvc interface {
	// CreateEntry validates and persists a new entry with its lines as Draft.
	CreateEntry(ctx context.Context, tenantID string, req dto.CreateEntryRequest, creatorUserID string) (*domain.JournalEntry, error)

	// UpdateEntry replaces a draft entry's mutable fields; posted entries are immutable.
	UpdateEntry(ctx context.Context, tenantID string, entryID string, req dto.UpdateEntryRequest, userID string) (*domain.JournalEntry, error)

	// PostEntry transitions a draft entry to Posted under an exclusive row
	// lock. Exactly one of any number of concurrent calls succeeds.
	PostEntry(ctx context.Context, tenantID string, entryID string, actorUserID string) (*domain.JournalEntry, error)

	// VoidEntry transitions a draft entry to Void. Posted entries are never
	// voided; callers issue a reversing entry instead.
	VoidEntry(ctx context.Context, tenantID string, entryID string, userID string) error

	// DeleteEntry removes a draft entry and its lines.
	DeleteEntry(ctx context.Context, tenantID string, entryID string) error
}

// JournalSvcFacade combines all journal service interfaces.
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalWriterSvc
}
