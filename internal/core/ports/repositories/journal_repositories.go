package repositories

import (
	"context"
	"time"

	"github.com/finvolt/ledger_backend/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// ListEntriesFilter narrows an entry listing to a period and/or status.
type ListEntriesFilter struct {
	PeriodID *string
	Status   *domain.EntryStatus
}

// JournalReader defines read operations for journal-entry data.
type JournalReader interface {
	// FindEntryByID retrieves a journal entry header by its unique identifier.
	FindEntryByID(ctx context.Context, tenantID string, entryID string) (*domain.JournalEntry, error)

	// FindEntryByReference retrieves an entry by its tenant-unique reference number.
	FindEntryByReference(ctx context.Context, tenantID string, referenceNumber string) (*domain.JournalEntry, error)

	// FindLinesByEntryID retrieves all lines of a journal entry.
	FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error)

	// ListEntries retrieves a paginated list of entries for a tenant using
	// token-based pagination, newest entry date first.
	ListEntries(ctx context.Context, tenantID string, filter ListEntriesFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)
}

// JournalWriter defines write operations for journal-entry data.
type JournalWriter interface {
	// SaveEntry persists an entry header and its lines atomically.
	SaveEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error

	// FindEntryByIDForUpdate retrieves an entry with an exclusive row lock.
	// Must be called within a transaction; concurrent posters on the same
	// entry serialize here.
	FindEntryByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID string, entryID string) (*domain.JournalEntry, error)

	// FindLinesByEntryIDInTx retrieves entry lines inside the posting transaction.
	FindLinesByEntryIDInTx(ctx context.Context, tx pgx.Tx, entryID string) ([]domain.JournalLine, error)

	// MarkEntryPosted transitions a locked entry to POSTED and stamps the
	// posting metadata.
	MarkEntryPosted(ctx context.Context, tx pgx.Tx, entryID string, postedBy string, postedAt time.Time) error

	// UpdateEntryStatus changes the entry status (used for voiding drafts).
	UpdateEntryStatus(ctx context.Context, tenantID string, entryID string, status domain.EntryStatus, updatedByUserID string, updatedAt time.Time) error

	// UpdateEntry replaces a draft entry's header fields and lines atomically.
	UpdateEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error

	// DeleteEntry removes a draft entry; its lines cascade.
	DeleteEntry(ctx context.Context, tenantID string, entryID string) error
}

// JournalRepositoryFacade combines all journal-related repository interfaces.
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
}

// JournalRepositoryWithTx extends JournalRepositoryFacade with transaction capabilities.
type JournalRepositoryWithTx interface {
	JournalRepositoryFacade
	TransactionManager
}
