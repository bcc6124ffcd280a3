package repositories

import (
	"context"
	"time"

	"github.com/finvolt/ledger_backend/internal/core/domain"
	"github.com/jackc/pgx/v5"
)

// FiscalPeriodReader defines read operations for fiscal-period data.
type FiscalPeriodReader interface {
	// FindPeriodByID retrieves a fiscal period by its unique identifier.
	FindPeriodByID(ctx context.Context, tenantID string, periodID string) (*domain.FiscalPeriod, error)

	// FindPeriodForDate retrieves the period covering the given date, if any.
	FindPeriodForDate(ctx context.Context, tenantID string, date time.Time) (*domain.FiscalPeriod, error)

	// HasOverlappingPeriod reports whether any existing period for the tenant
	// overlaps the [start, end] range.
	HasOverlappingPeriod(ctx context.Context, tenantID string, start, end time.Time) (bool, error)

	// ListPeriods retrieves all fiscal periods for a tenant ordered by start date.
	ListPeriods(ctx context.Context, tenantID string) ([]domain.FiscalPeriod, error)
}

// FiscalPeriodWriter defines write operations for fiscal-period data.
type FiscalPeriodWriter interface {
	// SavePeriod persists a new fiscal period.
	SavePeriod(ctx context.Context, period domain.FiscalPeriod) error

	// FindPeriodByIDForUpdate retrieves a period with an exclusive row lock.
	// Must be called within a transaction.
	FindPeriodByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID string, periodID string) (*domain.FiscalPeriod, error)

	// CountDraftEntriesInPeriod counts DRAFT journal entries dated inside the
	// period's range. Must run in the same transaction as MarkPeriodClosed so
	// the close precondition cannot race with a concurrent createEntry.
	CountDraftEntriesInPeriod(ctx context.Context, tx pgx.Tx, tenantID string, periodID string) (int, error)

	// MarkPeriodClosed flips the period to CLOSED and stamps closure metadata.
	MarkPeriodClosed(ctx context.Context, tx pgx.Tx, tenantID string, periodID string, closedBy string, closedAt time.Time) error
}

// FiscalPeriodRepositoryFacade combines all fiscal-period repository interfaces.
type FiscalPeriodRepositoryFacade interface {
	FiscalPeriodReader
	FiscalPeriodWriter
}

// FiscalPeriodRepositoryWithTx extends the facade with transaction capabilities.
type FiscalPeriodRepositoryWithTx interface {
	FiscalPeriodRepositoryFacade
	TransactionManager
}
