package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finvolt/ledger_backend/internal/apperrors"
	"github.com/finvolt/ledger_backend/internal/core/domain"
	portsrepo "github.com/finvolt/ledger_backend/internal/core/ports/repositories"
	"github.com/finvolt/ledger_backend/internal/models"
	"github.com/finvolt/ledger_backend/internal/utils/mapping"
)

const fiscalPeriodColumns = `period_id, tenant_id, name, start_date, end_date, status, closed_at, closed_by, created_at, created_by, last_updated_at, last_updated_by`

type PgxFiscalPeriodRepository struct {
	BaseRepository
}

// newPgxFiscalPeriodRepository creates a new repository for fiscal-period data.
func newPgxFiscalPeriodRepository(pool *pgxpool.Pool) portsrepo.FiscalPeriodRepositoryWithTx {
	return &PgxFiscalPeriodRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxFiscalPeriodRepository implements portsrepo.FiscalPeriodRepositoryWithTx
var _ portsrepo.FiscalPeriodRepositoryWithTx = (*PgxFiscalPeriodRepository)(nil)

func scanFiscalPeriod(row pgx.Row) (*models.FiscalPeriod, error) {
	var m models.FiscalPeriod
	err := row.Scan(
		&m.PeriodID,
		&m.TenantID,
		&m.Name,
		&m.StartDate,
		&m.EndDate,
		&m.Status,
		&m.ClosedAt,
		&m.ClosedBy,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SavePeriod inserts a new fiscal period.
func (r *PgxFiscalPeriodRepository) SavePeriod(ctx context.Context, period domain.FiscalPeriod) error {
	m := mapping.ToModelFiscalPeriod(period)

	query := `
		INSERT INTO fiscal_periods (` + fiscalPeriodColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);
	`
	_, err := r.Pool.Exec(ctx, query,
		m.PeriodID,
		m.TenantID,
		m.Name,
		m.StartDate,
		m.EndDate,
		m.Status,
		m.ClosedAt,
		m.ClosedBy,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save fiscal period %s: %w", m.PeriodID, err)
	}
	return nil
}

// FindPeriodByID retrieves a fiscal period by its ID within a tenant.
func (r *PgxFiscalPeriodRepository) FindPeriodByID(ctx context.Context, tenantID string, periodID string) (*domain.FiscalPeriod, error) {
	query := `
		SELECT ` + fiscalPeriodColumns + `
		FROM fiscal_periods
		WHERE tenant_id = $1 AND period_id = $2;
	`
	m, err := scanFiscalPeriod(r.Pool.QueryRow(ctx, query, tenantID, periodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find fiscal period by ID %s: %w", periodID, err)
	}
	period := mapping.ToDomainFiscalPeriod(*m)
	return &period, nil
}

// FindPeriodForDate retrieves the period whose inclusive range covers the
// given date. Periods never overlap, so at most one row matches.
func (r *PgxFiscalPeriodRepository) FindPeriodForDate(ctx context.Context, tenantID string, date time.Time) (*domain.FiscalPeriod, error) {
	query := `
		SELECT ` + fiscalPeriodColumns + `
		FROM fiscal_periods
		WHERE tenant_id = $1 AND start_date <= $2 AND end_date >= $2;
	`
	m, err := scanFiscalPeriod(r.Pool.QueryRow(ctx, query, tenantID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find fiscal period for date %s: %w", date.Format("2006-01-02"), err)
	}
	period := mapping.ToDomainFiscalPeriod(*m)
	return &period, nil
}

// HasOverlappingPeriod reports whether any existing period for the tenant
// overlaps the [start, end] range.
func (r *PgxFiscalPeriodRepository) HasOverlappingPeriod(ctx context.Context, tenantID string, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM fiscal_periods
			WHERE tenant_id = $1 AND start_date <= $3 AND end_date >= $2
		);
	`
	var exists bool
	if err := r.Pool.QueryRow(ctx, query, tenantID, start, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check for overlapping fiscal periods: %w", err)
	}
	return exists, nil
}

// ListPeriods retrieves all fiscal periods for a tenant ordered by start date.
func (r *PgxFiscalPeriodRepository) ListPeriods(ctx context.Context, tenantID string) ([]domain.FiscalPeriod, error) {
	query := `
		SELECT ` + fiscalPeriodColumns + `
		FROM fiscal_periods
		WHERE tenant_id = $1
		ORDER BY start_date;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to query fiscal periods for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()

	modelPeriods := []models.FiscalPeriod{}
	for rows.Next() {
		m, err := scanFiscalPeriod(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fiscal period row: %w", err)
		}
		modelPeriods = append(modelPeriods, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fiscal period rows: %w", err)
	}
	return mapping.ToDomainFiscalPeriodSlice(modelPeriods), nil
}

// FindPeriodByIDForUpdate retrieves a period with an exclusive row lock.
// Must be called within a transaction; concurrent closers serialize here.
func (r *PgxFiscalPeriodRepository) FindPeriodByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID string, periodID string) (*domain.FiscalPeriod, error) {
	query := `
		SELECT ` + fiscalPeriodColumns + `
		FROM fiscal_periods
		WHERE tenant_id = $1 AND period_id = $2
		FOR UPDATE;
	`
	m, err := scanFiscalPeriod(tx.QueryRow(ctx, query, tenantID, periodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock fiscal period %s: %w", periodID, err)
	}
	period := mapping.ToDomainFiscalPeriod(*m)
	return &period, nil
}

// CountDraftEntriesInPeriod counts DRAFT entries dated inside the period's
// range, inside the closing transaction.
func (r *PgxFiscalPeriodRepository) CountDraftEntriesInPeriod(ctx context.Context, tx pgx.Tx, tenantID string, periodID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM journal_entries je
		JOIN fiscal_periods fp ON fp.tenant_id = je.tenant_id
			AND je.entry_date >= fp.start_date AND je.entry_date <= fp.end_date
		WHERE fp.tenant_id = $1 AND fp.period_id = $2 AND je.status = 'DRAFT';
	`
	var count int
	if err := tx.QueryRow(ctx, query, tenantID, periodID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count draft entries in period %s: %w", periodID, err)
	}
	return count, nil
}

// MarkPeriodClosed flips the period to CLOSED and stamps closure metadata.
func (r *PgxFiscalPeriodRepository) MarkPeriodClosed(ctx context.Context, tx pgx.Tx, tenantID string, periodID string, closedBy string, closedAt time.Time) error {
	query := `
		UPDATE fiscal_periods
		SET status = 'CLOSED', closed_at = $3, closed_by = $4, last_updated_at = $3, last_updated_by = $4
		WHERE tenant_id = $1 AND period_id = $2 AND status = 'OPEN';
	`
	cmdTag, err := tx.Exec(ctx, query, tenantID, periodID, closedAt, closedBy)
	if err != nil {
		return fmt.Errorf("failed to mark fiscal period %s closed: %w", periodID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: fiscal period %s is not open", apperrors.ErrInvalidState, periodID)
	}
	return nil
}
