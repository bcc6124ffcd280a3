package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finvolt/ledger_backend/internal/apperrors"
	"github.com/finvolt/ledger_backend/internal/core/domain"
	portsrepo "github.com/finvolt/ledger_backend/internal/core/ports/repositories"
	"github.com/finvolt/ledger_backend/internal/models"
	"github.com/finvolt/ledger_backend/internal/utils/mapping"
	"github.com/finvolt/ledger_backend/internal/utils/pagination"
)

const journalEntryColumns = `entry_id, tenant_id, period_id, reference_number, entry_date, description, status, posted_by, posted_at, created_at, created_by, last_updated_at, last_updated_by`

const journalLineColumns = `line_id, entry_id, account_id, side, amount, description, created_at, created_by, last_updated_at, last_updated_by`

const insertJournalLineSQL = `
	INSERT INTO journal_lines (` + journalLineColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
`

type PgxJournalRepository struct {
	BaseRepository
}

// newPgxJournalRepository creates a new repository for journal-entry data.
func newPgxJournalRepository(pool *pgxpool.Pool) portsrepo.JournalRepositoryWithTx {
	return &PgxJournalRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxJournalRepository implements portsrepo.JournalRepositoryWithTx
var _ portsrepo.JournalRepositoryWithTx = (*PgxJournalRepository)(nil)

func scanJournalEntry(row pgx.Row) (*models.JournalEntry, error) {
	var m models.JournalEntry
	err := row.Scan(
		&m.EntryID,
		&m.TenantID,
		&m.PeriodID,
		&m.ReferenceNumber,
		&m.EntryDate,
		&m.Description,
		&m.Status,
		&m.PostedBy,
		&m.PostedAt,
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

func scanJournalLine(row pgx.Row) (*models.JournalLine, error) {
	var m models.JournalLine
	err := row.Scan(
		&m.LineID,
		&m.EntryID,
		&m.AccountID,
		&m.Side,
		&m.Amount,
		&m.Description,
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

// SaveEntry persists an entry header and its lines in a single transaction.
// A unique violation on (tenant_id, reference_number) maps to apperrors.ErrDuplicate.
func (r *PgxJournalRepository) SaveEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for entry save: %w", err)
	}
	defer tx.Rollback(ctx)

	m := mapping.ToModelJournalEntry(entry)

	if err := lockPeriodOpen(ctx, tx, m.TenantID, m.PeriodID); err != nil {
		return err
	}

	entryQuery := `
		INSERT INTO journal_entries (` + journalEntryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = tx.Exec(ctx, entryQuery,
		m.EntryID,
		m.TenantID,
		m.PeriodID,
		m.ReferenceNumber,
		m.EntryDate,
		m.Description,
		m.Status,
		m.PostedBy,
		m.PostedAt,
		m.CreatedAt,
		m.CreatedBy,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			return fmt.Errorf("%w: reference number %s already exists for tenant", apperrors.ErrDuplicate, m.ReferenceNumber)
		}
		return fmt.Errorf("failed to insert journal entry %s: %w", m.EntryID, err)
	}

	if err := insertLines(ctx, tx, lines); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit entry save: %w", err)
	}
	return nil
}

// lockPeriodOpen re-checks inside the transaction that the target fiscal
// period is still open. The share lock on the period row makes the insert
// serialize against a concurrent period close, which locks the same row
// exclusively, so a draft can never land in a period after it closed.
func lockPeriodOpen(ctx context.Context, tx pgx.Tx, tenantID string, periodID string) error {
	query := `
		SELECT status
		FROM fiscal_periods
		WHERE tenant_id = $1 AND period_id = $2
		FOR SHARE;
	`
	var status string
	if err := tx.QueryRow(ctx, query, tenantID, periodID).Scan(&status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: fiscal period %s", apperrors.ErrNotFound, periodID)
		}
		return fmt.Errorf("failed to lock fiscal period %s: %w", periodID, err)
	}
	if domain.PeriodStatus(status) != domain.PeriodOpen {
		return fmt.Errorf("%w: fiscal period %s is not open", apperrors.ErrConflict, periodID)
	}
	return nil
}

// insertLines batch-inserts journal lines within the given transaction.
func insertLines(ctx context.Context, tx pgx.Tx, lines []domain.JournalLine) error {
	batch := &pgx.Batch{}
	for _, line := range lines {
		ml := mapping.ToModelJournalLine(line)
		batch.Queue(insertJournalLineSQL,
			ml.LineID,
			ml.EntryID,
			ml.AccountID,
			ml.Side,
			ml.Amount,
			ml.Description,
			ml.CreatedAt,
			ml.CreatedBy,
			ml.LastUpdatedAt,
			ml.LastUpdatedBy,
		)
	}

	br := tx.SendBatch(ctx, batch)
	var batchErr error
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil && batchErr == nil {
			batchErr = fmt.Errorf("failed to insert journal line %s: %w", lines[i].LineID, err)
		}
	}
	if err := br.Close(); err != nil && batchErr == nil {
		batchErr = fmt.Errorf("failed to close line insert batch: %w", err)
	}
	return batchErr
}

// FindEntryByID retrieves a journal entry header by its ID within a tenant.
func (r *PgxJournalRepository) FindEntryByID(ctx context.Context, tenantID string, entryID string) (*domain.JournalEntry, error) {
	query := `
		SELECT ` + journalEntryColumns + `
		FROM journal_entries
		WHERE tenant_id = $1 AND entry_id = $2;
	`
	m, err := scanJournalEntry(r.Pool.QueryRow(ctx, query, tenantID, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find journal entry by ID %s: %w", entryID, err)
	}
	entry := mapping.ToDomainJournalEntry(*m)
	return &entry, nil
}

// FindEntryByReference retrieves an entry by its tenant-unique reference number.
func (r *PgxJournalRepository) FindEntryByReference(ctx context.Context, tenantID string, referenceNumber string) (*domain.JournalEntry, error) {
	query := `
		SELECT ` + journalEntryColumns + `
		FROM journal_entries
		WHERE tenant_id = $1 AND reference_number = $2;
	`
	m, err := scanJournalEntry(r.Pool.QueryRow(ctx, query, tenantID, referenceNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find journal entry by reference %s: %w", referenceNumber, err)
	}
	entry := mapping.ToDomainJournalEntry(*m)
	return &entry, nil
}

// FindLinesByEntryID retrieves all lines of a journal entry.
func (r *PgxJournalRepository) FindLinesByEntryID(ctx context.Context, entryID string) ([]domain.JournalLine, error) {
	query := `
		SELECT ` + journalLineColumns + `
		FROM journal_lines
		WHERE entry_id = $1
		ORDER BY created_at, line_id;
	`
	rows, err := r.Pool.Query(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines for entry %s: %w", entryID, err)
	}
	defer rows.Close()

	return collectLines(rows, entryID)
}

func collectLines(rows pgx.Rows, entryID string) ([]domain.JournalLine, error) {
	modelLines := []models.JournalLine{}
	for rows.Next() {
		m, err := scanJournalLine(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan line row for entry %s: %w", entryID, err)
		}
		modelLines = append(modelLines, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating line rows for entry %s: %w", entryID, err)
	}
	return mapping.ToDomainJournalLineSlice(modelLines), nil
}

// ListEntries retrieves a paginated list of entries for a tenant, newest entry
// date first, using token-based pagination.
func (r *PgxJournalRepository) ListEntries(ctx context.Context, tenantID string, filter portsrepo.ListEntriesFilter, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}

	args := []interface{}{tenantID}
	query := `
		SELECT ` + journalEntryColumns + `
		FROM journal_entries
		WHERE tenant_id = $1
	`
	if filter.PeriodID != nil {
		args = append(args, *filter.PeriodID)
		query += fmt.Sprintf(` AND period_id = $%d`, len(args))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if nextToken != nil && *nextToken != "" {
		cursorDate, cursorCreatedAt, err := pagination.DecodeToken(*nextToken)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		args = append(args, cursorDate, cursorCreatedAt)
		query += fmt.Sprintf(` AND (entry_date, created_at) < ($%d, $%d)`, len(args)-1, len(args))
	}
	args = append(args, limit+1) // Fetch one extra to detect the next page
	query += fmt.Sprintf(` ORDER BY entry_date DESC, created_at DESC LIMIT $%d;`, len(args))

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query journal entries for tenant %s: %w", tenantID, err)
	}
	defer rows.Close()

	modelEntries := []models.JournalEntry{}
	for rows.Next() {
		m, err := scanJournalEntry(rows)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to scan journal entry row: %w", err)
		}
		modelEntries = append(modelEntries, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("error iterating journal entry rows: %w", err)
	}

	var newNextToken *string
	if len(modelEntries) > limit {
		modelEntries = modelEntries[:limit]
		last := modelEntries[limit-1]
		token := pagination.EncodeToken(last.EntryDate, last.CreatedAt)
		newNextToken = &token
	}

	return mapping.ToDomainJournalEntrySlice(modelEntries), newNextToken, nil
}

// FindEntryByIDForUpdate retrieves an entry with an exclusive row lock. Must
// be called within a transaction; concurrent posters on the same entry
// serialize here and the losers observe the committed status change.
func (r *PgxJournalRepository) FindEntryByIDForUpdate(ctx context.Context, tx pgx.Tx, tenantID string, entryID string) (*domain.JournalEntry, error) {
	query := `
		SELECT ` + journalEntryColumns + `
		FROM journal_entries
		WHERE tenant_id = $1 AND entry_id = $2
		FOR UPDATE;
	`
	m, err := scanJournalEntry(tx.QueryRow(ctx, query, tenantID, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to lock journal entry %s: %w", entryID, err)
	}
	entry := mapping.ToDomainJournalEntry(*m)
	return &entry, nil
}

// FindLinesByEntryIDInTx retrieves entry lines inside the posting transaction.
func (r *PgxJournalRepository) FindLinesByEntryIDInTx(ctx context.Context, tx pgx.Tx, entryID string) ([]domain.JournalLine, error) {
	query := `
		SELECT ` + journalLineColumns + `
		FROM journal_lines
		WHERE entry_id = $1
		ORDER BY created_at, line_id;
	`
	rows, err := tx.Query(ctx, query, entryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query lines in tx for entry %s: %w", entryID, err)
	}
	defer rows.Close()

	return collectLines(rows, entryID)
}

// MarkEntryPosted transitions a locked entry to POSTED and stamps the posting
// metadata. The status predicate backstops the service-level check.
func (r *PgxJournalRepository) MarkEntryPosted(ctx context.Context, tx pgx.Tx, entryID string, postedBy string, postedAt time.Time) error {
	query := `
		UPDATE journal_entries
		SET status = 'POSTED', posted_by = $2, posted_at = $3, last_updated_at = $3, last_updated_by = $2
		WHERE entry_id = $1 AND status = 'DRAFT';
	`
	cmdTag, err := tx.Exec(ctx, query, entryID, postedBy, postedAt)
	if err != nil {
		return fmt.Errorf("failed to mark journal entry %s posted: %w", entryID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: journal entry %s is not a draft", apperrors.ErrInvalidState, entryID)
	}
	return nil
}

// UpdateEntryStatus transitions a draft entry to the given status. Used for
// voiding drafts. The status predicate backstops the service-level check, so
// an entry posted between the service's read and this update is left intact.
func (r *PgxJournalRepository) UpdateEntryStatus(ctx context.Context, tenantID string, entryID string, status domain.EntryStatus, updatedByUserID string, updatedAt time.Time) error {
	query := `
		UPDATE journal_entries
		SET status = $3, last_updated_at = $4, last_updated_by = $5
		WHERE tenant_id = $1 AND entry_id = $2 AND status = 'DRAFT';
	`
	cmdTag, err := r.Pool.Exec(ctx, query, tenantID, entryID, string(status), updatedAt, updatedByUserID)
	if err != nil {
		return fmt.Errorf("failed to update status of journal entry %s: %w", entryID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: journal entry %s is not a draft", apperrors.ErrInvalidState, entryID)
	}
	return nil
}

// UpdateEntry replaces a draft entry's header fields and, when lines is
// non-nil, its full line set, all in one transaction.
func (r *PgxJournalRepository) UpdateEntry(ctx context.Context, entry domain.JournalEntry, lines []domain.JournalLine) error {
	tx, err := r.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction for entry update: %w", err)
	}
	defer tx.Rollback(ctx)

	m := mapping.ToModelJournalEntry(entry)

	headerQuery := `
		UPDATE journal_entries
		SET entry_date = $3, description = $4, last_updated_at = $5, last_updated_by = $6
		WHERE tenant_id = $1 AND entry_id = $2 AND status = 'DRAFT';
	`
	cmdTag, err := tx.Exec(ctx, headerQuery,
		m.TenantID,
		m.EntryID,
		m.EntryDate,
		m.Description,
		m.LastUpdatedAt,
		m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to update journal entry %s: %w", m.EntryID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: journal entry %s is not a draft", apperrors.ErrInvalidState, m.EntryID)
	}

	if lines != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM journal_lines WHERE entry_id = $1;`, m.EntryID); err != nil {
			return fmt.Errorf("failed to clear lines of journal entry %s: %w", m.EntryID, err)
		}
		if err := insertLines(ctx, tx, lines); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit entry update: %w", err)
	}
	return nil
}

// DeleteEntry removes a draft entry; its lines cascade via the FK.
func (r *PgxJournalRepository) DeleteEntry(ctx context.Context, tenantID string, entryID string) error {
	query := `DELETE FROM journal_entries WHERE tenant_id = $1 AND entry_id = $2 AND status = 'DRAFT';`

	cmdTag, err := r.Pool.Exec(ctx, query, tenantID, entryID)
	if err != nil {
		return fmt.Errorf("failed to delete journal entry %s: %w", entryID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
