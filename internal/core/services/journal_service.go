package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finvolt/ledger_backend/internal/apperrors"
	"github.com/finvolt/ledger_backend/internal/core/domain"
	portsrepo "github.com/finvolt/ledger_backend/internal/core/ports/repositories"
	portssvc "github.com/finvolt/ledger_backend/internal/core/ports/services"
	"github.com/finvolt/ledger_backend/internal/dto"
	"github.com/finvolt/ledger_backend/internal/utils/accounting"
)

var (
	ErrUnbalancedEntry    = fmt.Errorf("%w: entry debits and credits do not balance", apperrors.ErrValidation)
	ErrDuplicateReference = fmt.Errorf("%w: reference number already in use for tenant", apperrors.ErrDuplicate)
	ErrUnknownAccount     = fmt.Errorf("%w: line references an unknown or inactive account", apperrors.ErrValidation)
	ErrPeriodClosed       = fmt.Errorf("%w: fiscal period is closed or missing for entry date", apperrors.ErrConflict)
	ErrEntryMinLines      = fmt.Errorf("%w: entry must have at least two lines", apperrors.ErrValidation)
	ErrEntryNotDraft      = fmt.Errorf("%w: entry is not in draft", apperrors.ErrInvalidState)
	ErrEntryPosted        = fmt.Errorf("%w: posted entries cannot be modified", apperrors.ErrImmutable)
)

// journalService owns journal-entry creation, balance validation and the
// Draft -> Posted / Draft -> Void state machine.
type journalService struct {
	BaseService
	journalRepo portsrepo.JournalRepositoryWithTx
	accountSvc  portssvc.AccountReaderSvc
	periodSvc   portssvc.FiscalPeriodReaderSvc
}

// NewJournalService creates a new journal service.
func NewJournalService(journalRepo portsrepo.JournalRepositoryWithTx, accountSvc portssvc.AccountReaderSvc, periodSvc portssvc.FiscalPeriodReaderSvc) portssvc.JournalSvcFacade {
	return &journalService{
		journalRepo: journalRepo,
		accountSvc:  accountSvc,
		periodSvc:   periodSvc,
	}
}

// Ensure journalService implements the portssvc.JournalSvcFacade interface
var _ portssvc.JournalSvcFacade = (*journalService)(nil)

// validateLines checks amounts, scale and the double-entry balance invariant.
// Sums run left-to-right at full precision; the final comparison is exact.
func (s *journalService) validateLines(lines []domain.JournalLine) error {
	if len(lines) < 2 {
		return ErrEntryMinLines
	}

	for _, line := range lines {
		if line.Amount.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%w: line amount must be positive for account %s", apperrors.ErrValidation, line.AccountID)
		}
		if err := accounting.CheckScale(line.Amount); err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		if line.Side != domain.Debit && line.Side != domain.Credit {
			return fmt.Errorf("%w: unknown entry side '%s'", apperrors.ErrValidation, line.Side)
		}
	}

	debits, credits := domain.SumBySide(lines)
	if !debits.Equal(credits) {
		return fmt.Errorf("%w: debits sum is %s and credits sum is %s", ErrUnbalancedEntry, debits.String(), credits.String())
	}
	return nil
}

// validateAccounts resolves every referenced account and checks that it
// exists, belongs to the tenant and is active.
func (s *journalService) validateAccounts(ctx context.Context, tenantID string, lines []domain.JournalLine) error {
	accountIDs := make([]string, 0, len(lines))
	for _, line := range lines {
		accountIDs = append(accountIDs, line.AccountID)
	}
	uniqueIDs := uniqueStrings(accountIDs)

	accountsMap, err := s.accountSvc.GetAccountsByIDs(ctx, tenantID, uniqueIDs)
	if err != nil {
		return fmt.Errorf("failed to fetch accounts: %w", err)
	}

	for _, id := range uniqueIDs {
		acc, found := accountsMap[id]
		if !found {
			return fmt.Errorf("%w: account %s", ErrUnknownAccount, id)
		}
		if acc.TenantID != tenantID {
			// Repository lookups are tenant scoped; treat any mismatch that
			// slips through as an unknown account rather than leaking existence.
			return fmt.Errorf("%w: account %s", ErrUnknownAccount, id)
		}
		if !acc.IsActive {
			return fmt.Errorf("%w: account %s is inactive", ErrUnknownAccount, id)
		}
	}
	return nil
}

// validatePeriodForDate checks that the entry date falls inside the target
// period and that the period is still open.
func (s *journalService) validatePeriodForDate(ctx context.Context, tenantID, periodID string, entryDate time.Time) error {
	period, err := s.periodSvc.GetPeriodByID(ctx, tenantID, periodID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: period %s not found", ErrPeriodClosed, periodID)
		}
		return fmt.Errorf("failed to fetch fiscal period %s: %w", periodID, err)
	}
	if !period.Covers(entryDate) {
		return fmt.Errorf("%w: entry date %s is outside period %s", apperrors.ErrValidation,
			entryDate.Format("2006-01-02"), period.Name)
	}
	if period.Status != domain.PeriodOpen {
		return fmt.Errorf("%w: period %s", ErrPeriodClosed, period.Name)
	}
	return nil
}

// CreateEntry validates and persists a new journal entry with its lines as Draft.
// Implements portssvc.JournalWriterSvc
func (s *journalService) CreateEntry(ctx context.Context, tenantID string, req dto.CreateEntryRequest, creatorUserID string) (*domain.JournalEntry, error) {
	logger := s.GetLogger(ctx)

	// Reference number must be unique within the tenant.
	existing, err := s.journalRepo.FindEntryByReference(ctx, tenantID, req.ReferenceNumber)
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		logger.Error("Failed to check reference uniqueness", slog.String("error", err.Error()), slog.String("reference", req.ReferenceNumber))
		return nil, fmt.Errorf("failed to check reference uniqueness: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: reference %s", ErrDuplicateReference, req.ReferenceNumber)
	}

	now := time.Now().UTC()
	entryID := uuid.NewString()

	lines := make([]domain.JournalLine, len(req.Lines))
	for i, lineReq := range req.Lines {
		lines[i] = domain.JournalLine{
			LineID:      uuid.NewString(),
			EntryID:     entryID,
			AccountID:   lineReq.AccountID,
			Side:        lineReq.Side,
			Amount:      lineReq.Amount,
			Description: lineReq.Description,
			AuditFields: domain.AuditFields{
				CreatedAt:     now,
				CreatedBy:     creatorUserID,
				LastUpdatedAt: now,
				LastUpdatedBy: creatorUserID,
			},
		}
	}

	if err := s.validateLines(lines); err != nil {
		return nil, err
	}
	if err := s.validateAccounts(ctx, tenantID, lines); err != nil {
		return nil, err
	}
	if err := s.validatePeriodForDate(ctx, tenantID, req.PeriodID, req.EntryDate); err != nil {
		return nil, err
	}

	entry := domain.JournalEntry{
		EntryID:         entryID,
		TenantID:        tenantID,
		PeriodID:        req.PeriodID,
		ReferenceNumber: req.ReferenceNumber,
		EntryDate:       req.EntryDate,
		Description:     req.Description,
		Status:          domain.Draft,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.journalRepo.SaveEntry(ctx, entry, lines); err != nil {
		if errors.Is(err, apperrors.ErrDuplicate) {
			return nil, fmt.Errorf("%w: reference %s", ErrDuplicateReference, req.ReferenceNumber)
		}
		// The save transaction re-checks the period row; a close that won the
		// race between validation and commit surfaces here.
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: period %s closed before the entry was saved", ErrPeriodClosed, req.PeriodID)
		}
		logger.Error("Failed to save journal entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to save journal entry: %w", err)
	}

	logger.Info("Journal entry created as draft", slog.String("entry_id", entryID), slog.String("reference", req.ReferenceNumber))
	entry.Lines = lines
	return &entry, nil
}

// GetEntryByID retrieves a journal entry with its lines populated.
// Implements portssvc.JournalReaderSvc
func (s *journalService) GetEntryByID(ctx context.Context, tenantID string, entryID string) (*domain.JournalEntry, error) {
	logger := s.GetLogger(ctx)

	entry, err := s.journalRepo.FindEntryByID(ctx, tenantID, entryID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find journal entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		}
		return nil, err
	}

	lines, err := s.journalRepo.FindLinesByEntryID(ctx, entryID)
	if err != nil {
		logger.Error("Failed to fetch lines for entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to retrieve lines for entry %s: %w", entryID, err)
	}
	entry.Lines = lines
	return entry, nil
}

// ListEntries retrieves a paginated list of journal entries for a tenant.
func (s *journalService) ListEntries(ctx context.Context, tenantID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error) {
	filter := portsrepo.ListEntriesFilter{PeriodID: params.PeriodID}
	if params.Status != nil {
		status := domain.EntryStatus(*params.Status)
		if status != domain.Draft && status != domain.Posted && status != domain.Void {
			return nil, fmt.Errorf("%w: unknown entry status '%s'", apperrors.ErrValidation, *params.Status)
		}
		filter.Status = &status
	}

	entries, nextToken, err := s.journalRepo.ListEntries(ctx, tenantID, filter, params.Limit, params.NextToken)
	if err != nil {
		s.LogError(ctx, err, "Failed to list journal entries")
		return nil, fmt.Errorf("failed to list journal entries: %w", err)
	}

	responses := make([]dto.EntryResponse, len(entries))
	for i := range entries {
		responses[i] = dto.ToEntryResponse(&entries[i])
	}
	return &dto.ListEntriesResponse{Entries: responses, NextToken: nextToken}, nil
}

// UpdateEntry replaces a draft entry's mutable fields. Posted entries are
// immutable; void entries are terminal.
// Implements portssvc.JournalWriterSvc
func (s *journalService) UpdateEntry(ctx context.Context, tenantID string, entryID string, req dto.UpdateEntryRequest, userID string) (*domain.JournalEntry, error) {
	logger := s.GetLogger(ctx)

	entry, err := s.journalRepo.FindEntryByID(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}

	switch entry.Status {
	case domain.Draft:
		// Only drafts are mutable.
	case domain.Posted:
		return nil, fmt.Errorf("%w: entry %s", ErrEntryPosted, entryID)
	default:
		return nil, fmt.Errorf("%w: entry %s is %s", ErrEntryNotDraft, entryID, entry.Status)
	}

	now := time.Now().UTC()

	if req.EntryDate != nil {
		entry.EntryDate = *req.EntryDate
	}
	if req.Description != nil {
		entry.Description = *req.Description
	}

	var newLines []domain.JournalLine
	if req.Lines != nil {
		newLines = make([]domain.JournalLine, len(req.Lines))
		for i, lineReq := range req.Lines {
			newLines[i] = domain.JournalLine{
				LineID:      uuid.NewString(),
				EntryID:     entryID,
				AccountID:   lineReq.AccountID,
				Side:        lineReq.Side,
				Amount:      lineReq.Amount,
				Description: lineReq.Description,
				AuditFields: domain.AuditFields{
					CreatedAt:     now,
					CreatedBy:     userID,
					LastUpdatedAt: now,
					LastUpdatedBy: userID,
				},
			}
		}
		if err := s.validateLines(newLines); err != nil {
			return nil, err
		}
		if err := s.validateAccounts(ctx, tenantID, newLines); err != nil {
			return nil, err
		}
	}

	// A date change must still land inside the entry's open period.
	if req.EntryDate != nil {
		if err := s.validatePeriodForDate(ctx, tenantID, entry.PeriodID, entry.EntryDate); err != nil {
			return nil, err
		}
	}

	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = userID

	if err := s.journalRepo.UpdateEntry(ctx, *entry, newLines); err != nil {
		logger.Error("Failed to save entry update", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to save entry update: %w", err)
	}

	logger.Info("Journal entry updated", slog.String("entry_id", entryID))
	entry.Lines = newLines
	return entry, nil
}

// PostEntry transitions a draft entry to Posted. The entry row is locked for
// the whole transaction, so of N concurrent callers exactly one observes
// Draft and succeeds; the rest fail with an invalid-state error. The balance
// invariant is re-verified from the locked lines before the flip.
// Implements portssvc.JournalWriterSvc
func (s *journalService) PostEntry(ctx context.Context, tenantID string, entryID string, actorUserID string) (*domain.JournalEntry, error) {
	logger := s.GetLogger(ctx)

	tx, err := s.journalRepo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin posting transaction: %w", err)
	}
	defer s.journalRepo.Rollback(ctx, tx) // No-op after a successful commit

	entry, err := s.journalRepo.FindEntryByIDForUpdate(ctx, tx, tenantID, entryID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Journal entry not found for posting", slog.String("entry_id", entryID))
		}
		return nil, err
	}

	if entry.Status != domain.Draft {
		return nil, fmt.Errorf("%w: entry %s is %s", ErrEntryNotDraft, entryID, entry.Status)
	}

	open, err := s.periodSvc.IsOpenForDate(ctx, tenantID, entry.EntryDate)
	if err != nil {
		return nil, fmt.Errorf("failed to check fiscal period for entry date: %w", err)
	}
	if !open {
		return nil, fmt.Errorf("%w: entry date %s", ErrPeriodClosed, entry.EntryDate.Format("2006-01-02"))
	}

	lines, err := s.journalRepo.FindLinesByEntryIDInTx(ctx, tx, entryID)
	if err != nil {
		logger.Error("Failed to fetch lines for posting", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to fetch lines for posting: %w", err)
	}

	// Guards against any out-of-band line edit since creation.
	if err := accounting.ValidateEntryBalance(lines); err != nil {
		logger.Error("Balance invariant violated at posting time", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("%w: %v", ErrUnbalancedEntry, err)
	}

	now := time.Now().UTC()
	if err := s.journalRepo.MarkEntryPosted(ctx, tx, entryID, actorUserID, now); err != nil {
		logger.Error("Failed to mark entry posted", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return nil, fmt.Errorf("failed to mark entry posted: %w", err)
	}

	if err := s.journalRepo.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit posting: %w", err)
	}

	entry.Status = domain.Posted
	entry.PostedBy = &actorUserID
	entry.PostedAt = &now
	entry.LastUpdatedAt = now
	entry.LastUpdatedBy = actorUserID
	entry.Lines = lines

	logger.Info("Journal entry posted", slog.String("entry_id", entryID), slog.String("posted_by", actorUserID))
	return entry, nil
}

// VoidEntry transitions a draft entry to Void. A posted entry is never
// silently voided; callers create an explicit reversing entry instead.
// Implements portssvc.JournalWriterSvc
func (s *journalService) VoidEntry(ctx context.Context, tenantID string, entryID string, userID string) error {
	logger := s.GetLogger(ctx)

	entry, err := s.journalRepo.FindEntryByID(ctx, tenantID, entryID)
	if err != nil {
		return err
	}

	if entry.Status != domain.Draft {
		return fmt.Errorf("%w: entry %s is %s", ErrEntryNotDraft, entryID, entry.Status)
	}

	now := time.Now().UTC()
	if err := s.journalRepo.UpdateEntryStatus(ctx, tenantID, entryID, domain.Void, userID, now); err != nil {
		// The update only touches rows still in draft; a concurrent posting
		// that won the race leaves the entry posted and fails the void here.
		if errors.Is(err, apperrors.ErrInvalidState) {
			return fmt.Errorf("%w: entry %s", ErrEntryNotDraft, entryID)
		}
		logger.Error("Failed to void entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return fmt.Errorf("failed to void entry: %w", err)
	}

	logger.Info("Journal entry voided", slog.String("entry_id", entryID))
	return nil
}

// DeleteEntry removes a draft entry; its lines cascade with it.
// Implements portssvc.JournalWriterSvc
func (s *journalService) DeleteEntry(ctx context.Context, tenantID string, entryID string) error {
	logger := s.GetLogger(ctx)

	entry, err := s.journalRepo.FindEntryByID(ctx, tenantID, entryID)
	if err != nil {
		return err
	}

	if entry.Status != domain.Draft {
		return fmt.Errorf("%w: entry %s is %s", ErrEntryNotDraft, entryID, entry.Status)
	}

	if err := s.journalRepo.DeleteEntry(ctx, tenantID, entryID); err != nil {
		logger.Error("Failed to delete entry", slog.String("error", err.Error()), slog.String("entry_id", entryID))
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	logger.Info("Journal entry deleted", slog.String("entry_id", entryID))
	return nil
}

// uniqueStrings returns a slice containing only the unique strings from the input.
func uniqueStrings(input []string) []string {
	seen := make(map[string]struct{}, len(input))
	result := make([]string, 0, len(input))
	for _, str := range input {
		if _, ok := seen[str]; !ok {
			seen[str] = struct{}{}
			result = append(result, str)
		}
	}
	return result
}
