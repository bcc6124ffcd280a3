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
	ErrPeriodOverlap       = fmt.Errorf("%w: date range overlaps an existing fiscal period", apperrors.ErrConflict)
	ErrDraftEntriesRemain  = fmt.Errorf("%w: period has journal entries still in draft", apperrors.ErrConflict)
	ErrPeriodAlreadyClosed = fmt.Errorf("%w: period is already closed", apperrors.ErrInvalidState)
)

// fiscalPeriodService owns the fiscal-period lifecycle: creation, date-range
// gating and the terminal Open -> Closed transition.
type fiscalPeriodService struct {
	BaseService
	periodRepo portsrepo.FiscalPeriodRepositoryWithTx
}

// NewFiscalPeriodService creates a new fiscal-period service.
func NewFiscalPeriodService(periodRepo portsrepo.FiscalPeriodRepositoryWithTx) portssvc.FiscalPeriodSvcFacade {
	return &fiscalPeriodService{periodRepo: periodRepo}
}

// Ensure fiscalPeriodService implements the portssvc.FiscalPeriodSvcFacade interface
var _ portssvc.FiscalPeriodSvcFacade = (*fiscalPeriodService)(nil)

// CreatePeriod creates a new Open fiscal period. The range must be well formed
// and must not overlap any existing period for the tenant.
// Implements portssvc.FiscalPeriodWriterSvc
func (s *fiscalPeriodService) CreatePeriod(ctx context.Context, tenantID string, req dto.CreatePeriodRequest, creatorUserID string) (*domain.FiscalPeriod, error) {
	logger := s.GetLogger(ctx)

	if !req.EndDate.After(req.StartDate) {
		return nil, fmt.Errorf("%w: period end date must be after start date", apperrors.ErrValidation)
	}

	overlaps, err := s.periodRepo.HasOverlappingPeriod(ctx, tenantID, req.StartDate, req.EndDate)
	if err != nil {
		logger.Error("Failed to check period overlap", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to check period overlap: %w", err)
	}
	if overlaps {
		return nil, fmt.Errorf("%w: [%s, %s]", ErrPeriodOverlap,
			req.StartDate.Format("2006-01-02"), req.EndDate.Format("2006-01-02"))
	}

	now := time.Now().UTC()
	period := domain.FiscalPeriod{
		PeriodID:  uuid.NewString(),
		TenantID:  tenantID,
		Name:      req.Name,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Status:    domain.PeriodOpen,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorUserID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorUserID,
		},
	}

	if err := s.periodRepo.SavePeriod(ctx, period); err != nil {
		logger.Error("Failed to save fiscal period", slog.String("error", err.Error()), slog.String("period_id", period.PeriodID))
		return nil, fmt.Errorf("failed to save fiscal period: %w", err)
	}

	logger.Info("Fiscal period created successfully", slog.String("period_id", period.PeriodID), slog.String("name", period.Name))
	return &period, nil
}

// GetPeriodByID retrieves a fiscal period by its ID.
// Implements portssvc.FiscalPeriodReaderSvc
func (s *fiscalPeriodService) GetPeriodByID(ctx context.Context, tenantID string, periodID string) (*domain.FiscalPeriod, error) {
	period, err := s.periodRepo.FindPeriodByID(ctx, tenantID, periodID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find fiscal period by ID", slog.String("period_id", periodID))
		}
		return nil, err
	}
	return period, nil
}

// ListPeriods retrieves all fiscal periods for a tenant ordered by start date.
func (s *fiscalPeriodService) ListPeriods(ctx context.Context, tenantID string) ([]domain.FiscalPeriod, error) {
	periods, err := s.periodRepo.ListPeriods(ctx, tenantID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list fiscal periods")
		return nil, fmt.Errorf("failed to list fiscal periods: %w", err)
	}
	if periods == nil {
		return []domain.FiscalPeriod{}, nil
	}
	return periods, nil
}

// IsOpenForDate reports whether an Open period covering the date exists.
// Implements portssvc.FiscalPeriodReaderSvc
func (s *fiscalPeriodService) IsOpenForDate(ctx context.Context, tenantID string, date time.Time) (bool, error) {
	period, err := s.periodRepo.FindPeriodForDate(ctx, tenantID, date)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		s.LogError(ctx, err, "Failed to find fiscal period for date", slog.Time("date", date))
		return false, fmt.Errorf("failed to find fiscal period for date: %w", err)
	}
	return period.Status == domain.PeriodOpen, nil
}

// ClosePeriod transitions a period to Closed. The draft-entry precondition
// check and the status flip run in the same transaction with the period row
// locked, so a concurrent entry creation cannot slip between them. Closed is
// terminal; reopening is not supported.
// Implements portssvc.FiscalPeriodWriterSvc
func (s *fiscalPeriodService) ClosePeriod(ctx context.Context, tenantID string, periodID string, userID string) (*domain.FiscalPeriod, error) {
	logger := s.GetLogger(ctx)

	tx, err := s.periodRepo.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin close transaction: %w", err)
	}
	defer s.periodRepo.Rollback(ctx, tx) // No-op after a successful commit

	period, err := s.periodRepo.FindPeriodByIDForUpdate(ctx, tx, tenantID, periodID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Fiscal period not found for close", slog.String("period_id", periodID))
		}
		return nil, err
	}

	if period.Status != domain.PeriodOpen {
		return nil, fmt.Errorf("%w: period %s", ErrPeriodAlreadyClosed, periodID)
	}

	draftCount, err := s.periodRepo.CountDraftEntriesInPeriod(ctx, tx, tenantID, periodID)
	if err != nil {
		logger.Error("Failed to count draft entries for period close", slog.String("error", err.Error()), slog.String("period_id", periodID))
		return nil, fmt.Errorf("failed to count draft entries: %w", err)
	}
	if draftCount > 0 {
		return nil, fmt.Errorf("%w: %d draft entries in period %s", ErrDraftEntriesRemain, draftCount, periodID)
	}

	now := time.Now().UTC()
	if err := s.periodRepo.MarkPeriodClosed(ctx, tx, tenantID, periodID, userID, now); err != nil {
		logger.Error("Failed to mark period closed", slog.String("error", err.Error()), slog.String("period_id", periodID))
		return nil, fmt.Errorf("failed to mark period closed: %w", err)
	}

	if err := s.periodRepo.Commit(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to commit period close: %w", err)
	}

	period.Status = domain.PeriodClosed
	period.ClosedAt = &now
	period.ClosedBy = &userID
	period.LastUpdatedAt = now
	period.LastUpdatedBy = userID

	logger.Info("Fiscal period closed successfully", slog.String("period_id", periodID))
	return period, nil
}
