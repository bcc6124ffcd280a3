package services

import (
	"context"
	"time"

	"github.com/finvolt/ledger_backend/internal/core/domain"
	"github.com/finvolt/ledger_backend/internal/dto"
)

// FiscalPeriodReaderSvc defines read operations for fiscal periods.
type FiscalPeriodReaderSvc interface {
	// GetPeriodByID retrieves a fiscal period by its ID.
	GetPeriodByID(ctx context.Context, tenantID string, periodID string) (*domain.FiscalPeriod, error)

	// ListPeriods retrieves all fiscal periods for a tenant.
	ListPeriods(ctx context.Context, tenantID string) ([]domain.FiscalPeriod, error)

	// IsOpenForDate reports whether an Open period covering the date exists.
	IsOpenForDate(ctx context.Context, tenantID string, date time.Time) (bool, error)
}

// FiscalPeriodWriterSvc defines lifecycle operations for fiscal periods.
type FiscalPeriodWriterSvc interface {
	// CreatePeriod creates a new Open period after range validation.
	CreatePeriod(ctx context.Context, tenantID string, req dto.CreatePeriodRequest, creatorUserID string) (*domain.FiscalPeriod, error)

	// ClosePeriod transitions a period to Closed. Fails while any draft entry
	// dated inside the period exists. The transition is terminal.
	ClosePeriod(ctx context.Context, tenantID string, periodID string, userID string) (*domain.FiscalPeriod, error)
}

// FiscalPeriodSvcFacade combines all fiscal-period service interfaces.
type FiscalPeriodSvcFacade interface {
	FiscalPeriodReaderSvc
	FiscalPeriodWriterSvc
}
