package repositories

import (
	"context"

	"github.com/finvolt/ledger_backend/internal/core/domain"
)

// ReportingRepository defines read-only aggregation over POSTED journal
// entries for the derived financial reports. Implementations must never
// include DRAFT or VOID activity.
type ReportingRepository interface {
	// GetTrialBalanceData retrieves per-account debit/credit totals for a period.
	GetTrialBalanceData(ctx context.Context, tenantID string, periodID string) ([]domain.TrialBalanceRow, error)

	// GetProfitAndLossData retrieves net amounts for revenue and expense
	// accounts in a period.
	GetProfitAndLossData(ctx context.Context, tenantID string, periodID string) (revenue []domain.AccountAmount, expenses []domain.AccountAmount, err error)

	// GetBalanceSheetData retrieves net amounts for asset, liability and
	// equity accounts with posted activity in a period.
	GetBalanceSheetData(ctx context.Context, tenantID string, periodID string) (assets []domain.AccountAmount, liabilities []domain.AccountAmount, equity []domain.AccountAmount, err error)
}
