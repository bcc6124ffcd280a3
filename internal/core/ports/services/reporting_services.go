package services

import (
	"context"

	"github.com/finvolt/ledger_backend/internal/core/domain"
)

// ReportingSvc produces the derived financial reports. All operations are
// read-only snapshots over posted activity and may run concurrently.
type ReportingSvc interface {
	// TrialBalance lists every account's aggregated debit/credit activity in
	// a period with its closing balance per normal side.
	TrialBalance(ctx context.Context, tenantID string, periodID string) ([]domain.TrialBalanceRow, error)

	// ProfitAndLoss restricts activity to revenue/expense accounts for a period.
	ProfitAndLoss(ctx context.Context, tenantID string, periodID string) (*domain.PAndLReport, error)

	// BalanceSheet reports asset/liability/equity balances as of a period,
	// rolling child-account balances into their ancestors.
	BalanceSheet(ctx context.Context, tenantID string, periodID string) (*domain.BalanceSheetReport, error)
}
