package dto

import (
	"github.com/finvolt/ledger_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// TrialBalanceResponse is the trial balance report payload. Totals are
// included so callers can verify the report-wide debit/credit symmetry.
type TrialBalanceResponse struct {
	PeriodID    string                   `json:"periodID"`
	Rows        []domain.TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal          `json:"totalDebit"`
	TotalCredit decimal.Decimal          `json:"totalCredit"`
}
