package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/finvolt/ledger_backend/internal/core/domain"
	portsrepo "github.com/finvolt/ledger_backend/internal/core/ports/repositories"
	portssvc "github.com/finvolt/ledger_backend/internal/core/ports/services"
	"github.com/finvolt/ledger_backend/internal/utils/accounting"
)

// reportingService derives read-only financial reports from posted activity.
type reportingService struct {
	BaseService
	reportingRepo portsrepo.ReportingRepository
	periodSvc     portssvc.FiscalPeriodReaderSvc
	accountSvc    portssvc.AccountSvcFacade
}

// NewReportingService creates a new reporting service.
func NewReportingService(reportingRepo portsrepo.ReportingRepository, periodSvc portssvc.FiscalPeriodReaderSvc, accountSvc portssvc.AccountSvcFacade) portssvc.ReportingSvc {
	return &reportingService{
		reportingRepo: reportingRepo,
		periodSvc:     periodSvc,
		accountSvc:    accountSvc,
	}
}

// Ensure reportingService implements the portssvc.ReportingSvc interface
var _ portssvc.ReportingSvc = (*reportingService)(nil)

// TrialBalance lists every account's aggregated posted activity within a
// period. Closing balance is stated per the account's normal side, so a
// debit-normal account with more credits than debits reports a negative
// closing balance rather than flipping sides.
func (s *reportingService) TrialBalance(ctx context.Context, tenantID string, periodID string) ([]domain.TrialBalanceRow, error) {
	logger := s.GetLogger(ctx)

	if _, err := s.periodSvc.GetPeriodByID(ctx, tenantID, periodID); err != nil {
		return nil, err
	}

	rows, err := s.reportingRepo.GetTrialBalanceData(ctx, tenantID, periodID)
	if err != nil {
		logger.Error("Failed to fetch trial balance data", slog.String("error", err.Error()), slog.String("period_id", periodID))
		return nil, fmt.Errorf("failed to fetch trial balance data: %w", err)
	}

	for i := range rows {
		debits, err := accounting.CalculateSignedAmount(rows[i].DebitTotal, domain.Debit, rows[i].AccountType)
		if err != nil {
			return nil, fmt.Errorf("failed to sign balance of account %s: %w", rows[i].AccountID, err)
		}
		credits, err := accounting.CalculateSignedAmount(rows[i].CreditTotal, domain.Credit, rows[i].AccountType)
		if err != nil {
			return nil, fmt.Errorf("failed to sign balance of account %s: %w", rows[i].AccountID, err)
		}
		rows[i].ClosingBalance = debits.Add(credits)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].AccountCode < rows[j].AccountCode })
	return rows, nil
}

// ProfitAndLoss restricts posted activity to revenue and expense accounts for
// a period. Net profit is total revenue minus total expenses.
func (s *reportingService) ProfitAndLoss(ctx context.Context, tenantID string, periodID string) (*domain.PAndLReport, error) {
	logger := s.GetLogger(ctx)

	if _, err := s.periodSvc.GetPeriodByID(ctx, tenantID, periodID); err != nil {
		return nil, err
	}

	revenue, expenses, err := s.reportingRepo.GetProfitAndLossData(ctx, tenantID, periodID)
	if err != nil {
		logger.Error("Failed to fetch P&L data", slog.String("error", err.Error()), slog.String("period_id", periodID))
		return nil, fmt.Errorf("failed to fetch profit and loss data: %w", err)
	}

	report := &domain.PAndLReport{
		Revenue:       revenue,
		Expenses:      expenses,
		TotalRevenue:  sumNetAmounts(revenue),
		TotalExpenses: sumNetAmounts(expenses),
	}
	report.NetProfit = report.TotalRevenue.Sub(report.TotalExpenses)
	return report, nil
}

// BalanceSheet reports asset, liability and equity balances as of a period.
// Each parent account's reported amount includes its descendants' activity;
// category totals sum direct activity only, so nothing is counted twice.
func (s *reportingService) BalanceSheet(ctx context.Context, tenantID string, periodID string) (*domain.BalanceSheetReport, error) {
	logger := s.GetLogger(ctx)

	if _, err := s.periodSvc.GetPeriodByID(ctx, tenantID, periodID); err != nil {
		return nil, err
	}

	assets, liabilities, equity, err := s.reportingRepo.GetBalanceSheetData(ctx, tenantID, periodID)
	if err != nil {
		logger.Error("Failed to fetch balance sheet data", slog.String("error", err.Error()), slog.String("period_id", periodID))
		return nil, fmt.Errorf("failed to fetch balance sheet data: %w", err)
	}

	rolledAssets, totalAssets, err := s.rollupCategory(ctx, tenantID, assets)
	if err != nil {
		return nil, err
	}
	rolledLiabilities, totalLiabilities, err := s.rollupCategory(ctx, tenantID, liabilities)
	if err != nil {
		return nil, err
	}
	rolledEquity, totalEquity, err := s.rollupCategory(ctx, tenantID, equity)
	if err != nil {
		return nil, err
	}

	pnl, err := s.ProfitAndLoss(ctx, tenantID, periodID)
	if err != nil {
		return nil, err
	}

	report := &domain.BalanceSheetReport{
		Assets:           rolledAssets,
		Liabilities:      rolledLiabilities,
		Equity:           rolledEquity,
		TotalAssets:      totalAssets,
		TotalLiabilities: totalLiabilities,
		TotalEquity:      totalEquity,
		NetIncome:        pnl.NetProfit,
	}

	report.Consistent = report.TotalAssets.Equal(report.TotalLiabilities.Add(report.TotalEquity).Add(report.NetIncome))
	if !report.Consistent {
		logger.Warn("Accounting equation does not hold for period",
			slog.String("period_id", periodID),
			slog.String("total_assets", report.TotalAssets.String()),
			slog.String("total_liabilities", report.TotalLiabilities.String()),
			slog.String("total_equity", report.TotalEquity.String()),
			slog.String("net_income", report.NetIncome.String()))
	}
	return report, nil
}

// rollupCategory folds each account's direct net into every ancestor on its
// parent chain, so parent rows report subtree amounts. The category total is
// the sum of direct nets, which equals the sum over root accounts only.
func (s *reportingService) rollupCategory(ctx context.Context, tenantID string, direct []domain.AccountAmount) ([]domain.AccountAmount, decimal.Decimal, error) {
	total := decimal.Zero
	rolled := make(map[string]*domain.AccountAmount, len(direct))

	for _, amt := range direct {
		total = total.Add(amt.NetAmount)
		if row, ok := rolled[amt.AccountID]; ok {
			row.NetAmount = row.NetAmount.Add(amt.NetAmount)
		} else {
			row := amt
			rolled[amt.AccountID] = &row
		}

		ancestors, err := s.accountSvc.AncestorsOf(ctx, tenantID, amt.AccountID)
		if err != nil {
			return nil, decimal.Zero, fmt.Errorf("failed to resolve ancestors of account %s: %w", amt.AccountID, err)
		}
		for _, anc := range ancestors {
			if row, ok := rolled[anc.AccountID]; ok {
				row.NetAmount = row.NetAmount.Add(amt.NetAmount)
			} else {
				rolled[anc.AccountID] = &domain.AccountAmount{
					AccountID: anc.AccountID,
					Code:      anc.Code,
					Name:      anc.Name,
					NetAmount: amt.NetAmount,
				}
			}
		}
	}

	result := make([]domain.AccountAmount, 0, len(rolled))
	for _, row := range rolled {
		result = append(result, *row)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Code < result[j].Code })
	return result, total, nil
}

func sumNetAmounts(amounts []domain.AccountAmount) decimal.Decimal {
	total := decimal.Zero
	for _, amt := range amounts {
		total = total.Add(amt.NetAmount)
	}
	return total
}
