package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finvolt/ledger_backend/internal/core/domain"
	portsrepo "github.com/finvolt/ledger_backend/internal/core/ports/repositories"
)

type PgxReportingRepository struct {
	BaseRepository
}

// newPgxReportingRepository creates a new repository for report aggregation.
func newPgxReportingRepository(pool *pgxpool.Pool) portsrepo.ReportingRepository {
	return &PgxReportingRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxReportingRepository implements portsrepo.ReportingRepository
var _ portsrepo.ReportingRepository = (*PgxReportingRepository)(nil)

// GetTrialBalanceData aggregates per-account debit and credit totals over
// POSTED entries in the given period.
func (r *PgxReportingRepository) GetTrialBalanceData(ctx context.Context, tenantID string, periodID string) ([]domain.TrialBalanceRow, error) {
	query := `
		SELECT
			a.account_id,
			a.code,
			a.name,
			a.account_type,
			COALESCE(SUM(jl.amount) FILTER (WHERE jl.side = 'DEBIT'), 0) AS debit_total,
			COALESCE(SUM(jl.amount) FILTER (WHERE jl.side = 'CREDIT'), 0) AS credit_total
		FROM journal_lines jl
		JOIN journal_entries je ON je.entry_id = jl.entry_id
		JOIN accounts a ON a.account_id = jl.account_id
		WHERE je.tenant_id = $1 AND je.period_id = $2 AND je.status = 'POSTED'
		GROUP BY a.account_id, a.code, a.name, a.account_type
		ORDER BY a.code;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID, periodID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trial balance data for period %s: %w", periodID, err)
	}
	defer rows.Close()

	result := []domain.TrialBalanceRow{}
	for rows.Next() {
		var row domain.TrialBalanceRow
		if err := rows.Scan(
			&row.AccountID,
			&row.AccountCode,
			&row.AccountName,
			&row.AccountType,
			&row.DebitTotal,
			&row.CreditTotal,
		); err != nil {
			return nil, fmt.Errorf("failed to scan trial balance row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating trial balance rows: %w", err)
	}
	return result, nil
}

// netAmountsQuery aggregates signed net amounts per account over POSTED
// entries. The sign convention follows the account's normal balance side, so
// net amounts are positive for ordinary activity.
const netAmountsQuery = `
	SELECT
		a.account_id,
		a.code,
		a.name,
		COALESCE(SUM(
			CASE WHEN jl.side = $3 THEN jl.amount ELSE -jl.amount END
		), 0) AS net_amount
	FROM journal_lines jl
	JOIN journal_entries je ON je.entry_id = jl.entry_id
	JOIN accounts a ON a.account_id = jl.account_id
	WHERE je.tenant_id = $1 AND a.account_type = $2 AND je.status = 'POSTED'
`

func (r *PgxReportingRepository) netAmountsForType(ctx context.Context, tenantID string, accountType domain.AccountType, periodPredicate string, periodArg string) ([]domain.AccountAmount, error) {
	normalSide := string(accountType.NormalBalance())

	query := netAmountsQuery + periodPredicate + `
		GROUP BY a.account_id, a.code, a.name
		ORDER BY a.code;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID, string(accountType), normalSide, periodArg)
	if err != nil {
		return nil, fmt.Errorf("failed to query net amounts for %s accounts: %w", accountType, err)
	}
	defer rows.Close()

	return collectAccountAmounts(rows, accountType)
}

func collectAccountAmounts(rows pgx.Rows, accountType domain.AccountType) ([]domain.AccountAmount, error) {
	result := []domain.AccountAmount{}
	for rows.Next() {
		var amt domain.AccountAmount
		if err := rows.Scan(&amt.AccountID, &amt.Code, &amt.Name, &amt.NetAmount); err != nil {
			return nil, fmt.Errorf("failed to scan net amount row for %s accounts: %w", accountType, err)
		}
		result = append(result, amt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating net amount rows for %s accounts: %w", accountType, err)
	}
	return result, nil
}

// GetProfitAndLossData retrieves per-account net amounts for revenue and
// expense accounts with activity in the given period.
func (r *PgxReportingRepository) GetProfitAndLossData(ctx context.Context, tenantID string, periodID string) ([]domain.AccountAmount, []domain.AccountAmount, error) {
	const inPeriod = ` AND je.period_id = $4`

	revenue, err := r.netAmountsForType(ctx, tenantID, domain.Revenue, inPeriod, periodID)
	if err != nil {
		return nil, nil, err
	}
	expenses, err := r.netAmountsForType(ctx, tenantID, domain.Expense, inPeriod, periodID)
	if err != nil {
		return nil, nil, err
	}
	return revenue, expenses, nil
}

// GetBalanceSheetData retrieves per-account net amounts for asset, liability
// and equity accounts with posted activity in the given period. Together with
// the period's net income the amounts satisfy the accounting equation.
func (r *PgxReportingRepository) GetBalanceSheetData(ctx context.Context, tenantID string, periodID string) ([]domain.AccountAmount, []domain.AccountAmount, []domain.AccountAmount, error) {
	const inPeriod = ` AND je.period_id = $4`

	assets, err := r.netAmountsForType(ctx, tenantID, domain.Asset, inPeriod, periodID)
	if err != nil {
		return nil, nil, nil, err
	}
	liabilities, err := r.netAmountsForType(ctx, tenantID, domain.Liability, inPeriod, periodID)
	if err != nil {
		return nil, nil, nil, err
	}
	equity, err := r.netAmountsForType(ctx, tenantID, domain.Equity, inPeriod, periodID)
	if err != nil {
		return nil, nil, nil, err
	}
	return assets, liabilities, equity, nil
}
