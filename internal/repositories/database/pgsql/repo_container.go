package pgsql

import (
	portsrepo "github.com/finvolt/ledger_backend/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) *portsrepo.RepositoryProvider {
	accountRepo := newPgxAccountRepository(dbPool)
	fiscalPeriodRepo := newPgxFiscalPeriodRepository(dbPool)
	journalRepo := newPgxJournalRepository(dbPool)
	reportingRepo := newPgxReportingRepository(dbPool)

	return &portsrepo.RepositoryProvider{
		AccountRepo:      accountRepo,
		FiscalPeriodRepo: fiscalPeriodRepo,
		JournalRepo:      journalRepo,
		ReportingRepo:    reportingRepo,
	}
}
