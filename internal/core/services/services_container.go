package services

import (
	portsrepo "github.com/finvolt/ledger_backend/internal/core/ports/repositories"
	portssvc "github.com/finvolt/ledger_backend/internal/core/ports/services"
)

// NewServiceContainer wires all services over the repository provider.
func NewServiceContainer(repos *portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	accountSvc := NewAccountService(repos.AccountRepo)
	periodSvc := NewFiscalPeriodService(repos.FiscalPeriodRepo)
	journalSvc := NewJournalService(repos.JournalRepo, accountSvc, periodSvc)
	reportingSvc := NewReportingService(repos.ReportingRepo, periodSvc, accountSvc)

	return &portssvc.ServiceContainer{
		Account:      accountSvc,
		FiscalPeriod: periodSvc,
		Journal:      journalSvc,
		Reporting:    reportingSvc,
	}
}
