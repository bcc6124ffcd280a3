package services

// ServiceContainer holds all service facades for dependency injection into
// the transport layer.
type ServiceContainer struct {
	Account      AccountSvcFacade
	FiscalPeriod FiscalPeriodSvcFacade
	Journal      JournalSvcFacade
	Reporting    ReportingSvc
}
