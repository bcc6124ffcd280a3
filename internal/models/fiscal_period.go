package models

import "time"

// PeriodStatus indicates the lifecycle state of a fiscal period.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "OPEN"
	PeriodClosed PeriodStatus = "CLOSED"
)

// FiscalPeriod represents a fiscal period row. Start and end dates are stored
// as dates; the range is inclusive on both ends.
type FiscalPeriod struct {
	PeriodID  string       `db:"period_id"`
	TenantID  string       `db:"tenant_id"`
	Name      string       `db:"name"`
	StartDate time.Time    `db:"start_date"`
	EndDate   time.Time    `db:"end_date"`
	Status    PeriodStatus `db:"status"`
	ClosedAt  *time.Time   `db:"closed_at"` // Nullable, set once at close
	ClosedBy  *string      `db:"closed_by"`
	AuditFields
}
