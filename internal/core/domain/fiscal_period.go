package domain

import "time"

// PeriodStatus indicates the lifecycle state of a fiscal period.
type PeriodStatus string

const (
	PeriodOpen   PeriodStatus = "OPEN"
	PeriodClosed PeriodStatus = "CLOSED"
)

// FiscalPeriod is a bounded date range gating which entry dates may receive
// new postings. Created Open; the transition to Closed is terminal.
type FiscalPeriod struct {
	PeriodID  string       `json:"periodID"` // Primary Key (UUID)
	TenantID  string       `json:"tenantID"`
	Name      string       `json:"name"`
	StartDate time.Time    `json:"startDate"`
	EndDate   time.Time    `json:"endDate"` // Must be after StartDate
	Status    PeriodStatus `json:"status"`
	ClosedAt  *time.Time   `json:"closedAt,omitempty"` // Set once, at close
	ClosedBy  *string      `json:"closedBy,omitempty"`
	AuditFields
}

// Covers reports whether the given date falls inside the period's range
// (inclusive on both ends).
func (p FiscalPeriod) Covers(date time.Time) bool {
	return !date.Before(p.StartDate) && !date.After(p.EndDate)
}
