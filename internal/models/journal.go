package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the state of a journal entry.
type EntryStatus string

const (
	Draft  EntryStatus = "DRAFT"
	Posted EntryStatus = "POSTED"
	Void   EntryStatus = "VOID"
)

// EntrySide indicates whether a journal line debits or credits its account.
type EntrySide string

const (
	Debit  EntrySide = "DEBIT"
	Credit EntrySide = "CREDIT"
)

// JournalEntry represents a journal entry header row.
type JournalEntry struct {
	EntryID         string      `db:"entry_id"`
	TenantID        string      `db:"tenant_id"`
	PeriodID        string      `db:"period_id"`
	ReferenceNumber string      `db:"reference_number"`
	EntryDate       time.Time   `db:"entry_date"`
	Description     string      `db:"description"`
	Status          EntryStatus `db:"status"`
	PostedBy        *string     `db:"posted_by"` // Nullable, set once at posting
	PostedAt        *time.Time  `db:"posted_at"`
	AuditFields
}

// JournalLine represents a single line row within a journal entry.
type JournalLine struct {
	LineID      string          `db:"line_id"`
	EntryID     string          `db:"entry_id"`
	AccountID   string          `db:"account_id"`
	Side        EntrySide       `db:"side"`
	Amount      decimal.Decimal `db:"amount"` // NUMERIC, positive
	Description string          `db:"description"`
	AuditFields
}
