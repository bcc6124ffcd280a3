package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the state of a journal entry.
// Draft is the only mutable state; Posted and Void are terminal.
type EntryStatus string

const (
	Draft  EntryStatus = "DRAFT"
	Posted EntryStatus = "POSTED"
	Void   EntryStatus = "VOID"
)

// EntrySide indicates whether a journal line is a Debit or a Credit.
type EntrySide string

const (
	Debit  EntrySide = "DEBIT"
	Credit EntrySide = "CREDIT"
)

// JournalEntry represents a single, balanced financial event composed of
// multiple journal lines.
type JournalEntry struct {
	EntryID         string      `json:"entryID"` // Primary Key (UUID)
	TenantID        string      `json:"tenantID"`
	PeriodID        string      `json:"periodID"`        // FK -> fiscal_periods
	ReferenceNumber string      `json:"referenceNumber"` // Unique per tenant
	EntryDate       time.Time   `json:"entryDate"`
	Description     string      `json:"description"`
	Status          EntryStatus `json:"status"`
	PostedBy        *string     `json:"postedBy,omitempty"` // Set once, at posting
	PostedAt        *time.Time  `json:"postedAt,omitempty"`
	AuditFields

	// Lines are loaded separately; nil unless explicitly populated.
	Lines []JournalLine `json:"lines,omitempty"`
}

// JournalLine is a single line item within a journal entry, affecting one account.
type JournalLine struct {
	LineID      string          `json:"lineID"`  // Primary Key (UUID)
	EntryID     string          `json:"entryID"` // FK -> JournalEntry (Not Null)
	AccountID   string          `json:"accountID"`
	Side        EntrySide       `json:"side"`
	Amount      decimal.Decimal `json:"amount"` // Positive, max 8 decimal places
	Description string          `json:"description"`
	AuditFields
}

// PostedOrDraft reports whether the entry contributes to the balance invariant.
func (e JournalEntry) PostedOrDraft() bool {
	return e.Status == Draft || e.Status == Posted
}

// SumBySide returns the exact sums of the given lines per side. No rounding is
// introduced; callers compare the sums with decimal.Equal.
func SumBySide(lines []JournalLine) (debits, credits decimal.Decimal) {
	debits = decimal.Zero
	credits = decimal.Zero
	for _, line := range lines {
		if line.Side == Debit {
			debits = debits.Add(line.Amount)
		} else {
			credits = credits.Add(line.Amount)
		}
	}
	return debits, credits
}
