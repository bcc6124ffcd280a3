package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "ASSET"
	Liability AccountType = "LIABILITY"
	Equity    AccountType = "EQUITY"
	Revenue   AccountType = "REVENUE"
	Expense   AccountType = "EXPENSE"
)

// IsValid reports whether the account type is one of the five known types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// NormalBalance returns the side on which an account of this type naturally
// increases: Debit for Asset/Expense, Credit for Liability/Equity/Revenue.
func (t AccountType) NormalBalance() EntrySide {
	switch t {
	case Asset, Expense:
		return Debit
	default:
		return Credit
	}
}

// Account represents a ledger account within the chart of accounts.
// This is the primary representation used by services.
type Account struct {
	AccountID       string      `json:"accountID"` // Primary Key (UUID)
	TenantID        string      `json:"tenantID"`  // FK -> tenants (NON-NULL)
	Code            string      `json:"code"`      // Unique per tenant
	Name            string      `json:"name"`
	AccountType     AccountType `json:"accountType"`
	ParentAccountID string      `json:"parentAccountID"` // Nullable self-reference
	Description     string      `json:"description"`
	IsSystem        bool        `json:"isSystem"` // System accounts reject update/delete
	IsActive        bool        `json:"isActive"`
	AuditFields
}
