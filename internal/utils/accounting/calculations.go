package accounting

import (
	"fmt"

	"github.com/finvolt/ledger_backend/internal/core/domain"
	"github.com/shopspring/decimal"
)

// MaxScale is the fixed number of fractional digits carried by all monetary
// amounts in the ledger. Arithmetic is exact at this scale; amounts with more
// fractional digits are rejected at the boundary rather than rounded.
const MaxScale = 8

// CheckScale verifies that an amount does not exceed the ledger's fixed scale.
func CheckScale(amount decimal.Decimal) error {
	if amount.Exponent() < -MaxScale {
		return fmt.Errorf("amount %s exceeds maximum scale of %d decimal places", amount.String(), MaxScale)
	}
	return nil
}

// CalculateSignedAmount applies the correct sign to an amount posted on the
// given side, relative to the account type's normal balance. The reporting
// service sums these to state closing balances per normal side.
// DEBIT to ASSET/EXPENSE -> Positive (+)
// CREDIT to ASSET/EXPENSE -> Negative (-)
// DEBIT to LIABILITY/EQUITY/REVENUE -> Negative (-)
// CREDIT to LIABILITY/EQUITY/REVENUE -> Positive (+)
func CalculateSignedAmount(amount decimal.Decimal, side domain.EntrySide, accountType domain.AccountType) (decimal.Decimal, error) {
	signedAmount := amount
	isDebit := side == domain.Debit

	switch accountType {
	case domain.Asset, domain.Expense:
		if !isDebit {
			signedAmount = signedAmount.Neg()
		}
	case domain.Liability, domain.Equity, domain.Revenue:
		if isDebit {
			signedAmount = signedAmount.Neg()
		}
	default:
		return decimal.Zero, fmt.Errorf("unknown account type '%s'", accountType)
	}
	return signedAmount, nil
}

// ValidateEntryBalance checks that the lines of a journal entry satisfy the
// double-entry invariant: every amount positive and within scale, and the
// debit sum exactly equal to the credit sum. Sums are computed left-to-right
// with no intermediate rounding; the comparison is exact, never epsilon-based.
func ValidateEntryBalance(lines []domain.JournalLine) error {
	if len(lines) < 2 {
		return fmt.Errorf("journal entry must have at least two lines")
	}

	debits := decimal.Zero
	credits := decimal.Zero

	for _, line := range lines {
		if line.Amount.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("line amount must be positive for account %s", line.AccountID)
		}
		if err := CheckScale(line.Amount); err != nil {
			return err
		}
		switch line.Side {
		case domain.Debit:
			debits = debits.Add(line.Amount)
		case domain.Credit:
			credits = credits.Add(line.Amount)
		default:
			return fmt.Errorf("unknown entry side '%s' for account %s", line.Side, line.AccountID)
		}
	}

	if !debits.Equal(credits) {
		return fmt.Errorf("debits sum is %s and credits sum is %s", debits.String(), credits.String())
	}
	return nil
}
