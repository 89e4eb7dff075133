package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is derived from the sign of a statement amount.
type TransactionType string

const (
	TypeIncome  TransactionType = "INCOME"
	TypeExpense TransactionType = "EXPENSE"
)

// TypeFromAmount maps a signed statement amount to a transaction type.
// Zero is treated as an expense of zero; some banks emit zero-value
// adjustment rows and rejecting them helps nobody.
func TypeFromAmount(amount decimal.Decimal) TransactionType {
	if amount.IsPositive() {
		return TypeIncome
	}
	return TypeExpense
}

// StatementEntry is one normalized line decoded from a statement file,
// prior to any persistence. Amount keeps the sign from the source file:
// positive is income, negative is expense.
type StatementEntry struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	// ExternalID is the bank's own reference for the movement (OFX FITID).
	// Empty for formats that carry no reference, such as plain CSV.
	ExternalID string
	// Line is the 1-based position in the source file, kept for issue
	// reporting.
	Line int
}

// Allocation attributes a share of a transaction to a responsible party.
type Allocation struct {
	ResponsibleID string          `json:"responsible_id"`
	Percentage    decimal.Decimal `json:"percentage"`
}

// Transaction is what the importer hands to the persistence gateway.
// Amount holds the absolute magnitude; the sign lives in Type.
type Transaction struct {
	UserID      string
	Description string
	Amount      decimal.Decimal
	Date        time.Time
	Type        TransactionType
	Subtype     string
	SourceID    string
	CategoryID  string
	// Fingerprint is the duplicate key the row is indexed under, so later
	// imports can detect this transaction again.
	Fingerprint string
	Allocations []Allocation
}
