package model

import (
	"crypto/sha256"
	"fmt"
	"time"
)

// CategoryType is the fixed top-level transaction taxonomy.
type CategoryType string

const (
	// CategoryTypeIncome represents money coming into an account.
	CategoryTypeIncome CategoryType = "income"
	// CategoryTypeExpense represents money leaving an account.
	CategoryTypeExpense CategoryType = "expense"
	// CategoryTypeTransfer represents movement between the user's own accounts.
	CategoryTypeTransfer CategoryType = "transfer"
	// CategoryTypeRepayment represents credit card or loan repayments.
	CategoryTypeRepayment CategoryType = "repayment"
	// CategoryTypeInvestment represents purchases or sales of investment products.
	CategoryTypeInvestment CategoryType = "investment"
)

// Valid reports whether ct is one of the known category types.
func (ct CategoryType) Valid() bool {
	switch ct {
	case CategoryTypeIncome, CategoryTypeExpense, CategoryTypeTransfer,
		CategoryTypeRepayment, CategoryTypeInvestment:
		return true
	}
	return false
}

// Transaction represents a single financial event from any institution.
// Amounts are signed integer minor units (yen): positive is a credit into
// the account, negative is a debit out of it.
type Transaction struct {
	Date         time.Time    `json:"date"`
	ID           string       `json:"id"`
	AccountID    string       `json:"accountId"`
	Description  string       `json:"description"` // Raw statement text
	Hash         string       `json:"hash,omitempty"`
	MainCategory CategoryType `json:"mainCategory"`
	Amount       int64        `json:"amount"`

	// Set by classification or manual override, absent otherwise.
	SubcategoryID *int       `json:"subcategoryId,omitempty"`
	Confidence    *float64   `json:"confidence,omitempty"`
	Reason        *string    `json:"reason,omitempty"`
	MerchantID    *string    `json:"merchantId,omitempty"`
	ConfirmedAt   *time.Time `json:"confirmedAt,omitempty"`
}

// GenerateHash creates a stable hash for duplicate detection across imports.
func (t *Transaction) GenerateHash() string {
	data := fmt.Sprintf("%s:%d:%s:%s",
		t.Date.Format("2006-01-02"),
		t.Amount,
		t.Description,
		t.AccountID)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash)
}

// IsConfirmed reports whether the user has manually confirmed this
// transaction's classification. Confirmed transactions must never be
// re-classified automatically.
func (t *Transaction) IsConfirmed() bool {
	return t.ConfirmedAt != nil
}
