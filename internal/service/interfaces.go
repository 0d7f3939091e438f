// Package service defines the collaborator interfaces the decision
// engines depend on and the persistence contracts the CLI consumes. The
// engines themselves never touch disk or network; they see only these
// read interfaces over snapshot data.
package service

import (
	"context"
	"time"

	"github.com/mizuiro-dev/zenibako/internal/model"
)

// MerchantDirectory is read-only lookup of the merchant reference data.
// Lookups take already-normalized text and return common.ErrNotFound
// (wrapped) when nothing matches.
type MerchantDirectory interface {
	Lookup(ctx context.Context, normalizedName string) (*model.Merchant, error)
	FindByAlias(ctx context.Context, normalizedAlias string) (*model.Merchant, error)
}

// SubcategoryDirectory is read-only access to the classification tree.
type SubcategoryDirectory interface {
	Subcategories(ctx context.Context, ct model.CategoryType) ([]model.Subcategory, error)
	SubcategoryByID(ctx context.Context, id int) (*model.Subcategory, error)
	SubcategoryByName(ctx context.Context, ct model.CategoryType, name string) (*model.Subcategory, error)
	DefaultSubcategory(ctx context.Context, ct model.CategoryType) (*model.Subcategory, error)
}

// TransactionHistory exposes the user's recent transactions for
// recurrence detection.
type TransactionHistory interface {
	RecentTransactions(ctx context.Context, accountID string, lookback time.Duration) ([]model.Transaction, error)
}

// BankTransactionSource exposes bank account movements for reconciliation.
type BankTransactionSource interface {
	TransactionsInWindow(ctx context.Context, accountID string, start, end time.Time) ([]model.Transaction, error)
}

// AlertFilter narrows alert queries.
type AlertFilter struct {
	Status   *model.AlertStatus
	MinLevel *model.AlertLevel
	CardID   string
	Limit    int
}

// AlertStore persists alerts and their lifecycle mutations on behalf of
// the generator, which itself performs no I/O.
type AlertStore interface {
	SaveAlert(ctx context.Context, alert *model.Alert) error
	GetAlert(ctx context.Context, id string) (*model.Alert, error)
	GetAlerts(ctx context.Context, filter AlertFilter) ([]model.Alert, error)
	UpdateAlertStatus(ctx context.Context, id string, status model.AlertStatus) error
}

// Storage is the full persistence contract the CLI drives. The decision
// engines depend only on the narrower read interfaces above.
type Storage interface {
	MerchantDirectory
	SubcategoryDirectory
	TransactionHistory
	BankTransactionSource
	AlertStore

	SaveTransactions(ctx context.Context, transactions []model.Transaction) error
	GetTransactionsToClassify(ctx context.Context, accountID string) ([]model.Transaction, error)
	GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error)
	ApplyClassification(ctx context.Context, transactionID string, result *model.ClassificationResult) error

	SaveMerchant(ctx context.Context, merchant *model.Merchant) error
	GetAllMerchants(ctx context.Context) ([]model.Merchant, error)

	CreateSubcategory(ctx context.Context, sub *model.Subcategory) (*model.Subcategory, error)

	Migrate(ctx context.Context) error
	Close() error
}
