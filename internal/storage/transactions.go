package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mizuiro-dev/zenibako/internal/common"
	"github.com/mizuiro-dev/zenibako/internal/model"
)

const transactionColumns = `id, hash, account_id, date, amount, description, main_category,
	subcategory_id, confidence, reason, merchant_id, confirmed_at`

func scanTransaction(row interface{ Scan(...any) error }) (*model.Transaction, error) {
	var txn model.Transaction
	var subID sql.NullInt64
	var confidence sql.NullFloat64
	var reason, merchantID sql.NullString
	var confirmedAt sql.NullTime

	err := row.Scan(&txn.ID, &txn.Hash, &txn.AccountID, &txn.Date, &txn.Amount,
		&txn.Description, &txn.MainCategory, &subID, &confidence, &reason,
		&merchantID, &confirmedAt)
	if err != nil {
		return nil, err
	}

	if subID.Valid {
		v := int(subID.Int64)
		txn.SubcategoryID = &v
	}
	if confidence.Valid {
		txn.Confidence = &confidence.Float64
	}
	if reason.Valid {
		txn.Reason = &reason.String
	}
	if merchantID.Valid {
		txn.MerchantID = &merchantID.String
	}
	if confirmedAt.Valid {
		txn.ConfirmedAt = &confirmedAt.Time
	}
	return &txn, nil
}

// SaveTransactions upserts imported transactions, keyed by hash so
// re-importing the same statement is a no-op.
func (s *SQLiteStorage) SaveTransactions(ctx context.Context, transactions []model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	inserted := 0
	for i := range transactions {
		txn := &transactions[i]
		if txn.Hash == "" {
			txn.Hash = txn.GenerateHash()
		}
		if txn.ID == "" {
			txn.ID = txn.Hash[:16]
		}

		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO transactions
				(id, hash, account_id, date, amount, description, main_category)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, txn.ID, txn.Hash, txn.AccountID, txn.Date, txn.Amount, txn.Description, string(txn.MainCategory))
		if err != nil {
			return fmt.Errorf("failed to save transaction %s: %w", txn.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transactions: %w", err)
	}
	slog.Info("Saved transactions", "total", len(transactions), "new", inserted)
	return nil
}

// GetTransactionsToClassify returns unclassified, unconfirmed
// transactions, oldest first. Empty accountID means all accounts.
func (s *SQLiteStorage) GetTransactionsToClassify(ctx context.Context, accountID string) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE subcategory_id IS NULL AND confirmed_at IS NULL`
	args := []any{}
	if accountID != "" {
		query += ` AND account_id = ?`
		args = append(args, accountID)
	}
	query += ` ORDER BY date, id`

	return s.queryTransactions(ctx, query, args...)
}

// GetTransactionByID fetches one transaction.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	txn, err := scanTransaction(s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// RecentTransactions returns the account's transactions inside the
// lookback window, newest first. Consumed by recurrence detection.
func (s *SQLiteStorage) RecentTransactions(ctx context.Context, accountID string, lookback time.Duration) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return nil, err
	}

	since := time.Now().Add(-lookback)
	return s.queryTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE account_id = ? AND date >= ?
		ORDER BY date DESC, id
	`, accountID, since)
}

// TransactionsInWindow returns the account's transactions between start
// and end inclusive. Consumed by reconciliation.
func (s *SQLiteStorage) TransactionsInWindow(ctx context.Context, accountID string, start, end time.Time) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(accountID, "accountID"); err != nil {
		return nil, err
	}

	return s.queryTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE account_id = ? AND date >= ? AND date <= ?
		ORDER BY date, id
	`, accountID, start, end)
}

// ApplyClassification writes a classification result onto a transaction.
// A user-confirmed transaction is never overwritten; applying to one is a
// logged no-op.
func (s *SQLiteStorage) ApplyClassification(ctx context.Context, transactionID string, result *model.ClassificationResult) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(transactionID, "transactionID"); err != nil {
		return err
	}
	if result == nil {
		return fmt.Errorf("classification result must not be nil")
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET subcategory_id = ?, confidence = ?, reason = ?, merchant_id = ?
		WHERE id = ? AND confirmed_at IS NULL
	`, result.Subcategory.ID, result.Confidence, string(result.Reason), result.MerchantID, transactionID)
	if err != nil {
		return fmt.Errorf("failed to apply classification: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		if _, err := s.GetTransactionByID(ctx, transactionID); err != nil {
			return err
		}
		slog.Debug("Skipping classification of confirmed transaction", "transaction_id", transactionID)
	}
	return nil
}

func (s *SQLiteStorage) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var txns []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, *txn)
	}
	return txns, rows.Err()
}
