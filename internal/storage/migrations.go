package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a
// fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS subcategories (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					category_type TEXT NOT NULL,
					name TEXT NOT NULL,
					parent_id INTEGER REFERENCES subcategories(id),
					display_order INTEGER NOT NULL DEFAULT 0,
					is_default INTEGER NOT NULL DEFAULT 0,
					is_active INTEGER NOT NULL DEFAULT 1,
					UNIQUE(category_type, name)
				)`,

				`CREATE TABLE IF NOT EXISTS merchants (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL UNIQUE,
					normalized_name TEXT NOT NULL UNIQUE,
					default_subcategory_id INTEGER NOT NULL REFERENCES subcategories(id),
					confidence_weight REAL NOT NULL DEFAULT 0.9,
					last_updated DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,

				`CREATE TABLE IF NOT EXISTS merchant_aliases (
					alias TEXT PRIMARY KEY,
					merchant_id TEXT NOT NULL REFERENCES merchants(id) ON DELETE CASCADE
				)`,
				`CREATE INDEX idx_merchant_aliases_merchant ON merchant_aliases(merchant_id)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id TEXT PRIMARY KEY,
					hash TEXT UNIQUE NOT NULL,
					account_id TEXT NOT NULL,
					date DATETIME NOT NULL,
					amount INTEGER NOT NULL,
					description TEXT NOT NULL,
					main_category TEXT NOT NULL,
					subcategory_id INTEGER REFERENCES subcategories(id),
					confidence REAL,
					reason TEXT,
					merchant_id TEXT,
					confirmed_at DATETIME,
					created_at DATETIME DEFAULT CURRENT_TIMESTAMP
				)`,
				`CREATE INDEX idx_transactions_date ON transactions(date)`,
				`CREATE INDEX idx_transactions_account ON transactions(account_id, date)`,
				`CREATE INDEX idx_transactions_unclassified ON transactions(subcategory_id) WHERE subcategory_id IS NULL`,
			}
			for _, q := range queries {
				if _, err := tx.Exec(q); err != nil {
					return fmt.Errorf("migration 1: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Seed default subcategory taxonomy",
		Up: func(tx *sql.Tx) error {
			seed := []struct {
				categoryType string
				name         string
				isDefault    bool
			}{
				{"income", "給与", false},
				{"income", "賞与", false},
				{"income", "利息・配当", false},
				{"income", "その他収入", true},
				{"expense", "食費", false},
				{"expense", "日用品", false},
				{"expense", "交通費", false},
				{"expense", "水道光熱費", false},
				{"expense", "通信費", false},
				{"expense", "住居", false},
				{"expense", "医療・健康", false},
				{"expense", "趣味・娯楽", false},
				{"expense", "その他支出", true},
				{"transfer", "口座振替", true},
				{"repayment", "カード返済", true},
				{"repayment", "ローン返済", false},
				{"investment", "投資信託", true},
				{"investment", "株式", false},
			}
			for i, sub := range seed {
				isDefault := 0
				if sub.isDefault {
					isDefault = 1
				}
				_, err := tx.Exec(`
					INSERT OR IGNORE INTO subcategories (category_type, name, display_order, is_default, is_active)
					VALUES (?, ?, ?, ?, 1)
				`, sub.categoryType, sub.name, i, isDefault)
				if err != nil {
					return fmt.Errorf("migration 2: seed %s/%s: %w", sub.categoryType, sub.name, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Alerts table",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS alerts (
					id TEXT PRIMARY KEY,
					type TEXT NOT NULL,
					level TEXT NOT NULL,
					title TEXT NOT NULL,
					message TEXT NOT NULL,
					status TEXT NOT NULL DEFAULT 'UNREAD',
					details TEXT NOT NULL DEFAULT '{}',
					actions TEXT NOT NULL DEFAULT '[]',
					created_at DATETIME NOT NULL,
					read_at DATETIME,
					resolved_at DATETIME
				)`,
				`CREATE INDEX idx_alerts_status ON alerts(status, created_at)`,
			}
			for _, q := range queries {
				if _, err := tx.Exec(q); err != nil {
					return fmt.Errorf("migration 3: %w", err)
				}
			}
			return nil
		},
	},
}

// Migrate brings the schema up to ExpectedSchemaVersion.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_versions (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_versions table: %w", err)
	}

	var current int
	err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_versions`).Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if m.Version <= current {
			continue
		}
		slog.Info("Applying migration", "version", m.Version, "description", m.Description)

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}
		if err := m.Up(tx); err != nil {
			_ = tx.Rollback()
			return err
		}
		if _, err := tx.Exec(`INSERT INTO schema_versions (version) VALUES (?)`, m.Version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}
