package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mizuiro-dev/zenibako/internal/classify"
	"github.com/mizuiro-dev/zenibako/internal/common"
	"github.com/mizuiro-dev/zenibako/internal/model"
)

// Lookup retrieves a merchant by its normalized canonical name.
func (s *SQLiteStorage) Lookup(ctx context.Context, normalizedName string) (*model.Merchant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(normalizedName, "normalizedName"); err != nil {
		return nil, err
	}

	if m := s.getCachedMerchant("name:" + normalizedName); m != nil {
		return m, nil
	}

	merchant, err := s.scanMerchant(ctx, `
		SELECT id, name, default_subcategory_id, confidence_weight
		FROM merchants
		WHERE normalized_name = ?
	`, normalizedName)
	if err != nil {
		return nil, err
	}

	s.cacheMerchant("name:"+normalizedName, merchant)
	return merchant, nil
}

// FindByAlias retrieves a merchant via one of its normalized aliases.
// Aliases are unique across all merchants, enforced by the primary key.
func (s *SQLiteStorage) FindByAlias(ctx context.Context, normalizedAlias string) (*model.Merchant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(normalizedAlias, "normalizedAlias"); err != nil {
		return nil, err
	}

	if m := s.getCachedMerchant("alias:" + normalizedAlias); m != nil {
		return m, nil
	}

	merchant, err := s.scanMerchant(ctx, `
		SELECT m.id, m.name, m.default_subcategory_id, m.confidence_weight
		FROM merchants m
		JOIN merchant_aliases a ON a.merchant_id = m.id
		WHERE a.alias = ?
	`, normalizedAlias)
	if err != nil {
		return nil, err
	}

	s.cacheMerchant("alias:"+normalizedAlias, merchant)
	return merchant, nil
}

func (s *SQLiteStorage) scanMerchant(ctx context.Context, query, arg string) (*model.Merchant, error) {
	var merchant model.Merchant
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&merchant.ID,
		&merchant.Name,
		&merchant.DefaultSubcategoryID,
		&merchant.ConfidenceWeight,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("merchant: %w", common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get merchant: %w", err)
	}

	if merchant.Aliases, err = s.loadAliases(ctx, s.db, merchant.ID); err != nil {
		return nil, err
	}
	return &merchant, nil
}

func (s *SQLiteStorage) loadAliases(ctx context.Context, q queryable, merchantID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `SELECT alias FROM merchant_aliases WHERE merchant_id = ? ORDER BY alias`, merchantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load aliases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var aliases []string
	for rows.Next() {
		var alias string
		if err := rows.Scan(&alias); err != nil {
			return nil, fmt.Errorf("failed to scan alias: %w", err)
		}
		aliases = append(aliases, alias)
	}
	return aliases, rows.Err()
}

// SaveMerchant inserts or updates a directory entry and replaces its
// alias set. Alias collisions with another merchant surface as
// ErrDuplicateEntry.
func (s *SQLiteStorage) SaveMerchant(ctx context.Context, merchant *model.Merchant) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateMerchant(merchant); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	normalized := classify.NormalizeDescription(merchant.Name)
	_, err = tx.ExecContext(ctx, `
		INSERT INTO merchants (id, name, normalized_name, default_subcategory_id, confidence_weight)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			normalized_name = excluded.normalized_name,
			default_subcategory_id = excluded.default_subcategory_id,
			confidence_weight = excluded.confidence_weight,
			last_updated = CURRENT_TIMESTAMP
	`, merchant.ID, merchant.Name, normalized, merchant.DefaultSubcategoryID, merchant.ConfidenceWeight)
	if err != nil {
		return fmt.Errorf("failed to save merchant: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM merchant_aliases WHERE merchant_id = ?`, merchant.ID); err != nil {
		return fmt.Errorf("failed to clear aliases: %w", err)
	}
	for _, alias := range merchant.Aliases {
		normalizedAlias := classify.NormalizeDescription(alias)
		if normalizedAlias == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO merchant_aliases (alias, merchant_id) VALUES (?, ?)
		`, normalizedAlias, merchant.ID); err != nil {
			if strings.Contains(err.Error(), "UNIQUE constraint") {
				return fmt.Errorf("alias %q already belongs to another merchant: %w", alias, common.ErrDuplicateEntry)
			}
			return fmt.Errorf("failed to save alias: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit merchant: %w", err)
	}
	s.invalidateMerchantCache()
	return nil
}

// GetAllMerchants lists the directory ordered by name.
func (s *SQLiteStorage) GetAllMerchants(ctx context.Context) ([]model.Merchant, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, default_subcategory_id, confidence_weight
		FROM merchants ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list merchants: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var merchants []model.Merchant
	for rows.Next() {
		var m model.Merchant
		if err := rows.Scan(&m.ID, &m.Name, &m.DefaultSubcategoryID, &m.ConfidenceWeight); err != nil {
			return nil, fmt.Errorf("failed to scan merchant: %w", err)
		}
		if m.Aliases, err = s.loadAliases(ctx, s.db, m.ID); err != nil {
			return nil, err
		}
		merchants = append(merchants, m)
	}
	return merchants, rows.Err()
}
