package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mizuiro-dev/zenibako/internal/common"
	"github.com/mizuiro-dev/zenibako/internal/model"
)

const subcategoryColumns = `id, category_type, name, parent_id, display_order, is_default, is_active`

func scanSubcategory(row interface{ Scan(...any) error }) (*model.Subcategory, error) {
	var sub model.Subcategory
	var parentID sql.NullInt64
	err := row.Scan(&sub.ID, &sub.CategoryType, &sub.Name, &parentID,
		&sub.DisplayOrder, &sub.IsDefault, &sub.IsActive)
	if err != nil {
		return nil, err
	}
	if parentID.Valid {
		p := int(parentID.Int64)
		sub.ParentID = &p
	}
	return &sub, nil
}

// Subcategories lists the active tree for one category type in display
// order.
func (s *SQLiteStorage) Subcategories(ctx context.Context, ct model.CategoryType) ([]model.Subcategory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+subcategoryColumns+`
		FROM subcategories
		WHERE category_type = ? AND is_active = 1
		ORDER BY display_order, id
	`, string(ct))
	if err != nil {
		return nil, fmt.Errorf("failed to list subcategories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var subs []model.Subcategory
	for rows.Next() {
		sub, err := scanSubcategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subcategory: %w", err)
		}
		subs = append(subs, *sub)
	}
	return subs, rows.Err()
}

// SubcategoryByID fetches one subcategory.
func (s *SQLiteStorage) SubcategoryByID(ctx context.Context, id int) (*model.Subcategory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	sub, err := scanSubcategory(s.db.QueryRowContext(ctx, `
		SELECT `+subcategoryColumns+` FROM subcategories WHERE id = ?
	`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subcategory %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subcategory: %w", err)
	}
	return sub, nil
}

// SubcategoryByName fetches one subcategory by type and name.
func (s *SQLiteStorage) SubcategoryByName(ctx context.Context, ct model.CategoryType, name string) (*model.Subcategory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	sub, err := scanSubcategory(s.db.QueryRowContext(ctx, `
		SELECT `+subcategoryColumns+` FROM subcategories
		WHERE category_type = ? AND name = ?
	`, string(ct), name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("subcategory %s/%s: %w", ct, name, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subcategory: %w", err)
	}
	return sub, nil
}

// DefaultSubcategory returns the configured fallback for a category type.
func (s *SQLiteStorage) DefaultSubcategory(ctx context.Context, ct model.CategoryType) (*model.Subcategory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	sub, err := scanSubcategory(s.db.QueryRowContext(ctx, `
		SELECT `+subcategoryColumns+` FROM subcategories
		WHERE category_type = ? AND is_default = 1 AND is_active = 1
		ORDER BY id LIMIT 1
	`, string(ct)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("default subcategory for %s: %w", ct, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get default subcategory: %w", err)
	}
	return sub, nil
}

// CreateSubcategory inserts a new tree node after checking the
// parent/type invariant.
func (s *SQLiteStorage) CreateSubcategory(ctx context.Context, sub *model.Subcategory) (*model.Subcategory, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("subcategory must not be nil")
	}
	if err := validateString(sub.Name, "subcategory name"); err != nil {
		return nil, err
	}
	if !sub.CategoryType.Valid() {
		return nil, fmt.Errorf("unknown category type %q", sub.CategoryType)
	}

	if sub.ParentID != nil {
		parent, err := s.SubcategoryByID(ctx, *sub.ParentID)
		if err != nil {
			return nil, err
		}
		if err := sub.ValidateParent(parent); err != nil {
			return nil, err
		}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO subcategories (category_type, name, parent_id, display_order, is_default, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
	`, string(sub.CategoryType), sub.Name, sub.ParentID, sub.DisplayOrder, sub.IsDefault, sub.IsActive)
	if err != nil {
		return nil, fmt.Errorf("failed to create subcategory: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read new subcategory id: %w", err)
	}
	created := *sub
	created.ID = int(id)
	return &created, nil
}
