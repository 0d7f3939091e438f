package classify

import (
	"context"
	"fmt"
	"time"

	"github.com/mizuiro-dev/zenibako/internal/common"
	"github.com/mizuiro-dev/zenibako/internal/model"
)

// mockDirectory is an in-memory merchant directory keyed by normalized
// name and alias.
type mockDirectory struct {
	byName  map[string]*model.Merchant
	byAlias map[string]*model.Merchant
}

func newMockDirectory(merchants ...*model.Merchant) *mockDirectory {
	d := &mockDirectory{
		byName:  make(map[string]*model.Merchant),
		byAlias: make(map[string]*model.Merchant),
	}
	for _, m := range merchants {
		d.byName[NormalizeDescription(m.Name)] = m
		for _, alias := range m.Aliases {
			d.byAlias[NormalizeDescription(alias)] = m
		}
	}
	return d
}

func (d *mockDirectory) Lookup(_ context.Context, normalizedName string) (*model.Merchant, error) {
	if m, ok := d.byName[normalizedName]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("merchant: %w", common.ErrNotFound)
}

func (d *mockDirectory) FindByAlias(_ context.Context, normalizedAlias string) (*model.Merchant, error) {
	if m, ok := d.byAlias[normalizedAlias]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("merchant: %w", common.ErrNotFound)
}

// mockSubcategories is an in-memory taxonomy.
type mockSubcategories struct {
	subs []model.Subcategory
}

func (m *mockSubcategories) Subcategories(_ context.Context, ct model.CategoryType) ([]model.Subcategory, error) {
	var out []model.Subcategory
	for _, s := range m.subs {
		if s.CategoryType == ct && s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockSubcategories) SubcategoryByID(_ context.Context, id int) (*model.Subcategory, error) {
	for _, s := range m.subs {
		if s.ID == id {
			sub := s
			return &sub, nil
		}
	}
	return nil, fmt.Errorf("subcategory %d: %w", id, common.ErrNotFound)
}

func (m *mockSubcategories) SubcategoryByName(_ context.Context, ct model.CategoryType, name string) (*model.Subcategory, error) {
	for _, s := range m.subs {
		if s.CategoryType == ct && s.Name == name {
			sub := s
			return &sub, nil
		}
	}
	return nil, fmt.Errorf("subcategory %s/%s: %w", ct, name, common.ErrNotFound)
}

func (m *mockSubcategories) DefaultSubcategory(_ context.Context, ct model.CategoryType) (*model.Subcategory, error) {
	for _, s := range m.subs {
		if s.CategoryType == ct && s.IsDefault && s.IsActive {
			sub := s
			return &sub, nil
		}
	}
	return nil, fmt.Errorf("default subcategory for %s: %w", ct, common.ErrNotFound)
}

// mockHistory serves a fixed transaction slice regardless of lookback.
type mockHistory struct {
	txns []model.Transaction
}

func (m *mockHistory) RecentTransactions(_ context.Context, accountID string, _ time.Duration) ([]model.Transaction, error) {
	var out []model.Transaction
	for _, t := range m.txns {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

// Shared test taxonomy.
var testSubcategories = []model.Subcategory{
	{ID: 1, CategoryType: model.CategoryTypeExpense, Name: "食費", IsActive: true},
	{ID: 2, CategoryType: model.CategoryTypeExpense, Name: "趣味・娯楽", IsActive: true},
	{ID: 3, CategoryType: model.CategoryTypeExpense, Name: "住居", IsActive: true},
	{ID: 4, CategoryType: model.CategoryTypeExpense, Name: "その他支出", IsDefault: true, IsActive: true},
	{ID: 5, CategoryType: model.CategoryTypeIncome, Name: "給与", IsActive: true},
	{ID: 6, CategoryType: model.CategoryTypeIncome, Name: "利息・配当", IsActive: true},
	{ID: 7, CategoryType: model.CategoryTypeIncome, Name: "その他収入", IsDefault: true, IsActive: true},
	{ID: 8, CategoryType: model.CategoryTypeInvestment, Name: "投資信託", IsDefault: true, IsActive: true},
	{ID: 9, CategoryType: model.CategoryTypeRepayment, Name: "カード返済", IsDefault: true, IsActive: true},
	{ID: 10, CategoryType: model.CategoryTypeTransfer, Name: "口座振替", IsDefault: true, IsActive: true},
}

func testTaxonomy() *mockSubcategories {
	return &mockSubcategories{subs: testSubcategories}
}

func mustSubcategory(name string) model.Subcategory {
	for _, s := range testSubcategories {
		if s.Name == name {
			return s
		}
	}
	panic("unknown test subcategory " + name)
}
