package classify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizuiro-dev/zenibako/internal/model"
)

func TestMerchantMatcher_AliasFallback(t *testing.T) {
	ctx := context.Background()
	merchant := &model.Merchant{
		ID:                   "m-1",
		Name:                 "スターバックス コーヒー ジャパン",
		Aliases:              []string{"ｽﾀｰﾊﾞｯｸｽ"},
		DefaultSubcategoryID: 1,
		ConfidenceWeight:     0.9,
	}
	m := NewMerchantMatcher(newMockDirectory(merchant), testTaxonomy())

	// The statement text matches an alias, not the canonical name.
	result, err := m.Evaluate(ctx, Request{
		Normalized:   NormalizeDescription("ｽﾀｰﾊﾞｯｸｽ"),
		MainCategory: model.CategoryTypeExpense,
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "食費", result.Subcategory.Name)
	assert.InDelta(t, 0.9, result.Confidence, 0.001)
	require.NotNil(t, result.MerchantName)
	assert.Equal(t, merchant.Name, *result.MerchantName)
}

func TestMerchantMatcher_CategoryTypeMismatchSkips(t *testing.T) {
	ctx := context.Background()
	merchant := &model.Merchant{
		ID:                   "m-1",
		Name:                 "スターバックス",
		DefaultSubcategoryID: 1, // expense subcategory
		ConfidenceWeight:     0.9,
	}
	m := NewMerchantMatcher(newMockDirectory(merchant), testTaxonomy())

	result, err := m.Evaluate(ctx, Request{
		Normalized:   NormalizeDescription("スターバックス"),
		MainCategory: model.CategoryTypeIncome,
	})
	require.NoError(t, err)
	assert.Nil(t, result, "a merchant hit outside the declared category yields nothing")
}

func TestMerchantMatcher_DanglingSubcategorySkips(t *testing.T) {
	ctx := context.Background()
	merchant := &model.Merchant{
		ID:                   "m-1",
		Name:                 "スターバックス",
		DefaultSubcategoryID: 999,
		ConfidenceWeight:     0.9,
	}
	m := NewMerchantMatcher(newMockDirectory(merchant), testTaxonomy())

	result, err := m.Evaluate(ctx, Request{
		Normalized:   NormalizeDescription("スターバックス"),
		MainCategory: model.CategoryTypeExpense,
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestMerchantMatcher_UnknownMerchant(t *testing.T) {
	ctx := context.Background()
	m := NewMerchantMatcher(newMockDirectory(), testTaxonomy())

	result, err := m.Evaluate(ctx, Request{
		Normalized:   "どこかの店",
		MainCategory: model.CategoryTypeExpense,
	})
	require.NoError(t, err)
	assert.Nil(t, result)
}
