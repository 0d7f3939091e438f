package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizuiro-dev/zenibako/internal/common"
	"github.com/mizuiro-dev/zenibako/internal/model"
	"github.com/mizuiro-dev/zenibako/internal/service"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	s, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestMigrate_Idempotent(t *testing.T) {
	s := newTestStorage(t)
	// A second run must find nothing to do.
	require.NoError(t, s.Migrate(context.Background()))

	var version int
	err := s.db.QueryRow(`SELECT MAX(version) FROM schema_versions`).Scan(&version)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestSeededTaxonomy(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	// Every category type gets exactly one default fallback.
	for _, ct := range []model.CategoryType{
		model.CategoryTypeIncome, model.CategoryTypeExpense, model.CategoryTypeTransfer,
		model.CategoryTypeRepayment, model.CategoryTypeInvestment,
	} {
		def, err := s.DefaultSubcategory(ctx, ct)
		require.NoError(t, err, "category %s", ct)
		assert.True(t, def.IsDefault)
		assert.Equal(t, ct, def.CategoryType)
	}

	expense, err := s.Subcategories(ctx, model.CategoryTypeExpense)
	require.NoError(t, err)
	assert.NotEmpty(t, expense)

	food, err := s.SubcategoryByName(ctx, model.CategoryTypeExpense, "食費")
	require.NoError(t, err)
	assert.Equal(t, "食費", food.Name)

	_, err = s.SubcategoryByName(ctx, model.CategoryTypeExpense, "存在しない")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateSubcategory_ParentInvariant(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	food, err := s.SubcategoryByName(ctx, model.CategoryTypeExpense, "食費")
	require.NoError(t, err)

	child, err := s.CreateSubcategory(ctx, &model.Subcategory{
		CategoryType: model.CategoryTypeExpense,
		Name:         "外食",
		ParentID:     &food.ID,
		IsActive:     true,
	})
	require.NoError(t, err)
	assert.NotZero(t, child.ID)

	// Wrong category type under an expense parent is rejected.
	_, err = s.CreateSubcategory(ctx, &model.Subcategory{
		CategoryType: model.CategoryTypeIncome,
		Name:         "不正な子",
		ParentID:     &food.ID,
		IsActive:     true,
	})
	assert.Error(t, err)

	// Nesting under the new child would exceed two levels.
	_, err = s.CreateSubcategory(ctx, &model.Subcategory{
		CategoryType: model.CategoryTypeExpense,
		Name:         "三階層",
		ParentID:     &child.ID,
		IsActive:     true,
	})
	assert.Error(t, err)
}

func TestMerchantDirectory(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	food, err := s.SubcategoryByName(ctx, model.CategoryTypeExpense, "食費")
	require.NoError(t, err)

	merchant := &model.Merchant{
		ID:                   "m-starbucks",
		Name:                 "スターバックス コーヒー",
		Aliases:              []string{"ｽﾀｰﾊﾞｯｸｽ", "STARBUCKS"},
		DefaultSubcategoryID: food.ID,
		ConfidenceWeight:     0.95,
	}
	require.NoError(t, s.SaveMerchant(ctx, merchant))

	// Lookup uses the normalized canonical name.
	got, err := s.Lookup(ctx, "スターバックス コーヒー")
	require.NoError(t, err)
	assert.Equal(t, "m-starbucks", got.ID)
	assert.InDelta(t, 0.95, got.ConfidenceWeight, 0.001)
	assert.Len(t, got.Aliases, 2)

	// Aliases are stored normalized: half-width katakana folds.
	byAlias, err := s.FindByAlias(ctx, "スターバックス")
	require.NoError(t, err)
	assert.Equal(t, "m-starbucks", byAlias.ID)

	byAlias, err = s.FindByAlias(ctx, "starbucks")
	require.NoError(t, err)
	assert.Equal(t, "m-starbucks", byAlias.ID)

	_, err = s.Lookup(ctx, "存在しない店")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSaveMerchant_AliasCollision(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	food, err := s.SubcategoryByName(ctx, model.CategoryTypeExpense, "食費")
	require.NoError(t, err)

	require.NoError(t, s.SaveMerchant(ctx, &model.Merchant{
		ID: "m-1", Name: "店A", Aliases: []string{"共通エイリアス"},
		DefaultSubcategoryID: food.ID, ConfidenceWeight: 0.9,
	}))

	err = s.SaveMerchant(ctx, &model.Merchant{
		ID: "m-2", Name: "店B", Aliases: []string{"共通エイリアス"},
		DefaultSubcategoryID: food.ID, ConfidenceWeight: 0.9,
	})
	assert.ErrorIs(t, err, common.ErrDuplicateEntry)
}

func TestSaveMerchant_UpdateInvalidatesCache(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	food, err := s.SubcategoryByName(ctx, model.CategoryTypeExpense, "食費")
	require.NoError(t, err)

	merchant := &model.Merchant{
		ID: "m-1", Name: "店A",
		DefaultSubcategoryID: food.ID, ConfidenceWeight: 0.8,
	}
	require.NoError(t, s.SaveMerchant(ctx, merchant))

	// Prime the cache, then update the row.
	_, err = s.Lookup(ctx, "店a")
	require.NoError(t, err)

	merchant.ConfidenceWeight = 0.95
	require.NoError(t, s.SaveMerchant(ctx, merchant))

	got, err := s.Lookup(ctx, "店a")
	require.NoError(t, err)
	assert.InDelta(t, 0.95, got.ConfidenceWeight, 0.001)
}

func TestSaveTransactions_DeduplicatesByHash(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	txns := []model.Transaction{
		{
			AccountID:    "bank-1",
			Date:         time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
			Amount:       -1_500,
			Description:  "スターバックス",
			MainCategory: model.CategoryTypeExpense,
		},
	}
	require.NoError(t, s.SaveTransactions(ctx, txns))
	// Re-importing the same statement changes nothing.
	require.NoError(t, s.SaveTransactions(ctx, txns))

	pending, err := s.GetTransactionsToClassify(ctx, "bank-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(-1_500), pending[0].Amount)
	assert.NotEmpty(t, pending[0].Hash)
}

func TestApplyClassification(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	require.NoError(t, s.SaveTransactions(ctx, []model.Transaction{{
		AccountID:    "bank-1",
		Date:         time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		Amount:       -1_500,
		Description:  "スターバックス",
		MainCategory: model.CategoryTypeExpense,
	}}))
	pending, err := s.GetTransactionsToClassify(ctx, "bank-1")
	require.NoError(t, err)
	require.Len(t, pending, 1)
	id := pending[0].ID

	food, err := s.SubcategoryByName(ctx, model.CategoryTypeExpense, "食費")
	require.NoError(t, err)

	result := &model.ClassificationResult{
		Subcategory: *food,
		Confidence:  0.85,
		Reason:      model.ReasonKeywordMatch,
	}
	require.NoError(t, s.ApplyClassification(ctx, id, result))

	got, err := s.GetTransactionByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got.SubcategoryID)
	assert.Equal(t, food.ID, *got.SubcategoryID)
	require.NotNil(t, got.Confidence)
	assert.InDelta(t, 0.85, *got.Confidence, 0.001)

	// Classified but unconfirmed transactions leave the work queue.
	pending, err = s.GetTransactionsToClassify(ctx, "bank-1")
	require.NoError(t, err)
	assert.Empty(t, pending)

	// A confirmed transaction is never overwritten.
	_, err = s.db.ExecContext(ctx, `UPDATE transactions SET confirmed_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	require.NoError(t, err)
	other, err := s.SubcategoryByName(ctx, model.CategoryTypeExpense, "趣味・娯楽")
	require.NoError(t, err)
	require.NoError(t, s.ApplyClassification(ctx, id, &model.ClassificationResult{
		Subcategory: *other, Confidence: 0.9, Reason: model.ReasonKeywordMatch,
	}))
	got, err = s.GetTransactionByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, food.ID, *got.SubcategoryID, "confirmed classification must stand")

	err = s.ApplyClassification(ctx, "no-such-id", result)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestTransactionsInWindow(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	mk := func(day int, amount int64, desc string) model.Transaction {
		return model.Transaction{
			AccountID:    "bank-1",
			Date:         time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC),
			Amount:       amount,
			Description:  desc,
			MainCategory: model.CategoryTypeExpense,
		}
	}
	require.NoError(t, s.SaveTransactions(ctx, []model.Transaction{
		mk(5, -1_000, "窓の前"),
		mk(15, -2_000, "窓の中"),
		mk(20, -3_000, "窓の中その2"),
		mk(31, -4_000, "窓の後"),
	}))

	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 25, 0, 0, 0, 0, time.UTC)
	txns, err := s.TransactionsInWindow(ctx, "bank-1", start, end)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	// Ordered oldest first.
	assert.Equal(t, int64(-2_000), txns[0].Amount)
	assert.Equal(t, int64(-3_000), txns[1].Amount)
}

func TestAlertStore_RoundTrip(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	expected := int64(125_000)
	alert := &model.Alert{
		ID:        "a-1",
		Type:      model.AlertPaymentNotFound,
		Level:     model.AlertLevelWarning,
		Status:    model.AlertStatusUnread,
		Title:     "支払が確認できません",
		Message:   "引落予定額の出金が見つかりません。",
		CreatedAt: time.Date(2025, 1, 28, 9, 0, 0, 0, time.UTC),
		Details: model.AlertDetails{
			CardID:         "card-1",
			CardName:       "ミズイロカード",
			BillingMonth:   "2025-01",
			ExpectedAmount: &expected,
		},
		Actions: []model.AlertAction{
			{ID: "VIEW_DETAILS", Label: "明細を確認", Primary: true},
			{ID: "CONTACT_BANK", Label: "銀行に問い合わせ"},
		},
	}
	require.NoError(t, s.SaveAlert(ctx, alert))

	got, err := s.GetAlert(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, alert.Type, got.Type)
	assert.Equal(t, alert.Details.CardID, got.Details.CardID)
	require.NotNil(t, got.Details.ExpectedAmount)
	assert.Equal(t, expected, *got.Details.ExpectedAmount)
	require.Len(t, got.Actions, 2)
	assert.True(t, got.Actions[0].Primary)

	_, err = s.GetAlert(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func saveTestAlert(t *testing.T, s *SQLiteStorage, id string, level model.AlertLevel, cardID string, createdAt time.Time) {
	t.Helper()
	require.NoError(t, s.SaveAlert(context.Background(), &model.Alert{
		ID:        id,
		Type:      model.AlertAmountMismatch,
		Level:     level,
		Status:    model.AlertStatusUnread,
		Title:     "t",
		Message:   "m",
		CreatedAt: createdAt,
		Details:   model.AlertDetails{CardID: cardID},
	}))
}

func TestGetAlerts_Filters(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	saveTestAlert(t, s, "a-info", model.AlertLevelInfo, "card-1", base)
	saveTestAlert(t, s, "a-warn", model.AlertLevelWarning, "card-1", base.Add(time.Hour))
	saveTestAlert(t, s, "a-crit", model.AlertLevelCritical, "card-2", base.Add(2*time.Hour))

	all, err := s.GetAlerts(ctx, service.AlertFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	assert.Equal(t, "a-crit", all[0].ID)

	minWarn := model.AlertLevelWarning
	filtered, err := s.GetAlerts(ctx, service.AlertFilter{MinLevel: &minWarn})
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	byCard, err := s.GetAlerts(ctx, service.AlertFilter{CardID: "card-2"})
	require.NoError(t, err)
	require.Len(t, byCard, 1)
	assert.Equal(t, "a-crit", byCard[0].ID)

	unread := model.AlertStatusUnread
	require.NoError(t, s.UpdateAlertStatus(ctx, "a-info", model.AlertStatusResolved))
	open, err := s.GetAlerts(ctx, service.AlertFilter{Status: &unread})
	require.NoError(t, err)
	assert.Len(t, open, 2)
}

func TestUpdateAlertStatus_Lifecycle(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	saveTestAlert(t, s, "a-1", model.AlertLevelWarning, "card-1", time.Now().UTC())

	require.NoError(t, s.UpdateAlertStatus(ctx, "a-1", model.AlertStatusRead))
	got, err := s.GetAlert(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusRead, got.Status)
	assert.NotNil(t, got.ReadAt)

	// Marking read twice is a no-op.
	require.NoError(t, s.UpdateAlertStatus(ctx, "a-1", model.AlertStatusRead))

	require.NoError(t, s.UpdateAlertStatus(ctx, "a-1", model.AlertStatusResolved))
	got, err = s.GetAlert(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusResolved, got.Status)
	assert.NotNil(t, got.ResolvedAt)

	// Reading a resolved alert changes nothing and is not an error.
	require.NoError(t, s.UpdateAlertStatus(ctx, "a-1", model.AlertStatusRead))
	got, err = s.GetAlert(ctx, "a-1")
	require.NoError(t, err)
	assert.Equal(t, model.AlertStatusResolved, got.Status)

	// Going back to UNREAD never works.
	assert.Error(t, s.UpdateAlertStatus(ctx, "a-1", model.AlertStatusUnread))

	err = s.UpdateAlertStatus(ctx, "missing", model.AlertStatusRead)
	assert.ErrorIs(t, err, common.ErrNotFound)
}
