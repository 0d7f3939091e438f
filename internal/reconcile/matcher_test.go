package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mizuiro-dev/zenibako/internal/common"
	"github.com/mizuiro-dev/zenibako/internal/model"
)

func testSummary() model.MonthlyCardSummary {
	return model.MonthlyCardSummary{
		CardID:         "card-1",
		CardName:       "ミズイロカード",
		BillingMonth:   "2025-01",
		ClosingDate:    time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		PaymentDueDate: time.Date(2025, 1, 27, 0, 0, 0, 0, time.UTC),
		TotalAmount:    125_000,
		PaymentStatus:  model.PaymentStatusPending,
	}
}

func withdrawal(id string, amount int64, day int, description string) model.Transaction {
	return model.Transaction{
		ID:           id,
		AccountID:    "bank-1",
		Date:         time.Date(2025, 1, day, 0, 0, 0, 0, time.UTC),
		Amount:       amount,
		Description:  description,
		MainCategory: model.CategoryTypeRepayment,
	}
}

func TestReconcile_ExactMatch(t *testing.T) {
	ctx := context.Background()
	m := NewMatcher(DefaultConfig())

	result, err := m.Reconcile(ctx, testSummary(), []model.Transaction{
		withdrawal("w1", -125_000, 27, "ミズイロカード 引落"),
	})
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.GreaterOrEqual(t, result.Confidence, 90)
	assert.Nil(t, result.Discrepancy)
	require.NotNil(t, result.MatchedTransaction)
	assert.Equal(t, "w1", result.MatchedTransaction.ID)
	assert.Equal(t, 1, result.CandidateCount)
}

func TestReconcile_AmountMismatch(t *testing.T) {
	ctx := context.Background()
	m := NewMatcher(DefaultConfig())

	result, err := m.Reconcile(ctx, testSummary(), []model.Transaction{
		withdrawal("w1", -120_000, 27, "ミズイロカード 引落"),
	})
	require.NoError(t, err)
	assert.True(t, result.Matched)
	require.NotNil(t, result.Discrepancy)
	assert.Equal(t, model.DiscrepancyAmountMismatch, result.Discrepancy.Reason)
	assert.Equal(t, int64(125_000), result.Discrepancy.ExpectedAmount)
	assert.Equal(t, int64(120_000), result.Discrepancy.ActualAmount)
	assert.Equal(t, int64(-5_000), result.Discrepancy.Difference)
}

func TestReconcile_PaymentNotFound(t *testing.T) {
	ctx := context.Background()
	m := NewMatcher(DefaultConfig())

	result, err := m.Reconcile(ctx, testSummary(), nil)
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Zero(t, result.Confidence)
	require.NotNil(t, result.Discrepancy)
	assert.Equal(t, model.DiscrepancyPaymentNotFound, result.Discrepancy.Reason)
	assert.Equal(t, int64(-125_000), result.Discrepancy.Difference)
}

func TestReconcile_MultipleCandidates(t *testing.T) {
	ctx := context.Background()
	m := NewMatcher(DefaultConfig())

	// Two withdrawals, both plausible. The one on the due date with the
	// exact amount must win, deterministically.
	result, err := m.Reconcile(ctx, testSummary(), []model.Transaction{
		withdrawal("w2", -125_000, 26, "ミズイロカード 引落"),
		withdrawal("w1", -125_000, 27, "ミズイロカード 引落"),
	})
	require.NoError(t, err)
	assert.True(t, result.Matched)
	require.NotNil(t, result.MatchedTransaction)
	assert.Equal(t, "w1", result.MatchedTransaction.ID)
	assert.True(t, result.MultipleCandidates())
	assert.Equal(t, 2, result.CandidateCount)
}

func TestReconcile_TieBreakDeterministic(t *testing.T) {
	ctx := context.Background()
	m := NewMatcher(DefaultConfig())

	// Identical score, date and amount: the ID breaks the tie, so input
	// order must not matter.
	a := withdrawal("w-a", -125_000, 27, "ミズイロカード")
	b := withdrawal("w-b", -125_000, 27, "ミズイロカード")

	r1, err := m.Reconcile(ctx, testSummary(), []model.Transaction{a, b})
	require.NoError(t, err)
	r2, err := m.Reconcile(ctx, testSummary(), []model.Transaction{b, a})
	require.NoError(t, err)
	assert.Equal(t, "w-a", r1.MatchedTransaction.ID)
	assert.Equal(t, "w-a", r2.MatchedTransaction.ID)
}

func TestReconcile_LargerAmountBreaksDateTie(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultConfig()
	cfg.AmountTolerance = 20_000 // both amounts inside tolerance
	m := NewMatcher(cfg)

	result, err := m.Reconcile(ctx, testSummary(), []model.Transaction{
		withdrawal("small", -115_000, 27, "ミズイロカード"),
		withdrawal("large", -125_000, 27, "ミズイロカード"),
	})
	require.NoError(t, err)
	assert.Equal(t, "large", result.MatchedTransaction.ID)
}

func TestReconcile_OutsideWindowExcluded(t *testing.T) {
	ctx := context.Background()
	m := NewMatcher(DefaultConfig())

	result, err := m.Reconcile(ctx, testSummary(), []model.Transaction{
		// Before the closing date and after due date + grace.
		withdrawal("early", -125_000, 5, "ミズイロカード"),
		{
			ID:          "late",
			AccountID:   "bank-1",
			Date:        time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC),
			Amount:      -125_000,
			Description: "ミズイロカード",
		},
		// Deposits can never be the payment.
		withdrawal("deposit", 125_000, 27, "ミズイロカード"),
	})
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Equal(t, model.DiscrepancyPaymentNotFound, result.Discrepancy.Reason)
}

func TestReconcile_DiscountsReduceExpectedAmount(t *testing.T) {
	ctx := context.Background()
	m := NewMatcher(DefaultConfig())

	summary := testSummary()
	summary.Discounts = []model.Discount{{Description: "ポイント充当", Amount: 5_000}}

	result, err := m.Reconcile(ctx, summary, []model.Transaction{
		withdrawal("w1", -120_000, 27, "ミズイロカード 引落"),
	})
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Nil(t, result.Discrepancy, "withdrawal equals net amount, no discrepancy")
}

func TestReconcile_ToleranceMonotonicity(t *testing.T) {
	ctx := context.Background()

	txns := []model.Transaction{withdrawal("w1", -110_000, 27, "ミズイロカード")}
	prev := -1
	for _, tolerance := range []int64{0, 5, 1_000, 10_000, 15_000, 20_000} {
		cfg := DefaultConfig()
		cfg.AmountTolerance = tolerance
		result, err := NewMatcher(cfg).Reconcile(ctx, testSummary(), txns)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, result.Confidence, prev,
			"widening tolerance %d must not lower confidence", tolerance)
		prev = result.Confidence
	}
}

func TestReconcile_InvalidSummary(t *testing.T) {
	ctx := context.Background()
	m := NewMatcher(DefaultConfig())

	tests := []struct {
		mutate func(*model.MonthlyCardSummary)
		name   string
	}{
		{name: "non-positive total", mutate: func(s *model.MonthlyCardSummary) { s.TotalAmount = 0 }},
		{name: "discounts exceed total", mutate: func(s *model.MonthlyCardSummary) {
			s.Discounts = []model.Discount{{Description: "x", Amount: 200_000}}
		}},
		{name: "due before closing", mutate: func(s *model.MonthlyCardSummary) {
			s.PaymentDueDate = s.ClosingDate.AddDate(0, 0, -1)
		}},
		{name: "bad billing month", mutate: func(s *model.MonthlyCardSummary) { s.BillingMonth = "January 2025" }},
		{name: "empty card id", mutate: func(s *model.MonthlyCardSummary) { s.CardID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := testSummary()
			tt.mutate(&summary)
			_, err := m.Reconcile(ctx, summary, nil)
			require.Error(t, err)
			assert.True(t, common.IsInvalidInput(err))
		})
	}
}

func TestReconcile_GracePeriodExtendsWindow(t *testing.T) {
	ctx := context.Background()
	m := NewMatcher(DefaultConfig())

	// Due 2025-01-27, default grace 5 days: the 30th still qualifies.
	result, err := m.Reconcile(ctx, testSummary(), []model.Transaction{
		withdrawal("w1", -125_000, 30, "ミズイロカード 引落"),
	})
	require.NoError(t, err)
	assert.True(t, result.Matched)
}
