package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from PaymentStatus
		to   PaymentStatus
		want bool
	}{
		{PaymentStatusPending, PaymentStatusProcessing, true},
		{PaymentStatusPending, PaymentStatusOverdue, true},
		{PaymentStatusPending, PaymentStatusPaid, false},
		{PaymentStatusProcessing, PaymentStatusPaid, true},
		{PaymentStatusProcessing, PaymentStatusPartial, true},
		{PaymentStatusProcessing, PaymentStatusDisputed, true},
		{PaymentStatusProcessing, PaymentStatusOverdue, true},
		{PaymentStatusOverdue, PaymentStatusPaid, true},
		{PaymentStatusOverdue, PaymentStatusPending, false},
		{PaymentStatusPaid, PaymentStatusProcessing, false},
		{PaymentStatusPaid, PaymentStatusOverdue, false},
		// User overrides are reachable from everywhere.
		{PaymentStatusPending, PaymentStatusManualConfirmed, true},
		{PaymentStatusOverdue, PaymentStatusCancelled, true},
		{PaymentStatusPaid, PaymentStatusManualConfirmed, true},
		// But nothing leaves them except another override.
		{PaymentStatusManualConfirmed, PaymentStatusPaid, false},
		{PaymentStatusCancelled, PaymentStatusProcessing, false},
		{PaymentStatusManualConfirmed, PaymentStatusCancelled, true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestMonthlyCardSummary_NetPaymentAmount(t *testing.T) {
	s := MonthlyCardSummary{TotalAmount: 125_000}
	assert.Equal(t, int64(125_000), s.NetPaymentAmount())

	s.Discounts = []Discount{
		{Description: "ポイント充当", Amount: 3_000},
		{Description: "キャッシュバック", Amount: 2_000},
	}
	assert.Equal(t, int64(120_000), s.NetPaymentAmount())
}
