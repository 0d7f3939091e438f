package model

import "time"

// PaymentStatus tracks where a card billing cycle is in its payment
// lifecycle.
type PaymentStatus string

const (
	// PaymentStatusPending means no reconciliation has been attempted yet.
	PaymentStatusPending PaymentStatus = "PENDING"
	// PaymentStatusProcessing means reconciliation has started but not concluded.
	PaymentStatusProcessing PaymentStatus = "PROCESSING"
	// PaymentStatusPaid means the payment was found and amounts agree.
	PaymentStatusPaid PaymentStatus = "PAID"
	// PaymentStatusPartial means a payment was found but for less than billed.
	PaymentStatusPartial PaymentStatus = "PARTIAL"
	// PaymentStatusDisputed means a payment was found with an unexplained difference.
	PaymentStatusDisputed PaymentStatus = "DISPUTED"
	// PaymentStatusOverdue means the due date passed with no matching payment.
	PaymentStatusOverdue PaymentStatus = "OVERDUE"
	// PaymentStatusManualConfirmed is a user override from any state.
	PaymentStatusManualConfirmed PaymentStatus = "MANUAL_CONFIRMED"
	// PaymentStatusCancelled is a user cancellation from any state.
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// CanTransitionTo reports whether moving from s to next is a legal
// lifecycle transition. MANUAL_CONFIRMED and CANCELLED are user-triggered
// and reachable from any state; everything else is driven by
// reconciliation outcomes and the due date.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if next == PaymentStatusManualConfirmed || next == PaymentStatusCancelled {
		return true
	}
	switch s {
	case PaymentStatusPending:
		return next == PaymentStatusProcessing || next == PaymentStatusOverdue
	case PaymentStatusProcessing:
		switch next {
		case PaymentStatusPaid, PaymentStatusPartial, PaymentStatusDisputed, PaymentStatusOverdue:
			return true
		}
		return false
	case PaymentStatusOverdue:
		// A late payment can still reconcile.
		switch next {
		case PaymentStatusPaid, PaymentStatusPartial, PaymentStatusDisputed:
			return true
		}
		return false
	case PaymentStatusPaid, PaymentStatusPartial, PaymentStatusDisputed,
		PaymentStatusManualConfirmed, PaymentStatusCancelled:
		return false
	}
	return false
}

// Discount is a billing-cycle credit (points, cashback, adjustments)
// subtracted from the billed total before payment.
type Discount struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"` // positive minor units
}

// MonthlyCardSummary is one credit card's billing cycle as reported by the
// issuer.
type MonthlyCardSummary struct {
	ClosingDate    time.Time     `json:"closingDate"`
	PaymentDueDate time.Time     `json:"paymentDueDate"`
	CardID         string        `json:"cardId"`
	CardName       string        `json:"cardName"`
	BillingMonth   string        `json:"billingMonth"` // YYYY-MM
	Transactions   []Transaction `json:"transactions,omitempty"`
	Discounts      []Discount    `json:"discounts,omitempty"`
	TotalAmount    int64         `json:"totalAmount"`
	PaymentStatus  PaymentStatus `json:"paymentStatus"`
}

// NetPaymentAmount is the amount the bank withdrawal should carry: the
// billed total minus all discounts.
func (s *MonthlyCardSummary) NetPaymentAmount() int64 {
	net := s.TotalAmount
	for _, d := range s.Discounts {
		net -= d.Amount
	}
	return net
}
