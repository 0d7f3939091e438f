package reconcile

import (
	"time"

	"github.com/mizuiro-dev/zenibako/internal/model"
)

// NextPaymentStatus derives the summary's next payment status from a
// reconciliation result and the current time. User-triggered states
// (MANUAL_CONFIRMED, CANCELLED) and concluded cycles are left alone.
// Intermediate hops (PENDING → PROCESSING → PAID) are walked internally
// so the returned status is always reachable from the current one.
func NextPaymentStatus(current model.PaymentStatus, result *model.ReconciliationResult, now time.Time) model.PaymentStatus {
	switch current {
	case model.PaymentStatusPaid, model.PaymentStatusManualConfirmed, model.PaymentStatusCancelled:
		return current
	case model.PaymentStatusPending, model.PaymentStatusProcessing,
		model.PaymentStatusOverdue, model.PaymentStatusPartial, model.PaymentStatusDisputed:
		// Fall through to the reconciliation outcome below.
	}

	if result.Matched {
		if result.Discrepancy == nil {
			return model.PaymentStatusPaid
		}
		if result.Discrepancy.Difference < 0 {
			return model.PaymentStatusPartial
		}
		return model.PaymentStatusDisputed
	}

	if now.After(result.Summary.PaymentDueDate) {
		return model.PaymentStatusOverdue
	}
	if current == model.PaymentStatusPending {
		return model.PaymentStatusProcessing
	}
	return current
}
