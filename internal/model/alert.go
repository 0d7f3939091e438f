package model

import "time"

// AlertType identifies what kind of attention an alert asks for.
type AlertType string

const (
	// AlertAmountMismatch means a payment reconciled with a differing amount.
	AlertAmountMismatch AlertType = "AMOUNT_MISMATCH"
	// AlertPaymentNotFound means no bank withdrawal matched a card summary.
	AlertPaymentNotFound AlertType = "PAYMENT_NOT_FOUND"
	// AlertOverdue means a card's due date passed without a matched payment.
	AlertOverdue AlertType = "OVERDUE"
	// AlertMultipleCandidates means several withdrawals could be the payment.
	AlertMultipleCandidates AlertType = "MULTIPLE_CANDIDATES"
	// AlertLowConfidence means a classification fell below the acceptance
	// threshold and should be reviewed.
	AlertLowConfidence AlertType = "LOW_CONFIDENCE_CLASSIFICATION"
)

// AlertLevel is the alert severity, strictly ordered INFO < WARNING <
// ERROR < CRITICAL.
type AlertLevel string

const (
	AlertLevelInfo     AlertLevel = "INFO"
	AlertLevelWarning  AlertLevel = "WARNING"
	AlertLevelError    AlertLevel = "ERROR"
	AlertLevelCritical AlertLevel = "CRITICAL"
)

// Severity returns the level's rank for sorting and filtering.
func (l AlertLevel) Severity() int {
	switch l {
	case AlertLevelInfo:
		return 0
	case AlertLevelWarning:
		return 1
	case AlertLevelError:
		return 2
	case AlertLevelCritical:
		return 3
	}
	return -1
}

// AlertStatus is the alert's position in its read/resolve lifecycle.
type AlertStatus string

const (
	AlertStatusUnread   AlertStatus = "UNREAD"
	AlertStatusRead     AlertStatus = "READ"
	AlertStatusResolved AlertStatus = "RESOLVED"
)

// CanTransitionTo reports whether moving from s to next is legal.
// UNREAD may go to READ or straight to RESOLVED; READ may go to RESOLVED;
// nothing leaves RESOLVED.
func (s AlertStatus) CanTransitionTo(next AlertStatus) bool {
	switch s {
	case AlertStatusUnread:
		return next == AlertStatusRead || next == AlertStatusResolved
	case AlertStatusRead:
		return next == AlertStatusResolved
	case AlertStatusResolved:
		return false
	}
	return false
}

// AlertAction is a suggested next step attached to an alert. Exactly one
// action per alert carries Primary.
type AlertAction struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Primary bool   `json:"primary"`
}

// AlertDetails carries the structured context an alert was raised about.
type AlertDetails struct {
	CardID                string   `json:"cardId,omitempty"`
	CardName              string   `json:"cardName,omitempty"`
	BillingMonth          string   `json:"billingMonth,omitempty"`
	TransactionID         string   `json:"transactionId,omitempty"`
	RelatedTransactionIDs []string `json:"relatedTransactionIds,omitempty"`
	ExpectedAmount        *int64   `json:"expectedAmount,omitempty"`
	ActualAmount          *int64   `json:"actualAmount,omitempty"`
	Difference            *int64   `json:"difference,omitempty"`
	Confidence            *float64 `json:"confidence,omitempty"`
}

// Alert is a structured, stateful notice that reconciliation or
// classification needs human attention.
type Alert struct {
	CreatedAt  time.Time     `json:"createdAt"`
	ReadAt     *time.Time    `json:"readAt,omitempty"`
	ResolvedAt *time.Time    `json:"resolvedAt,omitempty"`
	ID         string        `json:"id"`
	Type       AlertType     `json:"type"`
	Level      AlertLevel    `json:"level"`
	Title      string        `json:"title"`
	Message    string        `json:"message"`
	Status     AlertStatus   `json:"status"`
	Details    AlertDetails  `json:"details"`
	Actions    []AlertAction `json:"actions,omitempty"`
}

// MarkRead moves an unread alert to READ. Marking an alert that is
// already READ or RESOLVED is a no-op, not an error.
func (a *Alert) MarkRead(now time.Time) {
	if a.Status != AlertStatusUnread {
		return
	}
	a.Status = AlertStatusRead
	a.ReadAt = &now
}

// Resolve moves the alert to RESOLVED, directly from UNREAD if it was
// never read. Resolving an already resolved alert is a no-op.
func (a *Alert) Resolve(now time.Time) {
	if a.Status == AlertStatusResolved {
		return
	}
	a.Status = AlertStatusResolved
	a.ResolvedAt = &now
}

// PrimaryAction returns the action marked as the most likely next step.
func (a *Alert) PrimaryAction() *AlertAction {
	for i := range a.Actions {
		if a.Actions[i].Primary {
			return &a.Actions[i]
		}
	}
	return nil
}
