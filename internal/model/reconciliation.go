package model

// DiscrepancyReason classifies why a reconciliation outcome needs attention.
type DiscrepancyReason string

const (
	// DiscrepancyAmountMismatch means a payment was found but the amount differs.
	DiscrepancyAmountMismatch DiscrepancyReason = "AMOUNT_MISMATCH"
	// DiscrepancyPaymentNotFound means no plausible payment exists in the window.
	DiscrepancyPaymentNotFound DiscrepancyReason = "PAYMENT_NOT_FOUND"
)

// Discrepancy describes the difference between what a card summary says
// should have been paid and what the bank records show.
type Discrepancy struct {
	Reason         DiscrepancyReason `json:"reason"`
	Description    string            `json:"description"`
	ExpectedAmount int64             `json:"expectedAmount"`
	ActualAmount   int64             `json:"actualAmount"`
	// Difference is signed: actual minus expected.
	Difference int64 `json:"difference"`
}

// ReconciliationResult is the outcome of matching one MonthlyCardSummary
// against the bank transactions of the paying account.
type ReconciliationResult struct {
	Summary            MonthlyCardSummary `json:"summary"`
	MatchedTransaction *Transaction       `json:"matchedTransaction,omitempty"`
	Discrepancy        *Discrepancy       `json:"discrepancy,omitempty"`
	Matched            bool               `json:"matched"`
	Confidence         int                `json:"confidence"` // 0-100
	// CandidateCount is how many candidates cleared the mid confidence
	// band; more than one means human disambiguation is worthwhile.
	CandidateCount int `json:"candidateCount"`
}

// MultipleCandidates reports whether more than one plausible payment was
// found for the summary.
func (r *ReconciliationResult) MultipleCandidates() bool {
	return r.CandidateCount > 1
}
