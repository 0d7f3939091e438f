// Package model defines the core domain models shared by the
// classification, reconciliation and alerting engines.
package model

// ClassificationReason indicates which signal produced a classification.
type ClassificationReason string

// Classification reason constants, in signal priority order.
const (
	ReasonMerchantMatch    ClassificationReason = "MERCHANT_MATCH"
	ReasonKeywordMatch     ClassificationReason = "KEYWORD_MATCH"
	ReasonRecurringPattern ClassificationReason = "RECURRING_PATTERN"
	ReasonAmountInference  ClassificationReason = "AMOUNT_INFERENCE"
	ReasonDefault          ClassificationReason = "DEFAULT"
)

// ClassificationResult is the single ranked answer the orchestrator emits
// for one transaction. It is a value object: the caller decides whether to
// apply it to the transaction record.
type ClassificationResult struct {
	Subcategory  Subcategory          `json:"subcategory"`
	Confidence   float64              `json:"confidence"` // 0.0-1.0
	Reason       ClassificationReason `json:"reason"`
	MerchantID   *string              `json:"merchantId,omitempty"`
	MerchantName *string              `json:"merchantName,omitempty"`
}
