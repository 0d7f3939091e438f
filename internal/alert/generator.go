// Package alert turns reconciliation and classification outcomes that
// need human attention into structured, stateful alerts with suggested
// actions. The generator performs no I/O; callers persist and deliver.
package alert

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mizuiro-dev/zenibako/internal/model"
)

// Suggested action identifiers.
const (
	ActionViewDetails  = "VIEW_DETAILS"
	ActionManualMatch  = "MANUAL_MATCH"
	ActionContactBank  = "CONTACT_BANK"
	ActionMarkResolved = "MARK_RESOLVED"
	ActionIgnore       = "IGNORE"
)

// Config tunes alert severity.
type Config struct {
	// LargeDiscrepancy is the absolute difference in minor units beyond
	// which an amount mismatch escalates from WARNING to ERROR.
	LargeDiscrepancy int64
	// LowConfidence is the classification confidence below which a
	// review alert is raised.
	LowConfidence float64
}

// DefaultConfig returns the production alert tuning.
func DefaultConfig() Config {
	return Config{
		LargeDiscrepancy: 10_000,
		LowConfidence:    0.4,
	}
}

// Generator maps engine outcomes to zero or one Alert.
type Generator struct {
	cfg Config
	now func() time.Time
}

// NewGenerator creates an alert generator.
func NewGenerator(cfg Config) *Generator {
	return &Generator{cfg: cfg, now: time.Now}
}

// FromReconciliation returns the alert a reconciliation outcome warrants,
// or nil when the summary reconciled cleanly. A fully matched result with
// several plausible candidates still raises MULTIPLE_CANDIDATES, since a
// human should confirm the right withdrawal was picked.
func (g *Generator) FromReconciliation(result *model.ReconciliationResult, now time.Time) *model.Alert {
	if result.Matched {
		if result.Discrepancy != nil {
			return g.amountMismatch(result, now)
		}
		if result.MultipleCandidates() {
			return g.multipleCandidates(result, now)
		}
		return nil
	}
	return g.paymentNotFound(result, now)
}

func (g *Generator) amountMismatch(result *model.ReconciliationResult, now time.Time) *model.Alert {
	d := result.Discrepancy
	level := model.AlertLevelWarning
	abs := d.Difference
	if abs < 0 {
		abs = -abs
	}
	if abs > g.cfg.LargeDiscrepancy {
		level = model.AlertLevelError
	}

	a := g.base(model.AlertAmountMismatch, level, &result.Summary, now)
	a.Title = fmt.Sprintf("%s %s分の支払金額が一致しません", result.Summary.CardName, result.Summary.BillingMonth)
	a.Message = d.Description
	a.Details.ExpectedAmount = &d.ExpectedAmount
	a.Details.ActualAmount = &d.ActualAmount
	a.Details.Difference = &d.Difference
	if result.MatchedTransaction != nil {
		a.Details.RelatedTransactionIDs = []string{result.MatchedTransaction.ID}
	}
	a.Actions = []model.AlertAction{
		{ID: ActionViewDetails, Label: "明細を確認", Primary: true},
		{ID: ActionMarkResolved, Label: "解決済みにする"},
	}
	return a
}

func (g *Generator) multipleCandidates(result *model.ReconciliationResult, now time.Time) *model.Alert {
	a := g.base(model.AlertMultipleCandidates, model.AlertLevelInfo, &result.Summary, now)
	a.Title = fmt.Sprintf("%s %s分の支払候補が複数あります", result.Summary.CardName, result.Summary.BillingMonth)
	a.Message = fmt.Sprintf("%d件の出金が支払に該当し得ます。正しい明細を選択してください。", result.CandidateCount)
	if result.MatchedTransaction != nil {
		a.Details.RelatedTransactionIDs = []string{result.MatchedTransaction.ID}
	}
	a.Actions = []model.AlertAction{
		{ID: ActionManualMatch, Label: "手動で照合", Primary: true},
		{ID: ActionIgnore, Label: "無視する"},
	}
	return a
}

func (g *Generator) paymentNotFound(result *model.ReconciliationResult, now time.Time) *model.Alert {
	summary := &result.Summary
	level := model.AlertLevelWarning
	if !now.Before(summary.PaymentDueDate) {
		level = model.AlertLevelError
	}

	expected := summary.NetPaymentAmount()
	a := g.base(model.AlertPaymentNotFound, level, summary, now)
	a.Title = fmt.Sprintf("%s %s分の支払が確認できません", summary.CardName, summary.BillingMonth)
	a.Message = fmt.Sprintf("引落予定額 %d円 の出金が銀行口座に見つかりません。", expected)
	a.Details.ExpectedAmount = &expected
	a.Actions = []model.AlertAction{
		{ID: ActionViewDetails, Label: "明細を確認", Primary: true},
		{ID: ActionManualMatch, Label: "手動で照合"},
		{ID: ActionContactBank, Label: "銀行に問い合わせ"},
	}
	return a
}

// FromOverdueSummary raises an alert for a billing cycle whose due date
// passed without a matched payment. Escalates to CRITICAL after a week.
func (g *Generator) FromOverdueSummary(summary *model.MonthlyCardSummary, now time.Time) *model.Alert {
	if now.Before(summary.PaymentDueDate) {
		return nil
	}
	level := model.AlertLevelError
	if now.Sub(summary.PaymentDueDate) > 7*24*time.Hour {
		level = model.AlertLevelCritical
	}

	expected := summary.NetPaymentAmount()
	a := g.base(model.AlertOverdue, level, summary, now)
	a.Title = fmt.Sprintf("%s %s分の支払期日を過ぎています", summary.CardName, summary.BillingMonth)
	a.Message = fmt.Sprintf("支払期日 %s を過ぎましたが、%d円の支払が確認できていません。",
		summary.PaymentDueDate.Format("2006-01-02"), expected)
	a.Details.ExpectedAmount = &expected
	a.Actions = []model.AlertAction{
		{ID: ActionViewDetails, Label: "明細を確認", Primary: true},
		{ID: ActionManualMatch, Label: "手動で照合"},
		{ID: ActionContactBank, Label: "銀行に問い合わせ"},
	}
	return a
}

// FromClassification raises a review alert when an automatic
// classification is too uncertain to apply silently. Returns nil for
// confident results.
func (g *Generator) FromClassification(txn *model.Transaction, result *model.ClassificationResult) *model.Alert {
	if result.Confidence >= g.cfg.LowConfidence {
		return nil
	}

	now := g.now()
	confidence := result.Confidence
	a := &model.Alert{
		ID:        uuid.NewString(),
		Type:      model.AlertLowConfidence,
		Level:     model.AlertLevelInfo,
		Status:    model.AlertStatusUnread,
		CreatedAt: now,
		Title:     "分類の確認が必要です",
		Message: fmt.Sprintf("「%s」を「%s」に分類しましたが確信度が低いため確認してください。",
			txn.Description, result.Subcategory.Name),
		Details: model.AlertDetails{
			TransactionID: txn.ID,
			Confidence:    &confidence,
		},
		Actions: []model.AlertAction{
			{ID: ActionViewDetails, Label: "取引を確認", Primary: true},
			{ID: ActionIgnore, Label: "無視する"},
		},
	}
	return a
}

func (g *Generator) base(t model.AlertType, level model.AlertLevel, summary *model.MonthlyCardSummary, now time.Time) *model.Alert {
	return &model.Alert{
		ID:        uuid.NewString(),
		Type:      t,
		Level:     level,
		Status:    model.AlertStatusUnread,
		CreatedAt: now,
		Details: model.AlertDetails{
			CardID:       summary.CardID,
			CardName:     summary.CardName,
			BillingMonth: summary.BillingMonth,
		},
	}
}
