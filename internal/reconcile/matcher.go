// Package reconcile proves that a credit card's monthly billing summary
// was actually paid by finding the corresponding bank withdrawal, scoring
// candidates 0-100, and classifying any discrepancy.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/mizuiro-dev/zenibako/internal/classify"
	"github.com/mizuiro-dev/zenibako/internal/common"
	"github.com/mizuiro-dev/zenibako/internal/model"
	"github.com/mizuiro-dev/zenibako/internal/service"
)

// Config tunes candidate search and scoring.
type Config struct {
	// GracePeriodDays extends the search window past the due date to
	// absorb bank posting lag.
	GracePeriodDays int
	// AmountTolerance is the absolute difference in minor units treated
	// as "the same amount" (rounding, per-payment fees).
	AmountTolerance int64
	// HighThreshold and above is a confident match. MidThreshold and
	// above is a match worth flagging when several candidates clear it.
	// Below LowThreshold the payment counts as not found.
	HighThreshold int
	MidThreshold  int
	LowThreshold  int
	// Score weights, summing to 100.
	AmountWeight      int
	DateWeight        int
	DescriptionWeight int
	// IssuerAliases are extra names the paying bank may print instead of
	// the card name, e.g. the issuer's corporate name.
	IssuerAliases []string
}

// DefaultConfig returns the production reconciliation tuning.
func DefaultConfig() Config {
	return Config{
		GracePeriodDays:   5,
		AmountTolerance:   5,
		HighThreshold:     90,
		MidThreshold:      60,
		LowThreshold:      40,
		AmountWeight:      60,
		DateWeight:        25,
		DescriptionWeight: 15,
	}
}

// Matcher reconciles card summaries against bank withdrawals. It is pure:
// it never performs I/O and "no match found" is a reportable result, not
// an error.
type Matcher struct {
	cfg Config
}

// NewMatcher creates a reconciliation matcher.
func NewMatcher(cfg Config) *Matcher {
	return &Matcher{cfg: cfg}
}

// scoredCandidate pairs a bank transaction with its confidence breakdown.
type scoredCandidate struct {
	txn       model.Transaction
	score     int
	daysOff   int
	absAmount int64
}

// Reconcile matches one summary against the supplied bank transactions.
// It fails only on malformed input; an unmatched summary comes back with
// Matched=false and a PAYMENT_NOT_FOUND discrepancy.
func (m *Matcher) Reconcile(_ context.Context, summary model.MonthlyCardSummary, txns []model.Transaction) (*model.ReconciliationResult, error) {
	if err := validateSummary(&summary); err != nil {
		return nil, err
	}

	expected := summary.NetPaymentAmount()
	candidates := m.findCandidates(&summary, txns)
	scored := m.scoreCandidates(&summary, expected, candidates)

	result := &model.ReconciliationResult{Summary: summary}

	if len(scored) == 0 {
		result.Discrepancy = notFoundDiscrepancy(expected)
		slog.Debug("no reconciliation candidates",
			"card", summary.CardID, "billing_month", summary.BillingMonth)
		return result, nil
	}

	best := scored[0]
	result.Confidence = best.score
	for _, c := range scored {
		if c.score >= m.cfg.MidThreshold {
			result.CandidateCount++
		}
	}

	if best.score < m.cfg.MidThreshold {
		result.Discrepancy = notFoundDiscrepancy(expected)
		if best.score >= m.cfg.LowThreshold {
			result.Discrepancy.Description = fmt.Sprintf(
				"best candidate scored %d, below the match threshold", best.score)
		}
		return result, nil
	}

	txn := best.txn
	result.Matched = true
	result.MatchedTransaction = &txn
	result.Discrepancy = evaluateDiscrepancy(expected, -txn.Amount, m.cfg.AmountTolerance)

	slog.Debug("reconciliation matched",
		"card", summary.CardID,
		"billing_month", summary.BillingMonth,
		"confidence", best.score,
		"candidates_in_band", result.CandidateCount)
	return result, nil
}

// ReconcileWithSource pulls the bank transactions for the summary's
// search window from the given source, then reconciles.
func (m *Matcher) ReconcileWithSource(ctx context.Context, summary model.MonthlyCardSummary, source service.BankTransactionSource, accountID string) (*model.ReconciliationResult, error) {
	start, end := m.window(&summary)
	txns, err := source.TransactionsInWindow(ctx, accountID, start, end)
	if err != nil {
		return nil, fmt.Errorf("load bank transactions: %w", err)
	}
	return m.Reconcile(ctx, summary, txns)
}

func (m *Matcher) window(summary *model.MonthlyCardSummary) (time.Time, time.Time) {
	start := summary.ClosingDate
	end := summary.PaymentDueDate.AddDate(0, 0, m.cfg.GracePeriodDays)
	return start, end
}

// findCandidates keeps outgoing transactions inside the search window.
// Description similarity is scored, not required: banks often print only
// a terse debit code.
func (m *Matcher) findCandidates(summary *model.MonthlyCardSummary, txns []model.Transaction) []model.Transaction {
	start, end := m.window(summary)

	var candidates []model.Transaction
	for _, txn := range txns {
		if txn.Amount >= 0 {
			continue
		}
		if txn.Date.Before(start) || txn.Date.After(end) {
			continue
		}
		candidates = append(candidates, txn)
	}
	return candidates
}

// scoreCandidates computes each candidate's 0-100 confidence and sorts by
// the fixed tie-break: score, then date proximity, then larger absolute
// amount, then ID so equal candidates order deterministically.
func (m *Matcher) scoreCandidates(summary *model.MonthlyCardSummary, expected int64, candidates []model.Transaction) []scoredCandidate {
	scored := make([]scoredCandidate, 0, len(candidates))
	for _, txn := range candidates {
		sc := scoredCandidate{
			txn:       txn,
			daysOff:   daysBetween(txn.Date, summary.PaymentDueDate),
			absAmount: -txn.Amount,
		}
		amountScore := m.amountScore(expected, sc.absAmount)
		dateScore := dateScore(sc.daysOff)
		descScore := m.descriptionScore(summary, txn.Description)

		sc.score = (amountScore*m.cfg.AmountWeight +
			dateScore*m.cfg.DateWeight +
			descScore*m.cfg.DescriptionWeight) /
			(m.cfg.AmountWeight + m.cfg.DateWeight + m.cfg.DescriptionWeight)
		scored = append(scored, sc)
	}

	sort.Slice(scored, func(i, j int) bool {
		a, b := scored[i], scored[j]
		if a.score != b.score {
			return a.score > b.score
		}
		if a.daysOff != b.daysOff {
			return a.daysOff < b.daysOff
		}
		if a.absAmount != b.absAmount {
			return a.absAmount > b.absAmount
		}
		return a.txn.ID < b.txn.ID
	})
	return scored
}

// amountScore is 100 inside the tolerance band and falls proportionally
// with the relative difference beyond it. Widening the tolerance can only
// raise a candidate's score, never lower it.
func (m *Matcher) amountScore(expected, actual int64) int {
	diff := expected - actual
	if diff < 0 {
		diff = -diff
	}
	if diff <= m.cfg.AmountTolerance {
		return 100
	}
	score := 100 - int(diff*100/expected)
	if score < 0 {
		return 0
	}
	return score
}

// dateScore rewards proximity to the expected payment date, 10 points per
// day off.
func dateScore(daysOff int) int {
	score := 100 - 10*daysOff
	if score < 0 {
		return 0
	}
	return score
}

var issuerNoise = regexp.MustCompile(`\s+`)

// descriptionScore is 100 when the withdrawal text mentions the card or a
// configured issuer alias, 0 otherwise.
func (m *Matcher) descriptionScore(summary *model.MonthlyCardSummary, description string) int {
	normalized := classify.NormalizeDescription(description)
	if normalized == "" {
		return 0
	}

	names := append([]string{summary.CardName}, m.cfg.IssuerAliases...)
	for _, name := range names {
		want := classify.NormalizeDescription(name)
		if want == "" {
			continue
		}
		// Also try the squeezed form: banks drop spaces freely.
		squeezed := issuerNoise.ReplaceAllString(normalized, "")
		wantSqueezed := issuerNoise.ReplaceAllString(want, "")
		if strings.Contains(normalized, want) || strings.Contains(squeezed, wantSqueezed) {
			return 100
		}
	}
	return 0
}

func daysBetween(a, b time.Time) int {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return int(d.Hours() / 24)
}

func validateSummary(summary *model.MonthlyCardSummary) error {
	if summary.CardID == "" {
		return common.NewInvalidInputError("cardId", "must not be empty")
	}
	if summary.TotalAmount <= 0 {
		return common.NewInvalidInputError("totalAmount", "must be positive, got %d", summary.TotalAmount)
	}
	if summary.NetPaymentAmount() <= 0 {
		return common.NewInvalidInputError("discounts", "discounts exceed the billed total")
	}
	if summary.PaymentDueDate.Before(summary.ClosingDate) {
		return common.NewInvalidInputError("paymentDueDate", "due date precedes closing date")
	}
	if _, err := time.Parse("2006-01", summary.BillingMonth); err != nil {
		return common.NewInvalidInputError("billingMonth", "want YYYY-MM, got %q", summary.BillingMonth)
	}
	return nil
}
