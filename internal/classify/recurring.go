package classify

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/mizuiro-dev/zenibako/internal/common"
	"github.com/mizuiro-dev/zenibako/internal/model"
	"github.com/mizuiro-dev/zenibako/internal/service"
)

// RecurringConfig tunes recurrence detection.
type RecurringConfig struct {
	// AmountTolerance is the relative band around the amount, e.g. 0.01
	// accepts prior amounts within ±1%.
	AmountTolerance float64
	// DayTolerance is the permitted day-of-month drift, wrapping over
	// month boundaries.
	DayTolerance int
	// LookbackDays bounds how far back history is consulted.
	LookbackDays int
	// MinOccurrences is how many prior hits are needed before the pattern
	// counts as recurring.
	MinOccurrences int
	BaseConfidence float64
	PerOccurrence  float64
	MaxConfidence  float64
}

// DefaultRecurringConfig returns the recurrence tuning used in production.
func DefaultRecurringConfig() RecurringConfig {
	return RecurringConfig{
		AmountTolerance: 0.01,
		DayTolerance:    3,
		LookbackDays:    180,
		MinOccurrences:  2,
		BaseConfidence:  0.5,
		PerOccurrence:   0.1,
		MaxConfidence:   0.9,
	}
}

// RecurringPatternDetector matches a transaction against the user's
// history: same sign, amount within tolerance, day-of-month within a few
// days. If enough prior occurrences agree on a subcategory, it is reused
// with a confidence that grows with the occurrence count.
type RecurringPatternDetector struct {
	history       service.TransactionHistory
	subcategories service.SubcategoryDirectory
	cfg           RecurringConfig
}

// NewRecurringPatternDetector creates the recurrence signal.
func NewRecurringPatternDetector(history service.TransactionHistory, subcategories service.SubcategoryDirectory, cfg RecurringConfig) *RecurringPatternDetector {
	return &RecurringPatternDetector{history: history, subcategories: subcategories, cfg: cfg}
}

// Name identifies the signal in logs and error messages.
func (r *RecurringPatternDetector) Name() string { return "recurring" }

// Evaluate counts prior history occurrences agreeing on a subcategory.
func (r *RecurringPatternDetector) Evaluate(ctx context.Context, req Request) (*model.ClassificationResult, error) {
	if req.Date == nil || req.AccountID == "" {
		return nil, nil
	}

	lookback := time.Duration(r.cfg.LookbackDays) * 24 * time.Hour
	history, err := r.history.RecentTransactions(ctx, req.AccountID, lookback)
	if err != nil {
		return nil, err
	}

	counts := make(map[int]int)
	for i := range history {
		prior := &history[i]
		if prior.SubcategoryID == nil || prior.ID == req.TransactionID {
			continue
		}
		if (prior.Amount < 0) != (req.Amount < 0) {
			continue
		}
		if !r.amountClose(prior.Amount, req.Amount) {
			continue
		}
		if dayDistance(prior.Date.Day(), req.Date.Day()) > r.cfg.DayTolerance {
			continue
		}
		counts[*prior.SubcategoryID]++
	}

	subID, count := bestCount(counts)
	if count < r.cfg.MinOccurrences {
		return nil, nil
	}

	sub, err := r.subcategories.SubcategoryByID(ctx, subID)
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !sub.IsActive || sub.CategoryType != req.MainCategory {
		return nil, nil
	}

	confidence := r.cfg.BaseConfidence + r.cfg.PerOccurrence*float64(count-r.cfg.MinOccurrences)
	if confidence > r.cfg.MaxConfidence {
		confidence = r.cfg.MaxConfidence
	}

	return &model.ClassificationResult{
		Subcategory: *sub,
		Confidence:  confidence,
		Reason:      model.ReasonRecurringPattern,
	}, nil
}

func (r *RecurringPatternDetector) amountClose(a, b int64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	abs := b
	if abs < 0 {
		abs = -abs
	}
	return float64(diff) <= r.cfg.AmountTolerance*float64(abs)
}

// dayDistance is the cyclic day-of-month distance, so the 1st and the
// 30th are close.
func dayDistance(a, b int) int {
	d := a - b
	if d < 0 {
		d = -d
	}
	if wrapped := 31 - d; wrapped < d {
		return wrapped
	}
	return d
}

// bestCount picks the subcategory with the most occurrences, lowest ID on
// ties so the result is deterministic.
func bestCount(counts map[int]int) (int, int) {
	ids := make([]int, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	bestID, best := 0, 0
	for _, id := range ids {
		if counts[id] > best {
			bestID, best = id, counts[id]
		}
	}
	return bestID, best
}
