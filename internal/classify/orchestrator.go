package classify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mizuiro-dev/zenibako/internal/common"
	"github.com/mizuiro-dev/zenibako/internal/model"
	"github.com/mizuiro-dev/zenibako/internal/service"
)

// Config holds tuning for the classification pipeline.
type Config struct {
	Recurring                RecurringConfig
	ExactKeywordConfidence   float64
	PartialKeywordConfidence float64
	BatchWorkers             int
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Recurring:                DefaultRecurringConfig(),
		ExactKeywordConfidence:   0.85,
		PartialKeywordConfidence: 0.65,
		BatchWorkers:             4,
	}
}

// Orchestrator runs the signal producers in priority order and emits
// exactly one ClassificationResult per transaction. It never answers "no
// match": when every signal passes, the category's default subcategory is
// returned with confidence 0. The orchestrator is pure over its inputs
// and the read-only directory/history snapshots behind its signals.
type Orchestrator struct {
	subcategories service.SubcategoryDirectory
	signals       []Signal
	batchWorkers  int
}

// NewOrchestrator wires the standard pipeline: merchant, keyword,
// recurring, amount, in that fixed priority order.
func NewOrchestrator(
	merchants service.MerchantDirectory,
	subcategories service.SubcategoryDirectory,
	history service.TransactionHistory,
	keywordRules []KeywordRule,
	cfg Config,
) *Orchestrator {
	signals := []Signal{
		NewMerchantMatcher(merchants, subcategories),
		NewKeywordClassifier(keywordRules, cfg.ExactKeywordConfidence, cfg.PartialKeywordConfidence),
		NewRecurringPatternDetector(history, subcategories, cfg.Recurring),
		NewAmountInferenceEngine(subcategories, DefaultAmountRules()),
	}
	return NewOrchestratorWithSignals(subcategories, signals, cfg)
}

// NewOrchestratorWithSignals builds an orchestrator over a custom signal
// list. Adding a signal is an insertion here, not a new branch in the
// pipeline.
func NewOrchestratorWithSignals(subcategories service.SubcategoryDirectory, signals []Signal, cfg Config) *Orchestrator {
	workers := cfg.BatchWorkers
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		subcategories: subcategories,
		signals:       signals,
		batchWorkers:  workers,
	}
}

// Classify produces the single ranked answer for one transaction.
func (o *Orchestrator) Classify(ctx context.Context, req Request) (*model.ClassificationResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	req.Normalized = NormalizeDescription(req.Description)

	for _, sig := range o.signals {
		result, err := sig.Evaluate(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("%s signal: %w", sig.Name(), err)
		}
		if result == nil {
			continue
		}
		if result.Subcategory.CategoryType != req.MainCategory {
			// Signals enforce this themselves; a mismatch here is a bug in
			// the signal, not in the input. Skip it rather than emit a
			// subcategory outside the transaction's category.
			slog.Warn("signal returned subcategory outside main category",
				"signal", sig.Name(),
				"subcategory", result.Subcategory.Name,
				"main_category", req.MainCategory)
			continue
		}
		slog.Debug("classification signal fired",
			"signal", sig.Name(),
			"subcategory", result.Subcategory.Name,
			"confidence", result.Confidence)
		return result, nil
	}

	def, err := o.subcategories.DefaultSubcategory(ctx, req.MainCategory)
	if err != nil {
		return nil, fmt.Errorf("default subcategory for %s: %w", req.MainCategory, err)
	}
	return &model.ClassificationResult{
		Subcategory: *def,
		Confidence:  0.0,
		Reason:      model.ReasonDefault,
	}, nil
}

// validateRequest rejects malformed upstream data. A positive amount on
// an expense (or negative on income) contradicts the declared category
// and is reported as invalid input; transfers and investments legitimately
// appear on both sides and are exempt from the sign check.
func validateRequest(req Request) error {
	if strings.TrimSpace(req.Description) == "" {
		return common.NewInvalidInputError("description", "must not be empty")
	}
	if !req.MainCategory.Valid() {
		return common.NewInvalidInputError("mainCategory", "unknown category type %q", req.MainCategory)
	}
	if req.Amount == 0 {
		return common.NewInvalidInputError("amount", "must be non-zero")
	}

	switch req.MainCategory {
	case model.CategoryTypeIncome:
		if req.Amount < 0 {
			return common.NewInvalidInputError("amount", "negative amount on income transaction")
		}
	case model.CategoryTypeExpense:
		if req.Amount > 0 {
			return common.NewInvalidInputError("amount", "positive amount on expense transaction")
		}
	case model.CategoryTypeRepayment:
		if req.Amount > 0 {
			return common.NewInvalidInputError("amount", "positive amount on repayment transaction")
		}
	case model.CategoryTypeTransfer, model.CategoryTypeInvestment:
		// Both directions are legitimate.
	}
	return nil
}
