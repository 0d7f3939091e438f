package classify

import (
	"context"
	"errors"

	"github.com/mizuiro-dev/zenibako/internal/common"
	"github.com/mizuiro-dev/zenibako/internal/model"
	"github.com/mizuiro-dev/zenibako/internal/service"
)

// AmountRule maps an absolute-amount band within one main category to a
// likely subcategory. Rules are evaluated in order; the first containing
// band wins.
type AmountRule struct {
	CategoryType    model.CategoryType
	SubcategoryName string
	// MinAbs/MaxAbs bound the absolute amount in minor units. MaxAbs 0
	// means unbounded.
	MinAbs     int64
	MaxAbs     int64
	Confidence float64
}

// DefaultAmountRules returns the magnitude heuristics applied when no
// stronger signal fires. Confidence stays low or medium: magnitude alone
// is weak evidence.
func DefaultAmountRules() []AmountRule {
	return []AmountRule{
		{CategoryType: model.CategoryTypeIncome, SubcategoryName: "給与", MinAbs: 150_000, Confidence: 0.5},
		{CategoryType: model.CategoryTypeIncome, SubcategoryName: "利息・配当", MaxAbs: 1_000, Confidence: 0.4},
		{CategoryType: model.CategoryTypeExpense, SubcategoryName: "住居", MinAbs: 60_000, Confidence: 0.3},
		{CategoryType: model.CategoryTypeInvestment, SubcategoryName: "投資信託", MinAbs: 10_000, Confidence: 0.4},
		{CategoryType: model.CategoryTypeRepayment, SubcategoryName: "カード返済", MinAbs: 1_000, Confidence: 0.4},
	}
}

// AmountInferenceEngine infers a subcategory from amount magnitude and
// sign alone. Lowest-priority signal before the default fallback.
type AmountInferenceEngine struct {
	subcategories service.SubcategoryDirectory
	rules         []AmountRule
}

// NewAmountInferenceEngine creates the amount heuristic signal.
func NewAmountInferenceEngine(subcategories service.SubcategoryDirectory, rules []AmountRule) *AmountInferenceEngine {
	return &AmountInferenceEngine{subcategories: subcategories, rules: rules}
}

// Name identifies the signal in logs and error messages.
func (a *AmountInferenceEngine) Name() string { return "amount" }

// Evaluate applies the first amount band that contains the transaction.
func (a *AmountInferenceEngine) Evaluate(ctx context.Context, req Request) (*model.ClassificationResult, error) {
	abs := req.Amount
	if abs < 0 {
		abs = -abs
	}

	for _, rule := range a.rules {
		if rule.CategoryType != req.MainCategory {
			continue
		}
		if abs < rule.MinAbs {
			continue
		}
		if rule.MaxAbs > 0 && abs > rule.MaxAbs {
			continue
		}

		sub, err := a.subcategories.SubcategoryByName(ctx, rule.CategoryType, rule.SubcategoryName)
		if errors.Is(err, common.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !sub.IsActive {
			continue
		}

		return &model.ClassificationResult{
			Subcategory: *sub,
			Confidence:  rule.Confidence,
			Reason:      model.ReasonAmountInference,
		}, nil
	}
	return nil, nil
}
