package classify

import (
	"context"
	"strings"

	"github.com/mizuiro-dev/zenibako/internal/model"
)

// KeywordRule binds one category-indicative keyword to a subcategory.
// Keywords are stored in normalized form.
type KeywordRule struct {
	Keyword     string
	Subcategory model.Subcategory
}

// KeywordClassifier scans normalized descriptions for known keywords.
// When several keywords match, the longest one wins; an exact match of
// the whole description scores a higher confidence tier than a substring.
type KeywordClassifier struct {
	rules             []KeywordRule
	exactConfidence   float64
	partialConfidence float64
}

// NewKeywordClassifier creates a keyword signal over the given rules.
func NewKeywordClassifier(rules []KeywordRule, exactConfidence, partialConfidence float64) *KeywordClassifier {
	normalized := make([]KeywordRule, 0, len(rules))
	for _, r := range rules {
		r.Keyword = NormalizeDescription(r.Keyword)
		if r.Keyword == "" {
			continue
		}
		normalized = append(normalized, r)
	}
	return &KeywordClassifier{
		rules:             normalized,
		exactConfidence:   exactConfidence,
		partialConfidence: partialConfidence,
	}
}

// Name identifies the signal in logs and error messages.
func (k *KeywordClassifier) Name() string { return "keyword" }

// Evaluate scans the description for the longest matching keyword whose
// subcategory belongs to the transaction's main category.
func (k *KeywordClassifier) Evaluate(_ context.Context, req Request) (*model.ClassificationResult, error) {
	if req.Normalized == "" {
		return nil, nil
	}

	var best *KeywordRule
	for i := range k.rules {
		rule := &k.rules[i]
		if rule.Subcategory.CategoryType != req.MainCategory || !rule.Subcategory.IsActive {
			continue
		}
		if !strings.Contains(req.Normalized, rule.Keyword) {
			continue
		}
		if best == nil || betterKeyword(rule, best) {
			best = rule
		}
	}
	if best == nil {
		return nil, nil
	}

	confidence := k.partialConfidence
	if req.Normalized == best.Keyword {
		confidence = k.exactConfidence
	}

	return &model.ClassificationResult{
		Subcategory: best.Subcategory,
		Confidence:  confidence,
		Reason:      model.ReasonKeywordMatch,
	}, nil
}

// betterKeyword orders matches: longest keyword first, then lexicographic
// so equal-length ties are deterministic.
func betterKeyword(candidate, current *KeywordRule) bool {
	if len(candidate.Keyword) != len(current.Keyword) {
		return len(candidate.Keyword) > len(current.Keyword)
	}
	return candidate.Keyword < current.Keyword
}
