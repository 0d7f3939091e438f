package classify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mizuiro-dev/zenibako/internal/common"
	"github.com/mizuiro-dev/zenibako/internal/model"
	"github.com/mizuiro-dev/zenibako/internal/service"
)

// MerchantMatcher resolves a normalized description against the merchant
// directory, first by canonical name and then by alias. A hit carries the
// merchant's stored confidence weight.
type MerchantMatcher struct {
	directory     service.MerchantDirectory
	subcategories service.SubcategoryDirectory
}

// NewMerchantMatcher creates the highest-priority classification signal.
func NewMerchantMatcher(directory service.MerchantDirectory, subcategories service.SubcategoryDirectory) *MerchantMatcher {
	return &MerchantMatcher{directory: directory, subcategories: subcategories}
}

// Name identifies the signal in logs and error messages.
func (m *MerchantMatcher) Name() string { return "merchant" }

// Evaluate looks up the normalized description in the merchant directory.
func (m *MerchantMatcher) Evaluate(ctx context.Context, req Request) (*model.ClassificationResult, error) {
	if req.Normalized == "" {
		return nil, nil
	}

	merchant, err := m.directory.Lookup(ctx, req.Normalized)
	if errors.Is(err, common.ErrNotFound) {
		merchant, err = m.directory.FindByAlias(ctx, req.Normalized)
	}
	if errors.Is(err, common.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	sub, err := m.subcategories.SubcategoryByID(ctx, merchant.DefaultSubcategoryID)
	if errors.Is(err, common.ErrNotFound) {
		// Directory points at a subcategory that no longer exists; let
		// lower-priority signals have a go instead of failing the pipeline.
		slog.Warn("merchant has dangling default subcategory",
			"merchant", merchant.Name, "subcategory_id", merchant.DefaultSubcategoryID)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if !sub.IsActive || sub.CategoryType != req.MainCategory {
		return nil, nil
	}

	return &model.ClassificationResult{
		Subcategory:  *sub,
		Confidence:   merchant.ConfidenceWeight,
		Reason:       model.ReasonMerchantMatch,
		MerchantID:   &merchant.ID,
		MerchantName: &merchant.Name,
	}, nil
}
