// Package classify implements the transaction classification engine: a
// priority-ordered pipeline of independent signal producers that turns a
// raw description and amount into exactly one ranked subcategory with a
// confidence score and an auditable reason.
package classify

import (
	"context"
	"time"

	"github.com/mizuiro-dev/zenibako/internal/model"
)

// Request is one transaction to classify plus the context the signals
// need. Normalized is filled in by the orchestrator before signals run.
type Request struct {
	Date          *time.Time
	TransactionID string
	AccountID     string
	Description   string
	Normalized    string
	MainCategory  model.CategoryType
	Amount        int64
}

// Signal is one producer in the classification pipeline. Evaluate returns
// a nil result (with nil error) when the signal has nothing to say about
// the transaction; the pipeline short-circuits on the first non-nil
// result, so signal order is the priority order.
type Signal interface {
	Name() string
	Evaluate(ctx context.Context, req Request) (*model.ClassificationResult, error)
}
