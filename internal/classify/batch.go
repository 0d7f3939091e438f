package classify

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mizuiro-dev/zenibako/internal/model"
)

// BatchClassificationItem is one transaction in a batch request. The JSON
// field names are an external contract; collaborators depend on them.
type BatchClassificationItem struct {
	Date          *time.Time         `json:"date,omitempty"`
	TransactionID string             `json:"transactionId"`
	Description   string             `json:"description"`
	MainCategory  model.CategoryType `json:"mainCategory"`
	Amount        int64              `json:"amount"`
}

// BatchClassificationRequest classifies many transactions in one call.
type BatchClassificationRequest struct {
	AccountID string                    `json:"accountId,omitempty"`
	Items     []BatchClassificationItem `json:"items"`
}

// BatchItemResult reports one item's outcome. A failed item carries its
// error message; siblings are unaffected.
type BatchItemResult struct {
	Result        *model.ClassificationResult `json:"result,omitempty"`
	TransactionID string                      `json:"transactionId"`
	Error         string                      `json:"error,omitempty"`
	Success       bool                        `json:"success"`
}

// BatchSummary counts outcomes across the whole batch.
type BatchSummary struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failure int `json:"failure"`
}

// BatchClassificationResponse is the per-item results plus the summary,
// in request order.
type BatchClassificationResponse struct {
	Results []BatchItemResult `json:"results"`
	Summary BatchSummary      `json:"summary"`
}

// ClassifyBatch applies Classify to every item. Items are independent, so
// they run across a bounded worker pool; one item's InvalidInputError is
// captured in its own result and never aborts siblings. A canceled
// context stops unstarted items, which then report the cancellation.
func (o *Orchestrator) ClassifyBatch(ctx context.Context, req BatchClassificationRequest) BatchClassificationResponse {
	results := make([]BatchItemResult, len(req.Items))

	var g errgroup.Group
	g.SetLimit(o.batchWorkers)
	for i, item := range req.Items {
		i, item := i, item
		g.Go(func() error {
			results[i] = o.classifyItem(ctx, req.AccountID, item)
			return nil
		})
	}
	_ = g.Wait()

	summary := BatchSummary{Total: len(results)}
	for i := range results {
		if results[i].Success {
			summary.Success++
		} else {
			summary.Failure++
		}
	}

	return BatchClassificationResponse{Results: results, Summary: summary}
}

func (o *Orchestrator) classifyItem(ctx context.Context, accountID string, item BatchClassificationItem) BatchItemResult {
	if err := ctx.Err(); err != nil {
		return BatchItemResult{TransactionID: item.TransactionID, Error: err.Error()}
	}

	result, err := o.Classify(ctx, Request{
		TransactionID: item.TransactionID,
		AccountID:     accountID,
		Description:   item.Description,
		Amount:        item.Amount,
		MainCategory:  item.MainCategory,
		Date:          item.Date,
	})
	if err != nil {
		return BatchItemResult{TransactionID: item.TransactionID, Error: err.Error()}
	}
	return BatchItemResult{TransactionID: item.TransactionID, Success: true, Result: result}
}
