package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mizuiro-dev/zenibako/internal/alert"
	"github.com/mizuiro-dev/zenibako/internal/classify"
	"github.com/mizuiro-dev/zenibako/internal/common"
)

func classifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify imported transactions",
		Long: `Run every unclassified transaction through the classification
pipeline: merchant directory, keyword rules, recurring patterns and
amount heuristics, in that priority order. Results below the review
threshold raise an alert instead of being silently trusted.`,
		RunE: runClassify,
	}

	cmd.Flags().String("account", "", "Limit to one account ID")
	cmd.Flags().Float64("review-threshold", alert.DefaultConfig().LowConfidence, "Confidence below which a review alert is raised")
	cmd.Flags().BoolP("dry-run", "d", false, "Preview classifications without saving")
	return cmd
}

func runClassify(cmd *cobra.Command, _ []string) error {
	accountID, _ := cmd.Flags().GetString("account")
	threshold, _ := cmd.Flags().GetFloat64("review-threshold")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	orchestrator, err := newOrchestrator(ctx, store)
	if err != nil {
		return err
	}

	pending, err := store.GetTransactionsToClassify(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}
	if len(pending) == 0 {
		cmd.Println("No transactions need classification.")
		return nil
	}

	alertCfg := alert.DefaultConfig()
	alertCfg.LowConfidence = threshold
	generator := alert.NewGenerator(alertCfg)

	bar := progressbar.NewOptions(len(pending),
		progressbar.OptionSetDescription("Classifying"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	classified, skipped, flagged := 0, 0, 0
	for i := range pending {
		txn := &pending[i]
		date := txn.Date
		result, err := orchestrator.Classify(ctx, classify.Request{
			TransactionID: txn.ID,
			AccountID:     txn.AccountID,
			Description:   txn.Description,
			MainCategory:  txn.MainCategory,
			Amount:        txn.Amount,
			Date:          &date,
		})
		if err != nil {
			if common.IsInvalidInput(err) || errors.Is(err, common.ErrNotFound) {
				slog.Warn("Skipping unclassifiable transaction",
					"transaction_id", txn.ID, "error", err)
				skipped++
				_ = bar.Add(1)
				continue
			}
			return fmt.Errorf("classification failed for %s: %w", txn.ID, err)
		}

		if dryRun {
			cmd.Printf("%s  %10d円  %-30s -> %s (%.2f)\n",
				txn.Date.Format("2006-01-02"), txn.Amount, txn.Description,
				result.Subcategory.Name, result.Confidence)
			_ = bar.Add(1)
			continue
		}

		if err := store.ApplyClassification(ctx, txn.ID, result); err != nil {
			return fmt.Errorf("failed to apply classification for %s: %w", txn.ID, err)
		}
		classified++

		if a := generator.FromClassification(txn, result); a != nil {
			if err := store.SaveAlert(ctx, a); err != nil {
				return fmt.Errorf("failed to save alert: %w", err)
			}
			flagged++
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	if dryRun {
		return nil
	}
	cmd.Printf("Classified %d transaction(s), skipped %d, flagged %d for review.\n",
		classified, skipped, flagged)
	if flagged > 0 {
		cmd.Println("Run 'zenibako alerts' to review low-confidence classifications.")
	}
	return nil
}
