package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mizuiro-dev/zenibako/internal/alert"
	"github.com/mizuiro-dev/zenibako/internal/model"
	"github.com/mizuiro-dev/zenibako/internal/reconcile"
)

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile [summary.json...]",
		Short: "Match card billing summaries against bank withdrawals",
		Long: `Prove that each monthly card bill was actually paid by finding the
matching withdrawal on the paying bank account. Each input file holds
one card summary (or an array of them) as exported from the issuer.

Unmatched or mismatched bills raise alerts and move the bill's payment
status accordingly.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runReconcile,
	}

	cmd.Flags().String("account", "", "Bank account ID the card is paid from (required)")
	cmd.Flags().StringSlice("issuer-alias", nil, "Extra issuer names to match in withdrawal text")
	cmd.Flags().Bool("json", false, "Print full reconciliation results as JSON")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func loadSummaries(path string) ([]model.MonthlyCardSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var many []model.MonthlyCardSummary
	if err := json.Unmarshal(data, &many); err == nil {
		return many, nil
	}
	var one model.MonthlyCardSummary
	if err := json.Unmarshal(data, &one); err != nil {
		return nil, fmt.Errorf("%s is not a card summary or summary array: %w", path, err)
	}
	return []model.MonthlyCardSummary{one}, nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	accountID, _ := cmd.Flags().GetString("account")
	issuerAliases, _ := cmd.Flags().GetStringSlice("issuer-alias")
	asJSON, _ := cmd.Flags().GetBool("json")
	ctx := cmd.Context()

	var summaries []model.MonthlyCardSummary
	for _, path := range args {
		loaded, err := loadSummaries(path)
		if err != nil {
			return err
		}
		summaries = append(summaries, loaded...)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	cfg := reconcileConfig()
	cfg.IssuerAliases = append(cfg.IssuerAliases, issuerAliases...)
	matcher := reconcile.NewMatcher(cfg)
	generator := alert.NewGenerator(alert.DefaultConfig())
	now := time.Now()

	var results []*model.ReconciliationResult
	for _, summary := range summaries {
		result, err := matcher.ReconcileWithSource(ctx, summary, store, accountID)
		if err != nil {
			return fmt.Errorf("reconciliation of %s %s failed: %w", summary.CardName, summary.BillingMonth, err)
		}
		results = append(results, result)

		next := reconcile.NextPaymentStatus(summary.PaymentStatus, result, now)
		if a := generator.FromReconciliation(result, now); a != nil {
			if err := store.SaveAlert(ctx, a); err != nil {
				return fmt.Errorf("failed to save alert: %w", err)
			}
		}
		if next == model.PaymentStatusOverdue {
			if a := generator.FromOverdueSummary(&summary, now); a != nil {
				if err := store.SaveAlert(ctx, a); err != nil {
					return fmt.Errorf("failed to save alert: %w", err)
				}
			}
		}

		if asJSON {
			continue
		}
		printResult(cmd, result, next)
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	return nil
}

func printResult(cmd *cobra.Command, result *model.ReconciliationResult, next model.PaymentStatus) {
	s := result.Summary
	switch {
	case result.Matched && result.Discrepancy == nil:
		cmd.Printf("✓ %s %s: paid (confidence %d) -> %s\n",
			s.CardName, s.BillingMonth, result.Confidence, next)
	case result.Matched:
		cmd.Printf("△ %s %s: paid %d円 of %d円 (difference %+d円) -> %s\n",
			s.CardName, s.BillingMonth,
			result.Discrepancy.ActualAmount, result.Discrepancy.ExpectedAmount,
			result.Discrepancy.Difference, next)
	default:
		cmd.Printf("✗ %s %s: payment of %d円 not found -> %s\n",
			s.CardName, s.BillingMonth, s.NetPaymentAmount(), next)
	}
	if result.MultipleCandidates() {
		cmd.Printf("  %d plausible withdrawals found; confirm the match with 'zenibako alerts'.\n",
			result.CandidateCount)
	}
}
