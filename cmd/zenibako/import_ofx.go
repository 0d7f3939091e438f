package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mizuiro-dev/zenibako/internal/model"
	"github.com/mizuiro-dev/zenibako/internal/ofx"
)

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import bank transactions from OFX/QFX files",
		Long: `Import bank account statements exported from your bank in OFX or
QFX format. Re-importing the same statement is safe: transactions are
deduplicated by content hash.

Examples:
  # Import a single statement
  zenibako import-ofx ~/Downloads/mizuiro_202501.ofx

  # Import everything in a directory
  zenibako import-ofx ~/Downloads/*.ofx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")
	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	ctx := cmd.Context()

	var files []string
	for _, pattern := range args {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, statErr := os.Stat(pattern); statErr == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return fmt.Errorf("no files found to import")
	}

	parser := ofx.NewParser()
	seen := make(map[string]bool)
	var transactions []model.Transaction

	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			slog.Error("Failed to open file", "file", path, "error", err)
			continue
		}
		parsed, err := parser.ParseFile(ctx, f)
		_ = f.Close()
		if err != nil {
			slog.Error("Failed to parse OFX file", "file", path, "error", err)
			continue
		}

		added := 0
		for _, txn := range parsed {
			if seen[txn.Hash] {
				continue
			}
			seen[txn.Hash] = true
			transactions = append(transactions, txn)
			added++
		}
		slog.Info("Parsed statement", "file", filepath.Base(path), "transactions", added)
	}

	if len(transactions) == 0 {
		return fmt.Errorf("no transactions found in %d file(s)", len(files))
	}

	if dryRun {
		cmd.Printf("Dry run: would import %d transaction(s) from %d file(s)\n", len(transactions), len(files))
		for _, txn := range transactions {
			cmd.Printf("  %s  %10d円  %s\n", txn.Date.Format("2006-01-02"), txn.Amount, txn.Description)
		}
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.SaveTransactions(ctx, transactions); err != nil {
		return fmt.Errorf("failed to save transactions: %w", err)
	}
	cmd.Printf("Imported %d transaction(s). Run 'zenibako classify' to categorize them.\n", len(transactions))
	return nil
}
