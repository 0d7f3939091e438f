package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mizuiro-dev/zenibako/internal/model"
)

func merchantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merchants",
		Short: "Manage the merchant directory",
		Long: `The merchant directory is the highest-priority classification
signal: a transaction whose description matches a merchant (or one of
its aliases) is classified with that merchant's stored confidence.`,
	}

	cmd.AddCommand(merchantsAddCmd())
	cmd.AddCommand(merchantsListCmd())
	return cmd
}

func merchantsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add or update a merchant",
		Args:  cobra.ExactArgs(1),
		RunE:  runMerchantsAdd,
	}

	cmd.Flags().String("category", "expense", "Main category type of the merchant's subcategory")
	cmd.Flags().String("subcategory", "", "Subcategory name to classify this merchant into (required)")
	cmd.Flags().StringSlice("alias", nil, "Statement text variants that identify this merchant")
	cmd.Flags().Float64("weight", 0.9, "Classification confidence for a directory hit (0-1)")
	cmd.Flags().String("id", "", "Merchant ID (defaults to a new UUID; pass an existing ID to update)")
	_ = cmd.MarkFlagRequired("subcategory")
	return cmd
}

func runMerchantsAdd(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	category, _ := cmd.Flags().GetString("category")
	subcategoryName, _ := cmd.Flags().GetString("subcategory")
	aliases, _ := cmd.Flags().GetStringSlice("alias")
	weight, _ := cmd.Flags().GetFloat64("weight")
	id, _ := cmd.Flags().GetString("id")
	ctx := cmd.Context()

	ct := model.CategoryType(category)
	if !ct.Valid() {
		return fmt.Errorf("unknown category type %q", category)
	}
	if weight <= 0 || weight > 1 {
		return fmt.Errorf("weight must be in (0, 1], got %g", weight)
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	sub, err := store.SubcategoryByName(ctx, ct, subcategoryName)
	if err != nil {
		return fmt.Errorf("subcategory %s/%s: %w", category, subcategoryName, err)
	}

	if id == "" {
		id = uuid.NewString()
	}
	merchant := &model.Merchant{
		ID:                   id,
		Name:                 name,
		Aliases:              aliases,
		DefaultSubcategoryID: sub.ID,
		ConfidenceWeight:     weight,
	}
	if err := store.SaveMerchant(ctx, merchant); err != nil {
		return fmt.Errorf("failed to save merchant: %w", err)
	}

	cmd.Printf("Saved merchant %q -> %s (weight %.2f, %d alias(es)).\n",
		name, sub.Name, weight, len(aliases))
	return nil
}

func merchantsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the merchant directory",
		RunE:  runMerchantsList,
	}
}

func runMerchantsList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	merchants, err := store.GetAllMerchants(ctx)
	if err != nil {
		return fmt.Errorf("failed to list merchants: %w", err)
	}
	if len(merchants) == 0 {
		cmd.Println("No merchants. Add one with 'zenibako merchants add'.")
		return nil
	}

	for _, m := range merchants {
		sub, err := store.SubcategoryByID(ctx, m.DefaultSubcategoryID)
		subName := "?"
		if err == nil {
			subName = sub.Name
		}
		cmd.Printf("%-30s %-14s %.2f  %s\n", m.Name, subName, m.ConfidenceWeight, strings.Join(m.Aliases, ", "))
	}
	return nil
}
