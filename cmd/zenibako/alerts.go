package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mizuiro-dev/zenibako/internal/model"
	"github.com/mizuiro-dev/zenibako/internal/service"
	"github.com/mizuiro-dev/zenibako/internal/tui"
)

func alertsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Triage reconciliation and classification alerts",
		Long: `Without a subcommand, opens the interactive triage screen where
alerts can be read and resolved. Subcommands cover the same operations
non-interactively for scripting.`,
		RunE: runAlertsTUI,
	}

	cmd.AddCommand(alertsListCmd())
	cmd.AddCommand(alertsReadCmd())
	cmd.AddCommand(alertsResolveCmd())
	return cmd
}

func runAlertsTUI(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	return tui.Run(ctx, store)
}

func alertsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List alerts, newest first",
		RunE:  runAlertsList,
	}

	cmd.Flags().Bool("all", false, "Include resolved alerts")
	cmd.Flags().String("min-level", "", "Minimum level (INFO, WARNING, ERROR, CRITICAL)")
	cmd.Flags().String("card", "", "Limit to one card ID")
	cmd.Flags().Int("limit", 0, "Maximum number of alerts to show")
	return cmd
}

func runAlertsList(cmd *cobra.Command, _ []string) error {
	all, _ := cmd.Flags().GetBool("all")
	minLevel, _ := cmd.Flags().GetString("min-level")
	cardID, _ := cmd.Flags().GetString("card")
	limit, _ := cmd.Flags().GetInt("limit")
	ctx := cmd.Context()

	filter := service.AlertFilter{CardID: cardID, Limit: limit}
	if minLevel != "" {
		level := model.AlertLevel(minLevel)
		if level.Severity() < 0 {
			return fmt.Errorf("unknown alert level %q", minLevel)
		}
		filter.MinLevel = &level
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	alerts, err := store.GetAlerts(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list alerts: %w", err)
	}

	shown := 0
	for _, a := range alerts {
		if !all && a.Status == model.AlertStatusResolved {
			continue
		}
		marker := " "
		if a.Status == model.AlertStatusUnread {
			marker = "●"
		}
		cmd.Printf("%s %-8s %-36s %-10s %s\n", marker, a.Level, a.ID, a.Status, a.Title)
		shown++
	}
	if shown == 0 {
		cmd.Println("No alerts.")
	}
	return nil
}

func alertsReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read [alert-id]",
		Short: "Mark an alert as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateAlert(cmd, args[0], model.AlertStatusRead)
		},
	}
}

func alertsResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve [alert-id]",
		Short: "Mark an alert as resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateAlert(cmd, args[0], model.AlertStatusResolved)
		},
	}
}

func updateAlert(cmd *cobra.Command, id string, status model.AlertStatus) error {
	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := store.UpdateAlertStatus(ctx, id, status); err != nil {
		return err
	}
	cmd.Printf("Alert %s is now %s.\n", id, status)
	return nil
}
