package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mizuiro-dev/zenibako/internal/service"
)

// Run opens the alert triage screen and blocks until the user quits.
func Run(ctx context.Context, store service.AlertStore) error {
	if store == nil {
		return fmt.Errorf("alert store is required")
	}

	p := tea.NewProgram(NewModel(ctx, store), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("alert triage UI failed: %w", err)
	}
	return nil
}
