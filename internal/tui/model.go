// Package tui is the interactive alert triage screen: a scrollable inbox
// of reconciliation and classification alerts that can be marked read or
// resolved without leaving the terminal.
package tui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mizuiro-dev/zenibako/internal/model"
	"github.com/mizuiro-dev/zenibako/internal/service"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	levelStyles = map[model.AlertLevel]lipgloss.Style{
		model.AlertLevelInfo:     lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		model.AlertLevelWarning:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		model.AlertLevelError:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		model.AlertLevelCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("201")).Bold(true),
	}

	selectedStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("62")).
			PaddingLeft(1)
	normalStyle = lipgloss.NewStyle().PaddingLeft(2)

	resolvedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Strikethrough(true)
	unreadStyle   = lipgloss.NewStyle().Bold(true)
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// alertItem adapts an alert to the list widget.
type alertItem struct {
	alert model.Alert
}

// FilterValue feeds the list's fuzzy filter.
func (i alertItem) FilterValue() string { return i.alert.Title + " " + i.alert.Message }

// alertDelegate renders one alert row: level badge, title, message.
type alertDelegate struct{}

func (d alertDelegate) Height() int                             { return 2 }
func (d alertDelegate) Spacing() int                            { return 1 }
func (d alertDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d alertDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(alertItem)
	if !ok {
		return
	}
	a := it.alert

	badge := levelStyles[a.Level].Render(fmt.Sprintf("[%s]", a.Level))
	title := a.Title
	switch a.Status {
	case model.AlertStatusUnread:
		title = unreadStyle.Render("● " + title)
	case model.AlertStatusRead:
		title = "○ " + title
	case model.AlertStatusResolved:
		title = resolvedStyle.Render("✓ " + title)
	}

	line := fmt.Sprintf("%s %s\n%s", badge, title, a.Message)
	if index == m.Index() {
		fmt.Fprint(w, selectedStyle.Render(line))
		return
	}
	fmt.Fprint(w, normalStyle.Render(line))
}

// Messages flowing through the update loop.
type (
	alertsLoadedMsg []model.Alert
	alertUpdatedMsg model.Alert
	errMsg          struct{ err error }
)

// Model is the bubbletea model for the triage screen.
type Model struct {
	ctx          context.Context
	store        service.AlertStore
	list         list.Model
	keys         KeyMap
	help         help.Model
	err          error
	showResolved bool
}

// NewModel creates the triage model backed by the given alert store.
func NewModel(ctx context.Context, store service.AlertStore) Model {
	l := list.New(nil, alertDelegate{}, 0, 0)
	l.Title = "アラート"
	l.Styles.Title = titleStyle
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetStatusBarItemName("alert", "alerts")

	return Model{
		ctx:   ctx,
		store: store,
		list:  l,
		keys:  DefaultKeyMap(),
		help:  help.New(),
	}
}

// Init loads the open alerts.
func (m Model) Init() tea.Cmd {
	return m.loadAlerts()
}

func (m Model) loadAlerts() tea.Cmd {
	ctx, store, showResolved := m.ctx, m.store, m.showResolved
	return func() tea.Msg {
		alerts, err := store.GetAlerts(ctx, service.AlertFilter{})
		if err != nil {
			return errMsg{err}
		}
		if !showResolved {
			open := alerts[:0]
			for _, a := range alerts {
				if a.Status != model.AlertStatusResolved {
					open = append(open, a)
				}
			}
			alerts = open
		}
		return alertsLoadedMsg(alerts)
	}
}

func (m Model) setStatus(id string, status model.AlertStatus) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		if err := store.UpdateAlertStatus(ctx, id, status); err != nil {
			return errMsg{err}
		}
		updated, err := store.GetAlert(ctx, id)
		if err != nil {
			return errMsg{err}
		}
		return alertUpdatedMsg(*updated)
	}
}

// Update handles key presses and command results.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
		return m, nil

	case alertsLoadedMsg:
		items := make([]list.Item, len(msg))
		for i, a := range msg {
			items[i] = alertItem{alert: a}
		}
		return m, m.list.SetItems(items)

	case alertUpdatedMsg:
		updated := model.Alert(msg)
		if !m.showResolved && updated.Status == model.AlertStatusResolved {
			m.list.RemoveItem(m.list.Index())
			return m, nil
		}
		for i, item := range m.list.Items() {
			if it, ok := item.(alertItem); ok && it.alert.ID == updated.ID {
				return m, m.list.SetItem(i, alertItem{alert: updated})
			}
		}
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		// Let the list's filter input swallow keys while active.
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.Quit), key.Matches(msg, m.keys.ForceQuit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.MarkRead):
			if it, ok := m.list.SelectedItem().(alertItem); ok {
				return m, m.setStatus(it.alert.ID, model.AlertStatusRead)
			}
			return m, nil
		case key.Matches(msg, m.keys.Resolve):
			if it, ok := m.list.SelectedItem().(alertItem); ok {
				return m, m.setStatus(it.alert.ID, model.AlertStatusResolved)
			}
			return m, nil
		case key.Matches(msg, m.keys.ToggleHidden):
			m.showResolved = !m.showResolved
			return m, m.loadAlerts()
		case key.Matches(msg, m.keys.Refresh):
			return m, m.loadAlerts()
		case key.Matches(msg, m.keys.ToggleHelp):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the inbox.
func (m Model) View() string {
	view := m.list.View() + "\n" + m.help.View(m.keys)
	if m.err != nil {
		view += "\n" + errStyle.Render("error: "+m.err.Error())
	}
	return view
}
