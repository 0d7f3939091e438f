package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the triage keyboard shortcuts.
type KeyMap struct {
	Up           key.Binding
	Down         key.Binding
	MarkRead     key.Binding
	Resolve      key.Binding
	ToggleHidden key.Binding
	Refresh      key.Binding
	ToggleHelp   key.Binding
	Quit         key.Binding
	ForceQuit    key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "mark read"),
		),
		Resolve: key.NewBinding(
			key.WithKeys("x", "enter"),
			key.WithHelp("x/Enter", "resolve"),
		),
		ToggleHidden: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "show resolved"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("Ctrl+R", "reload"),
		),
		ToggleHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q/Esc", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("Ctrl+C", "force quit"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.MarkRead, k.Resolve, k.ToggleHidden, k.Quit}
}

// FullHelp returns all key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down},
		{k.MarkRead, k.Resolve, k.ToggleHidden},
		{k.Refresh, k.ToggleHelp, k.Quit},
	}
}
