package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings for the TUI.
type KeyMap struct {
	// Messages
	Test        key.Binding
	Numbered    key.Binding
	FastForward key.Binding

	// Global
	Quit key.Binding
	Help key.Binding
}

// ShortHelp returns a short help message.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Test, k.Numbered, k.FastForward, k.Help, k.Quit}
}

// FullHelp returns a full help message.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Test, k.Numbered, k.FastForward},
		{k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Test: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "test message"),
		),
		Numbered: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new message"),
		),
		FastForward: key.NewBinding(
			key.WithKeys("f", "right"),
			key.WithHelp("f", "skip 1s"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
