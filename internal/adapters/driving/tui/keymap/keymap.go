// Package keymap holds the dashboard's key bindings.
package keymap

import (
	"slices"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap lists every binding the dashboard reacts to. Query opens the
// search input for the selected channel; Submit runs it.
type KeyMap struct {
	Quit, Help, Back key.Binding
	Up, Down         key.Binding
	Query, Submit    key.Binding
	Refresh          key.Binding
}

func bind(hint, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(hint, desc))
}

func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:    bind("q", "quit", "q", "ctrl+c"),
		Help:    bind("?", "help", "?"),
		Back:    bind("esc", "back", "esc"),
		Up:      bind("↑/k", "up", "up", "k"),
		Down:    bind("↓/j", "down", "down", "j"),
		Query:   bind("/", "search channel", "/", "enter"),
		Submit:  bind("enter", "search", "enter"),
		Refresh: bind("r", "refresh", "r"),
	}
}

// ShortHelp is shown in the status bar on the dashboard.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Query, k.Refresh, k.Help, k.Quit}
}

// SearchHelp is shown in the status bar while a query is being typed.
func (k *KeyMap) SearchHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Back}
}

// FullHelp is the help view, one column per group.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Query},
		{k.Submit, k.Refresh, k.Back},
		{k.Help, k.Quit},
	}
}

// Matches reports whether the pressed key is one of binding's keys.
func Matches(pressed string, binding key.Binding) bool {
	return slices.Contains(binding.Keys(), pressed)
}
