package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all key bindings for the application
type KeyMap struct {
	// Navigation
	Up         key.Binding
	Down       key.Binding
	Enter      key.Binding
	SwitchPane key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding

	// Lists
	LoadMore key.Binding
	Refresh  key.Binding
	Filter   key.Binding
	Search   key.Binding
	Sort     key.Binding
	Recent   key.Binding

	// Cases
	NewCase     key.Binding
	CancelCase  key.Binding
	DestroyCase key.Binding
	OpenBrowser key.Binding

	// Comments
	AddComment    key.Binding
	EditComment   key.Binding
	DeleteComment key.Binding

	// Application
	Quit   key.Binding
	Help   key.Binding
	Escape key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("j/k", "move"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/k", "move"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open case"),
		),
		SwitchPane: key.NewBinding(
			key.WithKeys("tab", "shift+tab"),
			key.WithHelp("tab", "switch pane"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "scroll details up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "scroll details down"),
		),

		LoadMore: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "load more"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Filter: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter"),
		),
		Search: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "search cases"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort comments"),
		),
		Recent: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "recent cases"),
		),

		NewCase: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new case"),
		),
		CancelCase: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "cancel case"),
		),
		DestroyCase: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "destroy case"),
		),
		OpenBrowser: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "open in browser"),
		),

		AddComment: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add comment"),
		),
		EditComment: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit comment"),
		),
		DeleteComment: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "delete comment"),
		),

		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel/clear"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp implements help.KeyMap. Columns: navigation, cases, comments, other.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Down, k.SwitchPane, k.Enter, k.LoadMore, k.Refresh, k.ScrollUp, k.ScrollDown},
		{k.NewCase, k.CancelCase, k.DestroyCase, k.Search, k.OpenBrowser, k.Recent},
		{k.AddComment, k.EditComment, k.DeleteComment, k.Sort, k.Filter},
		{k.Escape, k.Help, k.Quit},
	}
}

// Keys is the global key bindings instance
var Keys = DefaultKeyMap()
