package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Enter      key.Binding
	Tab        key.Binding
	Search     key.Binding
	AddContact key.Binding
	Group      key.Binding
	Settings   key.Binding
	Refresh    key.Binding
	Logout     key.Binding
	Submit     key.Binding
	Close      key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Enter:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open/send")),
		Tab:        key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "focus")),
		Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		AddContact: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add contact")),
		Group:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "new group")),
		Settings:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "picture")),
		Refresh:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Logout:     key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "logout")),
		Submit:     key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "create")),
		Close:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Enter, k.Search, k.AddContact, k.Group, k.Settings, k.Logout, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Tab},
		{k.Search, k.AddContact, k.Group, k.Settings},
		{k.Refresh, k.Logout, k.Close, k.Quit},
	}
}
