package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	// Scan
	Reset  key.Binding
	Switch key.Binding
	Manual key.Binding

	// Input
	Escape key.Binding
	Enter  key.Binding

	// Meta
	Help key.Binding
	Quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Reset: key.NewBinding(
			key.WithKeys("r", "enter"),
			key.WithHelp("r/enter", "scan again"),
		),
		Switch: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "switch sensor"),
		),
		Manual: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "type a code"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "look up"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k keyMap) helpText() string {
	format := func(b key.Binding) string {
		h := b.Help()
		return "  " + padRight(h.Key, 12) + h.Desc
	}

	return `Scanning
` + format(k.Reset) + `
` + format(k.Switch) + `
` + format(k.Manual) + `

Manual entry
` + format(k.Enter) + `
` + format(k.Escape) + `

` + format(k.Help) + `
` + format(k.Quit)
}
