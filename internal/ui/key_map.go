package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	prev    key.Binding
	next    key.Binding
	first   key.Binding
	last    key.Binding
	compare key.Binding
	target  key.Binding
	enter   key.Binding
	back    key.Binding
	help    key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		prev:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous")),
		next:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
		first:   key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "first")),
		last:    key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "last")),
		compare: key.NewBinding(key.WithKeys("enter", "c"), key.WithHelp("enter", "compare")),
		target:  key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "change target")),
		enter:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.prev, k.next, k.compare, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.prev, k.next, k.first, k.last},
		{k.compare, k.target, k.back},
		{k.help, k.quit},
	}
}
