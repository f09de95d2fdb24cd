package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	enter     key.Binding
	back      key.Binding
	toggle    key.Binding
	toggleAll key.Binding
	date      key.Binding
	kind      key.Binding
	perf      key.Binding
	reset     key.Binding
	connect   key.Binding
	aspect    key.Binding
	captions  key.Binding
	watermark key.Binding
	download  key.Binding
	upload    key.Binding
	queue     key.Binding
	cancel    key.Binding
	restart   key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		enter:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "continue")),
		back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		toggleAll: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all")),
		date:      key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "date range")),
		kind:      key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "content type")),
		perf:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "performance")),
		reset:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "reset filters")),
		connect:   key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "connect")),
		aspect:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "aspect ratio")),
		captions:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "captions")),
		watermark: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "watermark")),
		download:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "download")),
		upload:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload")),
		queue:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "queue")),
		cancel:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "cancel job")),
		restart:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new transformation")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.enter, k.back},
		{k.toggle, k.toggleAll, k.date, k.kind, k.perf, k.reset},
		{k.download, k.upload, k.queue, k.cancel},
		{k.restart, k.quit},
	}
}
