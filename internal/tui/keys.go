package tui

import "github.com/charmbracelet/bubbles/key"

// chatKeyMap holds key bindings for the chat page
type chatKeyMap struct {
	send     key.Binding
	quit     key.Binding
	pageUp   key.Binding
	pageDown key.Binding
}

func newChatKeyMap() *chatKeyMap {
	return &chatKeyMap{
		send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Send"),
		),
		quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "Quit"),
		),
		pageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "Scroll up"),
		),
		pageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "Scroll down"),
		),
	}
}
