package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	UnfocusMessage key.Binding
	FocusMessage   key.Binding
	SubmitMessage  key.Binding
	NextSuggestion key.Binding
	ScrollUp       key.Binding
	ScrollDown     key.Binding
	SaveToFile     key.Binding

	Help key.Binding
	Quit key.Binding
}

var DefaultKeyMap = KeyMap{
	UnfocusMessage: key.NewBinding(
		key.WithKeys("esc", "ctrl+g"),
		key.WithHelp("esc", "scroll"),
	),
	FocusMessage: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "type"),
	),
	SubmitMessage: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "send"),
	),
	NextSuggestion: key.NewBinding(
		key.WithKeys("ctrl+t"),
		key.WithHelp("ctrl+t", "suggestion"),
	),
	ScrollUp: key.NewBinding(
		key.WithKeys("shift+pgup"),
		key.WithHelp("shift+pgup", "scroll up"),
	),
	ScrollDown: key.NewBinding(
		key.WithKeys("shift+pgdown"),
		key.WithHelp("shift+pgdown", "scroll down"),
	),
	SaveToFile: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("ctrl+s", "save"),
	),
	Help: key.NewBinding(
		key.WithKeys("f1"),
		key.WithHelp("f1", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("ctrl+c", "quit"),
	),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.SubmitMessage, k.NextSuggestion, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.SubmitMessage, k.NextSuggestion, k.SaveToFile},
		{k.UnfocusMessage, k.FocusMessage, k.ScrollUp, k.ScrollDown},
		{k.Help, k.Quit},
	}
}
