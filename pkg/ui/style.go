package ui

import "github.com/charmbracelet/lipgloss"

type Style struct {
	UnselectedMessage lipgloss.Style
	FocusedMessage    lipgloss.Style
	UserMessage       lipgloss.Style
	ModelMessage      lipgloss.Style

	Header     lipgloss.Style
	Subtitle   lipgloss.Style
	Speaker    lipgloss.Style
	Attachment lipgloss.Style
	Muted      lipgloss.Style
	Error      lipgloss.Style
}

type BorderColors struct {
	Unselected string
	Focused    string
	User       string
	Model      string
}

func DefaultStyles() *Style {
	lightModeColors := BorderColors{
		Unselected: "#CCCCCC",
		Focused:    "#FFFF99", // Light yellow
		User:       "#A7C7E7",
		Model:      "#B4E4B4",
	}

	darkModeColors := BorderColors{
		Unselected: "#444444",
		Focused:    "#DDDD77",
		User:       "#4A6FA5",
		Model:      "#4E8A4E",
	}

	border := func(light, dark string) lipgloss.Style {
		return lipgloss.NewStyle().Border(lipgloss.NormalBorder()).
			Padding(0, 1).
			BorderForeground(lipgloss.AdaptiveColor{Light: light, Dark: dark})
	}

	return &Style{
		UnselectedMessage: border(lightModeColors.Unselected, darkModeColors.Unselected),
		FocusedMessage:    border(lightModeColors.Focused, darkModeColors.Focused),
		UserMessage:       border(lightModeColors.User, darkModeColors.User),
		ModelMessage:      border(lightModeColors.Model, darkModeColors.Model),

		Header:     lipgloss.NewStyle().Bold(true),
		Subtitle:   lipgloss.NewStyle().Italic(true),
		Speaker:    lipgloss.NewStyle().Bold(true),
		Attachment: lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#4E8A4E", Dark: "#B4E4B4"}),
		Muted:      lipgloss.NewStyle().Faint(true),
		Error:      lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#C0392B", Dark: "#FF6F61"}),
	}
}
