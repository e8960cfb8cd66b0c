package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles the view renders with.
type Styles struct {
	Title       lipgloss.Style
	Stat        lipgloss.Style
	Tab         lipgloss.Style
	ActiveTab   lipgloss.Style
	Header      lipgloss.Style
	Row         lipgloss.Style
	SelectedRow lipgloss.Style
	Overdue     lipgloss.Style
	Error       lipgloss.Style
	Muted       lipgloss.Style
	Prompt      lipgloss.Style
	Focused     lipgloss.Style
	Blurred     lipgloss.Style
}

// DefaultStyles is the built-in dark-terminal palette.
var DefaultStyles = Styles{
	Title:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
	Stat:        lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
	Tab:         lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("245")),
	ActiveTab:   lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("39")),
	Header:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
	Row:         lipgloss.NewStyle(),
	SelectedRow: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")),
	Overdue:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
	Error:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	Muted:       lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	Prompt:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214")),
	Focused:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("39")).Padding(0, 1),
	Blurred:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240")).Padding(0, 1),
}
