package tui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	// Colors
	primaryColor   = lipgloss.Color("28")  // Green
	secondaryColor = lipgloss.Color("245") // Gray
	accentColor    = lipgloss.Color("214") // Orange
	doneColor      = lipgloss.Color("240") // Dim gray

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(secondaryColor)

	heroStyle = lipgloss.NewStyle().
			Padding(0, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(primaryColor)

	countStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	activeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	doneStyle = lipgloss.NewStyle().
			Foreground(doneColor).
			Strikethrough(true)

	breakStyle = lipgloss.NewStyle().
			Italic(true)

	normalStyle = lipgloss.NewStyle()

	helpStyle = lipgloss.NewStyle().
			Foreground(secondaryColor)

	phaseStyles = map[string]lipgloss.Style{
		"pre_school":  lipgloss.NewStyle().Foreground(accentColor),
		"in_progress": lipgloss.NewStyle().Foreground(primaryColor),
		"transition":  lipgloss.NewStyle().Foreground(accentColor),
		"done":        lipgloss.NewStyle().Foreground(doneColor),
	}
)

// PhaseStyle returns the style for a day phase name.
func PhaseStyle(phase string) lipgloss.Style {
	if style, ok := phaseStyles[phase]; ok {
		return style
	}
	return normalStyle
}
