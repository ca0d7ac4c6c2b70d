package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tinytelemetry/pfwatch/internal/model"
)

var (
	ColorBlue   = lipgloss.Color("39")
	ColorGray   = lipgloss.Color("244")
	ColorGreen  = lipgloss.Color("42")
	ColorRed    = lipgloss.Color("196")
	ColorOrange = lipgloss.Color("208")
	ColorWhite  = lipgloss.Color("255")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorBlue)

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorGray).
			Padding(0, 1)

	chartTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite)

	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorGray)

	selectedRowStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("237")).
				Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	errorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	helpStyle = lipgloss.NewStyle().
			Foreground(ColorGray)
)

// actionColor is the colour used for an action in the table and chart.
func actionColor(a model.Action) lipgloss.Color {
	switch a {
	case model.ActionPass:
		return ColorGreen
	case model.ActionBlock:
		return ColorRed
	case model.ActionReject:
		return ColorOrange
	default:
		return ColorWhite
	}
}
