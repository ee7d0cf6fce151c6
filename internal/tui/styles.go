package tui

import "github.com/charmbracelet/lipgloss"

// Palette. Teal for the archive browser accent, amber/green/red for
// verification outcomes and diff markers.
var (
	accentColor = lipgloss.Color("#2DD4BF")
	textColor   = lipgloss.Color("#D4D4D8")
	fadedColor  = lipgloss.Color("#71717A")
	okColor     = lipgloss.Color("#34D399")
	badColor    = lipgloss.Color("#F87171")
)

var (
	appStyle = lipgloss.NewStyle().Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#082F2B")).
			Background(accentColor).
			Padding(0, 1)

	// Archive list rows
	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	normalStyle = lipgloss.NewStyle().
			Foreground(textColor)

	dimStyle = lipgloss.NewStyle().
			Foreground(fadedColor)

	helpStyle = lipgloss.NewStyle().
			Foreground(fadedColor).
			Padding(1, 0, 0, 0)

	// Verification outcome badges
	successBadge = lipgloss.NewStyle().
			Foreground(okColor).
			Bold(true)

	errorBadge = lipgloss.NewStyle().
			Foreground(badColor).
			Bold(true)

	// Diff member markers
	addedStyle = lipgloss.NewStyle().
			Foreground(okColor)

	deletedStyle = lipgloss.NewStyle().
			Foreground(badColor)
)
