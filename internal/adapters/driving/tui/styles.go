package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains pre-configured lipgloss styles for the chat view.
type Styles struct {
	// Header style for the title bar.
	Header lipgloss.Style

	// Status style for the header status segment.
	Status lipgloss.Style

	// Notice style for the operator advisory banner.
	Notice lipgloss.Style

	// Query style for the user's questions in the transcript.
	Query lipgloss.Style

	// Error style for failed turns.
	Error lipgloss.Style

	// Input style for the prompt line.
	Input lipgloss.Style

	// Help style for the key hints.
	Help lipgloss.Style
}

// DefaultStyles returns the default chat styling.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086")),
		Notice: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9E2AF")),
		Query: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#06B6D4")),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8")),
		Input: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#45475A")).
			Padding(0, 1),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086")),
	}
}
