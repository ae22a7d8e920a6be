// Package ui renders tod state for the terminal.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/josephgoksu/tod/models"
)

var (
	// Colors
	ColorPrimary   = lipgloss.Color("205") // Pink
	ColorSecondary = lipgloss.Color("241") // Gray
	ColorSuccess   = lipgloss.Color("42")  // Green
	ColorError     = lipgloss.Color("160") // Red
	ColorWarning   = lipgloss.Color("214") // Orange/Yellow
	ColorText      = lipgloss.Color("252") // White/Gray
	ColorBlue      = lipgloss.Color("75")  // Blue for in-progress work

	// Base Styles
	StyleTitle   = lipgloss.NewStyle().Foreground(ColorText).Bold(true)
	StyleSubtle  = lipgloss.NewStyle().Foreground(ColorSecondary)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)
	StyleText    = lipgloss.NewStyle().Foreground(ColorText)

	StyleHeader = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	StyleTag = lipgloss.NewStyle().Foreground(ColorPrimary)
)

// StatusStyle returns the style used for a task status.
func StatusStyle(s models.TaskStatus) lipgloss.Style {
	switch s {
	case models.StatusDone:
		return StyleSuccess
	case models.StatusInProgress:
		return lipgloss.NewStyle().Foreground(ColorBlue)
	default:
		return StyleText
	}
}

// StatusIcon returns a one-character marker for a task status.
func StatusIcon(s models.TaskStatus) string {
	switch s {
	case models.StatusDone:
		return "✓"
	case models.StatusInProgress:
		return "◐"
	default:
		return "○"
	}
}
