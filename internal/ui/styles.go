// Package ui provides consistent styling for the wayout CLI
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette - consistent across the application
var (
	ColorPrimary = lipgloss.Color("39")  // Bright blue
	ColorSuccess = lipgloss.Color("82")  // Green
	ColorWarning = lipgloss.Color("214") // Orange
	ColorError   = lipgloss.Color("196") // Red
	ColorInfo    = lipgloss.Color("86")  // Cyan

	ColorText   = lipgloss.Color("252") // Light gray
	ColorSubtle = lipgloss.Color("241") // Medium gray

	ColorActive   = ColorSuccess
	ColorInactive = ColorSubtle
)

var (
	TextStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(ColorSubtle)

	BoldStyle = lipgloss.NewStyle().
			Bold(true)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SubheaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)

	KeyStyle = lipgloss.NewStyle().
			Foreground(ColorSubtle).
			Width(14)

	ListItemStyle = lipgloss.NewStyle().
			Foreground(ColorText)
)

var (
	ActiveIndicator = lipgloss.NewStyle().
			Foreground(ColorActive).
			Render("●")

	InactiveIndicator = lipgloss.NewStyle().
				Foreground(ColorInactive).
				Render("○")
)

// Icons and indicators for consistent app-wide usage
var (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "!"
	IconMonitor = "▭"
	IconStream  = "▶"
	IconConfig  = "*"
	IconSummary = "="
)

// FormatHeader renders an icon and a title over a separator
func FormatHeader(icon, title string) string {
	header := HeaderStyle.Render(InfoStyle.Render(icon) + " " + title)
	return header + "\n" + CreateSeparator(50, "─")
}

// FormatStatus prefixes status with an active or inactive dot
func FormatStatus(active bool, status string) string {
	indicator := InactiveIndicator
	if active {
		indicator = ActiveIndicator
	}
	return indicator + " " + status
}

// FormatKeyValue renders an indented, aligned "key value" line
func FormatKeyValue(key string, value interface{}) string {
	return "  " + KeyStyle.Render(key) + TextStyle.Render(fmt.Sprint(value))
}

func FormatListItem(item string, active bool) string {
	style := ListItemStyle
	if active {
		style = style.Foreground(ColorActive)
	}
	return "  • " + style.Render(item)
}

// FormatResult renders a success or failure line
func FormatResult(success bool, message string) string {
	if success {
		return SuccessStyle.Render(IconSuccess) + " " + message
	}
	return ErrorStyle.Render(IconError) + " " + message
}

// CreateSeparator creates a horizontal line separator
func CreateSeparator(width int, char string) string {
	if width <= 0 {
		width = 50
	}
	if char == "" {
		char = "─"
	}

	return lipgloss.NewStyle().
		Foreground(ColorSubtle).
		Render(strings.Repeat(char, width))
}
