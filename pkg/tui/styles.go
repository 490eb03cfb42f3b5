package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Minimal color palette
var (
	DimColor    = lipgloss.Color("#6c6c6c")
	TextColor   = lipgloss.Color("#e0e0e0")
	AccentColor = lipgloss.Color("#7aa2f7")
	ErrorColor  = lipgloss.Color("#f7768e")
	OKColor     = lipgloss.Color("#9ece6a")
	WarnColor   = lipgloss.Color("#e0af68")
)

// Output styles
var (
	OKStyle = lipgloss.NewStyle().
		Foreground(OKColor).
		Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	LabelStyle = lipgloss.NewStyle().
			Foreground(AccentColor)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimColor)

	KeyStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true)

	AddedStyle = lipgloss.NewStyle().
			Foreground(OKColor)

	RemovedStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	HunkStyle = lipgloss.NewStyle().
			Foreground(WarnColor)
)

// Status prefixes
const (
	OKPrefix    = "✓ "
	ErrorPrefix = "✗ "
)
