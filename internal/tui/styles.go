package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors matching the output/colors.go scheme
var (
	colorCyan   = lipgloss.Color("6")  // Cyan - lines, focus
	colorYellow = lipgloss.Color("3")  // Yellow - loading
	colorRed    = lipgloss.Color("1")  // Red - errors
	colorWhite  = lipgloss.Color("15") // White - text
	colorGray   = lipgloss.Color("8")  // Gray - muted text
)

var (
	styleHeader = lipgloss.NewStyle().Foreground(colorWhite).Bold(true)
	styleMuted  = lipgloss.NewStyle().Foreground(colorGray)
	styleLine   = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
)

// Panel border styles
var (
	stylePanelFocused = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorCyan)

	stylePanelNormal = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorGray)
)

// Selected item in a list
var styleSelected = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)

// Status bar at the bottom
var styleStatusBar = lipgloss.NewStyle().
	Foreground(colorGray).
	Background(lipgloss.Color("0"))

// Loading indicator
var styleLoading = lipgloss.NewStyle().Foreground(colorYellow).Italic(true)

// Error text
var styleError = lipgloss.NewStyle().Foreground(colorRed)

// Logo/brand style
var styleLogo = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
