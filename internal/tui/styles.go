// Package tui provides a live terminal dashboard for seam checking.
//
// The TUI uses Bubble Tea for the application framework and Lipgloss for styling.
// It displays:
// - Window progress and the loop state
// - Per-track verdict counts and seam error percentiles
// - The most recent boundary results
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/seam"
	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/stats"
)

// =============================================================================
// Color Palette
// =============================================================================

// Colors based on a modern dark theme
var (
	// Primary colors
	colorPrimary   = lipgloss.Color("#7C3AED") // Purple
	colorSecondary = lipgloss.Color("#06B6D4") // Cyan

	// Status colors
	colorSuccess = lipgloss.Color("#10B981") // Green
	colorWarning = lipgloss.Color("#F59E0B") // Amber
	colorError   = lipgloss.Color("#EF4444") // Red
	colorInfo    = lipgloss.Color("#3B82F6") // Blue

	// Neutral colors
	colorText      = lipgloss.Color("#E5E7EB") // Light gray
	colorTextMuted = lipgloss.Color("#9CA3AF") // Medium gray
	colorTextDim   = lipgloss.Color("#6B7280") // Dark gray
	colorBorder    = lipgloss.Color("#374151") // Border gray
)

// bold returns a bold foreground style.
func bold(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c).Bold(true)
}

// =============================================================================
// Text and Status Styles
// =============================================================================

var (
	mutedStyle = lipgloss.NewStyle().Foreground(colorTextMuted)
	dimStyle   = lipgloss.NewStyle().Foreground(colorTextDim)

	statusOK      = bold(colorSuccess)
	statusWarning = bold(colorWarning)
	statusError   = bold(colorError)
	statusInfo    = bold(colorInfo)

	// Numbers in tables share the status colors.
	valueStyle     = bold(colorText)
	valueGoodStyle = statusOK
	valueWarnStyle = statusWarning
	valueBadStyle  = statusError

	labelStyle = lipgloss.NewStyle().Foreground(colorTextMuted).Width(20)
)

// =============================================================================
// Layout Styles
// =============================================================================

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	headerStyle = bold(colorText).
			Background(colorPrimary).
			Padding(0, 1).
			MarginBottom(1)

	// Table headers are section headers without the top margin.
	tableHeaderStyle = bold(colorSecondary).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(colorBorder)

	sectionHeaderStyle = tableHeaderStyle.MarginTop(1)

	footerStyle = mutedStyle.MarginTop(1)

	// Alternating rows in the boundary lists
	tableRowEvenStyle = lipgloss.NewStyle().Foreground(colorText)
	tableRowOddStyle  = mutedStyle
)

// =============================================================================
// Progress Bar Styles
// =============================================================================

var (
	progressBarStyle      = lipgloss.NewStyle().Foreground(colorPrimary)
	progressBarEmptyStyle = lipgloss.NewStyle().Foreground(colorBorder)
	progressPercentStyle  = bold(colorText)
)

// =============================================================================
// Verdict Indicators
// =============================================================================

// GetVerdictStyle returns the style for a seam verdict.
func GetVerdictStyle(v seam.Verdict) lipgloss.Style {
	switch v {
	case seam.Pass:
		return statusOK
	case seam.Fail:
		return statusError
	default:
		return statusWarning
	}
}

// RenderVerdict renders a verdict badge.
func RenderVerdict(v seam.Verdict) string {
	switch v {
	case seam.Pass:
		return statusOK.Render("✓ pass")
	case seam.Fail:
		return statusError.Render("✗ fail")
	default:
		return statusWarning.Render("? inconclusive")
	}
}

// GetRunStatusLabel returns the header badge for the run so far.
func GetRunStatusLabel(snap *stats.Snapshot) string {
	switch {
	case snap == nil || snap.Boundaries() == 0 && snap.Err == nil:
		return statusInfo.Render("● Waiting")
	case snap.Err != nil:
		return statusError.Render("● Aborted")
	case snap.Passed():
		return statusOK.Render("● Continuous")
	default:
		return statusError.Render("● Seams found")
	}
}

// =============================================================================
// Seam Error Indicator
// =============================================================================

// GetDeviationStyle returns a style for an absolute seam error in seconds.
func GetDeviationStyle(dev float64) lipgloss.Style {
	switch {
	case dev < seam.Tolerance/2:
		return valueGoodStyle
	case dev < seam.Tolerance:
		return valueWarnStyle
	default:
		return valueBadStyle
	}
}

// =============================================================================
// Helper Functions
// =============================================================================

// RenderKeyValue renders a label-value pair.
func RenderKeyValue(label string, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Left,
		labelStyle.Render(label+":"),
		valueStyle.Render(value),
	)
}

// RenderProgressBar renders a progress bar.
func RenderProgressBar(progress float64, width int) string {
	if width < 10 {
		width = 10
	}

	filled := int(progress * float64(width))
	filled = max(0, min(filled, width))

	bar := progressBarStyle.Render(strings.Repeat("█", filled)) +
		progressBarEmptyStyle.Render(strings.Repeat("░", width-filled))

	percent := progressPercentStyle.Render(fmt.Sprintf(" %3.0f%%", progress*100))

	return bar + percent
}
