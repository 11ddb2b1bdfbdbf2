package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/seam"
	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/stats"
)

// recentBoundaries is how many boundaries the summary view lists.
const recentBoundaries = 8

// =============================================================================
// Main View Rendering
// =============================================================================

// renderSummaryView renders the main summary dashboard.
func (m Model) renderSummaryView() string {
	var sections []string

	// Header
	sections = append(sections, m.renderHeader())

	// Progress section
	sections = append(sections, m.renderProgress())

	// Stats sections (only if we have stats)
	if m.snapshot != nil {
		sections = append(sections, m.renderSeamStats())

		if m.snapshot.Boundaries() > 0 {
			sections = append(sections, m.renderRecentBoundaries())
		}

		if m.snapshot.Err != nil {
			sections = append(sections, m.renderRunError())
		}
	}

	// Footer
	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderDetailedView renders every failing boundary with its values.
func (m Model) renderDetailedView() string {
	var sections []string

	// Header
	sections = append(sections, m.renderHeader())

	// Failure table
	sections = append(sections, m.renderFailureTable())

	// Footer
	sections = append(sections, m.renderFooter())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// =============================================================================
// Header
// =============================================================================

func (m Model) renderHeader() string {
	header := fmt.Sprintf(
		" go-ffmpeg-seam-check │ %s │ Segment: %d/%d │ Elapsed: %s ",
		GetRunStatusLabel(m.snapshot),
		m.Completed(),
		m.Windows(),
		formatDuration(m.Elapsed()),
	)

	return headerStyle.Width(m.width).Render(header)
}

// =============================================================================
// Progress Section
// =============================================================================

func (m Model) renderProgress() string {
	progress := m.WindowProgress()

	// Progress bar
	barWidth := m.width - 30
	if barWidth < 20 {
		barWidth = 20
	}
	progressBar := RenderProgressBar(progress, barWidth)

	// Status text
	var status string
	switch m.progress.State {
	case "done":
		status = statusOK.Render(fmt.Sprintf("✓ All %d windows transcoded", m.Completed()))
	case "failed":
		status = statusError.Render(fmt.Sprintf("✗ Stopped at segment %d", m.progress.Segment))
	case "":
		status = statusInfo.Render("Starting...")
	default:
		status = statusInfo.Render(fmt.Sprintf("%s segment %d %s",
			capitalize(m.progress.State), m.progress.Segment, m.progress.Window))
	}

	rows := []string{
		sectionHeaderStyle.Render("Window Progress"),
		progressBar,
		status,
	}
	if remaining := m.Remaining(); remaining > 0 {
		rows = append(rows, mutedStyle.Render("Remaining: ~"+formatDuration(remaining)))
	}

	return boxStyle.Width(m.width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// capitalize upper-cases the first byte of an ASCII state name.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// =============================================================================
// Seam Statistics
// =============================================================================

func (m Model) renderSeamStats() string {
	s := m.snapshot

	header := tableHeaderStyle.Render(
		fmt.Sprintf("%-7s %6s %6s %7s %11s %11s %11s",
			"Track", "Pass", "Fail", "Incon.", "p50 err", "p99 err", "max err"),
	)

	rows := []string{
		sectionHeaderStyle.Render("Seam Continuity"),
		header,
		renderTrackRow(s.Audio),
		renderTrackRow(s.Video),
		RenderKeyValue("Packet lines", formatNumber(s.Packets)),
		RenderKeyValue("Unclassified", formatNumber(s.Discarded)),
	}
	if s.Segments > 0 {
		rows = append(rows, RenderKeyValue("Avg invocation", formatMs(s.AvgInvoke())))
	}
	if n := s.Boundaries(); n > 0 {
		clean := float64(n-len(s.FailedBoundaries())) / float64(n)
		rows = append(rows, RenderKeyValue("Clean seams", formatPercent(clean)))
	}

	return boxStyle.Width(m.width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderTrackRow(t stats.TrackSnapshot) string {
	failStyle := valueGoodStyle
	if t.Fail > 0 {
		failStyle = valueBadStyle
	}
	inconStyle := valueStyle
	if t.Inconclusive > 0 {
		inconStyle = valueWarnStyle
	}

	return lipgloss.JoinHorizontal(lipgloss.Left,
		labelStyle.Width(8).Render(t.Track.String()),
		valueStyle.Width(7).Align(lipgloss.Right).Render(fmt.Sprintf("%d", t.Pass)),
		failStyle.Width(7).Align(lipgloss.Right).Render(fmt.Sprintf("%d", t.Fail)),
		inconStyle.Width(8).Align(lipgloss.Right).Render(fmt.Sprintf("%d", t.Inconclusive)),
		GetDeviationStyle(t.DeviationP50).Width(12).Align(lipgloss.Right).Render(formatSeamError(t.DeviationP50)),
		GetDeviationStyle(t.DeviationP99).Width(12).Align(lipgloss.Right).Render(formatSeamError(t.DeviationP99)),
		GetDeviationStyle(t.MaxDeviation).Width(12).Align(lipgloss.Right).Render(formatSeamError(t.MaxDeviation)),
	)
}

// =============================================================================
// Recent Boundaries
// =============================================================================

func (m Model) renderRecentBoundaries() string {
	results := m.snapshot.Results
	start := len(results) - recentBoundaries
	if start < 0 {
		start = 0
	}

	rows := []string{sectionHeaderStyle.Render("Recent Boundaries")}
	for i := len(results) - 1; i >= start; i-- {
		r := results[i]
		rowStyle := tableRowEvenStyle
		if (len(results)-1-i)%2 == 1 {
			rowStyle = tableRowOddStyle
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Left,
			rowStyle.Width(10).Render(fmt.Sprintf("seg %d", r.Segment)),
			renderTrackCell(r.Audio),
			renderTrackCell(r.Video),
		))
	}

	if failed := len(m.snapshot.FailedBoundaries()); failed > 0 {
		rows = append(rows, dimStyle.Render(fmt.Sprintf("%d failing boundaries, press 'd' for details", failed)))
	}

	return boxStyle.Width(m.width - 2).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func renderTrackCell(t seam.TrackResult) string {
	cell := t.Track.String() + " " + RenderVerdict(t.Verdict)
	if t.Verdict != seam.Inconclusive {
		cell += " " + GetDeviationStyle(t.Deviation()).Render(formatSeamError(t.Deviation()))
	}
	return lipgloss.NewStyle().Width(30).Render(cell)
}

// =============================================================================
// Failure Table
// =============================================================================

func (m Model) renderFailureTable() string {
	failed := m.snapshot.FailedBoundaries()
	if len(failed) == 0 {
		return boxStyle.Width(m.width - 2).Render(
			statusOK.Render("No failing boundaries. Press 'd' to toggle."),
		)
	}

	header := tableHeaderStyle.Render(
		fmt.Sprintf("%-6s %-6s %-13s %12s %12s %12s",
			"Seg", "Track", "Verdict", "Actual gap", "Expected", "Deviation"),
	)

	// Table rows (limit to fit screen)
	maxRows := m.height - 10
	if maxRows < 5 {
		maxRows = 5
	}

	var rows []string
	n := 0
	for _, r := range failed {
		for _, t := range r.Tracks() {
			if t.Verdict == seam.Pass {
				continue
			}
			if n >= maxRows {
				rows = append(rows, dimStyle.Render(fmt.Sprintf("... and more (%d failing boundaries total)", len(failed))))
				return m.failureBox(header, rows)
			}

			rowStyle := tableRowEvenStyle
			if n%2 == 1 {
				rowStyle = tableRowOddStyle
			}

			var row string
			if t.Verdict == seam.Inconclusive {
				row = fmt.Sprintf("%-6d %-6s %-13s %s", r.Segment, t.Track, t.Verdict, t.Reason)
			} else {
				row = fmt.Sprintf("%-6d %-6s %-13s %12.6f %12.6f %12.6f",
					r.Segment, t.Track, t.Verdict, t.ActualGap, t.ExpectedGap, t.Deviation())
			}
			rows = append(rows, GetVerdictStyle(t.Verdict).Inherit(rowStyle).Render(row))
			n++
		}
	}

	return m.failureBox(header, rows)
}

func (m Model) failureBox(header string, rows []string) string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{
			sectionHeaderStyle.Render("Failing Boundaries"),
			header,
		}, rows...)...,
	)

	return boxStyle.Width(m.width - 2).Render(content)
}

// =============================================================================
// Run Error
// =============================================================================

func (m Model) renderRunError() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		sectionHeaderStyle.Render("Run Aborted"),
		statusError.Render(m.snapshot.Err.Error()),
	)
	return boxStyle.Width(m.width - 2).Render(content)
}

// =============================================================================
// Footer
// =============================================================================

func (m Model) renderFooter() string {
	// Keyboard shortcuts
	shortcuts := []string{
		"q: quit",
		"d: toggle details",
		"r: refresh",
	}

	// Input (truncated if needed)
	input := m.input
	maxLen := m.width - 60
	if len(input) > maxLen && maxLen > 10 {
		input = "..." + input[len(input)-maxLen+3:]
	}

	left := dimStyle.Render(strings.Join(shortcuts, " │ "))
	right := dimStyle.Render(fmt.Sprintf("%s │ %s @ %s", input, m.codec, m.segmentDuration))

	// Pad to fill width
	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}

	footer := lipgloss.JoinHorizontal(lipgloss.Left,
		left,
		strings.Repeat(" ", padding),
		right,
	)
	if m.metricsAddr != "" {
		footer = lipgloss.JoinVertical(lipgloss.Left, footer,
			dimStyle.Render(fmt.Sprintf("Metrics: http://%s/metrics", m.metricsAddr)))
	}

	return footerStyle.Render(footer)
}
