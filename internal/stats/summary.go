package stats

// This file implements the exit summary formatter which displays the run
// verdict and per-track seam statistics at program exit.

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/seam"
)

const (
	heavyRule = "═══════════════════════════════════════════════════════════════════════════════\n"
	lightRule = "───────────────────────────────────────────────────────────────────────────────\n"

	// maxListedFailures bounds the failing-boundary table.
	maxListedFailures = 20
)

// SummaryConfig holds configuration for summary formatting.
type SummaryConfig struct {
	// Input is the media file under test
	Input string

	// Codec is the target encoder
	Codec string

	// SegmentDuration is the window length
	SegmentDuration time.Duration

	// TotalDuration is the span of input covered by the run
	TotalDuration time.Duration

	// MetricsAddr is the Prometheus metrics endpoint address
	MetricsAddr string

	// DebugDir is where per-segment logs were written, if enabled
	DebugDir string
}

// FormatExitSummary formats a run snapshot for display at program exit.
//
// The summary includes:
// - Run information
// - Per-track verdict counts and seam error percentiles
// - The failing boundaries with their literal values
// - The run error, if the loop was aborted
// - The overall verdict
func FormatExitSummary(snap Snapshot, cfg SummaryConfig) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(heavyRule)
	b.WriteString("                      go-ffmpeg-seam-check Exit Summary\n")
	b.WriteString(heavyRule + "\n")

	// Run info
	fmt.Fprintf(&b, "Input:                  %s\n", cfg.Input)
	fmt.Fprintf(&b, "Codec:                  %s\n", cfg.Codec)
	fmt.Fprintf(&b, "Segment Duration:       %s\n", cfg.SegmentDuration)
	fmt.Fprintf(&b, "Total Duration:         %s\n", FormatDuration(cfg.TotalDuration))
	fmt.Fprintf(&b, "Run Duration:           %s\n", FormatDuration(snap.Elapsed))
	fmt.Fprintf(&b, "Segments Transcoded:    %d\n", snap.Segments)
	fmt.Fprintf(&b, "Boundaries Checked:     %d\n", snap.Boundaries())
	fmt.Fprintf(&b, "Packet Lines:           %s  (%s unclassified)\n",
		FormatNumber(snap.Packets), FormatNumber(snap.Discarded))
	if snap.Segments > 0 {
		fmt.Fprintf(&b, "Invocation Time:        avg %s, max %s\n",
			FormatMs(snap.AvgInvoke()), FormatMs(snap.InvokeMax))
	}
	b.WriteString("\n")

	// Per-track table
	b.WriteString(lightRule)
	b.WriteString("                              Seam Continuity\n")
	b.WriteString(lightRule + "\n")

	fmt.Fprintf(&b, "  %-8s %6s %6s %6s %12s %12s %12s\n",
		"Track", "Pass", "Fail", "Incon.", "p50 err", "p99 err", "max err")
	b.WriteString("  " + strings.Repeat("─", 70) + "\n")
	for _, t := range []TrackSnapshot{snap.Audio, snap.Video} {
		fmt.Fprintf(&b, "  %-8s %6d %6d %6d %12s %12s %12s\n",
			t.Track, t.Pass, t.Fail, t.Inconclusive,
			FormatSeconds(t.DeviationP50), FormatSeconds(t.DeviationP99), FormatSeconds(t.MaxDeviation))
	}
	fmt.Fprintf(&b, "\n  Tolerance: %s\n\n", FormatSeconds(seam.Tolerance))

	if failed := snap.FailedBoundaries(); len(failed) > 0 {
		b.WriteString(renderFailures(failed))
	}

	if snap.Err != nil {
		b.WriteString(lightRule)
		b.WriteString("                                Run Aborted\n")
		b.WriteString(lightRule + "\n")
		fmt.Fprintf(&b, "  %v\n", snap.Err)
		var tail interface{ TailLines() []string }
		if errors.As(snap.Err, &tail) {
			for _, line := range tail.TailLines() {
				fmt.Fprintf(&b, "    | %s\n", line)
			}
		}
		var counted interface{ ErrorPatternCounts() map[string]int }
		if errors.As(snap.Err, &counted) {
			b.WriteString(renderErrorCounts(counted.ErrorPatternCounts()))
		}
		b.WriteString("\n")
	}

	if cfg.DebugDir != "" {
		fmt.Fprintf(&b, "Debug logs: %s\n", cfg.DebugDir)
	}
	if cfg.MetricsAddr != "" {
		fmt.Fprintf(&b, "Metrics endpoint was: http://%s/metrics\n", cfg.MetricsAddr)
	}

	b.WriteString(heavyRule)
	fmt.Fprintf(&b, "  RESULT: %s\n", strings.ToUpper(snap.Verdict()))
	b.WriteString(heavyRule)

	return b.String()
}

// renderFailures lists boundaries that did not pass on both tracks.
func renderFailures(failed []seam.BoundaryResult) string {
	var b strings.Builder

	b.WriteString(lightRule)
	b.WriteString("                             Failing Boundaries\n")
	b.WriteString(lightRule + "\n")

	fmt.Fprintf(&b, "  %-8s %-6s %-13s %12s %12s %s\n",
		"Segment", "Track", "Verdict", "Actual", "Expected", "Detail")
	b.WriteString("  " + strings.Repeat("─", 70) + "\n")

	shown := 0
	for _, r := range failed {
		for _, t := range r.Tracks() {
			if t.Verdict == seam.Pass {
				continue
			}
			if shown == maxListedFailures {
				break
			}
			shown++
			fmt.Fprintf(&b, "  %-8d %-6s %-13s %12s %12s %s\n",
				r.Segment, t.Track, t.Verdict,
				FormatSeconds(t.ActualGap), FormatSeconds(t.ExpectedGap), trackDetail(t))
		}
	}

	total := 0
	for _, r := range failed {
		for _, t := range r.Tracks() {
			if t.Verdict != seam.Pass {
				total++
			}
		}
	}
	if total > shown {
		fmt.Fprintf(&b, "  ... and %d more\n", total-shown)
	}
	b.WriteString("\n")
	return b.String()
}

// renderErrorCounts lists the known failure messages seen in the
// transcoder's stderr tail, most frequent first.
func renderErrorCounts(counts map[string]int) string {
	if len(counts) == 0 {
		return ""
	}
	patterns := slices.SortedFunc(maps.Keys(counts), func(a, b string) int {
		if c := cmp.Compare(counts[b], counts[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	var b strings.Builder
	b.WriteString("\n  Error messages:\n")
	for _, p := range patterns {
		fmt.Fprintf(&b, "    %-16s %d\n", p, counts[p])
	}
	return b.String()
}

// trackDetail returns the boundary timestamps of a failed check, or the
// reason of an inconclusive one.
func trackDetail(t seam.TrackResult) string {
	if t.Verdict == seam.Inconclusive {
		return t.Reason
	}
	return fmt.Sprintf("last pts=%s dts=%s, first pts=%s dts=%s",
		FormatSeconds(t.Last.PTS), FormatSeconds(t.Last.DTS),
		FormatSeconds(t.First.PTS), FormatSeconds(t.First.DTS))
}

// =============================================================================
// Formatting Helper Functions (exported for reuse)
// =============================================================================

// FormatDuration formats a duration as HH:MM:SS.
func FormatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// FormatNumber formats a number with K/M suffixes for readability.
func FormatNumber(n int64) string {
	if n >= 1_000_000 {
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	}
	if n >= 1_000 {
		return fmt.Sprintf("%.1fK", float64(n)/1_000)
	}
	return fmt.Sprintf("%d", n)
}

// FormatMs formats a duration as milliseconds.
func FormatMs(d time.Duration) string {
	ms := d.Milliseconds()
	if ms == 0 && d > 0 {
		// Sub-millisecond, show microseconds
		return fmt.Sprintf("%d µs", d.Microseconds())
	}
	return fmt.Sprintf("%d ms", ms)
}

// FormatSeconds formats a timestamp or gap in seconds with microsecond
// precision.
func FormatSeconds(s float64) string {
	return fmt.Sprintf("%.6f", s)
}
