package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/parser"
	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/seam"
	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/stats"
)

// =============================================================================
// Tests: Verdict Indicators
// =============================================================================

func TestGetVerdictStyle(t *testing.T) {
	tests := []struct {
		verdict seam.Verdict
		want    lipgloss.Style
	}{
		{seam.Pass, statusOK},
		{seam.Fail, statusError},
		{seam.Inconclusive, statusWarning},
		{seam.Verdict(42), statusWarning},
	}

	for _, tt := range tests {
		t.Run(tt.verdict.String(), func(t *testing.T) {
			got := GetVerdictStyle(tt.verdict)
			if got.GetForeground() != tt.want.GetForeground() {
				t.Errorf("GetVerdictStyle(%v) foreground = %v, want %v", tt.verdict, got.GetForeground(), tt.want.GetForeground())
			}
		})
	}
}

func TestRenderVerdict(t *testing.T) {
	tests := []struct {
		verdict seam.Verdict
		want    string
	}{
		{seam.Pass, "✓ pass"},
		{seam.Fail, "✗ fail"},
		{seam.Inconclusive, "? inconclusive"},
	}

	for _, tt := range tests {
		if got := RenderVerdict(tt.verdict); !strings.Contains(got, tt.want) {
			t.Errorf("RenderVerdict(%v) = %q, want it to contain %q", tt.verdict, got, tt.want)
		}
	}
}

func TestGetRunStatusLabel(t *testing.T) {
	pass := seam.TrackResult{Verdict: seam.Pass}
	fail := seam.TrackResult{Verdict: seam.Fail}

	snapshotOf := func(results ...seam.BoundaryResult) *stats.Snapshot {
		rs := stats.NewRunStats()
		for _, r := range results {
			rs.RecordBoundary(r)
		}
		s := rs.Snapshot()
		return &s
	}
	aborted := func() *stats.Snapshot {
		rs := stats.NewRunStats()
		rs.SetError(errors.New("boom"))
		s := rs.Snapshot()
		return &s
	}

	tests := []struct {
		name string
		snap *stats.Snapshot
		want string
	}{
		{"nil", nil, "Waiting"},
		{"no boundaries", snapshotOf(), "Waiting"},
		{"all pass", snapshotOf(seam.BoundaryResult{Segment: 1, Audio: pass, Video: pass}), "Continuous"},
		{"one fail", snapshotOf(seam.BoundaryResult{Segment: 1, Audio: pass, Video: fail}), "Seams found"},
		{"aborted", aborted(), "Aborted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetRunStatusLabel(tt.snap); !strings.Contains(got, tt.want) {
				t.Errorf("GetRunStatusLabel() = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

// =============================================================================
// Tests: Seam Error Indicator
// =============================================================================

func TestGetDeviationStyle(t *testing.T) {
	tests := []struct {
		name string
		dev  float64
		want lipgloss.Style
	}{
		{"exact", 0, valueGoodStyle},
		{"rounding noise", 0.000012, valueGoodStyle},
		{"near tolerance", 0.0009, valueWarnStyle},
		{"at tolerance", seam.Tolerance, valueBadStyle},
		{"dropped frame", 0.04, valueBadStyle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetDeviationStyle(tt.dev)
			if got.GetForeground() != tt.want.GetForeground() {
				t.Errorf("GetDeviationStyle(%v) = %v, want %v", tt.dev, got.GetForeground(), tt.want.GetForeground())
			}
		})
	}
}

// =============================================================================
// Tests: RenderKeyValue
// =============================================================================

func TestRenderKeyValue(t *testing.T) {
	result := RenderKeyValue("Label", "Value")

	if !strings.Contains(result, "Label") {
		t.Error("result should contain label")
	}
	if !strings.Contains(result, "Value") {
		t.Error("result should contain value")
	}
}

// =============================================================================
// Tests: RenderProgressBar
// =============================================================================

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		name     string
		progress float64
		width    int
	}{
		{"0%", 0, 20},
		{"50%", 0.5, 20},
		{"100%", 1.0, 20},
		{"narrow", 0.5, 5},
		{"wide", 0.5, 50},
		{"over 100%", 1.5, 20},
		{"negative", -0.1, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RenderProgressBar(tt.progress, tt.width)
			if result == "" {
				t.Error("RenderProgressBar returned empty string")
			}
			// Should contain percentage
			if !strings.Contains(result, "%") {
				t.Error("result should contain percentage")
			}
		})
	}
}

// =============================================================================
// Tests: View helpers
// =============================================================================

func TestRenderTrackCell(t *testing.T) {
	fail := seam.TrackResult{Track: parser.TrackVideo, Verdict: seam.Fail, ActualGap: 0.08, ExpectedGap: 0.04}
	if got := renderTrackCell(fail); !strings.Contains(got, "video") || !strings.Contains(got, "40.000 ms") {
		t.Errorf("renderTrackCell(fail) = %q", got)
	}

	incon := seam.TrackResult{Track: parser.TrackAudio, Verdict: seam.Inconclusive, Reason: "current out.audio empty"}
	got := renderTrackCell(incon)
	if !strings.Contains(got, "inconclusive") {
		t.Errorf("renderTrackCell(inconclusive) = %q", got)
	}
	if strings.Contains(got, "ms") {
		t.Errorf("inconclusive cell should not show a seam error: %q", got)
	}
}
