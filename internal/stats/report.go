package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/seam"
)

// Report is the machine-readable run result written by -report-json.
type Report struct {
	Verdict string `json:"verdict"`

	Input           string  `json:"input"`
	Codec           string  `json:"codec"`
	SegmentDuration float64 `json:"segment_duration_seconds"`
	TotalDuration   float64 `json:"total_duration_seconds"`
	Tolerance       float64 `json:"tolerance_seconds"`

	StartedAt      time.Time `json:"started_at"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`

	Segments   int   `json:"segments"`
	Boundaries int   `json:"boundaries"`
	Packets    int64 `json:"packets"`
	Discarded  int64 `json:"discarded"`

	Tracks  []TrackSnapshot       `json:"tracks"`
	Results []seam.BoundaryResult `json:"results"`

	Error string `json:"error,omitempty"`
}

// BuildReport converts a snapshot into a Report.
func BuildReport(snap Snapshot, cfg SummaryConfig) Report {
	r := Report{
		Verdict:         snap.Verdict(),
		Input:           cfg.Input,
		Codec:           cfg.Codec,
		SegmentDuration: cfg.SegmentDuration.Seconds(),
		TotalDuration:   cfg.TotalDuration.Seconds(),
		Tolerance:       seam.Tolerance,
		StartedAt:       snap.StartTime,
		ElapsedSeconds:  snap.Elapsed.Seconds(),
		Segments:        snap.Segments,
		Boundaries:      snap.Boundaries(),
		Packets:         snap.Packets,
		Discarded:       snap.Discarded,
		Tracks:          []TrackSnapshot{snap.Audio, snap.Video},
		Results:         snap.Results,
	}
	if r.Results == nil {
		r.Results = []seam.BoundaryResult{}
	}
	if snap.Err != nil {
		r.Error = snap.Err.Error()
	}
	return r
}

// WriteReport writes the report as indented JSON to path.
func WriteReport(path string, r Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}
	return nil
}
