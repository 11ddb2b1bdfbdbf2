// Package stats accumulates the outcome of a seam-check run.
//
// This file implements RunStats, which records:
// - Completed segment invocations and their packet counts
// - Per-boundary verdicts
// - Per-track verdict counts and seam error percentiles (T-Digest)
// - The error that aborted the run, if any
package stats

import (
	"sync"
	"time"

	"github.com/influxdata/tdigest"

	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/parser"
	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/seam"
)

// trackStats accumulates results for one track.
type trackStats struct {
	pass         int
	fail         int
	inconclusive int
	maxDeviation float64

	// Absolute seam error (seconds) of conclusive checks
	deviationDigest *tdigest.TDigest
}

func newTrackStats() *trackStats {
	return &trackStats{
		deviationDigest: tdigest.NewWithCompression(100), // ~100 centroids, ~10KB
	}
}

func (t *trackStats) record(r seam.TrackResult) {
	switch r.Verdict {
	case seam.Pass:
		t.pass++
	case seam.Fail:
		t.fail++
	default:
		t.inconclusive++
		return
	}

	dev := r.Deviation()
	t.deviationDigest.Add(dev, 1)
	if dev > t.maxDeviation {
		t.maxDeviation = dev
	}
}

func (t *trackStats) snapshot(track parser.Track) TrackSnapshot {
	s := TrackSnapshot{
		Track:        track,
		Pass:         t.pass,
		Fail:         t.fail,
		Inconclusive: t.inconclusive,
		MaxDeviation: t.maxDeviation,
	}
	if t.deviationDigest.Count() > 0 {
		s.DeviationP50 = t.deviationDigest.Quantile(0.50)
		s.DeviationP95 = t.deviationDigest.Quantile(0.95)
		s.DeviationP99 = t.deviationDigest.Quantile(0.99)
	}
	return s
}

// RunStats records the progress and results of one run.
//
// Thread-safe: the runner writes while the TUI and exit summary read
// snapshots.
type RunStats struct {
	mu sync.Mutex

	startTime time.Time

	segments    int
	packets     int64
	discarded   int64
	invokeTotal time.Duration
	invokeMax   time.Duration

	results []seam.BoundaryResult
	audio   *trackStats
	video   *trackStats

	err error
}

// NewRunStats creates an empty RunStats starting now.
func NewRunStats() *RunStats {
	return &RunStats{
		startTime: time.Now(),
		audio:     newTrackStats(),
		video:     newTrackStats(),
	}
}

// RecordSegment records a completed transcoder invocation.
func (s *RunStats) RecordSegment(seg *parser.Segment, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.segments++
	s.packets += int64(seg.PacketCount())
	if seg != nil {
		s.discarded += int64(seg.Discarded)
	}
	s.invokeTotal += elapsed
	if elapsed > s.invokeMax {
		s.invokeMax = elapsed
	}
}

// RecordBoundary records the result of one seam check.
func (s *RunStats) RecordBoundary(r seam.BoundaryResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.results = append(s.results, r)
	s.audio.record(r.Audio)
	s.video.record(r.Video)
}

// SetError records the error that aborted the run.
func (s *RunStats) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// TrackSnapshot is a point-in-time view of one track's results.
type TrackSnapshot struct {
	Track        parser.Track `json:"track"`
	Pass         int          `json:"pass"`
	Fail         int          `json:"fail"`
	Inconclusive int          `json:"inconclusive"`

	// Absolute seam error in seconds, over conclusive checks only
	MaxDeviation float64 `json:"max_deviation"`
	DeviationP50 float64 `json:"deviation_p50"`
	DeviationP95 float64 `json:"deviation_p95"`
	DeviationP99 float64 `json:"deviation_p99"`
}

// Checked returns the number of boundaries checked for this track.
func (t TrackSnapshot) Checked() int {
	return t.Pass + t.Fail + t.Inconclusive
}

// Snapshot is a point-in-time copy of RunStats.
type Snapshot struct {
	StartTime time.Time
	Elapsed   time.Duration

	Segments    int
	Packets     int64
	Discarded   int64
	InvokeTotal time.Duration
	InvokeMax   time.Duration

	Audio TrackSnapshot
	Video TrackSnapshot

	// Results holds every boundary in segment order.
	Results []seam.BoundaryResult

	Err error
}

// Snapshot returns a copy of the current state.
func (s *RunStats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := make([]seam.BoundaryResult, len(s.results))
	copy(results, s.results)

	return Snapshot{
		StartTime:   s.startTime,
		Elapsed:     time.Since(s.startTime),
		Segments:    s.segments,
		Packets:     s.packets,
		Discarded:   s.discarded,
		InvokeTotal: s.invokeTotal,
		InvokeMax:   s.invokeMax,
		Audio:       s.audio.snapshot(parser.TrackAudio),
		Video:       s.video.snapshot(parser.TrackVideo),
		Results:     results,
		Err:         s.err,
	}
}

// Boundaries returns the number of boundaries checked.
func (s Snapshot) Boundaries() int {
	return len(s.Results)
}

// FailedBoundaries returns the boundaries where either track did not pass.
func (s Snapshot) FailedBoundaries() []seam.BoundaryResult {
	var failed []seam.BoundaryResult
	for _, r := range s.Results {
		if !r.Passed() {
			failed = append(failed, r)
		}
	}
	return failed
}

// Passed reports the overall verdict: no run error and every boundary
// passed on both tracks. A run with a single segment has no boundaries and
// passes.
func (s Snapshot) Passed() bool {
	if s.Err != nil {
		return false
	}
	for _, r := range s.Results {
		if !r.Passed() {
			return false
		}
	}
	return true
}

// Verdict returns the overall verdict as a string.
func (s Snapshot) Verdict() string {
	if s.Passed() {
		return seam.Pass.String()
	}
	return seam.Fail.String()
}

// AvgInvoke returns the mean transcoder invocation time.
func (s Snapshot) AvgInvoke() time.Duration {
	if s.Segments == 0 {
		return 0
	}
	return s.InvokeTotal / time.Duration(s.Segments)
}
