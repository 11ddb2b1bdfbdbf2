package stats

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/parser"
	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/seam"
)

// =============================================================================
// Test Helpers
// =============================================================================

func trackResult(track parser.Track, v seam.Verdict, actual, expected float64) seam.TrackResult {
	r := seam.TrackResult{Track: track, Verdict: v, ActualGap: actual, ExpectedGap: expected}
	if v == seam.Inconclusive {
		r.Reason = "current out." + track.String() + " empty"
	}
	return r
}

func boundary(segment int, audio, video seam.Verdict) seam.BoundaryResult {
	audioActual, videoActual := 0.021333, 0.04
	if audio == seam.Fail {
		audioActual = 0.071333
	}
	if video == seam.Fail {
		videoActual = 0.08
	}
	return seam.BoundaryResult{
		Segment: segment,
		Audio:   trackResult(parser.TrackAudio, audio, audioActual, 0.021333),
		Video:   trackResult(parser.TrackVideo, video, videoActual, 0.04),
	}
}

// =============================================================================
// Tests
// =============================================================================

func TestRunStats_Empty(t *testing.T) {
	snap := NewRunStats().Snapshot()

	if snap.Segments != 0 || snap.Boundaries() != 0 {
		t.Errorf("Segments=%d Boundaries=%d, want 0", snap.Segments, snap.Boundaries())
	}
	if !snap.Passed() {
		t.Error("empty run should pass vacuously")
	}
	if snap.AvgInvoke() != 0 {
		t.Errorf("AvgInvoke() = %v, want 0", snap.AvgInvoke())
	}
	if snap.Audio.DeviationP50 != 0 {
		t.Errorf("DeviationP50 = %v, want 0 with no data", snap.Audio.DeviationP50)
	}
}

func TestRunStats_RecordSegment(t *testing.T) {
	s := NewRunStats()

	seg := parser.Aggregate(0, []string{
		"header",
		"[out] key: 1 stream_index: 1 pts_time: 0.0000 dts_time: 0.0000 duration_time: 0.0213",
		"[out] key: 1 stream_index: 0 pts_time: 0.0800 dts_time: 0.0000 duration_time: 0.0400",
	})
	s.RecordSegment(seg, 2*time.Second)
	s.RecordSegment(parser.Aggregate(1, nil), 4*time.Second)
	s.RecordSegment(nil, 0)

	snap := s.Snapshot()
	if snap.Segments != 3 {
		t.Errorf("Segments = %d, want 3", snap.Segments)
	}
	if snap.Packets != 2 || snap.Discarded != 1 {
		t.Errorf("Packets=%d Discarded=%d, want 2 and 1", snap.Packets, snap.Discarded)
	}
	if snap.InvokeMax != 4*time.Second {
		t.Errorf("InvokeMax = %v, want 4s", snap.InvokeMax)
	}
	if snap.AvgInvoke() != 2*time.Second {
		t.Errorf("AvgInvoke() = %v, want 2s", snap.AvgInvoke())
	}
}

func TestRunStats_Verdicts(t *testing.T) {
	tests := []struct {
		name       string
		boundaries []seam.BoundaryResult
		err        error
		wantPass   bool
		wantFailed int
	}{
		{"all_pass", []seam.BoundaryResult{boundary(1, seam.Pass, seam.Pass), boundary(2, seam.Pass, seam.Pass)}, nil, true, 0},
		{"audio_fail", []seam.BoundaryResult{boundary(1, seam.Pass, seam.Pass), boundary(2, seam.Fail, seam.Pass)}, nil, false, 1},
		{"video_inconclusive", []seam.BoundaryResult{boundary(1, seam.Pass, seam.Inconclusive)}, nil, false, 1},
		{"run_error", []seam.BoundaryResult{boundary(1, seam.Pass, seam.Pass)}, errors.New("transcoder failed"), false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewRunStats()
			for _, b := range tt.boundaries {
				s.RecordBoundary(b)
			}
			if tt.err != nil {
				s.SetError(tt.err)
			}

			snap := s.Snapshot()
			if snap.Passed() != tt.wantPass {
				t.Errorf("Passed() = %v, want %v", snap.Passed(), tt.wantPass)
			}
			if got := len(snap.FailedBoundaries()); got != tt.wantFailed {
				t.Errorf("FailedBoundaries() = %d, want %d", got, tt.wantFailed)
			}
			wantVerdict := "fail"
			if tt.wantPass {
				wantVerdict = "pass"
			}
			if snap.Verdict() != wantVerdict {
				t.Errorf("Verdict() = %q, want %q", snap.Verdict(), wantVerdict)
			}
		})
	}
}

func TestRunStats_TrackCounts(t *testing.T) {
	s := NewRunStats()
	s.RecordBoundary(boundary(1, seam.Pass, seam.Pass))
	s.RecordBoundary(boundary(2, seam.Fail, seam.Inconclusive))
	s.RecordBoundary(boundary(3, seam.Pass, seam.Fail))

	snap := s.Snapshot()

	if snap.Audio.Pass != 2 || snap.Audio.Fail != 1 || snap.Audio.Inconclusive != 0 {
		t.Errorf("audio = %+v", snap.Audio)
	}
	if snap.Video.Pass != 1 || snap.Video.Fail != 1 || snap.Video.Inconclusive != 1 {
		t.Errorf("video = %+v", snap.Video)
	}
	if snap.Video.Checked() != 3 {
		t.Errorf("video Checked() = %d, want 3", snap.Video.Checked())
	}
	if math.Abs(snap.Audio.MaxDeviation-0.05) > 1e-9 {
		t.Errorf("audio MaxDeviation = %v, want 0.05", snap.Audio.MaxDeviation)
	}
	if math.Abs(snap.Video.MaxDeviation-0.04) > 1e-9 {
		t.Errorf("video MaxDeviation = %v, want 0.04", snap.Video.MaxDeviation)
	}
	if snap.Audio.Track != parser.TrackAudio || snap.Video.Track != parser.TrackVideo {
		t.Error("track labels not set")
	}
}

func TestRunStats_DeviationPercentiles(t *testing.T) {
	s := NewRunStats()
	for i := 1; i <= 100; i++ {
		dev := float64(i) * 1e-5
		s.RecordBoundary(seam.BoundaryResult{
			Segment: i,
			Audio:   seam.TrackResult{Track: parser.TrackAudio, Verdict: seam.Pass, ActualGap: 0.021333 + dev, ExpectedGap: 0.021333},
			Video:   seam.TrackResult{Track: parser.TrackVideo, Verdict: seam.Inconclusive},
		})
	}

	snap := s.Snapshot()
	if snap.Audio.DeviationP50 < 4e-4 || snap.Audio.DeviationP50 > 6e-4 {
		t.Errorf("audio p50 = %v, want ~5e-4", snap.Audio.DeviationP50)
	}
	if snap.Audio.DeviationP99 < snap.Audio.DeviationP95 || snap.Audio.DeviationP95 < snap.Audio.DeviationP50 {
		t.Errorf("percentiles not monotonic: %+v", snap.Audio)
	}
	if snap.Video.DeviationP50 != 0 {
		t.Errorf("video p50 = %v, want 0 (all inconclusive)", snap.Video.DeviationP50)
	}
}

func TestRunStats_SnapshotIsCopy(t *testing.T) {
	s := NewRunStats()
	s.RecordBoundary(boundary(1, seam.Pass, seam.Pass))

	snap := s.Snapshot()
	s.RecordBoundary(boundary(2, seam.Fail, seam.Pass))

	if snap.Boundaries() != 1 {
		t.Errorf("earlier snapshot changed: %d boundaries", snap.Boundaries())
	}
}

func TestRunStats_Concurrent(t *testing.T) {
	s := NewRunStats()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			s.RecordSegment(parser.Aggregate(i, nil), time.Millisecond)
			s.RecordBoundary(boundary(i, seam.Pass, seam.Pass))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			_ = s.Snapshot()
		}
	}()
	wg.Wait()

	if snap := s.Snapshot(); snap.Boundaries() != 100 || snap.Segments != 100 {
		t.Errorf("Boundaries=%d Segments=%d, want 100", snap.Boundaries(), snap.Segments)
	}
}
