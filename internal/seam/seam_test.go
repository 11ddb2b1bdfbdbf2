package seam

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/parser"
)

// =============================================================================
// Test Helpers
// =============================================================================

func audioLine(pts, dts, dur float64) string {
	return fmt.Sprintf("[out] key: 1 stream_index: 1 pts_time: %.6f dts_time: %.6f duration_time: %.6f", pts, dts, dur)
}

func videoLine(pts, dts float64) string {
	return fmt.Sprintf("[out] key: 0 stream_index: 0 pts_time: %.4f dts_time: %.4f duration_time: 0.0400", pts, dts)
}

func segment(index int, lines ...string) *parser.Segment {
	return parser.Aggregate(index, lines)
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// prevAudio is three 1024-sample AAC frames ending at dts 3.978667.
var prevAudio = []string{
	audioLine(3.936000, 3.936000, 0.021333),
	audioLine(3.957333, 3.957333, 0.021333),
	audioLine(3.978667, 3.978667, 0.021333),
}

// prevVideo is the tail of a 25fps IBBP GOP ending just before 4.0s.
var prevVideo = []string{
	videoLine(3.8400, 3.7600),
	videoLine(3.9600, 3.8000),
	videoLine(3.8800, 3.8400),
	videoLine(3.9200, 3.8800),
}

// currVideo starts the next window at 4.0s with the same cadence.
var currVideo = []string{
	videoLine(4.0000, 3.9200),
	videoLine(4.1200, 3.9600),
	videoLine(4.0400, 4.0000),
	videoLine(4.0800, 4.0400),
}

// =============================================================================
// Tests: Audio
// =============================================================================

func TestCheckAudio_Continuous(t *testing.T) {
	// Next segment starts exactly one frame after the last one.
	prev := segment(0, prevAudio...)
	curr := segment(1, audioLine(4.000000, 4.000000, 0.021333), audioLine(4.021333, 4.021333, 0.021333))

	res := CheckAudio(prev, curr)
	if res.Verdict != Pass {
		t.Fatalf("Verdict = %v, want pass (reason %q)", res.Verdict, res.Reason)
	}
	if !approx(res.ActualGap, 0.021333) {
		t.Errorf("ActualGap = %v, want 0.021333", res.ActualGap)
	}
	if res.ExpectedGap != 0.021333 {
		t.Errorf("ExpectedGap = %v, want 0.021333", res.ExpectedGap)
	}
	if res.Last.DTS != 3.978667 || res.First.DTS != 4.0 {
		t.Errorf("boundary packets = %v / %v, want 3.978667 / 4.0", res.Last.DTS, res.First.DTS)
	}
	if res.Track != parser.TrackAudio {
		t.Errorf("Track = %v, want audio", res.Track)
	}
}

func TestCheckAudio_Gap(t *testing.T) {
	// 50ms of audio missing at the cut.
	prev := segment(0, prevAudio...)
	curr := segment(1, audioLine(4.050000, 4.050000, 0.021333))

	res := CheckAudio(prev, curr)
	if res.Verdict != Fail {
		t.Fatalf("Verdict = %v, want fail", res.Verdict)
	}
	if !approx(res.ActualGap, 0.071333) {
		t.Errorf("ActualGap = %v, want 0.071333", res.ActualGap)
	}
	if res.ExpectedGap != 0.021333 {
		t.Errorf("ExpectedGap = %v, want 0.021333", res.ExpectedGap)
	}
	if !approx(res.Deviation(), 0.05) {
		t.Errorf("Deviation() = %v, want 0.05", res.Deviation())
	}
}

func TestCheckAudio_Overlap(t *testing.T) {
	prev := segment(0, prevAudio...)
	curr := segment(1, audioLine(3.978667, 3.978667, 0.021333))

	res := CheckAudio(prev, curr)
	if res.Verdict != Fail {
		t.Fatalf("Verdict = %v, want fail for repeated packet", res.Verdict)
	}
	if res.ActualGap != 0 {
		t.Errorf("ActualGap = %v, want 0", res.ActualGap)
	}
}

func TestCheckAudio_Tolerance(t *testing.T) {
	tests := []struct {
		name  string
		first float64
		want  Verdict
	}{
		{"exact", 4.000000, Pass},
		{"within_half_ms", 4.000500, Pass},
		{"just_inside", 4.000990, Pass},
		{"just_outside", 4.001010, Fail},
		{"early_inside", 3.999010, Pass},
		{"early_outside", 3.998990, Fail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := segment(0, prevAudio...)
			curr := segment(1, audioLine(tt.first, tt.first, 0.021333))
			if got := CheckAudio(prev, curr).Verdict; got != tt.want {
				t.Errorf("Verdict = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckAudio_UsesExtremalNotListOrder(t *testing.T) {
	// Last-emitted line is not the latest packet.
	prev := segment(0, prevAudio[2], prevAudio[0], prevAudio[1])
	curr := segment(1, audioLine(4.021333, 4.021333, 0.021333), audioLine(4.000000, 4.000000, 0.021333))

	res := CheckAudio(prev, curr)
	if res.Verdict != Pass {
		t.Errorf("Verdict = %v, want pass", res.Verdict)
	}
}

func TestCheckAudio_Inconclusive(t *testing.T) {
	nopts := "[out] key: 0 stream_index: 1 pts_time: NOPTS dts_time: NOPTS duration_time: 0.021333"

	tests := []struct {
		name       string
		prev       *parser.Segment
		curr       *parser.Segment
		wantReason string
	}{
		{"prev_empty", segment(0), segment(1, audioLine(4, 4, 0.021333)), "previous out.audio empty"},
		{"curr_empty", segment(0, prevAudio...), segment(1), "current out.audio empty"},
		{"both_empty", segment(0), segment(1), "previous and current out.audio empty"},
		{"prev_nil", nil, segment(1, audioLine(4, 4, 0.021333)), "previous out.audio empty"},
		{"prev_unparsable", segment(0, nopts), segment(1, audioLine(4, 4, 0.021333)), "no parsable packet in previous out.audio"},
		{"curr_unparsable", segment(0, prevAudio...), segment(1, nopts), "no parsable packet in current out.audio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := CheckAudio(tt.prev, tt.curr)
			if res.Verdict != Inconclusive {
				t.Fatalf("Verdict = %v, want inconclusive", res.Verdict)
			}
			if res.Reason != tt.wantReason {
				t.Errorf("Reason = %q, want %q", res.Reason, tt.wantReason)
			}
			if res.Deviation() != 0 {
				t.Errorf("Deviation() = %v, want 0", res.Deviation())
			}
		})
	}
}

// =============================================================================
// Tests: Video
// =============================================================================

func TestCheckVideo_Continuous(t *testing.T) {
	prev := segment(0, prevVideo...)
	curr := segment(1, currVideo...)

	res := CheckVideo(prev, curr)
	if res.Verdict != Pass {
		t.Fatalf("Verdict = %v, want pass (actual %v expected %v)", res.Verdict, res.ActualGap, res.ExpectedGap)
	}
	// max PTS of prev is 3.96, min PTS of curr is 4.00
	if !approx(res.ActualGap, 0.04) {
		t.Errorf("ActualGap = %v, want 0.04", res.ActualGap)
	}
	if !approx(res.ExpectedGap, 0.04) {
		t.Errorf("ExpectedGap = %v, want 0.04", res.ExpectedGap)
	}
	if res.Last.PTS != 3.96 {
		t.Errorf("Last.PTS = %v, want 3.96 (second line, not last)", res.Last.PTS)
	}
}

func TestCheckVideo_DroppedFrame(t *testing.T) {
	prev := segment(0, prevVideo...)
	curr := segment(1,
		videoLine(4.0400, 3.9600),
		videoLine(4.1600, 4.0000),
		videoLine(4.0800, 4.0400),
	)

	res := CheckVideo(prev, curr)
	if res.Verdict != Fail {
		t.Fatalf("Verdict = %v, want fail", res.Verdict)
	}
	if !approx(res.ActualGap, 0.071333) {
		t.Errorf("ActualGap = %v, want 0.071333", res.ActualGap)
	}
	if res.ExpectedGap != 0.021333 {
		t.Errorf("ExpectedGap = %v, want 0.021333", res.ExpectedGap)
	}
}

func TestCheckVideo_Inconclusive(t *testing.T) {
	// Either side of the seam lacks enough out.video packets.
	tests := []struct {
		name string
		prev *parser.Segment
		curr *parser.Segment
	}{
		{"curr_video_empty", segment(0, prevVideo...), segment(1, prevAudio...)},
		{"prev_video_empty", segment(0, prevAudio...), segment(1, currVideo...)},
		{"single_packet", segment(0, prevVideo...), segment(1, currVideo[0])},
		{"prev_unparsable", segment(0, "[out] key: 0 stream_index: 0 pts_time: NOPTS dts_time: 1 duration_time: 0.04"), segment(1, currVideo...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var res TrackResult
			func() {
				defer func() {
					if r := recover(); r != nil {
						t.Fatalf("CheckVideo panicked: %v", r)
					}
				}()
				res = CheckVideo(tt.prev, tt.curr)
			}()
			if res.Verdict != Inconclusive {
				t.Errorf("Verdict = %v, want inconclusive", res.Verdict)
			}
			if res.Reason == "" {
				t.Error("Reason should explain inconclusive verdict")
			}
		})
	}
}

// =============================================================================
// Tests: Check
// =============================================================================

func TestCheck(t *testing.T) {
	prev := segment(4, append(append([]string{}, prevAudio...), prevVideo...)...)
	curr := segment(5, append([]string{audioLine(4, 4, 0.021333)}, currVideo...)...)

	res := Check(prev, curr)
	if res.Segment != 5 {
		t.Errorf("Segment = %d, want 5", res.Segment)
	}
	if !res.Passed() {
		t.Errorf("Passed() = false, audio %v video %v", res.Audio.Verdict, res.Video.Verdict)
	}

	tracks := res.Tracks()
	if len(tracks) != 2 || tracks[0].Track != parser.TrackAudio || tracks[1].Track != parser.TrackVideo {
		t.Errorf("Tracks() = %+v, want audio then video", tracks)
	}
}

func TestCheck_InconclusiveIsNotPassed(t *testing.T) {
	prev := segment(0, prevAudio...)
	curr := segment(1, audioLine(4, 4, 0.021333))

	res := Check(prev, curr)
	if res.Audio.Verdict != Pass {
		t.Fatalf("audio = %v, want pass", res.Audio.Verdict)
	}
	if res.Video.Verdict != Inconclusive {
		t.Fatalf("video = %v, want inconclusive", res.Video.Verdict)
	}
	if res.Passed() {
		t.Error("Passed() = true with inconclusive video")
	}
}

func TestVerdict_String(t *testing.T) {
	tests := []struct {
		v    Verdict
		want string
	}{
		{Pass, "pass"},
		{Fail, "fail"},
		{Inconclusive, "inconclusive"},
		{Verdict(42), "inconclusive"},
	}

	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("Verdict(%d).String() = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestBoundaryResult_JSON(t *testing.T) {
	prev := segment(0, prevAudio...)
	curr := segment(1, audioLine(4.05, 4.05, 0.021333))

	data, err := json.Marshal(Check(prev, curr))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	out := string(data)
	for _, want := range []string{`"verdict":"fail"`, `"track":"audio"`, `"verdict":"inconclusive"`, `"reason":"previous and current out.video empty"`} {
		if !strings.Contains(out, want) {
			t.Errorf("JSON missing %s: %s", want, out)
		}
	}
}

func TestVerdict_UnmarshalText(t *testing.T) {
	var got []Verdict
	if err := json.Unmarshal([]byte(`["pass","fail","inconclusive"]`), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	want := []Verdict{Pass, Fail, Inconclusive}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	var v Verdict
	if err := v.UnmarshalText([]byte("maybe")); err == nil {
		t.Error("UnmarshalText(maybe) error = nil")
	}
}
