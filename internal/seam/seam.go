// Package seam checks timestamp continuity across the boundary between two
// consecutively transcoded segments.
//
// Audio is checked on decode time: the first output packet of the new segment
// must follow the last output packet of the previous one by exactly that
// packet's duration.
//
// Video is checked on presentation time across the seam, against the frame
// spacing inferred from the first two decode-order packets after the cut.
// The two bases differ on purpose: reordering depth is unknown, but the frame
// duration right after a cut is a reliable local estimate of expected spacing.
package seam

import (
	"fmt"
	"math"

	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/parser"
)

// Tolerance is the allowed difference between actual and expected gaps, in
// seconds. It absorbs timestamp rounding in the transcoder's log output and
// is not a tuning knob.
const Tolerance = 0.001

// Verdict is the outcome of a single seam check.
type Verdict int

const (
	Inconclusive Verdict = iota // Required boundary data missing
	Pass                        // Gap matches expectation within Tolerance
	Fail                        // Gap differs from expectation
)

// String returns a human-readable name for the verdict.
func (v Verdict) String() string {
	switch v {
	case Pass:
		return "pass"
	case Fail:
		return "fail"
	default:
		return "inconclusive"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (v Verdict) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Verdict) UnmarshalText(text []byte) error {
	switch string(text) {
	case "pass":
		*v = Pass
	case "fail":
		*v = Fail
	case "inconclusive":
		*v = Inconclusive
	default:
		return fmt.Errorf("unknown verdict %q", text)
	}
	return nil
}

// TrackResult is the seam check outcome for one track.
type TrackResult struct {
	Track   parser.Track `json:"track"`
	Verdict Verdict      `json:"verdict"`

	// Boundary packets: Last from the previous segment, First from the
	// current one.
	Last  parser.PacketRecord `json:"last"`
	First parser.PacketRecord `json:"first"`

	// ActualGap is the measured delta across the seam; ExpectedGap is the
	// packet spacing it should equal.
	ActualGap   float64 `json:"actual_gap"`
	ExpectedGap float64 `json:"expected_gap"`

	// Reason explains an Inconclusive verdict.
	Reason string `json:"reason,omitempty"`
}

// Deviation returns |ActualGap - ExpectedGap|, or 0 if the check was
// inconclusive.
func (r TrackResult) Deviation() float64 {
	if r.Verdict == Inconclusive {
		return 0
	}
	return math.Abs(r.ActualGap - r.ExpectedGap)
}

// BoundaryResult is the outcome of checking the seam between segment
// Segment-1 and Segment.
type BoundaryResult struct {
	Segment int         `json:"segment"`
	Audio   TrackResult `json:"audio"`
	Video   TrackResult `json:"video"`
}

// Passed returns true only if both tracks passed.
func (b BoundaryResult) Passed() bool {
	return b.Audio.Verdict == Pass && b.Video.Verdict == Pass
}

// Tracks returns the audio and video results in reporting order.
func (b BoundaryResult) Tracks() []TrackResult {
	return []TrackResult{b.Audio, b.Video}
}

// Check compares the output packets of prev and curr at their seam.
func Check(prev, curr *parser.Segment) BoundaryResult {
	res := BoundaryResult{
		Audio: CheckAudio(prev, curr),
		Video: CheckVideo(prev, curr),
	}
	if curr != nil {
		res.Segment = curr.Index
	}
	return res
}

// CheckAudio verifies decode-time continuity of the output audio track.
func CheckAudio(prev, curr *parser.Segment) TrackResult {
	res := TrackResult{Track: parser.TrackAudio}

	prevLines := prev.Bucket(parser.DirectionOut, parser.TrackAudio)
	currLines := curr.Bucket(parser.DirectionOut, parser.TrackAudio)
	if reason := missing(prevLines, currLines, "out.audio"); reason != "" {
		res.Reason = reason
		return res
	}

	last, ok := parser.MaxByPTS(prevLines)
	if !ok {
		res.Reason = "no parsable packet in previous out.audio"
		return res
	}
	first, ok := parser.MinByPTS(currLines)
	if !ok {
		res.Reason = "no parsable packet in current out.audio"
		return res
	}

	res.Last = last
	res.First = first
	res.ActualGap = first.DTS - last.DTS
	res.ExpectedGap = last.Duration
	res.Verdict = judge(res.ActualGap, res.ExpectedGap)
	return res
}

// CheckVideo verifies presentation-time continuity of the output video track.
func CheckVideo(prev, curr *parser.Segment) TrackResult {
	res := TrackResult{Track: parser.TrackVideo}

	prevLines := prev.Bucket(parser.DirectionOut, parser.TrackVideo)
	currLines := curr.Bucket(parser.DirectionOut, parser.TrackVideo)
	if reason := missing(prevLines, currLines, "out.video"); reason != "" {
		res.Reason = reason
		return res
	}

	head := parser.FirstParsed(currLines, 2)
	if len(head) < 2 {
		res.Reason = fmt.Sprintf("need 2 parsable packets in current out.video, got %d", len(head))
		return res
	}

	last, ok := parser.MaxByPTS(prevLines)
	if !ok {
		res.Reason = "no parsable packet in previous out.video"
		return res
	}
	first, ok := parser.MinByPTS(currLines)
	if !ok {
		res.Reason = "no parsable packet in current out.video"
		return res
	}

	res.Last = last
	res.First = first
	res.ActualGap = first.PTS - last.PTS
	res.ExpectedGap = head[1].DTS - head[0].DTS
	res.Verdict = judge(res.ActualGap, res.ExpectedGap)
	return res
}

func judge(actual, expected float64) Verdict {
	if math.Abs(actual-expected) < Tolerance {
		return Pass
	}
	return Fail
}

func missing(prev, curr []string, bucket string) string {
	switch {
	case len(prev) == 0 && len(curr) == 0:
		return "previous and current " + bucket + " empty"
	case len(prev) == 0:
		return "previous " + bucket + " empty"
	case len(curr) == 0:
		return "current " + bucket + " empty"
	}
	return ""
}
