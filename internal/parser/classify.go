package parser

import (
	"fmt"
	"strings"
)

// Direction identifies which side of the transcode a packet line was logged on.
type Direction int

const (
	DirectionUnknown Direction = iota // No [in]/[out] marker
	DirectionIn                       // Demuxed input packet
	DirectionOut                      // Packet written to the output muxer
)

// String returns a human-readable name for the direction.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "in"
	case DirectionOut:
		return "out"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(text []byte) error {
	switch string(text) {
	case "in":
		*d = DirectionIn
	case "out":
		*d = DirectionOut
	case "unknown":
		*d = DirectionUnknown
	default:
		return fmt.Errorf("unknown direction %q", text)
	}
	return nil
}

// Track identifies the elementary stream of a packet line.
//
// The pipeline uses a fixed two-track layout: stream 0 is video and
// stream 1 is audio.
type Track int

const (
	TrackUnknown Track = iota // Missing or unexpected stream_index
	TrackVideo                // stream_index: 0
	TrackAudio                // stream_index: 1
)

// String returns a human-readable name for the track.
func (t Track) String() string {
	switch t {
	case TrackVideo:
		return "video"
	case TrackAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Track) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Track) UnmarshalText(text []byte) error {
	switch string(text) {
	case "video":
		*t = TrackVideo
	case "audio":
		*t = TrackAudio
	case "unknown":
		*t = TrackUnknown
	default:
		return fmt.Errorf("unknown track %q", text)
	}
	return nil
}

const (
	markerOut = "[out]"
	markerIn  = "[in]"

	videoStreamIndex = 0
	audioStreamIndex = 1
)

// Classify determines the (direction, track) bucket of a line.
//
// ok is false if either component cannot be determined; such lines are
// headers or unrelated diagnostics and should be skipped by the caller.
func Classify(line string) (dir Direction, track Track, ok bool) {
	switch {
	case strings.Contains(line, markerOut):
		dir = DirectionOut
	case strings.Contains(line, markerIn):
		dir = DirectionIn
	}

	switch parseStreamIndex(line) {
	case videoStreamIndex:
		track = TrackVideo
	case audioStreamIndex:
		track = TrackAudio
	}

	return dir, track, dir != DirectionUnknown && track != TrackUnknown
}
