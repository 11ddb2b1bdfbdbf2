// Package parser provides parsing for transcoder packet-timing output.
//
// This file implements the packet record parser. The transcoder logs one line
// per packet on stderr, before and after the transcode step:
//
//	[in] key: 1 stream_index: 0 pts_time: 3.9600 dts_time: 3.8800 duration_time: 0.0400
//	[out] key: 0 stream_index: 1 pts_time: 4.000000 dts_time: 4.000000 duration_time: 0.021333
//
// Timestamp values are truncated to six characters by the transcoder, so the
// boundary checks compare with a tolerance rather than exact equality.
package parser

import (
	"regexp"
	"strconv"
)

// PacketRecord is the timing of a single packet, in seconds.
type PacketRecord struct {
	PTS      float64
	DTS      float64
	Duration float64

	// Key is the keyframe flag ("key: 1"). False when absent.
	Key bool

	// StreamIndex is the stream index of the packet, -1 when absent.
	StreamIndex int
}

// Pre-compiled patterns. Values may be signed: streams can start with
// negative timestamps after an edit list or a seek.
var (
	// pts_time: 4.000000 dts_time: 4.000000 duration_time: 0.021333
	reTiming = regexp.MustCompile(`pts_time: (-?[\d.]+) dts_time: (-?[\d.]+) duration_time: (-?[\d.]+)`)

	// key: 1
	reKey = regexp.MustCompile(`\bkey: (\d+)`)

	// stream_index: 1
	reStreamIndex = regexp.MustCompile(`stream_index: (\d+)`)
)

// ParsePacket extracts the timing fields from a packet log line.
//
// Returns false if the line does not carry all three timing fields, or if any
// of them is not a number (e.g. "NOPTS"). Never panics.
func ParsePacket(line string) (PacketRecord, bool) {
	m := reTiming.FindStringSubmatch(line)
	if m == nil {
		return PacketRecord{}, false
	}

	pts, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return PacketRecord{}, false
	}
	dts, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return PacketRecord{}, false
	}
	dur, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return PacketRecord{}, false
	}

	rec := PacketRecord{
		PTS:         pts,
		DTS:         dts,
		Duration:    dur,
		StreamIndex: parseStreamIndex(line),
	}
	if k := reKey.FindStringSubmatch(line); k != nil {
		rec.Key = k[1] != "0"
	}
	return rec, true
}

// parseStreamIndex returns the stream_index field of a line, or -1.
func parseStreamIndex(line string) int {
	m := reStreamIndex.FindStringSubmatch(line)
	if m == nil {
		return -1
	}
	idx, err := strconv.Atoi(m[1])
	if err != nil {
		return -1
	}
	return idx
}
