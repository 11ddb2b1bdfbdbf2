package parser

import "sync"

// Tracks holds the raw packet lines of one direction, split by track.
type Tracks struct {
	Video []string
	Audio []string
}

// Segment is the bucketed packet output of one transcoder invocation.
//
// Each list keeps the order in which the transcoder emitted the lines, which is
// decode order and not presentation order.
type Segment struct {
	// Index is the window number (start offset = Index × segment duration).
	Index int

	In  Tracks
	Out Tracks

	// Discarded counts lines that could not be classified.
	Discarded int
}

// Bucket returns the line list for a (direction, track) pair, or nil.
func (s *Segment) Bucket(dir Direction, track Track) []string {
	if s == nil {
		return nil
	}
	t := s.tracks(dir)
	if t == nil {
		return nil
	}
	switch track {
	case TrackVideo:
		return t.Video
	case TrackAudio:
		return t.Audio
	}
	return nil
}

// PacketCount returns the number of classified packet lines.
func (s *Segment) PacketCount() int {
	if s == nil {
		return 0
	}
	return len(s.In.Video) + len(s.In.Audio) + len(s.Out.Video) + len(s.Out.Audio)
}

func (s *Segment) tracks(dir Direction) *Tracks {
	switch dir {
	case DirectionIn:
		return &s.In
	case DirectionOut:
		return &s.Out
	}
	return nil
}

func (s *Segment) append(dir Direction, track Track, line string) {
	t := s.tracks(dir)
	switch track {
	case TrackVideo:
		t.Video = append(t.Video, line)
	case TrackAudio:
		t.Audio = append(t.Audio, line)
	}
}

// Aggregator builds a Segment from a stream of lines.
//
// It implements the LineParser interface for use with Pipeline.
// Thread-safe, though the runner feeds it from a single goroutine.
type Aggregator struct {
	mu      sync.Mutex
	segment *Segment
}

// NewAggregator creates an aggregator for the given window number.
func NewAggregator(index int) *Aggregator {
	return &Aggregator{
		segment: &Segment{Index: index},
	}
}

// ParseLine implements the LineParser interface.
func (a *Aggregator) ParseLine(line string) {
	dir, track, ok := Classify(line)

	a.mu.Lock()
	defer a.mu.Unlock()

	if !ok {
		a.segment.Discarded++
		return
	}
	a.segment.append(dir, track, line)
}

// Segment returns the aggregated segment.
//
// Call only after the input has been fully consumed; the returned value must
// not be modified afterwards.
func (a *Aggregator) Segment() *Segment {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.segment
}

// Aggregate buckets a complete set of lines into a Segment.
func Aggregate(index int, lines []string) *Segment {
	a := NewAggregator(index)
	for _, line := range lines {
		a.ParseLine(line)
	}
	return a.Segment()
}
