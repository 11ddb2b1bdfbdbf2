// Package orchestrator drives go-ffmpeg-seam-check: it steps through the
// segment windows, runs the transcoder for each, and checks every boundary.
package orchestrator

import (
	"time"

	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/process"
)

// WindowSchedule lays out the fixed-duration windows [0, D), [D, 2D), ...
// covering a total span. The last window may extend past the total; the
// transcoder stops at the end of the input.
type WindowSchedule struct {
	segment time.Duration
	total   time.Duration
}

// NewWindowSchedule creates a schedule of segment-long windows over total.
func NewWindowSchedule(segment, total time.Duration) *WindowSchedule {
	return &WindowSchedule{
		segment: segment,
		total:   total,
	}
}

// Count returns the number of windows: those whose start is before total.
func (s *WindowSchedule) Count() int {
	if s.segment <= 0 || s.total <= 0 {
		return 0
	}
	n := int(s.total / s.segment)
	if s.total%s.segment != 0 {
		n++
	}
	return n
}

// Window returns window i.
func (s *WindowSchedule) Window(i int) process.Window {
	return process.Window{
		Index:    i,
		Start:    time.Duration(i) * s.segment,
		Duration: s.segment,
	}
}

// Windows returns every window in order.
func (s *WindowSchedule) Windows() []process.Window {
	n := s.Count()
	windows := make([]process.Window, 0, n)
	for i := 0; i < n; i++ {
		windows = append(windows, s.Window(i))
	}
	return windows
}

// SegmentDuration returns the window length.
func (s *WindowSchedule) SegmentDuration() time.Duration {
	return s.segment
}

// EstimatedDuration returns the expected wall time for the run given the
// average time of one invocation.
func (s *WindowSchedule) EstimatedDuration(perInvocation time.Duration) time.Duration {
	return time.Duration(s.Count()) * perInvocation
}
