// Package debuglog writes per-segment transcoder output to disk for
// post-hoc inspection.
//
// For each window it writes the full stderr to segment_NNNN.log and, once the
// segment is aggregated, one excerpt per bucket to
// segment_NNNN_<in|out>_<video|audio>.log.
package debuglog

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/parser"
)

// Dir is a debug output directory.
type Dir struct {
	path string
}

// New creates the directory if needed.
func New(path string) (*Dir, error) {
	if path == "" {
		return nil, errors.New("debug directory path is empty")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create debug dir: %w", err)
	}
	return &Dir{path: path}, nil
}

// Path returns the directory path.
func (d *Dir) Path() string {
	return d.path
}

// SegmentLogName returns the file name of a segment's full stderr log.
func SegmentLogName(segment int) string {
	return fmt.Sprintf("segment_%04d.log", segment)
}

// BucketLogName returns the file name of one bucket excerpt.
func BucketLogName(segment int, dir parser.Direction, track parser.Track) string {
	return fmt.Sprintf("segment_%04d_%s_%s.log", segment, dir, track)
}

// Open creates the full stderr log for a segment, truncating any previous run.
func (d *Dir) Open(segment int) (*SegmentWriter, error) {
	f, err := os.Create(filepath.Join(d.path, SegmentLogName(segment)))
	if err != nil {
		return nil, fmt.Errorf("segment %d: open debug log: %w", segment, err)
	}
	return &SegmentWriter{
		f:  f,
		bw: bufio.NewWriter(f),
	}, nil
}

// WriteBuckets writes the four bucket excerpts of an aggregated segment.
// Empty buckets produce empty files.
func (d *Dir) WriteBuckets(seg *parser.Segment) error {
	if seg == nil {
		return nil
	}

	var errs []error
	for _, dir := range []parser.Direction{parser.DirectionIn, parser.DirectionOut} {
		for _, track := range []parser.Track{parser.TrackVideo, parser.TrackAudio} {
			name := filepath.Join(d.path, BucketLogName(seg.Index, dir, track))
			if err := writeLines(name, seg.Bucket(dir, track)); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func writeLines(name string, lines []string) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	for _, line := range lines {
		bw.WriteString(line)
		bw.WriteByte('\n')
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// SegmentWriter copies every stderr line of one invocation to disk.
//
// It implements parser.LineParser. Write errors are latched and returned by
// Close; a failing debug sink never interrupts the check.
type SegmentWriter struct {
	mu    sync.Mutex
	f     *os.File
	bw    *bufio.Writer
	lines int64
	err   error
}

// ParseLine implements parser.LineParser.
func (w *SegmentWriter) ParseLine(line string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil {
		return
	}
	if _, err := w.bw.WriteString(line); err != nil {
		w.err = err
		return
	}
	if err := w.bw.WriteByte('\n'); err != nil {
		w.err = err
		return
	}
	w.lines++
}

// Lines returns the number of lines written.
func (w *SegmentWriter) Lines() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lines
}

// Close flushes and closes the file.
func (w *SegmentWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		return w.err
	}
	flushErr := w.bw.Flush()
	closeErr := w.f.Close()
	w.f = nil

	return errors.Join(w.err, flushErr, closeErr)
}
