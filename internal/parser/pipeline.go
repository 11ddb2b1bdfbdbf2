package parser

import (
	"bufio"
	"fmt"
	"io"
	"sync/atomic"
)

// Seam checks need every packet line of a segment, so unlike a lossy
// metrics pipeline this one never drops: the reader blocks the transcoder's
// stderr until each line has been handed to every parser.

const (
	// scanBufferSize is the initial scanner buffer.
	scanBufferSize = 64 * 1024

	// maxLineLength bounds a single stderr line (1 MiB).
	maxLineLength = 1024 * 1024
)

// LineParser is implemented by Aggregator, logging.StderrHandler and
// debuglog.SegmentWriter.
type LineParser interface {
	ParseLine(line string)
}

// Pipeline fans each line from a reader out to a fixed set of parsers,
// in order, on the calling goroutine.
type Pipeline struct {
	segment int
	parsers []LineParser

	linesRead   int64
	bytesRead   int64
	packetLines int64
}

// NewPipeline creates a pipeline for one segment invocation.
//
// Nil parsers are ignored.
func NewPipeline(segment int, parsers ...LineParser) *Pipeline {
	p := &Pipeline{segment: segment}
	for _, lp := range parsers {
		if lp != nil {
			p.parsers = append(p.parsers, lp)
		}
	}
	return p
}

// Run reads r until EOF and feeds every line to every parser.
//
// Blocks until the reader is exhausted. Returns the scanner error, if any
// (e.g. a line longer than 1 MiB).
func (p *Pipeline) Run(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, scanBufferSize)
	scanner.Buffer(buf, maxLineLength)

	for scanner.Scan() {
		line := scanner.Text()
		atomic.AddInt64(&p.linesRead, 1)
		atomic.AddInt64(&p.bytesRead, int64(len(line))+1)
		if _, ok := ParsePacket(line); ok {
			atomic.AddInt64(&p.packetLines, 1)
		}

		for _, lp := range p.parsers {
			lp.ParseLine(line)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("segment %d: reading transcoder output: %w", p.segment, err)
	}
	return nil
}

// Stats returns pipeline counters.
//
// Returns:
//   - lines: total lines read
//   - bytes: total bytes read, including newlines
//   - packets: lines that carried packet timing fields
func (p *Pipeline) Stats() (lines, bytes, packets int64) {
	return atomic.LoadInt64(&p.linesRead),
		atomic.LoadInt64(&p.bytesRead),
		atomic.LoadInt64(&p.packetLines)
}

// Segment returns the segment number this pipeline reads for.
func (p *Pipeline) Segment() int {
	return p.segment
}

// NoopParser is a parser that does nothing (for testing/placeholder use).
type NoopParser struct{}

// ParseLine does nothing.
func (NoopParser) ParseLine(string) {}

// LineCollector records every line it receives.
type LineCollector struct {
	Lines []string
}

// ParseLine appends the line.
func (c *LineCollector) ParseLine(line string) {
	c.Lines = append(c.Lines, line)
}
