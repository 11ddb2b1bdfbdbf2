// Package metrics provides Prometheus metrics for go-ffmpeg-seam-check.
//
// Metrics cover four areas:
//   - Run overview: configuration info, planned windows, current segment, verdict
//   - Invocations: completed segments, invocation latency, transcoder failures
//   - Log volume: packet lines per (direction, track), unclassified lines
//   - Seams: boundary verdicts per track and the absolute seam error
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/parser"
	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/seam"
)

const namespace = "seam_check"

// Transcoder failure reasons used as the "reason" label.
const (
	FailureStart    = "start"
	FailureExit     = "exit"
	FailureNoOutput = "no_output"
	FailureTimeout  = "timeout"
	FailureRead     = "read"
)

// seamErrorBuckets span sub-tolerance rounding noise up to multi-frame gaps.
var seamErrorBuckets = []float64{
	0.00001, 0.0001, 0.0005, seam.Tolerance, 0.005, 0.01, 0.021, 0.042, 0.1, 0.5, 1,
}

// Collector manages all Prometheus metrics for a run.
//
// Each Collector owns its metric vectors, so several can coexist on
// separate registries.
type Collector struct {
	// Run overview
	info            *prometheus.GaugeVec
	segmentDuration prometheus.Gauge
	windowsPlanned  prometheus.Gauge
	currentSegment  prometheus.Gauge
	runVerdict      prometheus.Gauge

	// Invocations
	segmentsTotal      prometheus.Counter
	invocationSeconds  prometheus.Histogram
	transcoderFailures *prometheus.CounterVec

	// Log volume
	packetLines    *prometheus.CounterVec
	discardedLines prometheus.Counter

	// Seams
	boundariesTotal  *prometheus.CounterVec
	seamErrorSeconds *prometheus.HistogramVec

	startTime time.Time

	mu              sync.Mutex
	segments        int64
	verdictCounts   map[parser.Track]map[seam.Verdict]int64
	failuresCounted map[string]int64
}

// CollectorConfig holds configuration for the collector.
type CollectorConfig struct {
	Version         string
	Input           string
	Codec           string
	SegmentDuration time.Duration
	Windows         int
}

// NewCollector creates a new metrics collector on the default registry.
func NewCollector(cfg CollectorConfig) *Collector {
	return NewCollectorWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry creates a collector with a custom registry.
// Useful for testing.
func NewCollectorWithRegistry(cfg CollectorConfig, registry prometheus.Registerer) *Collector {
	c := &Collector{
		info: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "info",
				Help:      "Information about the run (value always 1)",
			},
			[]string{"version", "input", "codec"},
		),
		segmentDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "segment_duration_seconds",
			Help:      "Configured segment window length",
		}),
		windowsPlanned: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "windows_planned",
			Help:      "Number of segment windows the run will transcode",
		}),
		currentSegment: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_segment",
			Help:      "Index of the segment currently being transcoded",
		}),
		runVerdict: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_verdict",
			Help:      "Overall verdict: -1 running, 0 fail, 1 pass",
		}),
		segmentsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_total",
			Help:      "Transcoder invocations completed",
		}),
		invocationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invocation_seconds",
			Help:      "Wall time of one transcoder invocation",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10), // 0.1s .. 51.2s
		}),
		transcoderFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transcoder_failures_total",
				Help:      "Transcoder invocations that aborted the run, by reason",
			},
			[]string{"reason"},
		),
		packetLines: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "packet_lines_total",
				Help:      "Classified packet timing lines",
			},
			[]string{"direction", "track"},
		),
		discardedLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unclassified_lines_total",
			Help:      "Stderr lines with no direction or track",
		}),
		boundariesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "boundaries_total",
				Help:      "Segment boundaries checked, by track and verdict",
			},
			[]string{"track", "verdict"},
		),
		seamErrorSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "seam_error_seconds",
				Help:      "Absolute difference between actual and expected gap at each conclusive seam",
				Buckets:   seamErrorBuckets,
			},
			[]string{"track"},
		),
		startTime:       time.Now(),
		verdictCounts:   make(map[parser.Track]map[seam.Verdict]int64),
		failuresCounted: make(map[string]int64),
	}

	registry.MustRegister(
		c.info,
		c.segmentDuration,
		c.windowsPlanned,
		c.currentSegment,
		c.runVerdict,
		c.segmentsTotal,
		c.invocationSeconds,
		c.transcoderFailures,
		c.packetLines,
		c.discardedLines,
		c.boundariesTotal,
		c.seamErrorSeconds,
	)

	c.info.WithLabelValues(cfg.Version, cfg.Input, cfg.Codec).Set(1)
	c.segmentDuration.Set(cfg.SegmentDuration.Seconds())
	c.windowsPlanned.Set(float64(cfg.Windows))
	c.runVerdict.Set(-1)

	// Pre-create label combinations so dashboards show zeros.
	for _, track := range []parser.Track{parser.TrackAudio, parser.TrackVideo} {
		for _, v := range []seam.Verdict{seam.Pass, seam.Fail, seam.Inconclusive} {
			c.boundariesTotal.WithLabelValues(track.String(), v.String())
		}
	}

	return c
}

// SetCurrentSegment records which window is being transcoded.
func (c *Collector) SetCurrentSegment(index int) {
	c.currentSegment.Set(float64(index))
}

// RecordSegment records one completed invocation.
func (c *Collector) RecordSegment(seg *parser.Segment, elapsed time.Duration) {
	c.segmentsTotal.Inc()
	c.invocationSeconds.Observe(elapsed.Seconds())

	c.mu.Lock()
	c.segments++
	c.mu.Unlock()

	if seg == nil {
		return
	}
	for _, dir := range []parser.Direction{parser.DirectionIn, parser.DirectionOut} {
		for _, track := range []parser.Track{parser.TrackVideo, parser.TrackAudio} {
			if n := len(seg.Bucket(dir, track)); n > 0 {
				c.packetLines.WithLabelValues(dir.String(), track.String()).Add(float64(n))
			}
		}
	}
	if seg.Discarded > 0 {
		c.discardedLines.Add(float64(seg.Discarded))
	}
}

// RecordBoundary records both track results of one seam check.
func (c *Collector) RecordBoundary(r seam.BoundaryResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, t := range r.Tracks() {
		c.boundariesTotal.WithLabelValues(t.Track.String(), t.Verdict.String()).Inc()
		if t.Verdict != seam.Inconclusive {
			c.seamErrorSeconds.WithLabelValues(t.Track.String()).Observe(t.Deviation())
		}

		counts, ok := c.verdictCounts[t.Track]
		if !ok {
			counts = make(map[seam.Verdict]int64)
			c.verdictCounts[t.Track] = counts
		}
		counts[t.Verdict]++
	}
}

// RecordTranscoderFailure records an invocation failure by reason.
func (c *Collector) RecordTranscoderFailure(reason string) {
	c.transcoderFailures.WithLabelValues(reason).Inc()

	c.mu.Lock()
	c.failuresCounted[reason]++
	c.mu.Unlock()
}

// SetVerdict records the final run verdict.
func (c *Collector) SetVerdict(passed bool) {
	if passed {
		c.runVerdict.Set(1)
		return
	}
	c.runVerdict.Set(0)
}

// Summary contains collector totals for quick inspection.
type Summary struct {
	Duration time.Duration
	Segments int64
	Verdicts map[parser.Track]map[seam.Verdict]int64
	Failures map[string]int64
}

// GenerateSummary creates a summary of the run.
func (c *Collector) GenerateSummary() *Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &Summary{
		Duration: time.Since(c.startTime),
		Segments: c.segments,
		Verdicts: make(map[parser.Track]map[seam.Verdict]int64),
		Failures: make(map[string]int64),
	}
	for track, counts := range c.verdictCounts {
		m := make(map[seam.Verdict]int64, len(counts))
		for v, n := range counts {
			m[v] = n
		}
		s.Verdicts[track] = m
	}
	for reason, n := range c.failuresCounted {
		s.Failures[reason] = n
	}
	return s
}
