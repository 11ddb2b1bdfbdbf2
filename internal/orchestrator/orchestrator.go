package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/config"
	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/debuglog"
	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/logging"
	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/metrics"
	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/parser"
	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/preflight"
	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/process"
	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/seam"
	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/stats"
	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/supervisor"
	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/tui"
)

// shutdownTimeout bounds the metrics server shutdown.
const shutdownTimeout = 10 * time.Second

// Callbacks contains optional callback functions for run events.
type Callbacks struct {
	// OnStateChange is called on every loop state transition.
	OnStateChange func(segment int, oldState, newState RunState)

	// OnSegment is called after a window's Segment is finalised.
	OnSegment func(seg *parser.Segment, res supervisor.Result)

	// OnBoundary is called after each seam check.
	OnBoundary func(r seam.BoundaryResult)
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithRunner replaces the transcoder runner built from the config.
func WithRunner(r process.Runner) Option {
	return func(o *Orchestrator) { o.runner = r }
}

// WithRegistry registers metrics on reg and serves them from it instead of
// the default registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *Orchestrator) {
		o.registerer = reg
		o.gatherer = reg
	}
}

// WithCallbacks sets the run event callbacks.
func WithCallbacks(cb Callbacks) Option {
	return func(o *Orchestrator) { o.callbacks = cb }
}

// WithOutput sets where preflight results and the exit summary are printed.
func WithOutput(w io.Writer) Option {
	return func(o *Orchestrator) { o.out = w }
}

// WithVersion sets the version reported in seam_check_info.
func WithVersion(v string) Option {
	return func(o *Orchestrator) { o.version = v }
}

// Orchestrator runs the transcoder once per window and checks every seam.
type Orchestrator struct {
	config  *config.Config
	logger  *slog.Logger
	out     io.Writer
	version string

	runner     process.Runner
	schedule   *WindowSchedule
	supervisor *supervisor.Supervisor
	stats      *stats.RunStats
	debugDir   *debuglog.Dir
	callbacks  Callbacks

	registerer    prometheus.Registerer
	gatherer      prometheus.Gatherer
	metrics       *metrics.Collector
	metricsServer *metrics.Server
	program       *tea.Program

	// Loop state
	stateMu sync.RWMutex
	state   RunState
	segment int
}

// New creates a new Orchestrator with the given configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = logging.Discard()
	}

	o := &Orchestrator{
		config:     cfg,
		logger:     logger,
		out:        os.Stdout,
		version:    "dev",
		schedule:   NewWindowSchedule(cfg.SegmentDuration, cfg.TotalDuration),
		stats:      stats.NewRunStats(),
		registerer: prometheus.DefaultRegisterer,
		gatherer:   prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.runner == nil {
		o.runner = process.NewTranscoderRunner(&process.TranscoderConfig{
			BinaryPath: cfg.TranscoderPath,
			InputPath:  cfg.InputPath,
			Codec:      cfg.Codec,
		})
	}

	o.metrics = metrics.NewCollectorWithRegistry(metrics.CollectorConfig{
		Version:         o.version,
		Input:           cfg.InputPath,
		Codec:           cfg.Codec,
		SegmentDuration: cfg.SegmentDuration,
		Windows:         o.schedule.Count(),
	}, o.registerer)

	if cfg.MetricsAddr != "" {
		o.metricsServer = metrics.NewServerWithGatherer(cfg.MetricsAddr, o.gatherer, logger)
	}

	o.supervisor = supervisor.New(supervisor.Config{
		Builder: o.runner,
		Logger:  logger,
		Timeout: cfg.Timeout,
		Callbacks: supervisor.Callbacks{
			OnStateChange: o.onProcessState,
			OnStart:       o.onStart,
			OnExit:        o.onExit,
		},
	})

	return o
}

// Run executes the seam check. It blocks until every window ran, the loop
// was aborted, or a signal arrived.
//
// A completed run returns nil whatever its verdict; use Passed. A non-nil
// error means the loop did not finish: preflight failed, a transcoder
// invocation failed (*TranscoderError), or the run was cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	// Run preflight checks
	if !o.config.SkipPreflight {
		result := preflight.RunAll(ctx, preflight.Options{
			TranscoderPath: o.config.TranscoderPath,
			InputPath:      o.config.InputPath,
			DebugDir:       o.config.DebugDir,
			ReportJSON:     o.config.ReportJSON,
			FFprobePath:    o.config.FFprobePath,
		})
		preflight.PrintResults(o.out, result)
		if !result.Passed {
			return fmt.Errorf("preflight checks failed (use --skip-preflight to override)")
		}
	}

	if o.config.DebugDir != "" {
		dir, err := debuglog.New(o.config.DebugDir)
		if err != nil {
			return fmt.Errorf("debug dir: %w", err)
		}
		o.debugDir = dir
	}

	// Start metrics server
	if o.metricsServer != nil {
		o.metricsServer.SetStatus(func() any {
			return stats.BuildReport(o.Snapshot(), o.summaryConfig())
		})
		if err := o.metricsServer.Start(); err != nil {
			return fmt.Errorf("failed to start metrics server: %w", err)
		}
	}

	// Setup signal handling
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			o.logger.Info("received_signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	// Dashboard
	tuiDone := make(chan struct{})
	if o.config.TUIEnabled {
		program := tea.NewProgram(tui.New(tui.Config{
			Input:           o.config.InputPath,
			Codec:           o.config.Codec,
			MetricsAddr:     o.config.MetricsAddr,
			SegmentDuration: o.config.SegmentDuration,
			Source:          o,
		}), tea.WithAltScreen())
		o.program = program
		go func() {
			defer close(tuiDone)
			if _, err := program.Run(); err != nil {
				o.logger.Warn("tui_failed", "error", err)
			}
			// Quitting the dashboard stops the run.
			cancel()
		}()
	} else {
		close(tuiDone)
	}

	runErr := o.runLoop(ctx)

	tui.SendQuit(o.program)
	<-tuiDone

	snap := o.stats.Snapshot()
	o.metrics.SetVerdict(runErr == nil && snap.Passed())
	o.logger.Info("run_complete",
		"verdict", snap.Verdict(),
		"segments", snap.Segments,
		"boundaries", snap.Boundaries(),
		"failed_boundaries", len(snap.FailedBoundaries()),
		"transcoder_failures", o.metrics.GenerateSummary().Failures,
		"elapsed", snap.Elapsed.String(),
	)

	// Graceful shutdown with timeout
	if o.metricsServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := o.metricsServer.Shutdown(shutdownCtx); err != nil {
			o.logger.Warn("metrics_server_shutdown_error", "error", err)
		}
		shutdownCancel()
	}

	if err := o.writeOutputs(snap); err != nil {
		runErr = errors.Join(runErr, err)
	}

	// Print exit summary
	fmt.Fprint(o.out, stats.FormatExitSummary(snap, o.summaryConfig()))

	return runErr
}

// runLoop steps through the windows. It returns nil when every window ran
// or fail-fast stopped the loop early.
func (o *Orchestrator) runLoop(ctx context.Context) error {
	windows := o.schedule.Windows()

	o.logger.Info("run_starting",
		"windows", len(windows),
		"segment_duration", o.schedule.SegmentDuration().String(),
		"duration", o.config.TotalDuration.String(),
		"transcoder", o.runner.Name(),
		"input", o.config.InputPath,
		"codec", o.config.Codec,
	)

	var prev *parser.Segment
	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			return o.abort(w.Index, err)
		}

		curr, err := o.runWindow(ctx, w)
		if err != nil {
			return o.abort(w.Index, err)
		}

		o.setState(w.Index, StateChecking)
		if prev != nil {
			result := seam.Check(prev, curr)
			o.recordBoundary(result)

			if o.config.FailFast && !result.Passed() {
				o.logger.Warn("fail_fast_stop",
					"segment", w.Index,
					"remaining", len(windows)-w.Index-1,
				)
				break
			}
		}
		prev = curr
	}

	o.setState(o.Segment(), StateDone)
	return nil
}

// runWindow invokes the transcoder for w and returns the aggregated Segment.
func (o *Orchestrator) runWindow(ctx context.Context, w process.Window) (*parser.Segment, error) {
	o.setState(w.Index, StateInvoking)
	o.metrics.SetCurrentSegment(w.Index)

	o.logger.Info("segment_invoking",
		"segment", w.Index,
		"window", w.String(),
	)

	agg := parser.NewAggregator(w.Index)
	handler := logging.NewStderrHandler(w.Index, o.logger, o.config.Verbose)
	parsers := []parser.LineParser{agg, handler}

	var sink *debuglog.SegmentWriter
	if o.debugDir != nil {
		var err error
		if sink, err = o.debugDir.Open(w.Index); err != nil {
			o.logger.Warn("debug_log_open_failed", "segment", w.Index, "error", err)
		} else {
			parsers = append(parsers, sink)
		}
	}

	res, runErr := o.supervisor.Run(ctx, w, parsers...)

	if sink != nil {
		if err := sink.Close(); err != nil {
			o.logger.Warn("debug_log_write_failed", "segment", w.Index, "error", err)
		}
	}

	// Cancellation is not a transcoder failure.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if reason, cause := o.classifyFailure(res, runErr); reason != "" {
		o.metrics.RecordTranscoderFailure(reason)
		terr := &TranscoderError{
			Segment:     w.Index,
			ExitCode:    res.ExitCode,
			Reason:      reason,
			Tail:        handler.RecentLines(tailLines),
			ErrorCounts: handler.CountErrors(),
			Err:         cause,
		}
		o.logger.Error("transcoder_failed",
			"segment", w.Index,
			"reason", reason,
			"exit_code", res.ExitCode,
			"error", cause,
		)
		return nil, terr
	}

	o.setState(w.Index, StateAggregating)
	seg := agg.Segment()

	if o.debugDir != nil {
		if err := o.debugDir.WriteBuckets(seg); err != nil {
			o.logger.Warn("debug_log_write_failed", "segment", w.Index, "error", err)
		}
	}

	o.stats.RecordSegment(seg, res.Uptime)
	o.metrics.RecordSegment(seg, res.Uptime)

	_, diagnostics := handler.Counts()
	o.logger.Info("segment_complete",
		"segment", w.Index,
		"packets", seg.PacketCount(),
		"out_video", len(seg.Out.Video),
		"out_audio", len(seg.Out.Audio),
		"discarded", seg.Discarded,
		"diagnostics", diagnostics,
		"elapsed", res.Uptime.String(),
	)

	if w.Index == 0 {
		o.logger.Info("run_estimate",
			"windows", o.schedule.Count(),
			"estimated_duration", o.schedule.EstimatedDuration(res.Uptime).Round(time.Second).String(),
		)
	}

	if o.callbacks.OnSegment != nil {
		o.callbacks.OnSegment(seg, res)
	}

	return seg, nil
}

// tailLines is how many diagnostic lines a TranscoderError carries.
const tailLines = 20

// classifyFailure maps a supervisor outcome to a failure reason and cause.
// An empty reason means the invocation succeeded.
func (o *Orchestrator) classifyFailure(res supervisor.Result, runErr error) (string, error) {
	switch {
	case !res.Started:
		return metrics.FailureStart, runErr
	case res.TimedOut:
		return metrics.FailureTimeout, fmt.Errorf("%w after %v", ErrTimeout, o.config.Timeout)
	case res.ExitCode != 0:
		return metrics.FailureExit, runErr
	case runErr != nil:
		return metrics.FailureRead, runErr
	case res.Lines == 0:
		return metrics.FailureNoOutput, ErrNoOutput
	}
	return "", nil
}

// recordBoundary logs, records and reports one seam check.
func (o *Orchestrator) recordBoundary(r seam.BoundaryResult) {
	for _, t := range r.Tracks() {
		o.logTrack(r.Segment, t)
	}

	o.stats.RecordBoundary(r)
	o.metrics.RecordBoundary(r)
	tui.SendStats(o.program, o.stats.Snapshot(), o.Progress())

	if o.callbacks.OnBoundary != nil {
		o.callbacks.OnBoundary(r)
	}
}

// logTrack writes one boundary_checked line. Failures carry both boundary
// timestamps and both gaps at error level.
func (o *Orchestrator) logTrack(segment int, t seam.TrackResult) {
	attrs := []any{
		"segment", segment,
		"track", t.Track.String(),
		"verdict", t.Verdict.String(),
	}

	if t.Verdict == seam.Inconclusive {
		o.logger.Warn("boundary_checked", append(attrs, "reason", t.Reason)...)
		return
	}

	attrs = append(attrs,
		"last_pts", t.Last.PTS,
		"last_dts", t.Last.DTS,
		"first_pts", t.First.PTS,
		"first_dts", t.First.DTS,
		"actual_gap", t.ActualGap,
		"expected_gap", t.ExpectedGap,
		"deviation", t.Deviation(),
	)
	if t.Verdict == seam.Fail {
		o.logger.Error("boundary_checked", attrs...)
		return
	}
	o.logger.Info("boundary_checked", attrs...)
}

// abort moves the loop to StateFailed and records err.
func (o *Orchestrator) abort(segment int, err error) error {
	o.setState(segment, StateFailed)
	o.stats.SetError(err)
	if errors.Is(err, context.Canceled) {
		o.logger.Info("run_cancelled", "segment", segment)
	}
	return err
}

// writeOutputs writes the optional JSON report and metrics textfile.
func (o *Orchestrator) writeOutputs(snap stats.Snapshot) error {
	var errs []error

	if o.config.ReportJSON != "" {
		report := stats.BuildReport(snap, o.summaryConfig())
		if err := stats.WriteReport(o.config.ReportJSON, report); err != nil {
			errs = append(errs, err)
		} else {
			o.logger.Info("report_written", "path", o.config.ReportJSON)
		}
	}

	if o.config.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(o.config.MetricsTextfile, o.gatherer); err != nil {
			errs = append(errs, err)
		} else {
			o.logger.Info("metrics_textfile_written", "path", o.config.MetricsTextfile)
		}
	}

	return errors.Join(errs...)
}

func (o *Orchestrator) summaryConfig() stats.SummaryConfig {
	cfg := stats.SummaryConfig{
		Input:           o.config.InputPath,
		Codec:           o.config.Codec,
		SegmentDuration: o.config.SegmentDuration,
		TotalDuration:   o.config.TotalDuration,
		MetricsAddr:     o.config.MetricsAddr,
	}
	if o.debugDir != nil {
		cfg.DebugDir = o.debugDir.Path()
	}
	return cfg
}

// Callback handlers

func (o *Orchestrator) onProcessState(segment int, oldState, newState supervisor.State) {
	o.logger.Debug("transcoder_state_change",
		"segment", segment,
		"from", oldState.String(),
		"to", newState.String(),
	)
}

func (o *Orchestrator) onStart(segment int, pid int) {
	if o.config.Verbose {
		o.logger.Debug("transcoder_process_started", "segment", segment, "pid", pid)
	}
}

func (o *Orchestrator) onExit(segment int, exitCode int, uptime time.Duration) {
	if exitCode != 0 {
		o.logger.Debug("transcoder_process_exited", "segment", segment, "exit_code", exitCode, "uptime", uptime.String())
	}
}

// State management

func (o *Orchestrator) setState(segment int, newState RunState) {
	o.stateMu.Lock()
	oldState := o.state
	o.state = newState
	o.segment = segment
	o.stateMu.Unlock()

	if o.callbacks.OnStateChange != nil && oldState != newState {
		o.callbacks.OnStateChange(segment, oldState, newState)
	}
}

// State returns the current loop state.
func (o *Orchestrator) State() RunState {
	o.stateMu.RLock()
	defer o.stateMu.RUnlock()
	return o.state
}

// Segment returns the index of the window the loop is on.
func (o *Orchestrator) Segment() int {
	o.stateMu.RLock()
	defer o.stateMu.RUnlock()
	return o.segment
}

// Progress reports the loop position for the dashboard.
func (o *Orchestrator) Progress() tui.Progress {
	o.stateMu.RLock()
	defer o.stateMu.RUnlock()
	return tui.Progress{
		State:   o.state.String(),
		Segment: o.segment,
		Windows: o.schedule.Count(),
		Window:  o.schedule.Window(o.segment).String(),
	}
}

// Snapshot returns the current run statistics.
func (o *Orchestrator) Snapshot() stats.Snapshot {
	return o.stats.Snapshot()
}

// Passed returns true if the run finished and every boundary passed on both
// tracks.
func (o *Orchestrator) Passed() bool {
	return o.State() == StateDone && o.stats.Snapshot().Passed()
}

// Schedule returns the window schedule.
func (o *Orchestrator) Schedule() *WindowSchedule {
	return o.schedule
}

// Runner returns the transcoder runner for external access.
func (o *Orchestrator) Runner() process.Runner {
	return o.runner
}
