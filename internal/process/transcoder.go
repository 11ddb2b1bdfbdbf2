package process

import (
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// TranscoderConfig holds configuration for transcoder process execution.
type TranscoderConfig struct {
	// BinaryPath is the path to the segment transcoder binary.
	BinaryPath string

	// InputPath is the media file every window is cut from.
	InputPath string

	// Codec is the target video encoder name (e.g. "h264_qsv", "libx264").
	Codec string
}

// TranscoderRunner implements Runner for the segment transcoder.
//
// The transcoder takes four positional arguments:
//
//	<input> <codec> <start_seconds> <duration_seconds>
//
// and writes one timing line per packet to stderr.
type TranscoderRunner struct {
	config *TranscoderConfig
}

// NewTranscoderRunner creates a new transcoder runner with the given configuration.
func NewTranscoderRunner(cfg *TranscoderConfig) *TranscoderRunner {
	return &TranscoderRunner{
		config: cfg,
	}
}

// Name returns the base name of the transcoder binary.
func (r *TranscoderRunner) Name() string {
	name := filepath.Base(r.config.BinaryPath)
	if name == "." || name == string(filepath.Separator) {
		return "transcoder"
	}
	return name
}

// BuildCommand creates an exec.Cmd that transcodes window w.
func (r *TranscoderRunner) BuildCommand(ctx context.Context, w Window) (*exec.Cmd, error) {
	if r.config.BinaryPath == "" {
		return nil, errors.New("transcoder binary path is empty")
	}
	if w.Duration <= 0 {
		return nil, errors.New("window duration must be positive")
	}
	cmd := exec.CommandContext(ctx, r.config.BinaryPath, r.buildArgs(w)...)
	return cmd, nil
}

// buildArgs constructs the transcoder's positional arguments.
func (r *TranscoderRunner) buildArgs(w Window) []string {
	return []string{
		r.config.InputPath,
		r.config.Codec,
		FormatSeconds(w.Start),
		FormatSeconds(w.Duration),
	}
}

// Config returns the transcoder configuration.
func (r *TranscoderRunner) Config() *TranscoderConfig {
	return r.config
}

// CommandString returns the command that would be executed for w (for debugging).
func (r *TranscoderRunner) CommandString(w Window) string {
	args := r.buildArgs(w)
	return r.config.BinaryPath + " " + strings.Join(args, " ")
}

// FormatSeconds renders a duration as decimal seconds with no trailing zeros
// ("4", "0.5", "1196").
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
