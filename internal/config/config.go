// Package config provides configuration management for go-ffmpeg-seam-check.
package config

import "time"

// Config holds all configuration options for the seam check run.
type Config struct {
	// Input is the media file every window is cut from (positional argument).
	InputPath string `json:"input"`

	// Transcoder
	TranscoderPath string        `json:"transcoder_path"`
	Codec          string        `json:"codec"`
	Timeout        time.Duration `json:"timeout"` // per invocation, 0 = none

	// Segmentation
	SegmentDuration time.Duration `json:"segment_duration"`
	TotalDuration   time.Duration `json:"duration"`

	// Output
	DebugDir   string `json:"debug_dir"`
	ReportJSON string `json:"report_json"`

	// Observability
	MetricsAddr     string `json:"metrics_addr"` // "" disables the HTTP server
	MetricsTextfile string `json:"metrics_textfile"`
	Verbose         bool   `json:"verbose"`
	LogFormat       string `json:"log_format"` // json, text
	TUIEnabled      bool   `json:"tui_enabled"`

	// Diagnostic modes
	PrintCmd      bool   `json:"print_cmd"`
	Check         bool   `json:"check"`
	SkipPreflight bool   `json:"skip_preflight"`
	FailFast      bool   `json:"fail_fast"`
	FFprobePath   string `json:"ffprobe_path"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		// Transcoder
		TranscoderPath: "hm_transcode",
		Codec:          "h264_qsv",
		Timeout:        0,

		// Segmentation: 300 windows of 4s
		SegmentDuration: 4 * time.Second,
		TotalDuration:   20 * time.Minute,

		// Observability
		MetricsAddr: "0.0.0.0:17092",
		Verbose:     false,
		LogFormat:   "json",
		TUIEnabled:  false,

		// Diagnostics
		FFprobePath: "ffprobe",
	}
}

// checkModeWindows is how many windows --check runs.
const checkModeWindows = 3

// ApplyCheckMode modifies config for --check mode: a short verbose run over
// the first few windows.
func ApplyCheckMode(cfg *Config) {
	if total := checkModeWindows * cfg.SegmentDuration; total < cfg.TotalDuration {
		cfg.TotalDuration = total
	}
	cfg.Verbose = true
}
