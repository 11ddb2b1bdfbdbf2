package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseFlags parses command-line flags and returns a Config.
// Returns an error if required arguments are missing or invalid.
func ParseFlags() (*Config, error) {
	return ParseArgs(os.Args[1:], os.Stderr)
}

// ParseArgs parses args (without the program name) into a Config. Usage
// output goes to w.
func ParseArgs(args []string, w io.Writer) (*Config, error) {
	cfg := DefaultConfig()
	fs := flag.NewFlagSet("go-ffmpeg-seam-check", flag.ContinueOnError)
	fs.SetOutput(w)

	// Custom usage message
	fs.Usage = func() {
		fmt.Fprintf(w, `go-ffmpeg-seam-check - segment boundary continuity checker for segmented transcoding

Usage:
  go-ffmpeg-seam-check [flags] <INPUT>

Transcoder Flags:
`)
		// Print flags by category
		printFlagCategory(fs, w, []string{"transcoder", "codec", "timeout"})

		fmt.Fprintf(w, "\nSegmentation:\n")
		printFlagCategory(fs, w, []string{"segment-duration", "duration"})

		fmt.Fprintf(w, "\nOutput:\n")
		printFlagCategory(fs, w, []string{"debug-dir", "report-json"})

		fmt.Fprintf(w, "\nSafety & Diagnostics:\n")
		printFlagCategory(fs, w, []string{"print-cmd", "check", "skip-preflight", "fail-fast", "ffprobe"})

		fmt.Fprintf(w, "\nObservability:\n")
		printFlagCategory(fs, w, []string{"metrics", "metrics-textfile", "v", "log-format"})

		fmt.Fprintf(w, "\nDashboard:\n")
		printFlagCategory(fs, w, []string{"tui"})

		fmt.Fprintf(w, `
Flag Convention:
  Single-dash flags (-codec, -duration) are normal options.
  Double-dash flags (--print-cmd, --fail-fast) are safety gates or diagnostic modes.

Examples:
  # Check 20 minutes of input in 4s windows
  go-ffmpeg-seam-check -codec h264_qsv /media/sample.ts

  # Keep per-segment logs and stop at the first seam
  go-ffmpeg-seam-check -debug-dir ./seams --fail-fast /media/sample.ts

  # Show the first invocation without running it
  go-ffmpeg-seam-check --print-cmd /media/sample.ts

`)
	}

	// Transcoder flags
	fs.StringVar(&cfg.TranscoderPath, "transcoder", cfg.TranscoderPath, "Path to the segment transcoder binary")
	fs.StringVar(&cfg.Codec, "codec", cfg.Codec, "Target video encoder passed to the transcoder")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Kill an invocation that runs longer than this (0 = no limit)")

	// Segmentation
	fs.DurationVar(&cfg.SegmentDuration, "segment-duration", cfg.SegmentDuration, "Length of each transcoded window")
	fs.DurationVar(&cfg.TotalDuration, "duration", cfg.TotalDuration, "Span of input to check, starting at 0")

	// Output
	fs.StringVar(&cfg.DebugDir, "debug-dir", cfg.DebugDir, "Write per-segment stderr and bucket logs to this directory")
	fs.StringVar(&cfg.ReportJSON, "report-json", cfg.ReportJSON, "Write the run result as JSON to this file")

	// Safety & Diagnostics (double-dash convention)
	fs.BoolVar(&cfg.PrintCmd, "print-cmd", cfg.PrintCmd, "Print the transcoder command for the first windows and exit")
	fs.BoolVar(&cfg.Check, "check", cfg.Check, "Validate config and check only the first 3 windows")
	fs.BoolVar(&cfg.SkipPreflight, "skip-preflight", cfg.SkipPreflight, "Skip preflight checks")
	fs.BoolVar(&cfg.FailFast, "fail-fast", cfg.FailFast, "Stop after the first boundary that does not pass")
	fs.StringVar(&cfg.FFprobePath, "ffprobe", cfg.FFprobePath, "Path to ffprobe, used by preflight to inspect the input")

	// Observability
	fs.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, `Prometheus metrics address ("" disables)`)
	fs.StringVar(&cfg.MetricsTextfile, "metrics-textfile", cfg.MetricsTextfile, "Write final metrics to this node_exporter textfile")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging (includes transcoder diagnostics)")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, `Log format: "json" or "text"`)

	// TUI (Terminal User Interface)
	fs.BoolVar(&cfg.TUIEnabled, "tui", cfg.TUIEnabled, "Enable live terminal dashboard")

	// Parse
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Positional argument: input file
	if rest := fs.Args(); len(rest) >= 1 {
		cfg.InputPath = rest[0]
	}

	return cfg, nil
}

// printFlagCategory prints flags matching the given names (helper for usage).
func printFlagCategory(fs *flag.FlagSet, w io.Writer, names []string) {
	fs.VisitAll(func(f *flag.Flag) {
		for _, name := range names {
			if f.Name == name {
				fmt.Fprintf(w, "  -%s %s\n    \t%s", f.Name, flagType(f), f.Usage)
				if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" && f.DefValue != "0s" {
					fmt.Fprintf(w, " (default %s)", f.DefValue)
				}
				fmt.Fprintln(w)
				return
			}
		}
	})
}

// flagType returns a type hint for the flag value.
func flagType(f *flag.Flag) string {
	// Infer type from default value format
	switch f.DefValue {
	case "true", "false":
		return ""
	}

	// Check if it looks like a duration
	if strings.HasSuffix(f.DefValue, "s") || strings.HasSuffix(f.DefValue, "m") || strings.HasSuffix(f.DefValue, "h") {
		return "duration"
	}

	// Check if numeric
	if _, err := fmt.Sscanf(f.DefValue, "%d", new(int)); err == nil {
		return "int"
	}

	return "string"
}
