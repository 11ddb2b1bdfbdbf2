// Package main provides the go-ffmpeg-seam-check CLI entry point.
//
// go-ffmpeg-seam-check transcodes an input one fixed-duration window at a
// time and verifies that the audio and video timestamps of consecutive
// windows join without gaps or overlaps.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/config"
	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/logging"
	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/orchestrator"
	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/process"
	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/seam"
)

// version is set at build time via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0" ./cmd/go-ffmpeg-seam-check
var version = "dev"

// printCmdWindows is how many commands --print-cmd shows.
const printCmdWindows = 3

func main() {
	os.Exit(run())
}

func run() int {
	// Handle version flag early (before flag parsing)
	if len(os.Args) > 1 {
		arg := os.Args[1]
		if arg == "-version" || arg == "--version" || arg == "version" {
			fmt.Printf("go-ffmpeg-seam-check %s\n", version)
			return 0
		}
	}

	// Parse command-line flags
	cfg, err := config.ParseFlags()
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		return 1
	}

	// Apply --check mode modifications
	if cfg.Check {
		config.ApplyCheckMode(cfg)
	}

	// When TUI is enabled, suppress logs to avoid interfering with TUI rendering
	var logger *slog.Logger
	if cfg.TUIEnabled {
		logger = logging.Discard()
	} else {
		logger = logging.NewLogger(cfg.LogFormat, "info", cfg.Verbose)
	}
	logging.SetDefault(logger)

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}

	schedule := orchestrator.NewWindowSchedule(cfg.SegmentDuration, cfg.TotalDuration)

	if cfg.Check {
		logger.Info("check_mode_enabled", "windows", schedule.Count(), "duration", cfg.TotalDuration.String())
	}

	// Handle --print-cmd mode
	if cfg.PrintCmd {
		printTranscoderCommands(cfg, schedule)
		return 0
	}

	logger.Info("starting",
		"version", version,
		"input", cfg.InputPath,
		"transcoder", cfg.TranscoderPath,
		"codec", cfg.Codec,
		"segment_duration", cfg.SegmentDuration.String(),
		"duration", cfg.TotalDuration.String(),
		"metrics_addr", cfg.MetricsAddr,
	)

	if !cfg.TUIEnabled {
		printBanner(cfg, schedule)
	}

	orch := orchestrator.New(cfg, logger, orchestrator.WithVersion(version))
	if err := orch.Run(context.Background()); err != nil {
		logger.Error("run_failed", "error", err)
		return 1
	}

	if !orch.Passed() {
		return 1
	}
	return 0
}

// printBanner prints the startup banner.
func printBanner(cfg *config.Config, schedule *orchestrator.WindowSchedule) {
	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                     go-ffmpeg-seam-check                          ║")
	fmt.Println("║      Segment Boundary Continuity for Segmented Transcodes         ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Input:       %s\n", cfg.InputPath)
	fmt.Printf("  Transcoder:  %s (%s)\n", cfg.TranscoderPath, cfg.Codec)
	fmt.Printf("  Windows:     %d × %s over %s\n", schedule.Count(), cfg.SegmentDuration, cfg.TotalDuration)
	fmt.Printf("  Tolerance:   %g s\n", seam.Tolerance)
	if cfg.MetricsAddr != "" {
		fmt.Printf("  Metrics:     http://%s/metrics\n", cfg.MetricsAddr)
	}
	if cfg.DebugDir != "" {
		fmt.Printf("  Debug logs:  %s\n", cfg.DebugDir)
	}
	if cfg.FailFast {
		fmt.Println("  Mode:        FAIL FAST (stop at first failing boundary)")
	}
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop.")
	fmt.Println()
}

// printTranscoderCommands prints the commands that would be run for the
// first windows.
func printTranscoderCommands(cfg *config.Config, schedule *orchestrator.WindowSchedule) {
	runner := process.NewTranscoderRunner(&process.TranscoderConfig{
		BinaryPath: cfg.TranscoderPath,
		InputPath:  cfg.InputPath,
		Codec:      cfg.Codec,
	})
	n := schedule.Count()
	fmt.Printf("# Transcoder commands (%d windows in total):\n", n)
	fmt.Println()
	for i := 0; i < n && i < printCmdWindows; i++ {
		fmt.Println(runner.CommandString(schedule.Window(i)))
	}
	if n > printCmdWindows {
		fmt.Println("# ...")
		fmt.Println(runner.CommandString(schedule.Window(n - 1)))
	}
}
