// Package preflight provides startup validation checks.
package preflight

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/process"
)

// probeTimeout bounds the ffprobe call in the stream layout check.
const probeTimeout = 10 * time.Second

// Check represents the result of a single preflight check.
type Check struct {
	Name     string // Name of the check
	Required int    // Required value (if applicable)
	Actual   int    // Actual value found
	Passed   bool   // Whether the check passed
	Warning  bool   // True if it's a warning (non-fatal)
	Message  string // Additional context
}

// Result holds the results of all preflight checks.
type Result struct {
	Checks []Check
	Passed bool
}

// Options selects what RunAll inspects.
type Options struct {
	TranscoderPath string
	InputPath      string
	DebugDir       string // "" skips the writability check
	ReportJSON     string
	FFprobePath    string // "" skips the stream layout check
}

// String returns a human-readable summary of the check.
func (c Check) String() string {
	status := "✓"
	if !c.Passed {
		status = "✗"
	} else if c.Warning {
		status = "⚠"
	}

	if c.Required > 0 {
		return fmt.Sprintf("  %s %s: %d available (need %d)", status, c.Name, c.Actual, c.Required)
	}
	return fmt.Sprintf("  %s %s: %s", status, c.Name, c.Message)
}

// add appends c and folds its outcome into the overall result. Warnings
// never fail the run.
func (r *Result) add(c Check) {
	r.Checks = append(r.Checks, c)
	if !c.Passed {
		r.Passed = false
	}
}

// RunAll executes all preflight checks.
func RunAll(ctx context.Context, opts Options) *Result {
	result := &Result{
		Checks: make([]Check, 0, 6),
		Passed: true,
	}

	result.add(checkFileDescriptors())
	result.add(checkTranscoder(opts.TranscoderPath))
	result.add(checkInput(opts.InputPath))
	if opts.DebugDir != "" {
		result.add(checkWritableDir("debug_dir", opts.DebugDir))
	}
	if opts.ReportJSON != "" {
		result.add(checkWritableDir("report_dir", filepath.Dir(opts.ReportJSON)))
	}
	if opts.FFprobePath != "" {
		result.add(checkStreamLayout(ctx, process.NewProber(opts.FFprobePath), opts.InputPath))
	}

	return result
}

// checkFileDescriptors verifies the handful of descriptors one invocation
// needs: the stderr pipe, debug logs and the metrics listener.
func checkFileDescriptors() Check {
	var limit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &limit); err != nil {
		return Check{
			Name:    "file_descriptors",
			Passed:  true,
			Warning: true,
			Message: fmt.Sprintf("unable to check: %v", err),
		}
	}

	const required = 64
	actual := int(limit.Cur)

	return Check{
		Name:     "file_descriptors",
		Required: required,
		Actual:   actual,
		Passed:   actual >= required,
		Message:  fmt.Sprintf("ulimit -n %d (need %d)", actual, required),
	}
}

// checkTranscoder verifies the transcoder binary resolves. It is not run:
// the transcoder has no side-effect free invocation.
func checkTranscoder(path string) Check {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return Check{
			Name:    "transcoder",
			Passed:  false,
			Message: fmt.Sprintf("not found at %s: %v", path, err),
		}
	}

	return Check{
		Name:    "transcoder",
		Passed:  true,
		Message: fmt.Sprintf("found at %s", resolved),
	}
}

// checkInput verifies the input is a readable, non-empty regular file.
func checkInput(path string) Check {
	f, err := os.Open(path)
	if err != nil {
		return Check{
			Name:    "input",
			Passed:  false,
			Message: fmt.Sprintf("cannot open %s: %v", path, err),
		}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Check{
			Name:    "input",
			Passed:  false,
			Message: fmt.Sprintf("cannot stat %s: %v", path, err),
		}
	}
	if !info.Mode().IsRegular() {
		return Check{
			Name:    "input",
			Passed:  false,
			Message: fmt.Sprintf("%s is not a regular file", path),
		}
	}
	if info.Size() == 0 {
		return Check{
			Name:    "input",
			Passed:  false,
			Message: fmt.Sprintf("%s is empty", path),
		}
	}

	return Check{
		Name:    "input",
		Passed:  true,
		Message: fmt.Sprintf("%s (%d bytes)", path, info.Size()),
	}
}

// checkWritableDir creates dir if needed and verifies a file can be created in it.
func checkWritableDir(name, dir string) Check {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Check{
			Name:    name,
			Passed:  false,
			Message: fmt.Sprintf("cannot create %s: %v", dir, err),
		}
	}

	f, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		return Check{
			Name:    name,
			Passed:  false,
			Message: fmt.Sprintf("%s is not writable: %v", dir, err),
		}
	}
	f.Close()
	os.Remove(f.Name())

	return Check{
		Name:    name,
		Passed:  true,
		Message: fmt.Sprintf("%s is writable", dir),
	}
}

// checkStreamLayout probes the input and warns when it does not carry both a
// video and an audio stream. The transcoder maps stream 0 to video and stream
// 1 to audio, so a missing track turns every boundary inconclusive.
func checkStreamLayout(ctx context.Context, prober *process.Prober, input string) Check {
	if !prober.Available() {
		return Check{
			Name:    "stream_layout",
			Passed:  true,
			Warning: true,
			Message: "ffprobe not found, layout not checked",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	layout, err := prober.ProbeStreams(ctx, input)
	if err != nil {
		return Check{
			Name:    "stream_layout",
			Passed:  true,
			Warning: true,
			Message: err.Error(),
		}
	}

	var missing string
	switch {
	case !layout.HasVideo() && !layout.HasAudio():
		missing = "no video or audio stream"
	case !layout.HasVideo():
		missing = "no video stream"
	case !layout.HasAudio():
		missing = "no audio stream"
	}
	if missing != "" {
		return Check{
			Name:    "stream_layout",
			Passed:  true,
			Warning: true,
			Message: fmt.Sprintf("%s [%s], boundaries will be inconclusive", missing, layout.Describe()),
		}
	}

	return Check{
		Name:    "stream_layout",
		Passed:  true,
		Message: layout.Describe(),
	}
}

// PrintResults prints the preflight check results to w.
func PrintResults(w io.Writer, result *Result) {
	fmt.Fprintln(w, "Preflight checks:")
	for _, check := range result.Checks {
		fmt.Fprintln(w, check.String())
		if !check.Passed {
			fmt.Fprintf(w, "    Fix: %s\n", suggestFix(check.Name))
		}
	}
	fmt.Fprintln(w)
}

// suggestFix returns a suggestion for fixing a failed check.
func suggestFix(name string) string {
	switch name {
	case "file_descriptors":
		return "ulimit -n 1024 (or edit /etc/security/limits.conf)"
	case "transcoder":
		return "pass the transcoder path with -transcoder, or add it to PATH"
	case "input":
		return "check the input path and its permissions"
	case "debug_dir":
		return "choose a writable -debug-dir"
	case "report_dir":
		return "choose a writable location for -report-json"
	default:
		return "see documentation"
	}
}
