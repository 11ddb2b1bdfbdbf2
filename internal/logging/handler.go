package logging

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/randomizedcoder/go-ffmpeg-seam-check/internal/parser"
)

const (
	// MaxLineLength is the maximum length of a single log line before truncation.
	MaxLineLength = 4096

	// MaxBufferedLines is the maximum number of diagnostic lines kept per segment.
	MaxBufferedLines = 100
)

// StderrHandler watches transcoder stderr for one segment.
//
// Packet timing lines are counted and otherwise ignored. Every other line is
// treated as a diagnostic: it is kept in a ring buffer (the failure tail) and
// logged at a level chosen from its content.
type StderrHandler struct {
	segment int
	logger  *slog.Logger
	verbose bool

	packets     int64
	diagnostics int64

	// Circular buffer for recent diagnostic lines
	buffer []string
	bufIdx int
	mu     sync.Mutex
}

// NewStderrHandler creates a new stderr handler for a segment.
func NewStderrHandler(segment int, logger *slog.Logger, verbose bool) *StderrHandler {
	return &StderrHandler{
		segment: segment,
		logger:  logger,
		verbose: verbose,
		buffer:  make([]string, MaxBufferedLines),
	}
}

// ParseLine implements parser.LineParser.
func (h *StderrHandler) ParseLine(line string) {
	h.HandleLine(line)
}

// HandleLine processes a single line of stderr output.
func (h *StderrHandler) HandleLine(line string) {
	if _, _, ok := parser.Classify(line); ok {
		h.mu.Lock()
		h.packets++
		h.mu.Unlock()
		return
	}
	if strings.TrimSpace(line) == "" {
		return
	}

	// Truncate if too long
	if len(line) > MaxLineLength {
		line = line[:MaxLineLength] + "...(truncated)"
	}

	h.mu.Lock()
	h.buffer[h.bufIdx] = line
	h.bufIdx = (h.bufIdx + 1) % MaxBufferedLines
	h.diagnostics++
	h.mu.Unlock()

	h.logLine(line)
}

// logLine logs the line at appropriate level based on content.
func (h *StderrHandler) logLine(line string) {
	if h.logger == nil {
		return
	}
	level := h.classifyLine(line)

	// In non-verbose mode, only log warnings and errors
	if !h.verbose && level == slog.LevelDebug {
		return
	}

	h.logger.Log(context.Background(), level, "transcoder_stderr",
		"segment", h.segment,
		"line", line,
	)
}

// classifyLine determines the log level for a line based on content.
func (h *StderrHandler) classifyLine(line string) slog.Level {
	lower := strings.ToLower(line)

	// Error patterns
	if strings.Contains(lower, "[error]") ||
		strings.Contains(lower, "error") ||
		strings.Contains(lower, "failed") ||
		strings.Contains(lower, "could not") ||
		strings.Contains(lower, "invalid") {
		return slog.LevelWarn
	}

	// Warning patterns
	if strings.Contains(lower, "[warning]") ||
		strings.Contains(lower, "non-monotonous") ||
		strings.Contains(lower, "discard") {
		return slog.LevelWarn
	}

	return slog.LevelDebug
}

// RecentLines returns the most recent diagnostic lines, oldest first.
func (h *StderrHandler) RecentLines(n int) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n > MaxBufferedLines {
		n = MaxBufferedLines
	}
	if n <= 0 {
		return nil
	}

	lines := make([]string, 0, n)

	// Read from circular buffer in order
	for i := 0; i < n; i++ {
		idx := (h.bufIdx - n + i + MaxBufferedLines) % MaxBufferedLines
		if h.buffer[idx] != "" {
			lines = append(lines, h.buffer[idx])
		}
	}

	return lines
}

// Counts returns the number of packet lines and diagnostic lines seen.
func (h *StderrHandler) Counts() (packets, diagnostics int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.packets, h.diagnostics
}

// ErrorPatterns are common transcoder failure messages tallied for the exit summary.
var ErrorPatterns = []string{
	"Could not open",
	"Could not find",
	"Failed to",
	"Invalid",
	"Error",
	"not found",
}

// CountErrors counts occurrences of error patterns in the buffer.
func (h *StderrHandler) CountErrors() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()

	counts := make(map[string]int)

	for _, line := range h.buffer {
		if line == "" {
			continue
		}
		for _, pattern := range ErrorPatterns {
			if strings.Contains(line, pattern) {
				counts[pattern]++
			}
		}
	}

	return counts
}
