package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},      // Default
		{"trace", slog.LevelInfo}, // Unknown level defaults to info
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			result := parseLevel(tc.input)
			if result != tc.expected {
				t.Errorf("parseLevel(%q) = %v, want %v", tc.input, result, tc.expected)
			}
		})
	}
}

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "text", "JSON", "", "invalid"} {
		t.Run(format, func(t *testing.T) {
			if NewLogger(format, "info", false) == nil {
				t.Error("NewLogger returned nil")
			}
		})
	}
}

func TestNewLogger_VerboseEnablesDebug(t *testing.T) {
	logger := NewLogger("json", "error", true)
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("verbose logger should enable debug")
	}

	quiet := NewLogger("json", "error", false)
	if quiet.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("error-level logger should not enable warn")
	}
}

// =============================================================================
// NewLoggerWithWriter
// =============================================================================

func TestNewLoggerWithWriter_Formats(t *testing.T) {
	testCases := []struct {
		format   string
		wantJSON bool
	}{
		{"json", true},
		{"JSON", true},
		{"text", false},
		{"Text", false},
		{"", true},
		{"logfmt", true},
	}

	for _, tc := range testCases {
		t.Run(tc.format, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerWithWriter(&buf, tc.format, "info")
			logger.Info("boundary_checked", "segment", 3, "track", "audio")

			output := strings.TrimSpace(buf.String())
			var rec map[string]any
			isJSON := json.Unmarshal([]byte(output), &rec) == nil
			if isJSON != tc.wantJSON {
				t.Fatalf("JSON output = %v, want %v: %s", isJSON, tc.wantJSON, output)
			}
			if isJSON {
				if rec["msg"] != "boundary_checked" || rec["track"] != "audio" {
					t.Errorf("unexpected record: %v", rec)
				}
				return
			}
			if !strings.Contains(output, "segment=3") || !strings.Contains(output, "track=audio") {
				t.Errorf("text output missing attrs: %s", output)
			}
		})
	}
}

func TestNewLoggerWithWriter_LevelFiltering(t *testing.T) {
	testCases := []struct {
		level string
		want  []string
		skip  []string
	}{
		{"debug", []string{"debug msg", "info msg", "warn msg", "error msg"}, nil},
		{"info", []string{"info msg", "warn msg", "error msg"}, []string{"debug msg"}},
		{"warn", []string{"warn msg", "error msg"}, []string{"debug msg", "info msg"}},
		{"error", []string{"error msg"}, []string{"debug msg", "info msg", "warn msg"}},
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerWithWriter(&buf, "text", tc.level)

			logger.Debug("debug msg")
			logger.Info("info msg")
			logger.Warn("warn msg")
			logger.Error("error msg")

			output := buf.String()
			for _, s := range tc.want {
				if !strings.Contains(output, s) {
					t.Errorf("%s level should log %q", tc.level, s)
				}
			}
			for _, s := range tc.skip {
				if strings.Contains(output, s) {
					t.Errorf("%s level should not log %q", tc.level, s)
				}
			}
		})
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	if logger == nil {
		t.Fatal("Discard returned nil")
	}
	// Must not panic or write anywhere.
	logger.Error("transcoder_failed", "segment", 1)
}

func TestSetDefault(t *testing.T) {
	originalDefault := slog.Default()
	defer slog.SetDefault(originalDefault)

	var buf bytes.Buffer
	SetDefault(NewLoggerWithWriter(&buf, "text", "info"))

	slog.Info("from default logger")
	if !strings.Contains(buf.String(), "from default logger") {
		t.Error("SetDefault did not set the default logger")
	}
}
