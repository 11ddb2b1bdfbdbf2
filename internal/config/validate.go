package config

import (
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for errors and inconsistencies.
// Returns nil if valid, or an error describing the problem.
func Validate(cfg *Config) error {
	var errs []error

	// Input is required (unless --print-cmd)
	if cfg.InputPath == "" && !cfg.PrintCmd {
		errs = append(errs, ValidationError{
			Field:   "input",
			Message: "input file is required",
		})
	}

	if cfg.TranscoderPath == "" {
		errs = append(errs, ValidationError{
			Field:   "transcoder",
			Message: "must not be empty",
		})
	}

	if strings.TrimSpace(cfg.Codec) == "" {
		errs = append(errs, ValidationError{
			Field:   "codec",
			Message: "must not be empty",
		})
	}

	// Segment duration must be positive and representable by the transcoder
	if cfg.SegmentDuration <= 0 {
		errs = append(errs, ValidationError{
			Field:   "segment_duration",
			Message: "must be positive",
		})
	} else if cfg.SegmentDuration%time.Millisecond != 0 {
		errs = append(errs, ValidationError{
			Field:   "segment_duration",
			Message: fmt.Sprintf("must be a whole number of milliseconds (got %v)", cfg.SegmentDuration),
		})
	}

	if cfg.TotalDuration <= 0 {
		errs = append(errs, ValidationError{
			Field:   "duration",
			Message: "must be positive",
		})
	}

	// Timeout may be 0 (disabled) but not negative
	if cfg.Timeout < 0 {
		errs = append(errs, ValidationError{
			Field:   "timeout",
			Message: "must not be negative",
		})
	}

	// Log format must be valid
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.LogFormat] {
		errs = append(errs, ValidationError{
			Field:   "log_format",
			Message: fmt.Sprintf("must be 'json' or 'text' (got %q)", cfg.LogFormat),
		})
	}

	if cfg.MetricsAddr != "" {
		if err := validateAddr(cfg.MetricsAddr); err != nil {
			errs = append(errs, ValidationError{
				Field:   "metrics",
				Message: err.Error(),
			})
		}
	}

	// The report and the textfile must not overwrite the input
	outputs := []struct{ field, path string }{
		{"report_json", cfg.ReportJSON},
		{"metrics_textfile", cfg.MetricsTextfile},
	}
	for _, out := range outputs {
		if out.path != "" && cfg.InputPath != "" && filepath.Clean(out.path) == filepath.Clean(cfg.InputPath) {
			errs = append(errs, ValidationError{
				Field:   out.field,
				Message: "must not be the input file",
			})
		}
	}

	// Return combined errors
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// validateAddr checks that addr is a host:port listen address.
func validateAddr(addr string) error {
	if strings.Contains(addr, "://") {
		return errors.New("must be host:port, not a URL")
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}
	return nil
}
