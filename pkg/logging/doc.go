// Package logging provides structured logging setup for bootanalyze.
//
// # Overview
//
// This package wraps the standard library slog package with a JSON handler on
// stderr so that log output never mixes with the report printed on stdout.
// Every logger carries the module name and build version. Debug level adds
// source locations.
//
// # Log Levels
//
// Supported log levels (case-insensitive):
//   - DEBUG: every matched line, anchor construction, per-event correction
//   - INFO: tailer lifecycle, reconnects, iteration results (default)
//   - WARN/WARNING: dropped lines, zygote naming collisions, timeouts
//   - ERROR: failed iterations and device commands
//
// # Usage
//
//	func main() {
//	    logging.SetDefaultStructuredLogger("bootanalyze", version)
//	    slog.Info("tailer started", "channel", "kernel")
//	}
//
// Setting an explicit level, as the CLI does for --log-level and --debug:
//
//	logging.SetDefaultStructuredLoggerWithLevel("bootanalyze", version, "debug")
//
// # Environment Configuration
//
// The LOG_LEVEL environment variable controls verbosity when no flag is given:
//
//	LOG_LEVEL=debug bootanalyze run -c patterns.yaml
//
// # Output Format
//
//	{
//	    "time": "2025-01-15T10:30:00.123Z",
//	    "level": "INFO",
//	    "msg": "stop event matched",
//	    "module": "bootanalyze",
//	    "version": "v0.1.0",
//	    "channel": "user",
//	    "event": "BootComplete"
//	}
//
// # Integration
//
// The CLI installs the default logger before any command runs; tailers,
// the reconciler, the device transport, and the analyzer all log through
// slog package-level functions so they share one format and level.
package logging
