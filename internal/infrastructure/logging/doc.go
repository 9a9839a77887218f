// Package logging provides structured logging for the bridge fleet.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across all three bridge daemons.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting bridge", "bridge", "modbus")
//	logger.Error("bus read failed", "error", err)
package logging
