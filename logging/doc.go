// Package logging provides a minimal logging interface and adapters for polystream.
//
// The Logger interface defines the standard logging methods (Debug, Info, Warn, Error)
// that the stream session and runner use for observability. This package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - ZapAdapter wrapping go.uber.org/zap
//   - RingLogger, a bounded in-memory circular buffer (diagnostics, tests)
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewSlogLogger(logging.LogLevelInfo, "json", false)
//	r := runner.New(cfg, func(o *runner.Options) { o.Logger = logger })
//
// The design intentionally keeps the interface minimal so callers can plug
// any structured logger; nothing in the module depends on a global instance.
package logging
