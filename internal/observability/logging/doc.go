// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the application.
//
// Key features:
//   - JSON and text output formats
//   - Regeneration run ID tagging
//   - Context-aware logging
//   - Configurable log levels
//
// Example usage:
//
//	import "abyssal-tome/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("application started", slog.String("version", "1.0"))
//	}
//
//	func regenerate(ctx context.Context) {
//	    logger, runID := logging.WithRunID(slog.Default())
//	    logger.Info("regeneration started")
//	    _ = runID
//	}
package logging
