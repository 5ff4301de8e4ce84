// Package logging provides structured logging utilities for the icalmcp application.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - Feed URL redaction (credentials and signed query tokens)
//   - Consistent attribute naming across the codebase
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "feed.fetch")
//	logger.Info("feed fetched",
//	    logging.Status("success"))
//
// Redact sensitive data before logging:
//
//	logger.Info("feed registered",
//	    logging.URL(feedURL))
//
// # Security Considerations
//
// Calendar feed URLs frequently embed credentials (basic auth userinfo) or
// signed tokens in the query string. RedactURL strips both before a URL is
// logged, keeping only scheme, host and path for correlation.
package logging
