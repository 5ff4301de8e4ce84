package logging

import (
	"log/slog"
	"net/url"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyFeed      = "feed"
	KeyFeedID    = "feed_id"
	KeyURL       = "url"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyTool      = "tool"
)

// Status values for consistent logging.
// Note: These are intentionally duplicated from instrumentation package
// to avoid circular dependencies (instrumentation imports logging).
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithFeed returns a logger with the feed name attribute set.
func WithFeed(logger *slog.Logger, feed string) *slog.Logger {
	return logger.With(slog.String(KeyFeed, feed))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Feed returns a slog attribute for the feed name.
func Feed(feed string) slog.Attr {
	return slog.String(KeyFeed, feed)
}

// FeedID returns a slog attribute for the feed identifier.
func FeedID(id string) slog.Attr {
	return slog.String(KeyFeedID, id)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
// This allows safely passing Err(maybeNilErr) without adding empty attributes.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		// Return an empty Group that slog will omit from output
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// RedactURL strips userinfo and query strings from a feed URL so that
// secret-bearing URLs (basic auth credentials, signed query tokens) never
// reach the logs. The scheme, host and path remain for correlation.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "<invalid-url>"
	}
	u.User = nil
	if u.RawQuery != "" {
		u.RawQuery = "redacted"
	}
	u.Fragment = ""
	return u.String()
}

// URL returns a slog attribute with the redacted feed URL.
func URL(raw string) slog.Attr {
	return slog.String(KeyURL, RedactURL(raw))
}

// ExtractHost extracts the host part from a feed URL for lower-cardinality
// logging where the full URL would create too many unique values.
func ExtractHost(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Host)
}

// Host returns a slog attribute for the feed host (lower cardinality than full URL).
func Host(raw string) slog.Attr {
	return slog.String("feed_host", ExtractHost(raw))
}
