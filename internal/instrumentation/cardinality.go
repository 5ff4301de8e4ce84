package instrumentation

import "strings"

// Cardinality management helpers for metrics.
// These functions reduce high-cardinality label values to prevent metrics explosion.
//
// # Warning
//
// High cardinality in metrics can cause:
// - Increased memory usage in Prometheus/metrics backends
// - Slower query performance
// - Higher storage costs
//
// Always use these helpers when recording metrics with user-supplied values.

// maxFeedLabelLength caps feed names used as metric labels. Feed names come
// from user configuration and can be arbitrarily long.
const maxFeedLabelLength = 64

// SanitizeFeedLabel normalizes a feed name for use as a metric label:
// lowercased, trimmed and capped in length.
//
// Example:
//
//	SanitizeFeedLabel("Team Calendar")  // "team calendar"
//	SanitizeFeedLabel("  Work  ")       // "work"
//	SanitizeFeedLabel("")               // "unknown"
func SanitizeFeedLabel(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "unknown"
	}
	if len(name) > maxFeedLabelLength {
		name = name[:maxFeedLabelLength]
	}
	return name
}
