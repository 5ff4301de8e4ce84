// Package feed_tools provides MCP (Model Context Protocol) tools for
// managing iCalendar feed subscriptions.
//
// Tools:
//   - add_calendar_feed: register a feed URL and fetch it immediately
//   - remove_calendar_feed: drop a feed by ID, name or URL
//   - get_calendar_feeds: list configured feeds with their status
//   - refresh_calendar_feeds: force-refresh one feed or all of them
//   - get_calendar_info: feed health report with event counts and
//     calendar metadata (cached)
//
// All results are JSON payloads. Domain failures (invalid URLs, unknown
// feed identifiers, fetch errors) are returned as tool error results
// with remediation guidance, never as Go errors.
package feed_tools
