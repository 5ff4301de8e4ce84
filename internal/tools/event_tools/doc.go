// Package event_tools provides MCP (Model Context Protocol) tools for
// querying calendar events across all configured feeds.
//
// Range queries:
//   - get_events: date range with feed filter and pagination
//   - get_events_on_date, get_events_between_dates,
//     get_events_after_date (30-day lookahead)
//
// Convenience windows:
//   - get_today_events, get_tomorrow_events, get_week_events,
//     get_month_events, get_upcoming_events, get_current_datetime
//
// Search:
//   - search_calendar_events: case-insensitive text search over title,
//     description, location and feed names
//   - get_event_by_uid: exact UID lookup
//
// Date arguments use YYYY-MM-DD; malformed dates yield a descriptive
// tool error. Range and search results go through the cache-aside layer
// keyed by the registry generation, so feed mutations invalidate them.
package event_tools
