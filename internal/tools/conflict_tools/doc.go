// Package conflict_tools provides MCP (Model Context Protocol) tools
// for detecting scheduling conflicts across calendar feeds.
//
// Tools:
//   - get_calendar_conflicts: simple list of overlapping event pairs in
//     the next 7 days
//   - analyze_calendar_conflicts: full analysis with conflict types,
//     severity grading, statistics and scheduling recommendations,
//     filterable by window size, minimum overlap and severity threshold
package conflict_tools
