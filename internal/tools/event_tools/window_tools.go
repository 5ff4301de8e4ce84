package event_tools

import (
	"context"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/icalmcp/internal/logging"
	"github.com/teemow/icalmcp/internal/server"
	"github.com/teemow/icalmcp/internal/tools/common"
)

// DefaultUpcomingCount bounds get_upcoming_events when no count is given.
const DefaultUpcomingCount = 20

// RegisterWindowTools registers the convenience window tools
// (today/tomorrow/week/month/upcoming) and the clock tool.
func RegisterWindowTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	todayTool := mcp.NewTool("get_today_events",
		mcp.WithDescription("Get all calendar events happening today across all configured feeds"),
	)

	s.AddTool(todayTool, common.InstrumentedToolHandler("get_today_events", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		events, _, err := sc.Engine().Today(nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return common.JSONResult(events), nil
	}))

	tomorrowTool := mcp.NewTool("get_tomorrow_events",
		mcp.WithDescription("Get all calendar events for tomorrow across all configured feeds"),
	)

	s.AddTool(tomorrowTool, common.InstrumentedToolHandler("get_tomorrow_events", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		events, day, err := sc.Engine().Tomorrow(nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return common.JSONResult(map[string]any{
			"date":         day.Format("2006-01-02"),
			"events":       events,
			"events_count": len(events),
		}), nil
	}))

	weekTool := mcp.NewTool("get_week_events",
		mcp.WithDescription("Get all calendar events for the current week (Monday to Sunday)"),
	)

	s.AddTool(weekTool, common.InstrumentedToolHandler("get_week_events", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		events, start, end, err := sc.Engine().Week(nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return common.JSONResult(map[string]any{
			"week_start":   start.Format(time.RFC3339),
			"week_end":     end.Format(time.RFC3339),
			"events":       events,
			"events_count": len(events),
		}), nil
	}))

	monthTool := mcp.NewTool("get_month_events",
		mcp.WithDescription("Get all calendar events for the current month"),
	)

	s.AddTool(monthTool, common.InstrumentedToolHandler("get_month_events", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		events, start, end, err := sc.Engine().Month(nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return common.JSONResult(map[string]any{
			"month":        start.Format("January 2006"),
			"month_start":  start.Format(time.RFC3339),
			"month_end":    end.Format(time.RFC3339),
			"events":       events,
			"events_count": len(events),
		}), nil
	}))

	upcomingTool := mcp.NewTool("get_upcoming_events",
		mcp.WithDescription("Get the next upcoming calendar events across all configured feeds, sorted by start time"),
		mcp.WithNumber("count",
			mcp.Description("Number of events to return (default: 20)"),
		),
	)

	s.AddTool(upcomingTool, common.InstrumentedToolHandler("get_upcoming_events", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		count := intArg(request.GetArguments(), "count", DefaultUpcomingCount)
		events, err := sc.Engine().Upcoming(count, nil)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return common.JSONResult(events), nil
	}))

	datetimeTool := mcp.NewTool("get_current_datetime",
		mcp.WithDescription("Get the current date and time in the configured timezone (TIMEZONE environment variable, default UTC)"),
	)

	s.AddTool(datetimeTool, common.InstrumentedToolHandler("get_current_datetime", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return common.JSONResult(currentDatetime(sc, time.Now())), nil
	}))

	return nil
}

// currentDatetime reports the clock in the configured timezone. Invalid
// timezone names fall back to UTC.
func currentDatetime(sc *server.ServerContext, now time.Time) map[string]any {
	tzName := os.Getenv("TIMEZONE")
	if tzName == "" {
		tzName = "UTC"
	}
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		sc.Logger().Warn("invalid TIMEZONE, falling back to UTC",
			logging.Err(err))
		loc = time.UTC
		tzName = "UTC"
	}

	now = now.In(loc)
	return map[string]any{
		"date":          now.Format("2006-01-02"),
		"time":          now.Format("15:04:05"),
		"datetime":      now.Format(time.RFC3339),
		"timezone":      tzName,
		"utc_offset":    now.Format("-0700"),
		"timezone_abbr": now.Format("MST"),
		"day_of_week":   now.Format("Monday"),
		"timestamp":     now.Unix(),
	}
}
