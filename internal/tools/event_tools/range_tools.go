package event_tools

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/icalmcp/internal/cache"
	"github.com/teemow/icalmcp/internal/ical"
	"github.com/teemow/icalmcp/internal/query"
	"github.com/teemow/icalmcp/internal/server"
	"github.com/teemow/icalmcp/internal/tools/common"
)

// RegisterRangeTools registers the date-range query tools
func RegisterRangeTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getEventsTool := mcp.NewTool("get_events",
		mcp.WithDescription("Retrieve calendar events within a date range across all configured feeds"),
		mcp.WithString("start_date",
			mcp.Description("Start date in YYYY-MM-DD format (defaults to today)"),
		),
		mcp.WithString("end_date",
			mcp.Description("End date in YYYY-MM-DD format (defaults to 7 days after start)"),
		),
		mcp.WithString("feed",
			mcp.Description("Feed name, ID or URL to filter by (optional)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of events to return (optional)"),
		),
		mcp.WithNumber("offset",
			mcp.Description("Number of events to skip, for pagination (optional)"),
		),
	)

	s.AddTool(getEventsTool, common.InstrumentedToolHandler("get_events", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGetEvents(ctx, request, sc)
	}))

	onDateTool := mcp.NewTool("get_events_on_date",
		mcp.WithDescription("Get all calendar events on a specific date"),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Date in YYYY-MM-DD format"),
		),
		mcp.WithString("feed",
			mcp.Description("Feed name, ID or URL to filter by (optional)"),
		),
	)

	s.AddTool(onDateTool, common.InstrumentedToolHandler("get_events_on_date", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleEventsOnDate(ctx, request, sc)
	}))

	betweenTool := mcp.NewTool("get_events_between_dates",
		mcp.WithDescription("Get all calendar events between two dates"),
		mcp.WithString("start_date",
			mcp.Required(),
			mcp.Description("Start date in YYYY-MM-DD format"),
		),
		mcp.WithString("end_date",
			mcp.Required(),
			mcp.Description("End date in YYYY-MM-DD format"),
		),
		mcp.WithString("feed",
			mcp.Description("Feed name, ID or URL to filter by (optional)"),
		),
	)

	s.AddTool(betweenTool, common.InstrumentedToolHandler("get_events_between_dates", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleEventsBetween(ctx, request, sc)
	}))

	afterTool := mcp.NewTool("get_events_after_date",
		mcp.WithDescription("Get all calendar events in the 30 days after a specific date"),
		mcp.WithString("date",
			mcp.Required(),
			mcp.Description("Start date in YYYY-MM-DD format"),
		),
		mcp.WithString("feed",
			mcp.Description("Feed name, ID or URL to filter by (optional)"),
		),
	)

	s.AddTool(afterTool, common.InstrumentedToolHandler("get_events_after_date", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleEventsAfter(ctx, request, sc)
	}))

	return nil
}

// cachedEvents runs a GetEvents query through the cache-aside layer. The
// registry generation is folded into the key so feed mutations and
// refreshes invalidate cached results.
func cachedEvents(ctx context.Context, sc *server.ServerContext, opts query.Options) ([]ical.Event, error) {
	key := cache.Key("events", sc.Registry().Generation(), opts)
	return cache.Fetch(ctx, sc.Cache(), sc.Logger(), key, sc.EventsTTL(), func() ([]ical.Event, error) {
		return sc.Engine().GetEvents(opts)
	})
}

func handleGetEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	opts := query.Options{
		Feeds:  feedFilter(args),
		Limit:  intArg(args, "limit", 0),
		Offset: intArg(args, "offset", 0),
	}

	start, ok, err := dateOf(args, "start_date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if ok {
		opts.Start = start
	}

	end, ok, err := dateOf(args, "end_date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if ok {
		opts.End = end
	}

	events, err := cachedEvents(ctx, sc, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return common.JSONResult(map[string]any{
		"events": events,
		"count":  len(events),
	}), nil
}

func handleEventsOnDate(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	date, ok, err := dateOf(args, "date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError("date is required"), nil
	}

	events, err := cachedEvents(ctx, sc, query.Options{
		Start: date,
		End:   date.AddDate(0, 0, 1),
		Feeds: feedFilter(args),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := map[string]any{
		"date":         date.Format("2006-01-02"),
		"events":       events,
		"events_count": len(events),
	}
	if f, ok := args["feed"].(string); ok && f != "" {
		result["feed"] = f
	}
	return common.JSONResult(result), nil
}

func handleEventsBetween(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	start, ok, err := dateOf(args, "start_date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError("start_date is required"), nil
	}

	end, ok, err := dateOf(args, "end_date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError("end_date is required"), nil
	}

	events, err := cachedEvents(ctx, sc, query.Options{
		Start: start,
		End:   end,
		Feeds: feedFilter(args),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := map[string]any{
		"start_date":   start.Format("2006-01-02"),
		"end_date":     end.Format("2006-01-02"),
		"events":       events,
		"events_count": len(events),
	}
	if f, ok := args["feed"].(string); ok && f != "" {
		result["feed"] = f
	}
	return common.JSONResult(result), nil
}

func handleEventsAfter(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	date, ok, err := dateOf(args, "date")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError("date is required"), nil
	}

	events, err := cachedEvents(ctx, sc, query.Options{
		Start: date,
		End:   date.Add(30 * 24 * time.Hour),
		Feeds: feedFilter(args),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := map[string]any{
		"after_date":   date.Format("2006-01-02"),
		"events":       events,
		"events_count": len(events),
		"note":         "Shows events for 30 days after the specified date",
	}
	if f, ok := args["feed"].(string); ok && f != "" {
		result["feed"] = f
	}
	return common.JSONResult(result), nil
}
