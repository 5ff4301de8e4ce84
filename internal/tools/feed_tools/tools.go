package feed_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/icalmcp/internal/cache"
	"github.com/teemow/icalmcp/internal/server"
	"github.com/teemow/icalmcp/internal/tools/common"
)

// RegisterFeedTools registers the feed management tools with the MCP server
func RegisterFeedTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	addFeedTool := mcp.NewTool("add_calendar_feed",
		mcp.WithDescription("Add a new iCalendar feed URL to the list of monitored calendars and fetch it immediately"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("iCalendar feed URL (http://, https:// or webcal://)"),
		),
		mcp.WithString("name",
			mcp.Description("Friendly name for the feed (derived from the URL when omitted)"),
		),
	)

	s.AddTool(addFeedTool, common.InstrumentedToolHandler("add_calendar_feed", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleAddFeed(ctx, request, sc)
	}))

	removeFeedTool := mcp.NewTool("remove_calendar_feed",
		mcp.WithDescription("Remove an iCalendar feed from the list of monitored calendars"),
		mcp.WithString("identifier",
			mcp.Required(),
			mcp.Description("Feed ID, name or URL (use get_calendar_feeds to see available feeds)"),
		),
	)

	s.AddTool(removeFeedTool, common.InstrumentedToolHandler("remove_calendar_feed", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleRemoveFeed(ctx, request, sc)
	}))

	listFeedsTool := mcp.NewTool("get_calendar_feeds",
		mcp.WithDescription("Get the list of configured calendar feeds with their names, IDs, URLs and status"),
	)

	s.AddTool(listFeedsTool, common.InstrumentedToolHandler("get_calendar_feeds", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListFeeds(ctx, request, sc)
	}))

	refreshFeedsTool := mcp.NewTool("refresh_calendar_feeds",
		mcp.WithDescription("Force refresh calendar feeds to get the latest events. Refreshes all feeds unless an identifier is given."),
		mcp.WithString("identifier",
			mcp.Description("Feed ID, name or URL to refresh only that feed (optional)"),
		),
	)

	s.AddTool(refreshFeedsTool, common.InstrumentedToolHandler("refresh_calendar_feeds", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleRefreshFeeds(ctx, request, sc)
	}))

	calendarInfoTool := mcp.NewTool("get_calendar_info",
		mcp.WithDescription("Get information about all configured calendar feeds: status, event counts, last update times and refresh interval"),
	)

	s.AddTool(calendarInfoTool, common.InstrumentedToolHandler("get_calendar_info", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCalendarInfo(ctx, request, sc)
	}))

	return nil
}

func handleAddFeed(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	url, ok := args["url"].(string)
	if !ok || url == "" {
		return mcp.NewToolResultError("url is required"), nil
	}
	name := ""
	if nameVal, ok := args["name"].(string); ok {
		name = nameVal
	}

	fd, created, err := sc.Registry().Add(url, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !created {
		return common.JSONResult(map[string]any{
			"status":    "already_exists",
			"feed_url":  fd.URL,
			"feed_name": fd.Name,
			"feed_id":   fd.ID,
		}), nil
	}

	// Fetch right away so the feed is queryable without waiting for the
	// next scheduler pass.
	result := sc.Fetcher().Refresh(ctx, fd)
	return common.JSONResult(result), nil
}

func handleRemoveFeed(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	identifier, ok := args["identifier"].(string)
	if !ok || identifier == "" {
		return mcp.NewToolResultError("identifier is required"), nil
	}

	fd, err := sc.Registry().Remove(identifier)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return common.JSONResult(map[string]any{
		"status":    "removed",
		"feed_url":  fd.URL,
		"feed_name": fd.Name,
		"feed_id":   fd.ID,
	}), nil
}

func handleListFeeds(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	feeds := sc.Registry().List()
	return common.JSONResult(map[string]any{
		"feeds":      feeds,
		"feed_count": len(feeds),
	}), nil
}

func handleRefreshFeeds(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	if identifier, ok := args["identifier"].(string); ok && identifier != "" {
		fd, err := sc.Registry().Resolve(identifier)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return common.JSONResult(sc.Fetcher().Refresh(ctx, fd)), nil
	}

	results := sc.Fetcher().RefreshAll(ctx)
	return common.JSONResult(map[string]any{
		"status":          "success",
		"feeds_refreshed": len(results),
		"results":         results,
	}), nil
}

func handleCalendarInfo(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	key := cache.Key("info", sc.Registry().Generation(), nil)
	info, err := cache.Fetch(ctx, sc.Cache(), sc.Logger(), key, cache.InfoTTL, func() (CalendarInfo, error) {
		return buildCalendarInfo(sc), nil
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to collect calendar info: %v", err)), nil
	}
	return common.JSONResult(info), nil
}
