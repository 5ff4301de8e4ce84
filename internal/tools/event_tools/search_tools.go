package event_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/icalmcp/internal/cache"
	"github.com/teemow/icalmcp/internal/ical"
	"github.com/teemow/icalmcp/internal/server"
	"github.com/teemow/icalmcp/internal/tools/common"
)

// RegisterSearchTools registers the text search and UID lookup tools
func RegisterSearchTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	searchTool := mcp.NewTool("search_calendar_events",
		mcp.WithDescription("Search calendar events by text in title, description or location. Matching a feed name returns all of that feed's events."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Search text"),
		),
		mcp.WithString("feed",
			mcp.Description("Feed name, ID or URL to filter by (optional)"),
		),
	)

	s.AddTool(searchTool, common.InstrumentedToolHandler("search_calendar_events", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSearch(ctx, request, sc)
	}))

	byUIDTool := mcp.NewTool("get_event_by_uid",
		mcp.WithDescription("Look up a single calendar event by its iCalendar UID"),
		mcp.WithString("uid",
			mcp.Required(),
			mcp.Description("The UID of the event"),
		),
		mcp.WithString("feed",
			mcp.Description("Feed name, ID or URL to restrict the lookup (optional)"),
		),
	)

	s.AddTool(byUIDTool, common.InstrumentedToolHandler("get_event_by_uid", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleEventByUID(ctx, request, sc)
	}))

	return nil
}

func handleSearch(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	rawQuery, ok := args["query"].(string)
	if !ok || rawQuery == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	filter := feedFilter(args)

	key := cache.Key("search", sc.Registry().Generation(), struct {
		Query string
		Feeds []string
	}{rawQuery, filter})

	events, err := cache.Fetch(ctx, sc.Cache(), sc.Logger(), key, sc.EventsTTL(), func() ([]ical.Event, error) {
		return sc.Engine().Search(rawQuery, filter)
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := map[string]any{
		"query":        rawQuery,
		"events":       events,
		"events_count": len(events),
	}
	if f, ok := args["feed"].(string); ok && f != "" {
		result["feed"] = f
	}
	return common.JSONResult(result), nil
}

func handleEventByUID(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	uid, ok := args["uid"].(string)
	if !ok || uid == "" {
		return mcp.NewToolResultError("uid is required"), nil
	}
	feedIdentifier := ""
	if f, ok := args["feed"].(string); ok {
		feedIdentifier = f
	}

	event, found, err := sc.Engine().EventByUID(uid, feedIdentifier)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !found {
		return mcp.NewToolResultError(fmt.Sprintf("No event found with UID '%s'", uid)), nil
	}

	return common.JSONResult(event), nil
}
