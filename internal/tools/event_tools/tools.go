package event_tools

import (
	"fmt"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/icalmcp/internal/feed"
	"github.com/teemow/icalmcp/internal/server"
)

// RegisterEventTools registers all event query tools with the MCP server
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := RegisterRangeTools(s, sc); err != nil {
		return fmt.Errorf("failed to register range tools: %w", err)
	}
	if err := RegisterWindowTools(s, sc); err != nil {
		return fmt.Errorf("failed to register window tools: %w", err)
	}
	if err := RegisterSearchTools(s, sc); err != nil {
		return fmt.Errorf("failed to register search tools: %w", err)
	}
	return nil
}

// dateOf parses a YYYY-MM-DD argument. The second return value reports
// whether the argument was present.
func dateOf(args map[string]interface{}, name string) (time.Time, bool, error) {
	raw, ok := args[name].(string)
	if !ok || raw == "" {
		return time.Time{}, false, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, false, feed.InvalidDateError(name, raw)
	}
	return t.UTC(), true, nil
}

// feedFilter turns the optional "feed" argument into an engine filter.
func feedFilter(args map[string]interface{}) []string {
	if f, ok := args["feed"].(string); ok && f != "" {
		return []string{f}
	}
	return nil
}

// intArg reads a numeric argument. JSON numbers arrive as float64.
func intArg(args map[string]interface{}, name string, fallback int) int {
	if v, ok := args[name].(float64); ok {
		return int(v)
	}
	return fallback
}
