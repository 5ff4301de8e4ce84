package conflict_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/icalmcp/internal/conflict"
	"github.com/teemow/icalmcp/internal/server"
	"github.com/teemow/icalmcp/internal/tools/common"
)

// RegisterConflictTools registers the conflict detection tools with the MCP server
func RegisterConflictTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	simpleTool := mcp.NewTool("get_calendar_conflicts",
		mcp.WithDescription("Get overlapping or conflicting events in the next 7 days"),
		mcp.WithBoolean("include_all_day",
			mcp.Description("Include all-day events in conflict detection (default: false)"),
		),
	)

	s.AddTool(simpleTool, common.InstrumentedToolHandler("get_calendar_conflicts", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSimpleConflicts(ctx, request, sc)
	}))

	analyzeTool := mcp.NewTool("analyze_calendar_conflicts",
		mcp.WithDescription("Analyze calendar conflicts with severity levels, filtering and scheduling recommendations"),
		mcp.WithNumber("days_ahead",
			mcp.Description("Number of days to analyze (default: 7)"),
		),
		mcp.WithBoolean("include_all_day",
			mcp.Description("Include all-day events in the analysis (default: false)"),
		),
		mcp.WithNumber("min_overlap_minutes",
			mcp.Description("Minimum overlap in minutes to report (default: 0)"),
		),
		mcp.WithString("severity_threshold",
			mcp.Description("Filter by severity: all, high, medium or low (default: all)"),
		),
	)

	s.AddTool(analyzeTool, common.InstrumentedToolHandler("analyze_calendar_conflicts", sc, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleAnalyzeConflicts(ctx, request, sc)
	}))

	return nil
}

func handleSimpleConflicts(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	includeAllDay := false
	if v, ok := args["include_all_day"].(bool); ok {
		includeAllDay = v
	}

	report, err := sc.Analyzer().SimpleConflicts(includeAllDay)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return common.JSONResult(report), nil
}

func handleAnalyzeConflicts(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	opts := conflict.Options{
		DaysAhead:         7,
		SeverityThreshold: "all",
	}
	if v, ok := args["days_ahead"].(float64); ok {
		opts.DaysAhead = int(v)
	}
	if v, ok := args["include_all_day"].(bool); ok {
		opts.IncludeAllDay = v
	}
	if v, ok := args["min_overlap_minutes"].(float64); ok {
		opts.MinOverlapMinutes = int(v)
	}
	if v, ok := args["severity_threshold"].(string); ok && v != "" {
		opts.SeverityThreshold = v
	}

	if !conflict.ValidThreshold(opts.SeverityThreshold) {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid severity_threshold: '%s'.\n", opts.SeverityThreshold) +
			fmt.Sprintf("Must be one of: %s\n", strings.Join(conflict.Thresholds, ", ")) +
			"  • all - Show all conflicts\n" +
			"  • high - Only high severity\n" +
			"  • medium - Medium and high\n" +
			"  • low - All severities"), nil
	}

	report, err := sc.Analyzer().Analyze(opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return common.JSONResult(report), nil
}
