package common

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/icalmcp/internal/instrumentation"
	"github.com/teemow/icalmcp/internal/server"
)

// InstrumentedToolHandler wraps a tool handler with invocation metrics.
// When the request carries a feed argument it is recorded as a detailed
// label (subject to the metrics cardinality setting).
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(
	toolName string,
	sc *server.ServerContext,
	handler func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error),
) func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metrics := sc.Metrics()
		if metrics == nil {
			return handler(ctx, request)
		}

		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		status := instrumentation.StatusSuccess
		if err != nil || (result != nil && result.IsError) {
			status = instrumentation.StatusError
		}

		if feed := GetFeedFromArgs(request.GetArguments()); feed != "" {
			metrics.RecordToolInvocationWithFeed(ctx, toolName, status, feed, duration)
		} else {
			metrics.RecordToolInvocation(ctx, toolName, status, duration)
		}

		return result, err
	}
}

// JSONResult marshals v and returns it as a text tool result. Tool
// results are JSON payloads so agents can consume them structurally.
func JSONResult(v any) *mcp.CallToolResult {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize result: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}
