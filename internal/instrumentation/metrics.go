package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys - using constants for consistency and DRY
const (
	// Common attributes (reused across metrics)
	attrMethod  = "method"
	attrPath    = "path"
	attrStatus  = "status"
	attrTool    = "tool"
	attrFeed    = "feed"
	attrOp      = "op"
	attrOutcome = "outcome"
)

// Metrics provides methods for recording observability metrics.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal   metric.Int64Counter
	httpRequestDuration metric.Float64Histogram

	// Feed fetch metrics
	feedFetchTotal    metric.Int64Counter
	feedFetchDuration metric.Float64Histogram
	feedEventsLoaded  metric.Int64Gauge

	// Cache metrics
	cacheOpsTotal metric.Int64Counter

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// Configuration
	// detailedLabels controls whether high-cardinality labels are included
	detailedLabels bool
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The detailedLabels parameter controls whether high-cardinality labels are included.
func NewMetrics(meter metric.Meter, detailedLabels bool) (*Metrics, error) {
	m := &Metrics{
		detailedLabels: detailedLabels,
	}

	var err error

	// HTTP Metrics
	m.httpRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_requests_total counter: %w", err)
	}

	m.httpRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create http_request_duration_seconds histogram: %w", err)
	}

	// Feed Fetch Metrics
	m.feedFetchTotal, err = meter.Int64Counter(
		"feed_fetch_total",
		metric.WithDescription("Total number of calendar feed fetch attempts"),
		metric.WithUnit("{fetch}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed_fetch_total counter: %w", err)
	}

	m.feedFetchDuration, err = meter.Float64Histogram(
		"feed_fetch_duration_seconds",
		metric.WithDescription("Calendar feed fetch duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed_fetch_duration_seconds histogram: %w", err)
	}

	m.feedEventsLoaded, err = meter.Int64Gauge(
		"feed_events_loaded",
		metric.WithDescription("Number of events loaded from each calendar feed"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed_events_loaded gauge: %w", err)
	}

	// Cache Metrics
	m.cacheOpsTotal, err = meter.Int64Counter(
		"calendar_cache_total",
		metric.WithDescription("Total number of calendar cache operations by op and outcome"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_cache_total counter: %w", err)
	}

	// MCP Tool Metrics
	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records an HTTP request with method, path, status code, and duration.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil || m.httpRequestsTotal == nil || m.httpRequestDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrMethod, method),
		attribute.String(attrPath, path),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	}

	m.httpRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.httpRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordFeedFetch records one calendar feed fetch attempt.
//
// Parameters:
//   - feed: Configured feed name (sanitized before use as a label)
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the fetch including parsing
func (m *Metrics) RecordFeedFetch(ctx context.Context, feed, status string, duration time.Duration) {
	if m == nil || m.feedFetchTotal == nil || m.feedFetchDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrFeed, SanitizeFeedLabel(feed)),
		attribute.String(attrStatus, status),
	}

	m.feedFetchTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.feedFetchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordFeedEvents records the number of events currently loaded from a feed.
func (m *Metrics) RecordFeedEvents(ctx context.Context, feed string, count int64) {
	if m == nil || m.feedEventsLoaded == nil {
		return // Instrumentation not initialized
	}

	m.feedEventsLoaded.Record(ctx, count,
		metric.WithAttributes(attribute.String(attrFeed, SanitizeFeedLabel(feed))))
}

// RecordCacheOp records one cache operation.
//
// Parameters:
//   - op: Cache operation ("get", "set", "delete")
//   - outcome: Operation outcome ("hit", "miss", "success", "error")
func (m *Metrics) RecordCacheOp(ctx context.Context, op, outcome string) {
	if m == nil || m.cacheOpsTotal == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrOp, op),
		attribute.String(attrOutcome, outcome),
	}

	m.cacheOpsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
//
// Parameters:
//   - toolName: Name of the MCP tool (e.g., "get_events", "analyze_calendar_conflicts")
//   - status: Result status ("success" or "error")
//   - duration: Time taken for the tool execution
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordToolInvocationWithFeed records an MCP tool invocation targeting a
// specific feed. The feed label is only added when detailedLabels is enabled.
//
// Parameters:
//   - toolName: Name of the MCP tool
//   - status: Result status ("success" or "error")
//   - feed: Feed name the tool was scoped to (only included if detailedLabels is true)
//   - duration: Time taken for the tool execution
func (m *Metrics) RecordToolInvocationWithFeed(ctx context.Context, toolName, status, feed string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	// Only add high-cardinality labels if explicitly enabled
	if m.detailedLabels && feed != "" {
		attrs = append(attrs, attribute.String(attrFeed, SanitizeFeedLabel(feed)))
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
