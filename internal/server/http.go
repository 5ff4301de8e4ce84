package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/icalmcp/internal/instrumentation"
)

// HTTPServer serves the MCP protocol over streamable HTTP. The MCP endpoint
// is mounted at /mcp, with the health check endpoints registered on the same
// mux so Kubernetes probes do not need a separate port.
type HTTPServer struct {
	mcpServer  *mcpserver.MCPServer
	httpServer *http.Server
	health     *HealthChecker
	metrics    *instrumentation.Metrics
}

// NewHTTPServer creates an HTTP transport server for the given MCP server.
// metrics may be nil when instrumentation is disabled.
func NewHTTPServer(mcpSrv *mcpserver.MCPServer, health *HealthChecker, metrics *instrumentation.Metrics) *HTTPServer {
	return &HTTPServer{
		mcpServer: mcpSrv,
		health:    health,
		metrics:   metrics,
	}
}

// Start begins listening on addr. It blocks until the server stops and
// returns http.ErrServerClosed on graceful shutdown.
func (s *HTTPServer) Start(addr string) error {
	if addr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}

	mux := http.NewServeMux()

	streamable := mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath("/mcp"),
	)
	mux.Handle("/mcp", streamable)

	if s.health != nil {
		s.health.RegisterHealthEndpoints(mux)
	}

	// No WriteTimeout: streamable HTTP responses stay open for the life of
	// the client session.
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.requestMetrics(mux),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s.httpServer.ListenAndServe()
}

// requestMetrics wraps the handler to record per-request counters and
// latencies. RecordHTTPRequest is nil-safe, so the wrapper is unconditional.
func (s *HTTPServer) requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

// statusRecorder captures the response status code. Flush is forwarded so
// streaming responses keep working through the wrapper.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Shutdown gracefully shuts down the HTTP server.
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
