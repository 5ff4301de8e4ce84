// Package server provides the MCP server context, health endpoints and
// the dedicated metrics server for the icalmcp application.
//
// # Key Components
//
// ServerContext wires the application together: the feed registry,
// fetcher and refresh scheduler, the event query engine, the conflict
// analyzer and the Valkey-backed result cache. Tool handlers receive
// the context and pull the dependencies they need. Shutdown stops the
// scheduler, closes the cache and cancels the context, and is safe to
// call more than once.
//
// HealthChecker serves Kubernetes-style probes:
//   - /healthz: liveness, always ok while the process runs
//   - /readyz: readiness, turns unhealthy during shutdown
//   - /healthz/detailed: status plus uptime
//
// MetricsServer serves Prometheus metrics on a dedicated port,
// isolated from the main application traffic.
package server
