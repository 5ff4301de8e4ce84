package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/icalmcp/internal/cache"
	"github.com/teemow/icalmcp/internal/config"
	"github.com/teemow/icalmcp/internal/conflict"
	"github.com/teemow/icalmcp/internal/feed"
	"github.com/teemow/icalmcp/internal/instrumentation"
	"github.com/teemow/icalmcp/internal/logging"
	"github.com/teemow/icalmcp/internal/query"
)

// ServerContext holds the shared state for the MCP server: the feed
// registry, fetcher, refresh scheduler, query engine, conflict analyzer
// and the result cache. Tool handlers receive it and pull the pieces
// they need.
type ServerContext struct {
	ctx       context.Context
	cancel    context.CancelFunc
	cfg       config.Config
	registry  *feed.Registry
	fetcher   *feed.Fetcher
	scheduler *feed.Scheduler
	engine    *query.Engine
	analyzer  *conflict.Analyzer
	cache     cache.Cache
	metrics   *instrumentation.Metrics
	logger    *slog.Logger
	mu        sync.RWMutex
	shutdown  bool
}

// NewServerContext creates a new server context and wires up all
// components from the given configuration. Feeds configured up front
// are registered but not fetched; call RefreshAll or start the
// scheduler for that.
func NewServerContext(ctx context.Context, cfg config.Config, metrics *instrumentation.Metrics, logger *slog.Logger) (*ServerContext, error) {
	if logger == nil {
		logger = slog.Default()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)

	registry := feed.NewRegistry()
	for _, fc := range cfg.Feeds {
		if _, _, err := registry.Add(fc.URL, fc.Name); err != nil {
			// Don't take the server down over one bad feed entry
			logger.Warn("skipping invalid feed from configuration",
				logging.URL(fc.URL),
				logging.Err(err))
		}
	}

	fetcher := feed.NewFetcher(registry, logger, metrics)
	scheduler := feed.NewScheduler(fetcher, cfg.RefreshInterval(), logger)
	engine := query.NewEngine(registry, logger)
	analyzer := conflict.NewAnalyzer(engine, logger)

	var resultCache cache.Cache = cache.Noop{}
	if cfg.Cache.URL != "" {
		vk, err := cache.NewValkey(cache.ValkeyConfig{
			URL:        cfg.Cache.URL,
			Password:   cfg.Cache.Password,
			TLSEnabled: cfg.Cache.TLSEnabled,
			TLSCAFile:  cfg.Cache.TLSCAFile,
			KeyPrefix:  cfg.Cache.KeyPrefix,
			DB:         cfg.Cache.DB,
		}, logger, metrics)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
		}
		resultCache = vk
	}

	return &ServerContext{
		ctx:       shutdownCtx,
		cancel:    cancel,
		cfg:       cfg,
		registry:  registry,
		fetcher:   fetcher,
		scheduler: scheduler,
		engine:    engine,
		analyzer:  analyzer,
		cache:     resultCache,
		metrics:   metrics,
		logger:    logger,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the configuration the server was started with
func (sc *ServerContext) Config() config.Config {
	return sc.cfg
}

// Registry returns the feed registry
func (sc *ServerContext) Registry() *feed.Registry {
	return sc.registry
}

// Fetcher returns the feed fetcher
func (sc *ServerContext) Fetcher() *feed.Fetcher {
	return sc.fetcher
}

// Scheduler returns the background refresh scheduler
func (sc *ServerContext) Scheduler() *feed.Scheduler {
	return sc.scheduler
}

// Engine returns the event query engine
func (sc *ServerContext) Engine() *query.Engine {
	return sc.engine
}

// Analyzer returns the conflict analyzer
func (sc *ServerContext) Analyzer() *conflict.Analyzer {
	return sc.analyzer
}

// Cache returns the result cache. Never nil; a no-op cache is used
// when Valkey is not configured.
func (sc *ServerContext) Cache() cache.Cache {
	return sc.cache
}

// EventsTTL returns the cache TTL for event query results, honoring a
// configured override.
func (sc *ServerContext) EventsTTL() time.Duration {
	if sc.cfg.Cache.TTLMinutes > 0 {
		return time.Duration(sc.cfg.Cache.TTLMinutes) * time.Minute
	}
	return cache.EventsTTL
}

// Metrics returns the metrics recorder. May be nil when
// instrumentation is disabled; all recorder methods are nil-safe.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// Logger returns the server logger
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown stops the scheduler, closes the cache and cancels the
// server context. Safe to call more than once.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.scheduler.Stop()
	sc.cache.Close()
	sc.cancel()
	return nil
}
