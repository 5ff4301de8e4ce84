package feed

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/icalmcp/internal/logging"
)

// DefaultRefreshInterval is used when no interval is configured.
const DefaultRefreshInterval = 60 * time.Minute

// Scheduler periodically refreshes all registered feeds. Start performs one
// synchronous refresh pass so callers have data before serving, then a ticker
// drives subsequent passes until Stop or context cancellation.
type Scheduler struct {
	fetcher  *Fetcher
	interval time.Duration
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler builds a scheduler. A non-positive interval falls back to
// DefaultRefreshInterval.
func NewScheduler(fetcher *Fetcher, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	return &Scheduler{
		fetcher:  fetcher,
		interval: interval,
		logger:   logger,
	}
}

// Interval returns the configured refresh interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// Running reports whether the refresh loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Start refreshes every feed once, then launches the periodic refresh loop.
// Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	s.refreshPass(ctx)

	go s.run(ctx, done)
}

func (s *Scheduler) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("refresh scheduler stopped",
				logging.Operation("scheduler.run"))
			return
		case <-ticker.C:
			s.refreshPass(ctx)
		}
	}
}

func (s *Scheduler) refreshPass(ctx context.Context) {
	results := s.fetcher.RefreshAll(ctx)

	failed := 0
	for _, res := range results {
		if res.Status != "success" {
			failed++
		}
	}
	s.logger.Info("refresh pass completed",
		logging.Operation("scheduler.refresh"),
		slog.Int("feeds", len(results)),
		slog.Int("failed", failed))
}

// Stop cancels the refresh loop and waits for it to exit. Stop is idempotent
// and safe to call on a scheduler that was never started.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
