package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/grimoire/internal/auth/metrics"
	"github.com/aussiebroadwan/grimoire/internal/auth/store"
)

// DefaultPruneInterval is used when no interval is configured.
const DefaultPruneInterval = time.Hour

// HousekeepingService periodically deletes expired refresh records so the
// revocation store does not grow without bound.
type HousekeepingService struct {
	Tokens   store.RefreshTokens
	Logger   *slog.Logger
	Interval time.Duration
	Metrics  *metrics.Metrics

	// Internal channels for lifecycle management
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(
	tokens store.RefreshTokens,
	logger *slog.Logger,
	interval time.Duration,
	m *metrics.Metrics,
) *HousekeepingService {
	if interval <= 0 {
		interval = DefaultPruneInterval
	}

	return &HousekeepingService{
		Tokens:   tokens,
		Logger:   logger,
		Interval: interval,
		Metrics:  m,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. It sweeps once immediately and then
// every Interval until Stop is called.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts down the worker and waits for an in-progress sweep to finish.
// Safe to call more than once.
func (s *HousekeepingService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh
		s.Logger.Info("housekeeping service stopped")
	})
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-s.stopCh:
			return
		}
	}
}

// RunOnce performs a single sweep. Errors are logged and swallowed; the next
// tick retries.
func (s *HousekeepingService) RunOnce(ctx context.Context) int64 {
	start := time.Now()

	n, err := s.Tokens.DeleteExpiredRefreshTokens(ctx)
	s.Metrics.Pruned(n, time.Since(start), err)
	if err != nil {
		s.Logger.Error("failed to delete expired refresh tokens", "err", err)
		return 0
	}

	s.Logger.Info("housekeeping cleanup completed", "deleted", n, "duration_ms", time.Since(start).Milliseconds())
	return n
}
