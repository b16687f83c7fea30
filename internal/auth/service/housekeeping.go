package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/memoauth/internal/auth/metrics"
	"github.com/aussiebroadwan/memoauth/internal/auth/store"
)

// HousekeepingService periodically removes expired refresh token records.
// Expiry is enforced on every refresh regardless, this only bounds growth.
type HousekeepingService struct {
	Store    store.Store
	Logger   *slog.Logger
	Interval time.Duration
	Timeout  time.Duration
	Metrics  *metrics.Recorder

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping service with the given
// interval. If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress sweep has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.sweepAndLog()

	for {
		select {
		case <-ticker.C:
			s.sweepAndLog()
		case <-s.stopCh:
			return
		}
	}
}

// Sweep deletes expired refresh token records once and returns the count.
func (s *HousekeepingService) Sweep(ctx context.Context) (int64, error) {
	sctx, cancel := withTimeout(ctx, s.Timeout)
	defer cancel()

	n, err := s.Store.RefreshTokens().DeleteExpiredRefreshTokens(sctx)
	if err != nil {
		return 0, err
	}
	s.Metrics.Reaped(n)
	return n, nil
}

func (s *HousekeepingService) sweepAndLog() {
	n, err := s.Sweep(context.Background())
	if err != nil {
		s.Logger.Error("failed to delete expired refresh tokens", "error", err)
		return
	}
	s.Logger.Info("housekeeping cleanup completed", "deleted", n)
}
