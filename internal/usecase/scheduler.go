package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"AlertTrack/internal/ports"
)

// Scheduler wires the interval driver with the scan use case for watch mode.
type Scheduler struct {
	driver   ports.Scheduler
	scan     *ScanService
	baseURL  string
	strategy string
	logger   *slog.Logger

	running sync.Mutex
}

// NewScheduler returns a helper to start/stop recurring scans.
func NewScheduler(driver ports.Scheduler, scan *ScanService, baseURL, strategy string, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, scan: scan, baseURL: baseURL, strategy: strategy, logger: logger}
}

// Start registers the scan with the provided scheduler. A trigger that fires
// while a scan is still running is skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.scan == nil {
		return nil
	}

	return s.driver.Start(ctx, func(trigger time.Time) {
		s.RunOnce(ctx, trigger)
	})
}

// RunOnce performs one scan unless another is in flight.
func (s *Scheduler) RunOnce(ctx context.Context, trigger time.Time) {
	if !s.running.TryLock() {
		s.log(slog.LevelWarn, "previous scan still running, skipping trigger", "trigger", trigger)
		return
	}
	defer s.running.Unlock()

	result, err := s.scan.Scan(ctx, s.baseURL, s.strategy)
	if err != nil {
		s.log(slog.LevelError, "scheduled scan failed", "trigger", trigger, "error", err)
		return
	}
	s.log(slog.LevelInfo, "scheduled scan finished", "trigger", trigger, "run_id", result.Run.ID, "records", result.Run.Records, "failures", result.Run.Failures)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

func (s *Scheduler) log(level slog.Level, msg string, args ...any) {
	if s.logger != nil {
		s.logger.Log(context.Background(), level, msg, args...)
	}
}
