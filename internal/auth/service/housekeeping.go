package service

import (
	"log/slog"
	"time"
)

// Sweeper is any store that can drop its expired records on demand. The
// memory volatile stores implement it; Redis expires keys natively and needs
// no sweeping.
type Sweeper interface {
	PurgeExpired() int
}

// HousekeepingService periodically sweeps expired records out of in-process
// volatile stores so an idle dev instance does not grow without bound.
type HousekeepingService struct {
	Sweepers []Sweeper
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a housekeeping worker. If interval is zero
// or negative it defaults to 1 hour.
func NewHousekeepingService(sweepers []Sweeper, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}

	return &HousekeepingService{
		Sweepers: sweepers,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background worker. Non-blocking; call Stop to shut down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop shuts the worker down, blocking until any in-progress sweep finishes.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Sweep immediately on startup
	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) sweep() {
	var purged int
	for _, sweeper := range s.Sweepers {
		purged += sweeper.PurgeExpired()
	}
	if purged > 0 {
		s.Logger.Debug("swept expired volatile records", "purged", purged)
	}
}
