package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/room_booking/internal/distance"
	"github.com/Freeeeeet/room_booking/internal/store"
)

// Scheduler runs background jobs.
type Scheduler struct {
	buildings store.Reader
	distances distance.Provider
	interval  time.Duration
	logger    *zap.Logger
	stopChan  chan struct{}
	done      chan struct{}
}

// NewScheduler refreshes the distance cache every interval.
func NewScheduler(buildings store.Reader, distances distance.Provider, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		buildings: buildings,
		distances: distances,
		interval:  interval,
		logger:    logger,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the jobs. A non-positive interval only warms the cache once.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("distance_refresh_interval", s.interval))
	go s.runDistanceRefresh(ctx)
}

// Stop stops the jobs and waits for the running one to return.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
	<-s.done
}

func (s *Scheduler) runDistanceRefresh(ctx context.Context) {
	defer close(s.done)

	// first run right away
	s.RefreshDistances(ctx)
	if s.interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RefreshDistances(ctx)
		case <-s.stopChan:
			s.logger.Info("Distance refresh task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Distance refresh task cancelled")
			return
		}
	}
}

// RefreshDistances drops every cached distance row and loads them again.
func (s *Scheduler) RefreshDistances(ctx context.Context) {
	buildings, err := s.buildings.FindBuildings(ctx, "")
	if err != nil {
		s.logger.Error("Failed to list buildings", zap.Error(err))
		return
	}
	ids := make([]int64, len(buildings))
	for i, b := range buildings {
		ids[i] = b.ID
	}

	if err := s.distances.Invalidate(ctx, ids...); err != nil {
		s.logger.Warn("Failed to invalidate distances", zap.Error(err))
	}
	rows, err := distance.Warm(ctx, s.distances, ids)
	if err != nil {
		s.logger.Error("Failed to warm distances", zap.Error(err))
		return
	}

	s.logger.Info("Distance cache refreshed", zap.Int("buildings", len(ids)), zap.Int("rows", rows))
}
