package usecase

import (
	"context"
	"log/slog"
	"time"

	"BlogIngest/internal/logging"
	"BlogIngest/internal/ports"
)

// Scheduler wires the cron driver with the pending-job sweep.
type Scheduler struct {
	driver    ports.Scheduler
	ingest    *IngestService
	batchSize int
	logger    *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring sweeps.
func NewScheduler(driver ports.Scheduler, ingest *IngestService, batchSize int, log *slog.Logger) *Scheduler {
	if log == nil {
		log = logging.Discard()
	}
	return &Scheduler{driver: driver, ingest: ingest, batchSize: batchSize, logger: log}
}

// Start registers the sweep with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.ingest == nil {
		return nil
	}

	job := func(trigger time.Time) {
		s.logger.Debug("sweep triggered", "at", trigger.Format(time.RFC3339))
		if _, err := s.ingest.SweepPending(ctx, s.batchSize); err != nil {
			s.logger.Error("sweep failed", "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
