package usecase

import (
	"context"
	"log/slog"
	"time"

	"CrisisMonitor/internal/ports"
)

// Scheduler wires the cron driver with the pipeline use case.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	params   RunParams
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, params RunParams, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, params: params, logger: logger}
}

// Start registers the pipeline with the provided scheduler. Failed runs are
// logged and the next tick tries again.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		info(s.logger, "scheduled run triggered", "at", trigger)
		if _, err := s.pipeline.Run(ctx, s.params); err != nil && s.logger != nil {
			s.logger.Error("scheduled run failed", "error", err)
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
