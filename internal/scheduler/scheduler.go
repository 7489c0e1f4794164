package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"airquality-platform/pkg/logging"
)

// StatisticsCalculator recalculates yearly pollutant statistics.
type StatisticsCalculator interface {
	CalculateAllStatistics(ctx context.Context) error
}

// Scheduler periodically recalculates pollutant statistics so that
// classifications reflect newly ingested measurements.
type Scheduler struct {
	scheduler  *gocron.Scheduler
	calculator StatisticsCalculator
	logger     *logging.StructuredLogger
	interval   time.Duration
	timeout    time.Duration
}

// New creates a new Scheduler.
func New(calculator StatisticsCalculator, logger *logging.StructuredLogger, interval time.Duration) *Scheduler {
	return &Scheduler{
		scheduler:  gocron.NewScheduler(time.UTC),
		calculator: calculator,
		logger:     logger,
		interval:   interval,
		timeout:    30 * time.Minute,
	}
}

// Start schedules the periodic recalculation job and starts the underlying
// scheduler.
func (s *Scheduler) Start() error {
	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 60
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		s.logger.Info(ctx, "[SCHEDULER_RUN] Running statistics recalculation job", logging.Fields{
			"interval_minutes": minutes,
		})

		startTime := time.Now()
		if err := s.calculator.CalculateAllStatistics(ctx); err != nil {
			s.logger.Error(ctx, "[SCHEDULER_RUN_ERROR] Statistics recalculation failed", logging.Fields{
				"duration_seconds": time.Since(startTime).Seconds(),
			}, err)
			return
		}

		s.logger.Info(ctx, "[SCHEDULER_RUN_COMPLETE] Statistics recalculation completed", logging.Fields{
			"duration_seconds": time.Since(startTime).Seconds(),
		})
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()

	s.logger.Info(context.Background(), "[SCHEDULER_START] Statistics scheduler started", logging.Fields{
		"interval_minutes": minutes,
	})
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
