package services

import (
	"context"
	"fmt"
	"time"

	"airquality-platform/internal/classification"
	"airquality-platform/internal/models"
	"airquality-platform/internal/repository"
	"airquality-platform/pkg/logging"
	"airquality-platform/pkg/metrics"
)

// StatisticsService handles pollutant statistics and their air-quality
// classification
type StatisticsService struct {
	repo    repository.StationRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewStatisticsService creates a new statistics service
func NewStatisticsService(repo repository.StationRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *StatisticsService {
	return &StatisticsService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ClassifiedStatistics pairs one statistics row with the air-quality
// classification of its average concentration.
type ClassifiedStatistics struct {
	Statistics     *models.PollutantStatistics `json:"statistics"`
	Classification classification.Result       `json:"classification"`
}

// GetClassifiedStatistics retrieves the statistics row for a station,
// pollutant and year and classifies its average concentration. When
// exposureHours is nil the pollutant's standard reporting window is used.
//
// The classification itself never fails; a missing average, an unknown
// pollutant or an unsupported window all come back as an unavailable tier.
func (s *StatisticsService) GetClassifiedStatistics(ctx context.Context, stationID, pollutant string, year int, exposureHours *int) (*ClassifiedStatistics, error) {
	filter := repository.StatisticsFilter{
		StationID: &stationID,
		Pollutant: &pollutant,
		Year:      &year,
		Limit:     1,
	}

	rows, _, err := s.repo.GetStatistics(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to get statistics: %w", err)
	}

	if len(rows) == 0 {
		return nil, &repository.NotFoundError{
			Resource: "pollutant_statistics",
			ID:       fmt.Sprintf("%s:%s:%d", stationID, pollutant, year),
		}
	}

	stats := rows[0]

	hours := 0
	if exposureHours != nil {
		hours = *exposureHours
	} else if h, ok := classification.DefaultWindow(pollutant); ok {
		hours = h
	}

	result := classification.Classify(pollutant, stats.AvgConcentrationUgm3, hours)
	s.metrics.RecordClassification(string(result.Tier), pollutant)

	s.logger.Debug(ctx, "[STATS_CLASSIFY] Statistics classified", logging.Fields{
		"station_id":     stationID,
		"pollutant":      pollutant,
		"year":           year,
		"exposure_hours": hours,
		"tier":           string(result.Tier),
	})

	return &ClassifiedStatistics{
		Statistics:     stats,
		Classification: result,
	}, nil
}

// GetStatistics retrieves statistics with filtering
func (s *StatisticsService) GetStatistics(ctx context.Context, filter repository.StatisticsFilter) ([]*models.PollutantStatistics, int, error) {
	return s.repo.GetStatistics(ctx, filter)
}

// CalculateAllStatistics recalculates yearly statistics for every station
// and every (pollutant, year) bucket that has raw measurements
func (s *StatisticsService) CalculateAllStatistics(ctx context.Context) error {
	startTime := time.Now()

	s.logger.Info(ctx, "[STATS_CALC_START] Starting statistics calculation", logging.Fields{
		"stage": "INITIALIZATION",
	})

	// Get all stations
	stations, _, err := s.repo.ListStations(ctx, repository.StationFilter{Limit: 10000})
	if err != nil {
		return fmt.Errorf("failed to list stations: %w", err)
	}

	totalStats := 0
	for _, station := range stations {
		buckets, err := s.repo.ListMeasuredPollutantYears(ctx, station.StationID)
		if err != nil {
			s.logger.Error(ctx, "[STATS_CALC_ERROR] Failed to list pollutant years", logging.Fields{
				"station_id": station.StationID,
			}, err)
			continue
		}

		for _, bucket := range buckets {
			stats, err := s.repo.CalculateYearlyStatistics(ctx, station.StationID, bucket.Pollutant, bucket.Year)
			if err != nil {
				s.logger.Error(ctx, "[STATS_CALC_ERROR] Failed to calculate statistics", logging.Fields{
					"station_id": station.StationID,
					"pollutant":  bucket.Pollutant,
					"year":       bucket.Year,
				}, err)
				continue
			}

			// Only save if there are measurements
			if stats.MeasurementCount > 0 {
				if err := s.repo.UpsertStatistics(ctx, stats); err != nil {
					s.logger.Error(ctx, "[STATS_SAVE_ERROR] Failed to save statistics", logging.Fields{
						"station_id": station.StationID,
						"pollutant":  bucket.Pollutant,
						"year":       bucket.Year,
					}, err)
					continue
				}
				totalStats++
			}
		}

		s.logger.Info(ctx, "[STATS_STATION_COMPLETE] Station statistics calculated", logging.Fields{
			"station_id": station.StationID,
			"buckets":    len(buckets),
		})
	}

	duration := time.Since(startTime)

	s.logger.Info(ctx, "[STATS_CALC_COMPLETE] Statistics calculation completed", logging.Fields{
		"total_stations":   len(stations),
		"total_statistics": totalStats,
		"duration_seconds": duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return nil
}
