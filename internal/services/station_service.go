package services

import (
	"context"

	"airquality-platform/internal/models"
	"airquality-platform/internal/repository"
	"airquality-platform/pkg/logging"
	"airquality-platform/pkg/metrics"
)

// StationService handles station and drill-down lookups
type StationService struct {
	repo    repository.StationRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewStationService creates a new station service
func NewStationService(repo repository.StationRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *StationService {
	return &StationService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// GetStations retrieves stations with filtering
func (s *StationService) GetStations(ctx context.Context, filter repository.StationFilter) ([]*models.Station, int, error) {
	return s.repo.ListStations(ctx, filter)
}

// GetStation retrieves a single station by ID
func (s *StationService) GetStation(ctx context.Context, stationID string) (*models.Station, error) {
	return s.repo.GetStation(ctx, stationID)
}

// GetMunicipalities retrieves the municipalities that have stations
func (s *StationService) GetMunicipalities(ctx context.Context) ([]string, error) {
	return s.repo.ListMunicipalities(ctx)
}

// GetYears retrieves the years with statistics for a municipality
func (s *StationService) GetYears(ctx context.Context, municipality string) ([]int, error) {
	return s.repo.ListYears(ctx, municipality)
}

// GetPollutants retrieves the pollutants with statistics for a station
func (s *StationService) GetPollutants(ctx context.Context, stationID string, year *int) ([]string, error) {
	return s.repo.ListPollutants(ctx, stationID, year)
}
