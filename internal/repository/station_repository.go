package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"airquality-platform/internal/models"
	"airquality-platform/pkg/database"
	"airquality-platform/pkg/logging"
	"airquality-platform/pkg/metrics"
)

// StationRepository provides data access for stations, measurements and
// pre-calculated pollutant statistics.
type StationRepository interface {
	// Station operations
	CreateStation(ctx context.Context, station *models.Station) error
	GetStation(ctx context.Context, stationID string) (*models.Station, error)
	ListStations(ctx context.Context, filter StationFilter) ([]*models.Station, int, error)

	// Drill-down lookups
	ListMunicipalities(ctx context.Context) ([]string, error)
	ListYears(ctx context.Context, municipality string) ([]int, error)
	ListPollutants(ctx context.Context, stationID string, year *int) ([]string, error)
	ListMeasuredPollutantYears(ctx context.Context, stationID string) ([]PollutantYear, error)

	// Measurement operations
	CreateMeasurementsBatch(ctx context.Context, measurements []*models.Measurement) error
	GetMeasurements(ctx context.Context, filter MeasurementFilter) ([]*models.Measurement, int, error)

	// Statistics operations
	UpsertStatistics(ctx context.Context, stats *models.PollutantStatistics) error
	GetStatistics(ctx context.Context, filter StatisticsFilter) ([]*models.PollutantStatistics, int, error)
	CalculateYearlyStatistics(ctx context.Context, stationID, pollutant string, year int) (*models.PollutantStatistics, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// StationFilter defines filters for querying stations
type StationFilter struct {
	Municipality *string
	Year         *int
	Limit        int
	Offset       int
}

// MeasurementFilter defines filters for querying measurements
type MeasurementFilter struct {
	StationID *string
	Pollutant *string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
	Offset    int
}

// StatisticsFilter defines filters for querying pollutant statistics
type StatisticsFilter struct {
	StationID *string
	Pollutant *string
	Year      *int
	Limit     int
	Offset    int
}

// PollutantYear identifies one station-level statistics bucket
type PollutantYear struct {
	Pollutant string `db:"pollutant"`
	Year      int    `db:"year"`
}

// stationRepository implements StationRepository
type stationRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewStationRepository creates a new station repository
func NewStationRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) StationRepository {
	return &stationRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// CreateStation creates a new monitoring station
func (r *stationRepository) CreateStation(ctx context.Context, station *models.Station) error {
	query := `
		INSERT INTO stations (station_id, name, municipality, latitude, longitude, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (station_id) DO UPDATE SET
			name = EXCLUDED.name,
			municipality = EXCLUDED.municipality,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, "insert_station", query,
		station.StationID,
		station.Name,
		station.Municipality,
		station.Latitude,
		station.Longitude,
		station.CreatedAt,
		station.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create station: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_CREATE_STATION] Station created", logging.Fields{
		"station_id":   station.StationID,
		"municipality": station.Municipality,
	})

	return nil
}

// GetStation retrieves a monitoring station by ID
func (r *stationRepository) GetStation(ctx context.Context, stationID string) (*models.Station, error) {
	query := `
		SELECT station_id, name, municipality, latitude, longitude, created_at, updated_at
		FROM stations
		WHERE station_id = $1
	`

	var station models.Station
	err := r.db.GetContext(ctx, "get_station", &station, query, stationID)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{
			Resource: "station",
			ID:       stationID,
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get station: %w", err)
	}

	return &station, nil
}

// ListStations retrieves stations with filtering and pagination. When a year
// filter is set only stations with statistics for that year are returned, so
// the map only shows markers the drill-down can actually open.
func (r *stationRepository) ListStations(ctx context.Context, filter StationFilter) ([]*models.Station, int, error) {
	query := `
		SELECT s.station_id, s.name, s.municipality, s.latitude, s.longitude, s.created_at, s.updated_at
		FROM stations s
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.Municipality != nil {
		query += fmt.Sprintf(" AND s.municipality = $%d", argNum)
		args = append(args, *filter.Municipality)
		argNum++
	}

	if filter.Year != nil {
		query += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM pollutant_statistics ps
			WHERE ps.station_id = s.station_id AND ps.year = $%d
		)`, argNum)
		args = append(args, *filter.Year)
		argNum++
	}

	// Get total count
	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	err := r.db.GetContext(ctx, "count_stations", &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count stations: %w", err)
	}

	// Add ordering and pagination
	query += " ORDER BY s.station_id"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var stations []*models.Station
	err = r.db.SelectContext(ctx, "list_stations", &stations, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list stations: %w", err)
	}

	return stations, totalCount, nil
}

// ListMunicipalities retrieves the distinct municipalities that have stations
func (r *stationRepository) ListMunicipalities(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT municipality
		FROM stations
		ORDER BY municipality
	`

	var municipalities []string
	err := r.db.SelectContext(ctx, "list_municipalities", &municipalities, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list municipalities: %w", err)
	}

	return municipalities, nil
}

// ListYears retrieves the years with statistics for a municipality
func (r *stationRepository) ListYears(ctx context.Context, municipality string) ([]int, error) {
	query := `
		SELECT DISTINCT ps.year
		FROM pollutant_statistics ps
		JOIN stations s ON s.station_id = ps.station_id
		WHERE s.municipality = $1
		ORDER BY ps.year DESC
	`

	var years []int
	err := r.db.SelectContext(ctx, "list_years", &years, query, municipality)
	if err != nil {
		return nil, fmt.Errorf("failed to list years: %w", err)
	}

	return years, nil
}

// ListPollutants retrieves the pollutants with statistics for a station,
// optionally restricted to a single year
func (r *stationRepository) ListPollutants(ctx context.Context, stationID string, year *int) ([]string, error) {
	query := `
		SELECT DISTINCT pollutant
		FROM pollutant_statistics
		WHERE station_id = $1
	`
	args := []interface{}{stationID}

	if year != nil {
		query += " AND year = $2"
		args = append(args, *year)
	}

	query += " ORDER BY pollutant"

	var pollutants []string
	err := r.db.SelectContext(ctx, "list_pollutants", &pollutants, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pollutants: %w", err)
	}

	return pollutants, nil
}

// ListMeasuredPollutantYears retrieves every (pollutant, year) bucket that
// has raw measurements for a station. Used by the batch statistics job.
func (r *stationRepository) ListMeasuredPollutantYears(ctx context.Context, stationID string) ([]PollutantYear, error) {
	query := `
		SELECT DISTINCT pollutant, EXTRACT(YEAR FROM measured_at)::int AS year
		FROM measurements
		WHERE station_id = $1
		ORDER BY pollutant, year
	`

	var buckets []PollutantYear
	err := r.db.SelectContext(ctx, "list_pollutant_years", &buckets, query, stationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pollutant years: %w", err)
	}

	return buckets, nil
}

// CreateMeasurementsBatch creates multiple measurements in a single transaction
func (r *stationRepository) CreateMeasurementsBatch(ctx context.Context, measurements []*models.Measurement) error {
	if len(measurements) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.IngestionBatchSize.Observe(float64(len(measurements)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(measurements),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	// Begin transaction
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Prepare statement
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO measurements (
			station_id, pollutant, measured_at, concentration_ugm3, created_at
		)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (station_id, pollutant, measured_at) DO UPDATE SET
			concentration_ugm3 = EXCLUDED.concentration_ugm3
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	// Execute batch
	for _, m := range measurements {
		_, err := stmt.ExecContext(ctx,
			m.StationID,
			m.Pollutant,
			m.MeasuredAt,
			m.ConcentrationUgm3,
			m.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert measurement: %w", err)
		}
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionRecordsTotal.Add(float64(len(measurements)))

	return nil
}

// GetMeasurements retrieves measurements with filtering and pagination
func (r *stationRepository) GetMeasurements(ctx context.Context, filter MeasurementFilter) ([]*models.Measurement, int, error) {
	query := `
		SELECT id, station_id, pollutant, measured_at, concentration_ugm3, created_at
		FROM measurements
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.StationID != nil {
		query += fmt.Sprintf(" AND station_id = $%d", argNum)
		args = append(args, *filter.StationID)
		argNum++
	}

	if filter.Pollutant != nil {
		query += fmt.Sprintf(" AND pollutant = $%d", argNum)
		args = append(args, *filter.Pollutant)
		argNum++
	}

	if filter.StartTime != nil {
		query += fmt.Sprintf(" AND measured_at >= $%d", argNum)
		args = append(args, *filter.StartTime)
		argNum++
	}

	if filter.EndTime != nil {
		query += fmt.Sprintf(" AND measured_at <= $%d", argNum)
		args = append(args, *filter.EndTime)
		argNum++
	}

	// Get total count
	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	err := r.db.GetContext(ctx, "count_measurements", &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count measurements: %w", err)
	}

	// Add ordering and pagination
	query += " ORDER BY measured_at DESC, pollutant"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var measurements []*models.Measurement
	err = r.db.SelectContext(ctx, "get_measurements", &measurements, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get measurements: %w", err)
	}

	return measurements, totalCount, nil
}

// UpsertStatistics creates or updates pollutant statistics
func (r *stationRepository) UpsertStatistics(ctx context.Context, stats *models.PollutantStatistics) error {
	query := `
		INSERT INTO pollutant_statistics (
			station_id, pollutant, year,
			avg_concentration_ugm3, max_concentration_ugm3, min_concentration_ugm3,
			measurement_count, valid_measurement_count,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (station_id, pollutant, year) DO UPDATE SET
			avg_concentration_ugm3 = EXCLUDED.avg_concentration_ugm3,
			max_concentration_ugm3 = EXCLUDED.max_concentration_ugm3,
			min_concentration_ugm3 = EXCLUDED.min_concentration_ugm3,
			measurement_count = EXCLUDED.measurement_count,
			valid_measurement_count = EXCLUDED.valid_measurement_count,
			updated_at = EXCLUDED.updated_at
		RETURNING id
	`

	err := r.db.DB().QueryRowContext(ctx, query,
		stats.StationID,
		stats.Pollutant,
		stats.Year,
		stats.AvgConcentrationUgm3,
		stats.MaxConcentrationUgm3,
		stats.MinConcentrationUgm3,
		stats.MeasurementCount,
		stats.ValidMeasurementCount,
		stats.CreatedAt,
		stats.UpdatedAt,
	).Scan(&stats.ID)

	if err != nil {
		return fmt.Errorf("failed to upsert statistics: %w", err)
	}

	return nil
}

// GetStatistics retrieves pollutant statistics with filtering and pagination
func (r *stationRepository) GetStatistics(ctx context.Context, filter StatisticsFilter) ([]*models.PollutantStatistics, int, error) {
	query := `
		SELECT id, station_id, pollutant, year,
		       avg_concentration_ugm3, max_concentration_ugm3, min_concentration_ugm3,
		       measurement_count, valid_measurement_count,
		       created_at, updated_at
		FROM pollutant_statistics
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.StationID != nil {
		query += fmt.Sprintf(" AND station_id = $%d", argNum)
		args = append(args, *filter.StationID)
		argNum++
	}

	if filter.Pollutant != nil {
		query += fmt.Sprintf(" AND pollutant = $%d", argNum)
		args = append(args, *filter.Pollutant)
		argNum++
	}

	if filter.Year != nil {
		query += fmt.Sprintf(" AND year = $%d", argNum)
		args = append(args, *filter.Year)
		argNum++
	}

	// Get total count
	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	err := r.db.GetContext(ctx, "count_statistics", &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count statistics: %w", err)
	}

	// Add ordering and pagination
	query += " ORDER BY year DESC, pollutant, station_id"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	var statistics []*models.PollutantStatistics
	err = r.db.SelectContext(ctx, "get_statistics", &statistics, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get statistics: %w", err)
	}

	return statistics, totalCount, nil
}

// CalculateYearlyStatistics calculates statistics for a station, pollutant
// and year from the raw measurements
func (r *stationRepository) CalculateYearlyStatistics(ctx context.Context, stationID, pollutant string, year int) (*models.PollutantStatistics, error) {
	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.StatsCalculationDuration.Observe(duration.Seconds())
		r.logger.Debug(ctx, "[REPO_CALC_STATS] Statistics calculated", logging.Fields{
			"station_id":  stationID,
			"pollutant":   pollutant,
			"year":        year,
			"duration_ms": duration.Milliseconds(),
		})
	}()

	query := `
		SELECT
			COUNT(*) as measurement_count,
			COUNT(concentration_ugm3) as valid_measurement_count,
			AVG(concentration_ugm3) as avg_concentration_ugm3,
			MAX(concentration_ugm3) as max_concentration_ugm3,
			MIN(concentration_ugm3) as min_concentration_ugm3
		FROM measurements
		WHERE station_id = $1
		  AND pollutant = $2
		  AND EXTRACT(YEAR FROM measured_at) = $3
	`

	var result struct {
		MeasurementCount      int      `db:"measurement_count"`
		ValidMeasurementCount int      `db:"valid_measurement_count"`
		AvgConcentrationUgm3  *float64 `db:"avg_concentration_ugm3"`
		MaxConcentrationUgm3  *float64 `db:"max_concentration_ugm3"`
		MinConcentrationUgm3  *float64 `db:"min_concentration_ugm3"`
	}

	err := r.db.GetContext(ctx, "calculate_statistics", &result, query, stationID, pollutant, year)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate statistics: %w", err)
	}

	stats := &models.PollutantStatistics{
		StationID:             stationID,
		Pollutant:             pollutant,
		Year:                  year,
		AvgConcentrationUgm3:  result.AvgConcentrationUgm3,
		MaxConcentrationUgm3:  result.MaxConcentrationUgm3,
		MinConcentrationUgm3:  result.MinConcentrationUgm3,
		MeasurementCount:      result.MeasurementCount,
		ValidMeasurementCount: result.ValidMeasurementCount,
		CreatedAt:             time.Now().UTC(),
		UpdatedAt:             time.Now().UTC(),
	}

	return stats, nil
}

// HealthCheck performs a repository health check
func (r *stationRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
