package services

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"airquality-platform/internal/models"
	"airquality-platform/internal/repository"
	"airquality-platform/pkg/logging"
	"airquality-platform/pkg/metrics"
)

// IngestionService handles measurement data ingestion
type IngestionService struct {
	repo    repository.StationRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionResult contains ingestion statistics
type IngestionResult struct {
	TotalFiles        int
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
	StationsLoaded    int
	Duration          time.Duration
	Errors            []string
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(repo repository.StationRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// IngestDirectory ingests station metadata and measurement files from a
// directory. The directory must contain a stations.csv metadata file and one
// <station_id>.txt measurement file per station.
func (s *IngestionService) IngestDirectory(ctx context.Context, dataDir string, batchSize int) (*IngestionResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[INGEST_START] Starting data ingestion", logging.Fields{
		"data_dir":   dataDir,
		"batch_size": batchSize,
		"stage":      "INITIALIZATION",
	})

	result := &IngestionResult{
		Errors: make([]string, 0),
	}

	// Load station metadata first so measurement files have a parent row
	stationsLoaded, err := s.loadStations(ctx, filepath.Join(dataDir, "stations.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to load station metadata: %w", err)
	}
	result.StationsLoaded = stationsLoaded

	// Read directory
	files, err := filepath.Glob(filepath.Join(dataDir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no measurement files found in %s", dataDir)
	}

	result.TotalFiles = len(files)

	s.logger.Info(ctx, "[INGEST_FILES] Found measurement files", logging.Fields{
		"file_count":      len(files),
		"stations_loaded": stationsLoaded,
		"stage":           "FILE_DISCOVERY",
	})

	// Process each file
	for _, filePath := range files {
		fileResult, err := s.ingestFile(ctx, filePath, batchSize)
		if err != nil {
			errMsg := fmt.Sprintf("failed to ingest %s: %v", filePath, err)
			result.Errors = append(result.Errors, errMsg)
			s.logger.Error(ctx, "[INGEST_FILE_ERROR] File ingestion failed", logging.Fields{
				"file_path": filePath,
				"stage":     "FILE_PROCESSING",
			}, err)
			s.metrics.RecordIngestionError("file_error")
			continue
		}

		result.TotalRecords += fileResult.TotalRecords
		result.SuccessfulRecords += fileResult.SuccessfulRecords
		result.FailedRecords += fileResult.FailedRecords

		s.logger.Info(ctx, "[INGEST_FILE_SUCCESS] File ingested successfully", logging.Fields{
			"file_path":          filePath,
			"total_records":      fileResult.TotalRecords,
			"successful_records": fileResult.SuccessfulRecords,
			"failed_records":     fileResult.FailedRecords,
			"stage":              "FILE_COMPLETE",
		})
	}

	result.Duration = time.Since(startTime)
	s.metrics.IngestionDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[INGEST_COMPLETE] Data ingestion completed", logging.Fields{
		"total_files":        result.TotalFiles,
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"failed_records":     result.FailedRecords,
		"duration_seconds":   result.Duration.Seconds(),
		"records_per_second": float64(result.SuccessfulRecords) / result.Duration.Seconds(),
		"error_count":        len(result.Errors),
		"stage":              "COMPLETE",
	})

	return result, nil
}

// loadStations reads the station metadata CSV and upserts each station.
// Format: station_id,name,municipality,latitude,longitude (with header row).
func (s *IngestionService) loadStations(ctx context.Context, metadataPath string) (int, error) {
	file, err := os.Open(metadataPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	records, err := reader.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("failed to parse metadata file: %w", err)
	}

	if len(records) < 2 {
		return 0, fmt.Errorf("metadata file %s has no station rows", metadataPath)
	}

	loaded := 0
	for i, record := range records[1:] { // skip header
		if len(record) != 5 {
			s.metrics.RecordIngestionError("metadata_error")
			s.logger.Warn(ctx, "[INGEST_METADATA_SKIP] Malformed station row", logging.Fields{
				"line": i + 2,
			})
			continue
		}

		latitude, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
		if err != nil {
			s.metrics.RecordIngestionError("metadata_error")
			continue
		}

		longitude, err := strconv.ParseFloat(strings.TrimSpace(record[4]), 64)
		if err != nil {
			s.metrics.RecordIngestionError("metadata_error")
			continue
		}

		station := &models.Station{
			StationID:    strings.TrimSpace(record[0]),
			Name:         strings.TrimSpace(record[1]),
			Municipality: strings.TrimSpace(record[2]),
			Latitude:     latitude,
			Longitude:    longitude,
			CreatedAt:    time.Now().UTC(),
			UpdatedAt:    time.Now().UTC(),
		}

		if err := s.repo.CreateStation(ctx, station); err != nil {
			return loaded, fmt.Errorf("failed to create station %s: %w", station.StationID, err)
		}
		loaded++
	}

	return loaded, nil
}

// FileIngestionResult contains per-file ingestion statistics
type FileIngestionResult struct {
	TotalRecords      int
	SuccessfulRecords int
	FailedRecords     int
}

// ingestFile ingests a single measurement data file
func (s *IngestionService) ingestFile(ctx context.Context, filePath string, batchSize int) (*FileIngestionResult, error) {
	// Extract station ID from filename
	fileName := filepath.Base(filePath)
	stationID := strings.TrimSuffix(fileName, filepath.Ext(fileName))

	// Open file
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	result := &FileIngestionResult{}
	batch := make([]*models.Measurement, 0, batchSize)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		result.TotalRecords++

		line := scanner.Text()
		record, err := s.parseLine(line)
		if err != nil {
			result.FailedRecords++
			s.metrics.RecordIngestionError("parse_error")
			continue
		}

		measurement, err := record.ToMeasurement(stationID)
		if err != nil {
			result.FailedRecords++
			s.metrics.RecordIngestionError("conversion_error")
			continue
		}

		batch = append(batch, measurement)

		// Process batch when full
		if len(batch) >= batchSize {
			if err := s.repo.CreateMeasurementsBatch(ctx, batch); err != nil {
				return nil, fmt.Errorf("failed to insert batch: %w", err)
			}
			result.SuccessfulRecords += len(batch)
			batch = batch[:0]
		}
	}

	// Process remaining records
	if len(batch) > 0 {
		if err := s.repo.CreateMeasurementsBatch(ctx, batch); err != nil {
			return nil, fmt.Errorf("failed to insert final batch: %w", err)
		}
		result.SuccessfulRecords += len(batch)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return result, nil
}

// parseLine parses a single line from a measurement data file
// Format: YYYYMMDDHH\tPOLLUTANT\tCONCENTRATION_TENTHS
func (s *IngestionService) parseLine(line string) (*models.RawMeasurementRecord, error) {
	parts := strings.Split(line, "\t")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid line format: expected 3 fields, got %d", len(parts))
	}

	concentration, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return nil, fmt.Errorf("invalid concentration: %w", err)
	}

	return &models.RawMeasurementRecord{
		Timestamp:           strings.TrimSpace(parts[0]),
		Pollutant:           strings.ToLower(strings.TrimSpace(parts[1])),
		ConcentrationTenths: concentration,
	}, nil
}
