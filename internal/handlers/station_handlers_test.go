package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airquality-platform/internal/handlers"
	"airquality-platform/internal/models"
	"airquality-platform/internal/repository"
	"airquality-platform/internal/services"
	"airquality-platform/pkg/logging"
	"airquality-platform/pkg/metrics"
)

// mockRepository is an in-memory StationRepository for handler tests.
type mockRepository struct {
	stations       []*models.Station
	municipalities []string
	years          []int
	pollutants     []string
	statistics     []*models.PollutantStatistics
	err            error
}

func (m *mockRepository) CreateStation(_ context.Context, _ *models.Station) error { return m.err }

func (m *mockRepository) GetStation(_ context.Context, stationID string) (*models.Station, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, s := range m.stations {
		if s.StationID == stationID {
			return s, nil
		}
	}
	return nil, &repository.NotFoundError{Resource: "station", ID: stationID}
}

func (m *mockRepository) ListStations(_ context.Context, filter repository.StationFilter) ([]*models.Station, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	matched := make([]*models.Station, 0, len(m.stations))
	for _, s := range m.stations {
		if filter.Municipality != nil && s.Municipality != *filter.Municipality {
			continue
		}
		matched = append(matched, s)
	}
	total := len(matched)
	if filter.Offset >= len(matched) {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (m *mockRepository) ListMunicipalities(_ context.Context) ([]string, error) {
	return m.municipalities, m.err
}

func (m *mockRepository) ListYears(_ context.Context, _ string) ([]int, error) {
	return m.years, m.err
}

func (m *mockRepository) ListPollutants(_ context.Context, _ string, _ *int) ([]string, error) {
	return m.pollutants, m.err
}

func (m *mockRepository) ListMeasuredPollutantYears(_ context.Context, _ string) ([]repository.PollutantYear, error) {
	return nil, m.err
}

func (m *mockRepository) CreateMeasurementsBatch(_ context.Context, _ []*models.Measurement) error {
	return m.err
}

func (m *mockRepository) GetMeasurements(_ context.Context, _ repository.MeasurementFilter) ([]*models.Measurement, int, error) {
	return nil, 0, m.err
}

func (m *mockRepository) UpsertStatistics(_ context.Context, _ *models.PollutantStatistics) error {
	return m.err
}

func (m *mockRepository) GetStatistics(_ context.Context, filter repository.StatisticsFilter) ([]*models.PollutantStatistics, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	matched := make([]*models.PollutantStatistics, 0, len(m.statistics))
	for _, st := range m.statistics {
		if filter.StationID != nil && st.StationID != *filter.StationID {
			continue
		}
		if filter.Pollutant != nil && st.Pollutant != *filter.Pollutant {
			continue
		}
		if filter.Year != nil && st.Year != *filter.Year {
			continue
		}
		matched = append(matched, st)
	}
	total := len(matched)
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

func (m *mockRepository) CalculateYearlyStatistics(_ context.Context, stationID, pollutant string, year int) (*models.PollutantStatistics, error) {
	return &models.PollutantStatistics{StationID: stationID, Pollutant: pollutant, Year: year}, m.err
}

func (m *mockRepository) HealthCheck(_ context.Context) error { return m.err }

var (
	collectorOnce sync.Once
	testCollector *metrics.Collector
)

// sharedCollector avoids duplicate prometheus registration across tests.
func sharedCollector() *metrics.Collector {
	collectorOnce.Do(func() {
		testCollector = metrics.NewCollector("airquality_handler_test")
	})
	return testCollector
}

func newTestRouter(repo repository.StationRepository) *mux.Router {
	logger := logging.NewStructuredLogger("test", "0.0.0", logging.ErrorLevel)
	logger.SetOutput(io.Discard)

	collector := sharedCollector()
	stationService := services.NewStationService(repo, logger, collector)
	statsService := services.NewStatisticsService(repo, logger, collector)

	handler := handlers.NewAirQualityHandler(stationService, statsService, logger, collector)

	router := mux.NewRouter()
	router.Use(handlers.RequestID)
	handler.RegisterRoutes(router)
	return router
}

func ptr(v float64) *float64 {
	return &v
}

func TestGetMunicipalities(t *testing.T) {
	router := newTestRouter(&mockRepository{
		municipalities: []string{"Arendal", "Bergen", "Oslo"},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/municipalities", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Municipalities []string `json:"municipalities"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"Arendal", "Bergen", "Oslo"}, body.Municipalities)
}

func TestGetMunicipalityYears(t *testing.T) {
	router := newTestRouter(&mockRepository{
		years: []int{2023, 2022, 2021},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/municipalities/Bergen/years", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Municipality string `json:"municipality"`
		Years        []int  `json:"years"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Bergen", body.Municipality)
	assert.Equal(t, []int{2023, 2022, 2021}, body.Years)
}

func TestGetStations_Pagination(t *testing.T) {
	now := time.Now().UTC()
	router := newTestRouter(&mockRepository{
		stations: []*models.Station{
			{StationID: "ST0001", Name: "Harbor", Municipality: "Bergen", Latitude: 60.39, Longitude: 5.32, CreatedAt: now, UpdatedAt: now},
			{StationID: "ST0002", Name: "Center", Municipality: "Bergen", Latitude: 60.40, Longitude: 5.33, CreatedAt: now, UpdatedAt: now},
			{StationID: "ST0003", Name: "East", Municipality: "Oslo", Latitude: 59.91, Longitude: 10.75, CreatedAt: now, UpdatedAt: now},
		},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stations?municipality=Bergen&limit=1&page=2", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data       []models.Station `json:"data"`
		Total      int              `json:"total"`
		Page       int              `json:"page"`
		Limit      int              `json:"limit"`
		TotalPages int              `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "ST0002", body.Data[0].StationID)
	assert.Equal(t, 2, body.Total)
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, 2, body.TotalPages)
}

func TestGetStationPollutants(t *testing.T) {
	now := time.Now().UTC()
	router := newTestRouter(&mockRepository{
		stations: []*models.Station{
			{StationID: "ST0001", Municipality: "Bergen", CreatedAt: now, UpdatedAt: now},
		},
		pollutants: []string{"no2", "pm25"},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stations/ST0001/pollutants?year=2023", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		StationID  string                   `json:"station_id"`
		Pollutants []handlers.PollutantInfo `json:"pollutants"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ST0001", body.StationID)
	require.Len(t, body.Pollutants, 2)
	assert.Equal(t, "no2", body.Pollutants[0].Pollutant)
	assert.Equal(t, []int{1, 24}, body.Pollutants[0].Windows)
	assert.Equal(t, 24, body.Pollutants[0].DefaultWindow)
}

func TestGetStationPollutants_UnknownStation(t *testing.T) {
	router := newTestRouter(&mockRepository{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stations/NOPE/pollutants", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetStationStatistics_Classified(t *testing.T) {
	router := newTestRouter(&mockRepository{
		statistics: []*models.PollutantStatistics{
			{
				StationID:             "ST0001",
				Pollutant:             "pm25",
				Year:                  2023,
				AvgConcentrationUgm3:  ptr(12),
				MaxConcentrationUgm3:  ptr(41),
				MinConcentrationUgm3:  ptr(2),
				MeasurementCount:      8760,
				ValidMeasurementCount: 8421,
			},
		},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stations/ST0001/statistics?pollutant=pm25&year=2023", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Statistics     models.PollutantStatistics `json:"statistics"`
		Classification struct {
			Tier       string `json:"tier"`
			Color      string `json:"color"`
			Thresholds *struct {
				GoodLimit     float64 `json:"good_limit"`
				ModerateLimit float64 `json:"moderate_limit"`
				ExposureHours int     `json:"exposure_hours"`
				Source        string  `json:"source"`
			} `json:"thresholds"`
		} `json:"classification"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "pm25", body.Statistics.Pollutant)
	assert.Equal(t, "good", body.Classification.Tier)
	assert.Equal(t, "#00E400", body.Classification.Color)
	require.NotNil(t, body.Classification.Thresholds)
	assert.Equal(t, float64(15), body.Classification.Thresholds.GoodLimit)
	assert.Equal(t, float64(25), body.Classification.Thresholds.ModerateLimit)
	assert.Equal(t, 24, body.Classification.Thresholds.ExposureHours)
	assert.Equal(t, "WHO 2021", body.Classification.Thresholds.Source)
}

func TestGetStationStatistics_UnsupportedWindow(t *testing.T) {
	router := newTestRouter(&mockRepository{
		statistics: []*models.PollutantStatistics{
			{StationID: "ST0001", Pollutant: "o3", Year: 2023, AvgConcentrationUgm3: ptr(50)},
		},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stations/ST0001/statistics?pollutant=o3&year=2023&hours=5", nil)
	router.ServeHTTP(rec, req)

	// A window without thresholds degrades to an unavailable tier, not an error
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Classification struct {
			Tier  string `json:"tier"`
			Color string `json:"color"`
		} `json:"classification"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "unavailable", body.Classification.Tier)
	assert.Equal(t, "#9E9E9E", body.Classification.Color)
}

func TestGetStationStatistics_NotFound(t *testing.T) {
	router := newTestRouter(&mockRepository{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stations/ST0001/statistics?pollutant=pm25&year=1999", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var body handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, body.Code)
}

func TestGetStationStatistics_Listing(t *testing.T) {
	router := newTestRouter(&mockRepository{
		statistics: []*models.PollutantStatistics{
			{StationID: "ST0001", Pollutant: "pm25", Year: 2023, AvgConcentrationUgm3: ptr(12)},
			{StationID: "ST0001", Pollutant: "no2", Year: 2023, AvgConcentrationUgm3: ptr(18)},
		},
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/stations/ST0001/statistics", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data  []models.PollutantStatistics `json:"data"`
		Total int                          `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data, 2)
	assert.Equal(t, 2, body.Total)
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(&mockRepository{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestRequestIDHeader(t *testing.T) {
	router := newTestRouter(&mockRepository{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	// A caller-supplied ID is preserved
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "caller-id")
	router.ServeHTTP(rec, req)

	assert.Equal(t, "caller-id", rec.Header().Get("X-Request-Id"))
}
