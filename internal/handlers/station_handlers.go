package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"airquality-platform/internal/classification"
	"airquality-platform/internal/repository"
	"airquality-platform/internal/services"
	"airquality-platform/pkg/logging"
	"airquality-platform/pkg/metrics"
)

// AirQualityHandler handles the map drill-down API endpoints
type AirQualityHandler struct {
	stationService *services.StationService
	statsService   *services.StatisticsService
	logger         *logging.StructuredLogger
	metrics        *metrics.Collector
}

// NewAirQualityHandler creates a new air quality handler
func NewAirQualityHandler(
	stationService *services.StationService,
	statsService *services.StatisticsService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *AirQualityHandler {
	return &AirQualityHandler{
		stationService: stationService,
		statsService:   statsService,
		logger:         logger,
		metrics:        metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	TotalPages int         `json:"total_pages"`
}

// PollutantInfo describes one selectable pollutant for a station, including
// the exposure windows the classification table supports.
type PollutantInfo struct {
	Pollutant     string `json:"pollutant"`
	Windows       []int  `json:"windows,omitempty"`
	DefaultWindow int    `json:"default_window,omitempty"`
}

// GetMunicipalities handles GET /api/municipalities
func (h *AirQualityHandler) GetMunicipalities(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/municipalities").Observe(duration.Seconds())
	}()

	municipalities, err := h.stationService.GetMunicipalities(ctx)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_MUNICIPALITIES_ERROR] Failed to get municipalities", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/municipalities")
		h.sendError(w, r, "failed to retrieve municipalities", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/municipalities", "GET", "200")
	h.sendJSON(w, map[string]interface{}{"municipalities": municipalities}, http.StatusOK)
}

// GetMunicipalityYears handles GET /api/municipalities/{municipality}/years
func (h *AirQualityHandler) GetMunicipalityYears(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/municipalities/years").Observe(duration.Seconds())
	}()

	municipality := mux.Vars(r)["municipality"]

	years, err := h.stationService.GetYears(ctx, municipality)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_YEARS_ERROR] Failed to get years", logging.Fields{
			"municipality": municipality,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/municipalities/years")
		h.sendError(w, r, "failed to retrieve years", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/municipalities/years", "GET", "200")
	h.sendJSON(w, map[string]interface{}{
		"municipality": municipality,
		"years":        years,
	}, http.StatusOK)
}

// GetStations handles GET /api/stations
func (h *AirQualityHandler) GetStations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/stations").Observe(duration.Seconds())
	}()

	// Parse query parameters
	municipality := r.URL.Query().Get("municipality")
	yearStr := r.URL.Query().Get("year")
	page, limit := parsePagination(r)

	offset := (page - 1) * limit

	// Build filter
	filter := repository.StationFilter{
		Limit:  limit,
		Offset: offset,
	}

	if municipality != "" {
		filter.Municipality = &municipality
	}

	if yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			h.sendError(w, r, "invalid year, expected integer", http.StatusBadRequest)
			return
		}
		filter.Year = &year
	}

	stations, total, err := h.stationService.GetStations(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_STATIONS_ERROR] Failed to get stations", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/stations")
		h.sendError(w, r, "failed to retrieve stations", http.StatusInternalServerError)
		return
	}

	totalPages := (total + limit - 1) / limit

	response := PaginatedResponse{
		Data:       stations,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}

	h.metrics.RecordAPIRequest("/api/stations", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetStationPollutants handles GET /api/stations/{station_id}/pollutants
func (h *AirQualityHandler) GetStationPollutants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/stations/pollutants").Observe(duration.Seconds())
	}()

	stationID := mux.Vars(r)["station_id"]

	var year *int
	if yearStr := r.URL.Query().Get("year"); yearStr != "" {
		y, err := strconv.Atoi(yearStr)
		if err != nil {
			h.sendError(w, r, "invalid year, expected integer", http.StatusBadRequest)
			return
		}
		year = &y
	}

	// Station must exist for the drill-down to be meaningful
	if _, err := h.stationService.GetStation(ctx, stationID); err != nil {
		var notFound *repository.NotFoundError
		if errors.As(err, &notFound) {
			h.sendError(w, r, notFound.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error(ctx, "[API_GET_POLLUTANTS_ERROR] Failed to get station", logging.Fields{
			"station_id": stationID,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/stations/pollutants")
		h.sendError(w, r, "failed to retrieve station", http.StatusInternalServerError)
		return
	}

	pollutants, err := h.stationService.GetPollutants(ctx, stationID, year)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_POLLUTANTS_ERROR] Failed to get pollutants", logging.Fields{
			"station_id": stationID,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/stations/pollutants")
		h.sendError(w, r, "failed to retrieve pollutants", http.StatusInternalServerError)
		return
	}

	infos := make([]PollutantInfo, 0, len(pollutants))
	for _, p := range pollutants {
		info := PollutantInfo{Pollutant: p, Windows: classification.Windows(p)}
		if hours, ok := classification.DefaultWindow(p); ok {
			info.DefaultWindow = hours
		}
		infos = append(infos, info)
	}

	h.metrics.RecordAPIRequest("/api/stations/pollutants", "GET", "200")
	h.sendJSON(w, map[string]interface{}{
		"station_id": stationID,
		"pollutants": infos,
	}, http.StatusOK)
}

// GetStationStatistics handles GET /api/stations/{station_id}/statistics.
// With pollutant and year set it returns the single statistics row together
// with its air-quality classification; otherwise it returns a paginated
// listing of the station's statistics.
func (h *AirQualityHandler) GetStationStatistics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/stations/statistics").Observe(duration.Seconds())
	}()

	stationID := mux.Vars(r)["station_id"]
	pollutant := r.URL.Query().Get("pollutant")
	yearStr := r.URL.Query().Get("year")
	hoursStr := r.URL.Query().Get("hours")

	if pollutant != "" && yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			h.sendError(w, r, "invalid year, expected integer", http.StatusBadRequest)
			return
		}

		var hours *int
		if hoursStr != "" {
			n, err := strconv.Atoi(hoursStr)
			if err != nil || n < 1 {
				h.sendError(w, r, "invalid hours, expected positive integer", http.StatusBadRequest)
				return
			}
			hours = &n
		}

		classified, err := h.statsService.GetClassifiedStatistics(ctx, stationID, pollutant, year, hours)
		if err != nil {
			var notFound *repository.NotFoundError
			if errors.As(err, &notFound) {
				h.sendError(w, r, notFound.Error(), http.StatusNotFound)
				return
			}
			h.logger.Error(ctx, "[API_GET_STATISTICS_ERROR] Failed to get classified statistics", logging.Fields{
				"station_id": stationID,
				"pollutant":  pollutant,
				"year":       year,
			}, err)
			h.metrics.RecordAPIError("internal_error", "/api/stations/statistics")
			h.sendError(w, r, "failed to retrieve statistics", http.StatusInternalServerError)
			return
		}

		h.metrics.RecordAPIRequest("/api/stations/statistics", "GET", "200")
		h.sendJSON(w, classified, http.StatusOK)
		return
	}

	page, limit := parsePagination(r)
	offset := (page - 1) * limit

	filter := repository.StatisticsFilter{
		StationID: &stationID,
		Limit:     limit,
		Offset:    offset,
	}

	if pollutant != "" {
		filter.Pollutant = &pollutant
	}

	if yearStr != "" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			h.sendError(w, r, "invalid year, expected integer", http.StatusBadRequest)
			return
		}
		filter.Year = &year
	}

	statistics, total, err := h.statsService.GetStatistics(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_STATISTICS_ERROR] Failed to get statistics", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/stations/statistics")
		h.sendError(w, r, "failed to retrieve statistics", http.StatusInternalServerError)
		return
	}

	totalPages := (total + limit - 1) / limit

	response := PaginatedResponse{
		Data:       statistics,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}

	h.metrics.RecordAPIRequest("/api/stations/statistics", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *AirQualityHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// parsePagination extracts page/limit query parameters with defaults
func parsePagination(r *http.Request) (page, limit int) {
	page = 1
	limit = 100

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	return page, limit
}

// sendJSON sends a JSON response
func (h *AirQualityHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *AirQualityHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all air quality API routes
func (h *AirQualityHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/municipalities", h.GetMunicipalities).Methods("GET")
	router.HandleFunc("/api/municipalities/{municipality}/years", h.GetMunicipalityYears).Methods("GET")
	router.HandleFunc("/api/stations", h.GetStations).Methods("GET")
	router.HandleFunc("/api/stations/{station_id}/pollutants", h.GetStationPollutants).Methods("GET")
	router.HandleFunc("/api/stations/{station_id}/statistics", h.GetStationStatistics).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
