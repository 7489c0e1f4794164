package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Air Quality Platform API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	paginationParams := []map[string]interface{}{
		{
			"name":        "page",
			"in":          "query",
			"description": "Page number (default: 1)",
			"required":    false,
			"schema":      map[string]interface{}{"type": "integer", "default": 1},
		},
		{
			"name":        "limit",
			"in":          "query",
			"description": "Records per page (default: 100)",
			"required":    false,
			"schema":      map[string]interface{}{"type": "integer", "default": 100},
		},
	}

	classificationSchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"tier":        map[string]interface{}{"type": "string", "enum": []string{"good", "moderate", "poor", "unavailable"}},
			"color":       map[string]string{"type": "string"},
			"description": map[string]string{"type": "string"},
			"thresholds": map[string]interface{}{
				"type":     "object",
				"nullable": true,
				"properties": map[string]interface{}{
					"good_limit":     map[string]string{"type": "number"},
					"moderate_limit": map[string]string{"type": "number"},
					"exposure_hours": map[string]string{"type": "integer"},
					"source":         map[string]string{"type": "string"},
				},
			},
		},
	}

	statisticsSchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id":                      map[string]string{"type": "integer"},
			"station_id":              map[string]string{"type": "string"},
			"pollutant":               map[string]string{"type": "string"},
			"year":                    map[string]string{"type": "integer"},
			"avg_concentration_ugm3":  map[string]interface{}{"type": "number", "nullable": true},
			"max_concentration_ugm3":  map[string]interface{}{"type": "number", "nullable": true},
			"min_concentration_ugm3":  map[string]interface{}{"type": "number", "nullable": true},
			"measurement_count":       map[string]string{"type": "integer"},
			"valid_measurement_count": map[string]string{"type": "integer"},
		},
	}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Air Quality Platform API",
			"description": "Monitoring station map backend with municipality/year/station/pollutant drill-down and WHO 2021 air-quality classification",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Air Quality Platform Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/municipalities": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List municipalities",
					"description": "Retrieve the municipalities that have monitoring stations",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"municipalities": map[string]interface{}{
												"type":  "array",
												"items": map[string]string{"type": "string"},
											},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/municipalities/{municipality}/years": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List years for a municipality",
					"description": "Retrieve the years with pollutant statistics for a municipality",
					"parameters": []map[string]interface{}{
						{
							"name":     "municipality",
							"in":       "path",
							"required": true,
							"schema":   map[string]string{"type": "string"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"municipality": map[string]string{"type": "string"},
											"years": map[string]interface{}{
												"type":  "array",
												"items": map[string]string{"type": "integer"},
											},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/stations": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List monitoring stations",
					"description": "Retrieve stations with coordinates for map markers, filtered by municipality and year",
					"parameters": append([]map[string]interface{}{
						{
							"name":        "municipality",
							"in":          "query",
							"description": "Filter by municipality",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "year",
							"in":          "query",
							"description": "Only stations with statistics for this year",
							"required":    false,
							"schema":      map[string]string{"type": "integer"},
						},
					}, paginationParams...),
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"data": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "object",
													"properties": map[string]interface{}{
														"station_id":   map[string]string{"type": "string"},
														"name":         map[string]string{"type": "string"},
														"municipality": map[string]string{"type": "string"},
														"latitude":     map[string]string{"type": "number"},
														"longitude":    map[string]string{"type": "number"},
													},
												},
											},
											"total":       map[string]string{"type": "integer"},
											"page":        map[string]string{"type": "integer"},
											"limit":       map[string]string{"type": "integer"},
											"total_pages": map[string]string{"type": "integer"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/stations/{station_id}/pollutants": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List pollutants for a station",
					"description": "Retrieve the pollutants with statistics for a station, with supported exposure windows",
					"parameters": []map[string]interface{}{
						{
							"name":     "station_id",
							"in":       "path",
							"required": true,
							"schema":   map[string]string{"type": "string"},
						},
						{
							"name":        "year",
							"in":          "query",
							"description": "Restrict to pollutants measured in this year",
							"required":    false,
							"schema":      map[string]string{"type": "integer"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
						},
						"404": map[string]interface{}{
							"description": "Station not found",
						},
					},
				},
			},
			"/api/stations/{station_id}/statistics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get pollutant statistics",
					"description": "With pollutant and year set, returns one statistics row with its WHO 2021 classification; otherwise a paginated listing",
					"parameters": append([]map[string]interface{}{
						{
							"name":     "station_id",
							"in":       "path",
							"required": true,
							"schema":   map[string]string{"type": "string"},
						},
						{
							"name":        "pollutant",
							"in":          "query",
							"description": "Pollutant identifier (o3, pm10, pm25, so2, no2, co, no)",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "year",
							"in":          "query",
							"description": "Statistics year",
							"required":    false,
							"schema":      map[string]string{"type": "integer"},
						},
						{
							"name":        "hours",
							"in":          "query",
							"description": "Exposure window in hours (defaults to the pollutant's standard window)",
							"required":    false,
							"schema":      map[string]string{"type": "integer"},
						},
					}, paginationParams...),
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"statistics":     statisticsSchema,
											"classification": classificationSchema,
										},
									},
								},
							},
						},
						"404": map[string]interface{}{
							"description": "No statistics for the requested station, pollutant and year",
						},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API is running",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "API is healthy",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"status": map[string]string{"type": "string"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
