package models

import (
	"time"
)

// Station represents an air-quality monitoring station. Latitude/longitude
// drive the map markers; municipality drives the drill-down chain.
type Station struct {
	StationID    string    `json:"station_id" db:"station_id"`
	Name         string    `json:"name" db:"name"`
	Municipality string    `json:"municipality" db:"municipality"`
	Latitude     float64   `json:"latitude" db:"latitude"`
	Longitude    float64   `json:"longitude" db:"longitude"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Measurement represents a single pollutant reading at a station.
// Missing readings are represented as NULL via pointer.
type Measurement struct {
	ID                int64     `json:"id" db:"id"`
	StationID         string    `json:"station_id" db:"station_id"`
	Pollutant         string    `json:"pollutant" db:"pollutant"`
	MeasuredAt        time.Time `json:"measured_at" db:"measured_at"`
	ConcentrationUgm3 *float64  `json:"concentration_ugm3,omitempty" db:"concentration_ugm3"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// PollutantStatistics represents pre-calculated yearly statistics for one
// station/pollutant pair. Classification consumes the average concentration.
type PollutantStatistics struct {
	ID                    int64     `json:"id" db:"id"`
	StationID             string    `json:"station_id" db:"station_id"`
	Pollutant             string    `json:"pollutant" db:"pollutant"`
	Year                  int       `json:"year" db:"year"`
	AvgConcentrationUgm3  *float64  `json:"avg_concentration_ugm3,omitempty" db:"avg_concentration_ugm3"`
	MaxConcentrationUgm3  *float64  `json:"max_concentration_ugm3,omitempty" db:"max_concentration_ugm3"`
	MinConcentrationUgm3  *float64  `json:"min_concentration_ugm3,omitempty" db:"min_concentration_ugm3"`
	MeasurementCount      int       `json:"measurement_count" db:"measurement_count"`
	ValidMeasurementCount int       `json:"valid_measurement_count" db:"valid_measurement_count"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time `json:"updated_at" db:"updated_at"`
}

// RawMeasurementRecord represents a single line from a station data file.
// Concentrations arrive in tenths of µg/m³ with -9999 marking a missing
// reading.
type RawMeasurementRecord struct {
	Timestamp           string // YYYYMMDDHH
	Pollutant           string
	ConcentrationTenths int
}

// ToMeasurement converts a RawMeasurementRecord to a Measurement, handling
// the -9999 sentinel and the tenths-of-µg/m³ unit conversion.
func (r *RawMeasurementRecord) ToMeasurement(stationID string) (*Measurement, error) {
	measuredAt, err := time.Parse("2006010215", r.Timestamp)
	if err != nil {
		return nil, &ValidationError{
			Field:   "timestamp",
			Value:   r.Timestamp,
			Message: "invalid timestamp format, expected YYYYMMDDHH",
		}
	}

	if r.Pollutant == "" {
		return nil, &ValidationError{
			Field:   "pollutant",
			Value:   r.Pollutant,
			Message: "pollutant identifier must not be empty",
		}
	}

	m := &Measurement{
		StationID:  stationID,
		Pollutant:  r.Pollutant,
		MeasuredAt: measuredAt,
		CreatedAt:  time.Now().UTC(),
	}

	// Convert tenths of µg/m³ to µg/m³, keep -9999 as NULL
	if r.ConcentrationTenths != -9999 {
		concentration := float64(r.ConcentrationTenths) / 10.0
		m.ConcentrationUgm3 = &concentration
	}

	return m, nil
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
