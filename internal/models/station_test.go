package models

import (
	"testing"
	"time"
)

// TestRawMeasurementRecord_ToMeasurement tests the conversion logic,
// including the -9999 missing-reading sentinel and unit conversion.
func TestRawMeasurementRecord_ToMeasurement(t *testing.T) {
	tests := []struct {
		name        string
		record      RawMeasurementRecord
		stationID   string
		wantErr     bool
		checkValues func(*testing.T, *Measurement)
	}{
		{
			name: "valid record",
			record: RawMeasurementRecord{
				Timestamp:           "2023011514",
				Pollutant:           "pm25",
				ConcentrationTenths: 185,
			},
			stationID: "ST0001",
			wantErr:   false,
			checkValues: func(t *testing.T, m *Measurement) {
				if m.StationID != "ST0001" {
					t.Errorf("StationID = %v, want %v", m.StationID, "ST0001")
				}

				expectedTime := time.Date(2023, 1, 15, 14, 0, 0, 0, time.UTC)
				if !m.MeasuredAt.Equal(expectedTime) {
					t.Errorf("MeasuredAt = %v, want %v", m.MeasuredAt, expectedTime)
				}

				if m.Pollutant != "pm25" {
					t.Errorf("Pollutant = %v, want %v", m.Pollutant, "pm25")
				}

				if m.ConcentrationUgm3 == nil {
					t.Error("ConcentrationUgm3 should not be nil")
				} else if *m.ConcentrationUgm3 != 18.5 {
					t.Errorf("ConcentrationUgm3 = %v, want %v", *m.ConcentrationUgm3, 18.5)
				}
			},
		},
		{
			name: "missing reading (-9999)",
			record: RawMeasurementRecord{
				Timestamp:           "2023011514",
				Pollutant:           "no2",
				ConcentrationTenths: -9999,
			},
			stationID: "ST0001",
			wantErr:   false,
			checkValues: func(t *testing.T, m *Measurement) {
				if m.ConcentrationUgm3 != nil {
					t.Error("ConcentrationUgm3 should be nil for -9999")
				}
			},
		},
		{
			name: "zero concentration is a valid reading",
			record: RawMeasurementRecord{
				Timestamp:           "2023011514",
				Pollutant:           "so2",
				ConcentrationTenths: 0,
			},
			stationID: "ST0001",
			wantErr:   false,
			checkValues: func(t *testing.T, m *Measurement) {
				if m.ConcentrationUgm3 == nil {
					t.Error("ConcentrationUgm3 should not be nil")
				} else if *m.ConcentrationUgm3 != 0.0 {
					t.Errorf("ConcentrationUgm3 = %v, want %v", *m.ConcentrationUgm3, 0.0)
				}
			},
		},
		{
			name: "precision test - decimal conversion",
			record: RawMeasurementRecord{
				Timestamp:           "2023011514",
				Pollutant:           "o3",
				ConcentrationTenths: 123,
			},
			stationID: "ST0001",
			wantErr:   false,
			checkValues: func(t *testing.T, m *Measurement) {
				if m.ConcentrationUgm3 == nil {
					t.Error("ConcentrationUgm3 should not be nil")
				} else if *m.ConcentrationUgm3 != 12.3 {
					t.Errorf("ConcentrationUgm3 = %v, want %v", *m.ConcentrationUgm3, 12.3)
				}
			},
		},
		{
			name: "invalid timestamp format",
			record: RawMeasurementRecord{
				Timestamp:           "2023-01-15T14",
				Pollutant:           "pm10",
				ConcentrationTenths: 100,
			},
			stationID: "ST0001",
			wantErr:   true,
		},
		{
			name: "empty pollutant",
			record: RawMeasurementRecord{
				Timestamp:           "2023011514",
				Pollutant:           "",
				ConcentrationTenths: 100,
			},
			stationID: "ST0001",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tt.record.ToMeasurement(tt.stationID)

			if (err != nil) != tt.wantErr {
				t.Errorf("ToMeasurement() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr && tt.checkValues != nil {
				tt.checkValues(t, m)
			}
		})
	}
}

// TestValidationError tests error handling
func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:   "timestamp",
		Value:   "invalid",
		Message: "invalid timestamp format",
	}

	if err.Error() != "invalid timestamp format" {
		t.Errorf("Error() = %v, want %v", err.Error(), "invalid timestamp format")
	}

	if err.IsTransient() {
		t.Error("ValidationError should not be transient")
	}
}
