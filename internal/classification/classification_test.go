package classification

import (
	"math"
	"reflect"
	"strings"
	"testing"
)

func ptr(v float64) *float64 {
	return &v
}

// TestClassify_ConcreteScenarios covers representative measurements for each
// pollutant and tier.
func TestClassify_ConcreteScenarios(t *testing.T) {
	tests := []struct {
		name          string
		pollutant     string
		value         *float64
		exposureHours int
		wantTier      Tier
		wantColor     string
	}{
		{
			name:          "PM2.5 24h below good limit",
			pollutant:     "PM2.5",
			value:         ptr(12),
			exposureHours: 24,
			wantTier:      TierGood,
			wantColor:     "#00E400",
		},
		{
			name:          "PM2.5 24h between limits",
			pollutant:     "PM2.5",
			value:         ptr(20),
			exposureHours: 24,
			wantTier:      TierModerate,
			wantColor:     "#FFFF00",
		},
		{
			name:          "PM2.5 24h above moderate limit",
			pollutant:     "PM2.5",
			value:         ptr(30),
			exposureHours: 24,
			wantTier:      TierPoor,
			wantColor:     "#FF0000",
		},
		{
			name:          "CO 8h at moderate limit stays moderate",
			pollutant:     "CO",
			value:         ptr(10000),
			exposureHours: 8,
			wantTier:      TierModerate,
			wantColor:     "#FFFF00",
		},
		{
			name:          "NO2 1h far above limits",
			pollutant:     "NO2",
			value:         ptr(400),
			exposureHours: 1,
			wantTier:      TierPoor,
			wantColor:     "#FF0000",
		},
		{
			name:          "SO2 24h with missing value",
			pollutant:     "SO2",
			value:         nil,
			exposureHours: 24,
			wantTier:      TierUnavailable,
			wantColor:     "#9E9E9E",
		},
		{
			name:          "O3 8h clean air",
			pollutant:     "O3",
			value:         ptr(45),
			exposureHours: 8,
			wantTier:      TierGood,
			wantColor:     "#00E400",
		},
		{
			name:          "NO 1h elevated",
			pollutant:     "NO",
			value:         ptr(150),
			exposureHours: 1,
			wantTier:      TierModerate,
			wantColor:     "#FFFF00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify(tt.pollutant, tt.value, tt.exposureHours)

			if result.Tier != tt.wantTier {
				t.Errorf("Tier = %v, want %v", result.Tier, tt.wantTier)
			}
			if result.Color != tt.wantColor {
				t.Errorf("Color = %v, want %v", result.Color, tt.wantColor)
			}
			if result.Description == "" {
				t.Error("Description should never be empty")
			}
		})
	}
}

// TestClassify_InclusiveBoundaries walks every configured pollutant/window
// pair and checks the tier on and just beyond both limits.
func TestClassify_InclusiveBoundaries(t *testing.T) {
	const epsilon = 0.0001

	for pollutant, windows := range thresholds {
		for hours, lim := range windows {
			result := Classify(pollutant, ptr(lim.good), hours)
			if result.Tier != TierGood {
				t.Errorf("%s %dh: value at good limit = %v, want good", pollutant, hours, result.Tier)
			}

			result = Classify(pollutant, ptr(lim.good+epsilon), hours)
			if result.Tier != TierModerate {
				t.Errorf("%s %dh: value just above good limit = %v, want moderate", pollutant, hours, result.Tier)
			}

			result = Classify(pollutant, ptr(lim.moderate), hours)
			if result.Tier != TierModerate {
				t.Errorf("%s %dh: value at moderate limit = %v, want moderate", pollutant, hours, result.Tier)
			}

			result = Classify(pollutant, ptr(lim.moderate+epsilon), hours)
			if result.Tier != TierPoor {
				t.Errorf("%s %dh: value just above moderate limit = %v, want poor", pollutant, hours, result.Tier)
			}
		}
	}
}

// TestClassify_ThresholdEcho verifies classified results carry the limits
// they were evaluated against and unavailable results carry none.
func TestClassify_ThresholdEcho(t *testing.T) {
	result := Classify("PM10", ptr(40), 24)
	if result.Thresholds == nil {
		t.Fatal("Thresholds should be echoed for classified results")
	}
	if result.Thresholds.GoodLimit != 45 || result.Thresholds.ModerateLimit != 75 {
		t.Errorf("Thresholds = %+v, want good=45 moderate=75", result.Thresholds)
	}
	if result.Thresholds.ExposureHours != 24 {
		t.Errorf("ExposureHours = %d, want 24", result.Thresholds.ExposureHours)
	}
	if result.Thresholds.Source != "WHO 2021" {
		t.Errorf("Source = %q, want WHO 2021", result.Thresholds.Source)
	}

	result = Classify("PM10", nil, 24)
	if result.Thresholds != nil {
		t.Error("Thresholds should be absent for unavailable results")
	}
}

// TestClassify_UnavailableReasons checks the three degenerate cases produce
// distinct descriptions so callers can tell bad data from unsupported input.
func TestClassify_UnavailableReasons(t *testing.T) {
	missing := Classify("PM2.5", nil, 24)
	nan := Classify("PM2.5", ptr(math.NaN()), 24)
	unknown := Classify("Xx-unknown", ptr(10), 24)
	badWindow := Classify("O3", ptr(50), 5)

	for name, result := range map[string]Result{
		"missing value":      missing,
		"NaN value":          nan,
		"unknown pollutant":  unknown,
		"unsupported window": badWindow,
	} {
		if result.Tier != TierUnavailable {
			t.Errorf("%s: Tier = %v, want unavailable", name, result.Tier)
		}
		if result.Color != "#9E9E9E" {
			t.Errorf("%s: Color = %v, want #9E9E9E", name, result.Color)
		}
		if result.Thresholds != nil {
			t.Errorf("%s: Thresholds should be nil", name)
		}
	}

	if missing.Description != nan.Description {
		t.Error("nil and NaN values should share the missing-data description")
	}
	if !strings.Contains(unknown.Description, "Xx-unknown") {
		t.Errorf("unknown pollutant description should name the pollutant, got %q", unknown.Description)
	}
	if unknown.Description == missing.Description {
		t.Error("unknown pollutant and missing value must have distinct descriptions")
	}
	if !strings.Contains(badWindow.Description, "O3") || !strings.Contains(badWindow.Description, "5h") {
		t.Errorf("unsupported window description should name pollutant and window, got %q", badWindow.Description)
	}
	if badWindow.Description == unknown.Description {
		t.Error("unsupported window and unknown pollutant must have distinct descriptions")
	}
}

// TestClassify_IdentifierNormalization verifies common spelling variants
// resolve to the same thresholds.
func TestClassify_IdentifierNormalization(t *testing.T) {
	variants := []string{"PM2.5", "pm2.5", "PM25", "pm25", "PM2_5", " pm2.5 "}

	want := Classify("pm25", ptr(20), 24)
	for _, variant := range variants {
		got := Classify(variant, ptr(20), 24)
		if got.Tier != want.Tier {
			t.Errorf("Classify(%q) tier = %v, want %v", variant, got.Tier, want.Tier)
		}
	}
}

// TestClassify_Deterministic verifies repeated calls with identical input
// yield identical output.
func TestClassify_Deterministic(t *testing.T) {
	first := Classify("NO2", ptr(30), 24)
	for i := 0; i < 10; i++ {
		if got := Classify("NO2", ptr(30), 24); !reflect.DeepEqual(got, first) {
			t.Fatalf("call %d: result drifted: %+v != %+v", i, got, first)
		}
	}
}

func TestDefaultWindow(t *testing.T) {
	tests := []struct {
		pollutant string
		wantHours int
		wantOK    bool
	}{
		{"O3", 8, true},
		{"CO", 8, true},
		{"NO", 1, true},
		{"PM2.5", 24, true},
		{"PM10", 24, true},
		{"SO2", 24, true},
		{"NO2", 24, true},
		{"Xx-unknown", 0, false},
	}

	for _, tt := range tests {
		hours, ok := DefaultWindow(tt.pollutant)
		if hours != tt.wantHours || ok != tt.wantOK {
			t.Errorf("DefaultWindow(%q) = (%d, %v), want (%d, %v)", tt.pollutant, hours, ok, tt.wantHours, tt.wantOK)
		}
	}

	// Every default window must itself be a configured window.
	for pollutant := range thresholds {
		hours, ok := DefaultWindow(pollutant)
		if !ok {
			t.Errorf("DefaultWindow(%q) missing", pollutant)
			continue
		}
		if _, ok := thresholds[pollutant][hours]; !ok {
			t.Errorf("default window %dh for %q has no thresholds", hours, pollutant)
		}
	}
}

func TestWindows(t *testing.T) {
	if got := Windows("SO2"); !reflect.DeepEqual(got, []int{1, 3, 24}) {
		t.Errorf("Windows(SO2) = %v, want [1 3 24]", got)
	}
	if got := Windows("no"); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("Windows(no) = %v, want [1]", got)
	}
	if got := Windows("Xx-unknown"); len(got) != 0 {
		t.Errorf("Windows for unknown pollutant = %v, want empty", got)
	}
}
