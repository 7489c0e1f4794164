// Package classification assigns WHO 2021 air-quality tiers to pollutant
// concentrations. Classification is a pure lookup against a static threshold
// table; every input, including malformed or unknown values, maps to a
// well-formed Result rather than an error, so a bad upstream row can never
// break the display pipeline.
package classification

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Tier is the quality level assigned to a measurement.
type Tier string

const (
	TierGood        Tier = "good"
	TierModerate    Tier = "moderate"
	TierPoor        Tier = "poor"
	TierUnavailable Tier = "unavailable"
)

// SourceLabel identifies the guideline revision behind the threshold table.
const SourceLabel = "WHO 2021"

const (
	colorGood        = "#00E400"
	colorModerate    = "#FFFF00"
	colorPoor        = "#FF0000"
	colorUnavailable = "#9E9E9E"
)

const (
	descriptionGood     = "Air quality meets WHO standards and poses no health risk."
	descriptionModerate = "Air quality exceeds WHO recommendations. May affect sensitive groups (children, elderly, respiratory conditions)."
	descriptionPoor     = "Air quality significantly exceeds safe WHO limits and may affect the health of the general population."
	descriptionNoData   = "No measurement data is available for classification."
)

// ThresholdReference echoes the limits a classification was evaluated
// against, so callers can render them without recomputation.
type ThresholdReference struct {
	GoodLimit     float64 `json:"good_limit"`
	ModerateLimit float64 `json:"moderate_limit"`
	ExposureHours int     `json:"exposure_hours"`
	Source        string  `json:"source"`
}

// Result is the outcome of classifying a single concentration. Thresholds is
// nil when the tier is Unavailable.
type Result struct {
	Tier        Tier                `json:"tier"`
	Color       string              `json:"color"`
	Description string              `json:"description"`
	Thresholds  *ThresholdReference `json:"thresholds,omitempty"`
}

// limits are inclusive upper bounds in µg/m³ for the Good and Moderate tiers.
type limits struct {
	good     float64
	moderate float64
}

// thresholds holds the WHO 2021 guideline values keyed by normalized
// pollutant identifier, then by exposure window in hours. Window lookup is
// exact-match only; there is no nearest-window fallback. The table is
// process-wide static reference data and is never mutated after init.
var thresholds = map[string]map[int]limits{
	"o3":   {1: {100, 160}, 8: {60, 100}},
	"pm10": {1: {50, 100}, 24: {45, 75}},
	"pm25": {1: {15, 25}, 24: {15, 25}},
	"so2":  {1: {100, 196}, 3: {100, 250}, 24: {40, 125}},
	"no2":  {1: {200, 360}, 24: {25, 50}},
	"co":   {1: {4000, 10000}, 8: {7000, 10000}},
	"no":   {1: {100, 200}},
}

// defaultWindows maps each pollutant to its standard reporting window, used
// when a caller does not request a specific exposure window.
var defaultWindows = map[string]int{
	"o3":   8,
	"pm10": 24,
	"pm25": 24,
	"so2":  24,
	"no2":  24,
	"co":   8,
	"no":   1,
}

var identReplacer = strings.NewReplacer(".", "", "-", "", "_", "", " ", "")

// normalize folds pollutant identifier variants ("PM2.5", "pm25", "PM2_5")
// onto a single table key.
func normalize(pollutant string) string {
	return identReplacer.Replace(strings.ToLower(strings.TrimSpace(pollutant)))
}

// Classify maps a measured concentration to a quality tier using the WHO
// 2021 threshold table. Boundaries are inclusive: value <= goodLimit is
// Good, value <= moderateLimit is Moderate, anything above is Poor.
//
// Classify is total: a nil or NaN value, an unknown pollutant, or an
// unconfigured exposure window each yield TierUnavailable with a distinct
// description, never an error.
func Classify(pollutant string, value *float64, exposureHours int) Result {
	if value == nil || math.IsNaN(*value) {
		return Result{
			Tier:        TierUnavailable,
			Color:       colorUnavailable,
			Description: descriptionNoData,
		}
	}

	windows, ok := thresholds[normalize(pollutant)]
	if !ok {
		return Result{
			Tier:        TierUnavailable,
			Color:       colorUnavailable,
			Description: fmt.Sprintf("No WHO 2021 thresholds are defined for pollutant %q.", pollutant),
		}
	}

	lim, ok := windows[exposureHours]
	if !ok {
		return Result{
			Tier:        TierUnavailable,
			Color:       colorUnavailable,
			Description: fmt.Sprintf("Pollutant %q has no WHO 2021 thresholds for a %dh exposure window.", pollutant, exposureHours),
		}
	}

	ref := &ThresholdReference{
		GoodLimit:     lim.good,
		ModerateLimit: lim.moderate,
		ExposureHours: exposureHours,
		Source:        SourceLabel,
	}

	switch {
	case *value <= lim.good:
		return Result{Tier: TierGood, Color: colorGood, Description: descriptionGood, Thresholds: ref}
	case *value <= lim.moderate:
		return Result{Tier: TierModerate, Color: colorModerate, Description: descriptionModerate, Thresholds: ref}
	default:
		return Result{Tier: TierPoor, Color: colorPoor, Description: descriptionPoor, Thresholds: ref}
	}
}

// DefaultWindow returns the standard reporting window for a pollutant. The
// second return is false when the pollutant has no thresholds at all.
func DefaultWindow(pollutant string) (int, bool) {
	hours, ok := defaultWindows[normalize(pollutant)]
	return hours, ok
}

// Windows returns the exposure windows configured for a pollutant, in
// ascending order. Empty for unknown pollutants.
func Windows(pollutant string) []int {
	windows := thresholds[normalize(pollutant)]
	hours := make([]int, 0, len(windows))
	for h := range windows {
		hours = append(hours, h)
	}
	sort.Ints(hours)
	return hours
}
