// Package aqi holds the air-quality scoring core: crisp threshold scoring,
// graded-membership fuzzy scoring, and the EPA-style enhanced index. Every
// function here is a pure computation over its inputs; transport, caching and
// persistence live elsewhere.
package aqi

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidInput marks a reading with non-finite values. Surfaced to
	// the caller, never retried.
	ErrInvalidInput = errors.New("invalid sensor reading")
	// ErrUnknownParameter marks a membership-table lookup for a parameter
	// outside the supported enumeration.
	ErrUnknownParameter = errors.New("unknown parameter")
)

// Reading is a complete set of sensor values for one assessment. Field names
// follow the UCI air-quality dataset columns. Values are caller-supplied and
// may fall outside typical ranges; scoring must not assume bounded input.
type Reading struct {
	COGT        float64 `json:"co_gt"`       // CO ground truth, ppm
	COSensor    float64 `json:"co_sensor"`   // PT08.S1 tin-oxide response
	NMHCGT      float64 `json:"nmhc_gt"`     // non-methane hydrocarbons, µg/m³
	BenzeneGT   float64 `json:"benzene_gt"`  // C6H6, µg/m³
	NMHCSensor  float64 `json:"nmhc_sensor"` // PT08.S2
	NOxGT       float64 `json:"nox_gt"`      // ppb
	NOxSensor   float64 `json:"nox_sensor"`  // PT08.S3
	NO2GT       float64 `json:"no2_gt"`      // µg/m³
	NO2Sensor   float64 `json:"no2_sensor"`  // PT08.S4
	O3Sensor    float64 `json:"o3_sensor"`   // PT08.S5, ppb
	Temperature float64 `json:"temperature"` // °C
	Humidity    float64 `json:"humidity"`    // relative, %
	AbsHumidity float64 `json:"abs_humidity"`
}

// Validate rejects readings containing NaN or infinite values. Out-of-range
// but finite values are allowed; the scorers clamp where needed.
func (r Reading) Validate() error {
	fields := map[string]float64{
		"co_gt": r.COGT, "co_sensor": r.COSensor, "nmhc_gt": r.NMHCGT,
		"benzene_gt": r.BenzeneGT, "nmhc_sensor": r.NMHCSensor,
		"nox_gt": r.NOxGT, "nox_sensor": r.NOxSensor, "no2_gt": r.NO2GT,
		"no2_sensor": r.NO2Sensor, "o3_sensor": r.O3Sensor,
		"temperature": r.Temperature, "humidity": r.Humidity,
		"abs_humidity": r.AbsHumidity,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("field %s is not a finite number: %w", name, ErrInvalidInput)
		}
	}
	return nil
}

// Band pairs an upper threshold with the weight selected when a pollutant
// value falls strictly below it. Bands are ordered by ascending threshold.
type Band struct {
	Threshold float64 `json:"threshold"`
	Weight    float64 `json:"weight"`
}

// Settings is the crisp threshold/weight table, per pollutant. Settings are
// immutable for the duration of one scoring call.
type Settings struct {
	CO  []Band `json:"co"`
	NO2 []Band `json:"no2"`
	O3  []Band `json:"o3"`
}

// DefaultSettings returns the built-in threshold/weight table. Weights are
// tuned so the accumulator sums to at most 100 (40+35+25).
func DefaultSettings() Settings {
	return Settings{
		CO: []Band{
			{Threshold: 1, Weight: 40},
			{Threshold: 3, Weight: 30},
			{Threshold: 5, Weight: 20},
			{Threshold: 7, Weight: 10},
		},
		NO2: []Band{
			{Threshold: 50, Weight: 35},
			{Threshold: 100, Weight: 25},
			{Threshold: 150, Weight: 15},
			{Threshold: 200, Weight: 5},
		},
		O3: []Band{
			{Threshold: 50, Weight: 25},
			{Threshold: 100, Weight: 15},
			{Threshold: 150, Weight: 5},
		},
	}
}

// Validate checks that each pollutant has at least one band and that
// thresholds are strictly ascending. Settings failing validation are treated
// as corrupt and replaced by defaults at the persistence layer.
func (s Settings) Validate() error {
	for name, bands := range map[string][]Band{"co": s.CO, "no2": s.NO2, "o3": s.O3} {
		if len(bands) == 0 {
			return fmt.Errorf("pollutant %s has no bands", name)
		}
		for i := 1; i < len(bands); i++ {
			if bands[i].Threshold <= bands[i-1].Threshold {
				return fmt.Errorf("pollutant %s thresholds not ascending at index %d", name, i)
			}
		}
	}
	return nil
}

// CrispCategory is the five-value label scale attached to 0-100 scores.
type CrispCategory string

const (
	CategoryExcellent CrispCategory = "Excellent"
	CategoryGood      CrispCategory = "Good"
	CategoryFair      CrispCategory = "Fair"
	CategoryPoor      CrispCategory = "Poor"
	CategoryVeryPoor  CrispCategory = "Very Poor"
)

// CrispCategoryFor maps a 0-100 score to its label. Boundaries are inclusive
// on the upper end of each band, so exactly 25.0 is still Excellent.
func CrispCategoryFor(score float64) CrispCategory {
	switch {
	case score <= 25:
		return CategoryExcellent
	case score <= 50:
		return CategoryGood
	case score <= 75:
		return CategoryFair
	case score <= 90:
		return CategoryPoor
	default:
		return CategoryVeryPoor
	}
}

// EnhancedCategory is the six-value EPA label scale attached to 0-500 scores.
// It is distinct from CrispCategory and the two are never interchanged.
type EnhancedCategory string

const (
	EnhancedGood               EnhancedCategory = "Good"
	EnhancedModerate           EnhancedCategory = "Moderate"
	EnhancedUnhealthySensitive EnhancedCategory = "Unhealthy_Sensitive"
	EnhancedUnhealthy          EnhancedCategory = "Unhealthy"
	EnhancedVeryUnhealthy      EnhancedCategory = "Very_Unhealthy"
	EnhancedHazardous          EnhancedCategory = "Hazardous"
)

// EnhancedCategoryFor maps a 0-500 score to its EPA-style label.
func EnhancedCategoryFor(score float64) EnhancedCategory {
	switch {
	case score <= 50:
		return EnhancedGood
	case score <= 100:
		return EnhancedModerate
	case score <= 150:
		return EnhancedUnhealthySensitive
	case score <= 200:
		return EnhancedUnhealthy
	case score <= 300:
		return EnhancedVeryUnhealthy
	default:
		return EnhancedHazardous
	}
}

// Membership maps a linguistic term to its degree of membership in [0,1].
type Membership map[string]float64

// CrispResult is the outcome of the threshold-based scoring path.
type CrispResult struct {
	Score    float64       `json:"score"`
	Category CrispCategory `json:"category"`
}

// BasicResult is the outcome of the basic assessment: a graded fuzzy score
// alongside the crisp score, both on the 0-100 scale, plus the per-pollutant
// membership degrees used to build the fuzzy score.
type BasicResult struct {
	FuzzyAQI   float64               `json:"fuzzy_aqi"`
	CrispAQI   float64               `json:"crisp_aqi"`
	Category   CrispCategory         `json:"category"`
	Membership map[string]Membership `json:"membership"`
}

// EnhancedResult is the outcome of the enhanced assessment on the 0-500 EPA
// scale. Confidence reflects how strongly the membership terms fired.
type EnhancedResult struct {
	Score      float64               `json:"fuzzy_aqi"`
	EPAAQI     float64               `json:"epa_aqi"`
	Category   EnhancedCategory      `json:"category"`
	Confidence float64               `json:"confidence"`
	RuleCount  int                   `json:"rule_count"`
	Membership map[string]Membership `json:"membership"`
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
