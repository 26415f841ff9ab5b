package aqi

import "math"

// Piecewise-linear membership shapes, evaluated directly; there is no
// inference engine behind them.

// trimf is a triangular membership function with feet a and c and peak b.
// Degenerate edges (a == b or b == c) evaluate to 0 at the shared point.
func trimf(x, a, b, c float64) float64 {
	if x <= a || x >= c {
		return 0
	}
	if x < b {
		if b == a {
			return 0
		}
		return (x - a) / (b - a)
	}
	if c == b {
		return 0
	}
	return (c - x) / (c - b)
}

// trapmf is a trapezoidal membership function with feet a and d and plateau
// [b, c].
func trapmf(x, a, b, c, d float64) float64 {
	if x <= a || x >= d {
		return 0
	}
	if x < b {
		if b == a {
			return 0
		}
		return (x - a) / (b - a)
	}
	if x <= c {
		return 1
	}
	if d == c {
		return 0
	}
	return (d - x) / (d - c)
}

// fallRamp is 1 up to a, descending to 0 at b.
func fallRamp(x, a, b float64) float64 {
	if x <= a {
		return 1
	}
	if x >= b {
		return 0
	}
	return (b - x) / (b - a)
}

// riseRamp is 0 up to a, ascending to 1 at b.
func riseRamp(x, a, b float64) float64 {
	if x <= a {
		return 0
	}
	if x >= b {
		return 1
	}
	return (x - a) / (b - a)
}

// COMembership grades a CO ground-truth value (ppm, clamped to the 0-20
// universe) against the five CO linguistic terms.
func COMembership(co float64) Membership {
	x := clamp(co, 0, 20)
	return Membership{
		"Very_Low":  trimf(x, 0, 0, 2),
		"Low":       trimf(x, 1, 2.5, 4),
		"Moderate":  trimf(x, 3, 5, 7),
		"High":      trimf(x, 6, 9, 12),
		"Very_High": trapmf(x, 10, 15, 20, 20),
	}
}

// NO2Membership grades a NO2 ground-truth value (clamped to the 0-400
// universe) against the five NO2 linguistic terms.
func NO2Membership(no2 float64) Membership {
	x := clamp(no2, 0, 400)
	return Membership{
		"Excellent": fallRamp(x, 0, 50),
		"Good":      trimf(x, 50, 100, 150),
		"Fair":      trimf(x, 125, 200, 275),
		"Poor":      trimf(x, 225, 300, 375),
		"Hazardous": riseRamp(x, 350, 400),
	}
}

// O3Membership grades an O3 sensor value (clamped to the 0-3000 universe)
// against the four O3 linguistic terms.
func O3Membership(o3 float64) Membership {
	x := clamp(o3, 0, 3000)
	good := 0.0
	if x <= 1000 {
		good = math.Max(0, 1-x/1000)
	}
	return Membership{
		"Good":           good,
		"Moderate":       trimf(x, 1000, 1500, 2000),
		"Unhealthy":      trimf(x, 1750, 2250, 2750),
		"Very_Unhealthy": riseRamp(x, 2500, 3000),
	}
}

// temperatureHot and humidityHumid are the comfort terms consulted by the
// enhanced path; pollution reads worse in hot, humid air.
func temperatureHot(t float64) float64 { return riseRamp(clamp(t, -10, 50), 30, 45) }
func humidityHumid(h float64) float64  { return riseRamp(clamp(h, 0, 100), 70, 100) }

// Term severity weights on the 0-100 scale, per pollutant. The mapping is
// total over each pollutant's term set; a missing term would be a programming
// error, so fuzzyAQI falls back to a neutral 50 only when nothing fires.
var (
	coTermWeights = map[string]float64{
		"Very_Low": 10, "Low": 30, "Moderate": 50, "High": 75, "Very_High": 100,
	}
	no2TermWeights = map[string]float64{
		"Excellent": 10, "Good": 30, "Fair": 55, "Poor": 80, "Hazardous": 100,
	}
	o3TermWeights = map[string]float64{
		"Good": 10, "Moderate": 50, "Unhealthy": 85, "Very_Unhealthy": 100,
	}
)

// fuzzyAQI is the membership-weighted mean severity across all firing terms,
// clamped to [0,100]. With no firing terms the result is a neutral 50.
func fuzzyAQI(co, no2, o3 Membership) float64 {
	var weighted, total float64
	accumulate := func(m Membership, weights map[string]float64) {
		for term, degree := range m {
			if degree <= 0 {
				continue
			}
			weighted += degree * weights[term]
			total += degree
		}
	}
	accumulate(co, coTermWeights)
	accumulate(no2, no2TermWeights)
	accumulate(o3, o3TermWeights)

	if total == 0 {
		return 50
	}
	return clamp(weighted/total, 0, 100)
}

// ScoreBasic runs the basic assessment: graded fuzzy score and crisp score,
// both on the 0-100 scale, with the membership degrees that produced the
// fuzzy score. The category follows the fuzzy score.
func ScoreBasic(r Reading, s Settings) (BasicResult, error) {
	if err := r.Validate(); err != nil {
		return BasicResult{}, err
	}

	co := COMembership(r.COGT)
	no2 := NO2Membership(r.NO2GT)
	o3 := O3Membership(r.O3Sensor)

	fuzzy := fuzzyAQI(co, no2, o3)
	crisp, err := ScoreCrisp(r, s)
	if err != nil {
		return BasicResult{}, err
	}

	return BasicResult{
		FuzzyAQI: fuzzy,
		CrispAQI: crisp.Score,
		Category: CrispCategoryFor(fuzzy),
		Membership: map[string]Membership{
			"co":  co,
			"no2": no2,
			"o3":  o3,
		},
	}, nil
}

// EPA-style normalization spans: each pollutant's typical full range maps
// onto the 0-500 sub-index scale.
const (
	coSpan  = 20.0  // ppm
	no2Span = 400.0 // ppb
	o3Span  = 3000.0
	epaMax  = 500.0
)

func subIndex(v, span float64) float64 {
	return clamp(v/span*epaMax, 0, epaMax)
}

// EPAAQI is the maximum of the per-pollutant sub-indices, per EPA convention
// that the worst pollutant governs the reported index.
func EPAAQI(r Reading) float64 {
	return math.Max(subIndex(r.COGT, coSpan),
		math.Max(subIndex(r.NO2GT, no2Span), subIndex(r.O3Sensor, o3Span)))
}

// GroundTruthAQI is the reference index used by the method comparison: a
// fixed 0.4/0.3/0.3 blend of the normalized sub-indices.
func GroundTruthAQI(r Reading) float64 {
	gt := 0.4*subIndex(r.COGT, coSpan) +
		0.3*subIndex(r.NO2GT, no2Span) +
		0.3*subIndex(r.O3Sensor, o3Span)
	return clamp(gt, 0, epaMax)
}

// ScoreEnhanced runs the enhanced assessment on the 0-500 scale. The base
// score is the EPA sub-index maximum, amplified by up to 10% when the air is
// both hot and humid. Confidence is the mean degree of the firing membership
// terms; with nothing firing it defaults to 0.8. RuleCount reports how many
// terms fired.
func ScoreEnhanced(r Reading) (EnhancedResult, error) {
	if err := r.Validate(); err != nil {
		return EnhancedResult{}, err
	}

	co := COMembership(r.COGT)
	no2 := NO2Membership(r.NO2GT)
	o3 := O3Membership(r.O3Sensor)
	hot := temperatureHot(r.Temperature)
	humid := humidityHumid(r.Humidity)

	base := EPAAQI(r)
	amplifier := 1 + 0.1*math.Min(hot, humid)
	score := clamp(base*amplifier, 0, epaMax)

	var sum float64
	var fired int
	for _, m := range []Membership{co, no2, o3} {
		for _, degree := range m {
			if degree > 0 {
				sum += degree
				fired++
			}
		}
	}
	confidence := 0.8
	if fired > 0 {
		confidence = clamp(sum/float64(fired), 0, 1)
	}

	return EnhancedResult{
		Score:      score,
		EPAAQI:     base,
		Category:   EnhancedCategoryFor(score),
		Confidence: confidence,
		RuleCount:  fired,
		Membership: map[string]Membership{
			"co":          co,
			"no2":         no2,
			"o3":          o3,
			"temperature": {"Hot": hot},
			"humidity":    {"Humid": humid},
		},
	}, nil
}
