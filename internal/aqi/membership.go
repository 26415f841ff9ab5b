package aqi

import (
	"fmt"
	"math"
)

// Parameter identifies one chartable input (or the AQI output) in the
// membership-function catalog. The set is closed: lookups outside it return
// ErrUnknownParameter instead of guessing.
type Parameter string

const (
	ParamCOGT        Parameter = "CO_GT"
	ParamCOSensor    Parameter = "CO_Sensor"
	ParamNMHCGT      Parameter = "NMHC_GT"
	ParamBenzene     Parameter = "Benzene"
	ParamNMHCSensor  Parameter = "NMHC_Sensor"
	ParamNOxGT       Parameter = "NOx_GT"
	ParamNOxSensor   Parameter = "NOx_Sensor"
	ParamNO2GT       Parameter = "NO2_GT"
	ParamNO2Sensor   Parameter = "NO2_Sensor"
	ParamO3Sensor    Parameter = "O3_Sensor"
	ParamTemperature Parameter = "Temperature"
	ParamHumidity    Parameter = "Humidity"
	ParamAbsHumidity Parameter = "Abs_Humidity"
	ParamAQI         Parameter = "AQI"
)

// Parameters lists the catalog in a stable display order.
func Parameters() []Parameter {
	return []Parameter{
		ParamCOGT, ParamCOSensor, ParamNMHCGT, ParamBenzene, ParamNMHCSensor,
		ParamNOxGT, ParamNOxSensor, ParamNO2GT, ParamNO2Sensor, ParamO3Sensor,
		ParamTemperature, ParamHumidity, ParamAbsHumidity, ParamAQI,
	}
}

// Table holds the display data for one parameter: a universe of sample
// points and, per linguistic term, the membership degrees aligned
// index-for-index with the universe. Display-only; the scorers never read
// these tables back.
type Table struct {
	Universe []float64            `json:"universe"`
	Terms    map[string][]float64 `json:"terms"`
}

const tablePoints = 50

// termShape is a gated piecewise-linear curve: zero outside [lo, hi],
// eval(x) clamped to [0,1] inside.
type termShape struct {
	lo, hi float64
	eval   func(x float64) float64
}

func (t termShape) at(x float64) float64 {
	if x < t.lo || x > t.hi {
		return 0
	}
	return clamp(t.eval(x), 0, 1)
}

func tri(center, halfWidth, lo, hi float64) termShape {
	return termShape{lo: lo, hi: hi, eval: func(x float64) float64 {
		return 1 - math.Abs(x-center)/halfWidth
	}}
}

func fall(span, hi float64) termShape {
	return termShape{lo: math.Inf(-1), hi: hi, eval: func(x float64) float64 {
		return 1 - x/span
	}}
}

func rise(start, span, lo float64) termShape {
	return termShape{lo: lo, hi: math.Inf(1), eval: func(x float64) float64 {
		return (x - start) / span
	}}
}

type parameterSpec struct {
	min, max float64
	terms    []namedShape
}

type namedShape struct {
	name  string
	shape termShape
}

// sensorSpec covers the PT08 sensor channels, which share one shape family
// at different spans.
func sensorSpec(max, lowSpan, modCenter, modHalf, highStart, highSpan float64) parameterSpec {
	return parameterSpec{min: 0, max: max, terms: []namedShape{
		{"Low", fall(lowSpan, lowSpan)},
		{"Moderate", tri(modCenter, modHalf, modCenter-modHalf, modCenter+modHalf)},
		{"High", rise(highStart, highSpan, highStart)},
	}}
}

var parameterSpecs = map[Parameter]parameterSpec{
	ParamCOGT: {min: 0, max: 20, terms: []namedShape{
		{"Very_Low", tri(1, 1, math.Inf(-1), 2)},
		{"Low", tri(2.5, 1.5, 1, 4)},
		{"Moderate", tri(5, 1.5, 3.5, 6.5)},
		{"High", tri(9, 2, 7, 11)},
		{"Very_High", rise(10, 3, 10)},
	}},
	ParamCOSensor: sensorSpec(3000, 1000, 1500, 750, 1500, 1000),
	ParamNMHCGT:   sensorSpec(500, 150, 250, 100, 350, 150),
	ParamBenzene: {min: 0, max: 40, terms: []namedShape{
		{"Low", fall(10, 10)},
		{"Moderate", tri(20, 8, 12, 28)},
		{"High", rise(25, 10, 25)},
	}},
	ParamNMHCSensor: sensorSpec(2000, 600, 1000, 350, 1300, 500),
	ParamNOxGT:      sensorSpec(500, 150, 250, 100, 350, 150),
	ParamNOxSensor:  sensorSpec(2000, 600, 1000, 350, 1300, 500),
	ParamNO2GT: {min: 0, max: 400, terms: []namedShape{
		{"Excellent", fall(50, 50)},
		{"Good", tri(100, 50, 50, 150)},
		{"Fair", tri(200, 75, 125, 275)},
		{"Poor", tri(300, 75, 225, 375)},
		{"Hazardous", rise(350, 50, 350)},
	}},
	ParamNO2Sensor: sensorSpec(2000, 600, 1000, 350, 1300, 500),
	ParamO3Sensor: {min: 0, max: 3000, terms: []namedShape{
		{"Good", fall(1000, 1000)},
		{"Moderate", tri(1500, 500, 1000, 2000)},
		{"Unhealthy", tri(2250, 500, 1750, 2750)},
		{"Very_Unhealthy", rise(2500, 500, 2500)},
	}},
	ParamTemperature: {min: -10, max: 50, terms: []namedShape{
		{"Cold", tri(5, 10, math.Inf(-1), 15)},
		{"Cool", tri(12, 8, 4, 20)},
		{"Comfortable", tri(20, 6, 14, 26)},
		{"Warm", tri(28, 8, 20, 36)},
		{"Hot", rise(30, 15, 30)},
	}},
	ParamHumidity: {min: 0, max: 100, terms: []namedShape{
		{"Dry", fall(35, 35)},
		{"Comfortable", tri(50, 20, 30, 70)},
		{"Humid", rise(70, 30, 70)},
	}},
	ParamAbsHumidity: {min: 0, max: 20, terms: []namedShape{
		{"Low", fall(6, 6)},
		{"Moderate", tri(10, 4, 6, 14)},
		{"High", rise(14, 6, 14)},
	}},
	ParamAQI: {min: 0, max: 500, terms: []namedShape{
		{"Good", fall(50, 50)},
		{"Moderate", tri(100, 50, 50, 150)},
		{"Unhealthy_Sensitive", tri(200, 75, 125, 275)},
		{"Unhealthy", tri(300, 75, 225, 375)},
		{"Very_Unhealthy", tri(400, 75, 325, 475)},
		{"Hazardous", rise(450, 50, 450)},
	}},
}

// MembershipTable evaluates the catalog entry for one parameter over a
// 50-point universe.
func MembershipTable(p Parameter) (Table, error) {
	spec, ok := parameterSpecs[p]
	if !ok {
		return Table{}, fmt.Errorf("parameter %q: %w", string(p), ErrUnknownParameter)
	}
	universe := linspace(spec.min, spec.max, tablePoints)
	terms := make(map[string][]float64, len(spec.terms))
	for _, ns := range spec.terms {
		values := make([]float64, len(universe))
		for i, x := range universe {
			values[i] = ns.shape.at(x)
		}
		terms[ns.name] = values
	}
	return Table{Universe: universe, Terms: terms}, nil
}

// MembershipTables evaluates the whole catalog, keyed by display name.
func MembershipTables() map[Parameter]Table {
	out := make(map[Parameter]Table, len(parameterSpecs))
	for _, p := range Parameters() {
		t, err := MembershipTable(p)
		if err != nil {
			continue // unreachable: Parameters() enumerates the catalog
		}
		out[p] = t
	}
	return out
}

func linspace(min, max float64, n int) []float64 {
	out := make([]float64, n)
	step := (max - min) / float64(n-1)
	for i := range out {
		out[i] = min + float64(i)*step
	}
	out[n-1] = max
	return out
}
