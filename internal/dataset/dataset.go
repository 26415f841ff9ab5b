// Package dataset provides the synthetic sensor-reading corpus backing the
// method comparison and statistics endpoints. Draw distributions mirror the
// marginals of the UCI air-quality dataset the dashboard was originally
// seeded from.
package dataset

import (
	"math"
	"math/rand"

	"github.com/Sameer-159/Air-Quality/internal/aqi"
)

// FieldStats holds summary statistics for one generated field.
type FieldStats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
}

// Stats summarizes the generated corpus.
type Stats struct {
	TotalSamples int        `json:"total_samples"`
	CO           FieldStats `json:"co_stats"`
	NO2          FieldStats `json:"no2_stats"`
	O3           FieldStats `json:"o3_stats"`
	Temperature  FieldStats `json:"temp_stats"`
	Humidity     FieldStats `json:"humidity_stats"`
}

// Dataset is an immutable collection of generated readings.
type Dataset struct {
	readings []aqi.Reading
}

// Generate builds a corpus of n readings from a fixed seed so repeated runs
// produce identical samples and therefore identical comparison metrics.
//
// Marginals: CO ~ lognormal(0.5, 0.8) ppm; NO2 ~ Weibull(k=1.5) scaled by
// 150; O3 ~ gamma(shape 2, scale 400); temperature ~ normal(20, 8);
// humidity ~ beta(2, 2) scaled to percent.
func Generate(n int, seed int64) *Dataset {
	if n <= 0 {
		n = 5000
	}
	rng := rand.New(rand.NewSource(seed))
	readings := make([]aqi.Reading, n)
	for i := range readings {
		readings[i] = aqi.Reading{
			COGT:        math.Exp(0.5 + 0.8*rng.NormFloat64()),
			NO2GT:       weibull(rng, 1.5) * 150,
			O3Sensor:    gamma2(rng) * 400,
			Temperature: 20 + 8*rng.NormFloat64(),
			Humidity:    beta22(rng) * 100,
		}
	}
	return &Dataset{readings: readings}
}

// Len reports the corpus size.
func (d *Dataset) Len() int { return len(d.readings) }

// Sample returns up to n readings drawn without replacement. The draw uses
// its own deterministic ordering so equal n yields equal samples.
func (d *Dataset) Sample(n int) []aqi.Reading {
	if n <= 0 {
		return nil
	}
	if n >= len(d.readings) {
		out := make([]aqi.Reading, len(d.readings))
		copy(out, d.readings)
		return out
	}
	rng := rand.New(rand.NewSource(int64(n)))
	idx := rng.Perm(len(d.readings))[:n]
	out := make([]aqi.Reading, n)
	for i, j := range idx {
		out[i] = d.readings[j]
	}
	return out
}

// Stats computes per-field summary statistics over the whole corpus.
func (d *Dataset) Stats() Stats {
	co := make([]float64, len(d.readings))
	no2 := make([]float64, len(d.readings))
	o3 := make([]float64, len(d.readings))
	temp := make([]float64, len(d.readings))
	hum := make([]float64, len(d.readings))
	for i, r := range d.readings {
		co[i] = r.COGT
		no2[i] = r.NO2GT
		o3[i] = r.O3Sensor
		temp[i] = r.Temperature
		hum[i] = r.Humidity
	}
	return Stats{
		TotalSamples: len(d.readings),
		CO:           fieldStats(co),
		NO2:          fieldStats(no2),
		O3:           fieldStats(o3),
		Temperature:  fieldStats(temp),
		Humidity:     fieldStats(hum),
	}
}

func fieldStats(values []float64) FieldStats {
	if len(values) == 0 {
		return FieldStats{}
	}
	min, max := values[0], values[0]
	var sum float64
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	std := 0.0
	if len(values) > 1 {
		std = math.Sqrt(sq / float64(len(values)-1))
	}
	return FieldStats{Min: min, Max: max, Mean: mean, Std: std}
}

// weibull draws from a Weibull distribution with shape k and unit scale via
// inverse-CDF transform.
func weibull(rng *rand.Rand, k float64) float64 {
	u := rng.Float64()
	for u == 0 {
		u = rng.Float64()
	}
	return math.Pow(-math.Log(u), 1/k)
}

// gamma2 draws from a gamma distribution with shape 2 and unit scale as the
// sum of two unit exponentials.
func gamma2(rng *rand.Rand) float64 {
	return rng.ExpFloat64() + rng.ExpFloat64()
}

// beta22 draws from Beta(2, 2) as X/(X+Y) with X, Y ~ gamma(2, 1).
func beta22(rng *rand.Rand) float64 {
	x := gamma2(rng)
	y := gamma2(rng)
	if x+y == 0 {
		return 0.5
	}
	return x / (x + y)
}
