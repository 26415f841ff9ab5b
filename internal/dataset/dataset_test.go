package dataset

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestGenerateDeterministic(t *testing.T) {
	a := Generate(200, 42)
	b := Generate(200, 42)
	if diff := cmp.Diff(a.Sample(200), b.Sample(200)); diff != "" {
		t.Fatalf("equal seeds must produce equal corpora (-a +b):\n%s", diff)
	}

	c := Generate(200, 43)
	if diff := cmp.Diff(a.Sample(200), c.Sample(200)); diff == "" {
		t.Fatal("different seeds must produce different corpora")
	}
}

func TestGenerateSizeFallback(t *testing.T) {
	if got := Generate(0, 42).Len(); got != 5000 {
		t.Fatalf("non-positive size must fall back to 5000, got %d", got)
	}
	if got := Generate(37, 42).Len(); got != 37 {
		t.Fatalf("size mismatch: got %d want 37", got)
	}
}

func TestGenerateFieldRanges(t *testing.T) {
	d := Generate(1000, 42)
	for _, r := range d.Sample(1000) {
		if r.COGT <= 0 {
			t.Fatalf("lognormal CO must be positive, got %f", r.COGT)
		}
		if r.NO2GT < 0 || r.O3Sensor < 0 {
			t.Fatalf("NO2/O3 draws must be non-negative: %f / %f", r.NO2GT, r.O3Sensor)
		}
		if r.Humidity < 0 || r.Humidity > 100 {
			t.Fatalf("humidity must stay in percent range, got %f", r.Humidity)
		}
	}
}

func TestSampleDeterministicPerSize(t *testing.T) {
	d := Generate(500, 42)
	if diff := cmp.Diff(d.Sample(50), d.Sample(50)); diff != "" {
		t.Fatalf("equal sample sizes must draw equal subsets:\n%s", diff)
	}
	if got := len(d.Sample(50)); got != 50 {
		t.Fatalf("sample size mismatch: got %d want 50", got)
	}
	if got := len(d.Sample(9999)); got != 500 {
		t.Fatalf("oversized request must cap at corpus size, got %d", got)
	}
	if s := d.Sample(0); s != nil {
		t.Fatalf("non-positive sample must be nil, got %d readings", len(s))
	}
}

func TestStatsSanity(t *testing.T) {
	d := Generate(2000, 42)
	s := d.Stats()
	if s.TotalSamples != 2000 {
		t.Fatalf("total samples mismatch: got %d want 2000", s.TotalSamples)
	}
	for name, fs := range map[string]FieldStats{
		"co": s.CO, "no2": s.NO2, "o3": s.O3, "temp": s.Temperature, "humidity": s.Humidity,
	} {
		if fs.Min > fs.Mean || fs.Mean > fs.Max {
			t.Fatalf("%s stats not ordered: %+v", name, fs)
		}
		if fs.Std < 0 || math.IsNaN(fs.Std) {
			t.Fatalf("%s std invalid: %f", name, fs.Std)
		}
	}
	// Temperature centers near 20 and humidity near 50 by construction;
	// generous tolerances keep the check robust across seeds.
	if math.Abs(s.Temperature.Mean-20) > 2 {
		t.Fatalf("temperature mean drifted: %f", s.Temperature.Mean)
	}
	if math.Abs(s.Humidity.Mean-50) > 5 {
		t.Fatalf("humidity mean drifted: %f", s.Humidity.Mean)
	}
}

func TestFieldStatsSmallInputs(t *testing.T) {
	if fs := fieldStats(nil); fs != (FieldStats{}) {
		t.Fatalf("empty input must yield zero stats, got %+v", fs)
	}
	fs := fieldStats([]float64{7})
	if fs.Min != 7 || fs.Max != 7 || fs.Mean != 7 || fs.Std != 0 {
		t.Fatalf("single-value stats mismatch: %+v", fs)
	}
}
