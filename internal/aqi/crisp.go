package aqi

// ScoreCrisp produces a score in [0,100] from the three decision-relevant
// fields of a reading (CO ground truth, NO2 ground truth, O3 sensor) and the
// configured threshold table.
//
// For each pollutant exactly one band weight is selected by walking the
// ascending thresholds with strict less-than comparisons; a value that lies
// exactly on a threshold belongs to the next higher band, and a value at or
// above the last threshold contributes nothing (the open-ended top band).
// The selected weights accumulate "badness removed from a perfect 100":
//
//	score = clamp(100 - accumulator, 0, 100)
//
// The clamp is the safety net for customized settings whose weights sum
// outside [0,100]; under defaults the accumulator is already bounded.
func ScoreCrisp(r Reading, s Settings) (CrispResult, error) {
	if err := r.Validate(); err != nil {
		return CrispResult{}, err
	}

	acc := bandWeight(r.COGT, s.CO) +
		bandWeight(r.NO2GT, s.NO2) +
		bandWeight(r.O3Sensor, s.O3)

	score := clamp(100-acc, 0, 100)
	return CrispResult{Score: score, Category: CrispCategoryFor(score)}, nil
}

// bandWeight selects the weight of the first band whose threshold the value
// is strictly below, or 0 when the value reaches the top of the table.
func bandWeight(v float64, bands []Band) float64 {
	for _, b := range bands {
		if v < b.Threshold {
			return b.Weight
		}
	}
	return 0
}
