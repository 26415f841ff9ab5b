package aqi

import "math"

// MethodMetrics summarizes how closely one scoring method tracks the
// reference index over a sample set.
type MethodMetrics struct {
	MAE          float64 `json:"mae"`
	RMSE         float64 `json:"rmse"`
	Accuracy     float64 `json:"accuracy"`
	F1Score      float64 `json:"f1_score"`
	Satisfaction float64 `json:"satisfaction"` // share of predictions within 20% relative error
}

// Comparison pairs the fuzzy and crisp method metrics.
type Comparison struct {
	Fuzzy MethodMetrics `json:"fuzzy"`
	Crisp MethodMetrics `json:"crisp"`
}

// Predictions carries the raw per-sample values behind a comparison so the
// caller can chart them.
type Predictions struct {
	Fuzzy       []float64 `json:"fuzzy"`
	Crisp       []float64 `json:"crisp"`
	GroundTruth []float64 `json:"ground_truth"`
}

// ComparisonResult is the full outcome of a fuzzy-vs-crisp method run.
type ComparisonResult struct {
	Metrics     Comparison  `json:"metrics"`
	Predictions Predictions `json:"predictions"`
	SampleSize  int         `json:"sample_size"`
}

// CompareMethods scores every reading with the enhanced (fuzzy) and EPA
// (crisp) methods on the shared 0-500 scale and evaluates both against the
// weighted ground-truth index. Readings that fail validation are skipped.
func CompareMethods(readings []Reading) ComparisonResult {
	var fuzzy, crisp, truth []float64
	for _, r := range readings {
		enhanced, err := ScoreEnhanced(r)
		if err != nil {
			continue
		}
		fuzzy = append(fuzzy, enhanced.Score)
		crisp = append(crisp, EPAAQI(r))
		truth = append(truth, GroundTruthAQI(r))
	}

	return ComparisonResult{
		Metrics: Comparison{
			Fuzzy: computeMetrics(fuzzy, truth),
			Crisp: computeMetrics(crisp, truth),
		},
		Predictions: Predictions{Fuzzy: fuzzy, Crisp: crisp, GroundTruth: truth},
		SampleSize:  len(fuzzy),
	}
}

func computeMetrics(pred, truth []float64) MethodMetrics {
	n := len(pred)
	if n == 0 || n != len(truth) {
		return MethodMetrics{}
	}

	var absSum, sqSum float64
	var satisfied int
	predCats := make([]int, n)
	truthCats := make([]int, n)
	for i := 0; i < n; i++ {
		diff := pred[i] - truth[i]
		absSum += math.Abs(diff)
		sqSum += diff * diff
		predCats[i] = epaBand(pred[i])
		truthCats[i] = epaBand(truth[i])
		if withinTolerance(pred[i], truth[i], 0.2) {
			satisfied++
		}
	}

	var matches int
	for i := 0; i < n; i++ {
		if predCats[i] == truthCats[i] {
			matches++
		}
	}

	return MethodMetrics{
		MAE:          absSum / float64(n),
		RMSE:         math.Sqrt(sqSum / float64(n)),
		Accuracy:     float64(matches) / float64(n),
		F1Score:      weightedF1(truthCats, predCats),
		Satisfaction: float64(satisfied) / float64(n),
	}
}

// epaBand buckets a 0-500 score into the six EPA bands, indexed 0..5.
func epaBand(score float64) int {
	switch {
	case score <= 50:
		return 0
	case score <= 100:
		return 1
	case score <= 150:
		return 2
	case score <= 200:
		return 3
	case score <= 300:
		return 4
	default:
		return 5
	}
}

func withinTolerance(pred, truth, tol float64) bool {
	if truth == 0 {
		return pred == 0
	}
	return math.Abs(pred-truth)/truth <= tol
}

// weightedF1 is the support-weighted mean of per-class F1 scores across the
// six EPA bands.
func weightedF1(truth, pred []int) float64 {
	const classes = 6
	var tp, fp, fn [classes]int
	for i := range truth {
		if truth[i] == pred[i] {
			tp[truth[i]]++
		} else {
			fp[pred[i]]++
			fn[truth[i]]++
		}
	}

	var weighted float64
	total := len(truth)
	for c := 0; c < classes; c++ {
		support := tp[c] + fn[c]
		if support == 0 {
			continue
		}
		var precision, recall float64
		if tp[c]+fp[c] > 0 {
			precision = float64(tp[c]) / float64(tp[c]+fp[c])
		}
		if tp[c]+fn[c] > 0 {
			recall = float64(tp[c]) / float64(tp[c]+fn[c])
		}
		var f1 float64
		if precision+recall > 0 {
			f1 = 2 * precision * recall / (precision + recall)
		}
		weighted += float64(support) * f1
	}
	if total == 0 {
		return 0
	}
	return weighted / float64(total)
}
