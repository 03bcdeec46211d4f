package stats

import (
	"fmt"
	"math"
)

// Scores are the forecast accuracy measures of one data set. Missing values are skipped.
type Scores struct {
	ME     float64 `json:"mean_error"`
	RMSE   float64 `json:"root_mean_squared_error"`
	MAE    float64 `json:"mean_absolute_error"`
	MPE    float64 `json:"mean_percent_error"`
	MAPE   float64 `json:"mean_absolute_percent_error"`
	MASE   float64 `json:"mean_absolute_scaled_error"`
	ACF1   float64 `json:"acf1"`
	Theils float64 `json:"theils_u"`
}

// ScoreNames are the measure names in the order Values returns them.
var ScoreNames = []string{"ME", "RMSE", "MAE", "MPE", "MAPE", "MASE", "ACF1", "Theil's U"}

// Values returns the measures in ScoreNames order.
func (s *Scores) Values() []float64 {
	return []float64{s.ME, s.RMSE, s.MAE, s.MPE, s.MAPE, s.MASE, s.ACF1, s.Theils}
}

// NewScores computes the accuracy of predicted against actual. scale is the in-sample mean
// absolute naive error used by MASE. Theil's U is NaN unless withTheils is set.
func NewScores(predicted, actual []float64, scale float64, withTheils bool) (*Scores, error) {
	if len(predicted) != len(actual) {
		return nil, fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}

	errs := make([]float64, len(actual))
	for i := range actual {
		errs[i] = actual[i] - predicted[i]
	}

	s := &Scores{
		ME:     NaNMean(errs),
		RMSE:   math.Sqrt(nanMeanOf(errs, func(e, _ float64) float64 { return e * e }, actual)),
		MAE:    nanMeanOf(errs, func(e, _ float64) float64 { return math.Abs(e) }, actual),
		MPE:    nanMeanOf(errs, func(e, a float64) float64 { return 100 * e / a }, actual),
		MAPE:   nanMeanOf(errs, func(e, a float64) float64 { return 100 * math.Abs(e/a) }, actual),
		ACF1:   math.NaN(),
		Theils: math.NaN(),
	}
	s.MASE = s.MAE / scale

	if acf, err := ACF(errs, 1); err == nil && len(acf) > 1 {
		s.ACF1 = acf[1]
	}
	if withTheils {
		s.Theils = TheilsU(predicted, actual)
	}
	return s, nil
}

func nanMeanOf(errs []float64, f func(e, a float64) float64, actual []float64) float64 {
	var (
		sum   float64
		count int
	)
	for i, e := range errs {
		v := f(e, actual[i])
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		sum += v
		count++
	}
	if count == 0 {
		return math.NaN()
	}
	return sum / float64(count)
}

// NaiveScale is the mean absolute lag-m difference of the training data.
func NaiveScale(train []float64, m int) float64 {
	if m < 1 || len(train) <= m {
		m = 1
	}
	d := Diff(train, m, 1)
	for i := range d {
		d[i] = math.Abs(d[i])
	}
	return NaNMean(d)
}

// TheilsU compares the relative changes predicted against the relative changes observed.
func TheilsU(predicted, actual []float64) float64 {
	var num, den float64
	for i := 1; i < len(actual); i++ {
		fpe := predicted[i]/actual[i-1] - 1
		ape := actual[i]/actual[i-1] - 1
		if math.IsNaN(fpe) || math.IsNaN(ape) || math.IsInf(fpe, 0) || math.IsInf(ape, 0) {
			continue
		}
		num += (fpe - ape) * (fpe - ape)
		den += ape * ape
	}
	if den == 0 {
		return math.NaN()
	}
	return math.Sqrt(num / den)
}
