// Package stats holds the descriptive statistics, autocorrelations, unit-root tests and
// forecast accuracy measures the native engine builds on.
package stats

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrResLenMismatch = errors.New("predicted and actual have different lengths")
	ErrTooShort       = errors.New("series is too short")
	ErrConstant       = errors.New("series is constant")
)

// DetectOutliers returns the positions of y lying tukeyFactor inter-quantile ranges outside
// the lowerPerc and upperPerc quantiles. NaN values are never outliers.
func DetectOutliers(y []float64, lowerPerc, upperPerc, tukeyFactor float64) []int {
	return DetectOutliersMinRange(y, lowerPerc, upperPerc, tukeyFactor, 0)
}

// DetectOutliersMinRange is DetectOutliers with the inter-quantile range raised to at least
// minRange, so that rounding noise around an exact fit is never an outlier.
func DetectOutliersMinRange(y []float64, lowerPerc, upperPerc, tukeyFactor, minRange float64) []int {
	lowerPerc = math.Max(lowerPerc, 0.0)
	upperPerc = math.Min(upperPerc, 1.0)
	tukeyFactor = math.Max(tukeyFactor, 0.0)

	yCopy := Finite(y)
	if len(yCopy) == 0 {
		return nil
	}
	sort.Float64s(yCopy)
	lower := Quantile(yCopy, lowerPerc)
	upper := Quantile(yCopy, upperPerc)
	innerRange := math.Max(upper-lower, minRange)
	lower -= innerRange * tukeyFactor
	upper += innerRange * tukeyFactor

	var outlierIdx []int
	for i := 0; i < len(y); i++ {
		if math.IsNaN(y[i]) {
			continue
		}
		if y[i] > upper || y[i] < lower {
			outlierIdx = append(outlierIdx, i)
		}
	}
	return outlierIdx
}

// Quantile interpolates between order statistics at (n-1)·p of sorted x, the default sample
// quantile of most statistics packages.
func Quantile(sorted []float64, p float64) float64 {
	h := float64(len(sorted)-1) * p
	lo := int(math.Floor(h))
	if lo+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// Finite returns a copy of y without NaN and infinite values.
func Finite(y []float64) []float64 {
	out := make([]float64, 0, len(y))
	for _, v := range y {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// NaNMean is the mean of the non-missing values, NaN when there are none.
func NaNMean(y []float64) float64 {
	f := Finite(y)
	if len(f) == 0 {
		return math.NaN()
	}
	return stat.Mean(f, nil)
}

// NaNVariance is the sample variance of the non-missing values.
func NaNVariance(y []float64) float64 {
	f := Finite(y)
	if len(f) < 2 {
		return math.NaN()
	}
	return stat.Variance(f, nil)
}

// Diff returns the lag-differenced series y[i] - y[i-lag], applied d times.
func Diff(y []float64, lag, d int) []float64 {
	out := y
	for k := 0; k < d; k++ {
		if len(out) <= lag {
			return nil
		}
		next := make([]float64, len(out)-lag)
		floats.SubTo(next, out[lag:], out[:len(out)-lag])
		out = next
	}
	if d == 0 {
		out = append([]float64(nil), y...)
	}
	return out
}

// IsConstant reports whether every non-missing value equals the first.
func IsConstant(y []float64) bool {
	f := Finite(y)
	for _, v := range f {
		if v != f[0] {
			return false
		}
	}
	return true
}
