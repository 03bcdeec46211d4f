package stats

import (
	"math"
)

// KPSSCritical5 is the 5% critical value of the level-stationarity KPSS statistic.
const KPSSCritical5 = 0.463

// KPSS returns the Kwiatkowski-Phillips-Schmidt-Shin statistic for level stationarity with
// trunc(3·sqrt(n)/13) Newey-West lags. Large values reject stationarity.
func KPSS(y []float64) (float64, error) {
	n := len(y)
	if n < 3 {
		return 0, ErrTooShort
	}
	lags := int(3 * math.Sqrt(float64(n)) / 13)

	mean := NaNMean(y)
	resid := make([]float64, n)
	for i, v := range y {
		resid[i] = v - mean
	}

	var eta, cum float64
	for _, r := range resid {
		cum += r
		eta += cum * cum
	}

	var s2 float64
	for _, r := range resid {
		s2 += r * r
	}
	s2 /= float64(n)
	for l := 1; l <= lags; l++ {
		var cov float64
		for i := l; i < n; i++ {
			cov += resid[i] * resid[i-l]
		}
		cov /= float64(n)
		s2 += 2 * (1 - float64(l)/float64(lags+1)) * cov
	}
	if s2 <= 0 {
		return 0, ErrConstant
	}
	return eta / (float64(n) * float64(n) * s2), nil
}

// NDiffs returns the number of first differences, at most maxD, after which the KPSS test no
// longer rejects stationarity at 5%.
func NDiffs(y []float64, maxD int) int {
	current := Finite(y)
	for d := 0; d < maxD; d++ {
		if IsConstant(current) {
			return d
		}
		stat, err := KPSS(current)
		if err != nil || stat < KPSSCritical5 {
			return d
		}
		current = Diff(current, 1, 1)
		if len(current) < 3 {
			return d + 1
		}
	}
	return maxD
}

// SeasonalStrengthThreshold is the seasonal strength at and above which a seasonal difference
// is taken.
const SeasonalStrengthThreshold = 0.64

// SeasonalStrength is max(0, 1 - var(remainder)/var(seasonal+remainder)) of an additive
// classical decomposition with the given period.
func SeasonalStrength(y []float64, period int) float64 {
	dc, err := Decompose(y, period, Additive)
	if err != nil {
		return 0
	}
	sr := make([]float64, len(y))
	for i := range sr {
		sr[i] = dc.Seasonal[i] + dc.Random[i]
	}
	varSR := NaNVariance(sr)
	if varSR == 0 || math.IsNaN(varSR) {
		return 0
	}
	return math.Max(0, 1-NaNVariance(dc.Random)/varSR)
}

// NSDiffs returns the number of seasonal differences, at most maxD, indicated by the seasonal
// strength heuristic.
func NSDiffs(y []float64, period, maxD int) int {
	current := Finite(y)
	for d := 0; d < maxD; d++ {
		if len(current) < 2*period+1 || IsConstant(current) {
			return d
		}
		if SeasonalStrength(current, period) < SeasonalStrengthThreshold {
			return d
		}
		current = Diff(current, period, 1)
	}
	return maxD
}
