package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultMaxLag is the lag count used when none is requested: 10·log10(n), at least two
// seasonal periods, and at most n-1.
func DefaultMaxLag(n int, freq float64) int {
	lag := int(math.Floor(10 * math.Log10(float64(n))))
	lag = max(lag, int(2*freq))
	return min(lag, n-1)
}

// ACF returns the autocorrelations of y for lags 0..maxLag. Missing values are skipped
// pairwise. A constant series has no autocorrelation and gives ErrConstant.
func ACF(y []float64, maxLag int) ([]float64, error) {
	n := len(y)
	if n < 2 {
		return nil, ErrTooShort
	}
	maxLag = min(maxLag, n-1)

	mean := NaNMean(y)
	centered := make([]float64, n)
	copy(centered, y)
	floats.AddConst(-mean, centered)

	acov := func(k int) float64 {
		var sum float64
		for i := k; i < n; i++ {
			if math.IsNaN(centered[i]) || math.IsNaN(centered[i-k]) {
				continue
			}
			sum += centered[i] * centered[i-k]
		}
		return sum / float64(n)
	}

	c0 := acov(0)
	if c0 == 0 {
		return nil, ErrConstant
	}
	acf := make([]float64, maxLag+1)
	for k := range acf {
		acf[k] = acov(k) / c0
	}
	return acf, nil
}

// PACF returns the partial autocorrelations of y for lags 1..maxLag using the Durbin-Levinson
// recursion.
func PACF(y []float64, maxLag int) ([]float64, error) {
	acf, err := ACF(y, maxLag)
	if err != nil {
		return nil, err
	}
	return DurbinLevinson(acf), nil
}

// DurbinLevinson turns autocorrelations for lags 0..k into partial autocorrelations for lags
// 1..k.
func DurbinLevinson(acf []float64) []float64 {
	maxLag := len(acf) - 1
	if maxLag < 1 {
		return nil
	}
	pacf := make([]float64, maxLag)
	phi := make([]float64, maxLag+1)
	prev := make([]float64, maxLag+1)

	phi[1] = acf[1]
	pacf[0] = acf[1]
	for k := 2; k <= maxLag; k++ {
		copy(prev, phi)
		num := acf[k]
		den := 1.0
		for j := 1; j < k; j++ {
			num -= prev[j] * acf[k-j]
			den -= prev[j] * acf[j]
		}
		if den == 0 {
			break
		}
		phi[k] = num / den
		for j := 1; j < k; j++ {
			phi[j] = prev[j] - phi[k]*prev[k-j]
		}
		pacf[k-1] = phi[k]
	}
	return pacf
}

// YuleWalker solves for AR coefficients of order p from autocorrelations, returning them
// with the innovation variance ratio.
func YuleWalker(acf []float64, p int) ([]float64, float64) {
	if p == 0 {
		return nil, 1
	}
	phi := make([]float64, p+1)
	prev := make([]float64, p+1)
	v := 1.0
	for k := 1; k <= p; k++ {
		copy(prev, phi)
		num := acf[k]
		for j := 1; j < k; j++ {
			num -= prev[j] * acf[k-j]
		}
		if v == 0 {
			break
		}
		phi[k] = num / v
		for j := 1; j < k; j++ {
			phi[j] = prev[j] - phi[k]*prev[k-j]
		}
		v *= 1 - phi[k]*phi[k]
	}
	return phi[1:], v
}
