package stats

import (
	"errors"
	"fmt"
	"math"
)

// Decomposition types.
const (
	Additive       = "additive"
	Multiplicative = "multiplicative"
)

var ErrDecompositionType = errors.New("unknown decomposition type")

// Classical is a moving-average decomposition. Trend and Random are NaN where the centred
// window does not fit.
type Classical struct {
	Seasonal []float64
	Trend    []float64
	Random   []float64
	Figure   []float64
	Type     string
}

// MovingAverage is the centred moving average over period observations, using the
// half-weighted 2×m window for even periods. The first and last period/2 values are NaN.
func MovingAverage(y []float64, period int) []float64 {
	n := len(y)
	w := make([]float64, 0, period+1)
	if period%2 == 0 {
		w = append(w, 0.5/float64(period))
		for i := 1; i < period; i++ {
			w = append(w, 1/float64(period))
		}
		w = append(w, 0.5/float64(period))
	} else {
		for i := 0; i < period; i++ {
			w = append(w, 1/float64(period))
		}
	}
	offset := len(w) / 2

	out := make([]float64, n)
	for i := range out {
		lo, hi := i-offset, i-offset+len(w)
		if lo < 0 || hi > n {
			out[i] = math.NaN()
			continue
		}
		var sum float64
		for j, wj := range w {
			sum += wj * y[lo+j]
		}
		out[i] = sum
	}
	return out
}

// Decompose splits y into trend, seasonal figure and remainder. The seasonal figure is
// indexed by position from the first observation.
func Decompose(y []float64, period int, typ string) (*Classical, error) {
	if typ != Additive && typ != Multiplicative {
		return nil, fmt.Errorf("%q, %w", typ, ErrDecompositionType)
	}
	n := len(y)
	if period <= 1 || n < 2*period {
		return nil, fmt.Errorf("%d observations for period %d, %w", n, period, ErrTooShort)
	}

	trend := MovingAverage(y, period)
	detrended := make([]float64, n)
	for i := range y {
		if typ == Multiplicative {
			detrended[i] = y[i] / trend[i]
		} else {
			detrended[i] = y[i] - trend[i]
		}
	}

	figure := make([]float64, period)
	for i := range figure {
		var (
			sum   float64
			count int
		)
		for j := i; j < n; j += period {
			if !math.IsNaN(detrended[j]) {
				sum += detrended[j]
				count++
			}
		}
		figure[i] = sum / float64(count)
	}
	center := NaNMean(figure)
	for i := range figure {
		if typ == Multiplicative {
			figure[i] /= center
		} else {
			figure[i] -= center
		}
	}

	seasonal := make([]float64, n)
	random := make([]float64, n)
	for i := range y {
		seasonal[i] = figure[i%period]
		if typ == Multiplicative {
			random[i] = y[i] / (seasonal[i] * trend[i])
		} else {
			random[i] = y[i] - seasonal[i] - trend[i]
		}
	}
	return &Classical{
		Seasonal: seasonal,
		Trend:    trend,
		Random:   random,
		Figure:   figure,
		Type:     typ,
	}, nil
}
