package stats

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

var ErrMissing = errors.New("series has missing values")

// STLOptions are the loess spans and iteration counts of an STL decomposition. Zero windows
// take their usual defaults. A Periodic fit replaces the seasonal component by its mean over
// each cycle position.
type STLOptions struct {
	SeasonalWindow int
	SeasonalDegree int
	Periodic       bool
	TrendWindow    int
	TrendDegree    int
	LowPassWindow  int
	Inner          int
	Outer          int
}

// NewDefaultSTLOptions is a periodic, non-robust decomposition.
func NewDefaultSTLOptions() *STLOptions {
	return &STLOptions{
		Periodic:    true,
		TrendDegree: 1,
		Inner:       2,
	}
}

// STLResult holds the components and the windows that were used.
type STLResult struct {
	Seasonal  []float64
	Trend     []float64
	Remainder []float64
	Weights   []float64

	SeasonalWindow int
	TrendWindow    int
	LowPassWindow  int
}

func nextOdd(x int) int {
	if x%2 == 0 {
		return x + 1
	}
	return x
}

// loess evaluates a tricube weighted local fit of y (observed at 0..n-1) at position at,
// using the q nearest observations. ok is false when every weight is zero.
func loess(y, rw []float64, q, degree int, at float64) (float64, bool) {
	n := len(y)
	lo, hi := 0, n-1
	if q < n {
		// choose the window of q points nearest to at
		lo = int(math.Max(0, math.Min(float64(n-q), math.Round(at)-float64(q/2))))
		for lo > 0 && at-float64(lo-1) < float64(lo+q-1)-at {
			lo--
		}
		for lo+q < n && float64(lo+q)-at < at-float64(lo) {
			lo++
		}
		hi = lo + q - 1
	}
	h := math.Max(at-float64(lo), float64(hi)-at)
	if q > n {
		h += float64((q - n) / 2)
	}
	h1, h9 := 0.001*h, 0.999*h

	w := make([]float64, n)
	var total float64
	for j := lo; j <= hi; j++ {
		r := math.Abs(float64(j) - at)
		switch {
		case r <= h1:
			w[j] = 1
		case r <= h9:
			u := r / h
			w[j] = math.Pow(1-u*u*u, 3)
		}
		if rw != nil {
			w[j] *= rw[j]
		}
		total += w[j]
	}
	if total <= 0 {
		return 0, false
	}
	for j := lo; j <= hi; j++ {
		w[j] /= total
	}

	if degree > 0 && h > 0 {
		var a float64
		for j := lo; j <= hi; j++ {
			a += w[j] * float64(j)
		}
		var c float64
		for j := lo; j <= hi; j++ {
			c += w[j] * (float64(j) - a) * (float64(j) - a)
		}
		if math.Sqrt(c) > 0.001*float64(n-1) {
			b := (at - a) / c
			for j := lo; j <= hi; j++ {
				w[j] *= b*(float64(j)-a) + 1
			}
		}
	}

	var v float64
	for j := lo; j <= hi; j++ {
		v += w[j] * y[j]
	}
	return v, true
}

// smooth evaluates loess at every position in at, falling back to the observation when no
// neighbour carries weight.
func smooth(y, rw []float64, q, degree int, at []float64, fallback func(i int) float64) []float64 {
	out := make([]float64, len(at))
	for i, x := range at {
		v, ok := loess(y, rw, q, degree, x)
		if !ok {
			v = fallback(i)
		}
		out[i] = v
	}
	return out
}

func movingSum(x []float64, span int) []float64 {
	out := make([]float64, len(x)-span+1)
	var sum float64
	for i := 0; i < span; i++ {
		sum += x[i]
	}
	out[0] = sum / float64(span)
	for i := 1; i < len(out); i++ {
		sum += x[i+span-1] - x[i-1]
		out[i] = sum / float64(span)
	}
	return out
}

func robustnessWeights(r []float64) []float64 {
	abs := make([]float64, len(r))
	for i, v := range r {
		abs[i] = math.Abs(v)
	}
	sorted := append([]float64(nil), abs...)
	sort.Float64s(sorted)
	h := 6 * Quantile(sorted, 0.5)
	c1, c9 := 0.001*h, 0.999*h

	w := make([]float64, len(r))
	for i, u := range abs {
		switch {
		case u <= c1:
			w[i] = 1
		case u <= c9:
			v := u / h
			w[i] = (1 - v*v) * (1 - v*v)
		}
	}
	return w
}

// STL decomposes y into seasonal, trend and remainder by repeated loess smoothing of the
// cycle subseries and the deseasonalised series.
func STL(y []float64, period int, opt *STLOptions) (*STLResult, error) {
	if opt == nil {
		opt = NewDefaultSTLOptions()
	}
	n := len(y)
	if period < 2 || n <= 2*period {
		return nil, fmt.Errorf("%d observations for period %d, %w", n, period, ErrTooShort)
	}
	for _, v := range y {
		if math.IsNaN(v) {
			return nil, ErrMissing
		}
	}

	sWindow, sDegree := opt.SeasonalWindow, opt.SeasonalDegree
	if opt.Periodic {
		sWindow, sDegree = 10*n+1, 0
	}
	if sWindow < 3 {
		return nil, fmt.Errorf("seasonal window %d, %w", sWindow, ErrTooShort)
	}
	sWindow = nextOdd(sWindow)
	tWindow := opt.TrendWindow
	if tWindow <= 0 {
		tWindow = int(math.Ceil(1.5 * float64(period) / (1 - 1.5/float64(sWindow))))
	}
	tWindow = nextOdd(tWindow)
	lWindow := opt.LowPassWindow
	if lWindow <= 0 {
		lWindow = period
	}
	lWindow = nextOdd(lWindow)
	inner := max(opt.Inner, 1)

	seasonal := make([]float64, n)
	trend := make([]float64, n)
	var rw []float64

	for outer := 0; outer <= opt.Outer; outer++ {
		for it := 0; it < inner; it++ {
			detrended := make([]float64, n)
			for i := range y {
				detrended[i] = y[i] - trend[i]
			}

			// cycle subseries, each extended one period at both ends
			cycle := make([]float64, n+2*period)
			for k := 0; k < period; k++ {
				var sub, subW []float64
				for i := k; i < n; i += period {
					sub = append(sub, detrended[i])
					if rw != nil {
						subW = append(subW, rw[i])
					}
				}
				at := make([]float64, len(sub)+2)
				for j := range at {
					at[j] = float64(j - 1)
				}
				fit := smooth(sub, subW, sWindow, sDegree, at, func(j int) float64 {
					return sub[min(max(j-1, 0), len(sub)-1)]
				})
				for j, v := range fit {
					cycle[k+j*period] = v
				}
			}

			low := movingSum(movingSum(movingSum(cycle, period), period), 3)
			pos := make([]float64, n)
			for i := range pos {
				pos[i] = float64(i)
			}
			low = smooth(low, nil, lWindow, opt.TrendDegree, pos, func(i int) float64 { return low[i] })
			for i := range seasonal {
				seasonal[i] = cycle[period+i] - low[i]
			}

			deseason := make([]float64, n)
			for i := range y {
				deseason[i] = y[i] - seasonal[i]
			}
			trend = smooth(deseason, rw, tWindow, opt.TrendDegree, pos, func(i int) float64 { return deseason[i] })
		}
		if outer < opt.Outer {
			r := make([]float64, n)
			for i := range y {
				r[i] = y[i] - seasonal[i] - trend[i]
			}
			rw = robustnessWeights(r)
		}
	}

	if opt.Periodic {
		means := make([]float64, period)
		counts := make([]float64, period)
		for i, v := range seasonal {
			means[i%period] += v
			counts[i%period]++
		}
		for i := range seasonal {
			seasonal[i] = means[i%period] / counts[i%period]
		}
	}

	remainder := make([]float64, n)
	for i := range y {
		remainder[i] = y[i] - seasonal[i] - trend[i]
	}
	if rw == nil {
		rw = make([]float64, n)
		for i := range rw {
			rw[i] = 1
		}
	}
	return &STLResult{
		Seasonal:       seasonal,
		Trend:          trend,
		Remainder:      remainder,
		Weights:        rw,
		SeasonalWindow: sWindow,
		TrendWindow:    tWindow,
		LowPassWindow:  lWindow,
	}, nil
}

// Smooth is a local linear loess fit of y using span nearest neighbours at every point.
func Smooth(y []float64, span int) []float64 {
	pos := make([]float64, len(y))
	for i := range pos {
		pos[i] = float64(i)
	}
	return smooth(y, nil, max(span, 3), 1, pos, func(i int) float64 { return y[i] })
}
