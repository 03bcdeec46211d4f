package native

import (
	"context"
	"fmt"
	"math"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/models"
	"github.com/aouyang1/go-forecastbridge/stats"
)

// seasonalStrengthCutoff is the STL seasonal strength above which outliers are searched for
// in the seasonally adjusted series.
const seasonalStrengthCutoff = 0.6

// residualFloor is the smallest residual spread, relative to the series scale, that outlier
// fences are built from. Residuals of an exact fit are rounding noise.
const residualFloor = 1e-8

// interpolateLinear fills missing values by linear interpolation between observed
// neighbours, carrying the nearest observation past either end.
func interpolateLinear(y []float64) []float64 {
	out := append([]float64(nil), y...)
	prev := -1
	for i, v := range y {
		if math.IsNaN(v) {
			continue
		}
		switch {
		case prev < 0:
			for j := 0; j < i; j++ {
				out[j] = v
			}
		case i-prev > 1:
			step := (v - y[prev]) / float64(i-prev)
			for j := prev + 1; j < i; j++ {
				out[j] = y[prev] + step*float64(j-prev)
			}
		}
		prev = i
	}
	if prev >= 0 {
		for j := prev + 1; j < len(y); j++ {
			out[j] = y[prev]
		}
	}
	return out
}

// robustSTL is the robust decomposition used for interpolation and outlier detection.
func (e *Engine) robustSTL(y []float64, m int) (*stats.STLResult, error) {
	opt := stats.NewDefaultSTLOptions()
	opt.Periodic = false
	opt.SeasonalWindow = 13
	opt.Inner, opt.Outer = 1, e.opt.STLOuter
	return stats.STL(y, m, opt)
}

// interpolate fills missing values. Non-seasonal or short series are interpolated linearly.
// Seasonal series are first filled from a Fourier and polynomial trend regression, then
// refilled from a robust STL fit: linear interpolation of the seasonally adjusted series plus
// the seasonal component.
func (e *Engine) interpolate(y []float64, freq float64, lambda float64) ([]float64, error) {
	if !hasNaN(y) {
		return append([]float64(nil), y...), nil
	}
	observed := stats.Finite(y)
	if len(observed) == 0 {
		return nil, fmt.Errorf("no observed values, %w", ErrInsufficientData)
	}
	n := len(y)
	m := int(math.Round(freq))
	if m <= 1 || n <= 2*m || len(observed) < 3 {
		return interpolateLinear(y), nil
	}

	x := y
	if !math.IsNaN(lambda) {
		x = boxCox(y, lambda)
	}

	// regressors: K Fourier pairs and a scaled polynomial trend
	k := min(m/2, 5)
	var cols [][]float64
	for j := 1; j <= k; j++ {
		sin := make([]float64, n)
		cos := make([]float64, n)
		for t := range sin {
			arg := 2 * math.Pi * float64(j) * float64(t+1) / float64(m)
			sin[t], cos[t] = math.Sin(arg), math.Cos(arg)
		}
		if 2*j < m {
			cols = append(cols, sin)
		}
		cols = append(cols, cos)
	}
	degree := min(max(n/10, 1), 6)
	for d := 1; d <= degree; d++ {
		col := make([]float64, n)
		for t := range col {
			col[t] = math.Pow(2*float64(t)/float64(n-1)-1, float64(d))
		}
		cols = append(cols, col)
	}

	var rows []int
	for t, v := range x {
		if !math.IsNaN(v) {
			rows = append(rows, t)
		}
	}
	filled := append([]float64(nil), x...)
	if len(rows) > len(cols)+1 {
		target := make([]float64, len(rows))
		sub := make([][]float64, len(cols))
		for j := range sub {
			sub[j] = make([]float64, len(rows))
		}
		for i, t := range rows {
			target[i] = x[t]
			for j, col := range cols {
				sub[j][i] = col[t]
			}
		}
		model, err := models.FitSeries(target, sub...)
		if err == nil {
			for t, v := range x {
				if !math.IsNaN(v) {
					continue
				}
				pred := model.Intercept()
				for j, b := range model.Coef() {
					pred += b * cols[j][t]
				}
				filled[t] = pred
			}
		}
	}
	if hasNaN(filled) {
		filled = interpolateLinear(filled)
	}

	fit, err := e.robustSTL(filled, m)
	if err != nil {
		return nil, err
	}
	sa := make([]float64, n)
	for t := range sa {
		sa[t] = math.NaN()
		if !math.IsNaN(x[t]) {
			sa[t] = filled[t] - fit.Seasonal[t]
		}
	}
	sa = interpolateLinear(sa)
	out := append([]float64(nil), x...)
	for t, v := range x {
		if math.IsNaN(v) {
			out[t] = sa[t] + fit.Seasonal[t]
		}
	}
	if !math.IsNaN(lambda) {
		out = invBoxCox(out, lambda)
		for t, v := range y {
			if !math.IsNaN(v) {
				out[t] = v
			}
		}
	}
	return out, nil
}

// outliers returns the positions of y whose residual from a loess trend, after seasonal
// adjustment of strongly seasonal series, lies three interquartile ranges outside the
// quartiles.
func (e *Engine) outliers(y []float64, freq float64, lambda float64) ([]int, error) {
	xx, err := e.interpolate(y, freq, lambda)
	if err != nil {
		return nil, err
	}
	if stats.IsConstant(xx) {
		return nil, nil
	}
	if !math.IsNaN(lambda) {
		xx = boxCox(xx, lambda)
	}
	n := len(xx)
	if m := int(math.Round(freq)); m > 1 && n > 2*m {
		fit, err := e.robustSTL(xx, m)
		if err == nil {
			detrend := make([]float64, n)
			for i := range detrend {
				detrend[i] = xx[i] - fit.Trend[i]
			}
			strength := 1 - stats.NaNVariance(fit.Remainder)/stats.NaNVariance(detrend)
			if strength >= seasonalStrengthCutoff {
				xx = adjust(xx, fit.Seasonal, false)
			}
		}
	}

	trend := stats.Smooth(xx, trendSpan(n))
	resid := make([]float64, n)
	for i := range resid {
		resid[i] = xx[i] - trend[i]
		if math.IsNaN(y[i]) {
			resid[i] = math.NaN()
		}
	}
	var scale float64
	for _, v := range xx {
		scale = math.Max(scale, math.Abs(v))
	}
	return stats.DetectOutliersMinRange(resid, 0.25, 0.75, 3, residualFloor*scale), nil
}

func trendSpan(n int) int {
	return max(3, int(0.2*float64(n)))
}

// trendEnds sets the positions of idx lying before the first or after the last observation of
// x in dst, from a straight line through the nearest span observations of x.
func trendEnds(dst, x []float64, idx []int, span int) {
	var obs []int
	for t, v := range x {
		if !math.IsNaN(v) {
			obs = append(obs, t)
		}
	}
	if len(obs) < 2 {
		return
	}
	line := func(pts []int) func(t int) float64 {
		y := make([]float64, len(pts))
		tt := make([]float64, len(pts))
		for i, p := range pts {
			y[i], tt[i] = x[p], float64(p)
		}
		model, err := models.FitSeries(y, tt)
		if err != nil {
			return nil
		}
		return func(t int) float64 {
			return model.Intercept() + model.Coef()[0]*float64(t)
		}
	}
	head := line(obs[:min(span, len(obs))])
	tail := line(obs[max(0, len(obs)-span):])
	first, last := obs[0], obs[len(obs)-1]
	for _, i := range idx {
		switch {
		case i < first && head != nil:
			dst[i] = head(i)
		case i > last && tail != nil:
			dst[i] = tail(i)
		}
	}
}

// clean replaces outliers, searching twice, and optionally fills missing values.
func (e *Engine) clean(y []float64, freq float64, replaceMissing bool, lambda float64) ([]float64, error) {
	x := append([]float64(nil), y...)
	for iter := 0; iter < 2; iter++ {
		idx, err := e.outliers(x, freq, lambda)
		if err != nil {
			return nil, err
		}
		if len(idx) == 0 {
			break
		}
		for _, i := range idx {
			x[i] = math.NaN()
		}
		filled, err := e.interpolate(x, freq, lambda)
		if err != nil {
			return nil, err
		}
		if m := int(math.Round(freq)); m <= 1 || len(x) <= 2*m {
			trendEnds(filled, x, idx, trendSpan(len(x)))
		}
		for _, i := range idx {
			x[i] = filled[i]
		}
	}
	if replaceMissing {
		return e.interpolate(x, freq, lambda)
	}
	return x, nil
}

func (e *Engine) naInterp(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only("lambda"); err != nil {
		return nil, err
	}
	ts, err := series(x)
	if err != nil {
		return nil, err
	}
	lambda, err := a.optFloat("lambda")
	if err != nil {
		return nil, err
	}
	out, err := e.interpolate(ts.Values, ts.Frequency, lambda)
	if err != nil {
		return nil, err
	}
	return ts.WithValues(out), nil
}

func (e *Engine) tsclean(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only("replace.missing", "lambda"); err != nil {
		return nil, err
	}
	ts, err := series(x)
	if err != nil {
		return nil, err
	}
	replace, err := a.bool("replace.missing", true)
	if err != nil {
		return nil, err
	}
	lambda, err := a.optFloat("lambda")
	if err != nil {
		return nil, err
	}
	out, err := e.clean(ts.Values, ts.Frequency, replace, lambda)
	if err != nil {
		return nil, err
	}
	return ts.WithValues(out), nil
}
