package native

import (
	"context"
	"math"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/models"
	"github.com/aouyang1/go-forecastbridge/stats"

	"gonum.org/v1/gonum/floats"
)

// seasonalACF tests the lag m autocorrelation against its 90% two-sided bound.
func seasonalACF(y []float64, m int) bool {
	n := len(y)
	if m <= 1 || n <= 2*m || stats.IsConstant(y) {
		return false
	}
	acf, err := stats.ACF(y, m)
	if err != nil || len(acf) <= m {
		return false
	}
	var ss float64
	for k := 1; k < m; k++ {
		ss += acf[k] * acf[k]
	}
	stat := math.Sqrt((1 + 2*ss) / float64(n))
	return math.Abs(acf[m])/stat > normalQuantile(90)
}

// thetaf is simple exponential smoothing with drift equal to half the slope of a linear
// trend, applied to the multiplicatively adjusted series when it tests seasonal.
func (e *Engine) thetaf(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only(forecastArgs...); err != nil {
		return nil, err
	}
	sp, err := e.prepare(x, a)
	if err != nil {
		return nil, err
	}
	if hasNaN(sp.y) {
		return nil, ErrMissingValues
	}

	m := periodOf(sp.x)
	y := sp.y
	var season []float64
	if floats.Min(y) > 0 && seasonalACF(y, m) {
		dc, err := stats.Decompose(y, m, stats.Multiplicative)
		if err == nil {
			season = dc.Seasonal
			y = adjust(y, season, true)
		}
	}

	fit, err := e.fitETS(y, newETSSpec(trendNone, false, 1))
	if err != nil {
		return nil, err
	}
	n := len(y)
	t := make([]float64, n)
	for i := range t {
		t[i] = float64(i)
	}
	trend, err := models.FitSeries(y, t)
	if err != nil {
		return nil, err
	}
	drift := trend.Coef()[0] / 2
	alpha := math.Max(1e-10, fit.alpha)

	point, _ := fit.forecast(sp.h)
	se := make([]float64, sp.h)
	for i := range point {
		point[i] += drift * (float64(i) + (1-math.Pow(1-alpha, float64(n)))/alpha)
		se[i] = math.Sqrt(fit.sigma2) * math.Sqrt(float64(i)*alpha*alpha+1)
	}
	lower, upper := intervals(point, se, sp.levels, normalQuantile)
	fitted := fit.fitted

	if season != nil {
		future := lastSeason(season, m, sp.h)
		floats.Mul(point, future)
		for i := range lower {
			floats.Mul(lower[i], future)
			floats.Mul(upper[i], future)
		}
		fitted = append([]float64(nil), fitted...)
		floats.Mul(fitted, season)
	}
	fc := assemble("Theta", sp.scaled(), point, lower, upper, sp.levels, fitted)
	return sp.finish(fc), nil
}
