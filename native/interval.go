package native

import (
	"math"

	"github.com/aouyang1/go-forecastbridge/engine"

	"gonum.org/v1/gonum/stat/distuv"
)

func normalQuantile(level float64) float64 {
	return distuv.UnitNormal.Quantile(0.5 + level/200)
}

func studentQuantile(level, df float64) float64 {
	return distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}.Quantile(0.5 + level/200)
}

// intervals builds symmetric bounds mean ± q(level)·se for every level.
func intervals(mean, se, levels []float64, quantile func(float64) float64) ([][]float64, [][]float64) {
	lower := make([][]float64, len(levels))
	upper := make([][]float64, len(levels))
	for i, lvl := range levels {
		q := quantile(lvl)
		lower[i] = make([]float64, len(mean))
		upper[i] = make([]float64, len(mean))
		for h := range mean {
			lower[i][h] = mean[h] - q*se[h]
			upper[i][h] = mean[h] + q*se[h]
		}
	}
	return lower, upper
}

// newForecast assembles a forecast whose mean starts one step after the end of x.
func newForecast(method string, x *engine.TimeSeries, mean, se, levels []float64, fitted []float64) *engine.Forecast {
	lower, upper := intervals(mean, se, levels, normalQuantile)
	return assemble(method, x, mean, lower, upper, levels, fitted)
}

func assemble(method string, x *engine.TimeSeries, mean []float64, lower, upper [][]float64, levels, fitted []float64) *engine.Forecast {
	fc := &engine.Forecast{
		Method: method,
		Mean: &engine.TimeSeries{
			Tsp:    engine.Tsp{Start: x.Next(), Frequency: x.Frequency},
			Values: mean,
		},
		Lower: lower,
		Upper: upper,
		Level: levels,
		X:     x.Copy(),
	}
	if fitted != nil {
		fc.Fitted = fitted
		fc.Residuals = make([]float64, len(fitted))
		for i := range fitted {
			fc.Residuals[i] = x.Values[i] - fitted[i]
		}
	}
	return fc
}

// backTransform maps a forecast fitted on a Box-Cox scale back to the original one. Bounds
// are transformed pointwise and the point forecast is the median.
func backTransform(fc *engine.Forecast, x *engine.TimeSeries, lambda float64) {
	fc.Mean.Values = invBoxCox(fc.Mean.Values, lambda)
	for i := range fc.Level {
		fc.Lower[i] = invBoxCox(fc.Lower[i], lambda)
		fc.Upper[i] = invBoxCox(fc.Upper[i], lambda)
	}
	if fc.Fitted != nil {
		fc.Fitted = invBoxCox(fc.Fitted, lambda)
		for i := range fc.Fitted {
			fc.Residuals[i] = x.Values[i] - fc.Fitted[i]
		}
	}
	fc.X = x.Copy()
}

func sqrtAll(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Sqrt(x)
	}
	return out
}
