package native

import (
	"context"
	"fmt"
	"math"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/models"
	"github.com/aouyang1/go-forecastbridge/stats"
)

var forecastArgs = []string{"h", "level", "fan", "lambda"}

func withArgs(names ...string) []string {
	return append(append([]string(nil), forecastArgs...), names...)
}

// spec is the common setup of every forecasting function: the series on its transformed
// scale, the horizon and the levels.
type spec struct {
	x      *engine.TimeSeries
	y      []float64
	lambda float64
	h      int
	levels []float64
}

func (e *Engine) prepare(x engine.Object, a args) (*spec, error) {
	ts, err := series(x)
	if err != nil {
		return nil, err
	}
	if ts.Len() == 0 {
		return nil, fmt.Errorf("empty series, %w", ErrInsufficientData)
	}
	s := &spec{x: ts, y: ts.Values}
	if s.h, err = a.horizon(ts.Frequency); err != nil {
		return nil, err
	}
	if s.levels, err = a.levels(); err != nil {
		return nil, err
	}
	if s.lambda, err = e.lambdaArg(ts, a); err != nil {
		return nil, err
	}
	if !math.IsNaN(s.lambda) {
		s.y = boxCox(ts.Values, s.lambda)
	}
	return s, nil
}

// finish back-transforms when a lambda was given.
func (s *spec) finish(fc *engine.Forecast) *engine.Forecast {
	if !math.IsNaN(s.lambda) {
		backTransform(fc, s.x, s.lambda)
	}
	return fc
}

func (s *spec) scaled() *engine.TimeSeries {
	return s.x.WithValues(s.y)
}

func (e *Engine) meanf(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only(forecastArgs...); err != nil {
		return nil, err
	}
	s, err := e.prepare(x, a)
	if err != nil {
		return nil, err
	}

	n := len(s.y)
	mean := stats.NaNMean(s.y)
	sd := math.Sqrt(stats.NaNVariance(s.y))

	fitted := make([]float64, n)
	point := make([]float64, s.h)
	se := make([]float64, s.h)
	for i := range fitted {
		fitted[i] = mean
	}
	for i := range point {
		point[i] = mean
		se[i] = sd * math.Sqrt(1+1/float64(n))
	}

	quantile := func(lvl float64) float64 { return math.Inf(1) }
	if n > 1 {
		quantile = func(lvl float64) float64 { return studentQuantile(lvl, float64(n-1)) }
	}
	lower, upper := intervals(point, se, s.levels, quantile)
	fc := assemble("Mean", s.scaled(), point, lower, upper, s.levels, fitted)
	return s.finish(fc), nil
}

func (e *Engine) naive(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only(forecastArgs...); err != nil {
		return nil, err
	}
	s, err := e.prepare(x, a)
	if err != nil {
		return nil, err
	}
	fc, err := lagwalk(s, 1, false)
	if err != nil {
		return nil, err
	}
	fc.Method = "Naive method"
	return s.finish(fc), nil
}

func (e *Engine) snaive(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only(forecastArgs...); err != nil {
		return nil, err
	}
	s, err := e.prepare(x, a)
	if err != nil {
		return nil, err
	}
	lag := max(1, int(math.Round(s.x.Frequency)))
	fc, err := lagwalk(s, lag, false)
	if err != nil {
		return nil, err
	}
	fc.Method = "Seasonal naive method"
	return s.finish(fc), nil
}

func (e *Engine) rwf(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only(withArgs("drift")...); err != nil {
		return nil, err
	}
	drift, err := a.bool("drift", false)
	if err != nil {
		return nil, err
	}
	s, err := e.prepare(x, a)
	if err != nil {
		return nil, err
	}
	fc, err := lagwalk(s, 1, drift)
	if err != nil {
		return nil, err
	}
	fc.Method = "Random walk"
	if drift {
		fc.Method = "Random walk with drift"
	}
	return s.finish(fc), nil
}

// lagwalk forecasts y[t] = y[t-lag] + b. Without drift b is zero and sigma is the root mean
// square lag difference. With drift b and its standard error come from regressing the lag
// differences on a constant.
func lagwalk(s *spec, lag int, drift bool) (*engine.Forecast, error) {
	n := len(s.y)
	if n <= lag {
		return nil, fmt.Errorf("%d observations for lag %d, %w", n, lag, ErrInsufficientData)
	}
	d := stats.Finite(stats.Diff(s.y, lag, 1))
	if len(d) == 0 {
		return nil, fmt.Errorf("no complete lag differences, %w", ErrInsufficientData)
	}

	var b, bse, sigma float64
	if drift {
		if len(d) < 2 {
			return nil, fmt.Errorf("drift needs two differences, %w", ErrInsufficientData)
		}
		model, err := models.FitSeries(d)
		if err != nil {
			return nil, err
		}
		b = model.Coef()[0]
		bse = model.StdErr()[0]
		sigma = model.Sigma()
	} else {
		var ss float64
		for _, v := range d {
			ss += v * v
		}
		sigma = math.Sqrt(ss / float64(len(d)))
	}

	fitted := make([]float64, n)
	for i := range fitted {
		if i < lag {
			fitted[i] = math.NaN()
			continue
		}
		fitted[i] = s.y[i-lag] + b
	}

	point := make([]float64, s.h)
	se := make([]float64, s.h)
	for i := range point {
		steps := float64(i/lag + 1)
		point[i] = s.y[n-lag+i%lag] + steps*b
		se[i] = math.Sqrt(sigma*sigma*steps + (steps*bse)*(steps*bse))
	}
	return newForecast("", s.scaled(), point, se, s.levels, fitted), nil
}
