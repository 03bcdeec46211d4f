package native

import (
	"context"
	"fmt"
	"math"

	"github.com/aouyang1/go-forecastbridge/engine"
)

// Forecasting methods for the seasonally adjusted series of stlf.
const (
	stlfETS     = "ets"
	stlfARIMA   = "arima"
	stlfNaive   = "naive"
	stlfRWDrift = "rwdrift"
)

// stlfWindow is the seasonal window stlf uses when none is given.
const stlfWindow = 13

var stlfArgs = append(withArgs("method", "etsmodel", "xreg", "newxreg"), stlArgs...)

// stlfForecast decomposes the prepared series, forecasts its seasonally adjusted part and
// adds back the last year of the seasonal component.
func (e *Engine) stlfForecast(ctx context.Context, sp *spec, a args) (*engine.Forecast, error) {
	method, err := a.string("method", stlfETS)
	if err != nil {
		return nil, err
	}
	if method != stlfARIMA && (a.has("xreg") || a.has("newxreg")) {
		return nil, fmt.Errorf("xreg requires method %q, %w", stlfARIMA, ErrBadArgument)
	}
	etsModel, err := a.string("etsmodel", "ZZN")
	if err != nil {
		return nil, err
	}

	opt, err := e.stlOptions(a, false)
	if err != nil {
		return nil, err
	}
	if !a.has("s.window") {
		opt.Periodic = false
		opt.SeasonalWindow = stlfWindow
	}
	dc, err := decomposeSTL(sp.scaled(), opt)
	if err != nil {
		return nil, err
	}
	season := dc.Components.Columns[0]
	adjusted := adjust(sp.y, season, false)
	sa := &spec{
		x:      sp.x.WithValues(adjusted),
		y:      adjusted,
		lambda: math.NaN(),
		h:      sp.h,
		levels: sp.levels,
	}

	var fc *engine.Forecast
	switch method {
	case stlfETS:
		fc, err = e.etsForecast(ctx, sa, args{"model": etsModel})
	case stlfARIMA:
		fc, err = e.autoArimaForecast(ctx, sa, args{
			"seasonal": false,
			"xreg":     a["xreg"],
			"newxreg":  a["newxreg"],
		})
	case stlfNaive:
		fc, err = lagwalk(sa, 1, false)
		if fc != nil {
			fc.Method = "Naive method"
		}
	case stlfRWDrift:
		fc, err = lagwalk(sa, 1, true)
		if fc != nil {
			fc.Method = "Random walk with drift"
		}
	default:
		return nil, fmt.Errorf("method %q, %w", method, ErrBadArgument)
	}
	if err != nil {
		return nil, err
	}

	future := lastSeason(season, periodOf(sp.x), sp.h)
	for i := range fc.Mean.Values {
		fc.Mean.Values[i] += future[i]
		for l := range fc.Level {
			fc.Lower[l][i] += future[i]
			fc.Upper[l][i] += future[i]
		}
	}
	x := sp.scaled()
	if fc.Fitted != nil {
		for i := range fc.Fitted {
			fc.Fitted[i] += season[i]
			fc.Residuals[i] = x.Values[i] - fc.Fitted[i]
		}
	}
	fc.X = x.Copy()
	fc.Method = "STL +  " + fc.Method
	return fc, nil
}

func (e *Engine) stlf(ctx context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only(stlfArgs...); err != nil {
		return nil, err
	}
	sp, err := e.prepare(x, a)
	if err != nil {
		return nil, err
	}
	fc, err := e.stlfForecast(ctx, sp, a)
	if err != nil {
		return nil, err
	}
	return sp.finish(fc), nil
}

// forecast picks a method from the series: exponential smoothing for frequencies up to 12,
// stlf for longer seasonal series, and the mean for three observations or fewer.
func (e *Engine) forecast(ctx context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only(withArgs("robust", "find.frequency")...); err != nil {
		return nil, err
	}
	ts, err := series(x)
	if err != nil {
		return nil, err
	}
	findFreq, err := a.bool("find.frequency", false)
	if err != nil {
		return nil, err
	}
	if findFreq {
		if ts, err = engine.NewTimeSeries(ts.Values, ts.Start, float64(findFrequency(ts.Values))); err != nil {
			return nil, err
		}
	}
	robust, err := a.bool("robust", false)
	if err != nil {
		return nil, err
	}

	inner := args{}
	for _, k := range forecastArgs {
		if a.has(k) {
			inner[k] = a[k]
		}
	}
	if robust {
		lambda, err := e.lambdaArg(ts, inner)
		if err != nil {
			return nil, err
		}
		cleaned, err := e.clean(ts.Values, ts.Frequency, true, lambda)
		if err != nil {
			return nil, err
		}
		ts = ts.WithValues(cleaned)
	}

	n := ts.Len()
	switch {
	case n <= 3:
		return e.meanf(ctx, ts, inner)
	case ts.Frequency < 13:
		return e.ets(ctx, ts, inner)
	case n > 2*periodOf(ts):
		return e.stlf(ctx, ts, inner)
	default:
		inner["model"] = "ZZN"
		return e.ets(ctx, ts, inner)
	}
}
