// Package forecastbridge exposes the models of a forecasting engine to Go code holding labeled
// series. Every method accepts either a host series (frame.Series) or an engine time series,
// hands the work to the engine, and returns the result in the same family as its input.
package forecastbridge

import (
	"context"
	"errors"
	"maps"

	"github.com/aouyang1/go-forecastbridge/convert"
	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/kwargs"
)

var ErrNoEngine = errors.New("no engine given")

// Bridge calls an engine on behalf of host code. It adds no locking of its own.
type Bridge struct {
	eng engine.Engine
	opt *Options
}

// New returns a bridge to eng. Default options are used when opt is nil.
func New(eng engine.Engine, opt *Options) (*Bridge, error) {
	if eng == nil {
		return nil, ErrNoEngine
	}
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if opt.Logger == nil {
		opt.Logger = newLogger()
	}
	if _, err := checkLevels(opt.Levels); err != nil {
		return nil, err
	}
	return &Bridge{eng: eng, opt: opt}, nil
}

// TS builds an engine time series the way the engine's ts() does.
func TS(values []float64, opt *engine.TSOptions) (*engine.TimeSeries, error) {
	return engine.TS(values, opt)
}

// DefaultHorizon is two periods for seasonal series and ten steps otherwise, or whatever the
// bridge's horizon options say.
func (b *Bridge) DefaultHorizon(ctx context.Context, x any) (int, error) {
	freq, err := b.Frequency(ctx, x)
	if err != nil {
		return 0, err
	}
	return b.opt.Horizon.For(freq), nil
}

// forecastArgs fills in the horizon and levels and checks what can be checked locally.
func (b *Bridge) forecastArgs(smoothing, regressors bool) prepareFunc {
	return func(x engine.Object, args kwargs.Args) error {
		ts := x.(*engine.TimeSeries)
		if smoothing {
			if err := checkSmoothing(args); err != nil {
				return err
			}
		}
		if regressors {
			if err := checkRegressors(args, ts.Len()); err != nil {
				return err
			}
		}
		if args["h"] == nil {
			args["h"] = b.opt.Horizon.For(ts.Frequency)
		}

		switch {
		case args["level"] != nil:
			lv, err := levelsArg(args["level"])
			if err != nil {
				return err
			}
			args["level"] = lv
		case args["fan"] == nil:
			args["level"] = engine.Vector(b.opt.Levels)
		}
		return nil
	}
}

func (b *Bridge) forecast(ctx context.Context, fn string, x any, args kwargs.Args, smoothing, regressors bool) (convert.Result, error) {
	return b.run(ctx, &call{
		fn:      fn,
		x:       x,
		args:    args,
		kind:    convert.ResultForecast,
		prepare: b.forecastArgs(smoothing, regressors),
	})
}

// Meanf forecasts the mean of the series.
func (b *Bridge) Meanf(ctx context.Context, x any, args kwargs.Args) (convert.Result, error) {
	return b.forecast(ctx, "meanf", x, args, false, false)
}

// Naive forecasts the last observation.
func (b *Bridge) Naive(ctx context.Context, x any, args kwargs.Args) (convert.Result, error) {
	return b.forecast(ctx, "naive", x, args, false, false)
}

// Snaive forecasts the last observed period.
func (b *Bridge) Snaive(ctx context.Context, x any, args kwargs.Args) (convert.Result, error) {
	return b.forecast(ctx, "snaive", x, args, false, false)
}

// Rwf forecasts a random walk, with drift if asked.
func (b *Bridge) Rwf(ctx context.Context, x any, drift bool, args kwargs.Args) (convert.Result, error) {
	a := kwargs.Args{"drift": drift}
	maps.Copy(a, args)
	return b.forecast(ctx, "rwf", x, a, false, false)
}

// Thetaf forecasts with the theta method.
func (b *Bridge) Thetaf(ctx context.Context, x any, args kwargs.Args) (convert.Result, error) {
	return b.forecast(ctx, "thetaf", x, args, false, false)
}

// Forecast lets the engine choose: exponential smoothing for frequencies up to 12, stlf for
// higher ones.
func (b *Bridge) Forecast(ctx context.Context, x any, args kwargs.Args) (convert.Result, error) {
	return b.forecast(ctx, "forecast", x, args, false, false)
}

// Ets fits an exponential smoothing state space model and forecasts from it.
func (b *Bridge) Ets(ctx context.Context, x any, args kwargs.Args) (convert.Result, error) {
	return b.forecast(ctx, "ets", x, args, true, false)
}

// AutoArima searches for the best ARIMA model. xreg and newxreg must be given together.
func (b *Bridge) AutoArima(ctx context.Context, x any, args kwargs.Args) (convert.Result, error) {
	return b.forecast(ctx, "auto.arima", x, args, false, true)
}

// Arima fits the ARIMA model given by order, seasonal and include_constant.
func (b *Bridge) Arima(ctx context.Context, x any, args kwargs.Args) (convert.Result, error) {
	return b.forecast(ctx, "Arima", x, args, false, true)
}

// Stlf forecasts the seasonally adjusted series and adds the last period of the seasonal
// component back.
func (b *Bridge) Stlf(ctx context.Context, x any, args kwargs.Args) (convert.Result, error) {
	return b.forecast(ctx, "stlf", x, args, false, true)
}

// Ses is simple exponential smoothing.
func (b *Bridge) Ses(ctx context.Context, x any, args kwargs.Args) (convert.Result, error) {
	return b.forecast(ctx, "ses", x, args, true, false)
}

// Holt is exponential smoothing with a trend.
func (b *Bridge) Holt(ctx context.Context, x any, args kwargs.Args) (convert.Result, error) {
	return b.forecast(ctx, "holt", x, args, true, false)
}

// Hw is Holt-Winters exponential smoothing.
func (b *Bridge) Hw(ctx context.Context, x any, args kwargs.Args) (convert.Result, error) {
	return b.forecast(ctx, "hw", x, args, true, false)
}
