package forecastbridge

import (
	"context"
	"fmt"
	"maps"

	"github.com/aouyang1/go-forecastbridge/convert"
	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/frame"
	"github.com/aouyang1/go-forecastbridge/kwargs"
	"github.com/aouyang1/go-forecastbridge/validate"
)

func with(args kwargs.Args, extra kwargs.Args) kwargs.Args {
	out := maps.Clone(extra)
	maps.Copy(out, args)
	return out
}

// Stl decomposes x by loess. sWindow is the seasonal window, a span or "periodic".
func (b *Bridge) Stl(ctx context.Context, x any, sWindow any, args kwargs.Args) (convert.Result, error) {
	return b.run(ctx, &call{
		fn:   "stl",
		x:    x,
		args: with(args, kwargs.Args{"s_window": sWindow}),
		kind: convert.ResultDecomposition,
	})
}

// Decompose is the classical moving-average decomposition of type "additive" or
// "multiplicative". Trend and remainder are missing at both ends.
func (b *Bridge) Decompose(ctx context.Context, x any, typ string) (convert.Result, error) {
	return b.run(ctx, &call{
		fn:   "decompose",
		x:    x,
		args: kwargs.Args{"type": typ},
		kind: convert.ResultDecomposition,
	})
}

// Seasadj removes the seasonal component of a decomposition from its data.
func (b *Bridge) Seasadj(ctx context.Context, dc any) (convert.Result, error) {
	return b.run(ctx, &call{
		fn:     "seasadj",
		x:      dc,
		kind:   convert.ResultSeries,
		accept: acceptDecomposition,
	})
}

// Sindexf projects the seasonal component of a decomposition h steps ahead.
func (b *Bridge) Sindexf(ctx context.Context, dc any, h int) (convert.Result, error) {
	return b.run(ctx, &call{
		fn:     "sindexf",
		x:      dc,
		args:   kwargs.Args{"h": h},
		kind:   convert.ResultSeries,
		accept: acceptDecomposition,
	})
}

// BoxCox transforms x with parameter lam.
func (b *Bridge) BoxCox(ctx context.Context, x any, lam float64) (convert.Result, error) {
	return b.run(ctx, &call{fn: "BoxCox", x: x, args: kwargs.Args{"lam": lam}, kind: convert.ResultSeries})
}

// InvBoxCox reverses BoxCox.
func (b *Bridge) InvBoxCox(ctx context.Context, x any, lam float64) (convert.Result, error) {
	return b.run(ctx, &call{fn: "InvBoxCox", x: x, args: kwargs.Args{"lam": lam}, kind: convert.ResultSeries})
}

// NaInterp fills missing values.
func (b *Bridge) NaInterp(ctx context.Context, x any, args kwargs.Args) (convert.Result, error) {
	return b.run(ctx, &call{fn: "na.interp", x: x, args: args, kind: convert.ResultSeries})
}

// Tsclean replaces outliers and fills missing values.
func (b *Bridge) Tsclean(ctx context.Context, x any, args kwargs.Args) (convert.Result, error) {
	return b.run(ctx, &call{fn: "tsclean", x: x, args: args, kind: convert.ResultSeries})
}

// BoxCoxLambda estimates a Box-Cox parameter for x.
func (b *Bridge) BoxCoxLambda(ctx context.Context, x any, args kwargs.Args) (float64, error) {
	return b.scalar(ctx, &call{fn: "BoxCox.lambda", x: x, args: args})
}

// Frequency returns the number of observations per period of x, 1 when it is not seasonal.
func (b *Bridge) Frequency(ctx context.Context, x any) (float64, error) {
	return b.scalar(ctx, &call{fn: "frequency", x: x})
}

// Findfrequency estimates the dominant period of x from its spectrum.
func (b *Bridge) Findfrequency(ctx context.Context, x any) (int, error) {
	f, err := b.scalar(ctx, &call{fn: "findfrequency", x: x})
	return int(f), err
}

// Ndiffs is the number of first differences needed to make x stationary.
func (b *Bridge) Ndiffs(ctx context.Context, x any, args kwargs.Args) (int, error) {
	f, err := b.scalar(ctx, &call{fn: "ndiffs", x: x, args: args})
	return int(f), err
}

// Nsdiffs is the number of seasonal differences needed to make x stationary.
func (b *Bridge) Nsdiffs(ctx context.Context, x any, args kwargs.Args) (int, error) {
	f, err := b.scalar(ctx, &call{fn: "nsdiffs", x: x, args: args})
	return int(f), err
}

// Acf returns the autocorrelations of x. A host series comes back as a series labeled by lag,
// without lag 0.
func (b *Bridge) Acf(ctx context.Context, x any, args kwargs.Args) (convert.Result, error) {
	return b.run(ctx, &call{fn: "Acf", x: x, args: args, kind: convert.ResultACF})
}

// Pacf returns the partial autocorrelations of x, starting at lag 1.
func (b *Bridge) Pacf(ctx context.Context, x any, args kwargs.Args) (convert.Result, error) {
	return b.run(ctx, &call{fn: "Pacf", x: x, args: args, kind: convert.ResultACF})
}

// Accuracy scores a forecast on its training data and, when test is given, on test data. The
// forecast may be an engine forecast or a prediction-interval table. A table carries no fitted
// values, so its training row is missing, and data supplies the training series the scaled
// errors need. test may be either kind of series. The result is a host accuracy table when fc
// is a table and an engine matrix otherwise.
func (b *Bridge) Accuracy(ctx context.Context, fc, data, test any) (convert.Result, error) {
	accept := func(x any) (engine.Object, convert.Origin, error) {
		v, err := recognize(x, "a native or external forecast",
			validate.KindHostForecast, validate.KindEngineForecast)
		if err != nil {
			return nil, 0, err
		}
		if v.Kind == validate.KindEngineForecast {
			return v.Engine, convert.OriginEngine, nil
		}
		var training *frame.Series
		if data != nil {
			s, err := convert.ToSeries(data)
			if err != nil {
				return nil, 0, fmt.Errorf("bad training data, %w", err)
			}
			training = s
		}
		f, err := convert.FromForecastTable(v.Table, training)
		if err != nil {
			return nil, 0, err
		}
		return f, convert.OriginHost, nil
	}

	args := kwargs.Args{}
	if test != nil {
		ts, _, err := convert.AcceptEither(test)
		if err != nil {
			return convert.Result{}, fmt.Errorf("bad test data, %w", err)
		}
		args["x"] = ts
	}
	return b.run(ctx, &call{
		fn:     "accuracy",
		x:      fc,
		args:   args,
		kind:   convert.ResultAccuracy,
		accept: accept,
	})
}
