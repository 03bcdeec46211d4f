package native

import (
	"context"
	"fmt"
	"math"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/models"
	"github.com/aouyang1/go-forecastbridge/stats"

	"gonum.org/v1/gonum/floats"
)

// Box-Cox methods for choosing lambda.
const (
	lambdaGuerrero = "guerrero"
	lambdaLoglik   = "loglik"
)

func boxCox(x []float64, lambda float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		switch {
		case lambda < 0 && v < 0:
			out[i] = math.NaN()
		case lambda == 0:
			out[i] = math.Log(v)
		default:
			sign := 1.0
			if v < 0 {
				sign = -1
			}
			out[i] = (sign*math.Pow(math.Abs(v), lambda) - 1) / lambda
		}
	}
	return out
}

func invBoxCox(x []float64, lambda float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		switch {
		case lambda < 0 && v > -1/lambda:
			out[i] = math.NaN()
		case lambda == 0:
			out[i] = math.Exp(v)
		default:
			xx := v*lambda + 1
			sign := 1.0
			if xx < 0 {
				sign = -1
			}
			out[i] = sign * math.Pow(math.Abs(xx), 1/lambda)
		}
	}
	return out
}

// guerrero is the coefficient of variation of sd/mean^(1-lambda) over consecutive
// non-overlapping subseries.
func guerrero(x []float64, lambda float64, period int) float64 {
	nyr := len(x) / period
	tail := x[len(x)-nyr*period:]
	rat := make([]float64, 0, nyr)
	for k := 0; k < nyr; k++ {
		sub := stats.Finite(tail[k*period : (k+1)*period])
		if len(sub) < 2 {
			continue
		}
		mean := stats.NaNMean(sub)
		sd := math.Sqrt(stats.NaNVariance(sub))
		rat = append(rat, sd/math.Pow(mean, 1-lambda))
	}
	if len(rat) < 2 {
		return math.Inf(1)
	}
	return math.Sqrt(stats.NaNVariance(rat)) / stats.NaNMean(rat)
}

// profileLoglik is the Box-Cox profile log likelihood of a trend and seasonal dummy regression.
func profileLoglik(x []float64, freq int, lambda float64) float64 {
	logx := make([]float64, len(x))
	for i, v := range x {
		logx[i] = math.Log(v)
	}
	xdot := math.Exp(stats.NaNMean(logx))

	xt := make([]float64, len(x))
	for i, v := range x {
		if math.Abs(lambda) > 0.02 {
			xt[i] = (math.Pow(v, lambda) - 1) / lambda
		} else {
			l := lambda * logx[i]
			xt[i] = logx[i] * (1 + l/2*(1+l/3*(1+l/4)))
		}
		xt[i] /= math.Pow(xdot, lambda-1)
	}

	cols := [][]float64{make([]float64, len(x))}
	for i := range cols[0] {
		cols[0][i] = float64(i + 1)
	}
	for s := 1; s < freq && len(x) > freq+1; s++ {
		dummy := make([]float64, len(x))
		for i := s; i < len(x); i += freq {
			dummy[i] = 1
		}
		cols = append(cols, dummy)
	}
	model, err := models.FitSeries(xt, cols...)
	if err != nil {
		return math.Inf(-1)
	}
	res := model.Residuals()
	return -float64(len(x)) / 2 * math.Log(floats.Dot(res, res))
}

func (e *Engine) lambdaFor(x *engine.TimeSeries, method string, lower, upper float64) (float64, error) {
	y := stats.Finite(x.Values)
	if len(y) < 3 {
		return 0, fmt.Errorf("%d observations, %w", len(y), ErrInsufficientData)
	}
	if floats.Min(y) <= 0 {
		lower = math.Max(lower, 0)
	}
	if stats.IsConstant(y) {
		return 1, nil
	}

	switch method {
	case lambdaGuerrero:
		period := max(2, int(math.Round(x.Frequency)))
		if len(y) < 2*period {
			return 1, nil
		}
		return e.minimize1(func(l float64) float64 { return guerrero(y, l, period) }, lower, upper), nil
	case lambdaLoglik:
		if floats.Min(y) <= 0 {
			return 0, ErrNonPositiveValues
		}
		best, bestLL := lower, math.Inf(-1)
		for l := lower; l <= upper+1e-9; l += 0.05 {
			if ll := profileLoglik(y, int(math.Round(x.Frequency)), l); ll > bestLL {
				best, bestLL = l, ll
			}
		}
		return math.Round(best*100) / 100, nil
	default:
		return 0, fmt.Errorf("unknown method %q, %w", method, ErrBadArgument)
	}
}

// lambdaArg reads lambda, which may be a number, "auto", or unset (NaN).
func (e *Engine) lambdaArg(x *engine.TimeSeries, a args) (float64, error) {
	if s, ok := a["lambda"].(string); ok {
		if s != "auto" {
			return 0, fmt.Errorf("lambda must be a number or \"auto\", %w", ErrBadArgument)
		}
		return e.lambdaFor(x, lambdaGuerrero, -1, 2)
	}
	return a.optFloat("lambda")
}

func (e *Engine) boxCox(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only("lambda"); err != nil {
		return nil, err
	}
	ts, err := series(x)
	if err != nil {
		return nil, err
	}
	lambda, err := e.lambdaArg(ts, a)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(lambda) {
		return nil, fmt.Errorf("lambda is required, %w", ErrBadArgument)
	}
	return ts.WithValues(boxCox(ts.Values, lambda)), nil
}

func (e *Engine) invBoxCox(_ context.Context, x engine.Object, a args) (engine.Object, error) {
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
	if math.IsNaN(lambda) {
		return nil, fmt.Errorf("lambda is required, %w", ErrBadArgument)
	}
	return ts.WithValues(invBoxCox(ts.Values, lambda)), nil
}

func (e *Engine) boxCoxLambda(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only("method", "lower", "upper"); err != nil {
		return nil, err
	}
	ts, err := series(x)
	if err != nil {
		return nil, err
	}
	method, err := a.string("method", lambdaGuerrero)
	if err != nil {
		return nil, err
	}
	lower, err := a.float("lower", -1)
	if err != nil {
		return nil, err
	}
	upper, err := a.float("upper", 2)
	if err != nil {
		return nil, err
	}
	if lower >= upper {
		return nil, fmt.Errorf("lower %v must be below upper %v, %w", lower, upper, ErrBadArgument)
	}
	lambda, err := e.lambdaFor(ts, method, lower, upper)
	if err != nil {
		return nil, err
	}
	return engine.Vector{lambda}, nil
}
