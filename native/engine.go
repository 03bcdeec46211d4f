// Package native is an in-process forecasting engine built on gonum. It answers the same
// function names and keyword arguments as the external statistical engine the bridge was
// designed around, so it can stand in for it anywhere an engine.Engine is expected.
package native

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aouyang1/go-forecastbridge/engine"
)

var (
	ErrUnknownFunction   = errors.New("unknown engine function")
	ErrBadArgument       = errors.New("bad argument")
	ErrInsufficientData  = errors.New("not enough data")
	ErrMissingValues     = errors.New("series has missing values")
	ErrNotSeasonal       = errors.New("series is not seasonal or has less than two periods of data")
	ErrUnsupportedModel  = errors.New("unsupported model")
	ErrNonPositiveValues = errors.New("series must be positive")
)

// Options tunes the numerical routines of the engine.
type Options struct {
	// MaxIterations bounds the function evaluations of every likelihood optimisation.
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`

	// Tolerance is the absolute change in objective below which an optimisation stops.
	Tolerance float64 `json:"tolerance" yaml:"tolerance"`

	// STLInner and STLOuter are the default inner and robust outer loop counts of stl.
	STLInner int `json:"stl_inner" yaml:"stl_inner"`
	STLOuter int `json:"stl_outer" yaml:"stl_outer"`
}

// NewDefaultOptions returns the options New uses when given nil.
func NewDefaultOptions() *Options {
	return &Options{
		MaxIterations: 2000,
		Tolerance:     1e-8,
		STLInner:      2,
		STLOuter:      15,
	}
}

type handler func(ctx context.Context, x engine.Object, a args) (engine.Object, error)

// Engine implements engine.Engine in process. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	opt   *Options
	funcs map[string]handler
}

// New returns an engine with the given options, or the defaults when opt is nil.
func New(opt *Options) *Engine {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	e := &Engine{opt: opt}
	e.funcs = map[string]handler{
		"meanf":         e.meanf,
		"naive":         e.naive,
		"snaive":        e.snaive,
		"rwf":           e.rwf,
		"thetaf":        e.thetaf,
		"ses":           e.ses,
		"holt":          e.holt,
		"hw":            e.hw,
		"ets":           e.ets,
		"Arima":         e.arima,
		"auto.arima":    e.autoArima,
		"forecast":      e.forecast,
		"stlf":          e.stlf,
		"stl":           e.stl,
		"decompose":     e.decompose,
		"seasadj":       e.seasadj,
		"sindexf":       e.sindexf,
		"BoxCox":        e.boxCox,
		"InvBoxCox":     e.invBoxCox,
		"BoxCox.lambda": e.boxCoxLambda,
		"na.interp":     e.naInterp,
		"tsclean":       e.tsclean,
		"accuracy":      e.accuracy,
		"Acf":           e.acf,
		"Pacf":          e.pacf,
		"findfrequency": e.findFrequency,
		"ndiffs":        e.ndiffs,
		"nsdiffs":       e.nsdiffs,
		"frequency":     e.frequency,
	}
	return e
}

// Functions lists the function names the engine answers to.
func (e *Engine) Functions() []string {
	names := make([]string, 0, len(e.funcs))
	for name := range e.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call implements engine.Engine.
func (e *Engine) Call(ctx context.Context, fn string, x engine.Object, kw engine.Kwargs) (engine.Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h, exists := e.funcs[fn]
	if !exists {
		return nil, fmt.Errorf("%s, %w", fn, ErrUnknownFunction)
	}
	out, err := h(ctx, x, args(kw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fn, err)
	}
	return out, nil
}

func (e *Engine) frequency(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only(); err != nil {
		return nil, err
	}
	switch v := x.(type) {
	case *engine.TimeSeries:
		return engine.Vector{v.Frequency}, nil
	case *engine.MultiSeries:
		return engine.Vector{v.Frequency}, nil
	default:
		return engine.Vector{1}, nil
	}
}
