package native

import (
	"context"
	"errors"
	"fmt"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/stats"
)

// Component names of an stl decomposition, in column order.
var stlNames = []string{"seasonal", "trend", "remainder"}

var stlArgs = []string{"s.window", "s.degree", "t.window", "t.degree", "l.window", "robust", "inner", "outer"}

// stlOptions reads the loess settings. s.window is "periodic" or an odd span; when required
// is false a missing s.window means periodic.
func (e *Engine) stlOptions(a args, required bool) (*stats.STLOptions, error) {
	opt := stats.NewDefaultSTLOptions()
	switch w := a["s.window"].(type) {
	case nil:
		if required {
			return nil, fmt.Errorf("s.window is required, %w", ErrBadArgument)
		}
	case string:
		if w != "periodic" {
			return nil, fmt.Errorf("s.window %q, %w", w, ErrBadArgument)
		}
	default:
		win, err := a.int("s.window", 0)
		if err != nil {
			return nil, err
		}
		if win < 3 {
			return nil, fmt.Errorf("s.window %d must be at least 3, %w", win, ErrBadArgument)
		}
		opt.Periodic = false
		opt.SeasonalWindow = win
	}

	var err error
	if opt.SeasonalDegree, err = a.int("s.degree", 0); err != nil {
		return nil, err
	}
	if opt.TrendDegree, err = a.int("t.degree", 1); err != nil {
		return nil, err
	}
	for _, d := range []int{opt.SeasonalDegree, opt.TrendDegree} {
		if d != 0 && d != 1 {
			return nil, fmt.Errorf("loess degree %d must be 0 or 1, %w", d, ErrBadArgument)
		}
	}
	if opt.TrendWindow, err = a.int("t.window", 0); err != nil {
		return nil, err
	}
	if opt.LowPassWindow, err = a.int("l.window", 0); err != nil {
		return nil, err
	}

	robust, err := a.bool("robust", false)
	if err != nil {
		return nil, err
	}
	opt.Inner, opt.Outer = e.opt.STLInner, 0
	if robust {
		opt.Inner, opt.Outer = 1, e.opt.STLOuter
	}
	if opt.Inner, err = a.int("inner", opt.Inner); err != nil {
		return nil, err
	}
	if opt.Outer, err = a.int("outer", opt.Outer); err != nil {
		return nil, err
	}
	if opt.Inner < 1 || opt.Outer < 0 {
		return nil, fmt.Errorf("inner %d and outer %d loops, %w", opt.Inner, opt.Outer, ErrBadArgument)
	}
	return opt, nil
}

func decomposeSTL(ts *engine.TimeSeries, opt *stats.STLOptions) (*engine.STL, error) {
	m := periodOf(ts)
	if m < 2 || ts.Len() <= 2*m {
		return nil, ErrNotSeasonal
	}
	res, err := stats.STL(ts.Values, m, opt)
	if err != nil {
		if errors.Is(err, stats.ErrMissing) {
			return nil, ErrMissingValues
		}
		return nil, fmt.Errorf("%w, %w", err, ErrNotSeasonal)
	}
	return &engine.STL{
		Components: &engine.MultiSeries{
			Tsp:     ts.Tsp,
			Names:   stlNames,
			Columns: [][]float64{res.Seasonal, res.Trend, res.Remainder},
		},
		Window: []int{res.SeasonalWindow, res.TrendWindow, res.LowPassWindow},
	}, nil
}

func (e *Engine) stl(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only(stlArgs...); err != nil {
		return nil, err
	}
	ts, err := series(x)
	if err != nil {
		return nil, err
	}
	opt, err := e.stlOptions(a, true)
	if err != nil {
		return nil, err
	}
	return decomposeSTL(ts, opt)
}
