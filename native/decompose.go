package native

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/stats"
)

// seasonalSeries reads x as a series with an integer period of at least two and two full
// periods of data.
func seasonalSeries(x engine.Object) (*engine.TimeSeries, int, error) {
	ts, err := series(x)
	if err != nil {
		return nil, 0, err
	}
	m := int(math.Round(ts.Frequency))
	if m <= 1 || ts.Len() < 2*m {
		return nil, 0, ErrNotSeasonal
	}
	return ts, m, nil
}

func classical(ts *engine.TimeSeries, m int, typ string) (*engine.DecomposedTS, error) {
	dc, err := stats.Decompose(ts.Values, m, typ)
	if err != nil {
		if errors.Is(err, stats.ErrDecompositionType) {
			return nil, fmt.Errorf("%w, %w", err, ErrBadArgument)
		}
		return nil, fmt.Errorf("%w, %w", err, ErrNotSeasonal)
	}
	return &engine.DecomposedTS{
		X:        ts.Copy(),
		Seasonal: ts.WithValues(dc.Seasonal),
		Trend:    ts.WithValues(dc.Trend),
		Random:   ts.WithValues(dc.Random),
		Figure:   dc.Figure,
		Type:     dc.Type,
	}, nil
}

func (e *Engine) decompose(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only("type", "filter"); err != nil {
		return nil, err
	}
	if a.has("filter") {
		return nil, fmt.Errorf("custom filters, %w", ErrUnsupportedModel)
	}
	typ, err := a.string("type", stats.Additive)
	if err != nil {
		return nil, err
	}
	ts, m, err := seasonalSeries(x)
	if err != nil {
		return nil, err
	}
	return classical(ts, m, typ)
}

// components reads a decomposition as its data and seasonal series.
func components(x engine.Object) (data, seasonal *engine.TimeSeries, multiplicative bool, err error) {
	switch d := x.(type) {
	case *engine.STL:
		if d == nil || d.Components == nil || len(d.Components.Columns) != 3 {
			break
		}
		c := d.Components
		sum := make([]float64, c.Len())
		for i := range sum {
			sum[i] = c.Columns[0][i] + c.Columns[1][i] + c.Columns[2][i]
		}
		return c.Column(0).WithValues(sum), c.Column(0), false, nil
	case *engine.DecomposedTS:
		if d == nil || d.X == nil || d.Seasonal == nil {
			break
		}
		return d.X, d.Seasonal, d.Type == stats.Multiplicative, nil
	}
	return nil, nil, false, fmt.Errorf("expected a decomposition, got %T, %w", x, ErrBadArgument)
}

// adjust removes the seasonal component from data.
func adjust(data, seasonal []float64, multiplicative bool) []float64 {
	out := make([]float64, len(data))
	for i := range data {
		if multiplicative {
			out[i] = data[i] / seasonal[i]
		} else {
			out[i] = data[i] - seasonal[i]
		}
	}
	return out
}

// lastSeason repeats the final m seasonal values over h steps.
func lastSeason(seasonal []float64, m, h int) []float64 {
	tail := seasonal[len(seasonal)-m:]
	out := make([]float64, h)
	for i := range out {
		out[i] = tail[i%m]
	}
	return out
}

func (e *Engine) seasadj(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only(); err != nil {
		return nil, err
	}
	data, seasonal, multiplicative, err := components(x)
	if err != nil {
		return nil, err
	}
	return data.WithValues(adjust(data.Values, seasonal.Values, multiplicative)), nil
}

func (e *Engine) sindexf(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only("h"); err != nil {
		return nil, err
	}
	_, seasonal, _, err := components(x)
	if err != nil {
		return nil, err
	}
	m := int(math.Round(seasonal.Frequency))
	if m <= 1 || seasonal.Len() < m {
		return nil, ErrNotSeasonal
	}
	h, err := a.horizon(seasonal.Frequency)
	if err != nil {
		return nil, err
	}
	return &engine.TimeSeries{
		Tsp:    engine.Tsp{Start: seasonal.Next(), Frequency: seasonal.Frequency},
		Values: lastSeason(seasonal.Values, m, h),
	}, nil
}
