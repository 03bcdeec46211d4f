package native

import (
	"context"
	"fmt"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/stats"
)

func (e *Engine) correlations(x engine.Object, a args, partial bool) (*engine.ACF, error) {
	if err := a.only("lag.max", "na.action", "demean"); err != nil {
		return nil, err
	}
	ts, err := series(x)
	if err != nil {
		return nil, err
	}
	if ts.Len() < 2 {
		return nil, fmt.Errorf("%d observations, %w", ts.Len(), ErrInsufficientData)
	}
	if action, err := a.string("na.action", "na.pass"); err != nil {
		return nil, err
	} else if action != "na.pass" && hasNaN(ts.Values) {
		return nil, ErrMissingValues
	}
	if demean, err := a.bool("demean", true); err != nil {
		return nil, err
	} else if !demean {
		return nil, fmt.Errorf("correlations about zero, %w", ErrUnsupportedModel)
	}

	n := ts.Len()
	maxLag, err := a.int("lag.max", stats.DefaultMaxLag(n, ts.Frequency))
	if err != nil {
		return nil, err
	}
	if maxLag < 1 {
		return nil, fmt.Errorf("lag.max must be at least 1, %w", ErrBadArgument)
	}
	maxLag = min(maxLag, n-1)

	out := &engine.ACF{N: n, Series: "x"}
	if partial {
		out.Type = engine.ACFPartial
		out.Values, err = stats.PACF(ts.Values, maxLag)
	} else {
		out.Type = engine.ACFCorrelation
		out.Values, err = stats.ACF(ts.Values, maxLag)
	}
	if err != nil {
		return nil, fmt.Errorf("%w, %w", err, ErrBadArgument)
	}

	first := 0
	if partial {
		first = 1
	}
	out.Lag = make([]float64, len(out.Values))
	for i := range out.Lag {
		out.Lag[i] = float64(first + i)
	}
	return out, nil
}

func (e *Engine) acf(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	return e.correlations(x, a, false)
}

func (e *Engine) pacf(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	return e.correlations(x, a, true)
}
