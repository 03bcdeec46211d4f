package forecastbridge

import (
	"fmt"

	"github.com/aouyang1/go-forecastbridge/convert"
	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/errdefs"
	"github.com/aouyang1/go-forecastbridge/kwargs"
)

// Bounds of a smoothing constant, both exclusive.
const (
	MinSmoothing = 0.0001
	MaxSmoothing = 0.9999
)

// smoothingArgs are the smoothing constants of ses, holt and hw.
var smoothingArgs = []string{"alpha", "beta", "gamma"}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case engine.Vector:
		return t.Scalar()
	}
	return 0, false
}

// checkLevels scales fractions to percentages and requires every level inside (0, 100).
func checkLevels(levels []float64) (engine.Vector, error) {
	out := make(engine.Vector, len(levels))
	for i, l := range levels {
		if l > 0 && l < 1 {
			l *= 100
		}
		if !(l > 0 && l < 100) {
			return nil, fmt.Errorf("level %v must lie in (0, 100), %w", levels[i], errdefs.ErrOutOfRange)
		}
		out[i] = l
	}
	return out, nil
}

// levelsArg reads the level argument as a vector of percentages.
func levelsArg(v any) (engine.Vector, error) {
	switch t := kwargs.ScalarOrVector(v).(type) {
	case engine.Vector:
		return checkLevels(t)
	default:
		f, ok := toFloat(t)
		if !ok {
			return nil, fmt.Errorf("level must be numeric, got %T, %w", v, errdefs.ErrInvalidArgument)
		}
		return checkLevels([]float64{f})
	}
}

func checkSmoothing(args kwargs.Args) error {
	for _, name := range smoothingArgs {
		v, exists := args[name]
		if !exists || v == nil {
			continue
		}
		f, ok := toFloat(v)
		if !ok {
			return fmt.Errorf("%s must be a number, got %T, %w", name, v, errdefs.ErrInvalidArgument)
		}
		if !(f > MinSmoothing && f < MaxSmoothing) {
			return fmt.Errorf(
				"%s %v must lie in (%v, %v), %w", name, f, MinSmoothing, MaxSmoothing, errdefs.ErrOutOfRange,
			)
		}
	}
	return nil
}

// checkRegressors converts xreg and newxreg to engine matrices. Both or neither must be given.
// xreg needs a row per observation and newxreg a row per forecast step, with the same columns.
// Without an explicit horizon the number of newxreg rows is the horizon.
func checkRegressors(args kwargs.Args, n int) error {
	xreg, newxreg := args["xreg"], args["newxreg"]
	if xreg == nil && newxreg == nil {
		return nil
	}
	if xreg == nil || newxreg == nil {
		return fmt.Errorf("xreg and newxreg must be given together, %w", errdefs.ErrInvalidArgument)
	}

	past, err := convert.Matrix(xreg)
	if err != nil {
		return fmt.Errorf("bad xreg, %w", err)
	}
	future, err := convert.Matrix(newxreg)
	if err != nil {
		return fmt.Errorf("bad newxreg, %w", err)
	}
	rows, cols := past.Dims()
	if rows != n {
		return fmt.Errorf("xreg has %d rows for %d observations, %w", rows, n, errdefs.ErrInvalidArgument)
	}
	frows, fcols := future.Dims()
	if fcols != cols {
		return fmt.Errorf("newxreg has %d columns, xreg has %d, %w", fcols, cols, errdefs.ErrInvalidArgument)
	}
	if h, exists := args["h"]; exists && h != nil {
		if hf, ok := toFloat(h); !ok || int(hf) != frows {
			return fmt.Errorf("newxreg has %d rows for horizon %v, %w", frows, h, errdefs.ErrInvalidArgument)
		}
	} else {
		args["h"] = frows
	}
	args["xreg"], args["newxreg"] = past, future
	return nil
}
