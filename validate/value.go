package validate

import (
	"fmt"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/errdefs"
	"github.com/aouyang1/go-forecastbridge/frame"
)

// Kind is the recognized shape of a boundary value.
type Kind int

const (
	KindEngineTimeSeries Kind = iota + 1
	KindEngineForecast
	KindEngineDecomposition
	KindEngineAccuracy
	KindEngineACF
	KindHostSeries
	KindHostForecast
	KindHostDecomposition
	KindHostAccuracy
)

func (k Kind) String() string {
	switch k {
	case KindEngineTimeSeries:
		return "engine time series"
	case KindEngineForecast:
		return "engine forecast"
	case KindEngineDecomposition:
		return "engine decomposition"
	case KindEngineAccuracy:
		return "engine accuracy"
	case KindEngineACF:
		return "engine acf"
	case KindHostSeries:
		return "host series"
	case KindHostForecast:
		return "host forecast"
	case KindHostDecomposition:
		return "host decomposition"
	case KindHostAccuracy:
		return "host accuracy"
	default:
		return "unknown"
	}
}

// IsEngine reports whether the kind is an engine-side value.
func (k Kind) IsEngine() bool {
	return k >= KindEngineTimeSeries && k <= KindEngineACF
}

// Value is a boundary value after recognition. Exactly one of Engine, Series and Table is set,
// matching Kind.
type Value struct {
	Kind   Kind
	Engine engine.Object
	Series *frame.Series
	Table  *frame.Table
}

// isNilPointer reports whether x is a typed nil of one of the recognized types.
func isNilPointer(x any) bool {
	switch v := x.(type) {
	case *engine.TimeSeries:
		return v == nil
	case *engine.MultiSeries:
		return v == nil
	case *engine.Forecast:
		return v == nil
	case *engine.STL:
		return v == nil
	case *engine.DecomposedTS:
		return v == nil
	case *engine.Matrix:
		return v == nil
	case *engine.ACF:
		return v == nil
	case *frame.Series:
		return v == nil
	case *frame.Table:
		return v == nil
	}
	return false
}

// Recognize classifies x once so that later stages can switch on Kind instead of inspecting
// tags again. Nil values and values matching no known shape fail with ErrInvalidArgument.
func Recognize(x any) (Value, error) {
	switch {
	case isNilPointer(x):
		return Value{}, fmt.Errorf("nil %T, %w", x, errdefs.ErrInvalidArgument)
	case IsEngineTimeSeries(x):
		return Value{Kind: KindEngineTimeSeries, Engine: x.(engine.Object)}, nil
	case IsEngineForecast(x):
		return Value{Kind: KindEngineForecast, Engine: x.(engine.Object)}, nil
	case IsEngineDecomposition(x):
		return Value{Kind: KindEngineDecomposition, Engine: x.(engine.Object)}, nil
	case IsEngineAccuracy(x):
		return Value{Kind: KindEngineAccuracy, Engine: x.(engine.Object)}, nil
	case IsEngineACF(x):
		return Value{Kind: KindEngineACF, Engine: x.(engine.Object)}, nil
	case IsHostSeries(x):
		return Value{Kind: KindHostSeries, Series: x.(*frame.Series)}, nil
	case IsHostForecast(x):
		return Value{Kind: KindHostForecast, Table: x.(*frame.Table)}, nil
	case IsHostDecomposition(x):
		return Value{Kind: KindHostDecomposition, Table: x.(*frame.Table)}, nil
	case IsHostAccuracy(x):
		return Value{Kind: KindHostAccuracy, Table: x.(*frame.Table)}, nil
	default:
		return Value{}, fmt.Errorf("unrecognized value of type %T, %w", x, errdefs.ErrInvalidArgument)
	}
}
