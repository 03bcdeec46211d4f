// Package validate tells engine values and host values apart. Engine values are recognized by
// their class tag only; host values by their concrete type and column set.
package validate

import (
	"fmt"
	"slices"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/errdefs"
	"github.com/aouyang1/go-forecastbridge/frame"
)

// Host column names.
const (
	ColPointForecast = "point_fc"
	ColData          = "data"
	ColSeasonal      = "seasonal"
	ColTrend         = "trend"
	ColRemainder     = "remainder"
	ColTrain         = "Train"
	ColTest          = "Test"
)

// DecompositionColumns is the exact column set of a host decomposition table.
var DecompositionColumns = []string{ColData, ColSeasonal, ColTrend, ColRemainder}

// Class returns the class tag of an engine value. Values without one fail with ErrType rather
// than being guessed at.
func Class(x any) ([]string, error) {
	c, ok := x.(engine.Classed)
	if !ok || c == nil {
		return nil, fmt.Errorf("cannot read class of %T, %w", x, errdefs.ErrType)
	}
	return c.Class(), nil
}

func hasClass(x any, class string) bool {
	cls, err := Class(x)
	if err != nil {
		return false
	}
	return slices.Contains(cls, class)
}

func firstClass(x any) string {
	cls, err := Class(x)
	if err != nil || len(cls) == 0 {
		return ""
	}
	return cls[0]
}

// IsEngineForecast reports whether x is an engine forecast.
func IsEngineForecast(x any) bool {
	return hasClass(x, engine.ClassForecast)
}

// IsHostForecast reports whether x is a prediction-interval table.
func IsHostForecast(x any) bool {
	t, ok := x.(*frame.Table)
	return ok && t != nil && t.HasColumn(ColPointForecast)
}

// IsForecast reports whether x is a forecast in either form.
func IsForecast(x any) bool {
	return IsEngineForecast(x) || IsHostForecast(x)
}

// IsEngineDecomposition reports whether x is an stl or classical decomposition.
func IsEngineDecomposition(x any) bool {
	switch firstClass(x) {
	case engine.ClassSTL, engine.ClassDecomposedTS:
		return true
	default:
		return false
	}
}

// IsHostDecomposition reports whether x is a table with exactly the decomposition columns.
func IsHostDecomposition(x any) bool {
	t, ok := x.(*frame.Table)
	if !ok || t == nil {
		return false
	}
	names := t.Names()
	if len(names) != len(DecompositionColumns) {
		return false
	}
	for _, c := range DecompositionColumns {
		if !slices.Contains(names, c) {
			return false
		}
	}
	return true
}

// IsDecomposition reports whether x is a decomposition in either form.
func IsDecomposition(x any) bool {
	return IsEngineDecomposition(x) || IsHostDecomposition(x)
}

// IsEngineAccuracy reports whether x is an accuracy matrix: one or two rows, seven or eight
// measures including MASE.
func IsEngineAccuracy(x any) bool {
	if !hasClass(x, engine.ClassMatrix) {
		return false
	}
	m, ok := x.(*engine.Matrix)
	if !ok || m == nil {
		return false
	}
	r, c := m.Dims()
	return slices.Contains(m.ColNames, "MASE") && (r == 1 || r == 2) && (c == 7 || c == 8)
}

// IsHostAccuracy reports whether x is an accuracy table with a Train column and at most a
// Test column besides.
func IsHostAccuracy(x any) bool {
	t, ok := x.(*frame.Table)
	if !ok || t == nil || !t.HasColumn(ColTrain) {
		return false
	}
	names := t.Names()
	switch len(names) {
	case 1:
		return true
	case 2:
		return t.HasColumn(ColTest)
	default:
		return false
	}
}

// IsEngineTimeSeries reports whether x is a univariate engine time series.
func IsEngineTimeSeries(x any) bool {
	_, ok := x.(*engine.TimeSeries)
	return ok && hasClass(x, engine.ClassTS) && !hasClass(x, engine.ClassMTS)
}

// IsEngineMatrix reports whether x is an engine matrix.
func IsEngineMatrix(x any) bool {
	_, ok := x.(*engine.Matrix)
	return ok && hasClass(x, engine.ClassMatrix)
}

// IsEngineACF reports whether x is an auto or partial correlation result.
func IsEngineACF(x any) bool {
	return hasClass(x, engine.ClassACF)
}

// IsHostSeries reports whether x is a host series.
func IsHostSeries(x any) bool {
	s, ok := x.(*frame.Series)
	return ok && s != nil
}
