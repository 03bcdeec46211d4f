// Package extract turns engine result objects into host tables and series.
package extract

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strconv"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/errdefs"
	"github.com/aouyang1/go-forecastbridge/frame"
	"github.com/aouyang1/go-forecastbridge/index"
	"github.com/aouyang1/go-forecastbridge/validate"
)

// Autocorrelation series names.
const (
	NameACF  = "Acf"
	NamePACF = "Pacf"
)

func indexOf(times []float64, cycles []int, frequency float64) (index.Index, error) {
	idx, err := index.FromTimes(times, cycles, frequency)
	if err != nil {
		return index.Index{}, fmt.Errorf("unable to rebuild index, %w", err)
	}
	return idx, nil
}

// LevelName formats a prediction level the way column names carry it, e.g. 80 or 97.5.
func LevelName(level float64) string {
	return strconv.FormatFloat(level, 'f', -1, 64)
}

// PredictionIntervals builds a table with the point forecast followed by a lower and upper
// column per level, in ascending level order. The rows are labeled from the forecast's own mean
// series, which continues the original series' index.
func PredictionIntervals(fc any) (*frame.Table, error) {
	if !validate.IsEngineForecast(fc) {
		return nil, fmt.Errorf("%T is not a forecast, %w", fc, errdefs.ErrInvalidArgument)
	}
	f, ok := fc.(*engine.Forecast)
	if !ok || f == nil || f.Mean == nil {
		return nil, fmt.Errorf("forecast has no mean, %w", errdefs.ErrInvalidArgument)
	}
	if len(f.Lower) != len(f.Level) || len(f.Upper) != len(f.Level) {
		return nil, fmt.Errorf(
			"%d levels with %d lower and %d upper bounds, %w",
			len(f.Level), len(f.Lower), len(f.Upper), errdefs.ErrInvalidArgument,
		)
	}

	idx, err := indexOf(f.Mean.Time(), f.Mean.Cycle(), f.Mean.Frequency)
	if err != nil {
		return nil, err
	}

	order := make([]int, len(f.Level))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return f.Level[order[i]] < f.Level[order[j]]
	})

	names := []string{validate.ColPointForecast}
	cols := [][]float64{slices.Clone(f.Mean.Values)}
	for _, i := range order {
		lvl := LevelName(f.Level[i])
		names = append(names, "lower"+lvl, "upper"+lvl)
		cols = append(cols, f.Lower[i], f.Upper[i])
	}
	return frame.NewTable(idx, names, cols)
}

// MeanPrediction returns the point forecast.
func MeanPrediction(fc any) ([]float64, error) {
	f, ok := fc.(*engine.Forecast)
	if !ok || f == nil || !validate.IsEngineForecast(fc) || f.Mean == nil {
		return nil, fmt.Errorf("%T is not a forecast, %w", fc, errdefs.ErrInvalidArgument)
	}
	return slices.Clone(f.Mean.Values), nil
}

// Decomposition builds a data, seasonal, trend, remainder table from either an stl or a
// classical decomposition. For stl the data column is recovered as the sum of the three
// components, skipping missing ones. It is missing only when all three are.
func Decomposition(dc any) (*frame.Table, error) {
	switch d := dc.(type) {
	case *engine.STL:
		if d == nil || d.Components == nil || len(d.Components.Columns) != 3 {
			return nil, fmt.Errorf("stl must have three components, %w", errdefs.ErrInvalidArgument)
		}
		c := d.Components
		idx, err := indexOf(c.Time(), c.Cycle(), c.Frequency)
		if err != nil {
			return nil, err
		}
		seasonal, trend, remainder := c.Columns[0], c.Columns[1], c.Columns[2]
		data := make([]float64, len(seasonal))
		for i := range data {
			data[i] = sumPresent(seasonal[i], trend[i], remainder[i])
		}
		return frame.NewTable(idx, validate.DecompositionColumns, [][]float64{data, seasonal, trend, remainder})
	case *engine.DecomposedTS:
		if d == nil || d.X == nil || d.Seasonal == nil || d.Trend == nil || d.Random == nil {
			return nil, fmt.Errorf("decomposition is missing components, %w", errdefs.ErrInvalidArgument)
		}
		idx, err := indexOf(d.X.Time(), d.X.Cycle(), d.X.Frequency)
		if err != nil {
			return nil, err
		}
		return frame.NewTable(idx, validate.DecompositionColumns, [][]float64{
			d.X.Values, d.Seasonal.Values, d.Trend.Values, d.Random.Values,
		})
	default:
		return nil, fmt.Errorf("%T is not a decomposition, %w", dc, errdefs.ErrInvalidArgument)
	}
}

func sumPresent(v ...float64) float64 {
	sum, present := 0.0, false
	for _, x := range v {
		if !math.IsNaN(x) {
			sum += x
			present = true
		}
	}
	if !present {
		return math.NaN()
	}
	return sum
}

// Accuracy transposes an accuracy matrix into a table with one row per measure. The Test
// column is only present when the matrix has a test-set row.
func Accuracy(m any) (*frame.Table, error) {
	if !validate.IsEngineAccuracy(m) {
		return nil, fmt.Errorf("%T is not an accuracy matrix, %w", m, errdefs.ErrInvalidArgument)
	}
	mx := m.(*engine.Matrix)

	names := []string{validate.ColTrain}
	cols := [][]float64{slices.Clone(mx.Data[0])}
	if len(mx.Data) == 2 {
		names = append(names, validate.ColTest)
		cols = append(cols, slices.Clone(mx.Data[1]))
	}
	return frame.NewNamedTable(mx.ColNames, names, cols)
}

// Autocorrelation returns the correlations labeled by lag. Auto correlations drop lag 0.
func Autocorrelation(a any) (*frame.Series, error) {
	acf, ok := a.(*engine.ACF)
	if !ok || !validate.IsEngineACF(a) || acf == nil {
		return nil, fmt.Errorf("%T is not an acf, %w", a, errdefs.ErrInvalidArgument)
	}
	if len(acf.Lag) != len(acf.Values) {
		return nil, fmt.Errorf(
			"%d lags for %d values, %w", len(acf.Lag), len(acf.Values), errdefs.ErrInvalidArgument,
		)
	}

	values, lags := acf.Values, acf.Lag
	name := NamePACF
	if acf.Type != engine.ACFPartial {
		name = NameACF
		if len(values) > 0 {
			values, lags = values[1:], lags[1:]
		}
	}

	labels := make([]int, len(lags))
	for i, l := range lags {
		labels[i] = int(math.Round(l))
	}
	return frame.NewSeries(name, values, index.NewFlat(labels))
}
