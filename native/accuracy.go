package native

import (
	"context"
	"fmt"
	"math"
	"slices"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/stats"
)

// Row names of an accuracy matrix.
const (
	rowTraining = "Training set"
	rowTest     = "Test set"
)

// maseScale is the mean absolute error of the naive method implied by d and D on the
// training data. With no differencing it is the mean absolute deviation.
func maseScale(train []float64, m, d, D int) float64 {
	x := stats.Finite(train)
	if d == 0 && D == 0 {
		mean := stats.NaNMean(x)
		dev := make([]float64, len(x))
		for i, v := range x {
			dev[i] = math.Abs(v - mean)
		}
		return stats.NaNMean(dev)
	}
	switch {
	case d == 1 && D == 0 && len(x) > 1:
		return stats.NaiveScale(x, 1)
	case d == 0 && D == 1 && len(x) > m:
		return stats.NaiveScale(x, m)
	}
	for i := 0; i < D && len(x) > m; i++ {
		x = stats.Diff(x, m, 1)
	}
	for i := 0; i < d && len(x) > 1; i++ {
		x = stats.Diff(x, 1, 1)
	}
	for i := range x {
		x[i] = math.Abs(x[i])
	}
	if len(x) == 0 {
		return math.NaN()
	}
	return stats.NaNMean(x)
}

// overlap aligns the test data with the forecast mean, returning the matching slices.
func overlap(mean *engine.TimeSeries, test engine.Object) ([]float64, []float64, error) {
	switch t := test.(type) {
	case engine.Vector:
		k := min(len(t), mean.Len())
		return mean.Values[:k], []float64(t)[:k], nil
	case *engine.TimeSeries:
		if t == nil {
			break
		}
		offset := int(math.Round((mean.Start - t.Start) * mean.Frequency))
		fi, ti := 0, offset
		if offset < 0 {
			fi, ti = -offset, 0
		}
		k := min(mean.Len()-fi, t.Len()-ti)
		if k <= 0 {
			return nil, nil, fmt.Errorf("test data does not overlap the forecast, %w", ErrBadArgument)
		}
		return mean.Values[fi : fi+k], t.Values[ti : ti+k], nil
	}
	return nil, nil, fmt.Errorf("test data must be a series, got %T, %w", test, ErrBadArgument)
}

func (e *Engine) accuracy(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only("x", "d", "D"); err != nil {
		return nil, err
	}
	fc, ok := x.(*engine.Forecast)
	if !ok || fc == nil || fc.Mean == nil {
		return nil, fmt.Errorf("expected a forecast, got %T, %w", x, ErrBadArgument)
	}

	m := 1
	var train []float64
	if fc.X != nil {
		m = max(1, periodOf(fc.X))
		train = fc.X.Values
	}
	d, D := 1, 0
	if m > 1 {
		d, D = 0, 1
	}
	var err error
	if d, err = a.int("d", d); err != nil {
		return nil, err
	}
	if D, err = a.int("D", D); err != nil {
		return nil, err
	}
	if d < 0 || D < 0 {
		return nil, fmt.Errorf("d and D must be non-negative, %w", ErrBadArgument)
	}
	scale := maseScale(train, m, d, D)

	test := a.object("x")
	ncol := len(stats.ScoreNames) - 1
	if test != nil {
		ncol++
	}

	trainRow := make([]float64, ncol)
	for i := range trainRow {
		trainRow[i] = math.NaN()
	}
	if fc.Fitted != nil && len(fc.Fitted) == len(train) {
		s, err := stats.NewScores(fc.Fitted, train, scale, false)
		if err != nil {
			return nil, err
		}
		copy(trainRow, s.Values())
	}
	out := &engine.Matrix{
		RowNames: []string{rowTraining},
		ColNames: slices.Clone(stats.ScoreNames[:ncol]),
		Data:     [][]float64{trainRow},
	}

	if test != nil {
		predicted, actual, err := overlap(fc.Mean, test)
		if err != nil {
			return nil, err
		}
		s, err := stats.NewScores(predicted, actual, scale, true)
		if err != nil {
			return nil, err
		}
		out.RowNames = append(out.RowNames, rowTest)
		out.Data = append(out.Data, s.Values())
	}
	return out, nil
}
