package extract

import (
	"math"
	"testing"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/errdefs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quarterly(t *testing.T, values []float64, start float64) *engine.TimeSeries {
	t.Helper()
	ts, err := engine.NewTimeSeries(values, start, 4)
	require.Nil(t, err)
	return ts
}

func TestPredictionIntervals(t *testing.T) {
	// a series ending at 2000Q3, forecast from 2000Q4
	mean := quarterly(t, []float64{10, 11, 12}, 2000.75)
	fc := &engine.Forecast{
		Mean:  mean,
		Level: []float64{95, 80},
		Lower: [][]float64{{1, 2, 3}, {5, 6, 7}},
		Upper: [][]float64{{19, 20, 21}, {15, 16, 17}},
	}

	tbl, err := PredictionIntervals(fc)
	require.Nil(t, err)

	assert.Equal(t, []string{"point_fc", "lower80", "upper80", "lower95", "upper95"}, tbl.Names())
	assert.Equal(t, []int{2000, 2001, 2001}, tbl.Index().Outer())
	assert.Equal(t, []int{4, 1, 2}, tbl.Index().Inner())

	lower80, ok := tbl.Values("lower80")
	require.True(t, ok)
	assert.Equal(t, []float64{5, 6, 7}, lower80)

	lower95, _ := tbl.Values("lower95")
	upper95, _ := tbl.Values("upper95")
	point, _ := tbl.Values("point_fc")
	upper80, _ := tbl.Values("upper80")
	for i := range point {
		assert.LessOrEqual(t, lower95[i], lower80[i])
		assert.LessOrEqual(t, lower80[i], point[i])
		assert.LessOrEqual(t, point[i], upper80[i])
		assert.LessOrEqual(t, upper80[i], upper95[i])
	}

	mp, err := MeanPrediction(fc)
	require.Nil(t, err)
	assert.Equal(t, []float64{10, 11, 12}, mp)
}

func TestPredictionIntervalsInvalid(t *testing.T) {
	testData := map[string]struct {
		x any
	}{
		"series":         {quarterly(t, []float64{1}, 2000)},
		"nil":            {nil},
		"no mean":        {&engine.Forecast{}},
		"typed nil":      {(*engine.Forecast)(nil)},
		"level mismatch": {&engine.Forecast{Mean: quarterly(t, []float64{1}, 2000), Level: []float64{80}}},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := PredictionIntervals(td.x)
			assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)
		})
	}
}

func TestMeanPredictionInvalid(t *testing.T) {
	testData := map[string]struct {
		x any
	}{
		"series":    {quarterly(t, []float64{1}, 2000)},
		"nil":       {nil},
		"no mean":   {&engine.Forecast{}},
		"typed nil": {(*engine.Forecast)(nil)},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := MeanPrediction(td.x)
			assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)
		})
	}
}

func TestDecompositionSTL(t *testing.T) {
	stl := &engine.STL{
		Components: &engine.MultiSeries{
			Tsp:   engine.Tsp{Start: 1999, Frequency: 4},
			Names: []string{"seasonal", "trend", "remainder"},
			Columns: [][]float64{
				{1, -1, 2, -2},
				{10, 10, 11, 11},
				{0.5, 0, -0.5, 0},
			},
		},
	}
	tbl, err := Decomposition(stl)
	require.Nil(t, err)
	assert.Equal(t, []string{"data", "seasonal", "trend", "remainder"}, tbl.Names())

	data, _ := tbl.Values("data")
	assert.InDeltaSlice(t, []float64{11.5, 9, 12.5, 9}, data, 1e-12)
	assert.Equal(t, []int{1, 2, 3, 4}, tbl.Index().Inner())
}

func TestDecompositionSTLMissing(t *testing.T) {
	nan := math.NaN()
	stl := &engine.STL{
		Components: &engine.MultiSeries{
			Tsp:   engine.Tsp{Start: 1999, Frequency: 4},
			Names: []string{"seasonal", "trend", "remainder"},
			Columns: [][]float64{
				{1, nan, 2, nan},
				{10, 10, nan, nan},
				{0.5, 0, -0.5, nan},
			},
		},
	}
	tbl, err := Decomposition(stl)
	require.Nil(t, err)

	data, _ := tbl.Values("data")
	assert.InDeltaSlice(t, []float64{11.5, 10, 1.5}, data[:3], 1e-12)
	assert.True(t, math.IsNaN(data[3]))
}

func TestDecompositionClassical(t *testing.T) {
	nan := math.NaN()
	x := quarterly(t, []float64{1, 2, 3, 4, 5, 6}, 2000)
	dc := &engine.DecomposedTS{
		X:        x,
		Seasonal: x.WithValues([]float64{0, 0, 0, 0, 0, 0}),
		Trend:    x.WithValues([]float64{nan, nan, 3, 4, nan, nan}),
		Random:   x.WithValues([]float64{nan, nan, 0, 0, nan, nan}),
		Type:     "additive",
	}
	tbl, err := Decomposition(dc)
	require.Nil(t, err)

	trend, _ := tbl.Values("trend")
	assert.True(t, math.IsNaN(trend[0]))
	assert.Equal(t, 3.0, trend[2])

	_, err = Decomposition(&engine.Forecast{})
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)
	_, err = Decomposition((*engine.DecomposedTS)(nil))
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)
	_, err = Decomposition((*engine.STL)(nil))
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)
}

func TestAccuracy(t *testing.T) {
	cols := []string{"ME", "RMSE", "MAE", "MPE", "MAPE", "MASE", "ACF1"}
	testData := map[string]struct {
		m     *engine.Matrix
		names []string
	}{
		"train only": {
			&engine.Matrix{
				RowNames: []string{"Training set"},
				ColNames: cols,
				Data:     [][]float64{{1, 2, 3, 4, 5, 6, 7}},
			},
			[]string{"Train"},
		},
		"train and test": {
			&engine.Matrix{
				RowNames: []string{"Training set", "Test set"},
				ColNames: cols,
				Data:     [][]float64{{1, 2, 3, 4, 5, 6, 7}, {8, 9, 10, 11, 12, 13, 14}},
			},
			[]string{"Train", "Test"},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			tbl, err := Accuracy(td.m)
			require.Nil(t, err)
			assert.Equal(t, td.names, tbl.Names())
			assert.Equal(t, cols, tbl.RowNames())

			v, ok := tbl.Get("MASE", "Train")
			require.True(t, ok)
			assert.Equal(t, 6.0, v)
		})
	}

	_, err := Accuracy(&engine.Matrix{ColNames: []string{"a"}, Data: [][]float64{{1}}})
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)
	_, err = Accuracy((*engine.Matrix)(nil))
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)
}

func TestAutocorrelation(t *testing.T) {
	testData := map[string]struct {
		acf    *engine.ACF
		name   string
		labels []int
		values []float64
	}{
		"acf drops lag zero": {
			&engine.ACF{Type: engine.ACFCorrelation, Lag: []float64{0, 1, 2, 3}, Values: []float64{1, 0.5, 0.25, 0.1}},
			"Acf", []int{1, 2, 3}, []float64{0.5, 0.25, 0.1},
		},
		"pacf keeps all": {
			&engine.ACF{Type: engine.ACFPartial, Lag: []float64{1, 2, 3}, Values: []float64{0.5, -0.1, 0.05}},
			"Pacf", []int{1, 2, 3}, []float64{0.5, -0.1, 0.05},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			s, err := Autocorrelation(td.acf)
			require.Nil(t, err)
			assert.Equal(t, td.name, s.Name)
			assert.Equal(t, td.labels, s.Index.Outer())
			assert.Equal(t, td.values, s.Values)
		})
	}
}

func TestAutocorrelationInvalid(t *testing.T) {
	_, err := Autocorrelation((*engine.ACF)(nil))
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)

	_, err = Autocorrelation(&engine.ACF{Lag: []float64{0, 1}, Values: []float64{1}})
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)
}

func TestLevelName(t *testing.T) {
	assert.Equal(t, "80", LevelName(80))
	assert.Equal(t, "97.5", LevelName(97.5))
}
