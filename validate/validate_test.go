package validate

import (
	"testing"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/errdefs"
	"github.com/aouyang1/go-forecastbridge/frame"
	"github.com/aouyang1/go-forecastbridge/index"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTable(t *testing.T, names ...string) *frame.Table {
	t.Helper()
	cols := make([][]float64, len(names))
	for i := range cols {
		cols[i] = []float64{1, 2}
	}
	tbl, err := frame.NewTable(index.Default(2), names, cols)
	require.Nil(t, err)
	return tbl
}

func accuracyMatrix(rows, cols int) *engine.Matrix {
	names := []string{"ME", "RMSE", "MAE", "MPE", "MAPE", "MASE", "ACF1", "Theil's U"}[:cols]
	data := make([][]float64, rows)
	for i := range data {
		data[i] = make([]float64, cols)
	}
	return &engine.Matrix{ColNames: names, Data: data}
}

func TestDiscrimination(t *testing.T) {
	ts, err := engine.NewTimeSeries([]float64{1, 2, 3}, 1, 1)
	require.Nil(t, err)

	testData := map[string]struct {
		x          any
		engineFc   bool
		hostFc     bool
		engineDc   bool
		hostDc     bool
		engineAcc  bool
		engineTS   bool
		engineMx   bool
		recognized Kind
	}{
		"engine forecast": {
			&engine.Forecast{}, true, false, false, false, false, false, false, KindEngineForecast,
		},
		"host forecast": {
			mustTable(t, "point_fc", "lower80", "upper80"), false, true, false, false, false, false, false, KindHostForecast,
		},
		"stl": {
			&engine.STL{}, false, false, true, false, false, false, false, KindEngineDecomposition,
		},
		"decomposed.ts": {
			&engine.DecomposedTS{}, false, false, true, false, false, false, false, KindEngineDecomposition,
		},
		"host decomposition": {
			mustTable(t, "data", "seasonal", "trend", "remainder"), false, false, false, true, false, false, false, KindHostDecomposition,
		},
		"engine accuracy": {
			accuracyMatrix(2, 8), false, false, false, false, true, false, true, KindEngineAccuracy,
		},
		"engine time series": {
			ts, false, false, false, false, false, true, false, KindEngineTimeSeries,
		},
		"acf": {
			&engine.ACF{}, false, false, false, false, false, false, false, KindEngineACF,
		},
		"host series": {
			frame.FromValues([]float64{1}), false, false, false, false, false, false, false, KindHostSeries,
		},
		"host accuracy": {
			mustTable(t, "Train", "Test"), false, false, false, false, false, false, false, KindHostAccuracy,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, td.engineFc, IsEngineForecast(td.x), "engine forecast")
			assert.Equal(t, td.hostFc, IsHostForecast(td.x), "host forecast")
			assert.Equal(t, td.engineFc || td.hostFc, IsForecast(td.x), "forecast")
			assert.Equal(t, td.engineDc, IsEngineDecomposition(td.x), "engine decomposition")
			assert.Equal(t, td.hostDc, IsHostDecomposition(td.x), "host decomposition")
			assert.Equal(t, td.engineDc || td.hostDc, IsDecomposition(td.x), "decomposition")
			assert.Equal(t, td.engineAcc, IsEngineAccuracy(td.x), "engine accuracy")
			assert.Equal(t, td.engineTS, IsEngineTimeSeries(td.x), "engine time series")
			assert.Equal(t, td.engineMx, IsEngineMatrix(td.x), "engine matrix")

			v, err := Recognize(td.x)
			require.Nil(t, err)
			assert.Equal(t, td.recognized, v.Kind)
		})
	}
}

func TestUnrecognized(t *testing.T) {
	testData := map[string]struct {
		x any
	}{
		"nil":              {nil},
		"string":           {"point_fc"},
		"float slice":      {[]float64{1, 2}},
		"table with extra": {mustTable(t, "data", "seasonal", "trend", "remainder", "extra")},
		"table missing":    {mustTable(t, "data", "seasonal", "trend")},
		"plain matrix":     {&engine.Matrix{ColNames: []string{"a"}, Data: [][]float64{{1}}}},
		"wide accuracy":    {accuracyMatrix(3, 8)},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			assert.False(t, IsForecast(td.x))
			assert.False(t, IsDecomposition(td.x))
			assert.False(t, IsEngineAccuracy(td.x))
			assert.False(t, IsEngineTimeSeries(td.x))

			_, err := Recognize(td.x)
			assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)
		})
	}
}

func TestRecognizeTypedNil(t *testing.T) {
	testData := map[string]struct {
		x any
	}{
		"time series":   {(*engine.TimeSeries)(nil)},
		"forecast":      {(*engine.Forecast)(nil)},
		"stl":           {(*engine.STL)(nil)},
		"decomposed":    {(*engine.DecomposedTS)(nil)},
		"acf":           {(*engine.ACF)(nil)},
		"host series":   {(*frame.Series)(nil)},
		"host table":    {(*frame.Table)(nil)},
		"engine matrix": {(*engine.Matrix)(nil)},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := Recognize(td.x)
			assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)
		})
	}
}

func TestClass(t *testing.T) {
	cls, err := Class(&engine.MultiSeries{})
	require.Nil(t, err)
	assert.Equal(t, []string{"mts", "ts", "matrix"}, cls)

	_, err = Class(3.0)
	assert.ErrorIs(t, err, errdefs.ErrType)

	_, err = Class(nil)
	assert.ErrorIs(t, err, errdefs.ErrType)
}
