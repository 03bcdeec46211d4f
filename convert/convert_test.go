package convert

import (
	"math"
	"testing"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/errdefs"
	"github.com/aouyang1/go-forecastbridge/frame"
	"github.com/aouyang1/go-forecastbridge/index"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	testData := map[string]struct {
		start     index.Start
		frequency int
		length    int
		tsStart   float64
	}{
		"default flat":            {index.Start{Outer: 1}, 1, 10, 1},
		"annual":                  {index.Start{Outer: 1965}, 1, 46, 1965},
		"quarterly":               {index.Start{Outer: 1999, Inner: 1}, 4, 28, 1999},
		"quarterly partial cycle": {index.Start{Outer: 1999, Inner: 3}, 4, 4, 1999.5},
		"monthly":                 {index.Start{Outer: 1990, Inner: 7}, 12, 30, 1990.5},
		"weekly":                  {index.Start{Outer: 3, Inner: 52}, 52, 60, 3 + 51.0/52},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			values := make([]float64, td.length)
			for i := range values {
				values[i] = float64(i) * 1.5
			}
			values[0] = math.NaN()

			s, err := SequenceAsSeries(values, td.start, td.frequency)
			require.Nil(t, err)

			ts, err := ToExternal(s)
			require.Nil(t, err)
			assert.InDelta(t, td.tsStart, ts.Start, 1e-9, "start")
			assert.Equal(t, float64(td.frequency), ts.GetFrequency(), "frequency")

			back, err := FromExternal(ts)
			require.Nil(t, err)
			assert.True(t, s.Equal(back), "round trip")
		})
	}
}

func TestToExternalIrregular(t *testing.T) {
	s, err := frame.NewSeries("", []float64{1, 2, 3}, index.NewFlat([]int{1, 2, 4}))
	require.Nil(t, err)

	_, err = ToExternal(s)
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)

	_, err = ToExternal(frame.FromValues(nil))
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)
}

func TestAcceptEither(t *testing.T) {
	ts, err := engine.NewTimeSeries([]float64{1, 2}, 1, 1)
	require.Nil(t, err)

	testData := map[string]struct {
		x      any
		origin Origin
		err    error
	}{
		"host":           {frame.FromValues([]float64{1, 2}), OriginHost, nil},
		"engine":         {ts, OriginEngine, nil},
		"float slice":    {[]float64{1, 2}, 0, errdefs.ErrType},
		"nil":            {nil, 0, errdefs.ErrType},
		"nil engine":     {(*engine.TimeSeries)(nil), 0, errdefs.ErrType},
		"forecast value": {&engine.Forecast{}, 0, errdefs.ErrType},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			out, origin, err := AcceptEither(td.x)
			if td.err != nil {
				require.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.origin, origin)
			assert.Equal(t, []float64{1, 2}, out.Values)
		})
	}
}

func TestEmitLikeOrigin(t *testing.T) {
	ts, err := engine.NewTimeSeries([]float64{3, 4}, 2000, 4)
	require.Nil(t, err)

	res, err := EmitLikeOrigin(ts, OriginEngine, ResultSeries)
	require.Nil(t, err)
	assert.Same(t, ts, res.Engine)
	assert.Nil(t, res.Series)

	res, err = EmitLikeOrigin(ts, OriginHost, ResultSeries)
	require.Nil(t, err)
	require.NotNil(t, res.Series)
	assert.Equal(t, []int{1, 2}, res.Series.Index.Inner())
	assert.Same(t, res.Series, res.Value())

	_, err = EmitLikeOrigin(ts, OriginHost, ResultForecast)
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)
}

func TestMatrix(t *testing.T) {
	tbl, err := frame.NewTable(index.Default(3), []string{"a", "b"}, [][]float64{{1, 2, 3}, {4, 5, 6}})
	require.Nil(t, err)

	testData := map[string]struct {
		x     any
		rows  [][]float64
		names []string
		err   error
	}{
		"slice":  {[]float64{1, 2}, [][]float64{{1}, {2}}, nil, nil},
		"rows":   {[][]float64{{1, 2}, {3, 4}}, [][]float64{{1, 2}, {3, 4}}, nil, nil},
		"series": {&frame.Series{Name: "x", Values: []float64{7, 8}, Index: index.Default(2)}, [][]float64{{7}, {8}}, []string{"x"}, nil},
		"table":  {tbl, [][]float64{{1, 4}, {2, 5}, {3, 6}}, []string{"a", "b"}, nil},
		"ragged": {[][]float64{{1, 2}, {3}}, nil, nil, errdefs.ErrInvalidArgument},
		"string": {"x", nil, nil, errdefs.ErrType},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			m, err := Matrix(td.x)
			if td.err != nil {
				require.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)
			assert.Equal(t, td.rows, m.Data)
			assert.Equal(t, td.names, m.ColNames)
		})
	}
}

func TestForecastTableRoundTrip(t *testing.T) {
	mean, err := engine.NewTimeSeries([]float64{10, 11}, 2001, 4)
	require.Nil(t, err)
	x, err := engine.NewTimeSeries([]float64{1, 2, 3, 4}, 2000, 4)
	require.Nil(t, err)
	fc := &engine.Forecast{
		Mean:  mean,
		X:     x,
		Level: []float64{80, 95},
		Lower: [][]float64{{9, 10}, {8, 9}},
		Upper: [][]float64{{11, 12}, {12, 13}},
	}

	pi, data, test, err := ToForecast(fc, nil, nil)
	require.Nil(t, err)
	assert.Nil(t, test)
	assert.Equal(t, []float64{1, 2, 3, 4}, data.Values)

	back, err := FromForecastTable(pi, data)
	require.Nil(t, err)
	assert.Equal(t, fc.Level, back.Level)
	assert.Equal(t, fc.Lower, back.Lower)
	assert.Equal(t, fc.Upper, back.Upper)
	assert.InDelta(t, 2001.0, back.Mean.Start, 1e-9)
	assert.InDelta(t, 2000.0, back.X.Start, 1e-9)

	_, _, _, err = ToForecast(pi, nil, nil)
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)

	_, _, test, err = ToForecast(pi, data, []float64{1})
	assert.ErrorIs(t, err, errdefs.ErrType)
	assert.Nil(t, test)
}

func TestToDecomposition(t *testing.T) {
	host, err := frame.NewTable(index.Default(2), []string{"data", "seasonal", "trend", "remainder"}, [][]float64{
		{3, 4}, {1, -1}, {2, 5}, {0, 0},
	})
	require.Nil(t, err)

	tbl, err := ToDecomposition(host)
	require.Nil(t, err)
	assert.Same(t, host, tbl)

	stl := &engine.STL{
		Components: &engine.MultiSeries{
			Tsp:     engine.Tsp{Start: 2000, Frequency: 4},
			Names:   []string{"seasonal", "trend", "remainder"},
			Columns: [][]float64{{1, -1}, {2, 5}, {0.5, 0}},
		},
	}
	tbl, err = ToDecomposition(stl)
	require.Nil(t, err)
	data, _ := tbl.Values("data")
	assert.Equal(t, []float64{3.5, 4}, data)
	assert.Equal(t, []int{2000, 2000}, tbl.Index().Outer())

	testData := map[string]struct {
		x any
	}{
		"series":    {frame.FromValues([]float64{1, 2})},
		"forecast":  {&engine.Forecast{}},
		"typed nil": {(*engine.STL)(nil)},
		"nil":       {nil},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := ToDecomposition(td.x)
			assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)
		})
	}
}
