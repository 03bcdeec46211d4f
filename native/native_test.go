package native

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/aouyang1/go-forecastbridge/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTS(t *testing.T, values []float64, start, freq float64) *engine.TimeSeries {
	t.Helper()
	ts, err := engine.NewTimeSeries(values, start, freq)
	require.Nil(t, err)
	return ts
}

func call(t *testing.T, fn string, x engine.Object, kw engine.Kwargs) engine.Object {
	t.Helper()
	out, err := New(nil).Call(context.Background(), fn, x, kw)
	require.Nil(t, err)
	return out
}

func callForecast(t *testing.T, fn string, x engine.Object, kw engine.Kwargs) *engine.Forecast {
	t.Helper()
	fc, ok := call(t, fn, x, kw).(*engine.Forecast)
	require.True(t, ok)
	return fc
}

// annualSeries has 46 values ending at 467.7724 whose first differences have a root mean
// square of 49.26472.
func annualSeries(t *testing.T) *engine.TimeSeries {
	const (
		last = 467.7724
		step = 49.26472
	)
	y := make([]float64, 46)
	for i := range y {
		y[i] = last - step
		if i%2 == 1 {
			y[i] = last
		}
	}
	return mustTS(t, y, 1965, 1)
}

// quarterly is a linear trend plus a zero-sum quarterly pattern.
func quarterly(t *testing.T, n int) *engine.TimeSeries {
	pattern := []float64{5, -2, 1, -4}
	y := make([]float64, n)
	for i := range y {
		y[i] = 100 + 0.5*float64(i) + pattern[i%4]
	}
	return mustTS(t, y, 2000, 4)
}

func ar1(n int, phi float64, seed int64) []float64 {
	r := rand.New(rand.NewSource(seed))
	y := make([]float64, n)
	for i := 1; i < n; i++ {
		y[i] = phi*y[i-1] + r.NormFloat64()
	}
	for i := range y {
		y[i] += 50
	}
	return y
}

func TestFunctions(t *testing.T) {
	names := New(nil).Functions()
	assert.Len(t, names, 29)
	assert.Contains(t, names, "auto.arima")
	assert.Contains(t, names, "BoxCox.lambda")
}

func TestCallErrors(t *testing.T) {
	ts := annualSeries(t)
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	testData := map[string]struct {
		ctx      context.Context
		fn       string
		x        engine.Object
		kw       engine.Kwargs
		expected error
	}{
		"unknown function":  {context.Background(), "prophet", ts, nil, ErrUnknownFunction},
		"unused argument":   {context.Background(), "naive", ts, engine.Kwargs{"bogus": 1.0}, ErrBadArgument},
		"bad horizon":       {context.Background(), "naive", ts, engine.Kwargs{"h": 0}, ErrBadArgument},
		"bad level":         {context.Background(), "naive", ts, engine.Kwargs{"level": engine.Vector{80, 120}}, ErrBadArgument},
		"not a series":      {context.Background(), "naive", &engine.Matrix{}, nil, ErrBadArgument},
		"canceled":          {canceled, "naive", ts, nil, context.Canceled},
		"not seasonal":      {context.Background(), "decompose", ts, nil, ErrNotSeasonal},
		"multiplicative hw": {context.Background(), "hw", quarterly(t, 40), engine.Kwargs{"seasonal": "multiplicative"}, ErrUnsupportedModel},
		"newxreg only": {
			context.Background(), "auto.arima", ts, engine.Kwargs{"newxreg": engine.Vector{1, 2}}, ErrBadArgument,
		},
		"xreg only": {
			context.Background(), "Arima", ts, engine.Kwargs{"xreg": engine.Vector(make([]float64, 46))}, ErrBadArgument,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := New(nil).Call(td.ctx, td.fn, td.x, td.kw)
			assert.ErrorIs(t, err, td.expected)
		})
	}
}

func TestNaive(t *testing.T) {
	fc := callForecast(t, "naive", annualSeries(t), nil)

	require.Len(t, fc.Mean.Values, 10)
	for _, v := range fc.Mean.Values {
		assert.InDelta(t, 467.7724, v, 0.001)
	}
	assert.Equal(t, 2011.0, fc.Mean.Start)
	assert.Equal(t, []float64{80, 95}, fc.Level)
	assert.InDelta(t, 404.637, fc.Lower[0][0], 0.001)
	assert.InDelta(t, 773.113, fc.Upper[1][9], 0.01)
	assert.True(t, math.IsNaN(fc.Fitted[0]))
	assert.Equal(t, "Naive method", fc.Method)
}

func TestSimpleMethods(t *testing.T) {
	linear := mustTS(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 1, 1)
	q := quarterly(t, 16)

	testData := map[string]struct {
		fn       string
		x        *engine.TimeSeries
		kw       engine.Kwargs
		method   string
		expected []float64
	}{
		"mean": {
			"meanf", mustTS(t, []float64{1, 2, 3, 4, 5}, 1, 1), engine.Kwargs{"h": 2},
			"Mean", []float64{3, 3},
		},
		"seasonal naive": {
			"snaive", q, engine.Kwargs{"h": 5},
			"Seasonal naive method", []float64{q.Values[12], q.Values[13], q.Values[14], q.Values[15], q.Values[12]},
		},
		"drift": {
			"rwf", linear, engine.Kwargs{"h": 3, "drift": true},
			"Random walk with drift", []float64{11, 12, 13},
		},
		"random walk": {
			"rwf", linear, engine.Kwargs{"h": 2},
			"Random walk", []float64{10, 10},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			fc := callForecast(t, td.fn, td.x, td.kw)
			assert.Equal(t, td.method, fc.Method)
			assert.InDeltaSlice(t, td.expected, fc.Mean.Values, 1e-9)
		})
	}
}

func TestMeanfIntervals(t *testing.T) {
	fc := callForecast(t, "meanf", mustTS(t, []float64{1, 2, 3, 4, 5}, 1, 1), engine.Kwargs{"h": 1})
	assert.InDelta(t, 0.34441, fc.Lower[0][0], 1e-4)
	assert.InDelta(t, 5.65559, fc.Upper[0][0], 1e-4)
}

func TestBoxCox(t *testing.T) {
	ts := mustTS(t, []float64{1, 2, 4, 8}, 1, 1)

	testData := map[string]struct {
		lambda   float64
		expected []float64
	}{
		"identity shift": {1, []float64{0, 1, 3, 7}},
		"log":            {0, []float64{0, math.Log(2), math.Log(4), math.Log(8)}},
		"square root":    {0.5, []float64{0, 2 * (math.Sqrt(2) - 1), 2, 2 * (math.Sqrt(8) - 1)}},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			out := call(t, "BoxCox", ts, engine.Kwargs{"lambda": td.lambda}).(*engine.TimeSeries)
			assert.InDeltaSlice(t, td.expected, out.Values, 1e-12)

			back := call(t, "InvBoxCox", out, engine.Kwargs{"lambda": td.lambda}).(*engine.TimeSeries)
			assert.InDeltaSlice(t, ts.Values, back.Values, 1e-9)
		})
	}
}

func TestBoxCoxLambda(t *testing.T) {
	out := call(t, "BoxCox.lambda", quarterly(t, 40), engine.Kwargs{"lower": 0, "upper": 1})
	v, ok := out.(engine.Vector).Scalar()
	require.True(t, ok)
	assert.GreaterOrEqual(t, v, 0.0)
	assert.LessOrEqual(t, v, 1.0)

	constant := mustTS(t, []float64{3, 3, 3, 3, 3}, 1, 1)
	out = call(t, "BoxCox.lambda", constant, nil)
	assert.Equal(t, engine.Vector{1}, out)
}

func TestDecomposition(t *testing.T) {
	ts := quarterly(t, 40)
	dc, ok := call(t, "decompose", ts, nil).(*engine.DecomposedTS)
	require.True(t, ok)

	assert.InDeltaSlice(t, []float64{5, -2, 1, -4}, dc.Figure, 1e-9)
	assert.True(t, math.IsNaN(dc.Trend.Values[0]))
	assert.True(t, math.IsNaN(dc.Trend.Values[1]))
	assert.True(t, math.IsNaN(dc.Trend.Values[39]))
	assert.InDelta(t, 100+0.5*2, dc.Trend.Values[2], 1e-9)

	adj := call(t, "seasadj", dc, nil).(*engine.TimeSeries)
	for i, v := range adj.Values {
		assert.InDelta(t, 100+0.5*float64(i), v, 1e-9)
	}

	idx := call(t, "sindexf", dc, engine.Kwargs{"h": 6}).(*engine.TimeSeries)
	assert.InDeltaSlice(t, []float64{5, -2, 1, -4, 5, -2}, idx.Values, 1e-9)
	assert.Equal(t, 2010.0, idx.Start)
}

func TestSTL(t *testing.T) {
	ts := quarterly(t, 40)

	testData := map[string]struct {
		kw engine.Kwargs
	}{
		"periodic": {engine.Kwargs{"s.window": "periodic"}},
		"window":   {engine.Kwargs{"s.window": 7}},
		"robust":   {engine.Kwargs{"s.window": 7, "robust": true}},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			out, ok := call(t, "stl", ts, td.kw).(*engine.STL)
			require.True(t, ok)
			c := out.Components
			require.Len(t, c.Columns, 3)
			assert.Equal(t, []string{"seasonal", "trend", "remainder"}, c.Names)
			for i, v := range ts.Values {
				assert.InDelta(t, v, c.Columns[0][i]+c.Columns[1][i]+c.Columns[2][i], 1e-9)
			}
			assert.Len(t, out.Window, 3)
		})
	}

	out := call(t, "stl", ts, engine.Kwargs{"s.window": "periodic"}).(*engine.STL)
	seasonal := out.Components.Columns[0]
	for i := 4; i < len(seasonal); i++ {
		assert.InDelta(t, seasonal[i-4], seasonal[i], 1e-9)
	}

	_, err := New(nil).Call(context.Background(), "stl", ts, nil)
	assert.ErrorIs(t, err, ErrBadArgument)
}

func TestExponentialSmoothing(t *testing.T) {
	level := mustTS(t, ar1(60, 0.3, 1), 1, 1)
	trend := mustTS(t, []float64{3, 5, 6, 9, 10, 13, 14, 17, 18, 21, 22, 25}, 1, 1)
	noisy := quarterly(t, 40)
	for i, v := range ar1(40, 0, 2) {
		noisy.Values[i] += v - 50
	}

	testData := map[string]struct {
		fn     string
		x      *engine.TimeSeries
		kw     engine.Kwargs
		method string
	}{
		"ses":          {"ses", level, engine.Kwargs{"h": 4}, "Simple exponential smoothing"},
		"holt":         {"holt", trend, engine.Kwargs{"h": 4}, "Holt's method"},
		"damped holt":  {"holt", trend, engine.Kwargs{"h": 4, "damped": true}, "Damped Holt's method"},
		"holt-winters": {"hw", noisy, engine.Kwargs{"h": 4}, "Holt-Winters' additive method"},
		"ets fixed":    {"ets", trend, engine.Kwargs{"h": 4, "model": "AAN", "damped": false}, "ETS(A,A,N)"},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			fc := callForecast(t, td.fn, td.x, td.kw)
			assert.Equal(t, td.method, fc.Method)
			require.Len(t, fc.Mean.Values, 4)
			require.Len(t, fc.Fitted, td.x.Len())
			for l := range fc.Level {
				for h := range fc.Mean.Values {
					assert.Less(t, fc.Lower[l][h], fc.Mean.Values[h])
					assert.Greater(t, fc.Upper[l][h], fc.Mean.Values[h])
				}
			}
		})
	}

	fc := callForecast(t, "ets", quarterly(t, 40), engine.Kwargs{"h": 8})
	assert.True(t, strings.HasPrefix(fc.Method, "ETS(A,"))
}

func TestArima(t *testing.T) {
	t.Run("random walk matches naive", func(t *testing.T) {
		ts := annualSeries(t)
		naive := callForecast(t, "naive", ts, nil)
		fc := callForecast(t, "Arima", ts, engine.Kwargs{"order": engine.Vector{0, 1, 0}})

		assert.Equal(t, "ARIMA(0,1,0) with zero mean", fc.Method)
		assert.InDeltaSlice(t, naive.Mean.Values, fc.Mean.Values, 1e-9)
		for l := range naive.Level {
			assert.InDeltaSlice(t, naive.Lower[l], fc.Lower[l], 1e-6)
			assert.InDeltaSlice(t, naive.Upper[l], fc.Upper[l], 1e-6)
		}
	})

	t.Run("drift", func(t *testing.T) {
		ts := mustTS(t, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 1, 1)
		fc := callForecast(t, "Arima", ts, engine.Kwargs{
			"order": engine.Vector{0, 1, 0}, "include.drift": true, "h": 3,
		})
		assert.Equal(t, "ARIMA(0,1,0) with drift", fc.Method)
		assert.InDeltaSlice(t, []float64{11, 12, 13}, fc.Mean.Values, 1e-9)
	})

	t.Run("white noise mean", func(t *testing.T) {
		ts := mustTS(t, []float64{4, 6, 4, 6, 4, 6, 4, 6}, 1, 1)
		fc := callForecast(t, "Arima", ts, engine.Kwargs{"h": 2})
		assert.Equal(t, "ARIMA(0,0,0) with non-zero mean", fc.Method)
		assert.InDeltaSlice(t, []float64{5, 5}, fc.Mean.Values, 1e-9)
	})

	t.Run("autoregressive", func(t *testing.T) {
		ts := mustTS(t, ar1(200, 0.7, 7), 1, 1)
		fc := callForecast(t, "Arima", ts, engine.Kwargs{"order": engine.Vector{1, 0, 0}, "h": 20})
		assert.Equal(t, "ARIMA(1,0,0) with non-zero mean", fc.Method)
		// the forecast decays towards the mean and the intervals widen
		assert.Greater(t, fc.Upper[0][19]-fc.Lower[0][19], fc.Upper[0][0]-fc.Lower[0][0])
	})

	t.Run("regression", func(t *testing.T) {
		x := make([]float64, 30)
		y := make([]float64, 30)
		for i := range x {
			x[i] = float64(i % 5)
			y[i] = 10 + 3*x[i]
		}
		fc := callForecast(t, "Arima", mustTS(t, y, 1, 1), engine.Kwargs{
			"xreg":    &engine.Matrix{ColNames: []string{"x"}, Data: rows(x)},
			"newxreg": engine.Vector{0, 4},
			"h":       2,
		})
		assert.Equal(t, "Regression with ARIMA(0,0,0) errors", fc.Method)
		assert.InDeltaSlice(t, []float64{10, 22}, fc.Mean.Values, 1e-6)
	})
}

func rows(x []float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, v := range x {
		out[i] = []float64{v}
	}
	return out
}

func TestAutoArima(t *testing.T) {
	testData := map[string]struct {
		x  *engine.TimeSeries
		kw engine.Kwargs
	}{
		"stepwise":       {mustTS(t, ar1(120, 0.6, 3), 1, 1), engine.Kwargs{"h": 5}},
		"exhaustive":     {mustTS(t, ar1(80, 0.6, 4), 1, 1), engine.Kwargs{"h": 5, "stepwise": false, "max.order": 2}},
		"seasonal":       {quarterly(t, 48), engine.Kwargs{"h": 5}},
		"fixed d":        {mustTS(t, ar1(80, 0.2, 5), 1, 1), engine.Kwargs{"h": 5, "d": 1}},
		"stationary bic": {mustTS(t, ar1(80, 0.2, 6), 1, 1), engine.Kwargs{"h": 5, "stationary": true, "ic": "bic"}},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			fc := callForecast(t, "auto.arima", td.x, td.kw)
			assert.Contains(t, fc.Method, "ARIMA(")
			require.Len(t, fc.Mean.Values, 5)
			for _, v := range fc.Mean.Values {
				assert.False(t, math.IsNaN(v))
			}
		})
	}

	_, err := New(nil).Call(context.Background(), "auto.arima", quarterly(t, 48), engine.Kwargs{"test": "adf"})
	assert.ErrorIs(t, err, ErrUnsupportedModel)
}

func TestSeasonalForecasts(t *testing.T) {
	ts := quarterly(t, 40)

	testData := map[string]struct {
		fn     string
		x      *engine.TimeSeries
		kw     engine.Kwargs
		prefix string
	}{
		"stlf ets":     {"stlf", ts, engine.Kwargs{"h": 8}, "STL +  ETS"},
		"stlf naive":   {"stlf", ts, engine.Kwargs{"h": 8, "method": "naive"}, "STL +  Naive"},
		"stlf drift":   {"stlf", ts, engine.Kwargs{"h": 8, "method": "rwdrift"}, "STL +  Random walk with drift"},
		"stlf arima":   {"stlf", ts, engine.Kwargs{"h": 8, "method": "arima"}, "STL +  ARIMA"},
		"theta":        {"thetaf", annualSeries(t), engine.Kwargs{"h": 8}, "Theta"},
		"forecast ets": {"forecast", annualSeries(t), engine.Kwargs{"h": 8}, "ETS"},
		"forecast few": {"forecast", mustTS(t, []float64{1, 2, 3}, 1, 1), engine.Kwargs{"h": 8}, "Mean"},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			fc := callForecast(t, td.fn, td.x, td.kw)
			assert.True(t, strings.HasPrefix(fc.Method, td.prefix), fc.Method)
			require.Len(t, fc.Mean.Values, 8)
			assert.Equal(t, td.x.Next(), fc.Mean.Start)
		})
	}

	fc := callForecast(t, "stlf", ts, engine.Kwargs{"h": 4, "method": "naive"})
	// a naive forecast of the trend plus the last year of the seasonal component
	last := ts.Values[39] + 4
	for i, v := range []float64{5, -2, 1, -4} {
		assert.InDelta(t, last+v, fc.Mean.Values[i], 1)
	}
}

func TestNaInterp(t *testing.T) {
	nan := math.NaN()

	testData := map[string]struct {
		x        []float64
		expected []float64
	}{
		"interior": {[]float64{1, nan, 3, nan, nan, 6}, []float64{1, 2, 3, 4, 5, 6}},
		"edges":    {[]float64{nan, 2, 4, nan}, []float64{2, 2, 4, 4}},
		"complete": {[]float64{1, 2, 3}, []float64{1, 2, 3}},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			out := call(t, "na.interp", mustTS(t, td.x, 1, 1), nil).(*engine.TimeSeries)
			assert.Equal(t, td.expected, out.Values)
		})
	}

	t.Run("seasonal", func(t *testing.T) {
		ts := quarterly(t, 40)
		y := append([]float64(nil), ts.Values...)
		y[21] = nan
		out := call(t, "na.interp", mustTS(t, y, 2000, 4), nil).(*engine.TimeSeries)
		assert.InDelta(t, ts.Values[21], out.Values[21], 1)
		assert.Equal(t, ts.Values[20], out.Values[20])
	})
}

func TestTsclean(t *testing.T) {
	line := func(replace map[int]float64) []float64 {
		y := make([]float64, 30)
		for i := range y {
			y[i] = float64(i)
		}
		for i, v := range replace {
			y[i] = v
		}
		return y
	}

	testData := map[string]struct {
		y []float64
	}{
		"clean line":       {line(nil)},
		"interior spike":   {line(map[int]float64{15: 1000, 22: math.NaN()})},
		"spike at the end": {line(map[int]float64{29: 1000})},
		"dip at the start": {line(map[int]float64{0: -1000})},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			out := call(t, "tsclean", mustTS(t, td.y, 1, 1), nil).(*engine.TimeSeries)
			for i, v := range out.Values {
				assert.InDelta(t, float64(i), v, 1e-6, "position %d", i)
			}
		})
	}

	y := line(map[int]float64{15: 1000, 22: math.NaN()})
	kept := call(t, "tsclean", mustTS(t, y, 1, 1), engine.Kwargs{"replace.missing": false}).(*engine.TimeSeries)
	assert.True(t, math.IsNaN(kept.Values[22]))
}

func TestAccuracy(t *testing.T) {
	fc := callForecast(t, "naive", mustTS(t, []float64{1, 2, 4, 7, 11}, 1, 1), engine.Kwargs{"h": 2})

	out := call(t, "accuracy", fc, engine.Kwargs{"x": engine.Vector{12, 14}}).(*engine.Matrix)
	r, c := out.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 8, c)
	assert.Equal(t, []string{"Training set", "Test set"}, out.RowNames)

	testData := map[string]struct {
		row      string
		col      string
		expected float64
	}{
		"train me":   {"Training set", "ME", 2.5},
		"train rmse": {"Training set", "RMSE", math.Sqrt(7.5)},
		"train mase": {"Training set", "MASE", 1},
		"test me":    {"Test set", "ME", 2},
		"test mae":   {"Test set", "MAE", 2},
		"test mase":  {"Test set", "MASE", 0.8},
	}
	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			v, ok := out.Get(td.row, td.col)
			require.True(t, ok)
			assert.InDelta(t, td.expected, v, 1e-9)
		})
	}

	train := call(t, "accuracy", fc, nil).(*engine.Matrix)
	r, c = train.Dims()
	assert.Equal(t, 1, r)
	assert.Equal(t, 7, c)
}

func TestCorrelations(t *testing.T) {
	ts := annualSeries(t)

	acf := call(t, "Acf", ts, engine.Kwargs{"lag.max": 10}).(*engine.ACF)
	assert.Equal(t, engine.ACFCorrelation, acf.Type)
	assert.Len(t, acf.Values, 11)
	assert.Equal(t, 0.0, acf.Lag[0])
	assert.InDelta(t, 1, acf.Values[0], 1e-12)

	pacf := call(t, "Pacf", ts, engine.Kwargs{"lag.max": 10}).(*engine.ACF)
	assert.Equal(t, engine.ACFPartial, pacf.Type)
	assert.Len(t, pacf.Values, 10)
	assert.Equal(t, 1.0, pacf.Lag[0])
	assert.InDelta(t, acf.Values[1], pacf.Values[0], 1e-12)
}

func TestUnitRoots(t *testing.T) {
	trend := make([]float64, 50)
	for i := range trend {
		trend[i] = float64(i)
	}

	testData := map[string]struct {
		fn       string
		x        engine.Object
		expected float64
	}{
		"trend":     {"ndiffs", mustTS(t, trend, 1, 1), 1},
		"constant":  {"ndiffs", mustTS(t, make([]float64, 20), 1, 1), 0},
		"seasonal":  {"nsdiffs", quarterly(t, 40), 1},
		"frequency": {"frequency", quarterly(t, 40), 4},
		"vector":    {"frequency", engine.Vector{1, 2, 3}, 1},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			out := call(t, td.fn, td.x, nil)
			assert.Equal(t, engine.Vector{td.expected}, out)
		})
	}
}

func TestFindFrequency(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	y := make([]float64, 240)
	for i := range y {
		y[i] = 100*math.Sin(2*math.Pi*float64(i)/12) + r.NormFloat64()
	}
	out := call(t, "findfrequency", mustTS(t, y, 1, 1), nil)
	assert.Equal(t, engine.Vector{12}, out)

	flat := call(t, "findfrequency", mustTS(t, make([]float64, 30), 1, 1), nil)
	assert.Equal(t, engine.Vector{1}, flat)
}
