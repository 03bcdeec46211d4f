package models

import (
	"math"
	"testing"

	mat_ "github.com/aouyang1/go-forecastbridge/mat"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestOLSRegression(t *testing.T) {
	tol := 1e-5
	testData := map[string]struct {
		x         [][]float64
		y         []float64
		opt       *OLSOptions
		intercept float64
		coef      []float64
	}{
		"ols model intercept": {
			x: [][]float64{
				{0, 0},
				{3, 5},
				{9, 20},
				{12, 6},
				{15, 10},
			},
			y:         []float64{2, 31, 109, 62, 87},
			intercept: 2.0,
			coef:      []float64{3.0, 4.0},
		},
		"ols model no intercept": {
			x: [][]float64{
				{1, 0, 0},
				{1, 3, 5},
				{1, 9, 20},
				{1, 12, 6},
				{1, 15, 10},
			},
			y: []float64{2, 31, 109, 62, 87},
			opt: &OLSOptions{
				FitIntercept: false,
			},
			intercept: 0.0,
			coef:      []float64{2.0, 3.0, 4.0},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			x, err := mat_.NewDenseFromArray(td.x)
			require.Nil(t, err)

			y := mat.NewDense(len(td.y), 1, td.y)

			model, err := NewOLSRegression(td.opt)
			require.Nil(t, err)

			err = model.Fit(x, y)
			require.Nil(t, err)

			assert.InDelta(t, td.intercept, model.Intercept(), tol)
			assert.InDeltaSlice(t, td.coef, model.Coef(), tol)

			r2, err := model.Score(x, y)
			require.Nil(t, err)
			assert.InDelta(t, 1.0, r2, tol)
			assert.InDelta(t, 0.0, model.Sigma(), tol)
		})
	}
}

func TestOLSStdErr(t *testing.T) {
	// y = 1 + 2t with alternating noise of +-1
	tt := []float64{0, 1, 2, 3}
	y := []float64{2, 2, 6, 6}

	model, err := FitSeries(y, tt)
	require.Nil(t, err)

	assert.InDelta(t, 1.6, model.Intercept(), 1e-9)
	assert.InDeltaSlice(t, []float64{1.6}, model.Coef(), 1e-9)

	// sse = 3.2 over 2 degrees of freedom
	assert.InDelta(t, math.Sqrt(1.6), model.Sigma(), 1e-9)

	se := model.StdErr()
	require.Len(t, se, 2)
	assert.InDelta(t, math.Sqrt(1.6/5), se[1], 1e-9)
	assert.InDelta(t, math.Sqrt(1.6*0.7), se[0], 1e-9)

	assert.InDeltaSlice(t, []float64{0.4, -1.2, 1.2, -0.4}, model.Residuals(), 1e-9)
}

func TestFitSeriesInterceptOnly(t *testing.T) {
	model, err := FitSeries([]float64{1, 2, 3, 6})
	require.Nil(t, err)
	assert.InDeltaSlice(t, []float64{3}, model.Coef(), 1e-9)
	assert.Equal(t, 0.0, model.Intercept())
}

func TestOLSErrors(t *testing.T) {
	model, err := NewOLSRegression(nil)
	require.Nil(t, err)

	err = model.Fit(mat.NewDense(1, 2, []float64{1, 2}), mat.NewDense(1, 1, []float64{3}))
	assert.ErrorIs(t, err, ErrUnderdetermined)

	err = model.Fit(mat.NewDense(2, 1, []float64{1, 2}), mat.NewDense(3, 1, []float64{1, 2, 3}))
	assert.ErrorIs(t, err, ErrTargetLenMismatch)

	_, err = FitSeries([]float64{1, 2}, []float64{1})
	assert.ErrorIs(t, err, ErrTargetLenMismatch)
}

func BenchmarkOLSRegression(b *testing.B) {
	x := mat.NewDense(1000, 20, nil)
	y := mat.NewDense(1000, 1, nil)
	for i := 0; i < 1000; i++ {
		for j := 0; j < 20; j++ {
			x.Set(i, j, math.Sin(float64(i*(j+1))))
		}
		y.Set(i, 0, float64(i))
	}

	for i := 0; i < b.N; i++ {
		model, err := NewOLSRegression(nil)
		if err != nil {
			b.Error(err)
			continue
		}
		if err := model.Fit(x, y); err != nil {
			b.Error(err)
			continue
		}
	}
}
