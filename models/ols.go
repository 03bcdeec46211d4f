// Package models holds the linear regression used by the native engine for drift terms,
// external regressors and Box-Cox profile likelihoods.
package models

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

type OLSOptions struct {
	FitIntercept bool
}

func NewDefaultOLSOptions() *OLSOptions {
	return &OLSOptions{
		FitIntercept: true,
	}
}

// OLSRegression computes ordinary least squares using QR factorization
type OLSRegression struct {
	opt       *OLSOptions
	coef      []float64
	intercept float64
	sigma     float64
	stdErr    []float64
	residuals []float64
}

func NewOLSRegression(opt *OLSOptions) (*OLSRegression, error) {
	if opt == nil {
		opt = NewDefaultOLSOptions()
	}
	return &OLSRegression{
		opt: opt,
	}, nil
}

func (o *OLSRegression) withOnes(x mat.Matrix) mat.Matrix {
	m, _ := x.Dims()
	ones := make([]float64, m)
	floats.AddConst(1.0, ones)
	onesMx := mat.NewDense(1, m, ones)

	var xWithOnes mat.Dense
	xWithOnes.Stack(onesMx, x.T())
	return xWithOnes.T()
}

// Fit solves for the coefficients, then records the residual standard error and the
// standard error of every coefficient, intercept first.
func (o *OLSRegression) Fit(x, y mat.Matrix) error {
	if o.opt == nil {
		return ErrNoOptions
	}
	if x == nil {
		return ErrNoTrainingMatrix
	}
	if y == nil {
		return ErrNoTargetMatrix
	}
	m, n := x.Dims()

	ym, _ := y.Dims()
	if ym != m {
		return fmt.Errorf("training data has %d rows and target has %d row, %w", m, ym, ErrTargetLenMismatch)
	}

	design := x
	if o.opt.FitIntercept {
		design = o.withOnes(x)
		_, n = design.Dims()
	}
	if m < n {
		return fmt.Errorf("%d observations for %d coefficients, %w", m, n, ErrUnderdetermined)
	}

	yT := y.T()

	qr := new(mat.QR)
	qr.Factorize(design)

	q := new(mat.Dense)
	r := new(mat.Dense)

	qr.QTo(q)
	qr.RTo(r)
	yq := new(mat.Dense)
	yq.Mul(yT, q)

	c := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		if r.At(i, i) == 0 {
			return fmt.Errorf("column %d is collinear, %w", i, ErrSingular)
		}
		c[i] = yq.At(0, i)
		for j := i + 1; j < n; j++ {
			c[i] -= c[j] * r.At(i, j)
		}
		c[i] /= r.At(i, i)
	}

	if o.opt.FitIntercept {
		o.intercept = c[0]
		o.coef = c[1:]
	} else {
		o.intercept = 0
		o.coef = c
	}

	pred, err := o.Predict(x)
	if err != nil {
		return err
	}
	o.residuals = make([]float64, m)
	for i := range o.residuals {
		o.residuals[i] = y.At(i, 0) - pred[i]
	}

	o.sigma = math.NaN()
	o.stdErr = make([]float64, n)
	for i := range o.stdErr {
		o.stdErr[i] = math.NaN()
	}
	if m == n {
		return nil
	}
	o.sigma = math.Sqrt(floats.Dot(o.residuals, o.residuals) / float64(m-n))

	var rInv mat.Dense
	if err := rInv.Inverse(r.Slice(0, n, 0, n)); err != nil {
		return nil
	}
	for i := 0; i < n; i++ {
		row := mat.Row(nil, i, &rInv)
		o.stdErr[i] = o.sigma * math.Sqrt(floats.Dot(row, row))
	}
	return nil
}

func (o *OLSRegression) Predict(x mat.Matrix) ([]float64, error) {
	if o.opt == nil {
		return nil, ErrNoOptions
	}
	if x == nil {
		return nil, ErrNoDesignMatrix
	}

	coef := o.coef
	if o.opt.FitIntercept {
		coef = append([]float64{o.intercept}, o.coef...)
		x = o.withOnes(x)
	}
	n := len(coef)

	xT := x.T()
	xn, _ := xT.Dims()
	if xn != n {
		return nil, fmt.Errorf("got %d features in design matrix, but expected %d, %w", xn, n, ErrFeatureLenMismatch)
	}
	coefMx := mat.NewDense(1, n, coef)

	var res mat.Dense
	res.Mul(coefMx, xT)
	return res.RawRowView(0), nil
}

func (o *OLSRegression) Score(x, y mat.Matrix) (float64, error) {
	if o.opt == nil {
		return 0.0, ErrNoOptions
	}
	if x == nil {
		return 0.0, ErrNoDesignMatrix
	}
	if y == nil {
		return 0.0, ErrNoTargetMatrix
	}

	m, _ := x.Dims()

	ym, _ := y.Dims()
	if m != ym {
		return 0.0, fmt.Errorf("design matrix has %d rows and target has %d rows, %w", m, ym, ErrTargetLenMismatch)
	}

	res, err := o.Predict(x)
	if err != nil {
		return 0.0, err
	}

	ySlice := mat.Col(nil, 0, y)

	return stat.RSquaredFrom(res, ySlice, nil), nil
}

func (o *OLSRegression) Intercept() float64 {
	return o.intercept
}

func (o *OLSRegression) Coef() []float64 {
	c := make([]float64, len(o.coef))
	copy(c, o.coef)
	return c
}

// Sigma is the residual standard error, NaN for an exact fit.
func (o *OLSRegression) Sigma() float64 {
	return o.sigma
}

// StdErr returns the coefficient standard errors, intercept first when fitted.
func (o *OLSRegression) StdErr() []float64 {
	s := make([]float64, len(o.stdErr))
	copy(s, o.stdErr)
	return s
}

// Residuals of the training data.
func (o *OLSRegression) Residuals() []float64 {
	r := make([]float64, len(o.residuals))
	copy(r, o.residuals)
	return r
}

// FitSeries regresses y on the columns of cols with an intercept.
func FitSeries(y []float64, cols ...[]float64) (*OLSRegression, error) {
	x := mat.NewDense(len(y), max(len(cols), 1), nil)
	for j, col := range cols {
		if len(col) != len(y) {
			return nil, fmt.Errorf("column %d has %d rows, expected %d, %w", j, len(col), len(y), ErrTargetLenMismatch)
		}
		x.SetCol(j, col)
	}
	opt := NewDefaultOLSOptions()
	if len(cols) == 0 {
		// intercept only
		floats.AddConst(1.0, x.RawMatrix().Data)
		opt.FitIntercept = false
	}
	model, err := NewOLSRegression(opt)
	if err != nil {
		return nil, err
	}
	if err := model.Fit(x, mat.NewDense(len(y), 1, y)); err != nil {
		return nil, err
	}
	return model, nil
}
