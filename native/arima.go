package native

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/mat"
	"github.com/aouyang1/go-forecastbridge/models"
	"github.com/aouyang1/go-forecastbridge/stats"

	"gonum.org/v1/gonum/floats"
)

// arimaOrder is (p,d,q)(P,D,Q)[m].
type arimaOrder struct {
	p, d, q int
	P, D, Q int
	m       int
}

func (o arimaOrder) String() string {
	s := fmt.Sprintf("ARIMA(%d,%d,%d)", o.p, o.d, o.q)
	if o.m > 1 && o.P+o.D+o.Q > 0 {
		s += fmt.Sprintf("(%d,%d,%d)[%d]", o.P, o.D, o.Q, o.m)
	}
	return s
}

func (o arimaOrder) nARMA() int {
	return o.p + o.q + o.P + o.Q
}

// arimaSpec is an order plus its deterministic terms. xreg holds regressor columns aligned
// with the series.
type arimaSpec struct {
	order arimaOrder
	mean  bool
	drift bool
	xreg  [][]float64
	names []string
}

type arimaFit struct {
	spec arimaSpec

	ar, ma, sar, sma []float64

	// beta holds the coefficients of the drift column followed by the regressors.
	beta []float64
	mu   float64

	fullAR []float64 // φ(B)Φ(B^m)(1-B)^d(1-B^m)^D as 1, a1, a2, ...
	fullMA []float64 // θ(B)Θ(B^m) as 1, b1, b2, ...

	y      []float64
	z      []float64
	resid  []float64
	fitted []float64

	nUsed  int
	npar   int
	sigma2 float64
	loglik float64
	aic    float64
	aicc   float64
	bic    float64
}

func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, av := range a {
		for j, bv := range b {
			out[i+j] += av * bv
		}
	}
	return out
}

// arPoly returns 1 - c1·B^s - c2·B^2s - ...
func arPoly(c []float64, s int) []float64 {
	out := make([]float64, len(c)*s+1)
	out[0] = 1
	for i, v := range c {
		out[(i+1)*s] = -v
	}
	return out
}

// maPoly returns 1 + c1·B^s + c2·B^2s + ...
func maPoly(c []float64, s int) []float64 {
	out := make([]float64, len(c)*s+1)
	out[0] = 1
	for i, v := range c {
		out[(i+1)*s] = v
	}
	return out
}

func diffPoly(d, D, m int) []float64 {
	out := []float64{1}
	for i := 0; i < d; i++ {
		out = polyMul(out, []float64{1, -1})
	}
	for i := 0; i < D; i++ {
		seasonal := make([]float64, m+1)
		seasonal[0], seasonal[m] = 1, -1
		out = polyMul(out, seasonal)
	}
	return out
}

func difference(x []float64, o arimaOrder) []float64 {
	out := x
	for i := 0; i < o.D; i++ {
		out = stats.Diff(out, o.m, 1)
	}
	for i := 0; i < o.d; i++ {
		out = stats.Diff(out, 1, 1)
	}
	return append([]float64(nil), out...)
}

// cssResiduals filters u through the ARMA polynomials, conditioning on the first
// len(ar)-1 values. It returns the residuals and their sum of squares.
func cssResiduals(u, ar, ma []float64) ([]float64, float64) {
	ncond := len(ar) - 1
	e := make([]float64, len(u))
	var sse float64
	for t := ncond; t < len(u); t++ {
		v := u[t]
		for i := 1; i < len(ar); i++ {
			v += ar[i] * u[t-i]
		}
		for j := 1; j < len(ma) && t-j >= 0; j++ {
			v -= ma[j] * e[t-j]
		}
		e[t] = v
		sse += v * v
	}
	return e, sse
}

// regress removes the deterministic terms from the differenced series, returning the
// coefficients of the differenced columns and the mean.
func regress(w []float64, cols [][]float64, mean bool) ([]float64, float64, []float64, error) {
	u := append([]float64(nil), w...)
	if len(cols) == 0 {
		if !mean {
			return nil, 0, u, nil
		}
		mu := stats.NaNMean(w)
		floats.AddConst(-mu, u)
		return nil, mu, u, nil
	}

	design, err := mat.NewDenseFromColumns(cols)
	if err != nil {
		return nil, 0, nil, fmt.Errorf("xreg, %w", err)
	}
	target, err := mat.NewDenseFromColumns([][]float64{w})
	if err != nil {
		return nil, 0, nil, err
	}
	opt := models.NewDefaultOLSOptions()
	opt.FitIntercept = mean
	model, err := models.NewOLSRegression(opt)
	if err != nil {
		return nil, 0, nil, err
	}
	if err := model.Fit(design, target); err != nil {
		return nil, 0, nil, fmt.Errorf("regression failed, %w", err)
	}
	return model.Coef(), model.Intercept(), model.Residuals(), nil
}

// fitArima estimates the ARMA coefficients by conditional sum of squares.
func (e *Engine) fitArima(y []float64, s arimaSpec) (*arimaFit, error) {
	o := s.order
	if hasNaN(y) {
		return nil, ErrMissingValues
	}
	for _, col := range s.xreg {
		if hasNaN(col) {
			return nil, fmt.Errorf("xreg, %w", ErrMissingValues)
		}
	}

	n := len(y)
	var cols [][]float64
	if s.drift {
		t := make([]float64, n)
		for i := range t {
			t[i] = float64(i + 1)
		}
		cols = append(cols, t)
	}
	cols = append(cols, s.xreg...)

	w := difference(y, o)
	dcols := make([][]float64, len(cols))
	for i, col := range cols {
		dcols[i] = difference(col, o)
	}
	mean := s.mean && o.d+o.D == 0

	ncond := o.p + o.P*o.m
	npar := o.nARMA() + len(cols)
	if mean {
		npar++
	}
	if len(w)-ncond <= npar+1 {
		return nil, fmt.Errorf("%d observations for %s, %w", n, o, ErrInsufficientData)
	}

	beta, mu, u, err := regress(w, dcols, mean)
	if err != nil {
		return nil, err
	}

	x0 := make([]float64, o.nARMA())
	bs := make([]bounds, o.nARMA())
	for i := range bs {
		bs[i] = bounds{-0.99, 0.99}
	}
	if o.p > 0 {
		if acf, err := stats.ACF(u, o.p); err == nil && len(acf) == o.p+1 {
			phi, _ := stats.YuleWalker(acf, o.p)
			for i, v := range phi {
				x0[i] = math.Max(-0.9, math.Min(0.9, v))
			}
		}
	}

	split := func(p []float64) ([]float64, []float64, []float64, []float64) {
		return p[:o.p], p[o.p : o.p+o.q], p[o.p+o.q : o.p+o.q+o.P], p[o.p+o.q+o.P:]
	}
	polys := func(p []float64) ([]float64, []float64) {
		ar, ma, sar, sma := split(p)
		return polyMul(arPoly(ar, 1), arPoly(sar, o.m)), polyMul(maPoly(ma, 1), maPoly(sma, o.m))
	}
	objective := func(p []float64) float64 {
		ar, ma := polys(p)
		_, sse := cssResiduals(u, ar, ma)
		return 0.5 * math.Log(math.Max(sse, minSSE)/float64(len(u)-ncond))
	}
	best := x0
	if len(x0) > 0 {
		best, _ = e.minimize(objective, x0, bs)
	}

	ar, ma, sar, sma := split(best)
	arStat, maFull := polys(best)
	resid, sse := cssResiduals(u, arStat, maFull)

	fit := &arimaFit{
		spec:   s,
		ar:     append([]float64(nil), ar...),
		ma:     append([]float64(nil), ma...),
		sar:    append([]float64(nil), sar...),
		sma:    append([]float64(nil), sma...),
		beta:   beta,
		mu:     mu,
		fullAR: polyMul(arStat, diffPoly(o.d, o.D, o.m)),
		fullMA: maFull,
		y:      y,
		nUsed:  len(u) - ncond,
		npar:   npar,
	}

	fit.z = make([]float64, n)
	for t := range y {
		fit.z[t] = y[t] - fit.regression(t, cols) - fit.mu
	}

	dd := n - len(w)
	fit.resid = make([]float64, n)
	fit.fitted = make([]float64, n)
	for t := range y {
		if t < dd {
			fit.resid[t] = math.NaN()
			fit.fitted[t] = math.NaN()
			continue
		}
		fit.resid[t] = resid[t-dd]
		fit.fitted[t] = y[t] - resid[t-dd]
	}

	nu := float64(fit.nUsed)
	k := float64(npar + 1)
	fit.sigma2 = sse / nu
	fit.loglik = -0.5 * nu * (math.Log(2*math.Pi*math.Max(fit.sigma2, minSSE)) + 1)
	fit.aic = -2*fit.loglik + 2*k
	fit.aicc = math.Inf(1)
	if nu-k-1 > 0 {
		fit.aicc = fit.aic + 2*k*(k+1)/(nu-k-1)
	}
	fit.bic = fit.aic + k*(math.Log(nu)-2)
	return fit, nil
}

func (f *arimaFit) regression(t int, cols [][]float64) float64 {
	var v float64
	for k, b := range f.beta {
		v += b * cols[k][t]
	}
	return v
}

func (f *arimaFit) criterion(ic string) float64 {
	switch ic {
	case "aic":
		return f.aic
	case "bic":
		return f.bic
	default:
		return f.aicc
	}
}

// psi returns the first h coefficients of the moving average representation of the
// integrated model.
func (f *arimaFit) psi(h int) []float64 {
	psi := make([]float64, h)
	psi[0] = 1
	for j := 1; j < h; j++ {
		var v float64
		if j < len(f.fullMA) {
			v = f.fullMA[j]
		}
		for i := 1; i <= j && i < len(f.fullAR); i++ {
			v -= f.fullAR[i] * psi[j-i]
		}
		psi[j] = v
	}
	return psi
}

// forecast returns h point forecasts and their standard errors. newxreg holds the future
// regressor columns.
func (f *arimaFit) forecast(h int, newxreg [][]float64) ([]float64, []float64) {
	n := len(f.y)
	z := append(append([]float64(nil), f.z...), make([]float64, h)...)
	e := make([]float64, n+h)
	for t := 0; t < n; t++ {
		if !math.IsNaN(f.resid[t]) {
			e[t] = f.resid[t]
		}
	}
	for t := n; t < n+h; t++ {
		var v float64
		for i := 1; i < len(f.fullAR) && t-i >= 0; i++ {
			v -= f.fullAR[i] * z[t-i]
		}
		for j := 1; j < len(f.fullMA) && t-j >= 0; j++ {
			v += f.fullMA[j] * e[t-j]
		}
		z[t] = v
	}

	psi := f.psi(h)
	point := make([]float64, h)
	se := make([]float64, h)
	var cum float64
	for i := 0; i < h; i++ {
		point[i] = z[n+i] + f.mu
		k := 0
		if f.spec.drift {
			point[i] += f.beta[0] * float64(n+i+1)
			k = 1
		}
		for j, col := range newxreg {
			point[i] += f.beta[k+j] * col[i]
		}
		cum += psi[i] * psi[i]
		se[i] = math.Sqrt(f.sigma2 * cum)
	}
	return point, se
}

func (f *arimaFit) method() string {
	o := f.spec.order.String()
	switch {
	case len(f.spec.xreg) > 0:
		return "Regression with " + o + " errors"
	case f.spec.drift:
		return o + " with drift"
	case f.spec.mean && f.spec.order.d+f.spec.order.D == 0:
		return o + " with non-zero mean"
	default:
		return o + " with zero mean"
	}
}

func (f *arimaFit) toForecast(sp *spec, newxreg [][]float64) *engine.Forecast {
	point, se := f.forecast(sp.h, newxreg)
	return newForecast(f.method(), sp.scaled(), point, se, sp.levels, f.fitted)
}

// regressors reads xreg and newxreg as column sets. Either both or neither must be given,
// with n and h rows respectively and the same number of columns.
func regressors(a args, n, h int) ([][]float64, [][]float64, []string, error) {
	xreg, names, err := matrixArg(a, "xreg")
	if err != nil {
		return nil, nil, nil, err
	}
	newxreg, _, err := matrixArg(a, "newxreg")
	if err != nil {
		return nil, nil, nil, err
	}
	switch {
	case xreg == nil && newxreg == nil:
		return nil, nil, nil, nil
	case xreg == nil:
		return nil, nil, nil, fmt.Errorf("newxreg without xreg, %w", ErrBadArgument)
	case newxreg == nil:
		return nil, nil, nil, fmt.Errorf("no regressors provided for the forecast horizon, %w", ErrBadArgument)
	}
	if len(xreg) != len(newxreg) {
		return nil, nil, nil, fmt.Errorf(
			"xreg has %d columns and newxreg has %d, %w", len(xreg), len(newxreg), ErrBadArgument,
		)
	}
	if len(xreg[0]) != n {
		return nil, nil, nil, fmt.Errorf("xreg has %d rows for %d observations, %w", len(xreg[0]), n, ErrBadArgument)
	}
	if len(newxreg[0]) < h {
		return nil, nil, nil, fmt.Errorf("newxreg has %d rows for horizon %d, %w", len(newxreg[0]), h, ErrBadArgument)
	}
	return xreg, newxreg, names, nil
}

// matrixArg reads a regressor argument given as a numeric vector or an engine matrix and
// returns it by column.
func matrixArg(a args, name string) ([][]float64, []string, error) {
	if !a.has(name) {
		return nil, nil, nil
	}
	switch t := a[name].(type) {
	case *engine.Matrix:
		rows, ncol := t.Dims()
		if rows == 0 || ncol == 0 {
			return nil, nil, fmt.Errorf("%s is empty, %w", name, ErrBadArgument)
		}
		cols := make([][]float64, ncol)
		for j := range cols {
			cols[j] = t.Column(j)
		}
		return cols, t.ColNames, nil
	default:
		v, err := a.floats(name)
		if err != nil {
			return nil, nil, err
		}
		if len(v) == 0 {
			return nil, nil, fmt.Errorf("%s is empty, %w", name, ErrBadArgument)
		}
		return [][]float64{v}, nil, nil
	}
}

func orderArg(a args, name string, def []int) ([]int, error) {
	o, err := a.ints(name, def)
	if err != nil {
		return nil, err
	}
	if len(o) != 3 && !(name == "seasonal" && len(o) == 4) {
		return nil, fmt.Errorf("%s must have three elements, %w", name, ErrBadArgument)
	}
	for _, v := range o {
		if v < 0 {
			return nil, fmt.Errorf("%s must be non-negative, %w", name, ErrBadArgument)
		}
	}
	return o, nil
}

var arimaArgs = withArgs(
	"order", "seasonal", "include.mean", "include.drift", "include.constant", "xreg", "newxreg", "method",
)

func (e *Engine) arima(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only(arimaArgs...); err != nil {
		return nil, err
	}
	sp, err := e.prepare(x, a)
	if err != nil {
		return nil, err
	}

	order, err := orderArg(a, "order", []int{0, 0, 0})
	if err != nil {
		return nil, err
	}
	seasonal, err := orderArg(a, "seasonal", []int{0, 0, 0})
	if err != nil {
		return nil, err
	}
	m := int(math.Round(sp.x.Frequency))
	if len(seasonal) == 4 {
		m = seasonal[3]
	}
	if m <= 1 {
		seasonal = []int{0, 0, 0}
		m = 1
	}
	method, err := a.string("method", "CSS-ML")
	if err != nil {
		return nil, err
	}
	switch strings.ToUpper(method) {
	case "CSS-ML", "ML", "CSS":
	default:
		return nil, fmt.Errorf("method %q, %w", method, ErrBadArgument)
	}

	s := arimaSpec{order: arimaOrder{
		p: order[0], d: order[1], q: order[2],
		P: seasonal[0], D: seasonal[1], Q: seasonal[2],
		m: m,
	}}
	if s.mean, err = a.bool("include.mean", true); err != nil {
		return nil, err
	}
	if s.drift, err = a.bool("include.drift", false); err != nil {
		return nil, err
	}
	if a.has("include.constant") {
		constant, err := a.bool("include.constant", false)
		if err != nil {
			return nil, err
		}
		s.mean = constant
		if constant && s.order.d+s.order.D == 1 {
			s.drift = true
		}
	}
	if s.drift && s.order.d+s.order.D > 1 {
		s.drift = false
	}

	var newxreg [][]float64
	if s.xreg, newxreg, s.names, err = regressors(a, len(sp.y), sp.h); err != nil {
		return nil, err
	}

	fit, err := e.fitArima(sp.y, s)
	if err != nil {
		return nil, err
	}
	return sp.finish(fit.toForecast(sp, newxreg)), nil
}
