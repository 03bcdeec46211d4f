package native

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/models"
	"github.com/aouyang1/go-forecastbridge/stats"
)

// Trend types of an exponential smoothing model.
const (
	trendNone   = "N"
	trendAdd    = "A"
	trendDamped = "Ad"
)

const (
	paramLower = 1e-4
	paramUpper = 0.9999
	phiLower   = 0.8
	phiUpper   = 0.98

	minSSE = 1e-300
)

// etsSpec fixes the structure of an additive-error exponential smoothing model and any
// smoothing parameters the caller supplied. NaN parameters are estimated.
type etsSpec struct {
	trend    string
	seasonal bool
	m        int

	alpha, beta, gamma, phi float64

	// simple fixes the initial states at their heuristic values instead of estimating them.
	simple  bool
	optCrit string
}

func (s etsSpec) name() string {
	season := "N"
	if s.seasonal {
		season = "A"
	}
	return fmt.Sprintf("ETS(A,%s,%s)", s.trend, season)
}

// etsFit is an estimated model with its final states.
type etsFit struct {
	spec etsSpec

	alpha, beta, gamma, phi float64
	level, slope            float64
	season                  []float64

	n      int
	np     int
	sse    float64
	sigma2 float64
	loglik float64
	aic    float64
	aicc   float64
	bic    float64
	fitted []float64
}

// etsState runs the additive error recursions over y from the given initial states and returns
// the one-step fitted values. The season slice is updated in place, indexed by position
// modulo m from the first observation.
func etsState(y []float64, s etsSpec, alpha, beta, gamma, phi, level, slope float64, season []float64) (fitted []float64, sse, sae, l, b float64) {
	fitted = make([]float64, len(y))
	l, b = level, slope
	if s.trend == trendAdd {
		phi = 1
	}
	for t, v := range y {
		var st float64
		if s.seasonal {
			st = season[t%s.m]
		}
		damped := 0.0
		if s.trend != trendNone {
			damped = phi * b
		}
		yhat := l + damped + st
		fitted[t] = yhat
		e := v - yhat
		sse += e * e
		sae += math.Abs(e)

		l = l + damped + alpha*e
		if s.trend != trendNone {
			b = damped + beta*e
		}
		if s.seasonal {
			season[t%s.m] = st + gamma*e
		}
	}
	return fitted, sse, sae, l, b
}

// initStates is the heuristic start: a classical seasonal figure from the first three periods
// and a linear fit to the first max(10, 2m) seasonally adjusted values.
func initStates(y []float64, s etsSpec) (float64, float64, []float64) {
	n := len(y)
	var season []float64
	sa := append([]float64(nil), y...)
	if s.seasonal {
		season = make([]float64, s.m)
		if dc, err := stats.Decompose(y[:min(n, 3*s.m)], s.m, stats.Additive); err == nil {
			copy(season, dc.Figure)
		}
		for i := range sa {
			sa[i] -= season[i%s.m]
		}
	}

	maxn := min(max(10, 2*s.m), n)
	if s.trend == trendNone {
		return stats.NaNMean(sa[:maxn]), 0, season
	}
	if maxn < 2 {
		return sa[0], 0, season
	}
	tt := make([]float64, maxn)
	for i := range tt {
		tt[i] = float64(i + 1)
	}
	fit, err := models.FitSeries(sa[:maxn], tt)
	if err != nil {
		return sa[0], 0, season
	}
	return fit.Intercept(), fit.Coef()[0], season
}

// simpleStates starts at the first observation with the first difference as the slope.
func simpleStates(y []float64, s etsSpec) (float64, float64, []float64) {
	if !s.seasonal {
		b := 0.0
		if len(y) > 1 {
			b = y[1] - y[0]
		}
		return y[0], b, nil
	}
	m := s.m
	first := stats.NaNMean(y[:m])
	season := make([]float64, m)
	for i := range season {
		season[i] = y[i] - first
	}
	b := 0.0
	if len(y) >= 2*m {
		b = (stats.NaNMean(y[m:2*m]) - first) / float64(m)
	}
	return first, b, season
}

func (s etsSpec) nParams() int {
	np := 2 // alpha and level
	if s.trend != trendNone {
		np += 2
	}
	if s.trend == trendDamped {
		np++
	}
	if s.seasonal {
		np += s.m
	}
	return np + 1
}

// fitETS estimates the free parameters of s on y.
func (e *Engine) fitETS(y []float64, s etsSpec) (*etsFit, error) {
	n := len(y)
	if hasNaN(y) {
		return nil, ErrMissingValues
	}
	if s.seasonal && n < 2*s.m {
		return nil, ErrNotSeasonal
	}
	if n < 3 {
		return nil, fmt.Errorf("%d observations, %w", n, ErrInsufficientData)
	}

	var l0, b0 float64
	var s0 []float64
	if s.simple {
		l0, b0, s0 = simpleStates(y, s)
	} else {
		l0, b0, s0 = initStates(y, s)
	}
	spread := math.Sqrt(stats.NaNVariance(y))
	if spread == 0 || math.IsNaN(spread) {
		spread = math.Max(math.Abs(l0), 1)
	}

	// free parameter layout: alpha, beta, gamma, phi, level, slope, each only when estimated
	type slot struct {
		dst *float64
		b   bounds
		x0  float64
	}
	var alpha, beta, gamma, phi, level, slope = s.alpha, s.beta, s.gamma, s.phi, l0, b0
	var slots []slot
	free := func(dst *float64, b bounds, x0 float64) {
		slots = append(slots, slot{dst, b, x0})
	}
	if math.IsNaN(alpha) {
		free(&alpha, bounds{paramLower, paramUpper}, 0.3)
	}
	if s.trend != trendNone && math.IsNaN(beta) {
		free(&beta, bounds{paramLower, paramUpper}, 0.05)
	}
	if s.seasonal && math.IsNaN(gamma) {
		free(&gamma, bounds{paramLower, paramUpper}, 0.05)
	}
	if s.trend == trendDamped && math.IsNaN(phi) {
		free(&phi, bounds{phiLower, phiUpper}, 0.9)
	}
	if !s.simple {
		free(&level, bounds{l0 - 10*spread, l0 + 10*spread}, l0)
		if s.trend != trendNone {
			free(&slope, bounds{b0 - 2*spread, b0 + 2*spread}, b0)
		}
	}

	season := make([]float64, len(s0))
	objective := func(p []float64) float64 {
		for i, sl := range slots {
			*sl.dst = p[i]
		}
		if s.trend != trendNone && beta > alpha {
			return math.Inf(1)
		}
		if s.seasonal && gamma > 1-alpha {
			return math.Inf(1)
		}
		copy(season, s0)
		_, sse, sae, _, _ := etsState(y, s, alpha, beta, gamma, phi, level, slope, season)
		switch s.optCrit {
		case "mse":
			return sse / float64(n)
		case "sigma":
			return math.Sqrt(sse / float64(n))
		case "mae":
			return sae / float64(n)
		default:
			return float64(n) * math.Log(math.Max(sse, minSSE))
		}
	}

	x0 := make([]float64, len(slots))
	bs := make([]bounds, len(slots))
	for i, sl := range slots {
		x0[i], bs[i] = sl.x0, sl.b
	}
	best, _ := e.minimize(objective, x0, bs)
	for i, sl := range slots {
		*sl.dst = best[i]
	}
	if s.trend == trendAdd {
		phi = 1
	}

	season = append([]float64(nil), s0...)
	fitted, sse, _, lT, bT := etsState(y, s, alpha, beta, gamma, phi, level, slope, season)

	np := s.nParams()
	fit := &etsFit{
		spec:   s,
		alpha:  alpha,
		beta:   beta,
		gamma:  gamma,
		phi:    phi,
		level:  lT,
		slope:  bT,
		season: season,
		n:      n,
		np:     np,
		sse:    sse,
		fitted: fitted,
	}
	fit.sigma2 = sse / float64(n)
	if n > np {
		fit.sigma2 = sse / float64(n-np)
	}
	fit.loglik = -0.5 * float64(n) * (math.Log(2*math.Pi) + 1 + math.Log(math.Max(sse, minSSE)/float64(n)))
	fit.aic = -2*fit.loglik + 2*float64(np)
	fit.aicc = math.Inf(1)
	if n-np-1 > 0 {
		fit.aicc = fit.aic + 2*float64(np*(np+1))/float64(n-np-1)
	}
	fit.bic = fit.aic + float64(np)*(math.Log(float64(n))-2)
	return fit, nil
}

func (f *etsFit) criterion(ic string) float64 {
	switch ic {
	case "aic":
		return f.aic
	case "bic":
		return f.bic
	default:
		return f.aicc
	}
}

// forecast extends the final states h steps ahead. The standard errors follow the additive
// error variance sigma²(1 + Σ c_j²) with c_j = alpha + beta·(phi+…+phi^j) + gamma·[j mod m = 0].
func (f *etsFit) forecast(h int) ([]float64, []float64) {
	s := f.spec
	point := make([]float64, h)
	se := make([]float64, h)

	var phiSum, cum float64
	for j := 1; j <= h; j++ {
		phiSum += math.Pow(f.phi, float64(j))
		point[j-1] = f.level
		if s.trend != trendNone {
			point[j-1] += phiSum * f.slope
		}
		if s.seasonal {
			point[j-1] += f.season[(f.n+j-1)%s.m]
		}
		se[j-1] = math.Sqrt(f.sigma2 * (1 + cum))

		c := f.alpha
		if s.trend != trendNone {
			c += f.beta * phiSum
		}
		if s.seasonal && j%s.m == 0 {
			c += f.gamma
		}
		cum += c * c
	}
	return point, se
}

func (f *etsFit) toForecast(sp *spec, method string) *engine.Forecast {
	point, se := f.forecast(sp.h)
	return newForecast(method, sp.scaled(), point, se, sp.levels, f.fitted)
}

// smoothingArg reads an optional smoothing parameter that must lie in (0, 1).
func smoothingArg(a args, name string) (float64, error) {
	v, err := a.optFloat(name)
	if err != nil {
		return 0, err
	}
	if !math.IsNaN(v) && (v <= 0 || v >= 1) {
		return 0, fmt.Errorf("%s %v must lie in (0, 1), %w", name, v, ErrBadArgument)
	}
	return v, nil
}

func readSmoothing(a args, s *etsSpec, names ...string) error {
	dst := map[string]*float64{"alpha": &s.alpha, "beta": &s.beta, "gamma": &s.gamma, "phi": &s.phi}
	for _, name := range names {
		v, err := smoothingArg(a, name)
		if err != nil {
			return err
		}
		*dst[name] = v
	}
	return nil
}

func newETSSpec(trend string, seasonal bool, m int) etsSpec {
	return etsSpec{
		trend:    trend,
		seasonal: seasonal,
		m:        m,
		alpha:    math.NaN(),
		beta:     math.NaN(),
		gamma:    math.NaN(),
		phi:      math.NaN(),
	}
}

func initialArg(a args) (bool, error) {
	initial, err := a.string("initial", "optimal")
	if err != nil {
		return false, err
	}
	switch initial {
	case "optimal":
		return false, nil
	case "simple":
		return true, nil
	default:
		return false, fmt.Errorf("initial %q, %w", initial, ErrBadArgument)
	}
}

func exponentialArg(a args) error {
	exponential, err := a.bool("exponential", false)
	if err != nil {
		return err
	}
	if exponential {
		return fmt.Errorf("exponential trend, %w", ErrUnsupportedModel)
	}
	return nil
}

func (e *Engine) ses(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only(withArgs("initial", "alpha")...); err != nil {
		return nil, err
	}
	sp, err := e.prepare(x, a)
	if err != nil {
		return nil, err
	}
	s := newETSSpec(trendNone, false, 1)
	if s.simple, err = initialArg(a); err != nil {
		return nil, err
	}
	if err := readSmoothing(a, &s, "alpha"); err != nil {
		return nil, err
	}
	fit, err := e.fitETS(sp.y, s)
	if err != nil {
		return nil, err
	}
	return sp.finish(fit.toForecast(sp, "Simple exponential smoothing")), nil
}

func (e *Engine) holt(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only(withArgs("initial", "alpha", "beta", "phi", "damped", "exponential")...); err != nil {
		return nil, err
	}
	if err := exponentialArg(a); err != nil {
		return nil, err
	}
	damped, err := a.bool("damped", false)
	if err != nil {
		return nil, err
	}
	sp, err := e.prepare(x, a)
	if err != nil {
		return nil, err
	}
	s := newETSSpec(trendAdd, false, 1)
	method := "Holt's method"
	if damped {
		s.trend = trendDamped
		method = "Damped Holt's method"
	}
	if s.simple, err = initialArg(a); err != nil {
		return nil, err
	}
	if err := readSmoothing(a, &s, "alpha", "beta", "phi"); err != nil {
		return nil, err
	}
	fit, err := e.fitETS(sp.y, s)
	if err != nil {
		return nil, err
	}
	return sp.finish(fit.toForecast(sp, method)), nil
}

func (e *Engine) hw(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only(withArgs("initial", "alpha", "beta", "gamma", "phi", "damped", "exponential", "seasonal")...); err != nil {
		return nil, err
	}
	if err := exponentialArg(a); err != nil {
		return nil, err
	}
	seasonal, err := a.string("seasonal", stats.Additive)
	if err != nil {
		return nil, err
	}
	switch seasonal {
	case stats.Additive:
	case stats.Multiplicative:
		return nil, fmt.Errorf("multiplicative seasonality, %w", ErrUnsupportedModel)
	default:
		return nil, fmt.Errorf("seasonal %q, %w", seasonal, ErrBadArgument)
	}
	damped, err := a.bool("damped", false)
	if err != nil {
		return nil, err
	}
	sp, err := e.prepare(x, a)
	if err != nil {
		return nil, err
	}
	m := int(math.Round(sp.x.Frequency))
	if m <= 1 {
		return nil, ErrNotSeasonal
	}
	s := newETSSpec(trendAdd, true, m)
	if damped {
		s.trend = trendDamped
	}
	if s.simple, err = initialArg(a); err != nil {
		return nil, err
	}
	if err := readSmoothing(a, &s, "alpha", "beta", "gamma", "phi"); err != nil {
		return nil, err
	}
	fit, err := e.fitETS(sp.y, s)
	if err != nil {
		return nil, err
	}
	method := "Holt-Winters' additive method"
	if damped {
		method = "Damped Holt-Winters' additive method"
	}
	return sp.finish(fit.toForecast(sp, method)), nil
}

var etsArgs = withArgs(
	"model", "damped", "alpha", "beta", "gamma", "phi", "additive.only", "opt.crit", "nmse", "ic",
	"allow.multiplicative.trend",
)

// etsCandidates expands a three letter model code such as "ZZZ" or "AAdN" into the additive
// error structures it allows.
func etsCandidates(code string, damped any, m, n int) ([]etsSpec, error) {
	if len(code) < 3 || len(code) > 4 {
		return nil, fmt.Errorf("model %q, %w", code, ErrBadArgument)
	}
	code = strings.ToUpper(code)
	errType, seasonType := code[0], code[len(code)-1]
	trendCode := code[1 : len(code)-1]
	if trendCode == "AD" {
		trendCode, damped = "A", true
	}
	if errType == 'M' || trendCode == "M" || seasonType == 'M' {
		return nil, fmt.Errorf("model %q, %w", code, ErrUnsupportedModel)
	}
	if errType != 'A' && errType != 'Z' {
		return nil, fmt.Errorf("error type %q, %w", errType, ErrBadArgument)
	}

	var seasons []bool
	switch seasonType {
	case 'N':
		seasons = []bool{false}
	case 'A':
		if m <= 1 || n < 2*m {
			return nil, ErrNotSeasonal
		}
		seasons = []bool{true}
	case 'Z':
		seasons = []bool{false}
		if m > 1 && n >= 2*m {
			seasons = append(seasons, true)
		}
	default:
		return nil, fmt.Errorf("season type %q, %w", seasonType, ErrBadArgument)
	}

	var trends []string
	switch trendCode {
	case "N":
		trends = []string{trendNone}
	case "A":
		trends = []string{trendAdd, trendDamped}
	case "Z":
		trends = []string{trendNone, trendAdd, trendDamped}
	default:
		return nil, fmt.Errorf("trend type %q, %w", trendCode, ErrBadArgument)
	}
	if d, ok := damped.(bool); ok {
		if d && trendCode == "N" {
			return nil, fmt.Errorf("damped model without trend, %w", ErrBadArgument)
		}
		var kept []string
		for _, tr := range trends {
			if (tr == trendDamped) == d {
				kept = append(kept, tr)
			}
		}
		trends = kept
	}

	var out []etsSpec
	for _, seasonal := range seasons {
		for _, tr := range trends {
			out = append(out, newETSSpec(tr, seasonal, max(m, 1)))
		}
	}
	return out, nil
}

// fitBestETS fits every candidate and keeps the one with the lowest information criterion.
func (e *Engine) fitBestETS(ctx context.Context, y []float64, candidates []etsSpec, ic string) (*etsFit, error) {
	var (
		best    *etsFit
		lastErr error
	)
	for _, s := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fit, err := e.fitETS(y, s)
		if err != nil {
			lastErr = err
			continue
		}
		if best == nil || fit.criterion(ic) < best.criterion(ic) {
			best = fit
		}
	}
	if best == nil {
		if lastErr == nil {
			lastErr = ErrInsufficientData
		}
		return nil, lastErr
	}
	return best, nil
}

func (e *Engine) etsSpecFromArgs(a args, m, n int) ([]etsSpec, string, error) {
	code, err := a.string("model", "ZZZ")
	if err != nil {
		return nil, "", err
	}
	var damped any
	if a.has("damped") {
		d, err := a.bool("damped", false)
		if err != nil {
			return nil, "", err
		}
		damped = d
	}
	candidates, err := etsCandidates(code, damped, m, n)
	if err != nil {
		return nil, "", err
	}

	optCrit, err := a.string("opt.crit", "lik")
	if err != nil {
		return nil, "", err
	}
	switch optCrit {
	case "lik", "mse", "sigma", "mae":
	default:
		return nil, "", fmt.Errorf("opt.crit %q, %w", optCrit, ErrBadArgument)
	}
	ic, err := a.string("ic", "aicc")
	if err != nil {
		return nil, "", err
	}
	switch ic {
	case "aicc", "aic", "bic":
	default:
		return nil, "", fmt.Errorf("ic %q, %w", ic, ErrBadArgument)
	}
	if _, err := a.int("nmse", 3); err != nil {
		return nil, "", err
	}
	if _, err := a.bool("additive.only", false); err != nil {
		return nil, "", err
	}
	if _, err := a.bool("allow.multiplicative.trend", false); err != nil {
		return nil, "", err
	}

	for i := range candidates {
		candidates[i].optCrit = optCrit
		if err := readSmoothing(a, &candidates[i], "alpha", "beta", "gamma", "phi"); err != nil {
			return nil, "", err
		}
	}
	return candidates, ic, nil
}

// ets selects an additive error exponential smoothing model by information criterion and
// returns its forecast.
func (e *Engine) ets(ctx context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only(etsArgs...); err != nil {
		return nil, err
	}
	sp, err := e.prepare(x, a)
	if err != nil {
		return nil, err
	}
	fc, err := e.etsForecast(ctx, sp, a)
	if err != nil {
		return nil, err
	}
	return sp.finish(fc), nil
}

// etsForecast forecasts the prepared series on its transformed scale.
func (e *Engine) etsForecast(ctx context.Context, sp *spec, a args) (*engine.Forecast, error) {
	m := int(math.Round(sp.x.Frequency))
	candidates, ic, err := e.etsSpecFromArgs(a, m, len(sp.y))
	if err != nil {
		return nil, err
	}
	fit, err := e.fitBestETS(ctx, sp.y, candidates, ic)
	if err != nil {
		return nil, err
	}
	return fit.toForecast(sp, fit.spec.name()), nil
}
