package native

import (
	"context"
	"fmt"
	"math"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/models"
	"github.com/aouyang1/go-forecastbridge/stats"
)

// maxStepwiseModels bounds the number of fits of a stepwise search.
const maxStepwiseModels = 94

type arimaSearch struct {
	d, D, m                  int
	maxP, maxQ, maxSP, maxSQ int
	maxOrder                 int
	startP, startQ           int
	startSP, startSQ         int
	allowMean, allowDrift    bool
	stepwise                 bool
	ic                       string
}

// candidate is one point of the search space. constant is a mean when d+D is 0 and a drift
// when it is 1.
type candidate struct {
	p, q, P, Q int
	constant   bool
}

func (s *arimaSearch) valid(c candidate) bool {
	if c.p < 0 || c.q < 0 || c.P < 0 || c.Q < 0 {
		return false
	}
	if c.p > s.maxP || c.q > s.maxQ || c.P > s.maxSP || c.Q > s.maxSQ {
		return false
	}
	if c.p+c.q+c.P+c.Q > s.maxOrder {
		return false
	}
	if c.constant && !s.constantAllowed() {
		return false
	}
	return true
}

func (s *arimaSearch) constantAllowed() bool {
	switch s.d + s.D {
	case 0:
		return s.allowMean
	case 1:
		return s.allowDrift
	default:
		return false
	}
}

func (s *arimaSearch) spec(c candidate, xreg [][]float64) arimaSpec {
	return arimaSpec{
		order: arimaOrder{p: c.p, d: s.d, q: c.q, P: c.P, D: s.D, Q: c.Q, m: s.m},
		mean:  c.constant && s.d+s.D == 0,
		drift: c.constant && s.d+s.D == 1,
		xreg:  xreg,
	}
}

// neighbours varies one or two orders by one and toggles the constant.
func neighbours(c candidate) []candidate {
	var out []candidate
	for _, delta := range []int{-1, 1} {
		out = append(out,
			candidate{c.p + delta, c.q, c.P, c.Q, c.constant},
			candidate{c.p, c.q + delta, c.P, c.Q, c.constant},
			candidate{c.p, c.q, c.P + delta, c.Q, c.constant},
			candidate{c.p, c.q, c.P, c.Q + delta, c.constant},
			candidate{c.p + delta, c.q + delta, c.P, c.Q, c.constant},
			candidate{c.p, c.q, c.P + delta, c.Q + delta, c.constant},
		)
	}
	return append(out, candidate{c.p, c.q, c.P, c.Q, !c.constant})
}

// search runs the Hyndman-Khandakar stepwise search, or fits every model up to maxOrder when
// stepwise is off.
func (e *Engine) search(ctx context.Context, y []float64, s *arimaSearch, xreg [][]float64) (*arimaFit, error) {
	tried := make(map[candidate]*arimaFit)
	var (
		best    *arimaFit
		bestIC  = math.Inf(1)
		lastErr error
	)

	try := func(c candidate) (bool, error) {
		if !s.valid(c) {
			return false, nil
		}
		if _, seen := tried[c]; seen {
			return false, nil
		}
		if err := ctx.Err(); err != nil {
			return false, err
		}
		fit, err := e.fitArima(y, s.spec(c, xreg))
		tried[c] = fit
		if err != nil {
			lastErr = err
			return false, nil
		}
		if ic := fit.criterion(s.ic); ic < bestIC {
			best, bestIC = fit, ic
			return true, nil
		}
		return false, nil
	}

	constant := s.constantAllowed()
	if !s.stepwise {
		for p := 0; p <= s.maxP; p++ {
			for q := 0; q <= s.maxQ; q++ {
				for P := 0; P <= s.maxSP; P++ {
					for Q := 0; Q <= s.maxSQ; Q++ {
						for _, k := range []bool{false, true} {
							if _, err := try(candidate{p, q, P, Q, k}); err != nil {
								return nil, err
							}
						}
					}
				}
			}
		}
		return s.result(best, lastErr)
	}

	seasonal := s.m > 1
	starts := []candidate{
		{min(s.startP, s.maxP), min(s.startQ, s.maxQ), 0, 0, constant},
		{0, 0, 0, 0, constant},
		{1, 0, 0, 0, constant},
		{0, 1, 0, 0, constant},
	}
	if seasonal {
		starts[0].P, starts[0].Q = min(s.startSP, s.maxSP), min(s.startSQ, s.maxSQ)
		starts[2].P = min(1, s.maxSP)
		starts[3].Q = min(1, s.maxSQ)
	}
	if constant {
		starts = append(starts, candidate{0, 0, 0, 0, false})
	}
	var current candidate
	for _, c := range starts {
		improved, err := try(c)
		if err != nil {
			return nil, err
		}
		if improved {
			current = c
		}
	}
	if best == nil {
		return s.result(nil, lastErr)
	}

	for moved := true; moved && len(tried) < maxStepwiseModels; {
		moved = false
		for _, c := range neighbours(current) {
			if len(tried) >= maxStepwiseModels {
				break
			}
			improved, err := try(c)
			if err != nil {
				return nil, err
			}
			if improved {
				current, moved = c, true
				break
			}
		}
	}
	return s.result(best, lastErr)
}

func (s *arimaSearch) result(best *arimaFit, lastErr error) (*arimaFit, error) {
	if best != nil {
		return best, nil
	}
	if lastErr == nil {
		lastErr = ErrInsufficientData
	}
	return nil, fmt.Errorf("no suitable ARIMA model found, %w", lastErr)
}

var autoArimaArgs = withArgs(
	"d", "D", "max.p", "max.q", "max.P", "max.Q", "max.order", "max.d", "max.D",
	"start.p", "start.q", "start.P", "start.Q", "stationary", "seasonal", "ic", "stepwise",
	"allowdrift", "allowmean", "xreg", "newxreg", "test", "seasonal.test",
)

func (e *Engine) searchFromArgs(a args, sp *spec) (*arimaSearch, error) {
	s := &arimaSearch{m: int(math.Round(sp.x.Frequency))}
	var err error
	ints := []struct {
		name string
		dst  *int
		def  int
	}{
		{"max.p", &s.maxP, 5},
		{"max.q", &s.maxQ, 5},
		{"max.P", &s.maxSP, 2},
		{"max.Q", &s.maxSQ, 2},
		{"max.order", &s.maxOrder, 5},
		{"start.p", &s.startP, 2},
		{"start.q", &s.startQ, 2},
		{"start.P", &s.startSP, 1},
		{"start.Q", &s.startSQ, 1},
	}
	for _, v := range ints {
		if *v.dst, err = a.int(v.name, v.def); err != nil {
			return nil, err
		}
		if *v.dst < 0 {
			return nil, fmt.Errorf("%s must be non-negative, %w", v.name, ErrBadArgument)
		}
	}

	if s.stepwise, err = a.bool("stepwise", true); err != nil {
		return nil, err
	}
	if s.allowMean, err = a.bool("allowmean", true); err != nil {
		return nil, err
	}
	if s.allowDrift, err = a.bool("allowdrift", true); err != nil {
		return nil, err
	}
	if s.ic, err = a.string("ic", "aicc"); err != nil {
		return nil, err
	}
	switch s.ic {
	case "aicc", "aic", "bic":
	default:
		return nil, fmt.Errorf("ic %q, %w", s.ic, ErrBadArgument)
	}
	test, err := a.string("test", "kpss")
	if err != nil {
		return nil, err
	}
	if test != "kpss" {
		return nil, fmt.Errorf("unit root test %q, %w", test, ErrUnsupportedModel)
	}
	if _, err := a.string("seasonal.test", "seas"); err != nil {
		return nil, err
	}

	stationary, err := a.bool("stationary", false)
	if err != nil {
		return nil, err
	}
	seasonal, err := a.bool("seasonal", true)
	if err != nil {
		return nil, err
	}
	if !seasonal || s.m <= 1 {
		s.m = 1
		s.maxSP, s.maxSQ = 0, 0
	}
	if stationary {
		s.d, s.D = 0, 0
		return s, nil
	}

	maxD, err := a.int("max.D", 1)
	if err != nil {
		return nil, err
	}
	maxd, err := a.int("max.d", 2)
	if err != nil {
		return nil, err
	}
	if s.D, err = a.int("D", -1); err != nil {
		return nil, err
	}
	if s.d, err = a.int("d", -1); err != nil {
		return nil, err
	}
	if s.m == 1 {
		s.D = 0
	}
	if s.D < 0 {
		s.D = stats.NSDiffs(sp.y, s.m, maxD)
	}
	if s.d < 0 {
		x := sp.y
		for i := 0; i < s.D; i++ {
			x = stats.Diff(x, s.m, 1)
		}
		s.d = stats.NDiffs(x, maxd)
	}
	return s, nil
}

// unitRootInput regresses y on the regressors so the differencing tests see the errors.
func unitRootInput(y []float64, xreg [][]float64) []float64 {
	if len(xreg) == 0 {
		return y
	}
	model, err := models.FitSeries(y, xreg...)
	if err != nil {
		return y
	}
	return model.Residuals()
}

func (e *Engine) autoArima(ctx context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only(autoArimaArgs...); err != nil {
		return nil, err
	}
	sp, err := e.prepare(x, a)
	if err != nil {
		return nil, err
	}
	fc, err := e.autoArimaForecast(ctx, sp, a)
	if err != nil {
		return nil, err
	}
	return sp.finish(fc), nil
}

// autoArimaForecast selects and forecasts a model for the prepared series. It is shared with
// stlf, which forecasts the seasonally adjusted series.
func (e *Engine) autoArimaForecast(ctx context.Context, sp *spec, a args) (*engine.Forecast, error) {
	if hasNaN(sp.y) {
		return nil, ErrMissingValues
	}
	xreg, newxreg, _, err := regressors(a, len(sp.y), sp.h)
	if err != nil {
		return nil, err
	}

	tested := &spec{x: sp.x, y: unitRootInput(sp.y, xreg), h: sp.h, levels: sp.levels, lambda: sp.lambda}
	s, err := e.searchFromArgs(a, tested)
	if err != nil {
		return nil, err
	}

	fit, err := e.search(ctx, sp.y, s, xreg)
	if err != nil {
		return nil, err
	}
	return fit.toForecast(sp, newxreg), nil
}
