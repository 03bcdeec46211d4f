package native

import (
	"math"

	"gonum.org/v1/gonum/optimize"
)

const penalty = 1e100

// bounds maps an unconstrained optimiser coordinate onto (lo, hi) through a logistic curve.
type bounds struct {
	lo, hi float64
}

func (b bounds) to(u float64) float64 {
	return b.lo + (b.hi-b.lo)/(1+math.Exp(-u))
}

func (b bounds) from(v float64) float64 {
	p := (v - b.lo) / (b.hi - b.lo)
	p = math.Min(math.Max(p, 1e-6), 1-1e-6)
	return math.Log(p / (1 - p))
}

// minimize runs Nelder-Mead on f over the box given by bs, starting at x0. The objective
// sees parameters on their natural scale. The best point found is returned even when the
// evaluation budget runs out.
func (e *Engine) minimize(f func([]float64) float64, x0 []float64, bs []bounds) ([]float64, float64) {
	natural := make([]float64, len(x0))
	toNatural := func(u []float64) []float64 {
		for i := range u {
			natural[i] = bs[i].to(u[i])
		}
		return natural
	}
	objective := func(u []float64) float64 {
		v := f(toNatural(u))
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return penalty
		}
		return v
	}

	if len(x0) == 0 {
		return nil, objective(nil)
	}

	u0 := make([]float64, len(x0))
	for i := range x0 {
		u0[i] = bs[i].from(x0[i])
	}
	settings := &optimize.Settings{
		FuncEvaluations: e.opt.MaxIterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   e.opt.Tolerance,
			Iterations: 50,
		},
	}
	best, bestF := u0, objective(u0)
	res, _ := optimize.Minimize(optimize.Problem{Func: objective}, u0, settings, &optimize.NelderMead{})
	if res != nil && res.F <= bestF {
		best, bestF = res.X, res.F
	}

	out := make([]float64, len(best))
	for i := range best {
		out[i] = bs[i].to(best[i])
	}
	return out, bestF
}

// minimize1 searches (lo, hi) on a grid before refining the best grid point.
func (e *Engine) minimize1(f func(float64) float64, lo, hi float64) float64 {
	const steps = 30
	bestX, bestF := lo, math.Inf(1)
	for i := 1; i < steps; i++ {
		x := lo + (hi-lo)*float64(i)/steps
		if v := f(x); v < bestF {
			bestX, bestF = x, v
		}
	}
	x, _ := e.minimize(func(p []float64) float64 { return f(p[0]) }, []float64{bestX}, []bounds{{lo, hi}})
	if f(x[0]) <= bestF {
		return x[0]
	}
	return bestX
}
