package native

import (
	"context"
	"fmt"
	"math"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/models"
	"github.com/aouyang1/go-forecastbridge/stats"
)

const (
	// spectrumPoints is the number of frequencies in [0, 0.5] the AR spectrum is evaluated at.
	spectrumPoints = 500

	// spectrumFloor is the spectral peak height below which a series has no dominant period.
	spectrumFloor = 10
)

// arSpectrum fits an autoregression to x by Yule-Walker, choosing the order by AIC, and
// returns its spectral density on an even grid of frequencies over [0, 0.5].
func arSpectrum(x []float64) ([]float64, []float64, error) {
	n := len(x)
	maxOrder := min(n-1, int(math.Floor(10*math.Log10(float64(n)))))
	acf, err := stats.ACF(x, maxOrder)
	if err != nil {
		return nil, nil, err
	}
	r0 := stats.NaNVariance(x) * float64(n-1) / float64(n)

	pacf := stats.DurbinLevinson(acf)
	order, bestAIC := 0, float64(n)*math.Log(r0)
	v := r0
	for k, p := range pacf {
		v *= 1 - p*p
		if v <= 0 {
			break
		}
		if aic := float64(n)*math.Log(v) + 2*float64(k+1); aic < bestAIC {
			order, bestAIC = k+1, aic
		}
	}
	phi, ratio := stats.YuleWalker(acf, order)
	varPred := r0 * ratio * float64(n) / float64(n-(order+1))

	freq := make([]float64, spectrumPoints)
	spec := make([]float64, spectrumPoints)
	for i := range freq {
		freq[i] = 0.5 * float64(i) / float64(spectrumPoints-1)
		re, im := 1.0, 0.0
		for k, c := range phi {
			arg := 2 * math.Pi * freq[i] * float64(k+1)
			re -= c * math.Cos(arg)
			im += c * math.Sin(arg)
		}
		spec[i] = varPred / (re*re + im*im)
	}
	return freq, spec, nil
}

func argmax(x []float64) int {
	best := 0
	for i, v := range x {
		if v > x[best] {
			best = i
		}
	}
	return best
}

// findFrequency returns the dominant period of y after removing a linear trend, or 1 when
// there is none.
func findFrequency(y []float64) int {
	x := stats.Finite(y)
	if len(x) < 4 || stats.IsConstant(x) {
		return 1
	}
	t := make([]float64, len(x))
	for i := range t {
		t[i] = float64(i + 1)
	}
	if model, err := models.FitSeries(x, t); err == nil {
		x = model.Residuals()
	}
	freq, spec, err := arSpectrum(x)
	if err != nil {
		return 1
	}

	peak := argmax(spec)
	if spec[peak] <= spectrumFloor {
		return 1
	}
	if freq[peak] > 0 {
		return int(math.Floor(1/freq[peak] + 0.5))
	}

	// the peak is at frequency zero: look for the next local maximum
	rise := -1
	for i := 1; i < len(spec); i++ {
		if spec[i] > spec[i-1] {
			rise = i - 1
			break
		}
	}
	if rise < 0 {
		return 1
	}
	next := rise + 1 + argmax(spec[rise+1:])
	if next >= len(freq)-1 {
		return 1
	}
	return int(math.Floor(1/freq[next] + 0.5))
}

func (e *Engine) findFrequency(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only(); err != nil {
		return nil, err
	}
	ts, err := series(x)
	if err != nil {
		return nil, err
	}
	return engine.Vector{float64(findFrequency(ts.Values))}, nil
}

func (e *Engine) ndiffs(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only("alpha", "test", "type", "max.d"); err != nil {
		return nil, err
	}
	ts, err := series(x)
	if err != nil {
		return nil, err
	}
	test, err := a.string("test", "kpss")
	if err != nil {
		return nil, err
	}
	if test != "kpss" {
		return nil, fmt.Errorf("unit root test %q, %w", test, ErrUnsupportedModel)
	}
	alpha, err := a.float("alpha", 0.05)
	if err != nil {
		return nil, err
	}
	if alpha != 0.05 {
		return nil, fmt.Errorf("alpha %v, only 0.05 is tabulated, %w", alpha, ErrUnsupportedModel)
	}
	if typ, err := a.string("type", "level"); err != nil {
		return nil, err
	} else if typ != "level" {
		return nil, fmt.Errorf("type %q, %w", typ, ErrUnsupportedModel)
	}
	maxD, err := a.int("max.d", 2)
	if err != nil {
		return nil, err
	}
	if maxD < 0 {
		return nil, fmt.Errorf("max.d must be non-negative, %w", ErrBadArgument)
	}
	return engine.Vector{float64(stats.NDiffs(ts.Values, maxD))}, nil
}

func (e *Engine) nsdiffs(_ context.Context, x engine.Object, a args) (engine.Object, error) {
	if err := a.only("test", "m", "max.D"); err != nil {
		return nil, err
	}
	ts, err := series(x)
	if err != nil {
		return nil, err
	}
	test, err := a.string("test", "seas")
	if err != nil {
		return nil, err
	}
	if test != "seas" {
		return nil, fmt.Errorf("seasonal test %q, %w", test, ErrUnsupportedModel)
	}
	m, err := a.int("m", periodOf(ts))
	if err != nil {
		return nil, err
	}
	if m <= 1 {
		return nil, ErrNotSeasonal
	}
	maxD, err := a.int("max.D", 1)
	if err != nil {
		return nil, err
	}
	if maxD < 0 {
		return nil, fmt.Errorf("max.D must be non-negative, %w", ErrBadArgument)
	}
	return engine.Vector{float64(stats.NSDiffs(ts.Values, m, maxD))}, nil
}
