package native

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/aouyang1/go-forecastbridge/engine"
)

// args reads engine keyword arguments. A nil value is treated as unset.
type args engine.Kwargs

// only rejects any keyword not in names.
func (a args) only(names ...string) error {
	var unused []string
	for k := range a {
		if !slices.Contains(names, k) {
			unused = append(unused, k)
		}
	}
	if len(unused) > 0 {
		sort.Strings(unused)
		return fmt.Errorf("unused argument %v, %w", unused, ErrBadArgument)
	}
	return nil
}

func (a args) has(name string) bool {
	v, exists := a[name]
	return exists && v != nil
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case engine.Vector:
		if len(t) == 1 {
			return t[0], true
		}
	case []float64:
		if len(t) == 1 {
			return t[0], true
		}
	}
	return 0, false
}

func (a args) float(name string, def float64) (float64, error) {
	if !a.has(name) {
		return def, nil
	}
	f, ok := toFloat(a[name])
	if !ok {
		return 0, fmt.Errorf("%s must be a number, got %T, %w", name, a[name], ErrBadArgument)
	}
	return f, nil
}

// optFloat returns NaN when the argument is unset.
func (a args) optFloat(name string) (float64, error) {
	return a.float(name, math.NaN())
}

func (a args) int(name string, def int) (int, error) {
	if !a.has(name) {
		return def, nil
	}
	f, ok := toFloat(a[name])
	if !ok || f != math.Trunc(f) {
		return 0, fmt.Errorf("%s must be an integer, got %v, %w", name, a[name], ErrBadArgument)
	}
	return int(f), nil
}

func (a args) bool(name string, def bool) (bool, error) {
	if !a.has(name) {
		return def, nil
	}
	switch t := a[name].(type) {
	case bool:
		return t, nil
	case engine.Vector:
		if len(t) == 1 {
			return t[0] != 0, nil
		}
	}
	return false, fmt.Errorf("%s must be a boolean, got %T, %w", name, a[name], ErrBadArgument)
}

func (a args) string(name, def string) (string, error) {
	if !a.has(name) {
		return def, nil
	}
	s, ok := a[name].(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T, %w", name, a[name], ErrBadArgument)
	}
	return s, nil
}

func (a args) floats(name string) ([]float64, error) {
	if !a.has(name) {
		return nil, nil
	}
	switch t := a[name].(type) {
	case engine.Vector:
		return slices.Clone([]float64(t)), nil
	case []float64:
		return slices.Clone(t), nil
	case []any:
		out := make([]float64, len(t))
		for i, v := range t {
			f, ok := toFloat(v)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a number, %w", name, i, ErrBadArgument)
			}
			out[i] = f
		}
		return out, nil
	}
	if f, ok := toFloat(a[name]); ok {
		return []float64{f}, nil
	}
	return nil, fmt.Errorf("%s must be numeric, got %T, %w", name, a[name], ErrBadArgument)
}

func (a args) ints(name string, def []int) ([]int, error) {
	if !a.has(name) {
		return def, nil
	}
	fs, err := a.floats(name)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(fs))
	for i, f := range fs {
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("%s must hold integers, got %v, %w", name, f, ErrBadArgument)
		}
		out[i] = int(f)
	}
	return out, nil
}

func (a args) object(name string) engine.Object {
	if !a.has(name) {
		return nil
	}
	obj, _ := a[name].(engine.Object)
	return obj
}

// horizon reads h, defaulting to two seasonal periods or ten steps.
func (a args) horizon(freq float64) (int, error) {
	def := 10
	if freq > 1 {
		def = int(2 * freq)
	}
	h, err := a.int("h", def)
	if err != nil {
		return 0, err
	}
	if h <= 0 {
		return 0, fmt.Errorf("h must be positive, got %d, %w", h, ErrBadArgument)
	}
	return h, nil
}

// levels reads level, scaling fractions to percentages and sorting ascending. fan selects
// the levels 51, 54, ..., 99 instead.
func (a args) levels() ([]float64, error) {
	fan, err := a.bool("fan", false)
	if err != nil {
		return nil, err
	}
	if fan {
		lv := make([]float64, 0, 17)
		for l := 51.0; l < 100; l += 3 {
			lv = append(lv, l)
		}
		return lv, nil
	}
	lv, err := a.floats("level")
	if err != nil {
		return nil, err
	}
	if lv == nil {
		return []float64{80, 95}, nil
	}
	fractions := true
	for _, l := range lv {
		if l <= 0 || l >= 1 {
			fractions = false
		}
	}
	for i, l := range lv {
		if fractions {
			lv[i] = 100 * l
		}
		if lv[i] <= 0 || lv[i] >= 100 {
			return nil, fmt.Errorf("confidence limit out of range, %v, %w", l, ErrBadArgument)
		}
	}
	sort.Float64s(lv)
	return lv, nil
}

// series reads x as a univariate time series.
func series(x engine.Object) (*engine.TimeSeries, error) {
	switch t := x.(type) {
	case *engine.TimeSeries:
		if t == nil {
			break
		}
		return t, nil
	case engine.Vector:
		return engine.NewTimeSeries([]float64(t), 1, 1)
	}
	return nil, fmt.Errorf("expected a time series, got %T, %w", x, ErrBadArgument)
}

func hasNaN(x []float64) bool {
	return slices.ContainsFunc(x, math.IsNaN)
}

// periodOf is the frequency of ts rounded to whole observations.
func periodOf(ts *engine.TimeSeries) int {
	return int(math.Round(ts.Frequency))
}
