// Package kwargs translates host-style keyword arguments into the spelling and value types the
// forecasting engine expects.
package kwargs

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/errdefs"
)

// Args are keyword arguments spelled the host way, e.g. s_window or lam.
type Args map[string]any

// reserved maps host names that cannot be spelled like the engine's to the engine name.
var reserved = map[string]string{
	"lam": "lambda",
}

// Translate converts every argument in three steps. Slices and arrays become engine vectors.
// Reserved names are substituted. In the remaining names every underscore becomes a dot. A
// substituted name is never rewritten again. args is not modified.
func Translate(args Args) (engine.Kwargs, error) {
	out := make(engine.Kwargs, len(args))
	for k, v := range args {
		val, err := toEngineValue(v)
		if err != nil {
			return nil, fmt.Errorf("argument %s, %w", k, err)
		}

		name, ok := reserved[k]
		if !ok {
			name = strings.ReplaceAll(k, "_", ".")
		}
		if _, exists := out[name]; exists {
			return nil, fmt.Errorf("arguments collide on %s, %w", name, errdefs.ErrInvalidArgument)
		}
		out[name] = val
	}
	return out, nil
}

// ScalarOrVector wraps a slice or array as an engine vector and returns anything else
// unchanged.
func ScalarOrVector(x any) any {
	v, err := toEngineValue(x)
	if err != nil {
		return x
	}
	return v
}

func toEngineValue(x any) (any, error) {
	if x == nil {
		return nil, nil
	}
	if v, ok := x.(engine.Vector); ok {
		return v, nil
	}

	rv := reflect.ValueOf(x)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return x, nil
	}

	vec := make(engine.Vector, rv.Len())
	for i := range vec {
		f, err := toFloat(rv.Index(i))
		if err != nil {
			return nil, fmt.Errorf("element %d, %w", i, err)
		}
		vec[i] = f
	}
	return vec, nil
}

func toFloat(v reflect.Value) (float64, error) {
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), nil
	case reflect.Bool:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("%s is not numeric, %w", v.Kind(), errdefs.ErrInvalidArgument)
	}
}
