package remote

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/goccy/go-json"
)

var ErrCodec = errors.New("cannot encode engine value")

// envelope carries an engine value on the wire next to its class tag, which selects the
// concrete type on decode.
type envelope struct {
	Class []string        `json:"class"`
	Value json.RawMessage `json:"value"`
}

// floats is a numeric vector whose missing values travel as null.
type floats []float64

func (f floats) MarshalJSON() ([]byte, error) {
	if f == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf.WriteString("null")
			continue
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (f *floats) UnmarshalJSON(data []byte) error {
	var raw []*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*f = nil
		return nil
	}
	out := make(floats, len(raw))
	for i, v := range raw {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	*f = out
	return nil
}

func rows(x [][]float64) []floats {
	if x == nil {
		return nil
	}
	out := make([]floats, len(x))
	for i, r := range x {
		out[i] = r
	}
	return out
}

func unrows(x []floats) [][]float64 {
	if x == nil {
		return nil
	}
	out := make([][]float64, len(x))
	for i, r := range x {
		out[i] = r
	}
	return out
}

type wireTS struct {
	Start     float64 `json:"start"`
	Frequency float64 `json:"frequency"`
	Values    floats  `json:"values"`
}

func toWireTS(ts *engine.TimeSeries) *wireTS {
	if ts == nil {
		return nil
	}
	return &wireTS{Start: ts.Start, Frequency: ts.Frequency, Values: ts.Values}
}

func (w *wireTS) series() *engine.TimeSeries {
	if w == nil {
		return nil
	}
	return &engine.TimeSeries{
		Tsp:    engine.Tsp{Start: w.Start, Frequency: w.Frequency},
		Values: w.Values,
	}
}

type wireMTS struct {
	Start     float64  `json:"start"`
	Frequency float64  `json:"frequency"`
	Names     []string `json:"names"`
	Columns   []floats `json:"columns"`
}

func toWireMTS(m *engine.MultiSeries) *wireMTS {
	if m == nil {
		return nil
	}
	return &wireMTS{Start: m.Start, Frequency: m.Frequency, Names: m.Names, Columns: rows(m.Columns)}
}

func (w *wireMTS) series() *engine.MultiSeries {
	if w == nil {
		return nil
	}
	return &engine.MultiSeries{
		Tsp:     engine.Tsp{Start: w.Start, Frequency: w.Frequency},
		Names:   w.Names,
		Columns: unrows(w.Columns),
	}
}

type wireForecast struct {
	Method    string   `json:"method"`
	Mean      *wireTS  `json:"mean"`
	Lower     []floats `json:"lower"`
	Upper     []floats `json:"upper"`
	Level     floats   `json:"level"`
	X         *wireTS  `json:"x,omitempty"`
	Fitted    floats   `json:"fitted,omitempty"`
	Residuals floats   `json:"residuals,omitempty"`
}

type wireSTL struct {
	Components *wireMTS `json:"time.series"`
	Window     []int    `json:"win"`
}

type wireDecomposed struct {
	X        *wireTS `json:"x"`
	Seasonal *wireTS `json:"seasonal"`
	Trend    *wireTS `json:"trend"`
	Random   *wireTS `json:"random"`
	Figure   floats  `json:"figure"`
	Type     string  `json:"type"`
}

type wireMatrix struct {
	RowNames []string `json:"rownames,omitempty"`
	ColNames []string `json:"colnames,omitempty"`
	Data     []floats `json:"data"`
}

type wireACF struct {
	Values floats `json:"acf"`
	Lag    floats `json:"lag"`
	N      int    `json:"n.used"`
	Type   string `json:"type"`
	Series string `json:"series"`
}

// encode wraps an engine value in its envelope. A nil value encodes as nil.
func encode(x engine.Object) (*envelope, error) {
	var v any
	switch t := x.(type) {
	case nil:
		return nil, nil
	case engine.Vector:
		v = floats(t)
	case *engine.TimeSeries:
		v = toWireTS(t)
	case *engine.MultiSeries:
		v = toWireMTS(t)
	case *engine.Forecast:
		v = &wireForecast{
			Method:    t.Method,
			Mean:      toWireTS(t.Mean),
			Lower:     rows(t.Lower),
			Upper:     rows(t.Upper),
			Level:     t.Level,
			X:         toWireTS(t.X),
			Fitted:    t.Fitted,
			Residuals: t.Residuals,
		}
	case *engine.STL:
		v = &wireSTL{Components: toWireMTS(t.Components), Window: t.Window}
	case *engine.DecomposedTS:
		v = &wireDecomposed{
			X:        toWireTS(t.X),
			Seasonal: toWireTS(t.Seasonal),
			Trend:    toWireTS(t.Trend),
			Random:   toWireTS(t.Random),
			Figure:   t.Figure,
			Type:     t.Type,
		}
	case *engine.Matrix:
		v = &wireMatrix{RowNames: t.RowNames, ColNames: t.ColNames, Data: rows(t.Data)}
	case *engine.ACF:
		v = &wireACF{Values: t.Values, Lag: t.Lag, N: t.N, Type: t.Type, Series: t.Series}
	default:
		return nil, fmt.Errorf("value of type %T, %w", x, ErrCodec)
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("class %v, %w", x.Class(), err)
	}
	return &envelope{Class: x.Class(), Value: raw}, nil
}

// decode rebuilds the engine value named by the first class tag of the envelope.
func decode(env *envelope) (engine.Object, error) {
	if env == nil {
		return nil, nil
	}
	if len(env.Class) == 0 {
		return nil, fmt.Errorf("envelope has no class, %w", engine.ErrNotClassed)
	}

	unmarshal := func(v any) error {
		if err := json.Unmarshal(env.Value, v); err != nil {
			return fmt.Errorf("class %v, %w", env.Class, err)
		}
		return nil
	}
	switch env.Class[0] {
	case engine.ClassNumeric:
		var v floats
		if err := unmarshal(&v); err != nil {
			return nil, err
		}
		return engine.Vector(v), nil
	case engine.ClassTS:
		var v wireTS
		if err := unmarshal(&v); err != nil {
			return nil, err
		}
		return v.series(), nil
	case engine.ClassMTS:
		var v wireMTS
		if err := unmarshal(&v); err != nil {
			return nil, err
		}
		return v.series(), nil
	case engine.ClassForecast:
		var v wireForecast
		if err := unmarshal(&v); err != nil {
			return nil, err
		}
		return &engine.Forecast{
			Method:    v.Method,
			Mean:      v.Mean.series(),
			Lower:     unrows(v.Lower),
			Upper:     unrows(v.Upper),
			Level:     v.Level,
			X:         v.X.series(),
			Fitted:    v.Fitted,
			Residuals: v.Residuals,
		}, nil
	case engine.ClassSTL:
		var v wireSTL
		if err := unmarshal(&v); err != nil {
			return nil, err
		}
		return &engine.STL{Components: v.Components.series(), Window: v.Window}, nil
	case engine.ClassDecomposedTS:
		var v wireDecomposed
		if err := unmarshal(&v); err != nil {
			return nil, err
		}
		return &engine.DecomposedTS{
			X:        v.X.series(),
			Seasonal: v.Seasonal.series(),
			Trend:    v.Trend.series(),
			Random:   v.Random.series(),
			Figure:   v.Figure,
			Type:     v.Type,
		}, nil
	case engine.ClassMatrix:
		var v wireMatrix
		if err := unmarshal(&v); err != nil {
			return nil, err
		}
		return &engine.Matrix{RowNames: v.RowNames, ColNames: v.ColNames, Data: unrows(v.Data)}, nil
	case engine.ClassACF:
		var v wireACF
		if err := unmarshal(&v); err != nil {
			return nil, err
		}
		return &engine.ACF{Values: v.Values, Lag: v.Lag, N: v.N, Type: v.Type, Series: v.Series}, nil
	}
	return nil, fmt.Errorf("class %v, %w", env.Class, engine.ErrUnknownKind)
}

// encodeKwargs marshals keyword arguments. Engine values travel in envelopes, everything
// else as plain JSON.
func encodeKwargs(kw engine.Kwargs) (map[string]json.RawMessage, error) {
	out := make(map[string]json.RawMessage, len(kw))
	for k, v := range kw {
		var payload any = v
		switch t := v.(type) {
		case engine.Object:
			env, err := encode(t)
			if err != nil {
				return nil, fmt.Errorf("argument %s, %w", k, err)
			}
			payload = env
		case []float64:
			payload = floats(t)
		case float64:
			if math.IsNaN(t) || math.IsInf(t, 0) {
				payload = nil
			}
		}
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("argument %s, %w", k, err)
		}
		out[k] = raw
	}
	return out, nil
}

// decodeKwargs reverses encodeKwargs. JSON objects are always envelopes.
func decodeKwargs(raw map[string]json.RawMessage) (engine.Kwargs, error) {
	kw := make(engine.Kwargs, len(raw))
	for k, msg := range raw {
		msg = bytes.TrimSpace(msg)
		if len(msg) > 0 && msg[0] == '{' {
			var env envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				return nil, fmt.Errorf("argument %s, %w", k, err)
			}
			obj, err := decode(&env)
			if err != nil {
				return nil, fmt.Errorf("argument %s, %w", k, err)
			}
			kw[k] = obj
			continue
		}
		var v any
		if err := json.Unmarshal(msg, &v); err != nil {
			return nil, fmt.Errorf("argument %s, %w", k, err)
		}
		kw[k] = v
	}
	return kw, nil
}
