// Package engine describes the values and the call interface of a time-series forecasting
// engine. Every value an engine hands back carries a class tag, which is the only thing the
// bridge uses to tell values apart.
package engine

import (
	"context"
	"errors"
	"slices"
)

var (
	ErrBadTsp      = errors.New("invalid time-series attributes")
	ErrNotClassed  = errors.New("value has no class tag")
	ErrUnknownKind = errors.New("unknown object class")
)

// Class tags understood by the bridge.
const (
	ClassTS           = "ts"
	ClassMTS          = "mts"
	ClassMatrix       = "matrix"
	ClassArray        = "array"
	ClassForecast     = "forecast"
	ClassSTL          = "stl"
	ClassDecomposedTS = "decomposed.ts"
	ClassACF          = "acf"
	ClassNumeric      = "numeric"
)

// ACF types.
const (
	ACFCorrelation = "correlation"
	ACFPartial     = "partial"
)

// Classed is the introspection capability of an engine value.
type Classed interface {
	Class() []string
}

// Object is any value produced or consumed by an engine.
type Object = Classed

// Inherits reports whether x carries the class tag c.
func Inherits(x Classed, c string) bool {
	if x == nil {
		return false
	}
	return slices.Contains(x.Class(), c)
}

// Kwargs are keyword arguments already spelled the way the engine expects them.
type Kwargs map[string]any

// Engine invokes a named engine function on x with keyword arguments. Errors from the engine
// are returned to the caller untouched by the bridge.
type Engine interface {
	Call(ctx context.Context, fn string, x Object, kw Kwargs) (Object, error)
}

// Vector is a plain numeric vector. Scalars are vectors of length one.
type Vector []float64

// Class implements Object.
func (v Vector) Class() []string {
	return []string{ClassNumeric}
}

// Scalar returns the first element, or false for an empty vector.
func (v Vector) Scalar() (float64, bool) {
	if len(v) == 0 {
		return 0, false
	}
	return v[0], true
}

// Forecast is the result of a forecasting method.
type Forecast struct {
	Method string `json:"method"`

	// Mean starts one step after the end of X and shares its frequency.
	Mean *TimeSeries `json:"mean"`

	// Lower and Upper hold one row per entry of Level, each the length of Mean.
	Lower [][]float64 `json:"lower"`
	Upper [][]float64 `json:"upper"`
	Level []float64   `json:"level"`

	X         *TimeSeries `json:"x,omitempty"`
	Fitted    []float64   `json:"fitted,omitempty"`
	Residuals []float64   `json:"residuals,omitempty"`
}

// Class implements Object.
func (f *Forecast) Class() []string {
	return []string{ClassForecast}
}

// STL is a loess seasonal decomposition. Components holds the seasonal, trend and remainder
// columns in that order.
type STL struct {
	Components *MultiSeries `json:"time.series"`
	Window     []int        `json:"win"`
}

// Class implements Object.
func (s *STL) Class() []string {
	return []string{ClassSTL}
}

// DecomposedTS is a classical moving-average decomposition. Trend and Random are missing at
// both ends.
type DecomposedTS struct {
	X        *TimeSeries `json:"x"`
	Seasonal *TimeSeries `json:"seasonal"`
	Trend    *TimeSeries `json:"trend"`
	Random   *TimeSeries `json:"random"`
	Figure   []float64   `json:"figure"`
	Type     string      `json:"type"`
}

// Class implements Object.
func (d *DecomposedTS) Class() []string {
	return []string{ClassDecomposedTS}
}

// Matrix is a row-major numeric matrix with optional dimension names.
type Matrix struct {
	RowNames []string    `json:"rownames,omitempty"`
	ColNames []string    `json:"colnames,omitempty"`
	Data     [][]float64 `json:"data"`
}

// Class implements Object.
func (m *Matrix) Class() []string {
	return []string{ClassMatrix, ClassArray}
}

// Dims returns the number of rows and columns.
func (m *Matrix) Dims() (int, int) {
	if len(m.Data) == 0 {
		return 0, len(m.ColNames)
	}
	return len(m.Data), len(m.Data[0])
}

// Get returns the element in the named row and column.
func (m *Matrix) Get(row, col string) (float64, bool) {
	i := slices.Index(m.RowNames, row)
	j := slices.Index(m.ColNames, col)
	if i < 0 || j < 0 {
		return 0, false
	}
	return m.Data[i][j], true
}

// Column returns a copy of column j.
func (m *Matrix) Column(j int) []float64 {
	out := make([]float64, len(m.Data))
	for i, row := range m.Data {
		out[i] = row[j]
	}
	return out
}

// ACF holds auto or partial autocorrelations. Lag counts observations. A correlation ACF
// starts at lag 0, a partial one at lag 1.
type ACF struct {
	Values []float64 `json:"acf"`
	Lag    []float64 `json:"lag"`
	N      int       `json:"n.used"`
	Type   string    `json:"type"`
	Series string    `json:"series"`
}

// Class implements Object.
func (a *ACF) Class() []string {
	return []string{ClassACF}
}
