package engine

import (
	"fmt"
	"math"
	"slices"
)

// TSEps is the tolerance the engine uses when comparing time values.
const TSEps = 1e-5

// Tsp is the (start, frequency) descriptor of a regularly spaced series. The end is derived
// from the number of observations.
type Tsp struct {
	Start     float64 `json:"start"`
	Frequency float64 `json:"frequency"`
}

func (p Tsp) deltat() float64 {
	return 1.0 / p.Frequency
}

func (p Tsp) times(n int) []float64 {
	t := make([]float64, n)
	dt := p.deltat()
	for i := range t {
		t[i] = p.Start + float64(i)*dt
	}
	return t
}

// cycles follows the engine's definition: the position within the period of the first
// observation is recovered from the fractional part of the start time.
func (p Tsp) cycles(n int) []int {
	c := make([]int, n)
	f := int(math.Round(p.Frequency))
	if f <= 1 {
		for i := range c {
			c[i] = 1
		}
		return c
	}
	m := int(math.Round(positiveMod(p.Start, 1.0) * p.Frequency))
	for i := range c {
		c[i] = (i+m)%f + 1
	}
	return c
}

func (p Tsp) end(n int) float64 {
	return p.Start + float64(n-1)*p.deltat()
}

func positiveMod(x, y float64) float64 {
	m := math.Mod(x, y)
	if m < 0 {
		m += y
	}
	// values like 1999.9999999 should read as the next whole period
	if y-m < TSEps {
		m = 0
	}
	return m
}

// pair splits a time value into (period, position) the same way start() and end() do.
func (p Tsp) pair(t float64) (int, int) {
	outer := math.Floor(t + TSEps)
	inner := int(math.Round((t-outer)*p.Frequency)) + 1
	return int(outer), inner
}

// TimeSeries is the engine's univariate time-series value: a numeric vector annotated with
// its start time and frequency.
type TimeSeries struct {
	Tsp
	Values []float64 `json:"values"`
}

// NewTimeSeries builds a series from values, the time of the first observation and the number
// of observations per period.
func NewTimeSeries(values []float64, start, frequency float64) (*TimeSeries, error) {
	if frequency <= 0 || math.IsNaN(frequency) || math.IsInf(frequency, 0) {
		return nil, fmt.Errorf("frequency %v must be positive, %w", frequency, ErrBadTsp)
	}
	if math.Abs(frequency-math.Round(frequency)) < TSEps {
		frequency = math.Round(frequency)
	}
	return &TimeSeries{
		Tsp:    Tsp{Start: start, Frequency: frequency},
		Values: slices.Clone(values),
	}, nil
}

// Class implements Object.
func (ts *TimeSeries) Class() []string {
	return []string{ClassTS}
}

// Len returns the number of observations.
func (ts *TimeSeries) Len() int {
	return len(ts.Values)
}

// Time returns the time value of every observation.
func (ts *TimeSeries) Time() []float64 {
	return ts.times(len(ts.Values))
}

// Cycle returns the 1-based position within the period of every observation.
func (ts *TimeSeries) Cycle() []int {
	return ts.cycles(len(ts.Values))
}

// GetFrequency returns the number of observations per period.
func (ts *TimeSeries) GetFrequency() float64 {
	return ts.Frequency
}

// End returns the time value of the last observation.
func (ts *TimeSeries) End() float64 {
	return ts.end(len(ts.Values))
}

// StartPair returns the start as (period, position).
func (ts *TimeSeries) StartPair() (int, int) {
	return ts.pair(ts.Start)
}

// EndPair returns the end as (period, position).
func (ts *TimeSeries) EndPair() (int, int) {
	return ts.pair(ts.End())
}

// Next returns the time value one step after the last observation.
func (ts *TimeSeries) Next() float64 {
	return ts.Start + float64(len(ts.Values))*ts.deltat()
}

// Copy returns a deep copy.
func (ts *TimeSeries) Copy() *TimeSeries {
	return &TimeSeries{Tsp: ts.Tsp, Values: slices.Clone(ts.Values)}
}

// WithValues returns a series with the same descriptor and new values.
func (ts *TimeSeries) WithValues(values []float64) *TimeSeries {
	return &TimeSeries{Tsp: ts.Tsp, Values: values}
}

// Window returns observations [i, j) with the start time moved accordingly.
func (ts *TimeSeries) Window(i, j int) *TimeSeries {
	return &TimeSeries{
		Tsp: Tsp{
			Start:     ts.Start + float64(i)*ts.deltat(),
			Frequency: ts.Frequency,
		},
		Values: slices.Clone(ts.Values[i:j]),
	}
}

// MultiSeries is a set of aligned series sharing one descriptor, stored by column.
type MultiSeries struct {
	Tsp
	Names   []string    `json:"names"`
	Columns [][]float64 `json:"columns"`
}

// Class implements Object.
func (m *MultiSeries) Class() []string {
	return []string{ClassMTS, ClassTS, ClassMatrix}
}

// Len returns the number of rows.
func (m *MultiSeries) Len() int {
	if len(m.Columns) == 0 {
		return 0
	}
	return len(m.Columns[0])
}

// Time returns the time value of every row.
func (m *MultiSeries) Time() []float64 {
	return m.times(m.Len())
}

// Cycle returns the 1-based position within the period of every row.
func (m *MultiSeries) Cycle() []int {
	return m.cycles(m.Len())
}

// GetFrequency returns the number of observations per period.
func (m *MultiSeries) GetFrequency() float64 {
	return m.Frequency
}

// Column returns the series in column i.
func (m *MultiSeries) Column(i int) *TimeSeries {
	return &TimeSeries{Tsp: m.Tsp, Values: slices.Clone(m.Columns[i])}
}

// ColumnByName returns the named column.
func (m *MultiSeries) ColumnByName(name string) (*TimeSeries, bool) {
	i := slices.Index(m.Names, name)
	if i < 0 {
		return nil, false
	}
	return m.Column(i), true
}
