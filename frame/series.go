// Package frame holds the host-native labeled data structures: a single labeled series and a
// table of aligned float columns.
package frame

import (
	"fmt"
	"math"
	"slices"

	"github.com/aouyang1/go-forecastbridge/errdefs"
	"github.com/aouyang1/go-forecastbridge/index"

	dataframe "github.com/rocketlaunchr/dataframe-go"
)

// Series is a named vector of values with row labels. Missing values are NaN.
type Series struct {
	Name   string
	Values []float64
	Index  index.Index
}

// NewSeries pairs values with an index of the same length.
func NewSeries(name string, values []float64, idx index.Index) (*Series, error) {
	if len(values) != idx.Len() {
		return nil, fmt.Errorf(
			"%d values for %d index labels, %w", len(values), idx.Len(), errdefs.ErrInvalidArgument,
		)
	}
	return &Series{
		Name:   name,
		Values: slices.Clone(values),
		Index:  idx,
	}, nil
}

// FromValues returns an unnamed series with the default index 1..n.
func FromValues(values []float64) *Series {
	return &Series{
		Values: slices.Clone(values),
		Index:  index.Default(len(values)),
	}
}

// Len returns the number of values.
func (s *Series) Len() int {
	return len(s.Values)
}

// At returns the value under label l.
func (s *Series) At(l index.Label) (float64, bool) {
	i, ok := s.Index.Position(l)
	if !ok {
		return math.NaN(), false
	}
	return s.Values[i], true
}

// Equal compares names, labels and values, treating two NaN values as equal.
func (s *Series) Equal(other *Series) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Name != other.Name || !s.Index.Equal(other.Index) {
		return false
	}
	return floatsEqualNaN(s.Values, other.Values)
}

// Column converts the values into a dataframe column.
func (s *Series) Column() *dataframe.SeriesFloat64 {
	return dataframe.NewSeriesFloat64(s.Name, nil, s.Values)
}

// Missing counts the NaN values.
func (s *Series) Missing() int {
	var n int
	for _, v := range s.Values {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}

func floatsEqualNaN(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if math.IsNaN(a[i]) && math.IsNaN(b[i]) {
			continue
		}
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
