// Package index models the two label shapes a host series can carry: a flat ordinal index
// and a two-level seasonal index of (outer period, position within period).
package index

import (
	"fmt"
	"math"
	"slices"

	"github.com/aouyang1/go-forecastbridge/errdefs"
)

// Eps is the tolerance used when flooring fractional time values back to integer labels.
const Eps = 1e-5

// Shape identifies which of the two supported index layouts an Index has.
type Shape int

const (
	ShapeFlat Shape = iota + 1
	ShapeSeasonal
)

func (s Shape) String() string {
	switch s {
	case ShapeFlat:
		return "flat"
	case ShapeSeasonal:
		return "seasonal"
	default:
		return "unknown"
	}
}

// Start is the first label of a series. For a flat index only Outer is meaningful and Inner
// is reported as 1.
type Start struct {
	Outer int `json:"outer" yaml:"outer"`
	Inner int `json:"inner" yaml:"inner"`
}

// Label is a single row label. Inner is zero for flat indexes.
type Label struct {
	Outer int `json:"outer"`
	Inner int `json:"inner,omitempty"`
}

// Index is an immutable sequence of row labels, either flat or two-level.
type Index struct {
	outer []int
	inner []int

	// frequency is only set when the index was generated from a descriptor, so that
	// a partial first cycle does not shrink the levels count.
	frequency int
}

// NewFlat returns a flat index with the given labels.
func NewFlat(labels []int) Index {
	return Index{outer: slices.Clone(labels)}
}

// Default returns the implicit flat index 1..n.
func Default(n int) Index {
	labels := make([]int, n)
	for i := range labels {
		labels[i] = i + 1
	}
	return Index{outer: labels}
}

// NewSeasonal returns a two-level index from the outer period and inner position labels.
func NewSeasonal(outer, inner []int) (Index, error) {
	if len(outer) != len(inner) {
		return Index{}, fmt.Errorf(
			"outer level has %d labels, but inner level has %d, %w",
			len(outer), len(inner), errdefs.ErrInvalidArgument,
		)
	}
	return Index{outer: slices.Clone(outer), inner: slices.Clone(inner)}, nil
}

// FromLevels builds an index from one or two label levels. Three or more levels would mean
// nested seasonality, which is not supported.
func FromLevels(levels ...[]int) (Index, error) {
	switch len(levels) {
	case 0:
		return Index{}, fmt.Errorf("no index levels, %w", errdefs.ErrInvalidArgument)
	case 1:
		return NewFlat(levels[0]), nil
	case 2:
		return NewSeasonal(levels[0], levels[1])
	default:
		return Index{}, fmt.Errorf("index has %d levels, only 1 or 2 allowed, %w", len(levels), errdefs.ErrUnsupportedShape)
	}
}

// FromDescriptor generates the index of a series of the given length from its start label and
// frequency. Frequencies of 1 or less produce a flat range; anything greater produces the
// cycling two-level index.
func FromDescriptor(start Start, frequency, length int) (Index, error) {
	if length < 0 {
		return Index{}, fmt.Errorf("negative length %d, %w", length, errdefs.ErrInvalidArgument)
	}
	if frequency <= 1 {
		labels := make([]int, length)
		for i := range labels {
			labels[i] = start.Outer + i
		}
		return Index{outer: labels}, nil
	}

	i, j := start.Outer, start.Inner
	if j == 0 {
		j = 1
	}
	if j < 1 || j > frequency {
		return Index{}, fmt.Errorf(
			"start position %d is outside 1..%d, %w", j, frequency, errdefs.ErrInvalidArgument,
		)
	}

	outer := make([]int, 0, length)
	inner := make([]int, 0, length)
	for k := 0; k < length; k++ {
		outer = append(outer, i)
		inner = append(inner, j)
		j++
		if j > frequency {
			i++
			j = 1
		}
	}
	return Index{outer: outer, inner: inner, frequency: frequency}, nil
}

// FromTimes rebuilds an index from an engine's own time and cycle accessors. Times are
// floored, since sub-period steps are encoded as fractions of the outer period.
func FromTimes(times []float64, cycles []int, frequency float64) (Index, error) {
	outer := make([]int, len(times))
	for i, t := range times {
		outer[i] = int(math.Floor(t + Eps))
	}
	if frequency <= 1+Eps {
		return Index{outer: outer}, nil
	}
	if len(cycles) != len(times) {
		return Index{}, fmt.Errorf(
			"%d cycle positions for %d times, %w", len(cycles), len(times), errdefs.ErrInvalidArgument,
		)
	}
	return Index{
		outer:     outer,
		inner:     slices.Clone(cycles),
		frequency: int(math.Round(frequency)),
	}, nil
}

// Shape reports whether the index is flat or seasonal.
func (idx Index) Shape() Shape {
	if idx.inner != nil {
		return ShapeSeasonal
	}
	return ShapeFlat
}

// NLevels returns 1 for flat and 2 for seasonal indexes.
func (idx Index) NLevels() int {
	if idx.inner != nil {
		return 2
	}
	return 1
}

// Len returns the number of labels.
func (idx Index) Len() int {
	return len(idx.outer)
}

// Outer returns a copy of the outer (or only) level.
func (idx Index) Outer() []int {
	return slices.Clone(idx.outer)
}

// Inner returns a copy of the inner level, or nil for a flat index.
func (idx Index) Inner() []int {
	return slices.Clone(idx.inner)
}

// Label returns the i-th label.
func (idx Index) Label(i int) Label {
	l := Label{Outer: idx.outer[i]}
	if idx.inner != nil {
		l.Inner = idx.inner[i]
	}
	return l
}

// Position returns the row of the first label equal to l.
func (idx Index) Position(l Label) (int, bool) {
	for i := range idx.outer {
		if idx.outer[i] != l.Outer {
			continue
		}
		if idx.inner == nil || idx.inner[i] == l.Inner {
			return i, true
		}
	}
	return 0, false
}

// Frequency is 1 for a flat index. For a seasonal index it is the number of distinct inner
// positions, widened to the largest inner position so that a partial cycle is still legal.
func (idx Index) Frequency() int {
	if idx.inner == nil {
		return 1
	}
	if idx.frequency > 0 {
		return idx.frequency
	}
	seen := make(map[int]struct{})
	maxInner := 0
	for _, v := range idx.inner {
		seen[v] = struct{}{}
		maxInner = max(maxInner, v)
	}
	return max(len(seen), maxInner)
}

// Descriptor returns the (start, frequency) pair the index was, or could have been,
// generated from.
func Descriptor(idx Index) (Start, int, error) {
	if idx.Len() == 0 {
		return Start{}, 0, fmt.Errorf("empty index, %w", errdefs.ErrInvalidArgument)
	}
	if idx.inner == nil {
		return Start{Outer: idx.outer[0], Inner: 1}, 1, nil
	}
	return Start{Outer: idx.outer[0], Inner: idx.inner[0]}, idx.Frequency(), nil
}

// Regular reports whether the labels are exactly what FromDescriptor would generate from the
// first label, i.e. consecutive with no gaps or repeats.
func (idx Index) Regular() bool {
	start, freq, err := Descriptor(idx)
	if err != nil {
		return true
	}
	gen, err := FromDescriptor(start, freq, idx.Len())
	if err != nil {
		return false
	}
	return slices.Equal(gen.outer, idx.outer) && slices.Equal(gen.inner, idx.inner)
}

// Equal compares labels only; the cached frequency is not part of identity.
func (idx Index) Equal(other Index) bool {
	if (idx.inner == nil) != (other.inner == nil) {
		return false
	}
	return slices.Equal(idx.outer, other.outer) && slices.Equal(idx.inner, other.inner)
}

// Slice returns the labels in [i, j).
func (idx Index) Slice(i, j int) Index {
	out := Index{outer: slices.Clone(idx.outer[i:j]), frequency: idx.frequency}
	if idx.inner != nil {
		out.inner = slices.Clone(idx.inner[i:j])
	}
	return out
}
