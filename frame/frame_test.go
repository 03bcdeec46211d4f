package frame

import (
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aouyang1/go-forecastbridge/errdefs"
	"github.com/aouyang1/go-forecastbridge/index"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSeriesFile(t *testing.T) {
	testData := map[string]struct {
		filename string
		values   []float64
		outer    []int
		inner    []int
		shape    index.Shape
		err      error
	}{
		"values only": {
			"values.csv",
			[]float64{1.5, 2.5, 3.5, math.NaN()},
			[]int{1, 2, 3, 4}, nil, index.ShapeFlat, nil,
		},
		"annual": {
			"annual.csv",
			[]float64{111.0, 130.8, 141.3, 154.1},
			[]int{1965, 1966, 1967, 1968}, nil, index.ShapeFlat, nil,
		},
		"quarterly": {
			"quarterly.csv",
			[]float64{30.05, 19.15, 25.32, 25.27, 27.59, 21.96},
			[]int{1999, 1999, 1999, 1999, 2000, 2000}, []int{1, 2, 3, 4, 1, 2}, index.ShapeSeasonal, nil,
		},
		"four columns": {
			"wide.csv",
			nil, nil, nil, 0, errdefs.ErrFormat,
		},
		"ragged": {
			"ragged.csv",
			nil, nil, nil, 0, errdefs.ErrFormat,
		},
		"fractional label": {
			"badlabel.csv",
			nil, nil, nil, 0, errdefs.ErrFormat,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			s, err := ReadSeriesFile(filepath.Join("testdata", td.filename))
			if td.err != nil {
				require.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)

			expected := &Series{Values: td.values}
			assert.True(t, floatsEqualNaN(expected.Values, s.Values), "values %v", s.Values)
			assert.Equal(t, td.shape, s.Index.Shape())
			assert.Equal(t, td.outer, s.Index.Outer())
			assert.Equal(t, td.inner, s.Index.Inner())
		})
	}
}

func TestReadSeriesEmpty(t *testing.T) {
	_, err := ReadSeries(strings.NewReader(""))
	assert.ErrorIs(t, err, errdefs.ErrFormat)

	_, err = ReadSeries(strings.NewReader("1,x\n"))
	assert.ErrorIs(t, err, errdefs.ErrFormat)
}

func TestSeriesEqual(t *testing.T) {
	a := FromValues([]float64{1, math.NaN(), 3})
	b := FromValues([]float64{1, math.NaN(), 3})
	assert.True(t, a.Equal(b))

	b.Values[2] = 4
	assert.False(t, a.Equal(b))

	c, err := NewSeries("", []float64{1, math.NaN(), 3}, index.NewFlat([]int{2, 3, 4}))
	require.Nil(t, err)
	assert.False(t, a.Equal(c))

	_, err = NewSeries("", []float64{1}, index.Default(2))
	assert.ErrorIs(t, err, errdefs.ErrInvalidArgument)

	assert.Equal(t, 1, a.Missing())
}

func TestSeriesAt(t *testing.T) {
	idx, err := index.FromDescriptor(index.Start{Outer: 2000, Inner: 2}, 4, 3)
	require.Nil(t, err)
	s, err := NewSeries("x", []float64{10, 20, 30}, idx)
	require.Nil(t, err)

	v, ok := s.At(index.Label{Outer: 2000, Inner: 4})
	require.True(t, ok)
	assert.Equal(t, 30.0, v)

	_, ok = s.At(index.Label{Outer: 2001, Inner: 1})
	assert.False(t, ok)

	col := s.Column()
	assert.Equal(t, "x", col.Name())
	assert.Equal(t, []float64{10, 20, 30}, col.Values)
}

func TestTable(t *testing.T) {
	testData := map[string]struct {
		names []string
		cols  [][]float64
		err   error
	}{
		"valid": {
			[]string{"point_fc", "lower80", "upper80"},
			[][]float64{{1, 2}, {0, 1}, {2, 3}},
			nil,
		},
		"short column": {
			[]string{"a", "b"},
			[][]float64{{1, 2}, {1}},
			errdefs.ErrInvalidArgument,
		},
		"duplicate": {
			[]string{"a", "a"},
			[][]float64{{1, 2}, {1, 2}},
			errdefs.ErrInvalidArgument,
		},
		"name count": {
			[]string{"a"},
			[][]float64{{1, 2}, {1, 2}},
			errdefs.ErrInvalidArgument,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			tbl, err := NewTable(index.Default(2), td.names, td.cols)
			if td.err != nil {
				require.ErrorIs(t, err, td.err)
				return
			}
			require.Nil(t, err)

			assert.Equal(t, td.names, tbl.Names())
			assert.Equal(t, 2, tbl.NRows())
			assert.Equal(t, 2, tbl.DataFrame().NRows())
			for i, n := range td.names {
				vals, ok := tbl.Values(n)
				require.True(t, ok)
				assert.Equal(t, td.cols[i], vals)
			}
			assert.False(t, tbl.HasColumn("missing"))
		})
	}
}

func TestNamedTable(t *testing.T) {
	tbl, err := NewNamedTable(
		[]string{"ME", "RMSE"},
		[]string{"Train", "Test"},
		[][]float64{{0.1, 2.0}, {0.3, 4.0}},
	)
	require.Nil(t, err)

	v, ok := tbl.Get("RMSE", "Test")
	require.True(t, ok)
	assert.Equal(t, 4.0, v)

	_, ok = tbl.Get("MASE", "Test")
	assert.False(t, ok)
	assert.Equal(t, []string{"ME", "RMSE"}, tbl.RowNames())
}
