package frame

import (
	"fmt"
	"slices"

	"github.com/aouyang1/go-forecastbridge/errdefs"
	"github.com/aouyang1/go-forecastbridge/index"

	dataframe "github.com/rocketlaunchr/dataframe-go"
)

// Table is a set of equally long float columns sharing one row index. Rows are labeled either
// by an index.Index or, for summary tables, by names.
type Table struct {
	df       *dataframe.DataFrame
	index    index.Index
	rowNames []string
}

// NewTable builds a table over idx with one column per name.
func NewTable(idx index.Index, names []string, cols [][]float64) (*Table, error) {
	df, err := newDataFrame(idx.Len(), names, cols)
	if err != nil {
		return nil, err
	}
	return &Table{df: df, index: idx}, nil
}

// NewNamedTable builds a table whose rows are labeled by name.
func NewNamedTable(rowNames, names []string, cols [][]float64) (*Table, error) {
	df, err := newDataFrame(len(rowNames), names, cols)
	if err != nil {
		return nil, err
	}
	return &Table{
		df:       df,
		index:    index.Default(len(rowNames)),
		rowNames: slices.Clone(rowNames),
	}, nil
}

func newDataFrame(nrows int, names []string, cols [][]float64) (*dataframe.DataFrame, error) {
	if len(names) != len(cols) {
		return nil, fmt.Errorf("%d names for %d columns, %w", len(names), len(cols), errdefs.ErrInvalidArgument)
	}
	series := make([]dataframe.Series, 0, len(cols))
	seen := make(map[string]struct{}, len(names))
	for i, col := range cols {
		if len(col) != nrows {
			return nil, fmt.Errorf(
				"column %q has %d rows, expected %d, %w", names[i], len(col), nrows, errdefs.ErrInvalidArgument,
			)
		}
		if _, exists := seen[names[i]]; exists {
			return nil, fmt.Errorf("duplicate column %q, %w", names[i], errdefs.ErrInvalidArgument)
		}
		seen[names[i]] = struct{}{}

		series = append(series, dataframe.NewSeriesFloat64(names[i], nil, col))
	}
	return dataframe.NewDataFrame(series...), nil
}

// DataFrame exposes the underlying frame.
func (t *Table) DataFrame() *dataframe.DataFrame {
	return t.df
}

// Index returns the row index.
func (t *Table) Index() index.Index {
	return t.index
}

// RowNames returns the row names of a named table, or nil.
func (t *Table) RowNames() []string {
	return slices.Clone(t.rowNames)
}

// NRows returns the number of rows.
func (t *Table) NRows() int {
	return t.index.Len()
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	return t.df.Names()
}

// HasColumn reports whether a column is present.
func (t *Table) HasColumn(name string) bool {
	_, err := t.df.NameToColumn(name)
	return err == nil
}

// Values returns a copy of the named column.
func (t *Table) Values(name string) ([]float64, bool) {
	i, err := t.df.NameToColumn(name)
	if err != nil {
		return nil, false
	}
	col, ok := t.df.Series[i].(*dataframe.SeriesFloat64)
	if !ok {
		return nil, false
	}
	return slices.Clone(col.Values), true
}

// Column returns the named column as a series over the table's index.
func (t *Table) Column(name string) (*Series, bool) {
	vals, ok := t.Values(name)
	if !ok {
		return nil, false
	}
	return &Series{Name: name, Values: vals, Index: t.index}, true
}

// Get returns the value in the named row and column of a named table.
func (t *Table) Get(row, col string) (float64, bool) {
	i := slices.Index(t.rowNames, row)
	if i < 0 {
		return 0, false
	}
	vals, ok := t.Values(col)
	if !ok {
		return 0, false
	}
	return vals[i], true
}
