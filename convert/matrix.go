package convert

import (
	"fmt"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/errdefs"
	"github.com/aouyang1/go-forecastbridge/frame"
	"github.com/aouyang1/go-forecastbridge/mat"
)

// Matrix builds an engine regressor matrix. A flat slice or a series becomes a one column
// matrix. Row slices and tables keep their shape. Table and series names become column names.
func Matrix(x any) (*engine.Matrix, error) {
	var (
		rows  [][]float64
		names []string
	)
	switch v := x.(type) {
	case []float64:
		rows = column(v)
	case engine.Vector:
		rows = column(v)
	case *frame.Series:
		rows = column(v.Values)
		if v.Name != "" {
			names = []string{v.Name}
		}
	case [][]float64:
		rows = v
	case *frame.Table:
		names = v.Names()
		cols := make([][]float64, len(names))
		for i, n := range names {
			cols[i], _ = v.Values(n)
		}
		d, err := mat.NewDenseFromColumns(cols)
		if err != nil {
			return nil, fmt.Errorf("unable to build matrix from table, %w", err)
		}
		rows = mat.ToArray(d)
	case *engine.Matrix:
		return v, nil
	default:
		return nil, fmt.Errorf("cannot build a matrix from %T, %w", x, errdefs.ErrType)
	}

	d, err := mat.NewDenseFromArray(rows)
	if err != nil {
		return nil, fmt.Errorf("unable to build matrix, %w: %w", errdefs.ErrInvalidArgument, err)
	}
	return &engine.Matrix{ColNames: names, Data: mat.ToArray(d)}, nil
}

func column(v []float64) [][]float64 {
	rows := make([][]float64, len(v))
	for i, x := range v {
		rows[i] = []float64{x}
	}
	return rows
}
