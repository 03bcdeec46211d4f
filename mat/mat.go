// Package mat converts between row or column slices and gonum dense matrices.
package mat

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrColMismatch = errors.New("column size mismatch")
	ErrRowMismatch = errors.New("row size mismatch")
	ErrEmpty       = errors.New("matrix has no elements")
)

// NewDenseFromArray builds a matrix from rows. Every row must have the same length.
func NewDenseFromArray(x [][]float64) (*mat.Dense, error) {
	m := len(x)

	n := -1
	for i, row := range x {
		if n >= 0 && len(row) != n {
			return nil, fmt.Errorf("at row %d, %w", i, ErrColMismatch)
		}
		if n < 0 {
			n = len(row)
		}
	}
	if m == 0 || n <= 0 {
		return nil, ErrEmpty
	}

	// flatten to row order
	data := make([]float64, 0, m*n)
	for _, row := range x {
		data = append(data, row...)
	}
	return mat.NewDense(m, n, data), nil
}

// NewDenseFromColumns builds a matrix whose j-th column is cols[j].
func NewDenseFromColumns(cols [][]float64) (*mat.Dense, error) {
	n := len(cols)
	if n == 0 || len(cols[0]) == 0 {
		return nil, ErrEmpty
	}
	m := len(cols[0])
	d := mat.NewDense(m, n, nil)
	for j, col := range cols {
		if len(col) != m {
			return nil, fmt.Errorf("at column %d, %w", j, ErrRowMismatch)
		}
		d.SetCol(j, col)
	}
	return d, nil
}

// ToArray copies a matrix into row slices.
func ToArray(x mat.Matrix) [][]float64 {
	m, _ := x.Dims()
	out := make([][]float64, m)
	for i := range out {
		out[i] = mat.Row(nil, i, x)
	}
	return out
}
