package frame

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/aouyang1/go-forecastbridge/errdefs"
	"github.com/aouyang1/go-forecastbridge/index"
)

// ReadSeriesFile reads a series from a headerless csv file. See ReadSeries.
func ReadSeriesFile(filename string) (*Series, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s, err := ReadSeries(f)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s, %w", filename, err)
	}
	return s, nil
}

// ReadSeries reads a headerless csv with 1, 2 or 3 columns. One column is data only and gets
// the default index. Two columns are (label, value). Three columns are (period, position, value)
// and produce a seasonal index. Empty or NA cells are read as missing.
func ReadSeries(r io.Reader) (*Series, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		if errors.Is(err, csv.ErrFieldCount) {
			return nil, fmt.Errorf("rows have different column counts, %w", errdefs.ErrFormat)
		}
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no rows, %w", errdefs.ErrFormat)
	}

	ncols := len(records[0])
	if ncols < 1 || ncols > 3 {
		return nil, fmt.Errorf("file has %d columns, expected 1, 2 or 3, %w", ncols, errdefs.ErrFormat)
	}

	values := make([]float64, len(records))
	levels := make([][]int, ncols-1)
	for i := range levels {
		levels[i] = make([]int, len(records))
	}

	for i, rec := range records {
		v, err := parseValue(rec[ncols-1])
		if err != nil {
			return nil, fmt.Errorf("row %d, %w", i+1, err)
		}
		values[i] = v

		for j := range levels {
			label, err := parseLabel(rec[j])
			if err != nil {
				return nil, fmt.Errorf("row %d column %d, %w", i+1, j+1, err)
			}
			levels[j][i] = label
		}
	}

	if len(levels) == 0 {
		return FromValues(values), nil
	}
	idx, err := index.FromLevels(levels...)
	if err != nil {
		return nil, err
	}
	return NewSeries("", values, idx)
}

func parseValue(field string) (float64, error) {
	field = strings.TrimSpace(field)
	switch field {
	case "", "NA", "NaN", "nan":
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return 0, fmt.Errorf("value %q is not numeric, %w", field, errdefs.ErrFormat)
	}
	return v, nil
}

func parseLabel(field string) (int, error) {
	field = strings.TrimSpace(field)
	v, err := strconv.ParseFloat(field, 64)
	if err != nil || v != math.Trunc(v) {
		return 0, fmt.Errorf("label %q is not an integer, %w", field, errdefs.ErrFormat)
	}
	return int(v), nil
}
