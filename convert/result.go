package convert

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aouyang1/go-forecastbridge/engine"
	"github.com/aouyang1/go-forecastbridge/errdefs"
	"github.com/aouyang1/go-forecastbridge/extract"
	"github.com/aouyang1/go-forecastbridge/frame"
	"github.com/aouyang1/go-forecastbridge/validate"
)

// ResultKind selects the extractor used to bring an engine result back to the host form.
type ResultKind int

const (
	ResultForecast ResultKind = iota + 1
	ResultDecomposition
	ResultSeries
	ResultAccuracy
	ResultACF
)

func (k ResultKind) String() string {
	switch k {
	case ResultForecast:
		return "forecast"
	case ResultDecomposition:
		return "decomposition"
	case ResultSeries:
		return "series"
	case ResultAccuracy:
		return "accuracy"
	case ResultACF:
		return "acf"
	default:
		return "unknown"
	}
}

// Result is an engine result in the form its input arrived in. For OriginEngine only Engine is
// set. For OriginHost Table holds forecasts, decompositions and accuracy tables, and Series
// holds series and autocorrelations.
type Result struct {
	Origin Origin
	Kind   ResultKind
	Engine engine.Object
	Table  *frame.Table
	Series *frame.Series
}

// Value returns whichever of Engine, Table or Series is set.
func (r Result) Value() any {
	switch {
	case r.Table != nil:
		return r.Table
	case r.Series != nil:
		return r.Series
	default:
		return r.Engine
	}
}

// EmitLikeOrigin returns engine results untouched to engine callers and extracts them for
// host callers.
func EmitLikeOrigin(result engine.Object, origin Origin, kind ResultKind) (Result, error) {
	out := Result{Origin: origin, Kind: kind}
	if origin == OriginEngine {
		out.Engine = result
		return out, nil
	}

	var err error
	switch kind {
	case ResultForecast:
		out.Table, err = extract.PredictionIntervals(result)
	case ResultDecomposition:
		out.Table, err = extract.Decomposition(result)
	case ResultAccuracy:
		out.Table, err = extract.Accuracy(result)
	case ResultACF:
		out.Series, err = extract.Autocorrelation(result)
	case ResultSeries:
		ts, ok := result.(*engine.TimeSeries)
		if !ok {
			return Result{}, fmt.Errorf("%T is not a time series, %w", result, errdefs.ErrInvalidArgument)
		}
		out.Series, err = FromExternal(ts)
	default:
		return Result{}, fmt.Errorf("unknown result kind %d, %w", kind, errdefs.ErrInvalidArgument)
	}
	if err != nil {
		return Result{}, err
	}
	return out, nil
}

// ToDecomposition returns a host decomposition table for either form.
func ToDecomposition(x any) (*frame.Table, error) {
	if validate.IsHostDecomposition(x) {
		return x.(*frame.Table), nil
	}
	return extract.Decomposition(x)
}

// ToForecast normalises a forecast, its training data and optional test data to host form.
// A host forecast table carries no training data, so data must then be given as a host series.
func ToForecast(fc, data, test any) (*frame.Table, *frame.Series, *frame.Series, error) {
	var (
		testSeries *frame.Series
		err        error
	)
	if test != nil {
		testSeries, err = ToSeries(test)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("bad test data, %w", err)
		}
	}

	if validate.IsHostForecast(fc) {
		x, ok := data.(*frame.Series)
		if !ok || x == nil {
			return nil, nil, nil, fmt.Errorf(
				"a forecast table needs its data as a host series, %w", errdefs.ErrInvalidArgument,
			)
		}
		return fc.(*frame.Table), x, testSeries, nil
	}

	pi, err := extract.PredictionIntervals(fc)
	if err != nil {
		return nil, nil, nil, err
	}
	f, ok := fc.(*engine.Forecast)
	if !ok {
		return nil, nil, nil, fmt.Errorf("%T is not a forecast, %w", fc, errdefs.ErrInvalidArgument)
	}
	x, err := FromExternal(f.X)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("forecast has no usable data, %w", err)
	}
	return pi, x, testSeries, nil
}

// FromForecastTable rebuilds an engine forecast from a prediction-interval table and the data
// it was fitted on. Levels are read back from the lower/upper column names.
func FromForecastTable(tbl *frame.Table, data *frame.Series) (*engine.Forecast, error) {
	if !validate.IsHostForecast(tbl) {
		return nil, fmt.Errorf("table has no %s column, %w", validate.ColPointForecast, errdefs.ErrInvalidArgument)
	}
	point, _ := tbl.Column(validate.ColPointForecast)
	mean, err := ToExternal(point)
	if err != nil {
		return nil, fmt.Errorf("bad forecast index, %w", err)
	}

	fc := &engine.Forecast{Mean: mean}
	for _, name := range tbl.Names() {
		lvlName, ok := strings.CutPrefix(name, "lower")
		if !ok {
			continue
		}
		lvl, err := strconv.ParseFloat(lvlName, 64)
		if err != nil {
			return nil, fmt.Errorf("bad level column %q, %w", name, errdefs.ErrInvalidArgument)
		}
		lower, _ := tbl.Values(name)
		upper, ok := tbl.Values("upper" + lvlName)
		if !ok {
			return nil, fmt.Errorf("no upper bound for %q, %w", name, errdefs.ErrInvalidArgument)
		}
		fc.Level = append(fc.Level, lvl)
		fc.Lower = append(fc.Lower, lower)
		fc.Upper = append(fc.Upper, upper)
	}

	if data != nil {
		fc.X, err = ToExternal(data)
		if err != nil {
			return nil, fmt.Errorf("bad forecast data, %w", err)
		}
	}
	return fc, nil
}

// FromDecompositionTable rebuilds an engine stl decomposition from a host decomposition table.
// The table carries no decomposition type, so the components are read as additive.
func FromDecompositionTable(tbl *frame.Table) (*engine.STL, error) {
	if !validate.IsHostDecomposition(tbl) {
		return nil, fmt.Errorf("table is not a decomposition, %w", errdefs.ErrInvalidArgument)
	}
	seasonal, _ := tbl.Column(validate.ColSeasonal)
	ts, err := ToExternal(seasonal)
	if err != nil {
		return nil, fmt.Errorf("bad decomposition index, %w", err)
	}

	names := []string{validate.ColSeasonal, validate.ColTrend, validate.ColRemainder}
	cols := make([][]float64, len(names))
	for i, name := range names {
		cols[i], _ = tbl.Values(name)
	}
	return &engine.STL{
		Components: &engine.MultiSeries{Tsp: ts.Tsp, Names: names, Columns: cols},
	}, nil
}
