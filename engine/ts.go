package engine

import (
	"fmt"
	"math"

	"github.com/aouyang1/go-forecastbridge/errdefs"
)

// TSOptions mirrors the arguments of the engine's ts() constructor. Start and End are either
// a single time value or a (period, position) pair.
type TSOptions struct {
	Start     []float64 `json:"start,omitempty" yaml:"start,omitempty"`
	End       []float64 `json:"end,omitempty" yaml:"end,omitempty"`
	Frequency float64   `json:"frequency,omitempty" yaml:"frequency,omitempty"`
	DeltaT    float64   `json:"deltat,omitempty" yaml:"deltat,omitempty"`
}

// TS builds a time series the way the engine's ts() does. Frequency defaults to 1 and start
// to 1. When only End is given the start is computed back from it. Giving both Start and End
// is rejected, since the engine would silently recycle or truncate the data to fit.
func TS(data []float64, opt *TSOptions) (*TimeSeries, error) {
	if opt == nil {
		opt = &TSOptions{}
	}

	freq := 1.0
	switch {
	case opt.Frequency > 0 && opt.DeltaT > 0:
		if math.Abs(opt.Frequency*opt.DeltaT-1) > TSEps {
			return nil, fmt.Errorf(
				"frequency %v and deltat %v are inconsistent, %w", opt.Frequency, opt.DeltaT, errdefs.ErrInvalidArgument,
			)
		}
		freq = opt.Frequency
	case opt.Frequency > 0:
		freq = opt.Frequency
	case opt.DeltaT > 0:
		freq = 1 / opt.DeltaT
	case opt.Frequency < 0 || opt.DeltaT < 0:
		return nil, fmt.Errorf("frequency must be positive, %w", errdefs.ErrInvalidArgument)
	}
	if freq > 1 && math.Abs(freq-math.Round(freq)) < TSEps {
		freq = math.Round(freq)
	}

	if len(opt.Start) > 0 && len(opt.End) > 0 {
		return nil, fmt.Errorf("start and end cannot both be given, %w", errdefs.ErrInvalidArgument)
	}

	n := len(data)
	start := 1.0
	switch {
	case len(opt.Start) > 0:
		t, err := timeValue(opt.Start, freq)
		if err != nil {
			return nil, fmt.Errorf("bad start, %w", err)
		}
		start = t
	case len(opt.End) > 0:
		t, err := timeValue(opt.End, freq)
		if err != nil {
			return nil, fmt.Errorf("bad end, %w", err)
		}
		start = t - float64(n-1)/freq
	}
	return NewTimeSeries(data, start, freq)
}

func timeValue(v []float64, freq float64) (float64, error) {
	switch len(v) {
	case 1:
		return v[0], nil
	case 2:
		return v[0] + (v[1]-1)/freq, nil
	default:
		return 0, fmt.Errorf("time has %d elements, expected 1 or 2, %w", len(v), errdefs.ErrInvalidArgument)
	}
}
